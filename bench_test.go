package stagec

import (
	"os"
	"runtime"
	"testing"

	"github.com/gogpu/stagec/glsl"
	"github.com/gogpu/stagec/pipefile"
)

// ---------------------------------------------------------------------------
// Fixtures at different complexity levels
// ---------------------------------------------------------------------------

var benchFixtures = []struct {
	name string
	path string
}{
	{"compute", "testdata/particles.yaml"},
	{"vertex_fragment", "testdata/lit.yaml"},
}

func BenchmarkParse(b *testing.B) {
	for _, f := range benchFixtures {
		b.Run(f.name, func(b *testing.B) {
			data, err := os.ReadFile(f.path)
			if err != nil {
				b.Fatalf("read fixture: %v", err)
			}
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			var p *pipefile.Pipeline
			for i := 0; i < b.N; i++ {
				p, err = pipefile.Parse(data)
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
			}
			runtime.KeepAlive(p)
		})
	}
}

func BenchmarkCompile(b *testing.B) {
	for _, f := range benchFixtures {
		for _, validate := range []bool{false, true} {
			name := f.name
			if validate {
				name += "/validate"
			}
			b.Run(name, func(b *testing.B) {
				p, err := pipefile.Load(f.path)
				if err != nil {
					b.Fatalf("load fixture: %v", err)
				}
				opts := DefaultOptions()
				opts.Validate = validate
				b.ReportAllocs()
				b.ResetTimer()

				var result *glsl.Pipeline
				for i := 0; i < b.N; i++ {
					result, err = Compile(p, opts)
					if err != nil {
						b.Fatalf("compile failed: %v", err)
					}
				}
				runtime.KeepAlive(result)
			})
		}
	}
}

func BenchmarkCompileAll(b *testing.B) {
	paths := make([]string, 0, 16)
	for len(paths) < cap(paths) {
		for _, f := range benchFixtures {
			paths = append(paths, f.path)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for _, r := range CompileAll(paths, DefaultOptions(), runtime.GOMAXPROCS(0)) {
			if r.Err != nil {
				b.Fatalf("compile failed: %v", r.Err)
			}
		}
	}
}
