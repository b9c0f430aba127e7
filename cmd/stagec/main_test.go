package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/stagec/glsl"
)

// execute runs the root command with args and returns its output streams.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"out-dir", "glsl-version", "strict", "no-validate", "jobs", "verbose", "bindings"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
	if got := cmd.Flags().Lookup("glsl-version").DefValue; got != "450 core" {
		t.Errorf("--glsl-version default = %q, want %q", got, "450 core")
	}
}

func TestNoArguments(t *testing.T) {
	if _, _, err := execute(t); err == nil {
		t.Error("expected error without input files")
	}
}

func TestCompileToStdout(t *testing.T) {
	out, errOut, err := execute(t, "../../testdata/lit.yaml")
	if err != nil {
		t.Fatalf("execute failed: %v\n%s", err, errOut)
	}
	vertex := strings.Index(out, "// lit.vertex.glsl\n#version 450 core\n")
	fragment := strings.Index(out, "// lit.fragment.glsl\n#version 450 core\n")
	if vertex < 0 || fragment < 0 {
		t.Fatalf("missing stage headers in output:\n%s", out)
	}
	if vertex > fragment {
		t.Error("stages printed out of order")
	}
	if errOut != "" {
		t.Errorf("unexpected diagnostics: %q", errOut)
	}
}

func TestCompileToOutDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shaders")
	out, errOut, err := execute(t, "--out-dir", dir, "--verbose", "../../testdata/lit.yaml", "../../testdata/particles.yaml")
	if err != nil {
		t.Fatalf("execute failed: %v\n%s", err, errOut)
	}
	if out != "" {
		t.Errorf("unexpected stdout output: %q", out)
	}

	for _, name := range []string{"lit.vertex.glsl", "lit.fragment.glsl", "particles.compute.glsl"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing output %s: %v", name, err)
			continue
		}
		if !strings.HasPrefix(string(data), "#version 450 core\n") {
			t.Errorf("%s has no version line", name)
		}
		if !strings.Contains(errOut, "stagec: wrote "+filepath.Join(dir, name)) {
			t.Errorf("verbose log does not mention %s:\n%s", name, errOut)
		}
	}
}

func TestGLSLVersionFlag(t *testing.T) {
	out, errOut, err := execute(t, "--glsl-version", "310 es", "../../testdata/particles.yaml")
	if err != nil {
		t.Fatalf("execute failed: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "#version 310 es\n\nprecision highp float;\n") {
		t.Errorf("ES header missing:\n%s", out)
	}

	if _, _, err := execute(t, "--glsl-version", "440", "../../testdata/particles.yaml"); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestVersionValue(t *testing.T) {
	v := glsl.Version450
	f := versionValue{&v}
	if err := f.Set(" 320 es "); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v != glsl.VersionES320 {
		t.Errorf("version = %v, want 320 es", v)
	}
	if f.String() != "320 es" || f.Type() != "version" {
		t.Errorf("String() = %q, Type() = %q", f.String(), f.Type())
	}
	if err := f.Set("es"); err == nil {
		t.Error("expected error for malformed version")
	}
	if v != glsl.VersionES320 {
		t.Error("failed Set modified the version")
	}
}

func TestBindingsFlag(t *testing.T) {
	out, _, err := execute(t, "--bindings", "../../testdata/lit.yaml")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	for _, want := range []string{
		"// lit bindings\n",
		"//   buffer  objects          binding 0 stride 80\n",
		"//   texture albedo           binding 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("binding table missing %q:\n%s", want, out)
		}
	}
}

func TestCompileFailure(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	src := "stages:\n  - stage: fragment\n    main:\n      - depth: {local: missing}\n"
	if err := os.WriteFile(broken, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := execute(t, broken, "../../testdata/lit.yaml")
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got: %v", err)
	}
	if !strings.Contains(errOut, "stagec: "+broken) || !strings.Contains(errOut, "missing") {
		t.Errorf("diagnostic does not name the file and symbol:\n%s", errOut)
	}
	// Other pipelines are still compiled.
	if !strings.Contains(out, "// lit.fragment.glsl\n") {
		t.Errorf("lit pipeline not emitted:\n%s", out)
	}
}

func TestOutputCollision(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other", "lit.yaml")
	if err := os.MkdirAll(filepath.Dir(other), 0o755); err != nil {
		t.Fatal(err)
	}
	src := "stages:\n  - stage: compute\n    workgroup: [1]\n"
	if err := os.WriteFile(other, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	_, errOut, err := execute(t, "--out-dir", outDir, "../../testdata/lit.yaml", other)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got: %v", err)
	}
	if !strings.Contains(errOut, "stagec: "+other+": output lit.<stage>.glsl is already written for ../../testdata/lit.yaml") {
		t.Errorf("collision not reported:\n%s", errOut)
	}
	// The first pipeline keeps its outputs; the second writes nothing.
	if _, err := os.Stat(filepath.Join(outDir, "lit.fragment.glsl")); err != nil {
		t.Errorf("first pipeline output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "lit.compute.glsl")); !os.IsNotExist(err) {
		t.Errorf("colliding pipeline was written: %v", err)
	}

	// The same file twice is not a collision.
	if _, errOut, err := execute(t, "--out-dir", outDir, "../../testdata/lit.yaml", "../../testdata/lit.yaml"); err != nil {
		t.Errorf("repeated input failed: %v\n%s", err, errOut)
	}
}

func TestStrictAndValidateFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.yaml")
	src := `stages:
  - stage: fragment
    outputs: [{name: color, type: vec4}]
    main:
      - assign:
          target: {output: color}
          value: {add: [{const: {type: vec4, values: [1, 1, 1, 1]}}, {const: {type: vec3, values: [0, 0, 0]}}]}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, errOut, err := execute(t, path); err != nil {
		t.Errorf("lenient compile failed: %v\n%s", err, errOut)
	}
	_, errOut, err := execute(t, "--strict", path)
	if err == nil || !strings.Contains(errOut, "TypeError") {
		t.Errorf("strict compile: err = %v, diagnostics:\n%s", err, errOut)
	}
	if _, _, err := execute(t, "--no-validate", "--strict", "--jobs", "1", path); err == nil {
		t.Error("--no-validate must not disable strict typing")
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"lit.yaml", "lit"},
		{"dir/particles.yml", "particles"},
		{"noext", "noext"},
		{"a.b.yaml", "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := outputBase(tt.path); got != tt.expected {
				t.Errorf("outputBase(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}
