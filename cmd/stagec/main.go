// Command stagec compiles YAML pipeline descriptions to GLSL.
//
// Usage:
//
//	stagec [flags] <pipeline.yaml>...
//
// Examples:
//
//	stagec lit.yaml                          # Print every stage to stdout
//	stagec -o build/shaders lit.yaml         # Write build/shaders/lit.<stage>.glsl
//	stagec --glsl-version "310 es" *.yaml    # Target OpenGL ES 3.1
//	stagec --bindings lit.yaml               # Also print binding tables
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gogpu/stagec"
	"github.com/gogpu/stagec/glsl"
	"github.com/gogpu/stagec/ir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// errFailed reports that at least one pipeline did not compile.
var errFailed = errors.New("compilation failed")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "stagec: %v\n", err)
		}
		return 1
	}
	return 0
}

// versionValue is a pflag.Value accepting GLSL version directives.
type versionValue struct {
	v *glsl.Version
}

var _ pflag.Value = versionValue{}

func (f versionValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f versionValue) Set(s string) error {
	v, err := glsl.ParseVersion(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*f.v = v
	return nil
}

func (f versionValue) Type() string {
	return "version"
}

// config holds the parsed command-line flags.
type config struct {
	outDir     string
	langVer    glsl.Version
	strict     bool
	noValidate bool
	jobs       int
	verbose    bool
	bindings   bool
}

func (c *config) options() stagec.Options {
	opts := stagec.DefaultOptions()
	opts.LangVersion = c.langVer
	opts.StrictTypes = c.strict
	opts.Validate = !c.noValidate
	return opts
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	cfg := &config{langVer: glsl.Version450}

	rootCmd := &cobra.Command{
		Use:   "stagec [flags] <pipeline.yaml>...",
		Short: "stagec compiles shader pipeline descriptions to GLSL",
		Long: `stagec compiles YAML pipeline descriptions to GLSL source, one
file per stage. Stages of a pipeline share buffer and texture bindings;
independent pipelines are compiled in parallel.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(io.Discard, "stagec: ", 0)
			if cfg.verbose {
				logger.SetOutput(errOut)
			}
			return compile(cfg, args, out, errOut, logger)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.Flags()
	flags.StringVarP(&cfg.outDir, "out-dir", "o", "", "write <out-dir>/<name>.<stage>.glsl instead of printing to stdout")
	flags.Var(versionValue{&cfg.langVer}, "glsl-version", `target GLSL version ("330" to "460", or "300 es" to "320 es")`)
	flags.BoolVar(&cfg.strict, "strict", false, "reject implicit operand type promotion")
	flags.BoolVar(&cfg.noValidate, "no-validate", false, "skip IR validation")
	flags.IntVarP(&cfg.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of pipelines compiled in parallel")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "log progress to stderr")
	flags.BoolVar(&cfg.bindings, "bindings", false, "print the binding table of every pipeline")

	return rootCmd
}

func compile(cfg *config, paths []string, out, errOut io.Writer, logger *log.Logger) error {
	if cfg.outDir != "" {
		if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
			return err
		}
	}

	logger.Printf("compiling %d pipeline(s) for GLSL %s with %d job(s)", len(paths), cfg.langVer, cfg.jobs)
	results := stagec.CompileAll(paths, cfg.options(), cfg.jobs)

	failed := 0
	owners := make(map[string]string)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "stagec: %v\n", r.Err)
			failed++
			continue
		}
		if cfg.outDir != "" {
			base := outputBase(r.Path)
			if owner, ok := owners[base]; ok && owner != filepath.Clean(r.Path) {
				fmt.Fprintf(errOut, "stagec: %s: output %s.<stage>.glsl is already written for %s\n", r.Path, base, owner)
				failed++
				continue
			}
			owners[base] = filepath.Clean(r.Path)
		}
		if err := emit(cfg, r, out, logger); err != nil {
			fmt.Fprintf(errOut, "stagec: %s: %v\n", r.Path, err)
			failed++
			continue
		}
		if cfg.bindings {
			writeBindings(out, r)
		}
	}

	if failed > 0 {
		logger.Printf("%d of %d pipeline(s) failed", failed, len(results))
		return errFailed
	}
	return nil
}

// outputBase returns the file name of path without its extension.
func outputBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// emit writes the sources of one compiled pipeline.
func emit(cfg *config, r stagec.Result, out io.Writer, logger *log.Logger) error {
	base := outputBase(r.Path)
	for _, stage := range r.Pipeline.Stages {
		name := fmt.Sprintf("%s.%s.glsl", base, stage)
		source := r.Pipeline.Sources[stage]
		if cfg.outDir == "" {
			fmt.Fprintf(out, "// %s\n%s\n", name, source)
			continue
		}
		path := filepath.Join(cfg.outDir, name)
		if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
			return err
		}
		logger.Printf("wrote %s (%d bytes)", path, len(source))
	}
	return nil
}

// writeBindings prints the buffer and texture bindings of a pipeline in
// natural name order.
func writeBindings(out io.Writer, r stagec.Result) {
	fmt.Fprintf(out, "// %s bindings\n", r.Name)
	p := r.Pipeline
	for _, name := range ir.SortedNames(p.BufferBindings) {
		layout := p.Buffers[name]
		fmt.Fprintf(out, "//   buffer  %-16s binding %d stride %d\n", name, p.BufferBindings[name], layout.Stride)
	}
	for _, name := range ir.SortedNames(p.TextureBindings) {
		fmt.Fprintf(out, "//   texture %-16s binding %d\n", name, p.TextureBindings[name])
	}
}
