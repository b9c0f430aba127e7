// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"slices"

	"github.com/gogpu/stagec/ir"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version330 = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	Version400 = Version{Major: 4, Minor: 0, ES: false}  // OpenGL 4.0
	Version410 = Version{Major: 4, Minor: 10, ES: false} // OpenGL 4.1
	Version420 = Version{Major: 4, Minor: 20, ES: false} // OpenGL 4.2
	Version430 = Version{Major: 4, Minor: 30, ES: false} // OpenGL 4.3 (compute shaders)
	Version450 = Version{Major: 4, Minor: 50, ES: false} // OpenGL 4.5
	Version460 = Version{Major: 4, Minor: 60, ES: false} // OpenGL 4.6

	// OpenGL ES versions
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 / WebGL 2.0
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2 (geometry, tessellation)
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "330", "300").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// ParseVersion parses a version directive value such as "450", "450 core"
// or "310 es".
func ParseVersion(s string) (Version, error) {
	var number int
	var profile string
	n, _ := fmt.Sscanf(s, "%d %s", &number, &profile)
	if n == 0 || number < 100 || number > 999 {
		return Version{}, fmt.Errorf("invalid GLSL version %q", s)
	}
	v := Version{Major: uint8(number / 100), Minor: uint8(number % 100)}
	switch profile {
	case "", "core":
	case "es":
		v.ES = true
	default:
		return Version{}, fmt.Errorf("invalid GLSL profile %q", profile)
	}
	for _, known := range knownVersions {
		if known == v {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("unsupported GLSL version %q", s)
}

var knownVersions = []Version{
	Version330, Version400, Version410, Version420, Version430, Version450, Version460,
	VersionES300, VersionES310, VersionES320,
}

// number returns Major*100+Minor.
func (v Version) number() int {
	return int(v.Major)*100 + int(v.Minor)
}

// atLeast reports whether v is at least desktop (or es, for ES versions).
// A zero threshold means the feature does not exist in that profile.
func (v Version) atLeast(desktop, es int) bool {
	if v.ES {
		return es != 0 && v.number() >= es
	}
	return desktop != 0 && v.number() >= desktop
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	return v.atLeast(430, 310)
}

// SupportsStorageBuffers returns true if this version supports storage buffers.
func (v Version) SupportsStorageBuffers() bool {
	return v.atLeast(430, 310)
}

// SupportsGeometry returns true if this version supports geometry shaders.
func (v Version) SupportsGeometry() bool {
	return v.atLeast(330, 320)
}

// SupportsTessellation returns true if this version supports tessellation shaders.
func (v Version) SupportsTessellation() bool {
	return v.atLeast(400, 320)
}

// SupportsDoubles returns true if this version has double precision types.
func (v Version) SupportsDoubles() bool {
	return v.atLeast(400, 0)
}

// SupportsExplicitBinding returns true if resources may carry a binding
// layout qualifier.
func (v Version) SupportsExplicitBinding() bool {
	return v.atLeast(420, 310)
}

// SupportsInterstageLocations returns true if varyings between stages
// may carry location qualifiers.
func (v Version) SupportsInterstageLocations() bool {
	return v.atLeast(410, 310)
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version450 if zero.
	LangVersion Version

	// Validate runs ir.Validate on every stage before code generation.
	Validate bool

	// StrictTypes rejects arithmetic on operands whose types cannot be
	// combined instead of applying the scalar/left-operand promotion rule.
	StrictTypes bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion: Version450,
		Validate:    true,
	}
}

// BufferLayout describes a storage buffer as declared in the generated
// source, so that the execution backend can pack data at the same offsets.
type BufferLayout struct {
	Binding  uint32
	ReadOnly bool
	Dynamic  bool

	// Stride is the std430 size of one element of the data array.
	Stride uint32

	// Fields holds the std430 placement of each element member.
	Fields []ir.FieldLayout
}

// Pipeline is the result of compiling the stages of one pipeline.
type Pipeline struct {
	// Stages lists the compiled stages in the order they were supplied.
	Stages []ir.Stage

	// Sources maps each stage to its GLSL source text.
	Sources map[ir.Stage]string

	// BufferBindings and TextureBindings map resource names to the binding
	// indices referenced by the generated source.
	BufferBindings  map[string]uint32
	TextureBindings map[string]uint32

	// Buffers describes the layout of every storage buffer.
	Buffers map[string]BufferLayout
}

// Compile generates GLSL source code for every stage of one pipeline.
//
// Stages are compiled in the order given and share one binding allocator.
// Any error aborts the whole pipeline: no partial Pipeline is returned.
func Compile(stages []*ir.Program, options Options) (*Pipeline, error) {
	// Apply defaults for zero values
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version450
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("glsl: %w", ir.NewError(ir.ErrInvalidOperand, "pipeline has no stages"))
	}

	pipeline := &Pipeline{
		Sources: make(map[ir.Stage]string, len(stages)),
		Buffers: make(map[string]BufferLayout),
	}
	bindings := NewBindingAllocator()

	for _, program := range stages {
		if program == nil {
			return nil, fmt.Errorf("glsl: %w", ir.NewError(ir.ErrInvalidOperand, "nil stage program"))
		}
		if _, dup := pipeline.Sources[program.Stage]; dup {
			return nil, fmt.Errorf("glsl: %w", ir.Errorf(ir.ErrInvalidOperand, "%s stage supplied twice", program.Stage))
		}
		source, err := compileStage(program, &options, bindings, pipeline.Buffers)
		if err != nil {
			return nil, fmt.Errorf("glsl: %s stage: %w", program.Stage, err)
		}
		pipeline.Stages = append(pipeline.Stages, program.Stage)
		pipeline.Sources[program.Stage] = source
	}

	pipeline.BufferBindings = bindings.Bindings(ResourceBuffer)
	pipeline.TextureBindings = bindings.Bindings(ResourceTexture)
	return pipeline, nil
}

// compileStage validates and writes one stage. Buffer layouts are merged
// into layouts; a buffer declared differently by two stages is an error.
func compileStage(program *ir.Program, options *Options, bindings *BindingAllocator, layouts map[string]BufferLayout) (string, error) {
	if options.Validate {
		errs, err := ir.Validate(program)
		if err != nil {
			return "", err
		}
		if len(errs) > 0 {
			return "", errs[0].Err()
		}
	}

	w := newWriter(program, options, bindings)
	if err := w.writeProgram(); err != nil {
		return "", err
	}

	for name, layout := range w.buffers {
		prev, seen := layouts[name]
		if seen {
			if !sameLayout(prev, layout) {
				return "", ir.Errorf(ir.ErrInvalidOperand, "buffer %q is declared with a different layout by another stage", name)
			}
			// Writable in any stage means writable for the pipeline.
			layout.ReadOnly = layout.ReadOnly && prev.ReadOnly
		}
		layouts[name] = layout
	}
	return w.String(), nil
}

func sameLayout(a, b BufferLayout) bool {
	return a.Binding == b.Binding && a.Dynamic == b.Dynamic &&
		a.Stride == b.Stride && slices.Equal(a.Fields, b.Fields)
}
