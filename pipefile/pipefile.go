// Package pipefile decodes YAML pipeline descriptions into ir.Program
// values.
//
// A pipeline file lists the stages of one pipeline in compile order:
//
//	name: lit
//	stages:
//	  - stage: vertex
//	    inputs:  [{name: position, type: vec3}]
//	    outputs: [{name: color, type: vec4}]
//	    parameters: {mvp: mat4}
//	    main:
//	      - position: {mul: [{param: mvp}, {construct: {type: vec4, args: [{input: position}, 1.0]}}]}
//	      - assign: {target: {output: color}, value: {const: {type: vec4, values: [1, 0, 0, 1]}}}
//
// Instructions are single-key mappings named after their opcode, or bare
// strings for opcodes without operands (break, continue, discard, emit,
// endprim). Operands are plain scalars (constants), single-key references
// (local, arg, input, output, param, texture, buffer, const) or nested
// instructions. Omitted operand fields decode to unassigned operands and
// are reported by the compiler.
package pipefile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/stagec/ir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Pipeline is a decoded pipeline file.
type Pipeline struct {
	// Name identifies the pipeline in output file names and diagnostics.
	Name string

	// Stages holds one program per stage, in file order.
	Stages []*ir.Program
}

type pipelineFile struct {
	Name   string      `yaml:"name"`
	Stages []yaml.Node `yaml:"stages"`
}

type stageFile struct {
	Stage         string                  `yaml:"stage"`
	Inputs        []fieldFile             `yaml:"inputs"`
	Outputs       []fieldFile             `yaml:"outputs"`
	Parameters    map[string]yaml.Node    `yaml:"parameters"`
	Buffers       map[string]bufferFile   `yaml:"buffers"`
	Textures      map[string]textureFile  `yaml:"textures"`
	Structs       map[string][]fieldFile  `yaml:"structs"`
	Functions     map[string]functionFile `yaml:"functions"`
	Main          yaml.Node               `yaml:"main"`
	Geometry      geometryFile            `yaml:"geometry"`
	Workgroup     []uint32                `yaml:"workgroup"`
	PatchVertices uint32                  `yaml:"patch_vertices"`
	Domain        string                  `yaml:"domain"`
}

// fieldFile is an attribute, struct member, buffer element or argument.
type fieldFile struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Flat bool   `yaml:"flat"`
	line int
}

// UnmarshalYAML records the field's line for diagnostics.
func (f *fieldFile) UnmarshalYAML(n *yaml.Node) error {
	type plain fieldFile
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	f.line = n.Line
	return nil
}

type bufferFile struct {
	ReadOnly bool        `yaml:"readonly"`
	Dynamic  bool        `yaml:"dynamic"`
	Elements []fieldFile `yaml:"elements"`
}

type textureFile struct {
	Kind   string `yaml:"kind"`
	Format string `yaml:"format"`
	Size   uint32 `yaml:"size"`
}

type functionFile struct {
	Args    []fieldFile `yaml:"args"`
	Returns string      `yaml:"returns"`
	Body    yaml.Node   `yaml:"body"`
}

type geometryFile struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	MaxVertices uint32 `yaml:"max_vertices"`
}

// Load reads and decodes the pipeline file at path. A pipeline without a
// name is named after the file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read pipeline")
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Parse decodes a pipeline description.
func Parse(data []byte) (*Pipeline, error) {
	var f pipelineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode pipeline")
	}
	if len(f.Stages) == 0 {
		return nil, errors.New("pipeline has no stages")
	}

	p := &Pipeline{Name: f.Name}
	for i := range f.Stages {
		program, err := decodeStage(&f.Stages[i])
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d", i+1)
		}
		p.Stages = append(p.Stages, program)
	}
	return p, nil
}

func decodeStage(n *yaml.Node) (*ir.Program, error) {
	var s stageFile
	if err := n.Decode(&s); err != nil {
		return nil, err
	}
	stage, err := lookupName(stageNames, "stage", s.Stage)
	if err != nil {
		return nil, errorAt(n, "%v", err)
	}

	p := &ir.Program{Stage: stage, PatchVertices: s.PatchVertices}
	if p.Inputs, err = attributes(s.Inputs); err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	if p.Outputs, err = attributes(s.Outputs); err != nil {
		return nil, errors.Wrap(err, "outputs")
	}
	if p.Parameters, err = parameters(s.Parameters); err != nil {
		return nil, err
	}
	if p.Buffers, err = buffers(s.Buffers); err != nil {
		return nil, err
	}
	if p.Textures, err = textures(s.Textures); err != nil {
		return nil, err
	}
	if p.Structs, err = structs(s.Structs); err != nil {
		return nil, err
	}
	if p.Functions, err = functions(s.Functions); err != nil {
		return nil, err
	}
	if p.Main, err = block(&s.Main); err != nil {
		return nil, errors.Wrap(err, "main")
	}
	if err := stageLayout(p, &s); err != nil {
		return nil, errorAt(n, "%v", err)
	}
	return p, nil
}

func stageLayout(p *ir.Program, s *stageFile) error {
	if len(s.Workgroup) > 3 {
		return errors.Errorf("workgroup has %d dimensions, want at most 3", len(s.Workgroup))
	}
	copy(p.Workgroup[:], s.Workgroup)

	if s.Domain != "" {
		domain, err := lookupName(domainNames, "tessellation domain", s.Domain)
		if err != nil {
			return err
		}
		p.TessDomain = domain
	}

	g := s.Geometry
	p.Geometry.MaxVertices = g.MaxVertices
	if g.Input != "" {
		in, err := lookupName(topologyNames, "topology", g.Input)
		if err != nil {
			return err
		}
		p.Geometry.Input = in
	}
	if g.Output != "" {
		out, err := lookupName(topologyNames, "topology", g.Output)
		if err != nil {
			return err
		}
		p.Geometry.Output = out
	}
	return nil
}

func (f fieldFile) field() (ir.Field, error) {
	t, err := ParseType(f.Type)
	if err != nil {
		return ir.Field{}, errors.Wrapf(err, "line %d: %q", f.line, f.Name)
	}
	return ir.Field{Name: f.Name, Type: t}, nil
}

func fields(in []fieldFile) ([]ir.Field, error) {
	out := make([]ir.Field, 0, len(in))
	for _, f := range in {
		field, err := f.field()
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func attributes(in []fieldFile) ([]ir.Attribute, error) {
	out := make([]ir.Attribute, 0, len(in))
	for _, f := range in {
		field, err := f.field()
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Attribute{Name: field.Name, Type: field.Type, Flat: f.Flat})
	}
	return out, nil
}

func parameters(in map[string]yaml.Node) (map[string]ir.Type, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.Type, len(in))
	for name, n := range in {
		t, err := ParseType(n.Value)
		if err != nil {
			return nil, errorAt(&n, "parameter %q: %v", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func buffers(in map[string]bufferFile) (map[string]ir.Buffer, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.Buffer, len(in))
	for name, b := range in {
		elems, err := fields(b.Elements)
		if err != nil {
			return nil, errors.Wrapf(err, "buffer %q", name)
		}
		out[name] = ir.Buffer{ReadOnly: b.ReadOnly, Dynamic: b.Dynamic, Elements: elems}
	}
	return out, nil
}

func textures(in map[string]textureFile) (map[string]ir.Texture, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.Texture, len(in))
	for name, t := range in {
		tex := ir.Texture{ArraySize: t.Size}
		var err error
		if t.Kind != "" {
			if tex.Kind, err = lookupName(textureKindNames, "texture kind", t.Kind); err != nil {
				return nil, errors.Wrapf(err, "texture %q", name)
			}
		}
		if t.Format != "" {
			if tex.Format, err = lookupName(textureFormatNames, "texture format", t.Format); err != nil {
				return nil, errors.Wrapf(err, "texture %q", name)
			}
		}
		out[name] = tex
	}
	return out, nil
}

func structs(in map[string][]fieldFile) (map[string]ir.Struct, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.Struct, len(in))
	for name, members := range in {
		fs, err := fields(members)
		if err != nil {
			return nil, errors.Wrapf(err, "struct %q", name)
		}
		out[name] = ir.Struct{Fields: fs}
	}
	return out, nil
}

func functions(in map[string]functionFile) (map[string]ir.Function, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.Function, len(in))
	for name, f := range in {
		args, err := fields(f.Args)
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", name)
		}
		fn := ir.Function{Args: args}
		if f.Returns != "" {
			t, err := ParseType(f.Returns)
			if err != nil {
				return nil, errors.Wrapf(err, "function %q", name)
			}
			fn.Return = &t
		}
		if fn.Body, err = block(&f.Body); err != nil {
			return nil, errors.Wrapf(err, "function %q", name)
		}
		out[name] = fn
	}
	return out, nil
}

var (
	stageNames = map[string]ir.Stage{
		"vertex":       ir.StageVertex,
		"geometry":     ir.StageGeometry,
		"tess_control": ir.StageTessControl,
		"tess_eval":    ir.StageTessEval,
		"fragment":     ir.StageFragment,
		"compute":      ir.StageCompute,
	}
	topologyNames = map[string]ir.Topology{
		"points":    ir.TopologyPoint,
		"lines":     ir.TopologyLine,
		"triangles": ir.TopologyTriangle,
		"quads":     ir.TopologyQuad,
	}
	domainNames = map[string]ir.TessDomain{
		"triangles": ir.DomainTriangles,
		"quads":     ir.DomainQuads,
		"isolines":  ir.DomainIsolines,
	}
	textureKindNames = map[string]ir.TextureKind{
		"1d":       ir.Texture1D,
		"2d":       ir.Texture2D,
		"3d":       ir.Texture3D,
		"cube":     ir.TextureCube,
		"2d_array": ir.Texture2DArray,
	}
	textureFormatNames = map[string]ir.TextureFormat{
		"float": ir.FormatFloat,
		"int":   ir.FormatInt,
		"uint":  ir.FormatUint,
		"depth": ir.FormatDepth,
	}
)

func lookupName[V any](names map[string]V, what, name string) (V, error) {
	v, ok := names[name]
	if !ok {
		return v, errors.Errorf("unknown %s %q", what, name)
	}
	return v, nil
}

// errorAt returns an error naming the line of n.
func errorAt(n *yaml.Node, format string, args ...any) error {
	return errors.Errorf("line %d: "+format, append([]any{n.Line}, args...)...)
}
