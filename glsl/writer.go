// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/stagec/ir"
)

// mainFunction is the entry point name. Locals and arguments are not
// prefixed inside it.
const mainFunction = "main"

// drawIDName is the attribute that forwards the draw id between stages.
const drawIDName = "draw_id"

// Writer generates GLSL source code for one pipeline stage.
type Writer struct {
	program  *ir.Program
	options  *Options
	bindings *BindingAllocator

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int

	// Function context (set during function writing)
	function string
	returns  *ir.Type
	resolver *ir.Resolver

	// Output tracking
	buffers map[string]BufferLayout
}

// newWriter creates a new GLSL writer.
func newWriter(program *ir.Program, options *Options, bindings *BindingAllocator) *Writer {
	return &Writer{
		program:  program,
		options:  options,
		bindings: bindings,
		buffers:  make(map[string]BufferLayout),
	}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeProgram generates GLSL code for the whole stage.
func (w *Writer) writeProgram() error {
	// 1. Check the stage exists in the target version
	if err := w.checkStage(); err != nil {
		return err
	}

	// 2. Write version directive and precision qualifiers (ES only)
	w.writeVersionDirective()
	w.writePrecisionQualifiers()

	// 3. Write the draw id alias
	w.writeDrawID()

	// 4. Write struct definitions
	if err := w.writeStructs(); err != nil {
		return err
	}

	// 5. Write storage buffers
	if err := w.writeBuffers(); err != nil {
		return err
	}

	// 6. Write samplers
	if err := w.writeTextures(); err != nil {
		return err
	}

	// 7. Write stage layout (geometry, tessellation, compute)
	if err := w.writeStageLayout(); err != nil {
		return err
	}

	// 8. Write inputs and outputs
	if err := w.writeInputs(); err != nil {
		return err
	}
	if err := w.writeOutputs(); err != nil {
		return err
	}

	// 9. Write uniform parameters
	if err := w.writeUniforms(); err != nil {
		return err
	}

	// 10. Write helper functions
	if err := w.writeFunctions(); err != nil {
		return err
	}

	// 11. Write the entry point
	return w.writeMain()
}

// checkStage rejects stages the target version cannot express.
func (w *Writer) checkStage() error {
	version := w.options.LangVersion
	switch w.program.Stage {
	case ir.StageVertex, ir.StageFragment:
		return nil
	case ir.StageGeometry:
		if !version.SupportsGeometry() {
			return ir.Errorf(ir.ErrUnsupportedFeature, "geometry stages require a newer version than %s", version)
		}
	case ir.StageTessControl, ir.StageTessEval:
		if !version.SupportsTessellation() {
			return ir.Errorf(ir.ErrUnsupportedFeature, "tessellation stages require a newer version than %s", version)
		}
	case ir.StageCompute:
		if !version.SupportsCompute() {
			return ir.Errorf(ir.ErrUnsupportedFeature, "compute stages require a newer version than %s", version)
		}
		if len(w.program.Inputs) > 0 || len(w.program.Outputs) > 0 {
			return ir.NewError(ir.ErrUnsupportedFeature, "compute stages have no input or output attributes")
		}
	default:
		return ir.Errorf(ir.ErrUnsupportedFeature, "unknown stage %d", w.program.Stage)
	}
	return nil
}

// writeVersionDirective writes the #version directive.
func (w *Writer) writeVersionDirective() {
	w.writeLine("#version %s", w.options.LangVersion.String())
	w.writeLine("")
}

// writePrecisionQualifiers writes precision qualifiers for ES.
func (w *Writer) writePrecisionQualifiers() {
	if !w.options.LangVersion.ES {
		return
	}

	// ES requires precision qualifiers
	w.writeLine("precision highp float;")
	w.writeLine("precision highp int;")
	w.writeLine("")
}

// drawIDSource returns the expression DRAW_ID stands for in the current
// stage, or "" when the stage has no draw id.
func (w *Writer) drawIDSource() string {
	switch w.program.Stage {
	case ir.StageVertex:
		return "gl_InstanceID"
	case ir.StageGeometry, ir.StageTessEval:
		return "in_draw_id[0]"
	case ir.StageTessControl:
		return "in_draw_id[gl_InvocationID]"
	case ir.StageFragment:
		return "in_draw_id"
	default:
		return ""
	}
}

// writeDrawID writes the DRAW_ID alias.
func (w *Writer) writeDrawID() {
	if src := w.drawIDSource(); src != "" {
		w.writeLine("#define DRAW_ID %s", src)
		w.writeLine("")
	}
}

// writeStructs writes struct definitions, each after the structs it
// contains.
func (w *Writer) writeStructs() error {
	order, err := w.structOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		structName, err := identifier(name)
		if err != nil {
			return err
		}
		w.writeLine("struct %s {", structName)
		if err := w.writeMembers(w.program.Structs[name].Fields); err != nil {
			return err
		}
		w.writeLine("};")
		w.writeLine("")
	}
	return nil
}

// structOrder returns struct names in natural order, moving every struct
// after the structs its members use.
func (w *Writer) structOrder() ([]string, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(w.program.Structs))
	order := make([]string, 0, len(w.program.Structs))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return ir.Errorf(ir.ErrUnsupportedType, "struct %q contains itself", name)
		case done:
			return nil
		}
		def, err := w.program.LookupStruct(name)
		if err != nil {
			return err
		}
		state[name] = visiting
		for _, f := range def.Fields {
			if f.Type.IsStruct() {
				if err := visit(f.Type.Struct); err != nil {
					return err
				}
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range ir.SortedNames(w.program.Structs) {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// writeMembers writes one indented declaration per field.
func (w *Writer) writeMembers(fields []ir.Field) error {
	w.pushIndent()
	defer w.popIndent()
	for _, f := range fields {
		name, err := identifier(f.Name)
		if err != nil {
			return err
		}
		decl, err := w.declaration(f.Type, name)
		if err != nil {
			return err
		}
		w.writeLine("%s;", decl)
	}
	return nil
}

// writeBuffers writes one element struct and one std430 block per buffer.
func (w *Writer) writeBuffers() error {
	if len(w.program.Buffers) > 0 && !w.options.LangVersion.SupportsStorageBuffers() {
		return ir.Errorf(ir.ErrUnsupportedFeature, "storage buffers require a newer version than %s", w.options.LangVersion)
	}
	for _, name := range ir.SortedNames(w.program.Buffers) {
		buf := w.program.Buffers[name]
		blockName, err := resourceName("buffer_", name)
		if err != nil {
			return err
		}
		if len(buf.Elements) == 0 {
			return ir.Errorf(ir.ErrInvalidOperand, "buffer %q has no elements", name)
		}
		fields, stride, err := w.program.Layout(buf.Elements)
		if err != nil {
			return err
		}

		binding := w.bindings.BindingFor(ResourceBuffer, name)
		w.buffers[name] = BufferLayout{
			Binding:  binding,
			ReadOnly: buf.ReadOnly,
			Dynamic:  buf.Dynamic,
			Stride:   stride,
			Fields:   fields,
		}

		w.writeLine("struct %s_t {", blockName)
		if err := w.writeMembers(buf.Elements); err != nil {
			return err
		}
		w.writeLine("};")

		access := ""
		if buf.ReadOnly {
			access = "readonly "
		}
		w.writeLine("layout(std430, binding = %d) %sbuffer %s_block {", binding, access, blockName)
		w.pushIndent()
		w.writeLine("%s_t data[];", blockName)
		w.popIndent()
		w.writeLine("} %s;", blockName)
		w.writeLine("")
	}
	return nil
}

// writeTextures writes one sampler (or sampler array) per texture.
func (w *Writer) writeTextures() error {
	if len(w.program.Textures) == 0 {
		return nil
	}
	version := w.options.LangVersion
	if !version.SupportsExplicitBinding() {
		return ir.Errorf(ir.ErrUnsupportedFeature, "sampler bindings require a newer version than %s", version)
	}
	precision := ""
	if version.ES {
		precision = "highp "
	}
	for _, name := range ir.SortedNames(w.program.Textures) {
		tex := w.program.Textures[name]
		samplerName, err := resourceName("texture_", name)
		if err != nil {
			return err
		}
		samplerType, err := samplerToGLSL(tex, version)
		if err != nil {
			return err
		}
		suffix := ""
		if tex.IsArray() {
			suffix = fmt.Sprintf("[%d]", tex.ArraySize)
		}
		binding, err := w.bindings.Reserve(ResourceTexture, name, tex.ArraySize)
		if err != nil {
			return err
		}
		w.writeLine("layout(binding = %d) uniform %s%s %s%s;", binding, precision, samplerType, samplerName, suffix)
	}
	w.writeLine("")
	return nil
}

// writeStageLayout writes the stage's primitive, patch or workgroup layout.
func (w *Writer) writeStageLayout() error {
	p := w.program
	switch p.Stage {
	case ir.StageGeometry:
		in, err := geometryInput(p.Geometry.Input)
		if err != nil {
			return err
		}
		out, err := geometryOutput(p.Geometry.Output)
		if err != nil {
			return err
		}
		w.writeLine("layout(%s) in;", in)
		w.writeLine("layout(%s, max_vertices = %d) out;", out, p.Geometry.MaxVertices)
	case ir.StageTessControl:
		w.writeLine("layout(vertices = %d) out;", max(p.PatchVertices, 1))
	case ir.StageTessEval:
		domain, err := tessDomain(p.TessDomain)
		if err != nil {
			return err
		}
		w.writeLine("layout(%s) in;", domain)
	case ir.StageCompute:
		size := p.Workgroup
		w.writeLine("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;",
			max(size[0], 1), max(size[1], 1), max(size[2], 1))
	default:
		return nil
	}
	w.writeLine("")
	return nil
}

func geometryInput(t ir.Topology) (string, error) {
	switch t {
	case ir.TopologyPoint:
		return "points", nil
	case ir.TopologyLine:
		return "lines", nil
	case ir.TopologyTriangle:
		return "triangles", nil
	case ir.TopologyQuad:
		return "", ir.NewError(ir.ErrUnsupportedFeature, "quad input topology in a geometry stage")
	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown topology %d", t)
	}
}

func geometryOutput(t ir.Topology) (string, error) {
	switch t {
	case ir.TopologyPoint:
		return "points", nil
	case ir.TopologyLine:
		return "line_strip", nil
	case ir.TopologyTriangle:
		return "triangle_strip", nil
	case ir.TopologyQuad:
		return "", ir.NewError(ir.ErrUnsupportedFeature, "quad output topology in a geometry stage")
	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown topology %d", t)
	}
}

func tessDomain(d ir.TessDomain) (string, error) {
	switch d {
	case ir.DomainTriangles:
		return "triangles", nil
	case ir.DomainQuads:
		return "quads", nil
	case ir.DomainIsolines:
		return "isolines", nil
	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown tessellation domain %d", d)
	}
}

// forwardsDrawID reports whether the stage receives (input) or passes on
// (output) the draw id through an attribute.
func (w *Writer) forwardsDrawID(input bool) bool {
	switch w.program.Stage {
	case ir.StageVertex:
		return !input
	case ir.StageGeometry, ir.StageTessControl, ir.StageTessEval:
		return true
	case ir.StageFragment:
		return input
	default:
		return false
	}
}

// attributeArrayed reports whether the stage declares per-vertex arrays for
// attributes in the given direction.
func (w *Writer) attributeArrayed(input bool) bool {
	switch w.program.Stage {
	case ir.StageGeometry, ir.StageTessEval:
		return input
	case ir.StageTessControl:
		return true
	default:
		return false
	}
}

// writeInputs writes the input attributes at sequential locations.
func (w *Writer) writeInputs() error {
	return w.writeAttributes(w.program.Inputs, true)
}

// writeOutputs writes the output attributes at sequential locations.
func (w *Writer) writeOutputs() error {
	return w.writeAttributes(w.program.Outputs, false)
}

func (w *Writer) writeAttributes(attrs []ir.Attribute, input bool) error {
	prefix, direction := "out_", "out"
	if input {
		prefix, direction = "in_", "in"
	}
	// Vertex inputs and fragment outputs face the API, not another stage.
	external := (input && w.program.Stage == ir.StageVertex) || (!input && w.program.Stage == ir.StageFragment)
	arrayed := ""
	if w.attributeArrayed(input) {
		arrayed = "[]"
	}
	forward := w.forwardsDrawID(input)
	if !external && (len(attrs) > 0 || forward) && !w.options.LangVersion.SupportsInterstageLocations() {
		return ir.Errorf(ir.ErrUnsupportedFeature, "interstage locations require a newer version than %s", w.options.LangVersion)
	}

	var location uint32
	for _, attr := range attrs {
		if forward && attr.Name == drawIDName {
			return ir.Errorf(ir.ErrInvalidOperand, "attribute name %q is reserved for the forwarded draw id", drawIDName)
		}
		if attr.Type.IsStruct() {
			return ir.Errorf(ir.ErrUnsupportedType, "attribute %q has struct type", attr.Name)
		}
		name, err := resourceName(prefix, attr.Name)
		if err != nil {
			return err
		}
		typeName, err := w.typeName(attr.Type)
		if err != nil {
			return err
		}
		flat := ""
		if !external && (attr.Flat || requiresFlat(attr.Type)) {
			flat = "flat "
		}
		w.writeLine("layout(location = %d) %s%s %s %s%s%s;",
			location, flat, direction, typeName, name, arrayed, arraySuffix(attr.Type))
		location += attr.Type.Locations()
	}
	if forward {
		w.writeLine("layout(location = %d) flat %s int %s%s%s;", location, direction, prefix, drawIDName, arrayed)
	}
	if len(attrs) > 0 || forward {
		w.writeLine("")
	}
	return nil
}

// writeUniforms writes one uniform per parameter.
func (w *Writer) writeUniforms() error {
	for _, name := range ir.SortedNames(w.program.Parameters) {
		paramName, err := resourceName("param_", name)
		if err != nil {
			return err
		}
		decl, err := w.declaration(w.program.Parameters[name], paramName)
		if err != nil {
			return err
		}
		w.writeLine("uniform %s;", decl)
	}
	if len(w.program.Parameters) > 0 {
		w.writeLine("")
	}
	return nil
}

// typeName returns the GLSL name of t, checking that the target version
// and the program can express it.
func (w *Writer) typeName(t ir.Type) (string, error) {
	if t.IsStruct() {
		if _, err := w.program.LookupStruct(t.Struct); err != nil {
			return "", err
		}
	} else if t.Component == ir.ComponentDouble && !w.options.LangVersion.SupportsDoubles() {
		return "", ir.Errorf(ir.ErrUnsupportedType, "double precision is not available in GLSL %s", w.options.LangVersion)
	}
	return TypeName(t)
}

// declaration returns "<type> <name>[N]".
func (w *Writer) declaration(t ir.Type, name string) (string, error) {
	typeName, err := w.typeName(t)
	if err != nil {
		return "", err
	}
	return typeName + " " + name + arraySuffix(t), nil
}

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	if format != "" {
		w.writeIndent()
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
