package ir

import "fmt"

// FieldLayout is the std430 placement of one field inside a struct.
type FieldLayout struct {
	Name   string
	Offset uint32
	Size   uint32
}

// AlignOf returns the std430 base alignment of t.
func (p *Program) AlignOf(t Type) (uint32, error) {
	return p.alignOf(t, 0)
}

// SizeOf returns the std430 size of t, including array strides and struct
// tail padding.
func (p *Program) SizeOf(t Type) (uint32, error) {
	return p.sizeOf(t, 0)
}

// Layout places fields one after another using std430 rules and returns
// each field's offset together with the padded total size.
func (p *Program) Layout(fields []Field) ([]FieldLayout, uint32, error) {
	return p.layout(fields, 0)
}

// maxStructDepth bounds recursion through self-referencing struct
// definitions, which are invalid in every shading language.
const maxStructDepth = 32

func (p *Program) layout(fields []Field, depth int) ([]FieldLayout, uint32, error) {
	out := make([]FieldLayout, 0, len(fields))
	var offset, maxAlign uint32 = 0, 1
	for _, f := range fields {
		align, err := p.alignOf(f.Type, depth)
		if err != nil {
			return nil, 0, err
		}
		size, err := p.sizeOf(f.Type, depth)
		if err != nil {
			return nil, 0, err
		}
		offset = roundUp(offset, align)
		out = append(out, FieldLayout{Name: f.Name, Offset: offset, Size: size})
		offset += size
		if align > maxAlign {
			maxAlign = align
		}
	}
	return out, roundUp(offset, maxAlign), nil
}

func (p *Program) alignOf(t Type, depth int) (uint32, error) {
	if t.IsStruct() {
		def, err := p.structDef(t.Struct, depth)
		if err != nil {
			return 0, err
		}
		maxAlign := uint32(1)
		for _, f := range def.Fields {
			a, err := p.alignOf(f.Type, depth+1)
			if err != nil {
				return 0, err
			}
			if a > maxAlign {
				maxAlign = a
			}
		}
		return maxAlign, nil
	}
	return valueAlign(t), nil
}

func (p *Program) sizeOf(t Type, depth int) (uint32, error) {
	var elem uint32
	if t.IsStruct() {
		def, err := p.structDef(t.Struct, depth)
		if err != nil {
			return 0, err
		}
		_, size, err := p.layout(def.Fields, depth+1)
		if err != nil {
			return 0, err
		}
		elem = size
	} else {
		elem = valueSize(t)
	}
	if !t.IsArray() {
		return elem, nil
	}
	align, err := p.alignOf(t, depth)
	if err != nil {
		return 0, err
	}
	return roundUp(elem, align) * t.Count, nil
}

func (p *Program) structDef(name string, depth int) (Struct, error) {
	if depth > maxStructDepth {
		return Struct{}, NewError(ErrUnsupportedType, fmt.Sprintf("struct %q nests too deeply (recursive definition?)", name))
	}
	def, ok := p.Structs[name]
	if !ok {
		return Struct{}, NewError(ErrLookupFailure, fmt.Sprintf("struct %q is not defined", name))
	}
	return def, nil
}

// valueAlign returns the std430 alignment of a non-struct element.
func valueAlign(t Type) uint32 {
	w := t.Component.Width()
	switch {
	case t.Shape == ShapeVec2:
		return 2 * w
	case t.Shape.IsVector():
		return 4 * w
	case t.Shape == ShapeMat2:
		return 2 * w
	case t.Shape.IsMatrix():
		return 4 * w
	default:
		return w
	}
}

// valueSize returns the std430 size of one non-struct element. Matrix
// columns are laid out as an array of column vectors.
func valueSize(t Type) uint32 {
	w := t.Component.Width()
	if t.Shape.IsMatrix() {
		dim := uint32(t.Shape.Dim())
		stride := valueAlign(Type{Shape: VectorShape(int(dim)), Component: t.Component})
		return stride * dim
	}
	return w * uint32(t.Shape.Components())
}

func roundUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
