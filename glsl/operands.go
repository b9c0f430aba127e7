// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/stagec/ir"
)

// writeOperand renders an operand as a GLSL expression.
//
//nolint:gocyclo,cyclop // one case per operand kind
func (w *Writer) writeOperand(op ir.Operand) (string, error) {
	switch o := op.(type) {
	case nil:
		return "", ir.NewError(ir.ErrInvalidOperand, "unassigned operand")

	case ir.BufferElement:
		return w.writeBufferElement(o.Buffer, o.Element, o.Index)

	case ir.TextureRef:
		if _, err := w.program.LookupTexture(o.Texture); err != nil {
			return "", err
		}
		return resourceName("texture_", o.Texture)

	case ir.Parameter:
		if _, err := w.program.LookupParameter(o.Name); err != nil {
			return "", err
		}
		return resourceName("param_", o.Name)

	case ir.Input:
		if _, err := w.program.LookupInput(o.Name); err != nil {
			return "", err
		}
		return resourceName("in_", o.Name)

	case ir.Output:
		if _, err := w.program.LookupOutput(o.Name); err != nil {
			return "", err
		}
		return resourceName("out_", o.Name)

	case ir.Argument:
		if _, ok := w.resolver.Scope.Arg(o.Name); !ok {
			return "", ir.Errorf(ir.ErrLookupFailure, "argument %q is not defined", o.Name)
		}
		return w.scopedName(o.Name)

	case ir.Local:
		if _, ok := w.resolver.Scope.Local(o.Name); !ok {
			return "", ir.Errorf(ir.ErrLookupFailure, "variable %q is not declared", o.Name)
		}
		return w.scopedName(o.Name)

	case ir.Const:
		if o.Value.Component == ir.ComponentDouble && !w.options.LangVersion.SupportsDoubles() {
			return "", ir.Errorf(ir.ErrUnsupportedType, "double precision is not available in GLSL %s", w.options.LangVersion)
		}
		return LiteralString(o.Value)

	case ir.Nested:
		return w.writeInstruction(o.Instruction)

	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unsupported operand %T", op)
	}
}

// writeRequired renders an operand slot that must be filled.
func (w *Writer) writeRequired(what string, op ir.Operand) (string, error) {
	if op == nil {
		return "", ir.Errorf(ir.ErrInvalidOperand, "%s is unassigned", what)
	}
	return w.writeOperand(op)
}

// writeBufferElement writes "buffer_<name>.data[<index>].<element>".
// Dynamic buffers take an explicit index; static buffers are indexed by
// the draw id.
func (w *Writer) writeBufferElement(buffer, element string, index ir.Operand) (string, error) {
	buf, err := w.program.LookupBuffer(buffer)
	if err != nil {
		return "", err
	}
	if _, ok := buf.Element(element); !ok {
		return "", ir.Errorf(ir.ErrLookupFailure, "buffer %q has no element %q", buffer, element)
	}
	blockName, err := resourceName("buffer_", buffer)
	if err != nil {
		return "", err
	}
	elemName, err := identifier(element)
	if err != nil {
		return "", err
	}

	var idx string
	switch {
	case buf.Dynamic && index == nil:
		return "", ir.Errorf(ir.ErrInvalidOperand, "dynamic buffer %q accessed without an index", buffer)
	case buf.Dynamic:
		if idx, err = w.writeOperand(index); err != nil {
			return "", err
		}
	case index != nil:
		return "", ir.Errorf(ir.ErrInvalidOperand, "static buffer %q is indexed by the draw id, not explicitly", buffer)
	case w.drawIDSource() == "":
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "static buffer %q needs a draw id, which %s stages lack", buffer, w.program.Stage)
	default:
		idx = "DRAW_ID"
	}
	return fmt.Sprintf("%s.data[%s].%s", blockName, idx, elemName), nil
}

// writeBufferSize writes "buffer_<name>.data.length()".
func (w *Writer) writeBufferSize(s ir.BufferSize) (string, error) {
	buf, err := w.program.LookupBuffer(s.Buffer)
	if err != nil {
		return "", err
	}
	if !buf.Dynamic {
		return "", ir.Errorf(ir.ErrInvalidOperand, "size of buffer %q requested, but it is not dynamic", s.Buffer)
	}
	blockName, err := resourceName("buffer_", s.Buffer)
	if err != nil {
		return "", err
	}
	return blockName + ".data.length()", nil
}

// writeTextureRef returns the sampler expression for a texture access,
// subscripted for sampler arrays.
func (w *Writer) writeTextureRef(texture string, index ir.Operand) (string, ir.Texture, error) {
	tex, err := w.program.LookupTexture(texture)
	if err != nil {
		return "", ir.Texture{}, err
	}
	name, err := resourceName("texture_", texture)
	if err != nil {
		return "", ir.Texture{}, err
	}
	switch {
	case tex.IsArray() && index == nil:
		return "", ir.Texture{}, ir.Errorf(ir.ErrInvalidOperand, "texture array %q accessed without an index", texture)
	case tex.IsArray():
		idx, err := w.writeOperand(index)
		if err != nil {
			return "", ir.Texture{}, err
		}
		return fmt.Sprintf("%s[%s]", name, idx), tex, nil
	case index != nil:
		return "", ir.Texture{}, ir.Errorf(ir.ErrInvalidOperand, "texture %q is not an array", texture)
	default:
		return name, tex, nil
	}
}

// writeTextureSample writes texture(), texture() with bias or textureLod().
func (w *Writer) writeTextureSample(s ir.TextureSample) (string, error) {
	sampler, _, err := w.writeTextureRef(s.Texture, s.Index)
	if err != nil {
		return "", err
	}
	coord, err := w.writeRequired("sample coordinate", s.Coord)
	if err != nil {
		return "", err
	}

	switch {
	case s.Bias != nil && s.Lod != nil:
		return "", ir.NewError(ir.ErrInvalidOperand, "sample takes a bias or a level of detail, not both")
	case s.Lod != nil:
		lod, err := w.writeOperand(s.Lod)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("textureLod(%s, %s, %s)", sampler, coord, lod), nil
	case s.Bias != nil:
		// Implicit derivatives only exist in fragment stages.
		if err := w.requireStage("biased sampling", ir.StageFragment); err != nil {
			return "", err
		}
		bias, err := w.writeOperand(s.Bias)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("texture(%s, %s, %s)", sampler, coord, bias), nil
	default:
		return fmt.Sprintf("texture(%s, %s)", sampler, coord), nil
	}
}

// writeTextureFetch writes texelFetch(); the base level is used when no
// level of detail is given.
func (w *Writer) writeTextureFetch(f ir.TextureFetch) (string, error) {
	sampler, tex, err := w.writeTextureRef(f.Texture, f.Index)
	if err != nil {
		return "", err
	}
	if tex.Kind == ir.TextureCube {
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "texel fetch from cube texture %q", f.Texture)
	}
	if tex.Format == ir.FormatDepth {
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "texel fetch from depth texture %q", f.Texture)
	}
	coord, err := w.writeRequired("fetch coordinate", f.Coord)
	if err != nil {
		return "", err
	}
	lod := "0"
	if f.Lod != nil {
		if lod, err = w.writeOperand(f.Lod); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("texelFetch(%s, %s, %s)", sampler, coord, lod), nil
}

// writeTextureSize writes textureSize(); the base level is queried when no
// level of detail is given.
func (w *Writer) writeTextureSize(s ir.TextureSize) (string, error) {
	sampler, _, err := w.writeTextureRef(s.Texture, s.Index)
	if err != nil {
		return "", err
	}
	lod := "0"
	if s.Lod != nil {
		if lod, err = w.writeOperand(s.Lod); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("textureSize(%s, %s)", sampler, lod), nil
}
