// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/stagec/ir"
)

// GLSL scalar type names.
const (
	glslTypeBool   = "bool"
	glslTypeInt    = "int"
	glslTypeUint   = "uint"
	glslTypeFloat  = "float"
	glslTypeDouble = "double"
)

// TypeName returns the GLSL name of a non-array value type, e.g. "vec3"
// for a 3-float vector or "dmat4" for a 4x4 double matrix. Struct types
// return the escaped struct name. A matrix of non-floating components has
// no GLSL name and is an UnsupportedType error.
func TypeName(t ir.Type) (string, error) {
	if t.IsStruct() {
		return identifier(t.Struct)
	}
	switch {
	case t.Shape == ir.ShapeScalar:
		return scalarToGLSL(t.Component)
	case t.Shape.IsVector():
		return vectorToGLSL(t.Shape.Dim(), t.Component)
	case t.Shape.IsMatrix():
		return matrixToGLSL(t.Shape.Dim(), t.Component)
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown shape %d", t.Shape)
	}
}

// scalarToGLSL returns the GLSL name for a scalar component kind.
func scalarToGLSL(c ir.Component) (string, error) {
	switch c {
	case ir.ComponentBool:
		return glslTypeBool, nil
	case ir.ComponentInt:
		return glslTypeInt, nil
	case ir.ComponentUint:
		return glslTypeUint, nil
	case ir.ComponentFloat:
		return glslTypeFloat, nil
	case ir.ComponentDouble:
		return glslTypeDouble, nil
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown component kind %d", c)
	}
}

// vectorToGLSL returns the GLSL name for a vector type.
func vectorToGLSL(size int, c ir.Component) (string, error) {
	switch c {
	case ir.ComponentBool:
		return fmt.Sprintf("bvec%d", size), nil
	case ir.ComponentInt:
		return fmt.Sprintf("ivec%d", size), nil
	case ir.ComponentUint:
		return fmt.Sprintf("uvec%d", size), nil
	case ir.ComponentFloat:
		return fmt.Sprintf("vec%d", size), nil
	case ir.ComponentDouble:
		return fmt.Sprintf("dvec%d", size), nil
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown component kind %d", c)
	}
}

// matrixToGLSL returns the GLSL name for a square matrix type.
func matrixToGLSL(size int, c ir.Component) (string, error) {
	switch c {
	case ir.ComponentFloat:
		return fmt.Sprintf("mat%d", size), nil
	case ir.ComponentDouble:
		return fmt.Sprintf("dmat%d", size), nil
	default:
		// GLSL only supports float and double matrices
		return "", ir.Errorf(ir.ErrUnsupportedType, "matrix of component kind %d", c)
	}
}

// arraySuffix returns "[N]" for array types and "" otherwise.
func arraySuffix(t ir.Type) string {
	if t.IsArray() {
		return fmt.Sprintf("[%d]", t.Count)
	}
	return ""
}

// fullTypeName returns the type name including any array size, as used in
// constructors ("float[4]").
func fullTypeName(t ir.Type) (string, error) {
	name, err := TypeName(t)
	if err != nil {
		return "", err
	}
	return name + arraySuffix(t), nil
}

// samplerToGLSL returns the sampler type name for a texture.
func samplerToGLSL(tex ir.Texture, version Version) (string, error) {
	var prefix, dim, shadow string
	switch tex.Format {
	case ir.FormatFloat:
	case ir.FormatInt:
		prefix = "i"
	case ir.FormatUint:
		prefix = "u"
	case ir.FormatDepth:
		shadow = "Shadow"
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown texture format %d", tex.Format)
	}

	switch tex.Kind {
	case ir.Texture1D:
		if version.ES {
			return "", ir.NewError(ir.ErrUnsupportedFeature, "1D textures are not available in GLSL ES")
		}
		dim = "1D"
	case ir.Texture2D:
		dim = "2D"
	case ir.Texture3D:
		if tex.Format == ir.FormatDepth {
			return "", ir.NewError(ir.ErrUnsupportedFeature, "depth comparison on 3D textures")
		}
		dim = "3D"
	case ir.TextureCube:
		dim = "Cube"
	case ir.Texture2DArray:
		dim = "2DArray"
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown texture kind %d", tex.Kind)
	}
	return prefix + "sampler" + dim + shadow, nil
}

// requiresFlat reports whether an interstage value of type t must be
// declared flat: only float values may be interpolated.
func requiresFlat(t ir.Type) bool {
	return !t.IsStruct() && t.Component != ir.ComponentFloat
}
