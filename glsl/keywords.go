// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"

	"github.com/gogpu/stagec/ir"
)

// reservedWords lists GLSL 4.60 / ES 3.20 keywords, future reserved words
// and built-in function names a user identifier must not shadow.
var reservedWords = [...]string{
	// Basic, vector and matrix types
	"void bool int uint float double atomic_uint",
	"vec2 vec3 vec4 ivec2 ivec3 ivec4 uvec2 uvec3 uvec4 bvec2 bvec3 bvec4 dvec2 dvec3 dvec4",
	"mat2 mat3 mat4 mat2x2 mat2x3 mat2x4 mat3x2 mat3x3 mat3x4 mat4x2 mat4x3 mat4x4",
	"dmat2 dmat3 dmat4 dmat2x2 dmat2x3 dmat2x4 dmat3x2 dmat3x3 dmat3x4 dmat4x2 dmat4x3 dmat4x4",

	// Opaque types
	"sampler sampler1D sampler2D sampler3D samplerCube sampler2DRect samplerBuffer",
	"sampler1DShadow sampler2DShadow samplerCubeShadow sampler2DRectShadow",
	"sampler1DArray sampler2DArray sampler1DArrayShadow sampler2DArrayShadow",
	"samplerCubeArray samplerCubeArrayShadow sampler2DMS sampler2DMSArray",
	"isampler1D isampler2D isampler3D isamplerCube isampler2DRect isampler1DArray isampler2DArray",
	"isamplerCubeArray isamplerBuffer isampler2DMS isampler2DMSArray",
	"usampler1D usampler2D usampler3D usamplerCube usampler2DRect usampler1DArray usampler2DArray",
	"usamplerCubeArray usamplerBuffer usampler2DMS usampler2DMSArray",
	"image1D image2D image3D imageCube image2DRect image1DArray image2DArray imageCubeArray",
	"imageBuffer image2DMS image2DMSArray",

	// Keywords and qualifiers
	"attribute const uniform varying buffer shared coherent volatile restrict readonly writeonly",
	"layout centroid flat smooth noperspective patch sample subroutine in out inout",
	"break continue do for while switch case default if else discard return struct",
	"true false invariant precise lowp mediump highp precision",

	// Reserved for future use
	"common partition active asm class union enum typedef template this resource goto",
	"inline noinline public static extern external interface long short half fixed",
	"unsigned superp input output hvec2 hvec3 hvec4 fvec2 fvec3 fvec4 sampler3DRect",
	"filter sizeof cast namespace using",

	// Built-in functions
	"main radians degrees sin cos tan asin acos atan sinh cosh tanh asinh acosh atanh",
	"pow exp log exp2 log2 sqrt inversesqrt abs sign floor trunc round roundEven ceil fract",
	"mod modf min max clamp mix step smoothstep isnan isinf fma frexp ldexp",
	"length distance dot cross normalize faceforward reflect refract",
	"matrixCompMult outerProduct transpose determinant inverse",
	"lessThan lessThanEqual greaterThan greaterThanEqual equal notEqual any all not",
	"textureSize textureQueryLod textureQueryLevels textureSamples texture textureProj",
	"textureLod textureOffset texelFetch texelFetchOffset textureGrad textureGather",
	"dFdx dFdy fwidth EmitVertex EndPrimitive EmitStreamVertex EndStreamPrimitive",
	"barrier memoryBarrier groupMemoryBarrier imageLoad imageStore imageSize",
	"atomicAdd atomicMin atomicMax atomicAnd atomicOr atomicXor atomicExchange atomicCompSwap",

	// Names the writer defines itself
	"DRAW_ID",
}

// reservedPrefixes are identifier prefixes owned by GLSL or by the
// resource naming scheme.
var reservedPrefixes = []string{"gl_", "in_", "out_", "param_", "buffer_", "texture_"}

var glslKeywords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range reservedWords {
		for _, word := range strings.Fields(line) {
			set[word] = struct{}{}
		}
	}
	return set
}()

// isKeyword checks if a name is a GLSL keyword or reserved word.
func isKeyword(name string) bool {
	_, ok := glslKeywords[name]
	return ok
}

// escapeKeyword escapes a name if it conflicts with GLSL keywords or a
// reserved prefix, by prefixing it with an underscore.
func escapeKeyword(name string) string {
	if isKeyword(name) {
		return "_" + name
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return "_" + name
		}
	}
	return name
}

// identifier checks that name is a valid GLSL identifier and returns its
// escaped form.
func identifier(name string) (string, error) {
	if !isIdentifier(name) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "%q is not a valid identifier", name)
	}
	return escapeKeyword(name), nil
}

// resourceName checks name and returns it with a resource prefix.
// Prefixed names never collide with keywords.
func resourceName(prefix, name string) (string, error) {
	if !isIdentifier(name) || !isIdentifier(prefix+name) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "%q is not a valid identifier", name)
	}
	return prefix + name, nil
}

func isIdentifier(name string) bool {
	if name == "" || strings.Contains(name, "__") {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
