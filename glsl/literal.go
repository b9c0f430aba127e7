// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/stagec/ir"
)

// LiteralString renders a literal as GLSL source.
//
// Scalars are bare tokens: true, 3, 3u, 1.000000, 1.000000lf. Vectors and
// matrices are constructor calls listing every component in the literal's
// stored order.
func LiteralString(l ir.Literal) (string, error) {
	if err := ir.CheckLiteral(l); err != nil {
		return "", err
	}
	if l.Shape == ir.ShapeScalar {
		return scalarLiteral(l.Values[0], l.Component)
	}

	name, err := TypeName(l.Type())
	if err != nil {
		return "", err
	}
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		if parts[i], err = scalarLiteral(v, l.Component); err != nil {
			return "", err
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")", nil
}

func scalarLiteral(v float64, c ir.Component) (string, error) {
	switch c {
	case ir.ComponentBool:
		if v != 0 {
			return "true", nil
		}
		return "false", nil
	case ir.ComponentInt:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return "", ir.Errorf(ir.ErrInvalidOperand, "%v is not a 32-bit signed integer", v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case ir.ComponentUint:
		if v != math.Trunc(v) || v < 0 || v > math.MaxUint32 {
			return "", ir.Errorf(ir.ErrInvalidOperand, "%v is not a 32-bit unsigned integer", v)
		}
		return strconv.FormatUint(uint64(v), 10) + "u", nil
	case ir.ComponentFloat:
		return formatFloat(v, 32)
	case ir.ComponentDouble:
		s, err := formatFloat(v, 64)
		if err != nil {
			return "", err
		}
		return s + "lf", nil // double literal suffix
	default:
		return "", ir.Errorf(ir.ErrUnsupportedType, "unknown component kind %d", c)
	}
}

// formatFloat renders v with six decimals when that text reads back as the
// same value at the given precision, and in the shortest exponent form
// otherwise. GLSL has no literal for infinities or NaN.
func formatFloat(v float64, bits int) (string, error) {
	if bits == 32 {
		v = float64(float32(v))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "literal %v is not finite at %d-bit precision", v, bits)
	}
	fixed := strconv.FormatFloat(v, 'f', 6, bits)
	if back, err := strconv.ParseFloat(fixed, bits); err == nil && back == v {
		return fixed, nil
	}
	return strconv.FormatFloat(v, 'e', -1, bits), nil
}
