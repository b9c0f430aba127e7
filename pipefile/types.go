package pipefile

import (
	"strconv"
	"strings"

	"github.com/gogpu/stagec/ir"
	"github.com/pkg/errors"
)

var scalarTypes = map[string]ir.Component{
	"bool":   ir.ComponentBool,
	"uint":   ir.ComponentUint,
	"int":    ir.ComponentInt,
	"float":  ir.ComponentFloat,
	"double": ir.ComponentDouble,
}

// vectorPrefixes maps vector and matrix name prefixes to component kinds.
var vectorPrefixes = map[string]ir.Component{
	"b": ir.ComponentBool,
	"u": ir.ComponentUint,
	"i": ir.ComponentInt,
	"":  ir.ComponentFloat,
	"d": ir.ComponentDouble,
}

// ParseType parses a type string: a scalar ("float"), vector ("ivec3"),
// matrix ("dmat4") or struct ("struct Light"), optionally followed by an
// array length ("vec4[8]").
func ParseType(s string) (ir.Type, error) {
	text := strings.TrimSpace(s)
	var count uint32
	if strings.HasSuffix(text, "]") {
		open := strings.LastIndexByte(text, '[')
		if open < 0 {
			return ir.Type{}, errors.Errorf("malformed array type %q", s)
		}
		n, err := strconv.ParseUint(text[open+1:len(text)-1], 10, 32)
		if err != nil || n == 0 {
			return ir.Type{}, errors.Errorf("invalid array length in %q", s)
		}
		count = uint32(n)
		text = strings.TrimSpace(text[:open])
	}

	t, err := parseElementType(text)
	if err != nil {
		return ir.Type{}, errors.Wrapf(err, "type %q", s)
	}
	return ir.ArrayOf(t, count), nil
}

func parseElementType(text string) (ir.Type, error) {
	if name, ok := strings.CutPrefix(text, "struct "); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return ir.Type{}, errors.New("struct type without a name")
		}
		return ir.StructType(name), nil
	}
	if c, ok := scalarTypes[text]; ok {
		return ir.Type{Shape: ir.ShapeScalar, Component: c}, nil
	}
	for _, base := range []string{"vec", "mat"} {
		i := strings.Index(text, base)
		if i < 0 || len(text) != i+len(base)+1 {
			continue
		}
		c, ok := vectorPrefixes[text[:i]]
		if !ok {
			break
		}
		dim := int(text[len(text)-1] - '0')
		if dim < 2 || dim > 4 {
			break
		}
		if base == "vec" {
			return ir.Type{Shape: ir.VectorShape(dim), Component: c}, nil
		}
		return ir.Type{Shape: ir.ShapeMat2 + ir.Shape(dim-2), Component: c}, nil
	}
	return ir.Type{}, errors.New("unknown type")
}
