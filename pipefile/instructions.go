package pipefile

import (
	"strconv"
	"strings"

	"github.com/gogpu/stagec/ir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var binaryOps = map[string]ir.BinaryOp{
	"add": ir.BinaryAdd,
	"sub": ir.BinarySub,
	"mul": ir.BinaryMul,
	"div": ir.BinaryDiv,
	"and": ir.BinaryAnd,
	"or":  ir.BinaryOr,
	"lt":  ir.BinaryLess,
	"le":  ir.BinaryLessEqual,
	"gt":  ir.BinaryGreater,
	"ge":  ir.BinaryGreaterEqual,
	"eq":  ir.BinaryEqual,
	"ne":  ir.BinaryNotEqual,
}

// bareOps are the opcodes without operands.
var bareOps = map[string]ir.Instruction{
	"break":    ir.Break{},
	"continue": ir.Continue{},
	"discard":  ir.Discard{},
	"emit":     ir.EmitVertex{},
	"endprim":  ir.EndPrimitive{},
}

// block decodes a sequence of instructions. An absent node is an empty
// block.
func block(n *yaml.Node) ([]ir.Instruction, error) {
	n = resolve(n)
	if absent(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "expected a list of instructions")
	}
	out := make([]ir.Instruction, 0, len(n.Content))
	for _, item := range n.Content {
		inst, err := instruction(item)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// opcode splits an instruction node into its opcode and body. Bare
// opcodes have a nil body.
func opcode(n *yaml.Node) (string, *yaml.Node, error) {
	switch {
	case n.Kind == yaml.ScalarNode:
		return n.Value, nil, nil
	case n.Kind == yaml.MappingNode && len(n.Content) == 2:
		return n.Content[0].Value, resolve(n.Content[1]), nil
	default:
		return "", nil, errorAt(n, "expected an instruction mapping with a single key")
	}
}

// decodeBody decodes an instruction body into v.
func decodeBody(n *yaml.Node, op string, body *yaml.Node, v any) error {
	if absent(body) {
		return errorAt(n, "%s: missing operands", op)
	}
	if err := body.Decode(v); err != nil {
		return errors.Wrapf(err, "line %d: %s", n.Line, op)
	}
	return nil
}

// instruction decodes one instruction node.
//
//nolint:gocyclo,cyclop,funlen // one case per opcode
func instruction(n *yaml.Node) (ir.Instruction, error) {
	n = resolve(n)
	op, body, err := opcode(n)
	if err != nil {
		return nil, err
	}
	if inst, ok := bareOps[op]; ok {
		return inst, nil
	}
	if bop, ok := binaryOps[op]; ok {
		args, err := operandList(n, op, body)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, errorAt(n, "%s takes 2 operands, got %d", op, len(args))
		}
		return ir.Binary{Op: bop, Left: args[0], Right: args[1]}, nil
	}

	switch op {
	case "declare":
		var d struct {
			Name string    `yaml:"name"`
			Type string    `yaml:"type"`
			Init yaml.Node `yaml:"init"`
		}
		if err := decodeBody(n, op, body, &d); err != nil {
			return nil, err
		}
		t, err := ParseType(d.Type)
		if err != nil {
			return nil, errorAt(n, "declare %q: %v", d.Name, err)
		}
		init, err := operand(&d.Init)
		if err != nil {
			return nil, err
		}
		return ir.DeclareVariable{Name: d.Name, Type: t, Init: init}, nil

	case "assign":
		var a struct {
			Target yaml.Node `yaml:"target"`
			Value  yaml.Node `yaml:"value"`
		}
		if err := decodeBody(n, op, body, &a); err != nil {
			return nil, err
		}
		ops, err := operands(&a.Target, &a.Value)
		if err != nil {
			return nil, err
		}
		return ir.Assign{Target: ops[0], Value: ops[1]}, nil

	case "neg", "not":
		x, err := operand(body)
		if err != nil {
			return nil, err
		}
		if op == "neg" {
			return ir.Unary{Op: ir.UnaryNegate, Operand: x}, nil
		}
		return ir.Unary{Op: ir.UnaryNot, Operand: x}, nil

	case "if":
		var b struct {
			Cond yaml.Node `yaml:"cond"`
			Then yaml.Node `yaml:"then"`
			Else yaml.Node `yaml:"else"`
		}
		if err := decodeBody(n, op, body, &b); err != nil {
			return nil, err
		}
		cond, err := operand(&b.Cond)
		if err != nil {
			return nil, err
		}
		then, err := block(&b.Then)
		if err != nil {
			return nil, err
		}
		els, err := block(&b.Else)
		if err != nil {
			return nil, err
		}
		return ir.Branch{Condition: cond, Then: then, Else: els}, nil

	case "for":
		var l struct {
			Init yaml.Node `yaml:"init"`
			Cond yaml.Node `yaml:"cond"`
			Step yaml.Node `yaml:"step"`
			Body yaml.Node `yaml:"body"`
		}
		if err := decodeBody(n, op, body, &l); err != nil {
			return nil, err
		}
		ops, err := operands(&l.Init, &l.Cond, &l.Step)
		if err != nil {
			return nil, err
		}
		loopBody, err := block(&l.Body)
		if err != nil {
			return nil, err
		}
		return ir.Loop{Init: ops[0], Condition: ops[1], Step: ops[2], Body: loopBody}, nil

	case "call":
		var c struct {
			Function string      `yaml:"function"`
			Args     []yaml.Node `yaml:"args"`
		}
		if err := decodeBody(n, op, body, &c); err != nil {
			return nil, err
		}
		args, err := nodeOperands(c.Args)
		if err != nil {
			return nil, err
		}
		return ir.Call{Function: c.Function, Args: args}, nil

	case "return":
		value, err := operand(body)
		if err != nil {
			return nil, err
		}
		return ir.Return{Value: value}, nil

	case "builtin":
		var b struct {
			Func string      `yaml:"func"`
			Args []yaml.Node `yaml:"args"`
		}
		if err := decodeBody(n, op, body, &b); err != nil {
			return nil, err
		}
		fn, ok := builtinFunc(b.Func)
		if !ok {
			return nil, errorAt(n, "unknown built-in function %q", b.Func)
		}
		args, err := nodeOperands(b.Args)
		if err != nil {
			return nil, err
		}
		return ir.Builtin{Func: fn, Args: args}, nil

	case "construct":
		var c struct {
			Type string      `yaml:"type"`
			Args []yaml.Node `yaml:"args"`
		}
		if err := decodeBody(n, op, body, &c); err != nil {
			return nil, err
		}
		t, err := ParseType(c.Type)
		if err != nil {
			return nil, errorAt(n, "construct: %v", err)
		}
		args, err := nodeOperands(c.Args)
		if err != nil {
			return nil, err
		}
		return ir.Construct{Type: t, Args: args}, nil

	case "index":
		var x struct {
			Of yaml.Node `yaml:"of"`
			At yaml.Node `yaml:"at"`
		}
		if err := decodeBody(n, op, body, &x); err != nil {
			return nil, err
		}
		ops, err := operands(&x.Of, &x.At)
		if err != nil {
			return nil, err
		}
		return ir.ArrayIndex{Array: ops[0], Index: ops[1]}, nil

	case "swizzle":
		var s struct {
			Of     yaml.Node `yaml:"of"`
			Select yaml.Node `yaml:"select"`
		}
		if err := decodeBody(n, op, body, &s); err != nil {
			return nil, err
		}
		vector, err := operand(&s.Of)
		if err != nil {
			return nil, err
		}
		components, err := swizzleComponents(&s.Select)
		if err != nil {
			return nil, err
		}
		return ir.Swizzle{Vector: vector, Components: components}, nil

	case "matrix":
		var m struct {
			Of     yaml.Node `yaml:"of"`
			Column yaml.Node `yaml:"column"`
			Row    yaml.Node `yaml:"row"`
		}
		if err := decodeBody(n, op, body, &m); err != nil {
			return nil, err
		}
		ops, err := operands(&m.Of, &m.Column, &m.Row)
		if err != nil {
			return nil, err
		}
		return ir.MatrixIndex{Matrix: ops[0], Column: ops[1], Row: ops[2]}, nil

	case "member":
		var m struct {
			Of   yaml.Node `yaml:"of"`
			Name string    `yaml:"name"`
		}
		if err := decodeBody(n, op, body, &m); err != nil {
			return nil, err
		}
		base, err := operand(&m.Of)
		if err != nil {
			return nil, err
		}
		return ir.Member{Struct: base, Member: m.Name}, nil

	case "sample":
		var s struct {
			Texture string    `yaml:"texture"`
			Index   yaml.Node `yaml:"index"`
			Coord   yaml.Node `yaml:"coord"`
			Bias    yaml.Node `yaml:"bias"`
			Lod     yaml.Node `yaml:"lod"`
		}
		if err := decodeBody(n, op, body, &s); err != nil {
			return nil, err
		}
		ops, err := operands(&s.Index, &s.Coord, &s.Bias, &s.Lod)
		if err != nil {
			return nil, err
		}
		return ir.TextureSample{Texture: s.Texture, Index: ops[0], Coord: ops[1], Bias: ops[2], Lod: ops[3]}, nil

	case "fetch":
		var f struct {
			Texture string    `yaml:"texture"`
			Index   yaml.Node `yaml:"index"`
			Coord   yaml.Node `yaml:"coord"`
			Lod     yaml.Node `yaml:"lod"`
		}
		if err := decodeBody(n, op, body, &f); err != nil {
			return nil, err
		}
		ops, err := operands(&f.Index, &f.Coord, &f.Lod)
		if err != nil {
			return nil, err
		}
		return ir.TextureFetch{Texture: f.Texture, Index: ops[0], Coord: ops[1], Lod: ops[2]}, nil

	case "texsize":
		var s struct {
			Texture string    `yaml:"texture"`
			Index   yaml.Node `yaml:"index"`
			Lod     yaml.Node `yaml:"lod"`
		}
		if err := decodeBody(n, op, body, &s); err != nil {
			return nil, err
		}
		ops, err := operands(&s.Index, &s.Lod)
		if err != nil {
			return nil, err
		}
		return ir.TextureSize{Texture: s.Texture, Index: ops[0], Lod: ops[1]}, nil

	case "read":
		var r bufferAccess
		if err := decodeBody(n, op, body, &r); err != nil {
			return nil, err
		}
		index, err := operand(&r.Index)
		if err != nil {
			return nil, err
		}
		return ir.BufferRead{Buffer: r.Buffer, Element: r.Element, Index: index}, nil

	case "write":
		var w bufferAccess
		if err := decodeBody(n, op, body, &w); err != nil {
			return nil, err
		}
		ops, err := operands(&w.Index, &w.Value)
		if err != nil {
			return nil, err
		}
		return ir.BufferWrite{Buffer: w.Buffer, Element: w.Element, Index: ops[0], Value: ops[1]}, nil

	case "bufsize":
		if body == nil || body.Kind != yaml.ScalarNode {
			return nil, errorAt(n, "bufsize takes a buffer name")
		}
		return ir.BufferSize{Buffer: body.Value}, nil

	case "position", "depth", "layer":
		value, err := operand(body)
		if err != nil {
			return nil, err
		}
		switch op {
		case "position":
			return ir.SetVertexPosition{Value: value}, nil
		case "depth":
			return ir.SetFragmentDepth{Value: value}, nil
		default:
			return ir.SetLayer{Value: value}, nil
		}

	default:
		return nil, errorAt(n, "unknown instruction %q", op)
	}
}

type bufferAccess struct {
	Buffer  string    `yaml:"buffer"`
	Element string    `yaml:"element"`
	Index   yaml.Node `yaml:"index"`
	Value   yaml.Node `yaml:"value"`
}

// operand decodes one operand node. Absent and null nodes are unassigned.
func operand(n *yaml.Node) (ir.Operand, error) {
	if n == nil {
		return nil, nil
	}
	n = resolve(n)
	if absent(n) {
		return nil, nil
	}
	if n.Kind == yaml.ScalarNode {
		lit, err := scalarConst(n)
		if err != nil {
			return nil, err
		}
		return ir.Lit(lit), nil
	}
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nil, errorAt(n, "expected a constant or a single-key operand mapping")
	}

	key, value := n.Content[0].Value, resolve(n.Content[1])
	switch key {
	case "local", "arg", "input", "output", "param", "texture":
		if value.Kind != yaml.ScalarNode || value.Value == "" {
			return nil, errorAt(n, "%s takes a name", key)
		}
		return reference(key, value.Value), nil
	case "buffer":
		var b struct {
			Name    string    `yaml:"name"`
			Element string    `yaml:"element"`
			Index   yaml.Node `yaml:"index"`
		}
		if err := value.Decode(&b); err != nil {
			return nil, errors.Wrapf(err, "line %d: buffer", n.Line)
		}
		index, err := operand(&b.Index)
		if err != nil {
			return nil, err
		}
		return ir.BufferElement{Buffer: b.Name, Element: b.Element, Index: index}, nil
	case "const":
		lit, err := literal(value)
		if err != nil {
			return nil, err
		}
		return ir.Lit(lit), nil
	default:
		inst, err := instruction(n)
		if err != nil {
			return nil, err
		}
		return ir.Nest(inst), nil
	}
}

func reference(key, name string) ir.Operand {
	switch key {
	case "local":
		return ir.Local{Name: name}
	case "arg":
		return ir.Argument{Name: name}
	case "input":
		return ir.Input{Name: name}
	case "output":
		return ir.Output{Name: name}
	case "param":
		return ir.Parameter{Name: name}
	default:
		return ir.TextureRef{Texture: name}
	}
}

// operands decodes several operand fields in order.
func operands(nodes ...*yaml.Node) ([]ir.Operand, error) {
	out := make([]ir.Operand, len(nodes))
	for i, n := range nodes {
		op, err := operand(n)
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

// nodeOperands decodes an operand list; null entries stay unassigned.
func nodeOperands(nodes []yaml.Node) ([]ir.Operand, error) {
	out := make([]ir.Operand, len(nodes))
	for i := range nodes {
		op, err := operand(&nodes[i])
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

// operandList decodes an instruction body holding a list of operands.
func operandList(n *yaml.Node, op string, body *yaml.Node) ([]ir.Operand, error) {
	if body == nil || body.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "%s takes a list of operands", op)
	}
	out := make([]ir.Operand, len(body.Content))
	for i, item := range body.Content {
		x, err := operand(item)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// swizzleComponents accepts either component indices ([0, 1]) or letters
// ("xy" or "rg").
func swizzleComponents(n *yaml.Node) ([]int, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.SequenceNode:
		var out []int
		if err := n.Decode(&out); err != nil {
			return nil, errors.Wrapf(err, "line %d: swizzle", n.Line)
		}
		return out, nil
	case yaml.ScalarNode:
		out := make([]int, 0, len(n.Value))
		for _, c := range n.Value {
			i := strings.IndexRune("xyzw", c)
			if i < 0 {
				i = strings.IndexRune("rgba", c)
			}
			if i < 0 {
				return nil, errorAt(n, "invalid swizzle letter %q", c)
			}
			out = append(out, i)
		}
		return out, nil
	default:
		return nil, errorAt(n, "swizzle needs a selection")
	}
}

func builtinFunc(name string) (ir.BuiltinFunc, bool) {
	for f := ir.FuncAbs; f <= ir.FuncDeterminant; f++ {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

// scalarConst decodes a plain scalar constant. The YAML tag selects the
// component kind; a "u" suffix marks unsigned integers.
func scalarConst(n *yaml.Node) (ir.Literal, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return ir.Literal{}, errorAt(n, "%v", err)
		}
		return ir.BoolLit(b), nil
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 32)
		if err != nil {
			return ir.Literal{}, errorAt(n, "integer constant %q out of range", n.Value)
		}
		return ir.IntLit(int32(v)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return ir.Literal{}, errorAt(n, "%v", err)
		}
		return ir.FloatLit(f), nil
	case "!!str":
		if digits, ok := strings.CutSuffix(n.Value, "u"); ok {
			if v, err := strconv.ParseUint(digits, 0, 32); err == nil {
				return ir.UintLit(uint32(v)), nil
			}
		}
	}
	return ir.Literal{}, errorAt(n, "invalid constant %q", n.Value)
}

// literal decodes a const body: a plain scalar or {type, values}.
func literal(n *yaml.Node) (ir.Literal, error) {
	if n.Kind == yaml.ScalarNode {
		return scalarConst(n)
	}
	var c struct {
		Type   string      `yaml:"type"`
		Values []yaml.Node `yaml:"values"`
	}
	if err := n.Decode(&c); err != nil {
		return ir.Literal{}, errors.Wrapf(err, "line %d: const", n.Line)
	}
	t, err := ParseType(c.Type)
	if err != nil {
		return ir.Literal{}, errorAt(n, "const: %v", err)
	}
	if t.IsStruct() || t.IsArray() {
		return ir.Literal{}, errorAt(n, "const: %s constants are not supported", c.Type)
	}
	values := make([]float64, len(c.Values))
	for i := range c.Values {
		v := &c.Values[i]
		if v.ShortTag() == "!!bool" {
			var b bool
			if err := v.Decode(&b); err != nil {
				return ir.Literal{}, errorAt(v, "%v", err)
			}
			if b {
				values[i] = 1
			}
			continue
		}
		if err := v.Decode(&values[i]); err != nil {
			return ir.Literal{}, errorAt(v, "const value %q is not a number", v.Value)
		}
	}
	return ir.Literal{Shape: t.Shape, Component: t.Component, Values: values}, nil
}

// resolve follows aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// absent reports whether n is missing or an explicit null.
func absent(n *yaml.Node) bool {
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}
