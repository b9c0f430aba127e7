// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/stagec/ir"
)

// writeInstruction renders an instruction without a statement terminator.
// Value-producing instructions, declarations and stores are accepted;
// control flow is not.
//
//nolint:gocyclo,cyclop,funlen // one case per opcode
func (w *Writer) writeInstruction(inst ir.Instruction) (string, error) {
	switch in := inst.(type) {
	case nil:
		return "", ir.NewError(ir.ErrInvalidOperand, "unassigned instruction")

	case ir.DeclareVariable:
		return w.writeDeclare(in)

	case ir.Assign:
		return w.writeAssign(in.Target, in.Value)

	case ir.Binary:
		return w.writeBinary(in)

	case ir.Unary:
		return w.writeUnary(in)

	case ir.Call:
		return w.writeCall(in)

	case ir.Builtin:
		return w.writeBuiltin(in)

	case ir.Construct:
		return w.writeConstruct(in)

	case ir.ArrayIndex:
		base, err := w.writeRequired("subscripted value", in.Array)
		if err != nil {
			return "", err
		}
		index, err := w.writeRequired("subscript", in.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", base, index), nil

	case ir.Swizzle:
		return w.writeSwizzle(in)

	case ir.MatrixIndex:
		return w.writeMatrixIndex(in)

	case ir.Member:
		return w.writeMember(in)

	case ir.TextureSample:
		return w.writeTextureSample(in)

	case ir.TextureFetch:
		return w.writeTextureFetch(in)

	case ir.TextureSize:
		return w.writeTextureSize(in)

	case ir.BufferRead:
		return w.writeBufferElement(in.Buffer, in.Element, in.Index)

	case ir.BufferWrite:
		return w.writeAssign(ir.BufferElement{Buffer: in.Buffer, Element: in.Element, Index: in.Index}, in.Value)

	case ir.BufferSize:
		return w.writeBufferSize(in)

	case ir.SetVertexPosition:
		var target string
		switch w.program.Stage {
		case ir.StageVertex, ir.StageGeometry, ir.StageTessEval:
			target = "gl_Position"
		case ir.StageTessControl:
			target = "gl_out[gl_InvocationID].gl_Position"
		default:
			return "", ir.Errorf(ir.ErrUnsupportedFeature, "vertex position is not available in %s stages", w.program.Stage)
		}
		return w.writeBuiltinStore(target, in.Value)

	case ir.SetFragmentDepth:
		if err := w.requireStage("fragment depth", ir.StageFragment); err != nil {
			return "", err
		}
		return w.writeBuiltinStore("gl_FragDepth", in.Value)

	case ir.SetLayer:
		if err := w.requireStage("layer selection", ir.StageGeometry); err != nil {
			return "", err
		}
		return w.writeBuiltinStore("gl_Layer", in.Value)

	case ir.Branch, ir.Loop, ir.Break, ir.Continue, ir.Return, ir.Discard, ir.EmitVertex, ir.EndPrimitive:
		return "", ir.Errorf(ir.ErrInvalidOperand, "%s cannot be used as a value", ir.OpName(inst))

	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unsupported instruction %s", ir.OpName(inst))
	}
}

// writeDeclare writes "<type> <name>[N][ = <init>]" and brings the name
// into scope for the rest of the function.
func (w *Writer) writeDeclare(d ir.DeclareVariable) (string, error) {
	name, err := w.scopedName(d.Name)
	if err != nil {
		return "", err
	}
	if _, ok := w.resolver.Scope.Arg(d.Name); ok {
		return "", ir.Errorf(ir.ErrInvalidOperand, "variable %q has the name of an argument", d.Name)
	}
	if w.resolver.Scope.Declared(d.Name) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "variable %q is already declared in this block", d.Name)
	}
	decl, err := w.declaration(d.Type, name)
	if err != nil {
		return "", err
	}
	if d.Init != nil {
		init, err := w.writeOperand(d.Init)
		if err != nil {
			return "", err
		}
		decl += " = " + init
	}
	w.resolver.Scope.Declare(d.Name, d.Type)
	return decl, nil
}

// writeAssign writes "<target> = <value>" after checking the target can be
// stored to.
func (w *Writer) writeAssign(target, value ir.Operand) (string, error) {
	if err := w.checkAssignable(target); err != nil {
		return "", err
	}
	lhs, err := w.writeRequired("assignment target", target)
	if err != nil {
		return "", err
	}
	rhs, err := w.writeRequired("assigned value", value)
	if err != nil {
		return "", err
	}
	return lhs + " = " + rhs, nil
}

func (w *Writer) writeBuiltinStore(target string, value ir.Operand) (string, error) {
	rhs, err := w.writeRequired(target, value)
	if err != nil {
		return "", err
	}
	return target + " = " + rhs, nil
}

// checkAssignable rejects stores into inputs, parameters, constants,
// textures and read-only buffers.
func (w *Writer) checkAssignable(target ir.Operand) error {
	switch t := target.(type) {
	case nil:
		return ir.NewError(ir.ErrInvalidOperand, "assignment target is unassigned")
	case ir.Local, ir.Argument, ir.Output:
		return nil
	case ir.BufferElement:
		buf, err := w.program.LookupBuffer(t.Buffer)
		if err != nil {
			return err
		}
		if buf.ReadOnly {
			return ir.Errorf(ir.ErrInvalidOperand, "buffer %q is read-only", t.Buffer)
		}
		return nil
	case ir.Nested:
		switch in := t.Instruction.(type) {
		case ir.Swizzle:
			return w.checkAssignable(in.Vector)
		case ir.ArrayIndex:
			return w.checkAssignable(in.Array)
		case ir.MatrixIndex:
			return w.checkAssignable(in.Matrix)
		case ir.Member:
			return w.checkAssignable(in.Struct)
		case ir.BufferRead:
			return w.checkAssignable(ir.BufferElement{Buffer: in.Buffer, Element: in.Element, Index: in.Index})
		}
	}
	return ir.Errorf(ir.ErrInvalidOperand, "cannot assign to %T", target)
}

// binaryOperators maps operators to GLSL tokens. And/Or use the logical
// form on booleans and the bitwise form otherwise.
var binaryOperators = map[ir.BinaryOp]string{
	ir.BinaryAdd:          "+",
	ir.BinarySub:          "-",
	ir.BinaryMul:          "*",
	ir.BinaryDiv:          "/",
	ir.BinaryAnd:          "&&",
	ir.BinaryOr:           "||",
	ir.BinaryLess:         "<",
	ir.BinaryLessEqual:    "<=",
	ir.BinaryGreater:      ">",
	ir.BinaryGreaterEqual: ">=",
	ir.BinaryEqual:        "==",
	ir.BinaryNotEqual:     "!=",
}

// writeBinary writes "(<left> <op> <right>)".
func (w *Writer) writeBinary(b ir.Binary) (string, error) {
	op, ok := binaryOperators[b.Op]
	if !ok {
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown binary operator %d", b.Op)
	}
	left, err := w.writeRequired("left operand", b.Left)
	if err != nil {
		return "", err
	}
	right, err := w.writeRequired("right operand", b.Right)
	if err != nil {
		return "", err
	}

	if b.Op == ir.BinaryAnd || b.Op == ir.BinaryOr {
		lt, err := w.resolver.OperandType(b.Left)
		if err != nil {
			return "", err
		}
		if lt.Component != ir.ComponentBool {
			op = op[:1]
		}
	}
	if w.options.StrictTypes {
		if _, err := w.resolver.InstructionType(b); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}

// writeUnary writes "(-x)", "(!x)" or, for integers, "(~x)".
func (w *Writer) writeUnary(u ir.Unary) (string, error) {
	operand, err := w.writeRequired("operand", u.Operand)
	if err != nil {
		return "", err
	}
	switch u.Op {
	case ir.UnaryNegate:
		return "(-" + operand + ")", nil
	case ir.UnaryNot:
		t, err := w.resolver.OperandType(u.Operand)
		if err != nil {
			return "", err
		}
		if t.Component == ir.ComponentBool {
			if t.Shape.IsVector() {
				return "not(" + operand + ")", nil
			}
			return "(!" + operand + ")", nil
		}
		return "(~" + operand + ")", nil
	default:
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown unary operator %d", u.Op)
	}
}

// writeCall writes "<name>(<args>)", omitting unassigned trailing arguments.
func (w *Writer) writeCall(c ir.Call) (string, error) {
	fn, err := w.program.LookupFunction(c.Function)
	if err != nil {
		return "", err
	}
	name, err := identifier(c.Function)
	if err != nil {
		return "", err
	}
	args := c.Args
	for len(args) > 0 && args[len(args)-1] == nil {
		args = args[:len(args)-1]
	}
	if len(args) > len(fn.Args) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "function %s takes %d arguments, got %d", c.Function, len(fn.Args), len(args))
	}
	parts, err := w.writeOperands("argument of "+c.Function, args)
	if err != nil {
		return "", err
	}
	return name + "(" + strings.Join(parts, ", ") + ")", nil
}

// builtinNames maps built-in functions to their GLSL names.
var builtinNames = map[ir.BuiltinFunc]string{
	ir.FuncAbs: "abs", ir.FuncSin: "sin", ir.FuncCos: "cos", ir.FuncTan: "tan",
	ir.FuncAsin: "asin", ir.FuncAcos: "acos", ir.FuncAtan: "atan",
	ir.FuncPow: "pow", ir.FuncExp: "exp", ir.FuncExp2: "exp2", ir.FuncLog: "log", ir.FuncLog2: "log2",
	ir.FuncSqrt: "sqrt", ir.FuncInverseSqrt: "inversesqrt",
	ir.FuncFloor: "floor", ir.FuncCeil: "ceil", ir.FuncRound: "round", ir.FuncTrunc: "trunc",
	ir.FuncFract: "fract", ir.FuncSign: "sign", ir.FuncMod: "mod",
	ir.FuncMin: "min", ir.FuncMax: "max", ir.FuncClamp: "clamp", ir.FuncMix: "mix",
	ir.FuncStep: "step", ir.FuncSmoothStep: "smoothstep",
	ir.FuncRadians: "radians", ir.FuncDegrees: "degrees",
	ir.FuncDot: "dot", ir.FuncCross: "cross", ir.FuncNormalize: "normalize",
	ir.FuncLength: "length", ir.FuncDistance: "distance",
	ir.FuncReflect: "reflect", ir.FuncRefract: "refract", ir.FuncFaceForward: "faceforward",
	ir.FuncTranspose: "transpose", ir.FuncInverse: "inverse", ir.FuncDeterminant: "determinant",
}

// writeBuiltin writes a built-in math function call.
func (w *Writer) writeBuiltin(b ir.Builtin) (string, error) {
	name, ok := builtinNames[b.Func]
	if !ok {
		return "", ir.Errorf(ir.ErrUnsupportedFeature, "unknown built-in function %s", b.Func)
	}
	if err := ir.CheckBuiltinArity(b); err != nil {
		return "", err
	}
	args, err := w.writeOperands("argument of "+name, b.Args)
	if err != nil {
		return "", err
	}
	return name + "(" + strings.Join(args, ", ") + ")", nil
}

// writeConstruct writes "<type>(<args>)".
func (w *Writer) writeConstruct(c ir.Construct) (string, error) {
	if len(c.Args) == 0 {
		return "", ir.NewError(ir.ErrInvalidOperand, "construction requires at least one argument")
	}
	if _, err := w.typeName(c.Type); err != nil {
		return "", err
	}
	name, err := fullTypeName(c.Type)
	if err != nil {
		return "", err
	}
	args, err := w.writeOperands("constructor argument", c.Args)
	if err != nil {
		return "", err
	}
	return name + "(" + strings.Join(args, ", ") + ")", nil
}

// swizzleLetters maps component indices to GLSL swizzle letters.
const swizzleLetters = "xyzw"

// writeSwizzle writes "<vector>.<letters>".
func (w *Writer) writeSwizzle(s ir.Swizzle) (string, error) {
	if err := ir.CheckSwizzle(s.Components); err != nil {
		return "", err
	}
	vector, err := w.writeRequired("swizzled vector", s.Vector)
	if err != nil {
		return "", err
	}
	vt, err := w.resolver.OperandType(s.Vector)
	if err != nil {
		return "", err
	}
	if err := ir.CheckSwizzleBounds(vt, s.Components); err != nil {
		return "", err
	}

	var letters strings.Builder
	for _, c := range s.Components {
		letters.WriteByte(swizzleLetters[c])
	}
	return vector + "." + letters.String(), nil
}

// writeMatrixIndex writes "<matrix>[<col>]" or "<matrix>[<col>][<row>]".
func (w *Writer) writeMatrixIndex(m ir.MatrixIndex) (string, error) {
	matrix, err := w.writeRequired("matrix", m.Matrix)
	if err != nil {
		return "", err
	}
	if _, err := w.resolver.InstructionType(m); err != nil {
		return "", err
	}
	column, err := w.writeRequired("matrix column", m.Column)
	if err != nil {
		return "", err
	}
	if m.Row == nil {
		return fmt.Sprintf("%s[%s]", matrix, column), nil
	}
	row, err := w.writeOperand(m.Row)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s][%s]", matrix, column, row), nil
}

// writeMember writes "<struct>.<member>".
func (w *Writer) writeMember(m ir.Member) (string, error) {
	base, err := w.writeRequired("struct value", m.Struct)
	if err != nil {
		return "", err
	}
	if _, err := w.resolver.InstructionType(m); err != nil {
		return "", err
	}
	member, err := identifier(m.Member)
	if err != nil {
		return "", err
	}
	return base + "." + member, nil
}

// writeOperands renders a list of required operands.
func (w *Writer) writeOperands(what string, ops []ir.Operand) ([]string, error) {
	out := make([]string, len(ops))
	for i, op := range ops {
		s, err := w.writeRequired(what, op)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
