package ir

import "fmt"

// Instruction is one node of a Program's instruction tree.
// Every instruction exclusively owns its operands and nested blocks.
type Instruction interface {
	instruction()
}

// Block is a sequence of instructions executed in order.
type Block []Instruction

// DeclareVariable declares a local variable, optionally initialized.
// A Type with Count > 1 declares a fixed-size array.
type DeclareVariable struct {
	Name string
	Type Type
	Init Operand // optional
}

func (DeclareVariable) instruction() {}

// Assign stores Value into Target.
type Assign struct {
	Target Operand
	Value  Operand
}

func (Assign) instruction() {}

// BinaryOp is an arithmetic, logical or comparison operator.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryAnd
	BinaryOr
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryEqual
	BinaryNotEqual
)

// IsComparison reports whether the operator always yields a bool scalar.
func (op BinaryOp) IsComparison() bool {
	return op >= BinaryLess && op <= BinaryNotEqual
}

// Binary applies a two-operand operator.
type Binary struct {
	Op    BinaryOp
	Left  Operand
	Right Operand
}

func (Binary) instruction() {}

// UnaryOp is a one-operand operator.
type UnaryOp uint8

const (
	UnaryNegate UnaryOp = iota
	UnaryNot
)

// Unary applies a one-operand operator.
type Unary struct {
	Op      UnaryOp
	Operand Operand
}

func (Unary) instruction() {}

// Branch executes Then when Condition holds and Else otherwise.
type Branch struct {
	Condition Operand
	Then      Block
	Else      Block
}

func (Branch) instruction() {}

// Loop is a counted loop: Init runs once, Condition is tested before each
// iteration and Step runs after each iteration.
type Loop struct {
	Init      Operand
	Condition Operand
	Step      Operand
	Body      Block
}

func (Loop) instruction() {}

// Break leaves the innermost loop.
type Break struct{}

func (Break) instruction() {}

// Continue skips to the next iteration of the innermost loop.
type Continue struct{}

func (Continue) instruction() {}

// Discard drops the current fragment.
type Discard struct{}

func (Discard) instruction() {}

// Call invokes a function of the Program. Trailing nil arguments are
// omitted from the emitted call.
type Call struct {
	Function string
	Args     []Operand
}

func (Call) instruction() {}

// Return leaves the enclosing function, optionally with a value.
type Return struct {
	Value Operand // optional
}

func (Return) instruction() {}

// BuiltinFunc is a built-in math function.
type BuiltinFunc uint8

const (
	FuncAbs BuiltinFunc = iota
	FuncSin
	FuncCos
	FuncTan
	FuncAsin
	FuncAcos
	FuncAtan
	FuncPow
	FuncExp
	FuncExp2
	FuncLog
	FuncLog2
	FuncSqrt
	FuncInverseSqrt
	FuncFloor
	FuncCeil
	FuncRound
	FuncTrunc
	FuncFract
	FuncSign
	FuncMod
	FuncMin
	FuncMax
	FuncClamp
	FuncMix
	FuncStep
	FuncSmoothStep
	FuncRadians
	FuncDegrees
	FuncDot
	FuncCross
	FuncNormalize
	FuncLength
	FuncDistance
	FuncReflect
	FuncRefract
	FuncFaceForward
	FuncTranspose
	FuncInverse
	FuncDeterminant
)

var builtinNames = [...]string{
	"abs", "sin", "cos", "tan", "asin", "acos", "atan", "pow", "exp", "exp2",
	"log", "log2", "sqrt", "inverse_sqrt", "floor", "ceil", "round", "trunc",
	"fract", "sign", "mod", "min", "max", "clamp", "mix", "step",
	"smoothstep", "radians", "degrees", "dot", "cross", "normalize",
	"length", "distance", "reflect", "refract", "face_forward",
	"transpose", "inverse", "determinant",
}

// String returns the function's IR name.
func (f BuiltinFunc) String() string {
	if int(f) < len(builtinNames) {
		return builtinNames[f]
	}
	return fmt.Sprintf("builtin(%d)", uint8(f))
}

// Arity returns the minimum and maximum argument counts of f.
// Unknown functions report (0, 0).
func (f BuiltinFunc) Arity() (lo, hi int) {
	switch f {
	case FuncAtan:
		return 1, 2
	case FuncPow, FuncMod, FuncMin, FuncMax, FuncStep, FuncDot, FuncCross, FuncDistance, FuncReflect:
		return 2, 2
	case FuncClamp, FuncMix, FuncSmoothStep, FuncRefract, FuncFaceForward:
		return 3, 3
	default:
		if f <= FuncDeterminant {
			return 1, 1
		}
		return 0, 0
	}
}

// Builtin calls a built-in math function with one to three arguments.
type Builtin struct {
	Func BuiltinFunc
	Args []Operand
}

func (Builtin) instruction() {}

// Construct builds a vector, matrix, array or struct value of Type.
type Construct struct {
	Type Type
	Args []Operand
}

func (Construct) instruction() {}

// ArrayIndex subscripts an array (or vector/matrix) with a dynamic index.
type ArrayIndex struct {
	Array Operand
	Index Operand
}

func (ArrayIndex) instruction() {}

// Swizzle selects one to four vector components by index (0-3 map to x-w).
type Swizzle struct {
	Vector     Operand
	Components []int
}

func (Swizzle) instruction() {}

// MatrixIndex selects a column, or a single element when Row is set.
type MatrixIndex struct {
	Matrix Operand
	Column Operand
	Row    Operand // optional
}

func (MatrixIndex) instruction() {}

// Member reads a named member of a struct value.
type Member struct {
	Struct Operand
	Member string
}

func (Member) instruction() {}

// TextureSample samples a texture with filtering. Index selects the
// element of a texture array and must be set exactly for arrays. At most
// one of Bias and Lod may be set.
type TextureSample struct {
	Texture string
	Index   Operand
	Coord   Operand
	Bias    Operand
	Lod     Operand
}

func (TextureSample) instruction() {}

// TextureFetch reads a single texel by integer coordinate. A nil Lod
// fetches from the base level.
type TextureFetch struct {
	Texture string
	Index   Operand
	Coord   Operand
	Lod     Operand
}

func (TextureFetch) instruction() {}

// TextureSize queries a texture's dimensions at Lod (base level if nil).
type TextureSize struct {
	Texture string
	Index   Operand
	Lod     Operand
}

func (TextureSize) instruction() {}

// BufferRead reads a buffer element; it is the instruction form of a
// BufferElement operand.
type BufferRead struct {
	Buffer  string
	Element string
	Index   Operand
}

func (BufferRead) instruction() {}

// BufferWrite stores Value into a buffer element.
type BufferWrite struct {
	Buffer  string
	Element string
	Index   Operand
	Value   Operand
}

func (BufferWrite) instruction() {}

// BufferSize queries the element count of a dynamic buffer.
type BufferSize struct {
	Buffer string
}

func (BufferSize) instruction() {}

// SetVertexPosition writes the clip-space position.
type SetVertexPosition struct {
	Value Operand
}

func (SetVertexPosition) instruction() {}

// SetFragmentDepth writes the fragment depth.
type SetFragmentDepth struct {
	Value Operand
}

func (SetFragmentDepth) instruction() {}

// SetLayer selects the framebuffer layer of the emitted primitive.
type SetLayer struct {
	Value Operand
}

func (SetLayer) instruction() {}

// EmitVertex emits the current geometry-stage vertex.
type EmitVertex struct{}

func (EmitVertex) instruction() {}

// EndPrimitive completes the current geometry-stage primitive.
type EndPrimitive struct{}

func (EndPrimitive) instruction() {}
