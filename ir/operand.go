package ir

// Operand references a value an instruction consumes.
// A nil Operand is an unassigned slot.
type Operand interface {
	operand()
}

// BufferElement reads or addresses one named element of a storage buffer.
// Index is required for dynamic buffers and must be nil for static ones,
// which are indexed by the draw id.
type BufferElement struct {
	Buffer  string
	Element string
	Index   Operand
}

func (BufferElement) operand() {}

// TextureRef names a texture or texture array.
type TextureRef struct {
	Texture string
}

func (TextureRef) operand() {}

// Parameter names a uniform parameter.
type Parameter struct {
	Name string
}

func (Parameter) operand() {}

// Input names an input attribute.
type Input struct {
	Name string
}

func (Input) operand() {}

// Output names an output attribute.
type Output struct {
	Name string
}

func (Output) operand() {}

// Argument names an argument of the enclosing function.
type Argument struct {
	Name string
}

func (Argument) operand() {}

// Local names a variable declared earlier in the enclosing function.
type Local struct {
	Name string
}

func (Local) operand() {}

// Const is an inline literal value.
type Const struct {
	Value Literal
}

func (Const) operand() {}

// Nested evaluates an instruction in expression position.
type Nested struct {
	Instruction Instruction
}

func (Nested) operand() {}

// Literal is a concrete constant. Values holds Shape.Components() entries;
// matrix entries are in row-major order. Booleans are stored as 0 or 1.
type Literal struct {
	Shape     Shape
	Component Component
	Values    []float64
}

// Type returns the literal's value type.
func (l Literal) Type() Type {
	return Type{Shape: l.Shape, Component: l.Component}
}

// FloatLit returns a float scalar literal.
func FloatLit(v float64) Literal {
	return Literal{Shape: ShapeScalar, Component: ComponentFloat, Values: []float64{v}}
}

// IntLit returns a signed integer scalar literal.
func IntLit(v int32) Literal {
	return Literal{Shape: ShapeScalar, Component: ComponentInt, Values: []float64{float64(v)}}
}

// UintLit returns an unsigned integer scalar literal.
func UintLit(v uint32) Literal {
	return Literal{Shape: ShapeScalar, Component: ComponentUint, Values: []float64{float64(v)}}
}

// BoolLit returns a boolean scalar literal.
func BoolLit(v bool) Literal {
	b := 0.0
	if v {
		b = 1
	}
	return Literal{Shape: ShapeScalar, Component: ComponentBool, Values: []float64{b}}
}

// VecLit returns a float vector literal of len(vs) components.
func VecLit(vs ...float64) Literal {
	return Literal{Shape: VectorShape(len(vs)), Component: ComponentFloat, Values: vs}
}

// Lit wraps a literal as an operand.
func Lit(l Literal) Operand {
	return Const{Value: l}
}

// Nest wraps an instruction as an operand.
func Nest(inst Instruction) Operand {
	return Nested{Instruction: inst}
}
