package ir

import "fmt"

// Scope holds the arguments and local variables visible inside one
// function body. Locals live in a stack of blocks: a declaration is
// visible until the block that made it is popped.
type Scope struct {
	args   map[string]Type
	blocks []map[string]Type
}

// NewScope returns a scope seeded with function arguments and one open
// block for the function body.
func NewScope(args []Field) *Scope {
	s := &Scope{
		args:   make(map[string]Type, len(args)),
		blocks: []map[string]Type{make(map[string]Type)},
	}
	for _, a := range args {
		s.args[a.Name] = a.Type
	}
	return s
}

// Push opens a nested block.
func (s *Scope) Push() {
	s.blocks = append(s.blocks, make(map[string]Type))
}

// Pop closes the innermost nested block and forgets its locals. The
// function body block is never popped.
func (s *Scope) Pop() {
	if len(s.blocks) > 1 {
		s.blocks = s.blocks[:len(s.blocks)-1]
	}
}

// Declare records a local variable in the innermost block.
func (s *Scope) Declare(name string, t Type) {
	s.blocks[len(s.blocks)-1][name] = t
}

// Declared reports whether name was declared in the innermost block.
func (s *Scope) Declared(name string) bool {
	_, ok := s.blocks[len(s.blocks)-1][name]
	return ok
}

// Local returns the type of the innermost visible local named name.
func (s *Scope) Local(name string) (Type, bool) {
	for i := len(s.blocks) - 1; i >= 0; i-- {
		if t, ok := s.blocks[i][name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

// Arg returns the type of a function argument.
func (s *Scope) Arg(name string) (Type, bool) {
	t, ok := s.args[name]
	return t, ok
}

// Resolver infers the value types of operands and instructions.
type Resolver struct {
	Program *Program
	Scope   *Scope

	// Strict rejects binary operands whose types cannot be combined
	// instead of applying the scalar/left-operand promotion rule.
	Strict bool
}

// NewResolver returns a resolver for p with an empty scope.
func NewResolver(p *Program) *Resolver {
	return &Resolver{Program: p, Scope: NewScope(nil)}
}

// OperandType returns the value type of op.
//
//nolint:gocyclo,cyclop // one case per operand kind
func (r *Resolver) OperandType(op Operand) (Type, error) {
	switch o := op.(type) {
	case nil:
		return Type{}, NewError(ErrInvalidOperand, "unassigned operand")
	case BufferElement:
		return r.bufferElementType(o.Buffer, o.Element)
	case TextureRef:
		if _, err := r.Program.LookupTexture(o.Texture); err != nil {
			return Type{}, err
		}
		return Type{}, Errorf(ErrInvalidOperand, "texture %q has no value type", o.Texture)
	case Parameter:
		return r.Program.LookupParameter(o.Name)
	case Input:
		a, err := r.Program.LookupInput(o.Name)
		return a.Type, err
	case Output:
		a, err := r.Program.LookupOutput(o.Name)
		return a.Type, err
	case Argument:
		if r.Scope != nil {
			if t, ok := r.Scope.Arg(o.Name); ok {
				return t, nil
			}
		}
		return Type{}, Errorf(ErrLookupFailure, "argument %q is not defined", o.Name)
	case Local:
		if r.Scope != nil {
			if t, ok := r.Scope.Local(o.Name); ok {
				return t, nil
			}
		}
		return Type{}, Errorf(ErrLookupFailure, "variable %q is not declared", o.Name)
	case Const:
		return o.Value.Type(), nil
	case Nested:
		if o.Instruction == nil {
			return Type{}, NewError(ErrInvalidOperand, "unassigned nested instruction")
		}
		return r.InstructionType(o.Instruction)
	default:
		return Type{}, Errorf(ErrUnsupportedFeature, "unsupported operand %T", op)
	}
}

// InstructionType returns the value type an instruction produces in
// expression position.
//
//nolint:gocyclo,cyclop,funlen // one case per opcode
func (r *Resolver) InstructionType(inst Instruction) (Type, error) {
	switch in := inst.(type) {
	case DeclareVariable:
		return in.Type, nil
	case Assign:
		return r.OperandType(in.Target)
	case Binary:
		return r.binaryType(in)
	case Unary:
		return r.OperandType(in.Operand)
	case Call:
		fn, err := r.Program.LookupFunction(in.Function)
		if err != nil {
			return Type{}, err
		}
		if fn.Return == nil {
			return Type{}, Errorf(ErrInvalidOperand, "function %q returns no value", in.Function)
		}
		return *fn.Return, nil
	case Builtin:
		return r.builtinType(in)
	case Construct:
		if len(in.Args) == 0 {
			return Type{}, NewError(ErrInvalidOperand, "construction requires at least one argument")
		}
		return in.Type, nil
	case ArrayIndex:
		base, err := r.OperandType(in.Array)
		if err != nil {
			return Type{}, err
		}
		return IndexedType(base)
	case Swizzle:
		return r.swizzleType(in)
	case MatrixIndex:
		m, err := r.OperandType(in.Matrix)
		if err != nil {
			return Type{}, err
		}
		if m.IsStruct() || m.IsArray() || !m.Shape.IsMatrix() {
			return Type{}, NewError(ErrInvalidOperand, "matrix subscript of a non-matrix value")
		}
		if in.Row != nil {
			return Type{Shape: ShapeScalar, Component: m.Component}, nil
		}
		return Type{Shape: VectorShape(m.Shape.Dim()), Component: m.Component}, nil
	case Member:
		s, err := r.OperandType(in.Struct)
		if err != nil {
			return Type{}, err
		}
		if !s.IsStruct() || s.IsArray() {
			return Type{}, Errorf(ErrInvalidOperand, "member %q of a non-struct value", in.Member)
		}
		def, err := r.Program.LookupStruct(s.Struct)
		if err != nil {
			return Type{}, err
		}
		f, ok := def.Field(in.Member)
		if !ok {
			return Type{}, Errorf(ErrLookupFailure, "struct %q has no member %q", s.Struct, in.Member)
		}
		return f.Type, nil
	case TextureSample:
		tex, err := r.Program.LookupTexture(in.Texture)
		if err != nil {
			return Type{}, err
		}
		if tex.Format == FormatDepth {
			return Float, nil
		}
		return texelType(tex.Format), nil
	case TextureFetch:
		tex, err := r.Program.LookupTexture(in.Texture)
		if err != nil {
			return Type{}, err
		}
		return texelType(tex.Format), nil
	case TextureSize:
		tex, err := r.Program.LookupTexture(in.Texture)
		if err != nil {
			return Type{}, err
		}
		return Type{Shape: VectorShape(textureSizeDim(tex.Kind)), Component: ComponentInt}, nil
	case BufferRead:
		return r.bufferElementType(in.Buffer, in.Element)
	case BufferSize:
		if _, err := r.Program.LookupBuffer(in.Buffer); err != nil {
			return Type{}, err
		}
		return Int, nil
	case nil:
		return Type{}, NewError(ErrInvalidOperand, "unassigned instruction")
	default:
		return Type{}, Errorf(ErrInvalidOperand, "%s produces no value", OpName(inst))
	}
}

// PromoteArithmetic applies the mixed-operand rule: when one side is a
// scalar the result takes the other side's type, otherwise the left type.
func PromoteArithmetic(left, right Type) Type {
	if left.IsScalar() && !right.IsScalar() {
		return right
	}
	return left
}

func (r *Resolver) binaryType(in Binary) (Type, error) {
	left, err := r.OperandType(in.Left)
	if err != nil {
		return Type{}, err
	}
	right, err := r.OperandType(in.Right)
	if err != nil {
		return Type{}, err
	}
	if in.Op.IsComparison() {
		return Bool, nil
	}
	if !r.Strict {
		return PromoteArithmetic(left, right), nil
	}
	return strictArithmetic(in.Op, left, right)
}

// strictArithmetic is the checked variant of PromoteArithmetic. Component
// kinds must agree; shapes must agree unless one side is scalar or the
// operation is a matrix/vector product.
func strictArithmetic(op BinaryOp, left, right Type) (Type, error) {
	if left.IsStruct() || right.IsStruct() || left.IsArray() || right.IsArray() {
		return Type{}, Errorf(ErrTypeError, "arithmetic on aggregate values")
	}
	if left.Component != right.Component {
		return Type{}, Errorf(ErrTypeError, "mixed component kinds %d and %d", left.Component, right.Component)
	}
	switch {
	case left == right:
		return left, nil
	case left.IsScalar():
		return right, nil
	case right.IsScalar():
		return left, nil
	case op == BinaryMul && left.Shape.IsMatrix() && right.Shape.IsVector() && left.Shape.Dim() == right.Shape.Dim():
		return right, nil
	case op == BinaryMul && left.Shape.IsVector() && right.Shape.IsMatrix() && left.Shape.Dim() == right.Shape.Dim():
		return left, nil
	default:
		return Type{}, Errorf(ErrTypeError, "incompatible operand shapes %d and %d", left.Shape, right.Shape)
	}
}

func (r *Resolver) builtinType(in Builtin) (Type, error) {
	if err := CheckBuiltinArity(in); err != nil {
		return Type{}, err
	}
	first, err := r.OperandType(in.Args[0])
	if err != nil {
		return Type{}, err
	}
	for _, a := range in.Args[1:] {
		if _, err := r.OperandType(a); err != nil {
			return Type{}, err
		}
	}
	switch in.Func {
	case FuncDot, FuncLength, FuncDistance, FuncDeterminant:
		return Type{Shape: ShapeScalar, Component: first.Component}, nil
	case FuncCross:
		return Type{Shape: ShapeVec3, Component: first.Component}, nil
	default:
		return first, nil
	}
}

func (r *Resolver) swizzleType(in Swizzle) (Type, error) {
	if err := CheckSwizzle(in.Components); err != nil {
		return Type{}, err
	}
	v, err := r.OperandType(in.Vector)
	if err != nil {
		return Type{}, err
	}
	if err := CheckSwizzleBounds(v, in.Components); err != nil {
		return Type{}, err
	}
	return Type{Shape: VectorShape(len(in.Components)), Component: v.Component}, nil
}

func (r *Resolver) bufferElementType(buffer, element string) (Type, error) {
	b, err := r.Program.LookupBuffer(buffer)
	if err != nil {
		return Type{}, err
	}
	f, ok := b.Element(element)
	if !ok {
		return Type{}, Errorf(ErrLookupFailure, "buffer %q has no element %q", buffer, element)
	}
	return f.Type, nil
}

// IndexedType returns the type produced by subscripting a value of type t.
func IndexedType(t Type) (Type, error) {
	switch {
	case t.IsArray():
		return t.Elem(), nil
	case t.IsStruct():
		return Type{}, NewError(ErrInvalidOperand, "subscript of a struct value")
	case t.Shape.IsVector():
		return Type{Shape: ShapeScalar, Component: t.Component}, nil
	case t.Shape.IsMatrix():
		return Type{Shape: VectorShape(t.Shape.Dim()), Component: t.Component}, nil
	default:
		return Type{}, NewError(ErrInvalidOperand, "subscript of a scalar value")
	}
}

// CheckSwizzle validates a swizzle component list in isolation: one to
// four entries, each in 0-3.
func CheckSwizzle(components []int) error {
	if len(components) == 0 || len(components) > 4 {
		return Errorf(ErrInvalidOperand, "swizzle selects %d components, want 1-4", len(components))
	}
	for _, c := range components {
		if c < 0 || c > 3 {
			return Errorf(ErrInvalidOperand, "swizzle component %d out of range 0-3", c)
		}
	}
	return nil
}

// CheckSwizzleBounds validates swizzle components against the vector
// they select from.
func CheckSwizzleBounds(v Type, components []int) error {
	if v.IsStruct() || v.IsArray() || v.Shape.IsMatrix() {
		return NewError(ErrInvalidOperand, "swizzle of a non-vector value")
	}
	dim := v.Shape.Dim()
	for _, c := range components {
		if c >= dim {
			return Errorf(ErrInvalidOperand, "swizzle component %d exceeds vector size %d", c, dim)
		}
	}
	return nil
}

// CheckBuiltinArity validates the argument count of a built-in call.
func CheckBuiltinArity(in Builtin) error {
	lo, hi := in.Func.Arity()
	if hi == 0 {
		return Errorf(ErrUnsupportedFeature, "unknown built-in function %s", in.Func)
	}
	if len(in.Args) < lo || len(in.Args) > hi {
		return Errorf(ErrInvalidOperand, "built-in %s takes %d-%d arguments, got %d", in.Func, lo, hi, len(in.Args))
	}
	return nil
}

func texelType(f TextureFormat) Type {
	switch f {
	case FormatInt:
		return Type{Shape: ShapeVec4, Component: ComponentInt}
	case FormatUint:
		return Type{Shape: ShapeVec4, Component: ComponentUint}
	default:
		return Vec4
	}
}

func textureSizeDim(k TextureKind) int {
	switch k {
	case Texture1D:
		return 1
	case Texture3D, Texture2DArray:
		return 3
	default:
		return 2
	}
}

// OpName returns a short opcode name for diagnostics.
func OpName(inst Instruction) string {
	if inst == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", inst)
}
