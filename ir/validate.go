package ir

import (
	"fmt"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Kind    ErrorKind
	Message string
	// Optional context
	Function string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s in function %s: %s", e.Kind, e.Function, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Err converts the validation error into a compilation error.
func (e ValidationError) Err() *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Function: e.Function}
}

// Validator checks the structure of a Program: operand arity, unassigned
// slots, literal shapes and declaration names. It does not infer types.
type Validator struct {
	program *Program
	errors  []ValidationError
	context validationContext
}

// validationContext holds current validation context.
type validationContext struct {
	functionName string
	returns      bool
	loopDepth    int
}

// Validate checks p for structural errors.
// Returns validation errors if any, or nil if the program is valid.
func Validate(p *Program) ([]ValidationError, error) {
	if p == nil {
		return nil, fmt.Errorf("program is nil")
	}

	v := &Validator{program: p}
	v.ValidateProgram()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateProgram validates the complete program.
func (v *Validator) ValidateProgram() {
	v.validateStructs()
	v.validateBuffers()
	v.validateAttributes("input", v.program.Inputs)
	v.validateAttributes("output", v.program.Outputs)
	for _, name := range SortedNames(v.program.Parameters) {
		v.validateType(fmt.Sprintf("parameter %q", name), v.program.Parameters[name])
	}
	v.validateStage()
	v.validateFunctions()

	v.context = validationContext{functionName: "main"}
	v.validateBlock(v.program.Main)
}

func (v *Validator) validateStructs() {
	for _, name := range SortedNames(v.program.Structs) {
		def := v.program.Structs[name]
		if len(def.Fields) == 0 {
			v.addError(ErrInvalidOperand, fmt.Sprintf("struct %q has no members", name))
		}
		v.validateFields(fmt.Sprintf("struct %q", name), def.Fields)
		if _, err := v.program.SizeOf(StructType(name)); err != nil {
			v.addError(KindOrDefault(err, ErrUnsupportedType), fmt.Sprintf("struct %q: %s", name, errMessage(err)))
		}
	}
}

func (v *Validator) validateBuffers() {
	for _, name := range SortedNames(v.program.Buffers) {
		buf := v.program.Buffers[name]
		if len(buf.Elements) == 0 {
			v.addError(ErrInvalidOperand, fmt.Sprintf("buffer %q has no elements", name))
		}
		v.validateFields(fmt.Sprintf("buffer %q", name), buf.Elements)
	}
}

func (v *Validator) validateFields(owner string, fields []Field) {
	names := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			v.addError(ErrInvalidOperand, fmt.Sprintf("%s: member %d has empty name", owner, i))
		}
		if names[f.Name] {
			v.addError(ErrInvalidOperand, fmt.Sprintf("%s: duplicate member name %q", owner, f.Name))
		}
		names[f.Name] = true
		v.validateType(fmt.Sprintf("%s member %q", owner, f.Name), f.Type)
	}
}

func (v *Validator) validateAttributes(kind string, attrs []Attribute) {
	names := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if a.Name == "" {
			v.addError(ErrInvalidOperand, fmt.Sprintf("%s attribute has empty name", kind))
		}
		if names[a.Name] {
			v.addError(ErrInvalidOperand, fmt.Sprintf("duplicate %s attribute %q", kind, a.Name))
		}
		names[a.Name] = true
		if a.Type.IsStruct() {
			v.addError(ErrUnsupportedType, fmt.Sprintf("%s attribute %q has struct type", kind, a.Name))
		}
		v.validateType(fmt.Sprintf("%s attribute %q", kind, a.Name), a.Type)
	}
}

// validateType checks that a type is representable.
func (v *Validator) validateType(owner string, t Type) {
	if t.IsStruct() {
		if _, ok := v.program.Structs[t.Struct]; !ok {
			v.addError(ErrLookupFailure, fmt.Sprintf("%s: struct %q is not defined", owner, t.Struct))
		}
		return
	}
	if t.Shape > ShapeMat4 || t.Component > ComponentDouble {
		v.addError(ErrUnsupportedType, fmt.Sprintf("%s: unknown shape or component", owner))
		return
	}
	if t.Shape.IsMatrix() && !t.Component.IsFloating() {
		v.addError(ErrUnsupportedType, fmt.Sprintf("%s: matrix of non-floating components", owner))
	}
}

func (v *Validator) validateStage() {
	p := v.program
	switch p.Stage {
	case StageGeometry:
		if p.Geometry.MaxVertices == 0 {
			v.addError(ErrInvalidOperand, "geometry stage declares no maximum vertex count")
		}
	case StageTessControl:
		if p.PatchVertices == 0 {
			v.addError(ErrInvalidOperand, "tessellation control stage declares no patch size")
		}
	case StageVertex, StageTessEval, StageFragment, StageCompute:
	default:
		v.addError(ErrUnsupportedFeature, fmt.Sprintf("unknown stage %d", p.Stage))
	}
}

// validateFunctions checks all functions.
func (v *Validator) validateFunctions() {
	for _, name := range SortedNames(v.program.Functions) {
		fn := v.program.Functions[name]
		v.context = validationContext{functionName: name, returns: fn.Return != nil}
		if name == "main" {
			v.addErrorInFunction(ErrInvalidOperand, "a user function may not be named main")
		}
		v.validateFields("arguments", fn.Args)
		if fn.Return != nil {
			v.validateType("return type", *fn.Return)
		}
		v.validateBlock(fn.Body)
	}
}

func (v *Validator) validateBlock(block []Instruction) {
	for _, inst := range block {
		v.validateStatement(inst)
	}
}

// validateStatement validates an instruction in statement position.
func (v *Validator) validateStatement(inst Instruction) {
	switch in := inst.(type) {
	case Break:
		if v.context.loopDepth == 0 {
			v.addErrorInFunction(ErrInvalidOperand, "break outside of a loop")
		}
	case Continue:
		if v.context.loopDepth == 0 {
			v.addErrorInFunction(ErrInvalidOperand, "continue outside of a loop")
		}
	case Return:
		switch {
		case v.context.returns && in.Value == nil:
			v.addErrorInFunction(ErrInvalidOperand, "return without a value in a function returning a value")
		case !v.context.returns && in.Value != nil:
			v.addErrorInFunction(ErrInvalidOperand, "return with a value in a function returning void")
		}
		v.validateOptional(in.Value)
	case Branch:
		v.validateRequired("branch condition", in.Condition)
		v.validateBlock(in.Then)
		v.validateBlock(in.Else)
	case Loop:
		v.validateRequired("loop initializer", in.Init)
		v.validateRequired("loop condition", in.Condition)
		v.validateRequired("loop step", in.Step)
		v.context.loopDepth++
		v.validateBlock(in.Body)
		v.context.loopDepth--
	default:
		v.validateInstruction(inst)
	}
}

// validateInstruction validates operand arity of an instruction.
//
//nolint:gocyclo,cyclop,funlen // one case per opcode
func (v *Validator) validateInstruction(inst Instruction) {
	switch in := inst.(type) {
	case nil:
		v.addErrorInFunction(ErrInvalidOperand, "unassigned instruction")
	case DeclareVariable:
		if in.Name == "" {
			v.addErrorInFunction(ErrInvalidOperand, "variable declared with empty name")
		}
		v.validateType(fmt.Sprintf("variable %q", in.Name), in.Type)
		v.validateOptional(in.Init)
	case Assign:
		v.validateRequired("assignment target", in.Target)
		v.validateRequired("assigned value", in.Value)
	case Binary:
		v.validateRequired("left operand", in.Left)
		v.validateRequired("right operand", in.Right)
	case Unary:
		v.validateRequired("operand", in.Operand)
	case Call:
		for _, a := range trimTrailingNil(in.Args) {
			v.validateRequired(fmt.Sprintf("argument of %s", in.Function), a)
		}
	case Builtin:
		if err := CheckBuiltinArity(in); err != nil {
			v.addErrorFrom(err)
		}
		for _, a := range in.Args {
			v.validateRequired(fmt.Sprintf("argument of %s", in.Func), a)
		}
	case Construct:
		if len(in.Args) == 0 {
			v.addErrorInFunction(ErrInvalidOperand, "construction requires at least one argument")
		}
		v.validateType("constructed value", in.Type)
		for _, a := range in.Args {
			v.validateRequired("constructor argument", a)
		}
	case ArrayIndex:
		v.validateRequired("subscripted value", in.Array)
		v.validateRequired("subscript", in.Index)
	case Swizzle:
		if err := CheckSwizzle(in.Components); err != nil {
			v.addErrorFrom(err)
		}
		v.validateRequired("swizzled vector", in.Vector)
	case MatrixIndex:
		v.validateRequired("matrix", in.Matrix)
		v.validateRequired("matrix column", in.Column)
		v.validateOptional(in.Row)
	case Member:
		v.validateRequired(fmt.Sprintf("struct value of member %q", in.Member), in.Struct)
	case TextureSample:
		v.validateRequired("sample coordinate", in.Coord)
		if in.Bias != nil && in.Lod != nil {
			v.addErrorInFunction(ErrInvalidOperand, "sample takes a bias or a level of detail, not both")
		}
		v.validateOptional(in.Index)
		v.validateOptional(in.Bias)
		v.validateOptional(in.Lod)
	case TextureFetch:
		v.validateRequired("fetch coordinate", in.Coord)
		v.validateOptional(in.Index)
		v.validateOptional(in.Lod)
	case TextureSize:
		v.validateOptional(in.Index)
		v.validateOptional(in.Lod)
	case BufferRead:
		v.validateOptional(in.Index)
	case BufferWrite:
		v.validateOptional(in.Index)
		v.validateRequired("written value", in.Value)
	case SetVertexPosition:
		v.validateRequired("position", in.Value)
	case SetFragmentDepth:
		v.validateRequired("depth", in.Value)
	case SetLayer:
		v.validateRequired("layer", in.Value)
	case Branch, Loop, Break, Continue, Return:
		v.addErrorInFunction(ErrInvalidOperand, fmt.Sprintf("%s used as a value", OpName(inst)))
	case BufferSize, Discard, EmitVertex, EndPrimitive:
	}
}

func (v *Validator) validateRequired(what string, op Operand) {
	if op == nil {
		v.addErrorInFunction(ErrInvalidOperand, fmt.Sprintf("%s is unassigned", what))
		return
	}
	v.validateOperand(op)
}

func (v *Validator) validateOptional(op Operand) {
	if op != nil {
		v.validateOperand(op)
	}
}

func (v *Validator) validateOperand(op Operand) {
	switch o := op.(type) {
	case Const:
		if err := CheckLiteral(o.Value); err != nil {
			v.addErrorFrom(err)
		}
	case BufferElement:
		v.validateOptional(o.Index)
	case Nested:
		v.validateInstruction(o.Instruction)
	}
}

// CheckLiteral validates that a literal carries one value per component
// of a representable shape.
func CheckLiteral(l Literal) error {
	if l.Shape > ShapeMat4 || l.Component > ComponentDouble {
		return NewError(ErrUnsupportedType, "literal of unknown shape or component")
	}
	if l.Shape.IsMatrix() && !l.Component.IsFloating() {
		return NewError(ErrUnsupportedType, "matrix literal of non-floating components")
	}
	if len(l.Values) != l.Shape.Components() {
		return Errorf(ErrInvalidOperand, "literal has %d values, want %d", len(l.Values), l.Shape.Components())
	}
	return nil
}

func trimTrailingNil(args []Operand) []Operand {
	n := len(args)
	for n > 0 && args[n-1] == nil {
		n--
	}
	return args[:n]
}

// KindOrDefault returns the kind carried by err, or def when err is not
// an *Error.
func KindOrDefault(err error, def ErrorKind) ErrorKind {
	if k, ok := KindOf(err); ok {
		return k
	}
	return def
}

func (v *Validator) addError(kind ErrorKind, msg string) {
	v.errors = append(v.errors, ValidationError{
		Kind:    kind,
		Message: msg,
	})
}

func (v *Validator) addErrorInFunction(kind ErrorKind, msg string) {
	v.errors = append(v.errors, ValidationError{
		Kind:     kind,
		Message:  msg,
		Function: v.context.functionName,
	})
}

func (v *Validator) addErrorFrom(err error) {
	v.addErrorInFunction(KindOrDefault(err, ErrInvalidOperand), errMessage(err))
}

func errMessage(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return err.Error()
}
