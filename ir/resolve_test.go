package ir

import (
	"testing"
)

func testProgram() *Program {
	return &Program{
		Stage:   StageFragment,
		Inputs:  []Attribute{{Name: "uv", Type: Vec2}},
		Outputs: []Attribute{{Name: "color", Type: Vec4}},
		Parameters: map[string]Type{
			"tint": Vec4,
			"mvp":  Mat4,
		},
		Buffers: map[string]Buffer{
			"lights": {Dynamic: true, Elements: []Field{{Name: "pos", Type: Vec3}}},
		},
		Textures: map[string]Texture{
			"albedo": {Kind: Texture2D},
			"ids":    {Kind: Texture2DArray, Format: FormatUint},
		},
		Structs: map[string]Struct{
			"Light": {Fields: []Field{{Name: "pos", Type: Vec3}, {Name: "power", Type: Float}}},
		},
		Functions: map[string]Function{
			"shade": {Args: []Field{{Name: "n", Type: Vec3}}, Return: &Float},
			"noop":  {},
		},
	}
}

func mustType(t *testing.T, r *Resolver, op Operand) Type {
	t.Helper()
	got, err := r.OperandType(op)
	if err != nil {
		t.Fatalf("OperandType() error = %v", err)
	}
	return got
}

func mustFail(t *testing.T, r *Resolver, op Operand, kind ErrorKind) {
	t.Helper()
	_, err := r.OperandType(op)
	if err == nil {
		t.Fatalf("OperandType() succeeded, want %s", kind)
	}
	if !IsKind(err, kind) {
		t.Fatalf("OperandType() error = %v, want %s", err, kind)
	}
}

var arithmeticOps = []BinaryOp{BinaryAdd, BinarySub, BinaryMul, BinaryDiv}

var valueTypes = []Type{
	Float, Int, Uint, Double, Vec2, Vec3, Vec4, Mat3, Mat4,
	{Shape: ShapeVec3, Component: ComponentDouble},
	{Shape: ShapeVec4, Component: ComponentInt},
}

func literalOf(typ Type) Operand {
	return Lit(Literal{Shape: typ.Shape, Component: typ.Component, Values: make([]float64, typ.Shape.Components())})
}

func TestResolver_SameTypeArithmetic(t *testing.T) {
	r := NewResolver(testProgram())
	for _, typ := range valueTypes {
		for _, op := range arithmeticOps {
			got := mustType(t, r, Nest(Binary{Op: op, Left: literalOf(typ), Right: literalOf(typ)}))
			if got != typ {
				t.Errorf("op %d on %+v: got %+v", op, typ, got)
			}
		}
	}
}

func TestResolver_ScalarPromotion(t *testing.T) {
	r := NewResolver(testProgram())
	for _, typ := range valueTypes {
		if typ.IsScalar() {
			continue
		}
		scalar := literalOf(Type{Shape: ShapeScalar, Component: typ.Component})
		for _, op := range arithmeticOps {
			left := mustType(t, r, Nest(Binary{Op: op, Left: scalar, Right: literalOf(typ)}))
			right := mustType(t, r, Nest(Binary{Op: op, Left: literalOf(typ), Right: scalar}))
			if left != typ || right != typ {
				t.Errorf("op %d scalar with %+v: got %+v and %+v", op, typ, left, right)
			}
		}
	}
}

func TestResolver_ComparisonIsBool(t *testing.T) {
	r := NewResolver(testProgram())
	ops := []BinaryOp{BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual, BinaryEqual, BinaryNotEqual}
	for _, a := range valueTypes {
		for _, b := range valueTypes {
			for _, op := range ops {
				got := mustType(t, r, Nest(Binary{Op: op, Left: literalOf(a), Right: literalOf(b)}))
				if got != Bool {
					t.Fatalf("compare %+v with %+v: got %+v, want bool", a, b, got)
				}
			}
		}
	}
}

func TestResolver_MismatchedShapes(t *testing.T) {
	mixed := Nest(Binary{Op: BinaryAdd, Left: literalOf(Vec3), Right: literalOf(Vec4)})

	r := NewResolver(testProgram())
	if got := mustType(t, r, mixed); got != Vec3 {
		t.Errorf("default rule: got %+v, want left operand type", got)
	}

	r.Strict = true
	mustFail(t, r, mixed, ErrTypeError)
	mustFail(t, r, Nest(Binary{Op: BinaryAdd, Left: literalOf(Float), Right: literalOf(Int)}), ErrTypeError)

	product := Nest(Binary{Op: BinaryMul, Left: Parameter{Name: "mvp"}, Right: literalOf(Vec4)})
	if got := mustType(t, r, product); got != Vec4 {
		t.Errorf("strict mat4*vec4: got %+v, want vec4", got)
	}
}

func TestResolver_Swizzle(t *testing.T) {
	r := NewResolver(testProgram())
	vec := Input{Name: "uv"}

	if got := mustType(t, r, Nest(Swizzle{Vector: vec, Components: []int{1, 0, 0}})); got != Vec3 {
		t.Errorf("uv.yxx: got %+v, want vec3", got)
	}
	if got := mustType(t, r, Nest(Swizzle{Vector: Output{Name: "color"}, Components: []int{0}})); got != Float {
		t.Errorf("color.x: got %+v, want float", got)
	}

	bad := [][]int{nil, {}, {0, 0, 0, 0, 0}, {4}, {-1}, {2}}
	for _, c := range bad {
		mustFail(t, r, Nest(Swizzle{Vector: vec, Components: c}), ErrInvalidOperand)
	}
}

func TestCheckSwizzle(t *testing.T) {
	tests := []struct {
		components []int
		ok         bool
	}{
		{[]int{0}, true},
		{[]int{3, 2, 1, 0}, true},
		{[]int{}, false},
		{[]int{0, 1, 2, 3, 0}, false},
		{[]int{0, 4}, false},
		{[]int{-1}, false},
	}
	for _, tt := range tests {
		err := CheckSwizzle(tt.components)
		if (err == nil) != tt.ok {
			t.Errorf("CheckSwizzle(%v) error = %v, want ok=%v", tt.components, err, tt.ok)
		}
		if err != nil && !IsKind(err, ErrInvalidOperand) {
			t.Errorf("CheckSwizzle(%v) kind = %v", tt.components, err)
		}
	}
}

func TestResolver_Builtins(t *testing.T) {
	r := NewResolver(testProgram())
	v3 := literalOf(Vec3)

	tests := []struct {
		name string
		in   Builtin
		want Type
	}{
		{"normalize", Builtin{Func: FuncNormalize, Args: []Operand{v3}}, Vec3},
		{"dot", Builtin{Func: FuncDot, Args: []Operand{v3, v3}}, Float},
		{"length", Builtin{Func: FuncLength, Args: []Operand{v3}}, Float},
		{"cross", Builtin{Func: FuncCross, Args: []Operand{v3, v3}}, Vec3},
		{"clamp", Builtin{Func: FuncClamp, Args: []Operand{v3, literalOf(Float), literalOf(Float)}}, Vec3},
		{"atan2", Builtin{Func: FuncAtan, Args: []Operand{literalOf(Float), literalOf(Float)}}, Float},
		{"determinant", Builtin{Func: FuncDeterminant, Args: []Operand{Parameter{Name: "mvp"}}}, Float},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustType(t, r, Nest(tt.in)); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	mustFail(t, r, Nest(Builtin{Func: FuncClamp, Args: []Operand{v3}}), ErrInvalidOperand)
	mustFail(t, r, Nest(Builtin{Func: FuncAbs}), ErrInvalidOperand)
	mustFail(t, r, Nest(Builtin{Func: BuiltinFunc(200), Args: []Operand{v3}}), ErrUnsupportedFeature)
}

func TestResolver_Lookups(t *testing.T) {
	r := NewResolver(testProgram())

	mustFail(t, r, Parameter{Name: "missing"}, ErrLookupFailure)
	mustFail(t, r, Input{Name: "missing"}, ErrLookupFailure)
	mustFail(t, r, Local{Name: "v"}, ErrLookupFailure)
	mustFail(t, r, BufferElement{Buffer: "missing", Element: "pos"}, ErrLookupFailure)
	mustFail(t, r, BufferElement{Buffer: "lights", Element: "color"}, ErrLookupFailure)
	mustFail(t, r, Nest(TextureSample{Texture: "albedo2", Coord: Input{Name: "uv"}}), ErrLookupFailure)
	mustFail(t, r, Nest(Call{Function: "missing"}), ErrLookupFailure)
	mustFail(t, r, Nest(Call{Function: "noop"}), ErrInvalidOperand)
	mustFail(t, r, nil, ErrInvalidOperand)
	mustFail(t, r, Nest(nil), ErrInvalidOperand)

	r.Scope.Declare("v", Float)
	if got := mustType(t, r, Local{Name: "v"}); got != Float {
		t.Errorf("local v: got %+v", got)
	}
	if got := mustType(t, r, Nest(Call{Function: "shade"})); got != Float {
		t.Errorf("call shade: got %+v", got)
	}
}

func TestResolver_Textures(t *testing.T) {
	r := NewResolver(testProgram())

	if got := mustType(t, r, Nest(TextureSample{Texture: "albedo", Coord: Input{Name: "uv"}})); got != Vec4 {
		t.Errorf("sample: got %+v", got)
	}
	want := Type{Shape: ShapeVec4, Component: ComponentUint}
	if got := mustType(t, r, Nest(TextureFetch{Texture: "ids", Coord: literalOf(Vec3)})); got != want {
		t.Errorf("fetch uint: got %+v", got)
	}
	want = Type{Shape: ShapeVec3, Component: ComponentInt}
	if got := mustType(t, r, Nest(TextureSize{Texture: "ids"})); got != want {
		t.Errorf("size of 2d array: got %+v", got)
	}
}

func TestResolver_Aggregates(t *testing.T) {
	p := testProgram()
	r := NewResolver(p)
	r.Scope.Declare("light", StructType("Light"))
	r.Scope.Declare("weights", ArrayOf(Float, 4))

	if got := mustType(t, r, Nest(Member{Struct: Local{Name: "light"}, Member: "power"})); got != Float {
		t.Errorf("light.power: got %+v", got)
	}
	mustFail(t, r, Nest(Member{Struct: Local{Name: "light"}, Member: "color"}), ErrLookupFailure)
	mustFail(t, r, Nest(Member{Struct: Local{Name: "weights"}, Member: "x"}), ErrInvalidOperand)

	if got := mustType(t, r, Nest(ArrayIndex{Array: Local{Name: "weights"}, Index: Lit(IntLit(1))})); got != Float {
		t.Errorf("weights[1]: got %+v", got)
	}
	col := mustType(t, r, Nest(MatrixIndex{Matrix: Parameter{Name: "mvp"}, Column: Lit(IntLit(0))}))
	if col != Vec4 {
		t.Errorf("mvp[0]: got %+v", col)
	}
	elem := mustType(t, r, Nest(MatrixIndex{Matrix: Parameter{Name: "mvp"}, Column: Lit(IntLit(0)), Row: Lit(IntLit(1))}))
	if elem != Float {
		t.Errorf("mvp[0][1]: got %+v", elem)
	}
	mustFail(t, r, Nest(MatrixIndex{Matrix: Input{Name: "uv"}, Column: Lit(IntLit(0))}), ErrInvalidOperand)
	mustFail(t, r, Nest(Construct{Type: Vec3}), ErrInvalidOperand)
}

func TestScopeBlocks(t *testing.T) {
	s := NewScope([]Field{{Name: "n", Type: Vec3}})
	s.Declare("v", Float)

	s.Push()
	if _, ok := s.Local("v"); !ok {
		t.Error("outer local not visible in nested block")
	}
	if s.Declared("v") {
		t.Error("outer local reported as declared in nested block")
	}
	s.Declare("v", Vec4)
	s.Declare("w", Int)
	if got, _ := s.Local("v"); got != Vec4 {
		t.Errorf("shadowed local = %v, want vec4", got)
	}
	s.Pop()

	if got, _ := s.Local("v"); got != Float {
		t.Errorf("local after pop = %v, want float", got)
	}
	if _, ok := s.Local("w"); ok {
		t.Error("nested local visible after its block")
	}

	// The function body block survives extra pops.
	s.Pop()
	if !s.Declared("v") {
		t.Error("function body block was popped")
	}
	if _, ok := s.Arg("n"); !ok {
		t.Error("argument lost")
	}
}
