package ir

import (
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	p := testProgram()
	p.Main = []Instruction{
		DeclareVariable{Name: "v", Type: Float, Init: Lit(FloatLit(1))},
		Loop{
			Init:      Nest(DeclareVariable{Name: "i", Type: Int, Init: Lit(IntLit(0))}),
			Condition: Nest(Binary{Op: BinaryLess, Left: Local{Name: "i"}, Right: Lit(IntLit(4))}),
			Step:      Nest(Assign{Target: Local{Name: "i"}, Value: Nest(Binary{Op: BinaryAdd, Left: Local{Name: "i"}, Right: Lit(IntLit(1))})}),
			Body:      []Instruction{Break{}},
		},
		Assign{Target: Nest(Swizzle{Vector: Output{Name: "color"}, Components: []int{0}}), Value: Local{Name: "v"}},
	}

	errs, err := Validate(p)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Validate() reported %v", errs)
	}
}

func TestValidate_Nil(t *testing.T) {
	if _, err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *Program)
		kind  ErrorKind
	}{
		{
			name: "binary missing operand",
			setup: func(p *Program) {
				p.Main = []Instruction{Assign{Target: Local{Name: "x"}, Value: Nest(Binary{Op: BinaryAdd, Left: Lit(FloatLit(1))})}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "branch without condition",
			setup: func(p *Program) {
				p.Main = []Instruction{Branch{Then: []Instruction{Discard{}}}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "loop without step",
			setup: func(p *Program) {
				p.Main = []Instruction{Loop{Init: Lit(IntLit(0)), Condition: Lit(BoolLit(true))}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "builtin arity",
			setup: func(p *Program) {
				p.Main = []Instruction{Builtin{Func: FuncMix, Args: []Operand{Lit(FloatLit(1))}}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "empty construction",
			setup: func(p *Program) {
				p.Main = []Instruction{Construct{Type: Vec3}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "swizzle of five",
			setup: func(p *Program) {
				p.Main = []Instruction{Swizzle{Vector: Input{Name: "uv"}, Components: []int{0, 1, 0, 1, 0}}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "break outside loop",
			setup: func(p *Program) {
				p.Main = []Instruction{Break{}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "return value from main",
			setup: func(p *Program) {
				p.Main = []Instruction{Return{Value: Lit(FloatLit(1))}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "literal value count",
			setup: func(p *Program) {
				p.Main = []Instruction{DeclareVariable{Name: "v", Type: Vec3, Init: Lit(Literal{Shape: ShapeVec3, Component: ComponentFloat, Values: []float64{1}})}}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "integer matrix",
			setup: func(p *Program) {
				p.Parameters["m"] = Type{Shape: ShapeMat2, Component: ComponentInt}
			},
			kind: ErrUnsupportedType,
		},
		{
			name: "undefined struct member type",
			setup: func(p *Program) {
				p.Structs["Bad"] = Struct{Fields: []Field{{Name: "x", Type: StructType("Missing")}}}
			},
			kind: ErrLookupFailure,
		},
		{
			name: "buffer without elements",
			setup: func(p *Program) {
				p.Buffers["empty"] = Buffer{}
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "geometry without max vertices",
			setup: func(p *Program) {
				p.Stage = StageGeometry
			},
			kind: ErrInvalidOperand,
		},
		{
			name: "sample with bias and lod",
			setup: func(p *Program) {
				p.Main = []Instruction{TextureSample{Texture: "albedo", Coord: Input{Name: "uv"}, Bias: Lit(FloatLit(0)), Lod: Lit(FloatLit(0))}}
			},
			kind: ErrInvalidOperand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProgram()
			tt.setup(p)
			errs, err := Validate(p)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if len(errs) == 0 {
				t.Fatal("Validate() reported no errors")
			}
			if errs[0].Kind != tt.kind {
				t.Errorf("first error = %v, want kind %s", errs[0], tt.kind)
			}
			if errs[0].Err().Kind != tt.kind {
				t.Error("Err() changed the kind")
			}
		})
	}
}

func TestSortedNames(t *testing.T) {
	got := SortedNames(map[string]int{"light10": 0, "light2": 0, "light1": 0, "albedo": 0})
	want := []string{"albedo", "light1", "light2", "light10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedNames() = %v, want %v", got, want)
		}
	}
}
