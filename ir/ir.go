package ir

// Stage identifies the pipeline stage a Program runs in.
type Stage uint8

const (
	StageVertex Stage = iota
	StageGeometry
	StageTessControl
	StageTessEval
	StageFragment
	StageCompute
)

// String returns the lowercase stage name used in file names and diagnostics.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageGeometry:
		return "geometry"
	case StageTessControl:
		return "tess_control"
	case StageTessEval:
		return "tess_eval"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Program is one pipeline stage in IR form.
//
// Buffers, textures, parameters, structs and functions are keyed by name;
// backends emit them in natural name order so that output is deterministic.
type Program struct {
	Stage Stage

	// Inputs and Outputs are the ordered attribute layouts. Locations are
	// assigned sequentially in slice order.
	Inputs  []Attribute
	Outputs []Attribute

	Parameters map[string]Type
	Buffers    map[string]Buffer
	Textures   map[string]Texture
	Structs    map[string]Struct
	Functions  map[string]Function

	// Main is the body of the stage's entry point.
	Main []Instruction

	// Stage-specific layout settings.
	Geometry      Geometry
	Workgroup     [3]uint32 // compute only
	PatchVertices uint32    // tessellation control only
	TessDomain    TessDomain
}

// Attribute is one entry of an input or output layout.
type Attribute struct {
	Name string
	Type Type
	Flat bool // force flat interpolation
}

// Field is a named, typed slot: a struct member, a buffer element or a
// function argument.
type Field struct {
	Name string
	Type Type
}

// Buffer describes a storage buffer holding an unsized array of elements.
//
// Dynamic buffers are indexed explicitly at every access. Static buffers
// hold one element per draw and are indexed implicitly by the draw id.
type Buffer struct {
	ReadOnly bool
	Dynamic  bool
	Elements []Field
}

// Element returns the element named name.
func (b Buffer) Element(name string) (Field, bool) {
	for _, f := range b.Elements {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Struct is a named aggregate type definition.
type Struct struct {
	Fields []Field
}

// Field returns the member named name.
func (s Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Function is a user-defined helper function.
type Function struct {
	Args   []Field
	Return *Type // nil for void
	Body   []Instruction
}

// Texture describes a sampled texture or an array of them.
type Texture struct {
	Kind   TextureKind
	Format TextureFormat
	// ArraySize is the number of textures bound under this name.
	// Values below 2 declare a single sampler.
	ArraySize uint32
}

// IsArray reports whether the texture is declared as a sampler array.
func (t Texture) IsArray() bool {
	return t.ArraySize > 1
}

// TextureKind is the dimensionality of a texture.
type TextureKind uint8

const (
	Texture2D TextureKind = iota
	Texture1D
	Texture3D
	TextureCube
	Texture2DArray
)

// TextureFormat is the component class of the sampled texels.
type TextureFormat uint8

const (
	FormatFloat TextureFormat = iota
	FormatInt
	FormatUint
	FormatDepth
)

// Topology is a geometry-stage primitive topology.
type Topology uint8

const (
	TopologyPoint Topology = iota
	TopologyLine
	TopologyTriangle
	TopologyQuad
)

// Geometry holds geometry-stage primitive settings.
type Geometry struct {
	Input       Topology
	Output      Topology
	MaxVertices uint32
}

// TessDomain is the tessellation-evaluation patch domain.
type TessDomain uint8

const (
	DomainTriangles TessDomain = iota
	DomainQuads
	DomainIsolines
)

// Shape is the structural shape of a value.
type Shape uint8

const (
	ShapeScalar Shape = iota
	ShapeVec2
	ShapeVec3
	ShapeVec4
	ShapeMat2
	ShapeMat3
	ShapeMat4
)

// Components returns the number of scalar components of the shape.
func (s Shape) Components() int {
	switch s {
	case ShapeScalar:
		return 1
	case ShapeVec2:
		return 2
	case ShapeVec3:
		return 3
	case ShapeVec4:
		return 4
	case ShapeMat2:
		return 4
	case ShapeMat3:
		return 9
	case ShapeMat4:
		return 16
	default:
		return 0
	}
}

// IsVector reports whether the shape is a 2-4 component vector.
func (s Shape) IsVector() bool {
	return s >= ShapeVec2 && s <= ShapeVec4
}

// IsMatrix reports whether the shape is a square matrix.
func (s Shape) IsMatrix() bool {
	return s >= ShapeMat2 && s <= ShapeMat4
}

// Dim returns the vector length or matrix dimension, 1 for scalars.
func (s Shape) Dim() int {
	switch {
	case s.IsVector():
		return int(s-ShapeVec2) + 2
	case s.IsMatrix():
		return int(s-ShapeMat2) + 2
	default:
		return 1
	}
}

// VectorShape returns the vector shape with n components (1 yields scalar).
func VectorShape(n int) Shape {
	if n <= 1 {
		return ShapeScalar
	}
	return ShapeVec2 + Shape(n-2)
}

// Component is the scalar kind of every component of a value.
type Component uint8

const (
	ComponentBool Component = iota
	ComponentUint
	ComponentInt
	ComponentFloat
	ComponentDouble
)

// Width returns the component size in bytes.
func (c Component) Width() uint32 {
	if c == ComponentDouble {
		return 8
	}
	return 4
}

// IsFloating reports whether the component is float or double.
func (c Component) IsFloating() bool {
	return c == ComponentFloat || c == ComponentDouble
}

// Type is the shape, component kind and array length of a value.
//
// Types compare structurally with ==. When Struct is set the type names a
// Program struct definition and Shape/Component are ignored.
type Type struct {
	Shape     Shape
	Component Component
	Count     uint32 // array length; 0 or 1 means not an array
	Struct    string
}

// Common types.
var (
	Bool   = Type{Shape: ShapeScalar, Component: ComponentBool}
	Int    = Type{Shape: ShapeScalar, Component: ComponentInt}
	Uint   = Type{Shape: ShapeScalar, Component: ComponentUint}
	Float  = Type{Shape: ShapeScalar, Component: ComponentFloat}
	Double = Type{Shape: ShapeScalar, Component: ComponentDouble}
	Vec2   = Type{Shape: ShapeVec2, Component: ComponentFloat}
	Vec3   = Type{Shape: ShapeVec3, Component: ComponentFloat}
	Vec4   = Type{Shape: ShapeVec4, Component: ComponentFloat}
	Mat3   = Type{Shape: ShapeMat3, Component: ComponentFloat}
	Mat4   = Type{Shape: ShapeMat4, Component: ComponentFloat}
)

// StructType returns the type naming struct definition name.
func StructType(name string) Type {
	return Type{Struct: name}
}

// ArrayOf returns t as an array of n elements.
func ArrayOf(t Type, n uint32) Type {
	t.Count = n
	return t
}

// IsArray reports whether the type declares more than one element.
func (t Type) IsArray() bool {
	return t.Count > 1
}

// IsStruct reports whether the type names a struct definition.
func (t Type) IsStruct() bool {
	return t.Struct != ""
}

// IsScalar reports whether t is a single non-struct scalar.
func (t Type) IsScalar() bool {
	return !t.IsStruct() && !t.IsArray() && t.Shape == ShapeScalar
}

// Elem returns the element type of an array type.
func (t Type) Elem() Type {
	t.Count = 0
	return t
}

// Size returns the packed storage size in bytes of a non-struct type.
// Struct sizes depend on their definition; see Program.SizeOf.
func (t Type) Size() uint32 {
	if t.IsStruct() {
		return 0
	}
	return t.Component.Width() * uint32(t.Shape.Components()) * t.elements()
}

// Locations returns the number of attribute locations the type occupies.
func (t Type) Locations() uint32 {
	per := uint32(1)
	if t.Shape.IsMatrix() {
		per = uint32(t.Shape.Dim())
	}
	// dvec3/dvec4 (and double matrix columns of 3-4) take two slots each.
	if t.Component == ComponentDouble && t.Shape.Dim() >= 3 {
		per *= 2
	}
	return per * t.elements()
}

func (t Type) elements() uint32 {
	if t.Count > 1 {
		return t.Count
	}
	return 1
}
