package tsbind

import "go/token"

// Shape identifies the syntactic form of a type or member.
// Only ShapeNamed is bindable; every other shape is reported as unsupported.
type Shape int

const (
	ShapeNamed     Shape = iota // Plain named or package-qualified type (T, pkg.T)
	ShapePointer                // *T
	ShapeGeneric                // T[U]
	ShapeSlice                  // []T
	ShapeArray                  // [N]T
	ShapeMap                    // map[K]V
	ShapeFunc                   // func(...)
	ShapeChan                   // chan T
	ShapeVariadic               // ...T
	ShapeAnonymous              // struct{...}, interface{...}

	// Member and declaration forms.
	ShapePattern    // blank or unnamed parameter
	ShapeMethod     // function declared with a receiver
	ShapeTypeParams // generic function or type declaration
	ShapeEmbedded   // embedded struct field
)

// String returns a human-readable name for the shape.
func (s Shape) String() string {
	switch s {
	case ShapeNamed:
		return "named type"
	case ShapePointer:
		return "pointer"
	case ShapeGeneric:
		return "generic instantiation"
	case ShapeSlice:
		return "slice"
	case ShapeArray:
		return "array"
	case ShapeMap:
		return "map"
	case ShapeFunc:
		return "function type"
	case ShapeChan:
		return "channel"
	case ShapeVariadic:
		return "variadic parameter"
	case ShapeAnonymous:
		return "anonymous type"
	case ShapePattern:
		return "blank or unnamed parameter"
	case ShapeMethod:
		return "method"
	case ShapeTypeParams:
		return "type parameters"
	case ShapeEmbedded:
		return "embedded field"
	default:
		return "unknown shape"
	}
}

// TypeRef identifies a Go type by name.
//
// Name is the registry key: universe types by their bare name ("string",
// "int64", "any") and named types as import path plus name ("time.Time",
// "example.com/app/api.User").
type TypeRef struct {
	Name  string
	Shape Shape

	// Expr is the type as written in source, used in error messages.
	// Empty means Name.
	Expr string
}

// Named returns a reference to a plain named type.
func Named(name string) TypeRef {
	return TypeRef{Name: name, Shape: ShapeNamed}
}

func (r TypeRef) String() string {
	if r.Expr != "" {
		return r.Expr
	}
	return r.Name
}

// Parameter is one declared parameter of an exported function.
type Parameter struct {
	Name string
	Type TypeRef
}

// FunctionDescriptor describes one exported backend command.
type FunctionDescriptor struct {
	Name       string      `validate:"required,tsident"`
	Parameters []Parameter `validate:"unique=Name"`

	// Dir is the raw directory argument, possibly quoted or empty.
	Dir string

	// Pos is the declaration's source location, if known.
	Pos token.Position
}

// Field is one serialized field of an exported structure.
type Field struct {
	// Name is the Go field name.
	Name string

	// JSONName is the serialized property name. Empty means Name.
	JSONName string

	// Optional marks fields omitted from the payload when zero.
	Optional bool

	Type TypeRef
}

// PropertyName returns the name the field has on the wire.
func (f Field) PropertyName() string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return f.Name
}

// StructDescriptor describes one exported data structure.
type StructDescriptor struct {
	Name   string  `validate:"required,tsident"`
	Fields []Field `validate:"unique=Name"`

	// Dir is the raw directory argument, possibly quoted or empty.
	Dir string

	// Pos is the declaration's source location, if known.
	Pos token.Position
}
