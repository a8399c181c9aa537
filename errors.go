package tsbind

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// UnsupportedShapeError reports a declaration, parameter or field whose form
// is outside the simple owned types tsbind binds.
type UnsupportedShapeError struct {
	Entity string // function or structure name
	Member string // "parameter x" or "field X"; empty when the declaration itself is unsupported
	Expr   string // offending source text
	Shape  Shape
}

func (e *UnsupportedShapeError) Error() string {
	var b strings.Builder
	for _, s := range []string{e.Entity, e.Member} {
		if s != "" {
			b.WriteString(s)
			b.WriteString(": ")
		}
	}
	fmt.Fprintf(&b, "unsupported %s", e.Shape)
	if e.Expr != "" {
		fmt.Fprintf(&b, " %s", e.Expr)
	}
	b.WriteString("; only simple owned types are supported")
	return b.String()
}

// UnresolvableTypeError reports a named type with no TypeScript mapping.
type UnresolvableTypeError struct {
	Entity string
	Member string
	Type   string
}

func (e *UnresolvableTypeError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("type %s has no TypeScript equivalent", e.Type)
	}
	return fmt.Sprintf("%s: %s: type %s has no TypeScript equivalent", e.Entity, e.Member, e.Type)
}

// NewUnsupportedShape returns an *UnsupportedShapeError annotated with a hint
// describing the supported alternative.
func NewUnsupportedShape(entity, member, expr string, shape Shape) error {
	return errors.WithHint(&UnsupportedShapeError{
		Entity: entity,
		Member: member,
		Expr:   expr,
		Shape:  shape,
	}, shapeHint(shape))
}

func shapeHint(s Shape) string {
	switch s {
	case ShapePointer:
		return "pass the value type; references cannot cross the invoke boundary"
	case ShapeGeneric, ShapeTypeParams:
		return "declare a concrete named type instead of a generic one"
	case ShapeSlice, ShapeArray, ShapeMap, ShapeFunc, ShapeChan, ShapeAnonymous, ShapeVariadic:
		return "declare a named type (e.g. type Tags []string) and map it in the [types] table of tsbind.toml"
	case ShapePattern:
		return "give every parameter a name; use skip=NAME on the directive to drop runtime-injected parameters"
	case ShapeMethod:
		return "only top-level functions can be commands"
	case ShapeEmbedded:
		return "declare the embedded fields explicitly"
	default:
		return "use a plain named type"
	}
}

// inContext attaches the entity and member being emitted to a resolver error.
func inContext(err error, entity, member string) error {
	var shapeErr *UnsupportedShapeError
	if errors.As(err, &shapeErr) {
		shapeErr.Entity, shapeErr.Member = entity, member
		return err
	}
	var typeErr *UnresolvableTypeError
	if errors.As(err, &typeErr) {
		typeErr.Entity, typeErr.Member = entity, member
		return err
	}
	return errors.Wrapf(err, "%s: %s", entity, member)
}

// validationError converts validator errors into one message naming the
// entity and each violated constraint.
func validationError(entity string, err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.Wrapf(err, "%s", entity)
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, ve.Field()+": "+formatValidationError(ve))
	}
	if entity == "" {
		entity = "<unnamed>"
	}
	return errors.Newf("%s: %s", entity, strings.Join(messages, "; "))
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "unique":
		return fmt.Sprintf("%s must be unique", strings.ToLower(ve.Param()))
	case "tsident":
		return fmt.Sprintf("%q is not a valid TypeScript identifier", ve.Value())
	case "startswith":
		return fmt.Sprintf("must start with %q", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
