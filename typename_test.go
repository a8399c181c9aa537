package tsbind

import (
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestRegistry_ResolveTypeName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("example.com/app/api.Tags", "string[]")
	reg.RegisterEntity(Entity{GoType: "example.com/app/api.User", Name: "User", Dir: "../src-gen"})

	tests := []struct {
		ref  TypeRef
		want string
	}{
		{Named("string"), "string"},
		{Named("bool"), "boolean"},
		{Named("int"), "number"},
		{Named("uint64"), "number"},
		{Named("float32"), "number"},
		{Named("byte"), "number"},
		{Named("any"), "unknown"},
		{Named("time.Time"), "string"},
		{Named("time.Duration"), "number"},
		{Named("example.com/app/api.Tags"), "string[]"},
		{Named("example.com/app/api.User"), "User"},
	}

	for _, tt := range tests {
		t.Run(tt.ref.Name, func(t *testing.T) {
			got, err := reg.ResolveTypeName(tt.ref)
			if err != nil {
				t.Fatalf("ResolveTypeName(%s) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ResolveTypeName(%s) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestRegistry_ResolveTypeNameErrors(t *testing.T) {
	reg := NewRegistry()

	t.Run("unsupported shapes", func(t *testing.T) {
		for _, ref := range []TypeRef{
			{Name: "string", Shape: ShapePointer, Expr: "*string"},
			{Shape: ShapeGeneric, Expr: "Page[User]"},
			{Shape: ShapeSlice, Expr: "[]string"},
			{Shape: ShapeMap, Expr: "map[string]int"},
			{Shape: ShapeAnonymous, Expr: "struct{}"},
		} {
			_, err := reg.ResolveTypeName(ref)
			var shapeErr *UnsupportedShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("ResolveTypeName(%s) error = %v, want *UnsupportedShapeError", ref, err)
			}
			if shapeErr.Shape != ref.Shape || shapeErr.Expr != ref.Expr {
				t.Errorf("error = %+v, want shape %s expr %s", shapeErr, ref.Shape, ref.Expr)
			}
			if len(errors.GetAllHints(err)) == 0 {
				t.Errorf("ResolveTypeName(%s) error has no hint", ref)
			}
		}
	})

	t.Run("unmapped type", func(t *testing.T) {
		_, err := reg.ResolveTypeName(Named("example.com/app/api.Secret"))
		var typeErr *UnresolvableTypeError
		if !errors.As(err, &typeErr) {
			t.Fatalf("error = %v, want *UnresolvableTypeError", err)
		}
		if typeErr.Type != "example.com/app/api.Secret" {
			t.Errorf("Type = %q", typeErr.Type)
		}
		if hint := errors.FlattenHints(err); !strings.Contains(hint, "[types]") {
			t.Errorf("hint = %q, want mention of [types]", hint)
		}
	})

	t.Run("error is universe type not in table", func(t *testing.T) {
		if _, err := reg.ResolveTypeName(Named("error")); err == nil {
			t.Error("ResolveTypeName(error) succeeded, want failure")
		}
	})
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	reg := NewRegistry()
	reg.Register("time.Time", "Date")

	got, err := reg.ResolveTypeName(Named("time.Time"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Date" {
		t.Errorf("got %q, want %q", got, "Date")
	}

	// Overrides are per registry.
	got, _ = NewRegistry().ResolveTypeName(Named("time.Time"))
	if got != "string" {
		t.Errorf("fresh registry resolved time.Time to %q", got)
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if _, err := reg.ResolveTypeName(Named("string")); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
