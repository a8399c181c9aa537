// Package tsbind generates TypeScript bindings for Go backend commands.
//
// A binding run turns plain descriptors of exported functions and structures
// into one TypeScript file per entity:
//
//	reg := tsbind.NewRegistry()
//	gen := tsbind.New(reg).WithDefaultDir("./src-gen")
//	path, err := gen.EmitFunction(ctx, tsbind.FunctionDescriptor{
//	    Name: "greet",
//	    Parameters: []tsbind.Parameter{
//	        {Name: "name", Type: tsbind.Named("string")},
//	    },
//	})
//
// writes ./src-gen/greet.ts containing an async wrapper that calls
// invoke('greet', { name }).
//
// Only simple owned types are supported: every parameter and field type must
// be a plain named type that the Registry maps to a TypeScript name.
// Pointers, generics, slices, maps and other composite forms are rejected
// with an *UnsupportedShapeError. Declare a named type and map it in the
// Registry to bind such values.
package tsbind
