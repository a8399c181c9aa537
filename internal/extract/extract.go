// Package extract loads a Go package and turns its tsbind directives into
// binding descriptors.
package extract

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"

	"github.com/broady/tsbind"
	"github.com/broady/tsbind/internal/directive"
)

// Result contains the descriptors found in one package.
type Result struct {
	Functions  []tsbind.FunctionDescriptor
	Structures []tsbind.StructDescriptor

	// Entities lists every flagged structure. Dir holds the raw directory
	// argument; callers resolve it before registering.
	Entities []tsbind.Entity

	// Problems holds per-declaration rejections. A rejected declaration is
	// absent from Functions and Structures; the rest are still usable.
	Problems []error

	PackagePath string
	Dir         string // directory containing the package
}

// Load scans the package matching pattern for tsbind directives.
//
// The pattern follows go command semantics:
//   - "." for current directory
//   - Import path like "github.com/foo/bar"
//   - Absolute or relative directory path
//
// dir is the working directory for the go command; empty means the current
// directory. Load fails only when the package itself cannot be loaded or a
// directive is malformed.
func Load(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "load package")
	}

	if len(pkgs) == 0 {
		return nil, errors.Newf("no packages found matching %q", pattern)
	}

	if len(pkgs) > 1 {
		return nil, errors.WithHint(
			errors.Newf("multiple packages found matching %q", pattern),
			"specify a single package")
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, errors.Newf("package errors: %v", pkg.Errors[0])
	}

	result := &Result{
		PackagePath: pkg.PkgPath,
	}

	if len(pkg.GoFiles) > 0 {
		result.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	x := &extractor{pkg: pkg, result: result}
	for _, f := range pkg.Syntax {
		directives, err := directive.ParseFile(pkg.Fset, f)
		if err != nil {
			return nil, err
		}
		for _, d := range directives {
			switch d.Kind {
			case directive.KindCommand:
				x.function(d)
			case directive.KindEntity:
				x.structure(d)
			}
		}
	}

	return result, nil
}

type extractor struct {
	pkg    *packages.Package
	result *Result
}

func (x *extractor) reject(pos token.Pos, err error) {
	x.result.Problems = append(x.result.Problems,
		errors.Wrapf(err, "%s", x.pkg.Fset.Position(pos)))
}

func (x *extractor) function(d directive.Directive) {
	fn := d.Func
	name := fn.Name.Name

	if fn.Recv != nil {
		x.reject(fn.Pos(), tsbind.NewUnsupportedShape(name, "", receiverExpr(fn), tsbind.ShapeMethod))
		return
	}
	if fn.Type.TypeParams != nil && fn.Type.TypeParams.NumFields() > 0 {
		x.reject(fn.Pos(), tsbind.NewUnsupportedShape(name, "", typeParamsExpr(fn.Type.TypeParams), tsbind.ShapeTypeParams))
		return
	}

	skip := make(map[string]bool, len(d.Options.Skip))
	for _, s := range d.Options.Skip {
		skip[s] = true
	}

	fd := tsbind.FunctionDescriptor{
		Name: name,
		Dir:  d.Options.Dir,
		Pos:  x.pkg.Fset.Position(fn.Pos()),
	}
	for _, field := range fn.Type.Params.List {
		ref := x.typeRef(field.Type)
		if len(field.Names) == 0 {
			fd.Parameters = append(fd.Parameters, tsbind.Parameter{Type: ref})
			continue
		}
		for _, ident := range field.Names {
			if skip[ident.Name] {
				delete(skip, ident.Name)
				continue
			}
			fd.Parameters = append(fd.Parameters, tsbind.Parameter{Name: ident.Name, Type: ref})
		}
	}

	if len(skip) > 0 {
		for _, s := range d.Options.Skip {
			if skip[s] {
				x.reject(fn.Pos(), errors.WithHint(
					errors.Newf("%s: skip=%s matches no parameter", name, s),
					"skip names a parameter the runtime injects, such as a context"))
				return
			}
		}
	}

	x.result.Functions = append(x.result.Functions, fd)
}

func (x *extractor) structure(d directive.Directive) {
	ts := d.Type
	name := ts.Name.Name

	if ts.TypeParams != nil && ts.TypeParams.NumFields() > 0 {
		x.reject(ts.Pos(), tsbind.NewUnsupportedShape(name, "", typeParamsExpr(ts.TypeParams), tsbind.ShapeTypeParams))
		return
	}

	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		x.reject(ts.Pos(), errors.WithHint(
			errors.Newf("%s: %s is not a struct type", name, types.ExprString(ts.Type)),
			"//tsbind:entity applies to struct declarations; map other types in the [types] table of tsbind.toml"))
		return
	}

	sd := tsbind.StructDescriptor{
		Name: name,
		Dir:  d.Options.Dir,
		Pos:  x.pkg.Fset.Position(ts.Pos()),
	}
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			x.reject(field.Pos(), tsbind.NewUnsupportedShape(name, "", types.ExprString(field.Type), tsbind.ShapeEmbedded))
			return
		}

		jsonName, optional, omit := jsonTag(field.Tag)
		if omit {
			continue
		}
		ref := x.typeRef(field.Type)
		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}
			sd.Fields = append(sd.Fields, tsbind.Field{
				Name:     ident.Name,
				JSONName: jsonName,
				Optional: optional,
				Type:     ref,
			})
		}
	}

	x.result.Structures = append(x.result.Structures, sd)
	x.result.Entities = append(x.result.Entities, tsbind.Entity{
		GoType: x.pkg.PkgPath + "." + name,
		Name:   name,
		Dir:    d.Options.Dir,
	})
}

// typeRef classifies a type expression. Only plain and package-qualified
// identifiers are ShapeNamed; their Name is the registry key.
func (x *extractor) typeRef(expr ast.Expr) tsbind.TypeRef {
	ref := tsbind.TypeRef{Expr: types.ExprString(expr)}

	switch e := expr.(type) {
	case *ast.ParenExpr:
		return x.typeRef(e.X)
	case *ast.Ident:
		ref.Shape = tsbind.ShapeNamed
		ref.Name = x.qualifiedName(e)
	case *ast.SelectorExpr:
		ref.Shape = tsbind.ShapeNamed
		ref.Name = x.qualifiedName(e.Sel)
	case *ast.StarExpr:
		ref.Shape = tsbind.ShapePointer
	case *ast.IndexExpr, *ast.IndexListExpr:
		ref.Shape = tsbind.ShapeGeneric
	case *ast.ArrayType:
		if e.Len == nil {
			ref.Shape = tsbind.ShapeSlice
		} else {
			ref.Shape = tsbind.ShapeArray
		}
	case *ast.MapType:
		ref.Shape = tsbind.ShapeMap
	case *ast.FuncType:
		ref.Shape = tsbind.ShapeFunc
	case *ast.ChanType:
		ref.Shape = tsbind.ShapeChan
	case *ast.Ellipsis:
		ref.Shape = tsbind.ShapeVariadic
	default:
		ref.Shape = tsbind.ShapeAnonymous
	}
	return ref
}

// qualifiedName returns the registry key for an identifier naming a type:
// the bare name for universe types, importpath.Name otherwise. Aliases of
// universe and named types resolve to their target.
func (x *extractor) qualifiedName(ident *ast.Ident) string {
	tn, ok := x.pkg.TypesInfo.Uses[ident].(*types.TypeName)
	if !ok {
		return ident.Name
	}
	if tn.IsAlias() {
		switch t := types.Unalias(tn.Type()).(type) {
		case *types.Basic:
			return t.Name()
		case *types.Named:
			tn = t.Obj()
		}
	}
	if tn.Pkg() == nil {
		return tn.Name()
	}
	return tn.Pkg().Path() + "." + tn.Name()
}

// jsonTag reads the json struct tag the way encoding/json does.
func jsonTag(lit *ast.BasicLit) (name string, optional, omit bool) {
	if lit == nil {
		return "", false, false
	}
	raw, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false, false
	}
	tag, ok := reflect.StructTag(raw).Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" || o == "omitzero" {
			optional = true
		}
	}
	return name, optional, false
}

func receiverExpr(fn *ast.FuncDecl) string {
	recv := fn.Recv.List[0]
	return fmt.Sprintf("(%s) %s", types.ExprString(recv.Type), fn.Name.Name)
}

func typeParamsExpr(list *ast.FieldList) string {
	var parts []string
	for _, f := range list.List {
		var names []string
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+types.ExprString(f.Type))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
