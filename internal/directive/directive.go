// Package directive parses tsbind directives from Go source files.
//
// Directives are line comments directly above a declaration:
//
//	//tsbind:command [DIR] [dir=DIR] [skip=NAME]...
//	func greet(name string) string
//
//	//tsbind:entity [DIR]
//	type User struct { ... }
//
// The command directive marks a top-level function as a backend command.
// The entity directive marks a struct type whose declaration is exported.
// DIR overrides the output directory; it may be quoted. skip drops a
// parameter injected by the runtime (such as a context or app handle)
// from the generated binding.
package directive

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"net/url"
	"strings"
	"unicode"

	"github.com/gorilla/schema"
	"github.com/kballard/go-shellquote"
)

const prefix = "//tsbind:"

var decoder = schema.NewDecoder()

// Kind represents the type of directive.
type Kind string

const (
	KindCommand Kind = "command"
	KindEntity  Kind = "entity"
)

// Options are the arguments given to a directive.
type Options struct {
	Dir  string   `schema:"dir"`
	Skip []string `schema:"skip"`
}

// Directive is a parsed directive and the declaration it annotates.
type Directive struct {
	Kind    Kind
	Name    string // function or type name
	Options Options
	Pos     token.Position // position of the directive comment

	Func *ast.FuncDecl // set for KindCommand
	Type *ast.TypeSpec // set for KindEntity
}

type pending struct {
	kind Kind
	opts Options
	pos  token.Position
}

// ParseFile extracts directives from a single file parsed with comments.
//
// Returns an error if a directive is unknown, has malformed arguments, or is
// not immediately followed by a declaration of the matching kind.
func ParseFile(fset *token.FileSet, f *ast.File) ([]Directive, error) {
	// Directives are keyed by the end of their comment group so they can be
	// matched to the declaration the group documents.
	byGroupEnd := make(map[token.Pos]pending)

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, prefix) {
				continue
			}
			pos := fset.Position(c.Pos())

			name, args := splitDirective(strings.TrimPrefix(c.Text, prefix))
			kind := Kind(name)
			if kind != KindCommand && kind != KindEntity {
				return nil, fmt.Errorf("%s: unknown directive %s%s", pos, prefix, name)
			}

			if _, dup := byGroupEnd[cg.End()]; dup {
				return nil, fmt.Errorf("%s: multiple tsbind directives on one declaration", pos)
			}

			opts, err := parseOptions(kind, args)
			if err != nil {
				return nil, fmt.Errorf("%s: %s%s: %w", pos, prefix, kind, err)
			}
			byGroupEnd[cg.End()] = pending{kind: kind, opts: opts, pos: pos}
		}
	}

	take := func(doc *ast.CommentGroup) (pending, bool) {
		if doc == nil {
			return pending{}, false
		}
		p, ok := byGroupEnd[doc.End()]
		if ok {
			delete(byGroupEnd, doc.End())
		}
		return p, ok
	}

	var directives []Directive
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			p, ok := take(d.Doc)
			if !ok {
				continue
			}
			if p.kind != KindCommand {
				return nil, fmt.Errorf("%s: %s%s must be followed by a type declaration", p.pos, prefix, p.kind)
			}
			directives = append(directives, Directive{
				Kind: p.kind, Name: d.Name.Name, Options: p.opts, Pos: p.pos, Func: d,
			})

		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			// A directive documents either a single-spec type declaration
			// or one spec inside a grouped type ( ... ) block.
			if p, ok := take(d.Doc); ok {
				if len(d.Specs) != 1 {
					return nil, fmt.Errorf("%s: %s%s on a grouped type declaration; annotate each type", p.pos, prefix, p.kind)
				}
				dir, err := typeDirective(p, d.Specs[0].(*ast.TypeSpec))
				if err != nil {
					return nil, err
				}
				directives = append(directives, dir)
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				if p, ok := take(ts.Doc); ok {
					dir, err := typeDirective(p, ts)
					if err != nil {
						return nil, err
					}
					directives = append(directives, dir)
				}
			}
		}
	}

	for _, p := range byGroupEnd {
		return nil, fmt.Errorf("%s: %s%s directive must be followed by a declaration", p.pos, prefix, p.kind)
	}

	return directives, nil
}

func typeDirective(p pending, ts *ast.TypeSpec) (Directive, error) {
	if p.kind != KindEntity {
		return Directive{}, fmt.Errorf("%s: %s%s must be followed by a function declaration", p.pos, prefix, p.kind)
	}
	return Directive{Kind: p.kind, Name: ts.Name.Name, Options: p.opts, Pos: p.pos, Type: ts}, nil
}

// splitDirective separates the directive name from its arguments at the
// first whitespace character.
func splitDirective(text string) (name, args string) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], text[i:]
}

// parseOptions splits directive arguments shell-style. A leading bare word is
// the directory argument; everything else must be key=value.
func parseOptions(kind Kind, args string) (Options, error) {
	var opts Options

	words, err := shellquote.Split(args)
	if err != nil {
		return opts, fmt.Errorf("malformed arguments: %w", err)
	}

	values := url.Values{}
	for i, w := range words {
		key, value, ok := strings.Cut(w, "=")
		if !ok {
			if i != 0 {
				return opts, fmt.Errorf("unexpected argument %q; only the directory may be given without a key", w)
			}
			values.Set("dir", w)
			continue
		}
		if key == "dir" && values.Has("dir") {
			return opts, errors.New("directory given twice")
		}
		values.Add(key, value)
	}

	if kind == KindEntity && values.Has("skip") {
		return opts, fmt.Errorf("skip is only valid on %s%s", prefix, KindCommand)
	}
	if err := decoder.Decode(&opts, values); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}
