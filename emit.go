package tsbind

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultHeader marks every generated file so it is not edited by hand.
	DefaultHeader = "// This file was generated by tsbind. Do not edit this file manually."

	// DefaultInvokeModule provides the invoke primitive bindings call.
	DefaultInvokeModule = "@tauri-apps/api/tauri"
)

// fileName returns the file an entity's binding is written to.
func fileName(entity string) string {
	return entity + ".ts"
}

// typeImports collects the entity declarations a binding in dir refers to.
type typeImports struct {
	dir   string
	self  string
	specs map[string]string // TypeScript name -> module specifier
}

func newTypeImports(dir, self string) *typeImports {
	return &typeImports{dir: dir, self: self, specs: make(map[string]string)}
}

func (ti *typeImports) add(e *Entity) error {
	if e == nil || e.Name == ti.self {
		return nil
	}
	spec := importSpecifier(ti.dir, e.Dir, e.Name)
	if prev, ok := ti.specs[e.Name]; ok && prev != spec {
		return errors.Newf("type %s is imported from both %q and %q", e.Name, prev, spec)
	}
	ti.specs[e.Name] = spec
	return nil
}

// lines returns one import per referenced entity, sorted by name.
func (ti *typeImports) lines() []string {
	names := make([]string, 0, len(ti.specs))
	for name := range ti.specs {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, "import type { "+name+" } from \""+ti.specs[name]+"\"")
	}
	return out
}

// importSpecifier returns the relative module path from a file in fromDir
// to the declaration of name in toDir.
func importSpecifier(fromDir, toDir, name string) string {
	rel, err := filepath.Rel(fromDir, toDir)
	if err != nil {
		// Mixed absolute and relative directories.
		absFrom, errFrom := filepath.Abs(fromDir)
		absTo, errTo := filepath.Abs(toDir)
		if errFrom != nil || errTo != nil {
			rel = toDir
		} else if rel, err = filepath.Rel(absFrom, absTo); err != nil {
			rel = toDir
		}
	}
	spec := path.Join(filepath.ToSlash(rel), name)
	if !strings.HasPrefix(spec, "../") && !strings.HasPrefix(spec, "/") {
		spec = "./" + spec
	}
	return spec
}
