package tsbind

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"
)

// StructureEmitter renders the declaration of an exported structure: an
// interface for compile-time checks and a companion Shape constant that
// documents the serialized shape at runtime.
type StructureEmitter struct {
	Registry *Registry
	Header   string // defaults to DefaultHeader
}

// Render returns the content of the declaration file for sd written into dir.
func (e *StructureEmitter) Render(sd StructDescriptor, dir string) ([]byte, error) {
	if err := validate.Struct(sd); err != nil {
		return nil, validationError(sd.Name, err)
	}

	type property struct {
		name     string
		typ      string
		optional bool
	}

	imports := newTypeImports(dir, sd.Name)
	props := make([]property, 0, len(sd.Fields))
	seen := make(map[string]string, len(sd.Fields))
	for _, f := range sd.Fields {
		member := "field " + f.Name
		ts, entity, err := e.Registry.resolve(f.Type)
		if err != nil {
			return nil, inContext(err, sd.Name, member)
		}
		if err := imports.add(entity); err != nil {
			return nil, inContext(err, sd.Name, member)
		}

		name := f.PropertyName()
		if other, ok := seen[name]; ok {
			return nil, errors.Newf("%s: fields %s and %s both serialize as %q", sd.Name, other, f.Name, name)
		}
		seen[name] = f.Name

		if needsQuoting(name) {
			name = fmt.Sprintf("%q", name)
		}
		props = append(props, property{name: name, typ: ts, optional: f.Optional})
	}

	var buf bytes.Buffer
	buf.WriteString(orDefault(e.Header, DefaultHeader))
	buf.WriteString("\n")
	for _, line := range imports.lines() {
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	if len(props) == 0 {
		fmt.Fprintf(&buf, "export interface %s {}\n\nexport const %sShape = {} as const;\n", sd.Name, sd.Name)
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "export interface %s {\n", sd.Name)
	for _, p := range props {
		buf.WriteString("  ")
		buf.WriteString(p.name)
		if p.optional {
			buf.WriteString("?")
		}
		buf.WriteString(": ")
		buf.WriteString(p.typ)
		buf.WriteString(";\n")
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(&buf, "export const %sShape = {\n", sd.Name)
	for _, p := range props {
		fmt.Fprintf(&buf, "  %s: %q,\n", p.name, p.typ)
	}
	buf.WriteString("} as const;\n")

	return buf.Bytes(), nil
}
