package tsbind

import (
	"bytes"
	"fmt"
	"strings"
)

// FunctionEmitter renders the invoke wrapper for an exported function.
type FunctionEmitter struct {
	Registry     *Registry
	Header       string // defaults to DefaultHeader
	InvokeModule string // defaults to DefaultInvokeModule
}

// Render returns the content of the binding file for fd written into dir.
// Parameter order is kept exactly as declared, so identical input always
// renders identical bytes.
func (e *FunctionEmitter) Render(fd FunctionDescriptor, dir string) ([]byte, error) {
	for i, p := range fd.Parameters {
		if p.Name == "" || p.Name == "_" {
			expr := strings.TrimSpace(p.Name + " " + p.Type.String())
			return nil, NewUnsupportedShape(fd.Name, fmt.Sprintf("parameter %d", i+1), expr, ShapePattern)
		}
	}
	if err := validate.Struct(fd); err != nil {
		return nil, validationError(fd.Name, err)
	}

	imports := newTypeImports(dir, "")
	params := make([]string, 0, len(fd.Parameters))
	args := make([]string, 0, len(fd.Parameters))
	locals := localNames(fd.Parameters)
	for i, p := range fd.Parameters {
		member := "parameter " + p.Name
		ts, entity, err := e.Registry.resolve(p.Type)
		if err != nil {
			return nil, inContext(err, fd.Name, member)
		}
		if err := imports.add(entity); err != nil {
			return nil, inContext(err, fd.Name, member)
		}

		// The payload key stays the Go name even when the local binding
		// has to be renamed.
		local := locals[i]
		params = append(params, local+": "+ts)
		if local == p.Name {
			args = append(args, p.Name)
		} else {
			args = append(args, p.Name+": "+local)
		}
	}

	argObject := "{}"
	if len(args) > 0 {
		argObject = "{ " + strings.Join(args, ", ") + " }"
	}

	var buf bytes.Buffer
	buf.WriteString(orDefault(e.Header, DefaultHeader))
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "import { invoke } from %q\n", orDefault(e.InvokeModule, DefaultInvokeModule))
	for _, line := range imports.lines() {
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "export async function %s(%s) { return await invoke('%s', %s); }\n",
		fd.Name, strings.Join(params, ", "), fd.Name, argObject)

	return buf.Bytes(), nil
}

// localNames returns the name each parameter is bound to inside the wrapper.
// Reserved words and the imported invoke get trailing underscores until the
// name is not taken by any other parameter.
func localNames(params []Parameter) []string {
	taken := make(map[string]bool, len(params))
	for _, p := range params {
		taken[p.Name] = true
	}
	names := make([]string, len(params))
	for i, p := range params {
		name := p.Name
		if reservedWords[name] || name == "invoke" {
			name += "_"
			for taken[name] {
				name += "_"
			}
			taken[name] = true
		}
		names[i] = name
	}
	return names
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
