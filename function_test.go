package tsbind

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func renderFunction(t *testing.T, reg *Registry, fd FunctionDescriptor, dir string) string {
	t.Helper()
	fe := &FunctionEmitter{Registry: reg}
	got, err := fe.Render(fd, dir)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return string(got)
}

func TestFunctionEmitter_Render(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		fd   FunctionDescriptor
		want string
	}{
		{
			name: "single parameter",
			fd: FunctionDescriptor{
				Name:       "greet",
				Parameters: []Parameter{{Name: "name", Type: Named("string")}},
			},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function greet(name: string) { return await invoke('greet', { name }); }
`,
		},
		{
			name: "declaration order kept",
			fd: FunctionDescriptor{
				Name: "add",
				Parameters: []Parameter{
					{Name: "a", Type: Named("int")},
					{Name: "b", Type: Named("float64")},
				},
			},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function add(a: number, b: number) { return await invoke('add', { a, b }); }
`,
		},
		{
			name: "zero parameters",
			fd:   FunctionDescriptor{Name: "ping"},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function ping() { return await invoke('ping', {}); }
`,
		},
		{
			name: "reserved word parameter keeps payload key",
			fd: FunctionDescriptor{
				Name: "remove",
				Parameters: []Parameter{
					{Name: "id", Type: Named("int64")},
					{Name: "delete", Type: Named("bool")},
				},
			},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function remove(id: number, delete_: boolean) { return await invoke('remove', { id, delete: delete_ }); }
`,
		},
		{
			name: "parameter named invoke is renamed",
			fd: FunctionDescriptor{
				Name:       "call",
				Parameters: []Parameter{{Name: "invoke", Type: Named("string")}},
			},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function call(invoke_: string) { return await invoke('call', { invoke: invoke_ }); }
`,
		},
		{
			name: "renamed parameter skips names already declared",
			fd: FunctionDescriptor{
				Name: "style",
				Parameters: []Parameter{
					{Name: "class", Type: Named("string")},
					{Name: "class_", Type: Named("string")},
					{Name: "class__", Type: Named("string")},
				},
			},
			want: `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"

export async function style(class___: string, class_: string, class__: string) { return await invoke('style', { class: class___, class_, class__ }); }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderFunction(t, reg, tt.fd, DefaultDir); got != tt.want {
				t.Errorf("Render() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestFunctionEmitter_Deterministic(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEntity(Entity{GoType: "app.User", Name: "User", Dir: "../src-gen"})
	reg.RegisterEntity(Entity{GoType: "app.Address", Name: "Address", Dir: "../src-gen"})
	fd := FunctionDescriptor{
		Name: "save",
		Parameters: []Parameter{
			{Name: "user", Type: Named("app.User")},
			{Name: "home", Type: Named("app.Address")},
			{Name: "at", Type: Named("time.Time")},
		},
	}

	first := renderFunction(t, reg, fd, "../src-gen")
	for range 20 {
		if got := renderFunction(t, reg, fd, "../src-gen"); got != first {
			t.Fatalf("Render() not deterministic:\n%s\nvs\n%s", got, first)
		}
	}
}

func TestFunctionEmitter_EntityImports(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEntity(Entity{GoType: "app.User", Name: "User", Dir: "../src-gen"})
	reg.RegisterEntity(Entity{GoType: "app.Address", Name: "Address", Dir: "../src-gen/models"})

	fd := FunctionDescriptor{
		Name: "save",
		Parameters: []Parameter{
			{Name: "user", Type: Named("app.User")},
			{Name: "home", Type: Named("app.Address")},
			{Name: "again", Type: Named("app.User")},
		},
	}

	want := `// This file was generated by tsbind. Do not edit this file manually.
import { invoke } from "@tauri-apps/api/tauri"
import type { Address } from "./models/Address"
import type { User } from "./User"

export async function save(user: User, home: Address, again: User) { return await invoke('save', { user, home, again }); }
`
	if got := renderFunction(t, reg, fd, "../src-gen"); got != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", got, want)
	}
}

func TestFunctionEmitter_CustomHeaderAndModule(t *testing.T) {
	fe := &FunctionEmitter{
		Registry:     NewRegistry(),
		Header:       "// generated, do not edit",
		InvokeModule: "@tauri-apps/api/core",
	}
	got, err := fe.Render(FunctionDescriptor{Name: "ping"}, "out")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "// generated, do not edit\nimport { invoke } from \"@tauri-apps/api/core\"\n\n") {
		t.Errorf("Render() =\n%s", got)
	}
}

func TestFunctionEmitter_Errors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name      string
		fd        FunctionDescriptor
		wantShape Shape // checked when wantType is empty and wantMsg is empty
		wantType  string
		wantMsg   string
	}{
		{
			name: "pointer parameter",
			fd: FunctionDescriptor{Name: "greet", Parameters: []Parameter{
				{Name: "name", Type: TypeRef{Name: "string", Shape: ShapePointer, Expr: "*string"}},
			}},
			wantShape: ShapePointer,
		},
		{
			name: "slice parameter",
			fd: FunctionDescriptor{Name: "tag", Parameters: []Parameter{
				{Name: "tags", Type: TypeRef{Shape: ShapeSlice, Expr: "[]string"}},
			}},
			wantShape: ShapeSlice,
		},
		{
			name: "blank parameter",
			fd: FunctionDescriptor{Name: "greet", Parameters: []Parameter{
				{Name: "_", Type: Named("string")},
			}},
			wantShape: ShapePattern,
		},
		{
			name: "unnamed parameter",
			fd: FunctionDescriptor{Name: "greet", Parameters: []Parameter{
				{Type: Named("string")},
			}},
			wantShape: ShapePattern,
		},
		{
			name: "unmapped type",
			fd: FunctionDescriptor{Name: "login", Parameters: []Parameter{
				{Name: "secret", Type: Named("app.Secret")},
			}},
			wantType: "app.Secret",
		},
		{
			name: "duplicate parameter names",
			fd: FunctionDescriptor{Name: "add", Parameters: []Parameter{
				{Name: "a", Type: Named("int")},
				{Name: "a", Type: Named("int")},
			}},
			wantMsg: "name must be unique",
		},
		{
			name:    "missing name",
			fd:      FunctionDescriptor{},
			wantMsg: "Name: required",
		},
		{
			name:    "reserved function name",
			fd:      FunctionDescriptor{Name: "delete"},
			wantMsg: "not a valid TypeScript identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &FunctionEmitter{Registry: reg}
			got, err := fe.Render(tt.fd, DefaultDir)
			if err == nil {
				t.Fatalf("Render() = %s, want error", got)
			}
			if got != nil {
				t.Errorf("Render() returned content alongside error")
			}

			switch {
			case tt.wantMsg != "":
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("error = %v, want containing %q", err, tt.wantMsg)
				}
			case tt.wantType != "":
				var typeErr *UnresolvableTypeError
				if !errors.As(err, &typeErr) {
					t.Fatalf("error = %v, want *UnresolvableTypeError", err)
				}
				if typeErr.Entity != tt.fd.Name || typeErr.Type != tt.wantType {
					t.Errorf("error = %+v", typeErr)
				}
			default:
				var shapeErr *UnsupportedShapeError
				if !errors.As(err, &shapeErr) {
					t.Fatalf("error = %v, want *UnsupportedShapeError", err)
				}
				if shapeErr.Shape != tt.wantShape || shapeErr.Entity != tt.fd.Name {
					t.Errorf("error = %+v, want shape %s on %s", shapeErr, tt.wantShape, tt.fd.Name)
				}
				if !strings.HasPrefix(err.Error(), tt.fd.Name+": parameter ") {
					t.Errorf("error %q does not name the entity and parameter", err)
				}
			}
		})
	}
}

func TestImportSpecifier(t *testing.T) {
	tests := []struct {
		from, to, name string
		want           string
	}{
		{"../src-gen", "../src-gen", "User", "./User"},
		{"../src-gen", "../src-gen/models", "User", "./models/User"},
		{"../src-gen/api", "../src-gen", "User", "../User"},
		{"./custom", "../src-gen", "User", "../../src-gen/User"},
		{"/app/src-gen", "/app/models", "User", "../models/User"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := importSpecifier(tt.from, tt.to, tt.name); got != tt.want {
				t.Errorf("importSpecifier(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
