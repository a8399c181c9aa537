package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/tsbind/sink"
)

const appSource = `package app

import "context"

//tsbind:entity
type User struct {
	ID   string ` + "`json:\"id\"`" + `
	Name string ` + "`json:\"name,omitempty\"`" + `
}

type Tags []string

//tsbind:command skip=ctx
func getUser(ctx context.Context, id string) User { return User{} }

//tsbind:command ./custom
func add(a, b int) int { return a + b }

//tsbind:command
func tag(t Tags) {}
`

// writeApp lays out root/src-tauri as a module and returns root.
func writeApp(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("GOWORK", "off")

	root := t.TempDir()
	pkg := filepath.Join(root, "src-tauri")
	require.NoError(t, os.MkdirAll(pkg, 0o755))

	files["go.mod"] = "module example.com/app\n\ngo 1.22\n"
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(pkg, name), []byte(content), 0o644))
	}
	return root
}

func key(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}

func TestExec(t *testing.T) {
	root := writeApp(t, map[string]string{"api.go": appSource})
	mem := sink.NewMemorySink()

	result, err := Exec(context.Background(), Options{
		WorkDir: filepath.Join(root, "src-tauri"),
		Sink:    mem.Open,
	})
	require.NoError(t, err)

	assert.Equal(t, "example.com/app", result.PackagePath)
	assert.Empty(t, result.Problems)

	// tag has no mapping for Tags.
	assert.Equal(t, 1, result.Failures())
	failed := result.Report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "tag", failed[0].Name)
	assert.Contains(t, failed[0].Err.Error(), "type Tags has no TypeScript equivalent")
	require.Error(t, result.Err())

	gen := filepath.Join(result.Dir, "..", "src-gen")
	files := mem.Files()
	assert.Len(t, files, 3)

	user := string(mem.Get(key(gen, "User.ts")))
	assert.Contains(t, user, "export interface User {\n  id: string;\n  name?: string;\n}")

	getUser := string(mem.Get(key(gen, "getUser.ts")))
	assert.Contains(t, getUser, `import type { User } from "./User"`)
	assert.Contains(t, getUser, "export async function getUser(id: string) { return await invoke('getUser', { id }); }")

	add := string(mem.Get(key(result.Dir, "custom", "add.ts")))
	assert.Contains(t, add, "export async function add(a: number, b: number) { return await invoke('add', { a, b }); }")
}

func TestExecConfig(t *testing.T) {
	root := writeApp(t, map[string]string{
		"api.go": appSource,
		"tsbind.toml": `out = "../web/bindings"
invoke_module = "@tauri-apps/api/core"

[types]
"example.com/app.Tags" = "string[]"
`,
	})
	mem := sink.NewMemorySink()

	result, err := Exec(context.Background(), Options{
		WorkDir: filepath.Join(root, "src-tauri"),
		Sink:    mem.Open,
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	out := filepath.Join(result.Dir, "..", "web", "bindings")
	tag := string(mem.Get(key(out, "tag.ts")))
	assert.Contains(t, tag, `import { invoke } from "@tauri-apps/api/core"`)
	assert.Contains(t, tag, "export async function tag(t: string[])")
	assert.NotNil(t, mem.Get(key(out, "User.ts")))
}

func TestExecOutOverridesConfig(t *testing.T) {
	root := writeApp(t, map[string]string{
		"api.go":      appSource,
		"tsbind.toml": "out = \"../web/bindings\"\n\n[types]\n\"example.com/app.Tags\" = \"string[]\"\n",
	})
	mem := sink.NewMemorySink()
	out := filepath.Join(root, "elsewhere")

	result, err := Exec(context.Background(), Options{
		WorkDir: filepath.Join(root, "src-tauri"),
		Out:     out,
		Sink:    mem.Open,
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.NotNil(t, mem.Get(key(out, "getUser.ts")))
	assert.Nil(t, mem.Get(key(result.Dir, "..", "web", "bindings", "getUser.ts")))
}

func TestExecWritesFilesystem(t *testing.T) {
	root := writeApp(t, map[string]string{
		"api.go":      appSource,
		"tsbind.toml": "[types]\n\"example.com/app.Tags\" = \"string[]\"\n",
	})

	result, err := Exec(context.Background(), Options{WorkDir: filepath.Join(root, "src-tauri")})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	for _, name := range []string{"User.ts", "getUser.ts", "tag.ts"} {
		assert.FileExists(t, filepath.Join(root, "src-gen", name))
	}
	assert.FileExists(t, filepath.Join(root, "src-tauri", "custom", "add.ts"))
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		config  string
		wantErr string
	}{
		{
			name: "unknown config key",
			files: map[string]string{
				"api.go":      appSource,
				"tsbind.toml": "output = \"x\"\n",
			},
			wantErr: "unknown keys: output",
		},
		{
			name:    "explicit config missing",
			files:   map[string]string{"api.go": appSource},
			config:  "missing.toml",
			wantErr: "missing.toml",
		},
		{
			name:    "broken package",
			files:   map[string]string{"api.go": "package app\n\nfunc f() { nope() }\n"},
			wantErr: "extract",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeApp(t, tt.files)
			opts := Options{
				WorkDir: filepath.Join(root, "src-tauri"),
				Sink:    sink.NewMemorySink().Open,
			}
			if tt.config != "" {
				opts.Config = filepath.Join(root, tt.config)
			}
			_, err := Exec(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResultProblems(t *testing.T) {
	root := writeApp(t, map[string]string{
		"api.go": `package app

type S struct{}

//tsbind:command
func (S) Method() {}

//tsbind:command
func ok() {}
`,
	})
	mem := sink.NewMemorySink()

	result, err := Exec(context.Background(), Options{
		WorkDir: filepath.Join(root, "src-tauri"),
		Sink:    mem.Open,
	})
	require.NoError(t, err)

	assert.Len(t, result.Problems, 1)
	assert.Equal(t, 1, result.Failures())
	assert.Len(t, mem.Files(), 1, "valid commands are still generated")
	assert.ErrorContains(t, result.Err(), "unsupported method")
}

func TestWriteFailures(t *testing.T) {
	root := writeApp(t, map[string]string{"api.go": appSource})

	result, err := Exec(context.Background(), Options{
		WorkDir: filepath.Join(root, "src-tauri"),
		Sink:    sink.NewMemorySink().Open,
	})
	require.NoError(t, err)

	var buf strings.Builder
	WriteFailures(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "✗ ")
	assert.Contains(t, out, "example.com/app.Tags")
	assert.Contains(t, out, "    hint: map example.com/app.Tags in the [types] table of tsbind.toml")
}
