package tsbind

import (
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// ConfigFile is the file name the CLI looks for in the package directory.
const ConfigFile = "tsbind.toml"

// Config is the optional project configuration, read from tsbind.toml:
//
//	out = "../web/src/bindings"
//	invoke_module = "@tauri-apps/api/core"
//
//	[types]
//	"github.com/google/uuid.UUID" = "string"
//	"example.com/app/api.Tags" = "string[]"
type Config struct {
	// Out is the default output directory for entities without a directory argument.
	Out string `toml:"out"`

	// Header replaces the generated-file warning comment.
	Header string `toml:"header" validate:"omitempty,startswith=//"`

	// InvokeModule is the module the invoke primitive is imported from.
	InvokeModule string `toml:"invoke_module"`

	// Types maps Go type names to TypeScript type expressions.
	Types map[string]string `toml:"types" validate:"dive,keys,required,endkeys,required"`
}

// LoadConfig reads and validates a tsbind.toml file.
// Unknown keys are rejected so typos do not silently change output.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, errors.Newf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return &cfg, nil
}

// LoadConfigIfExists is like LoadConfig but returns an empty Config when
// path does not exist.
func LoadConfigIfExists(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return LoadConfig(path)
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(ConfigFile, err)
	}
	return nil
}

// Apply registers the configured type mappings in reg and configures g.
func (c *Config) Apply(reg *Registry, g *Generator) {
	keys := make([]string, 0, len(c.Types))
	for k := range c.Types {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		reg.Register(k, c.Types[k])
	}
	if c.Out != "" {
		g.WithDefaultDir(c.Out)
	}
	if c.Header != "" {
		g.WithHeader(c.Header)
	}
	if c.InvokeModule != "" {
		g.WithInvokeModule(c.InvokeModule)
	}
}
