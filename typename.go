package tsbind

import (
	"maps"
	"sync"

	"github.com/cockroachdb/errors"
)

// builtinTypes maps universe and standard library types to their TypeScript
// equivalent under encoding/json.
var builtinTypes = map[string]string{
	"bool":    "boolean",
	"string":  "string",
	"int":     "number",
	"int8":    "number",
	"int16":   "number",
	"int32":   "number",
	"int64":   "number",
	"uint":    "number",
	"uint8":   "number",
	"uint16":  "number",
	"uint32":  "number",
	"uint64":  "number",
	"uintptr": "number",
	"byte":    "number",
	"rune":    "number",
	"float32": "number",
	"float64": "number",
	"any":     "unknown",

	"time.Time":                "string", // RFC 3339
	"time.Duration":            "number", // nanoseconds
	"encoding/json.RawMessage": "unknown",
	"encoding/json.Number":     "number",
}

// Entity is an exported structure known to the Registry.
// Bindings that mention it import its declaration from Dir.
type Entity struct {
	GoType string // registry key, e.g. "example.com/app/api.User"
	Name   string // TypeScript declaration name
	Dir    string // resolved output directory
}

// Registry is the lookup table from Go type names to TypeScript names.
//
// It is populated once at startup (built-ins, configured mappings, then the
// extracted entities) and queried concurrently by emitters afterwards.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]string
	entities map[string]Entity
}

// NewRegistry returns a Registry holding the built-in mappings.
func NewRegistry() *Registry {
	return &Registry{
		types:    maps.Clone(builtinTypes),
		entities: make(map[string]Entity),
	}
}

// Register maps goType to the TypeScript type expression tsType,
// replacing any earlier mapping.
func (r *Registry) Register(goType, tsType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[goType] = tsType
}

// RegisterEntity maps an exported structure to its generated declaration.
func (r *Registry) RegisterEntity(e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[e.GoType] = e.Name
	r.entities[e.GoType] = e
}

// ResolveTypeName returns the TypeScript name for ref.
// It fails with *UnsupportedShapeError when ref is not a plain named type and
// with *UnresolvableTypeError when the type has no mapping.
func (r *Registry) ResolveTypeName(ref TypeRef) (string, error) {
	name, _, err := r.resolve(ref)
	return name, err
}

func (r *Registry) resolve(ref TypeRef) (string, *Entity, error) {
	if ref.Shape != ShapeNamed {
		return "", nil, NewUnsupportedShape("", "", ref.String(), ref.Shape)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ts, ok := r.types[ref.Name]
	if !ok {
		return "", nil, errors.WithHintf(&UnresolvableTypeError{Type: ref.String()},
			"map %s in the [types] table of tsbind.toml or flag it with //tsbind:entity", ref.Name)
	}
	if e, ok := r.entities[ref.Name]; ok {
		return ts, &e, nil
	}
	return ts, nil, nil
}
