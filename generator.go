package tsbind

import (
	"context"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"

	"github.com/broady/tsbind/sink"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Generator resolves output directories, renders bindings and writes them.
// Create with New and configure with method chaining.
//
// Example:
//
//	report := tsbind.New(reg).
//	    WithDefaultDir("./src-gen").
//	    WithLogger(logger).
//	    Run(ctx, functions, structures)
//
// A Generator is safe for concurrent use once configured.
type Generator struct {
	reg          *Registry
	defaultDir   string
	baseDir      string
	open         sink.Opener
	logger       *slog.Logger
	header       string
	invokeModule string
	limit        int
}

// New creates a Generator resolving types through reg.
// A nil reg uses a Registry with the built-in mappings only.
func New(reg *Registry) *Generator {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Generator{
		reg:    reg,
		open:   sink.Filesystem,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		limit:  runtime.GOMAXPROCS(0),
	}
}

// WithDefaultDir sets the directory used by entities without a directory
// argument. Empty keeps DefaultDir.
func (g *Generator) WithDefaultDir(dir string) *Generator {
	g.defaultDir = dir
	return g
}

// WithBaseDir makes relative output directories relative to base instead of
// the working directory. The CLI passes the package directory.
func (g *Generator) WithBaseDir(base string) *Generator {
	g.baseDir = base
	return g
}

// WithSink sets how output directories are opened for writing.
// The default writes to the local filesystem.
func (g *Generator) WithSink(open sink.Opener) *Generator {
	g.open = open
	return g
}

// WithLogger sets the logger for progress messages. Nil discards them.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g.logger = logger
	return g
}

// WithHeader replaces the generated-file warning comment.
func (g *Generator) WithHeader(header string) *Generator {
	g.header = header
	return g
}

// WithInvokeModule replaces the module the invoke primitive is imported from.
func (g *Generator) WithInvokeModule(module string) *Generator {
	g.invokeModule = module
	return g
}

// WithConcurrency bounds how many entities Run emits at once.
// Values below 1 mean GOMAXPROCS.
func (g *Generator) WithConcurrency(n int) *Generator {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	g.limit = n
	return g
}

// Dir returns the output directory for a raw directory argument.
func (g *Generator) Dir(raw string) string {
	dir := ResolveDir(raw)
	if trimDirArg(raw) == "" && g.defaultDir != "" {
		dir = ResolveDir(g.defaultDir)
	}
	if g.baseDir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(g.baseDir, dir)
	}
	return dir
}

// EmitFunction writes the binding for fd and returns the path written.
// Nothing is written when rendering fails.
func (g *Generator) EmitFunction(ctx context.Context, fd FunctionDescriptor) (string, error) {
	dir := g.Dir(fd.Dir)
	fe := &FunctionEmitter{Registry: g.reg, Header: g.header, InvokeModule: g.invokeModule}
	content, err := fe.Render(fd, dir)
	if err != nil {
		return "", err
	}
	return g.write(ctx, fd.Name, dir, content)
}

// EmitStructure writes the declaration for sd and returns the path written.
// Nothing is written when rendering fails.
func (g *Generator) EmitStructure(ctx context.Context, sd StructDescriptor) (string, error) {
	dir, content, err := g.renderStructure(sd)
	if err != nil {
		return "", err
	}
	return g.write(ctx, sd.Name, dir, content)
}

func (g *Generator) renderStructure(sd StructDescriptor) (dir string, content []byte, err error) {
	dir = g.Dir(sd.Dir)
	se := &StructureEmitter{Registry: g.reg, Header: g.header}
	content, err = se.Render(sd, dir)
	return dir, content, err
}

func (g *Generator) write(ctx context.Context, entity, dir string, content []byte) (string, error) {
	name := fileName(entity)
	target := path.Join(filepath.ToSlash(dir), name)
	if err := g.open(dir).WriteFile(ctx, name, content); err != nil {
		return "", errors.Wrapf(err, "%s: write %s", entity, target)
	}
	g.logger.DebugContext(ctx, "binding written",
		slog.String("entity", entity),
		slog.String("path", target),
		slog.Int("bytes", len(content)),
	)
	return target, nil
}

// EntityKind distinguishes the two kinds of exported entities.
type EntityKind string

const (
	KindCommand EntityKind = "command"
	KindEntity  EntityKind = "entity"
)

// Outcome is the result of emitting one entity.
type Outcome struct {
	Kind EntityKind
	Name string
	Path string // empty on failure
	Err  error
}

// Report lists the outcome of every entity in a Run, structures first,
// each group in input order.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of all failed entities, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Run emits every structure and function concurrently. One entity's failure
// does not stop the others; the caller decides what a failure means.
//
// Structures are emitted before functions. A binding that refers to a
// structure whose own binding failed fails as well, naming that structure,
// so no generated file imports a declaration that was not written.
//
// Entities mapping to the same file race and the last write wins. Extracted
// entities are unique per package, so this only happens across packages.
func (g *Generator) Run(ctx context.Context, functions []FunctionDescriptor, structures []StructDescriptor) *Report {
	report := &Report{Outcomes: make([]Outcome, len(structures)+len(functions))}

	type rendering struct {
		dir     string
		content []byte
		err     error
	}
	rendered := make([]rendering, len(structures))
	g.each(len(structures), func(i int) {
		r := &rendered[i]
		r.dir, r.content, r.err = g.renderStructure(structures[i])
	})

	// Failures spread through fields until no structure changes state.
	failed := make(map[entityKey]bool)
	for changed := true; changed; {
		changed = false
		for i, sd := range structures {
			r := &rendered[i]
			if r.err == nil {
				r.err = g.missingImport(sd.Name, fieldMembers(sd), failed)
			}
			if key := (entityKey{sd.Name, r.dir}); r.err != nil && !failed[key] {
				failed[key] = true
				changed = true
			}
		}
	}

	g.each(len(structures), func(i int) {
		sd, r := structures[i], rendered[i]
		var p string
		err := r.err
		if err == nil {
			p, err = g.write(ctx, sd.Name, r.dir, r.content)
		}
		report.Outcomes[i] = g.outcome(ctx, KindEntity, sd.Name, p, err)
	})
	for i, sd := range structures {
		if report.Outcomes[i].Err != nil {
			failed[entityKey{sd.Name, rendered[i].dir}] = true
		}
	}

	g.each(len(functions), func(i int) {
		fd := functions[i]
		var p string
		err := g.missingImport(fd.Name, paramMembers(fd), failed)
		if err == nil {
			p, err = g.EmitFunction(ctx, fd)
		}
		report.Outcomes[len(structures)+i] = g.outcome(ctx, KindCommand, fd.Name, p, err)
	})

	return report
}

// each calls fn for every index below n on at most g.limit goroutines.
func (g *Generator) each(n int, fn func(i int)) {
	var eg errgroup.Group
	eg.SetLimit(g.limit)
	for i := range n {
		eg.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = eg.Wait()
}

// entityKey identifies a structure binding by name and resolved directory.
type entityKey struct {
	name, dir string
}

type member struct {
	name string // "parameter x" or "field X"
	ref  TypeRef
}

func paramMembers(fd FunctionDescriptor) []member {
	out := make([]member, len(fd.Parameters))
	for i, p := range fd.Parameters {
		out[i] = member{"parameter " + p.Name, p.Type}
	}
	return out
}

func fieldMembers(sd StructDescriptor) []member {
	out := make([]member, len(sd.Fields))
	for i, f := range sd.Fields {
		out[i] = member{"field " + f.Name, f.Type}
	}
	return out
}

// missingImport reports the first member whose type is a structure in failed.
// Resolution errors are left for the emitter to report.
func (g *Generator) missingImport(entity string, members []member, failed map[entityKey]bool) error {
	if len(failed) == 0 {
		return nil
	}
	for _, m := range members {
		_, e, err := g.reg.resolve(m.ref)
		if err != nil || e == nil || !failed[entityKey{e.Name, e.Dir}] {
			continue
		}
		return errors.WithHintf(
			errors.Newf("%s: %s: type %s was not generated", entity, m.name, e.Name),
			"fix the errors reported for %s", e.Name)
	}
	return nil
}

func (g *Generator) outcome(ctx context.Context, kind EntityKind, name, p string, err error) Outcome {
	if err != nil {
		g.logger.ErrorContext(ctx, "binding failed",
			slog.String("kind", string(kind)),
			slog.String("entity", name),
			slog.Any("error", err),
		)
	}
	return Outcome{Kind: kind, Name: name, Path: p, Err: err}
}
