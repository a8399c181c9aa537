// Package runner executes tsbind code generation for one package: it
// extracts flagged declarations, builds the type registry and runs the
// generator.
package runner

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/broady/tsbind"
	"github.com/broady/tsbind/internal/extract"
	"github.com/broady/tsbind/sink"
)

// Options configures the runner.
type Options struct {
	// Package is the package pattern to scan. Empty means ".".
	Package string

	// WorkDir is the working directory for package loading. Empty means the
	// current directory.
	WorkDir string

	// Out overrides the default output directory. Relative paths are
	// resolved against the package directory.
	Out string

	// Config is the path to tsbind.toml. Empty means the file in the package
	// directory, if present.
	Config string

	// Sink opens output directories. Nil writes to the filesystem.
	Sink sink.Opener

	Logger *slog.Logger
}

// Result is the outcome of one generation pass.
type Result struct {
	PackagePath string
	Dir         string // package directory

	// Problems are declarations rejected during extraction.
	Problems []error

	Report *tsbind.Report
}

// Err joins extraction problems and emit failures, or returns nil.
func (r *Result) Err() error {
	errs := append([]error(nil), r.Problems...)
	if r.Report != nil {
		if err := r.Report.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Failures returns the number of rejected or failed entities.
func (r *Result) Failures() int {
	n := len(r.Problems)
	if r.Report != nil {
		n += len(r.Report.Failed())
	}
	return n
}

// Exec runs one generation pass. The returned error covers failures that
// stop the whole pass (package loading, configuration); per-entity failures
// are reported through the Result.
func Exec(ctx context.Context, opts Options) (*Result, error) {
	pattern := opts.Package
	if pattern == "" {
		pattern = "."
	}

	extracted, err := extract.Load(pattern, opts.WorkDir)
	if err != nil {
		return nil, errors.Wrap(err, "extract")
	}

	cfg, err := loadConfig(opts.Config, extracted.Dir)
	if err != nil {
		return nil, err
	}

	reg := tsbind.NewRegistry()
	g := tsbind.New(reg).
		WithBaseDir(extracted.Dir).
		WithLogger(opts.Logger)
	if opts.Sink != nil {
		g.WithSink(opts.Sink)
	}
	cfg.Apply(reg, g)
	if opts.Out != "" {
		g.WithDefaultDir(opts.Out)
	}

	for _, e := range extracted.Entities {
		e.Dir = g.Dir(e.Dir)
		reg.RegisterEntity(e)
	}

	if opts.Logger != nil {
		opts.Logger.DebugContext(ctx, "package extracted",
			slog.String("package", extracted.PackagePath),
			slog.Int("commands", len(extracted.Functions)),
			slog.Int("entities", len(extracted.Structures)),
			slog.Int("problems", len(extracted.Problems)),
		)
	}

	return &Result{
		PackagePath: extracted.PackagePath,
		Dir:         extracted.Dir,
		Problems:    extracted.Problems,
		Report:      g.Run(ctx, extracted.Functions, extracted.Structures),
	}, nil
}

func loadConfig(path, pkgDir string) (*tsbind.Config, error) {
	if path != "" {
		return tsbind.LoadConfig(path)
	}
	return tsbind.LoadConfigIfExists(filepath.Join(pkgDir, tsbind.ConfigFile))
}
