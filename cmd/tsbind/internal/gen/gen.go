package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/broady/tsbind/internal/runner"
	"github.com/broady/tsbind/internal/watch"
)

type Cmd struct {
	Out     string `help:"Default output directory for entities without a directory argument (default: ../src-gen from the package)." short:"o"`
	Package string `help:"Package to scan (default: current directory)." short:"p" default:"."`
	Config  string `help:"Path to tsbind.toml (default: the package directory)." short:"c"`
	Watch   bool   `help:"Watch for changes and regenerate." short:"w"`
	Verbose bool   `help:"Log every file written." short:"v"`
}

func (c *Cmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := runner.Options{
		Package: c.Package,
		Config:  c.Config,
		Logger:  logger,
	}
	if c.Out != "" {
		// --out is relative to where the command runs, not the package.
		out, err := filepath.Abs(c.Out)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		opts.Out = out
	}

	result, err := c.generate(ctx, opts)
	if !c.Watch {
		return err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	dir, err := c.watchDir(result)
	if err != nil {
		return err
	}
	w, err := watch.New(dir, watch.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Printf("watching %s for changes\n", dir)
	return w.Run(ctx, func(ctx context.Context) {
		if _, err := c.generate(ctx, opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
}

func (c *Cmd) generate(ctx context.Context, opts runner.Options) (*runner.Result, error) {
	result, err := runner.Exec(ctx, opts)
	if err != nil {
		return nil, err
	}

	cwd, _ := os.Getwd()
	for _, o := range result.Report.Outcomes {
		if o.Err != nil {
			continue
		}
		p := o.Path
		if rel, err := filepath.Rel(cwd, p); err == nil {
			p = rel
		}
		fmt.Printf("✓ %s\n", p)
	}

	if n := result.Failures(); n > 0 {
		runner.WriteFailures(os.Stderr, result)
		return result, fmt.Errorf("%d of %d entities failed", n, len(result.Report.Outcomes)+len(result.Problems))
	}
	return result, nil
}

// watchDir returns the package directory, falling back to the package
// argument when the first pass could not load the package.
func (c *Cmd) watchDir(result *runner.Result) (string, error) {
	if result != nil && result.Dir != "" {
		return result.Dir, nil
	}
	dir, err := filepath.Abs(c.Package)
	if err != nil {
		return "", fmt.Errorf("resolve package directory: %w", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("cannot watch %s: not a directory", c.Package)
	}
	return dir, nil
}
