package check

import (
	"context"
	"fmt"
	"os"

	"github.com/broady/tsbind"
	"github.com/broady/tsbind/internal/runner"
	"github.com/broady/tsbind/sink"
)

type Cmd struct {
	Package string `help:"Package to scan (default: current directory)." short:"p" default:"."`
	Config  string `help:"Path to tsbind.toml (default: the package directory)." short:"c"`
}

func (c *Cmd) Run() error {
	// Render everything into memory; nothing touches the output directories.
	mem := sink.NewMemorySink()
	result, err := runner.Exec(context.Background(), runner.Options{
		Package: c.Package,
		Config:  c.Config,
		Sink:    mem.Open,
	})
	if err != nil {
		return err
	}

	var commands, entities int
	for _, o := range result.Report.Outcomes {
		if o.Err != nil {
			continue
		}
		switch o.Kind {
		case tsbind.KindCommand:
			commands++
		case tsbind.KindEntity:
			entities++
		}
	}
	fmt.Printf("✓ Package: %s\n", result.PackagePath)
	fmt.Printf("✓ %d commands, %d entities\n", commands, entities)

	if n := result.Failures(); n > 0 {
		runner.WriteFailures(os.Stderr, result)
		return fmt.Errorf("%d entities failed", n)
	}
	return nil
}
