package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/broady/tsbind/cmd/tsbind/internal/check"
	"github.com/broady/tsbind/cmd/tsbind/internal/gen"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate TypeScript bindings for flagged commands and entities."`
	Check   check.Cmd  `cmd:"" help:"Validate directives and types without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("tsbind"),
		kong.Description("Generate TypeScript invoke bindings for a Go desktop backend."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
