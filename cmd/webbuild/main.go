package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/webbuild/cmd/webbuild/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build     commands.BuildCmd     `cmd:"" help:"Build the project"`
		Serve     commands.ServeCmd     `cmd:"" help:"Run the development server, rebuilding on change"`
		Env       commands.EnvCmd       `cmd:"" help:"Show the environment variables injected into the bundle"`
		ChunkName commands.ChunkNameCmd `cmd:"" help:"Print the vendor chunk name for module paths"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Bundles a React application with esbuild."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
