package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/wolfeidau/webbuild/internal/assets"
	"github.com/wolfeidau/webbuild/internal/logger"
)

type BuildCmd struct {
	ProjectFlags `embed:""`

	Mode      string `help:"build mode (production or development), overrides the config" default:"" env:"WEBBUILD_MODE"`
	NoLint    bool   `help:"skip the lint step" default:"false" env:"WEBBUILD_NO_LINT"`
	Telemetry bool   `help:"export build metrics and traces over OTLP" default:"false" env:"WEBBUILD_TELEMETRY"`
}

func (b *BuildCmd) Validate() error {
	if b.Mode == "" {
		return nil
	}
	_, err := assets.ParseMode(b.Mode)
	return err
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := b.load()
	if err != nil {
		return err
	}
	if b.Mode != "" {
		cfg.Mode = b.Mode
	}

	log.Info().Str("version", globals.Version).Str("mode", cfg.Mode).Msg("Starting build")

	if b.Telemetry {
		defer startTelemetry(ctx, log, globals.Version)()
	}

	if err := newLinter(cfg, b.NoLint).Run(ctx); err != nil {
		return err
	}

	pipeline := assets.New(cfg.Assets(".", b.defines(cfg)))
	manifest, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	return printSummary(os.Stdout, manifest)
}

// printSummary writes one row per chunk group of the build.
func printSummary(w io.Writer, manifest *assets.Manifest) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "CHUNK\tPRIORITY\tMODULES\tBYTES\n")
	for _, g := range manifest.Chunks.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", g.Name, g.Priority, len(g.Inputs), g.Bytes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nBuild %s: %d files, %d defines\n", manifest.BuildID, len(manifest.Files), len(manifest.Defines))
	return nil
}
