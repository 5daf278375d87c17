package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/assets"
	"github.com/wolfeidau/webbuild/internal/devserver"
	"github.com/wolfeidau/webbuild/internal/logger"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	ProjectFlags `embed:""`

	Listen    string `help:"HTTP listen address, overrides the config" default:"" env:"WEBBUILD_LISTEN"`
	NoLint    bool   `help:"skip the lint step on rebuild" default:"false" env:"WEBBUILD_NO_LINT"`
	NoWatch   bool   `help:"build once and serve without watching" default:"false" env:"WEBBUILD_NO_WATCH"`
	Telemetry bool   `help:"export build metrics and traces over OTLP" default:"false" env:"WEBBUILD_TELEMETRY"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)

	cfg, err := s.load()
	if err != nil {
		return err
	}
	cfg.Mode = string(assets.ModeDevelopment)
	if s.Listen != "" {
		cfg.DevServer.Listen = s.Listen
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Str("listen", cfg.DevServer.Listen).Msg("Starting dev server")

	if s.Telemetry {
		defer startTelemetry(ctx, log.Logger, globals.Version)()
	}

	linter := newLinter(cfg, s.NoLint)
	pipeline := assets.New(cfg.Assets(".", s.defines(cfg)))
	srv := devserver.New(pipeline, devserver.Options{
		Listen:             cfg.DevServer.Listen,
		OutputDir:          cfg.OutputDir,
		Compress:           cfg.DevServer.Compress,
		HistoryAPIFallback: cfg.DevServer.HistoryAPIFallback,
		ErrorOverlay:       cfg.DevServer.ErrorOverlay,
		CORSOrigins:        cfg.DevServer.CORSOrigins,
	})

	rebuild := func(ctx context.Context) {
		if err := linter.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Lint failed")
			return
		}
		// failures are reported by the error overlay
		if err := srv.Rebuild(ctx); err != nil {
			log.Error().Err(err).Msg("Build failed")
		}
	}

	rebuild(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	if !s.NoWatch {
		watcher := &devserver.Watcher{
			Dirs:     cfg.DevServer.Watch,
			Ignore:   []string{cfg.OutputDir},
			OnChange: rebuild,
		}
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}
