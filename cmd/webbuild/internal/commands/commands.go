package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/webbuild/internal/config"
	"github.com/wolfeidau/webbuild/internal/envproject"
	"github.com/wolfeidau/webbuild/internal/lint"
	"github.com/wolfeidau/webbuild/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Version string
}

// ProjectFlags locate the project, its configuration and its dotenv file.
type ProjectFlags struct {
	Root   string `help:"project root directory" default:"." env:"WEBBUILD_ROOT" type:"existingdir"`
	Config string `help:"configuration file relative to the project root" default:"webbuild.yaml" env:"WEBBUILD_CONFIG"`
	Dotenv string `help:"dotenv file, overrides the configured one" default:"" env:"WEBBUILD_DOTENV"`

	ProcessEnv bool `help:"also project REACT_ENV_ variables from the process environment, overriding the dotenv file" default:"false" env:"WEBBUILD_PROCESS_ENV"`
}

// load switches to the project root and reads its configuration. Every
// relative path used afterwards, including the linter's, resolves there.
func (f *ProjectFlags) load() (config.Config, error) {
	if err := os.Chdir(f.Root); err != nil {
		return config.Config{}, fmt.Errorf("failed to enter project root: %w", err)
	}

	cfg, err := config.Load(f.Config)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if f.Dotenv != "" {
		cfg.Dotenv = f.Dotenv
	}

	return cfg, nil
}

// defines projects the dotenv file, overlaid with the process environment
// when ProcessEnv is set.
func (f *ProjectFlags) defines(cfg config.Config) envproject.ReplacementMap {
	env := envproject.LoadDotenv(cfg.Dotenv)
	if f.ProcessEnv {
		env = envproject.Merge(env, envproject.FromEnviron(os.Environ()))
	}
	return envproject.New().Project(env)
}

func newLinter(cfg config.Config, disabled bool) *lint.Linter {
	if disabled {
		return &lint.Linter{}
	}
	return &lint.Linter{
		Command:     cfg.Lint.Command,
		FailOnError: cfg.Lint.FailOnError,
	}
}

// startTelemetry installs the OTLP providers and returns their shutdown.
func startTelemetry(ctx context.Context, log zerolog.Logger, version string) func() {
	log.Info().Msg("Telemetry is enabled")
	shutdown, err := telemetry.InitTelemetry(ctx, "webbuild", version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}
