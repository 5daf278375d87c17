// Package lint runs the project's external linter as a build step.
//
// The linter is an off-the-shelf tool; this package only starts it, relays
// its output and turns a non-zero exit into a build failure when asked to.
package lint

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/telemetry"
	consolestream "github.com/wolfeidau/console-stream"
)

// ErrLintFailed indicates the linter reported problems or could not run
var ErrLintFailed = errors.New("lint failed")

type Linter struct {
	// Command and arguments, e.g. npx eslint --ext .js,.jsx src
	Command []string
	// Return ErrLintFailed instead of logging a warning on failure
	FailOnError bool
	// Environment overrides for the linter process
	Env map[string]string
	// Receives each line of linter output; defaults to the logger
	Output func(line string)
}

// Run executes the linter. It is a no-op when no command is configured.
func (l *Linter) Run(ctx context.Context) error {
	if len(l.Command) == 0 {
		return nil
	}

	output := l.Output
	if output == nil {
		output = func(line string) {
			log.Info().Str("lint", line).Msg("Lint output")
		}
	}

	log.Info().Strs("command", l.Command).Msg("Running linter")

	env := map[string]string{"FORCE_COLOR": "0"}
	maps.Copy(env, l.Env)

	process := consolestream.NewProcess(l.Command[0], l.Command[1:],
		consolestream.WithPipeMode(),
		consolestream.WithFlushInterval(100*time.Millisecond),
		consolestream.WithEnvMap(env),
	)

	var failure error
	for event, err := range process.ExecuteAndStream(ctx) {
		if err != nil {
			failure = fmt.Errorf("%w: %w", ErrLintFailed, err)
			break
		}

		switch e := event.Event.(type) {
		case *consolestream.OutputData:
			for _, line := range strings.Split(strings.TrimRight(string(e.Data), "\r\n"), "\n") {
				if line = strings.TrimRight(line, "\r"); line != "" {
					output(line)
				}
			}
		case *consolestream.ProcessEnd:
			if e.ExitCode != 0 {
				failure = fmt.Errorf("%w: exit code %d", ErrLintFailed, e.ExitCode)
			}
		}
	}

	if failure == nil {
		return nil
	}

	telemetry.GetMetrics().LintFailuresTotal.Add(ctx, 1)

	if l.FailOnError {
		return failure
	}

	log.Warn().Err(failure).Msg("Linter reported problems, continuing")
	return nil
}
