package lint

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type lines struct {
	mu  sync.Mutex
	all []string
}

func (l *lines) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, line)
}

func (l *lines) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.all, "\n")
}

func TestLinter_Run(t *testing.T) {
	t.Run("no command is a no-op", func(t *testing.T) {
		l := &Linter{FailOnError: true}
		require.NoError(t, l.Run(context.Background()))
	})

	t.Run("clean exit relays output", func(t *testing.T) {
		out := &lines{}
		l := &Linter{
			Command:     []string{"sh", "-c", "echo 'src/index.js: ok'"},
			FailOnError: true,
			Output:      out.add,
		}

		require.NoError(t, l.Run(context.Background()))
		require.Contains(t, out.String(), "src/index.js: ok")
	})

	t.Run("non-zero exit fails when configured", func(t *testing.T) {
		l := &Linter{
			Command:     []string{"sh", "-c", "echo '1 problem'; exit 3"},
			FailOnError: true,
			Output:      func(string) {},
		}

		err := l.Run(context.Background())
		require.ErrorIs(t, err, ErrLintFailed)
	})

	t.Run("non-zero exit only warns by default", func(t *testing.T) {
		l := &Linter{
			Command: []string{"sh", "-c", "exit 1"},
			Output:  func(string) {},
		}

		require.NoError(t, l.Run(context.Background()))
	})

	t.Run("environment overrides reach the process", func(t *testing.T) {
		out := &lines{}
		l := &Linter{
			Command:     []string{"sh", "-c", "echo \"mode=$LINT_MODE\""},
			Env:         map[string]string{"LINT_MODE": "strict"},
			FailOnError: true,
			Output:      out.add,
		}

		require.NoError(t, l.Run(context.Background()))
		require.Contains(t, out.String(), "mode=strict")
	})
}
