package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/webbuild/internal/envproject"
	"github.com/wolfeidau/webbuild/internal/logger"
)

type EnvCmd struct {
	ProjectFlags `embed:""`

	ShowValues bool `help:"print values instead of masking them" default:"false"`
}

func (e *EnvCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)

	cfg, err := e.load()
	if err != nil {
		return err
	}

	printDefines(os.Stdout, e.defines(cfg), e.ShowValues)
	return nil
}

// printDefines writes each replacement as key=value, masking values unless
// show is set.
func printDefines(w io.Writer, defines envproject.ReplacementMap, show bool) {
	for _, key := range defines.Keys() {
		value := "****"
		if show {
			value = defines[key]
		}
		fmt.Fprintf(w, "%s=%s\n", key, value)
	}
}
