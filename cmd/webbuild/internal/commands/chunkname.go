package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/webbuild/internal/chunks"
)

type ChunkNameCmd struct {
	Group string   `help:"chunk group label" default:"vendors"`
	Paths []string `arg:"" help:"module context paths, e.g. /app/node_modules/@scope/pkg"`
}

func (c *ChunkNameCmd) Run(ctx context.Context, globals *Globals) error {
	return c.print(os.Stdout)
}

// print writes "<path>\t<name>" for each path, failing on the first path
// outside node_modules.
func (c *ChunkNameCmd) print(w io.Writer) error {
	for _, p := range c.Paths {
		name, err := chunks.Name(p, c.Group)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", p, name)
	}
	return nil
}
