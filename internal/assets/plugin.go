package assets

import (
	"os"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	imageFilter = `(?i)\.(png|jpe?g|gif|svg)$`
)

// loaders maps extensions to esbuild loaders. Images are handled by
// inlineAssetsPlugin.
func loaders() map[string]api.Loader {
	return map[string]api.Loader{
		".js":    api.LoaderJSX,
		".jsx":   api.LoaderJSX,
		".css":   api.LoaderCSS,
		".eot":   api.LoaderFile,
		".otf":   api.LoaderFile,
		".ttf":   api.LoaderFile,
		".woff":  api.LoaderFile,
		".woff2": api.LoaderFile,
	}
}

// inlineAssetsPlugin embeds small images as data URLs and emits larger ones
// as separate files.
func inlineAssetsPlugin(limit int64) api.Plugin {
	return api.Plugin{
		Name: "inline-assets",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: imageFilter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   imageLoader(int64(len(data)), limit),
					}, nil
				})
		},
	}
}

func imageLoader(size, limit int64) api.Loader {
	if size <= limit {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}
