package devserver

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/assets"
)

var overlayTmpl = template.Must(template.New("overlay").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Build failed</title>
<style>
body { margin: 0; background: #1e1e1e; color: #e8e8e8; font-family: ui-monospace, Menlo, monospace; }
h1 { margin: 0; padding: 16px 24px; background: #b00020; color: #fff; font-size: 18px; }
pre { margin: 16px 24px; padding: 16px; background: #2b2b2b; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Failed to compile</h1>
{{ range . }}<pre>{{ . }}</pre>
{{ end }}</body>
</html>
`))

// renderOverlay replaces the page with the errors of the failed build
func renderOverlay(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	if err := overlayTmpl.Execute(w, buildMessages(buildErr)); err != nil {
		log.Error().Err(err).Msg("Failed to render error overlay")
	}
}

// buildMessages returns the esbuild messages of a failed build, or the error
// text for other failures
func buildMessages(err error) []string {
	var buildErr *assets.BuildError
	if errors.As(err, &buildErr) && len(buildErr.Messages) > 0 {
		return buildErr.Messages
	}
	return []string{err.Error()}
}
