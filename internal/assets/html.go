package assets

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wolfeidau/webbuild/internal/envproject"
)

const indexFile = "index.html"

// renderHTML executes the HTML template and injects the style and script tags
// of every entry point, writing index.html to the output directory.
func (p *Pipeline) renderHTML(root, outDir string, entryPoints []string, defines map[string]string) (FileDigest, error) {
	tmplPath := p.config.HTMLTemplate
	if !filepath.IsAbs(tmplPath) {
		tmplPath = filepath.Join(root, tmplPath)
	}

	tmpl, err := template.New(filepath.Base(tmplPath)).Funcs(p.funcs).ParseFiles(tmplPath)
	if err != nil {
		return FileDigest{}, err
	}

	data := map[string]any{
		"Mode":       p.config.Mode,
		"PublicPath": p.config.PublicPath,
		"Env":        envproject.ReplacementMap(defines).Values(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return FileDigest{}, err
	}

	styles, scripts, err := p.tags(entryPoints)
	if err != nil {
		return FileDigest{}, err
	}

	page := []byte(Inject(buf.String(), styles, scripts))
	if err := writeFile(filepath.Join(outDir, indexFile), page); err != nil {
		return FileDigest{}, err
	}

	return FileDigest{Path: indexFile, Bytes: len(page), Digest: Digest(page)}, nil
}

// tags builds the head and body markup for the entry points
func (p *Pipeline) tags(entryPoints []string) (string, string, error) {
	var styles, scripts strings.Builder

	for _, entry := range entryPoints {
		urls, err := p.loadScripts(entry)
		if err != nil {
			// CSS-only entry points have no script output
			if css := p.cssBundle(entry); css != "" {
				fmt.Fprintf(&styles, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(p.publicURL(css)))
				continue
			}
			return "", "", err
		}

		if css := p.cssBundle(entry); css != "" {
			fmt.Fprintf(&styles, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(p.publicURL(css)))
		}
		for _, dep := range urls[1:] {
			fmt.Fprintf(&styles, "<link rel=\"modulepreload\" href=\"%s\">\n", html.EscapeString(dep))
		}
		fmt.Fprintf(&scripts, "<script type=\"module\" src=\"%s\"></script>\n", html.EscapeString(urls[0]))
	}

	return styles.String(), scripts.String(), nil
}

// cssBundle returns the stylesheet output produced for an entry point
func (p *Pipeline) cssBundle(entry string) string {
	for _, outputPath := range slices.Sorted(maps.Keys(p.metadata.Outputs)) {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entry {
			continue
		}
		if info.CSSBundle != "" {
			return info.CSSBundle
		}
		if strings.HasSuffix(outputPath, ".css") {
			return outputPath
		}
	}
	return ""
}

// Inject places head markup before </head> and body markup before </body>.
// Missing tags fall back to the start and end of the document respectively.
func Inject(page, head, body string) string {
	if head != "" {
		if i := strings.LastIndex(strings.ToLower(page), "</head>"); i >= 0 {
			page = page[:i] + head + page[i:]
		} else {
			page = head + page
		}
	}
	if body != "" {
		if i := strings.LastIndex(strings.ToLower(page), "</body>"); i >= 0 {
			page = page[:i] + body + page[i:]
		} else {
			page += body
		}
	}
	return page
}
