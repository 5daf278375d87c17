package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/chunks"
	"github.com/wolfeidau/webbuild/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const nodeEnv = "process.env.NODE_ENV"

var defineKey = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

// Build runs esbuild with the configured settings, writes the output, the
// metafile and the chunk manifest, and renders index.html.
func (p *Pipeline) Build(ctx context.Context) (*Manifest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := attribute.String("mode", string(p.config.Mode))
	ctx, span := telemetry.Tracer().Start(ctx, "assets.Build", trace.WithAttributes(mode))
	defer span.End()

	started := time.Now()
	metrics := telemetry.GetMetrics()
	attrs := metric.WithAttributes(mode)
	metrics.BuildsTotal.Add(ctx, 1, attrs)

	manifest, err := p.build()
	metrics.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	if err != nil {
		metrics.BuildErrorsTotal.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("build.id", manifest.BuildID),
		attribute.Int("build.files", len(manifest.Files)),
		attribute.Int("build.chunks", len(manifest.Chunks.Groups)),
	)

	metrics.DefinesProjected.Record(ctx, int64(len(manifest.Defines)), attrs)
	metrics.VendorChunks.Record(ctx, int64(len(manifest.Chunks.Vendors())), attrs)
	for _, f := range manifest.Files {
		metrics.OutputBytes.Add(ctx, int64(f.Bytes), attrs)
	}

	log.Info().
		Str("build_id", manifest.BuildID).
		Int("files", len(manifest.Files)).
		Int("chunks", len(manifest.Chunks.Groups)).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return manifest, nil
}

func (p *Pipeline) build() (*Manifest, error) {
	root, err := filepath.Abs(p.config.Root)
	if err != nil {
		return nil, err
	}

	entryPoints, err := p.entryPoints(root)
	if err != nil {
		return nil, err
	}

	log.Info().Strs("entrypoints", entryPoints).Str("mode", string(p.config.Mode)).Msg("Building assets")

	defines := p.defines()
	result := api.Build(p.buildOptions(root, entryPoints, defines))

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return nil, &BuildError{Messages: api.FormatMessages(result.Errors, api.FormatMessagesOptions{
			Kind: api.ErrorMessage,
		})}
	}

	outDir := p.config.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	if p.outPrefix, err = filepath.Rel(root, outDir); err != nil {
		return nil, err
	}

	files, err := writeOutputFiles(outDir, result.OutputFiles)
	if err != nil {
		return nil, err
	}

	// Write metafile
	if err := writeFile(p.path(p.config.MetafilePath), []byte(result.Metafile)); err != nil {
		return nil, err
	}

	// Parse and cache metadata
	var metadata chunks.Metafile
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, err
	}

	groups, err := chunks.Classify(metadata, chunks.Options{VendorGroup: p.config.VendorGroup})
	if err != nil {
		return nil, fmt.Errorf("failed to classify chunks: %w", err)
	}

	buildID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		BuildID: buildID.String(),
		Mode:    p.config.Mode,
		BuiltAt: time.Now().UTC(),
		Defines: slices.DeleteFunc(slices.Sorted(maps.Keys(defines)), func(k string) bool { return k == nodeEnv }),
		Files:   files,
		Chunks:  groups,
	}

	p.metadata = &metadata

	if p.config.HTMLTemplate != "" {
		digest, err := p.renderHTML(root, outDir, entryPoints, defines)
		if err != nil {
			return nil, fmt.Errorf("failed to render html: %w", err)
		}
		manifest.Files = append(manifest.Files, digest)
	}

	if err := manifest.WriteFile(p.path(p.config.ManifestPath)); err != nil {
		return nil, err
	}

	return manifest, nil
}

func (p *Pipeline) buildOptions(root string, entryPoints []string, defines map[string]string) api.BuildOptions {
	production := p.config.Production()

	return api.BuildOptions{
		AbsWorkingDir:     root,
		EntryPoints:       entryPoints,
		Bundle:            true,
		Splitting:         true,
		Write:             false,
		Metafile:          true,
		JSX:               api.JSXAutomatic,
		Platform:          api.PlatformBrowser,
		Format:            api.FormatESModule,
		Target:            api.ES2017,
		Outdir:            p.config.OutputDir,
		PublicPath:        p.config.PublicPath,
		EntryNames:        p.config.EntryNames,
		ChunkNames:        p.config.ChunkNames,
		AssetNames:        p.config.AssetNames,
		Define:            defines,
		Loader:            loaders(),
		Plugins:           []api.Plugin{inlineAssetsPlugin(p.config.InlineLimit)},
		MinifyWhitespace:  production,
		MinifyIdentifiers: production,
		MinifySyntax:      production,
		Charset:           api.CharsetASCII,
		LegalComments:     cond(production, api.LegalCommentsNone, api.LegalCommentsDefault),
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(production, api.SourceMapNone, api.SourceMapLinked),
		LogLevel:          api.LogLevelSilent,
	}
}

// defines returns the configured replacements plus process.env.NODE_ENV for
// the mode. esbuild rejects keys that are not dotted identifiers, so those are
// dropped with a warning.
func (p *Pipeline) defines() map[string]string {
	defines := make(map[string]string, len(p.config.Defines)+1)
	for key, value := range p.config.Defines {
		if !defineKey.MatchString(key) {
			log.Warn().Str("define", key).Msg("Skipping define that is not an identifier path")
			continue
		}
		defines[key] = value
	}
	defines[nodeEnv] = strconv.Quote(string(p.config.Mode))
	return defines
}

// entryPoints expands the configured patterns to paths relative to root
func (p *Pipeline) entryPoints(root string) ([]string, error) {
	var entryPoints []string
	for _, pattern := range p.config.EntryPoints {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			rel, err := filepath.Rel(root, match)
			if err != nil {
				return nil, err
			}
			entryPoints = append(entryPoints, filepath.ToSlash(rel))
		}
	}

	if len(entryPoints) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoints, strings.Join(p.config.EntryPoints, ", "))
	}

	slices.Sort(entryPoints)
	return slices.Compact(entryPoints), nil
}

func writeOutputFiles(outDir string, outputs []api.OutputFile) ([]FileDigest, error) {
	files := make([]FileDigest, 0, len(outputs))
	for _, file := range outputs {
		if err := writeFile(file.Path, file.Contents); err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(outDir, file.Path)
		if err != nil {
			return nil, err
		}

		log.Debug().Str("file", file.Path).Int("bytes", len(file.Contents)).Msg("Built file")

		files = append(files, FileDigest{
			Path:   filepath.ToSlash(rel),
			Bytes:  len(file.Contents),
			Digest: Digest(file.Contents),
		})
	}
	return files, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec
}

// LoadScripts returns the ordered list of script URLs needed for the given
// entrypoint, the entrypoint output first followed by the chunks it imports
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	return p.loadScripts(entryPointPath)
}

func (p *Pipeline) loadScripts(entryPointPath string) ([]string, error) {
	var outputs []string
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for _, outputPath := range slices.Sorted(maps.Keys(p.metadata.Outputs)) {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath || !strings.HasSuffix(outputPath, ".js") {
			continue
		}
		outputs = append(outputs, outputPath)
		visited[outputPath] = true
		p.addDependencies(info, &outputs, visited)

		scripts := make([]string, 0, len(outputs))
		for _, o := range outputs {
			scripts = append(scripts, p.publicURL(o))
		}
		return scripts, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrEntryPointNotFound, entryPointPath)
}

func (p *Pipeline) addDependencies(output chunks.Output, outputs *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*outputs = append(*outputs, imp.Path)

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, outputs, visited)
		}
	}
}

// publicURL maps a metafile output path to the URL it is served from
func (p *Pipeline) publicURL(outputPath string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(outputPath), filepath.ToSlash(p.outPrefix)+"/")
	return strings.TrimSuffix(p.config.PublicPath, "/") + "/" + rel
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
