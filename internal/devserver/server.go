// Package devserver serves a development build and rebuilds it when sources
// change.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/assets"
	httpmiddleware "github.com/wolfeidau/webbuild/internal/http"
	"github.com/wolfeidau/webbuild/internal/telemetry"
)

const (
	rebuildPath = "/__webbuild/rebuild"
	statusPath  = "/__webbuild/status"
	indexFile   = "index.html"
)

// Builder produces a build; *assets.Pipeline satisfies it.
type Builder interface {
	Build(ctx context.Context) (*assets.Manifest, error)
}

type Options struct {
	// Listen address, e.g. 127.0.0.1:8080
	Listen string
	// Directory holding the build output
	OutputDir string
	// gzip responses
	Compress bool
	// Serve index.html for unknown HTML navigations
	HistoryAPIFallback bool
	// Show build errors in place of pages
	ErrorOverlay bool
	// Origins allowed to fetch assets cross-origin
	CORSOrigins []string
}

// Server serves the output directory of the most recent build.
type Server struct {
	opts    Options
	builder Builder
	logger  zerolog.Logger

	mu       sync.RWMutex
	manifest *assets.Manifest
	buildErr error
	building sync.Mutex
}

// New creates a dev server for the builder's output.
func New(builder Builder, opts Options) *Server {
	return &Server{
		opts:    opts,
		builder: builder,
		logger:  log.Logger,
	}
}

// Rebuild runs a build and records its outcome for subsequent requests.
// Concurrent calls are serialized.
func (s *Server) Rebuild(ctx context.Context) error {
	s.building.Lock()
	defer s.building.Unlock()

	telemetry.GetMetrics().RebuildsTriggered.Add(ctx, 1)

	manifest, err := s.builder.Build(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildErr = err
	if err == nil {
		s.manifest = manifest
	}
	return err
}

// state returns the last good manifest and the error of the last build
func (s *Server) state() (*assets.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest, s.buildErr
}

// Handler returns the full middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	protection := csrf.New()
	mux.Handle("POST "+rebuildPath, protection.Handler(http.HandlerFunc(s.handleRebuild)))
	mux.HandleFunc("GET "+statusPath, s.handleStatus)
	mux.HandleFunc("/", s.handleStatic)

	var handler http.Handler = mux
	if len(s.opts.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		}).Handler(handler)
	}
	if s.opts.Compress {
		handler = gzhttp.GzipHandler(handler)
	}

	return httpmiddleware.RequestLogger(s.logger)(handler)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := configureHTTPServer(s.opts.Listen, s.Handler())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info().Str("addr", s.opts.Listen).Msg("Dev server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type statusResponse struct {
	OK      bool     `json:"ok"`
	BuildID string   `json:"buildId,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	err := s.Rebuild(r.Context())
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	s.writeStatus(w, status)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) writeStatus(w http.ResponseWriter, code int) {
	manifest, err := s.state()

	resp := statusResponse{OK: err == nil}
	if manifest != nil {
		resp.BuildID = manifest.BuildID
	}
	if err != nil {
		resp.Errors = buildMessages(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to write status")
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	manifest, buildErr := s.state()
	if buildErr != nil && s.opts.ErrorOverlay && isNavigation(r) {
		renderOverlay(w, buildErr)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(name, "/") {
		name += indexFile
	}

	if s.serveFile(w, r, manifest, strings.TrimPrefix(name, "/")) {
		return
	}

	if s.opts.HistoryAPIFallback && isNavigation(r) {
		if s.serveFile(w, r, manifest, indexFile) {
			return
		}
	}

	http.NotFound(w, r)
}

// serveFile writes the named output file with an ETag, reporting whether it
// existed
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, manifest *assets.Manifest, name string) bool {
	full := filepath.Join(s.opts.OutputDir, filepath.FromSlash(name))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		name = path.Join(name, indexFile)
		full = filepath.Join(full, indexFile)
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", full).Msg("Failed to stat file")
		}
		return false
	}

	data, err := os.ReadFile(full)
	if err != nil {
		log.Error().Err(err).Str("file", full).Msg("Failed to read file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return true
	}

	digest := ""
	if manifest != nil {
		if f, ok := manifest.File(name); ok && f.Bytes == len(data) {
			digest = f.Digest
		}
	}
	if digest == "" {
		digest = assets.Digest(data)
	}

	w.Header().Set("ETag", `"`+digest+`"`)
	if path.Base(name) == indexFile {
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
	return true
}

// isNavigation reports whether the request is a page load: it accepts HTML
// and does not look like a file request
func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if ext := path.Ext(r.URL.Path); ext != "" && ext != ".html" {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
