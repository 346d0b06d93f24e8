// Package server exposes resolution over HTTP. A client posts a world
// description and receives its plans and diagnostics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"injekt/internal/diag"
	"injekt/internal/diagfmt"
	"injekt/internal/inject"
	"injekt/internal/manifest"
	"injekt/internal/pipeline"
	"injekt/internal/plan"
	"injekt/internal/source"
	"injekt/internal/trace"
	"injekt/internal/version"
)

// DefaultMaxBody caps posted worlds.
const DefaultMaxBody = 4 << 20

// Options configures the handler.
type Options struct {
	MaxBody        int64
	MaxDiagnostics int
	Tracer         trace.Tracer
	// Keys returns the frameworkKey source of one request; nil selects UUIDs.
	Keys func() inject.KeySource
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// ResolveResponse is the body of POST /v1/resolve.
type ResolveResponse struct {
	Plans       *plan.Set                 `json:"plans"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	opts Options
}

// New builds the router.
func New(opts Options) http.Handler {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = pipeline.DefaultMaxDiagnostics
	}
	h := &handler{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", h.resolve)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

// formatName maps a media type to a file name the manifest decoder
// understands.
func formatName(contentType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch {
	case strings.HasSuffix(mt, "toml"):
		return "world.toml", true
	case strings.HasSuffix(mt, "yaml"), strings.HasSuffix(mt, "yml"):
		return "world.yaml", true
	}
	return "", false
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	name, ok := formatName(r.Header.Get("Content-Type"))
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "content type must be application/toml or application/yaml"})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("world exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	fs := source.NewFileSet("")
	bag := diag.NewBag(h.opts.MaxDiagnostics)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	span := trace.Begin(h.opts.Tracer, trace.ScopeDriver, "http resolve", 0)

	var resp ResolveResponse
	if world := manifest.Parse(fs, name, body, rep); world != nil {
		opts := pipeline.SessionOptions{Tracer: h.opts.Tracer, Parent: span.ID()}
		if h.opts.Keys != nil {
			opts.Keys = h.opts.Keys()
		}
		resp.Plans = pipeline.ResolveWorld(world, opts, rep)
	}
	span.End("")
	bag.Sort()
	resp.Diagnostics = diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})

	status := http.StatusOK
	if bag.HasErrors() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
