// Package server serves generated documentation for a source tree over HTTP.
// Documents are regenerated on every request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/agentflare-ai/gendoc/internal/generate"
	"github.com/agentflare-ai/gendoc/internal/pysource"
	"github.com/agentflare-ai/gendoc/internal/render"
	"github.com/agentflare-ai/gendoc/internal/sources"
)

// Server is the preview HTTP handler for one source root.
type Server struct {
	router     chi.Router
	root       string
	matcher    *sources.Matcher
	format     render.Format
	generators map[render.Format]*generate.Generator
	log        logrus.FieldLogger
}

// New creates a server for root. opts.Format is the default document format.
func New(root string, opts generate.Options, m *sources.Matcher, log logrus.FieldLogger) *Server {
	if opts.Format == "" {
		opts.Format = render.FormatMarkdown
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Server{
		root:       root,
		matcher:    m,
		format:     opts.Format,
		generators: make(map[render.Format]*generate.Generator),
		log:        log,
	}
	for _, f := range []render.Format{render.FormatMarkdown, render.FormatHTML} {
		o := opts
		o.Format = f
		s.generators[f] = generate.New(o, log)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/files", s.handleListFiles)
	r.Get("/docs/*", s.handleDoc)

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.WithField("addr", addr).Info("serving documentation")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type fileInfo struct {
	Path         string   `json:"path"`
	Summary      string   `json:"summary,omitempty"`
	Declarations int      `json:"declarations"`
	Signatures   []string `json:"signatures,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := sources.Find(s.root, s.matcher)
	if err != nil {
		jsonError(w, "failed to list sources: "+err.Error(), http.StatusInternalServerError)
		return
	}
	gen := s.generators[render.FormatMarkdown]
	list := make([]fileInfo, 0, len(files))
	for _, rel := range files {
		info := fileInfo{Path: rel}
		res, err := gen.File(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Summary = res.Summary
			info.Declarations = res.Declarations
			info.Signatures = render.Signatures(res.Output)
		}
		list = append(list, info)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"files":   list,
		"exclude": s.matcher.Patterns(),
	})
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if !fs.ValidPath(rel) || rel == "." {
		jsonError(w, "invalid path", http.StatusBadRequest)
		return
	}
	format := s.format
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := render.ParseFormat(q)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}
	if !sources.IsSource(rel) || s.matcher.Excluded(rel) {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}

	res, err := s.generators[format].File(filepath.Join(s.root, filepath.FromSlash(rel)))
	switch {
	case errors.Is(err, os.ErrNotExist):
		jsonError(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, pysource.ErrSyntax):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		jsonError(w, "failed to generate: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(res.Output)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
