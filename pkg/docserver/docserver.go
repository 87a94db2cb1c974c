// Package docserver hosts the human and machine readable documentation of
// every extension: its descriptor, an HTML page, the changelog and the
// JSON Schema of its parameters.
package docserver

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type entry struct {
	desc   extension.Descriptor
	doc    extension.Documentation
	schema *jsonschema.Resolved
}

type Server struct {
	router  chi.Router
	server  *http.Server
	entries []*entry
	bySlug  map[string]*entry
	baseURL string
	logger  *slog.Logger
}

type Config struct {
	Bind       string
	Port       int
	BaseURL    string
	Extensions []extension.Documented
	Logger     *slog.Logger
}

// New builds the server. It fails when an extension's schema does not
// resolve or two extensions share a slug.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		bySlug:  make(map[string]*entry),
		baseURL: cfg.BaseURL,
		logger:  cfg.Logger,
	}
	for _, ext := range cfg.Extensions {
		e := &entry{desc: ext.Descriptor(), doc: ext.Documentation()}
		if _, dup := s.bySlug[e.doc.Slug]; dup {
			return nil, fmt.Errorf("docserver: duplicate slug %q", e.doc.Slug)
		}
		if e.doc.Schema != nil {
			resolved, err := e.doc.Schema.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("docserver: resolving %s schema: %w", e.doc.Slug, err)
			}
			e.schema = resolved
		}
		s.entries = append(s.entries, e)
		s.bySlug[e.doc.Slug] = e
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors)
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)
	r.Get("/", s.handleIndex)
	r.Route("/extensions/{slug}/v1", func(r chi.Router) {
		r.Get("/", s.handleSpec)
		r.Get("/docs", s.handleDocs)
		r.Get("/changelog", s.handleChangelog)
		r.Get("/schema", s.handleSchema)
		r.Post("/validate", s.handleValidate)
	})
	s.router = r

	s.server = &http.Server{
		Addr:              resolveAddr(cfg.Bind, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) Start(ctx context.Context) error {
	logger := telemetry.FromContext(ctx)
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("docserver listen: %w", err)
	}
	logger.Info("extension docs listening", slog.String("addr", s.server.Addr))
	for _, e := range s.entries {
		logger.Info("extension documented",
			slog.String("uri", e.desc.URI()),
			slog.String("docs", s.link(e, "/docs")),
		)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("extension docs shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, resource string) (*entry, bool) {
	e, ok := s.bySlug[chi.URLParam(r, "slug")]
	if !ok {
		s.handleNotFound(w, r)
		return nil, false
	}
	telemetry.Metrics.DocRequests.WithLabelValues(e.doc.Slug, resource).Inc()
	return e, true
}

// link is the absolute URL of an extension resource when a base URL is
// configured, otherwise the path.
func (s *Server) link(e *entry, suffix string) string {
	return s.baseURL + "/extensions/" + e.doc.Slug + "/v1" + suffix
}

type activation struct {
	Header   string         `json:"header"`
	Value    string         `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Keywords []string       `json:"keywords,omitempty"`
}

type parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

type specDocument struct {
	URI           string         `json:"uri"`
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	Description   string         `json:"description"`
	Type          extension.Kind `json:"type"`
	Methods       []string       `json:"methods,omitempty"`
	Parameters    []parameter    `json:"parameters,omitempty"`
	Activation    activation     `json:"activation"`
	AgentCard     map[string]any `json:"agentCard"`
	Documentation string         `json:"documentation"`
	Schema        string         `json:"schema,omitempty"`
	Changelog     string         `json:"changelog"`
}

func (s *Server) spec(e *entry) specDocument {
	doc := specDocument{
		URI:           e.desc.URI(),
		Name:          e.desc.Name(),
		Version:       e.desc.Version(),
		Description:   e.desc.Description(),
		Type:          e.desc.Kind(),
		Methods:       e.desc.Methods(),
		AgentCard:     e.desc.Metadata(),
		Documentation: s.link(e, "/docs"),
		Changelog:     s.link(e, "/changelog"),
		Activation: activation{
			Header:   a2a.ExtensionsHeader,
			Value:    e.desc.URI(),
			Keywords: e.doc.Keywords,
		},
	}
	if e.schema != nil {
		doc.Schema = s.link(e, "/schema")
	}
	if e.desc.Kind() == extension.KindData && e.doc.Schema != nil {
		doc.Activation.Metadata = map[string]any{
			"extensions": map[string]any{e.desc.URI(): "<parameters>"},
		}
	}
	for _, p := range e.doc.Parameters {
		doc.Parameters = append(doc.Parameters, parameter(p))
	}
	return doc
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, "spec")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.spec(e))
}

func (s *Server) handleChangelog(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, "changelog")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.doc.Changelog)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, "schema")
	if !ok {
		return
	}
	if e.doc.Schema == nil {
		s.handleNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, e.doc.Schema)
}

type validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// handleValidate checks a parameter object against the extension's schema.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, "validate")
	if !ok {
		return
	}
	if e.schema == nil {
		s.handleNotFound(w, r)
		return
	}
	var instance any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&instance); err != nil {
		writeJSON(w, http.StatusBadRequest, validation{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := e.schema.Validate(instance); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validation{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validation{Valid: true})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Extension resource not found: "+r.URL.Path, http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+a2a.ExtensionsHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func resolveAddr(bind string, port int) string {
	var host string
	switch bind {
	case "lan", "all":
		host = "0.0.0.0"
	case "loopback", "":
		host = "127.0.0.1"
	default:
		host = bind
	}
	return fmt.Sprintf("%s:%d", host, port)
}
