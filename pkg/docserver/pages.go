package docserver

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/igorsilveira/helloext/pkg/extension"
)

type docsPage struct {
	Spec     specDocument
	Summary  string
	Examples []extension.Example
	Base     string
}

type indexItem struct {
	Name    string
	Version string
	Base    string
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, "docs")
	if !ok {
		return
	}
	s.render(w, "docs.html", docsPage{
		Spec:     s.spec(e),
		Summary:  e.doc.Summary,
		Examples: e.doc.Examples,
		Base:     "/extensions/" + e.doc.Slug + "/v1",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	items := make([]indexItem, len(s.entries))
	for i, e := range s.entries {
		items[i] = indexItem{
			Name:    e.desc.Name(),
			Version: e.desc.Version(),
			Base:    "/extensions/" + e.doc.Slug + "/v1",
		}
	}
	s.render(w, "index.html", items)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("rendering page", slog.String("template", name), slog.String("err", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
