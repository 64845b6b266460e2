package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/robert-malhotra/h5view/internal/catalog"
)

//go:embed ui/index.html
var uiFS embed.FS

func parsePage() (*template.Template, error) {
	t, err := template.ParseFS(uiFS, "ui/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing UI template: %w", err)
	}
	return t, nil
}

type pageData struct {
	MaxUpload  string
	Catalog    bool
	MatrixRows int
	MatrixCols int
	Extensions []string
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		MaxUpload:  humanize.Bytes(uint64(s.cfg.Server.MaxUploadBytes)),
		Catalog:    s.catalog != nil,
		MatrixRows: s.cfg.Render.MatrixRows,
		MatrixCols: s.cfg.Render.MatrixCols,
		Extensions: catalog.Extensions,
	}
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
