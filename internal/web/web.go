// Package web serves the embedded HTML templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
}

// New parses every embedded template. It only fails if a template is
// malformed, which is a build-time mistake.
func New() (*Renderer, error) {
	return NewFromFS(templateFS, "templates/*.html")
}

// NewFromFS parses the templates in fsys matching patterns. Templates
// are named after their base file name, e.g. "index.html".
func NewFromFS(fsys fs.FS, patterns ...string) (*Renderer, error) {
	tmpl, err := template.ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("web.New: parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render executes the named template into a buffer first, so a failing
// template never leaves a half-written page behind.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded static/ tree; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// "static" is embedded above, so Sub cannot fail.
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
