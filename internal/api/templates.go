// internal/api/templates.go
package api

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

// pages rendered inside layout.html
var pages = []string{"dashboard.html", "menu.html", "order_success.html"}

// renderer holds one template set per page. Each set carries the layout,
// the shared partials and the page itself.
type renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	partials, err := template.ParseFS(fsys, "partials.html")
	if err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template), partials: partials}
	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "layout.html", "partials.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

func embeddedTemplates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return sub
}

// page renders a full page.
func (r *renderer) page(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	return execute(w, status, tmpl, "layout", data)
}

// partial renders a named fragment without the layout.
func (r *renderer) partial(w http.ResponseWriter, name string, data any) error {
	return execute(w, http.StatusOK, r.partials, name, data)
}

// execute buffers the output; nothing reaches w when the template fails.
func execute(w http.ResponseWriter, status int, tmpl *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
