package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"airline-ops/airops/internal/format"
	"airline-ops/airops/internal/logging"
)

//go:embed templates static
var assets embed.FS

// Pages rendered inside the base layout.
const (
	PageDashboard = "dashboard"
	PageReports   = "reports"
	PageResource  = "resource"
)

const layoutFile = "templates/layouts/base.html"

func funcMap() template.FuncMap {
	return template.FuncMap{
		"split": func(s string, sep string) []string {
			return strings.Split(s, sep)
		},
		"inc": func(n int) int {
			return n + 1
		},
		"lower":    strings.ToLower,
		"badge":    format.Badge,
		"hours":    func(v float64) string { return format.Hours(v) },
		"currency": func(v float64) string { return format.Currency(v) },
	}
}

// Renderer holds the parsed templates. Pages are parsed once, each together
// with the base layout; partials share one template set.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, page := range []string{PageDashboard, PageReports, PageResource} {
		t, err := template.New("base.html").Funcs(funcMap()).ParseFS(assets,
			layoutFile,
			"templates/pages/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}
		r.pages[page] = t
	}

	partials, err := template.New("partials").Funcs(funcMap()).ParseFS(assets, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	r.partials = partials
	return r, nil
}

// RenderTemplate renders a page with the base layout
func (r *Renderer) RenderTemplate(w http.ResponseWriter, page string, data map[string]any) error {
	t, ok := r.pages[page]
	if !ok {
		return r.fail(w, fmt.Errorf("unknown page %q", page))
	}
	return r.write(w, t, "base.html", data)
}

// RenderPartial renders just the content portion of a page (for HTMX navigation)
func (r *Renderer) RenderPartial(w http.ResponseWriter, page string, data map[string]any) error {
	t, ok := r.pages[page]
	if !ok {
		return r.fail(w, fmt.Errorf("unknown page %q", page))
	}
	return r.write(w, t, "content", data)
}

// RenderFragment renders a named partial such as "rows" or "form".
func (r *Renderer) RenderFragment(w http.ResponseWriter, name string, data any) error {
	return r.write(w, r.partials, name, data)
}

// write executes into a buffer first so a template error never leaves a
// half-written response behind.
func (r *Renderer) write(w http.ResponseWriter, t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return r.fail(w, fmt.Errorf("failed to render %s: %w", name, err))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) fail(w http.ResponseWriter, err error) error {
	logging.Error("Template rendering failed", "error", err)
	http.Error(w, "Error rendering template", http.StatusInternalServerError)
	return err
}

// StaticFS is the embedded static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
