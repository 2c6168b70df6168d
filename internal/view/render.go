package view

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns a Page into the dashboard HTML document.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("dashboard.html.tmpl").Funcs(template.FuncMap{
		"chartJSON": chartJSON,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full dashboard page for p.
func (r *Renderer) Render(w io.Writer, p Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "dashboard.html.tmpl", p); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// chartJSON serializes the chart widgets for the page script. The output is
// embedded inside a <script> block, so it is marked as safe JS after
// marshaling rather than passed through HTML escaping.
func chartJSON(charts []ChartWidget) (template.JS, error) {
	b, err := json.Marshal(charts)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
