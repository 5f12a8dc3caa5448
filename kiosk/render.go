package kiosk

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const layoutTemplate = "layout.html"

// Page is the context every view is rendered with.
type Page struct {
	Title   string
	Notice  *Notice
	Data    any
	LiveURL string
}

// Renderer renders a view with its page context.
type Renderer interface {
	Render(w io.Writer, view View, page Page) error
}

var viewTitles = map[View]string{
	ViewHome:         "Welcome",
	ViewSelectLocker: "Select a locker",
	ViewRFID:         "Tap your card",
	ViewOpenLocker:   "Locker open",
	ViewPin:          "Enter PIN",
	ViewFingerprint:  "Scan fingerprint",
}

func views() []View {
	return []View{ViewHome, ViewSelectLocker, ViewRFID, ViewOpenLocker, ViewPin, ViewFingerprint}
}

var templateFuncs = template.FuncMap{
	"route": func(name string) (string, error) {
		p := Route(name).Path()
		if p == "" {
			return "", fmt.Errorf("unknown route %q", name)
		}
		return p, nil
	},
}

// TemplateRenderer renders html/template views, each wrapped in layout.html.
type TemplateRenderer struct {
	fsys   fs.FS
	reload bool
	cache  map[View]*template.Template
}

// NewTemplateRenderer parses the built-in templates, or, when dir is set,
// the templates in dir. Templates from dir are re-read on every render so
// they can be edited while the kiosk runs.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	t := &TemplateRenderer{cache: make(map[View]*template.Template)}
	if dir != "" {
		t.fsys = os.DirFS(dir)
		t.reload = true
	} else {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			return nil, err
		}
		t.fsys = sub
	}

	// Parse everything up front so a broken template fails start-up.
	for _, v := range views() {
		tmpl, err := t.parse(v)
		if err != nil {
			return nil, err
		}
		t.cache[v] = tmpl
	}
	return t, nil
}

func (t *TemplateRenderer) parse(view View) (*template.Template, error) {
	tmpl, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(t.fsys, layoutTemplate, string(view)+".html")
	if err != nil {
		return nil, fmt.Errorf("parse view %s: %w", view, err)
	}
	return tmpl, nil
}

// Render writes view wrapped in the layout.
func (t *TemplateRenderer) Render(w io.Writer, view View, page Page) error {
	tmpl, ok := t.cache[view]
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	if t.reload {
		var err error
		if tmpl, err = t.parse(view); err != nil {
			return err
		}
	}
	if page.Title == "" {
		page.Title = viewTitles[view]
	}
	return tmpl.Execute(w, page)
}
