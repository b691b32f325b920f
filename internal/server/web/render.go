package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

//go:embed templates
var templateFS embed.FS

// FormValues echoes submitted fields back into a re-rendered form.
type FormValues struct {
	Username string
	Title    string
	Body     string
}

// ViewData is everything a page template may read.
type ViewData struct {
	Title         string
	Description   string
	CurrentRoute  string
	Authenticated bool
	Flash         []string
	Error         string
	Status        int

	Posts      []*models.Post
	Post       *models.Post
	Page       *models.Page
	SearchTerm string
	Form       FormValues
}

// Renderer writes the named page for data.
type Renderer interface {
	Render(w io.Writer, name string, data *ViewData) error
}

// TemplateRenderer renders the embedded html/template pages, each wrapped
// in the shared layout.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"excerpt": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return strings.TrimSpace(string([]rune(s)[:n])) + "…"
	},
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[name] = t
	}
	return &TemplateRenderer{pages: pages}, nil
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data *ViewData) error {
	tpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tpl.ExecuteTemplate(w, "layout.html", data)
}
