package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/filter"
	"github.com/erazemk/findit/internal/model"
	webembed "github.com/erazemk/findit/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusActive:
				return "Active"
			case model.ItemStatusResolved:
				return "Resolved"
			case model.ItemStatusClosed:
				return "Closed"
			default:
				return status
			}
		},
		"typeName": func(itemType string) string {
			switch itemType {
			case model.ItemTypeLost:
				return "Lost"
			case model.ItemTypeFound:
				return "Found"
			default:
				return itemType
			}
		},
		"rangeName": func(r string) string {
			switch r {
			case filter.RangeWeek:
				return "Past week"
			case filter.RangeMonth:
				return "Past month"
			case filter.RangeYear:
				return "Past year"
			default:
				return "Any time"
			}
		},
		"date": func(d model.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("Jan 2, 2006")
		},
		"ago":        humanize.Time,
		"timestamp":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"categories": func() []string { return model.Categories },
		"itemTypes":  func() []string { return model.ItemTypes },
		"statuses":   func() []string { return model.ItemStatuses },
		"dateRanges": func() []string { return filter.DateRanges },
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"register.html",
		"home.html",
		"item_detail.html",
		"item_form.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-default status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *model.Principal
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *db.DB
	Board     *board.Store
	Templates *Templates
	JWTSecret string
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{Title: title, User: CurrentUser(r.Context())}
}
