// Package view renders the HTML pages. Every render receives the request's locale
// resolver explicitly.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/trait"
	"crypto-persona-backend/internal/transport"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"landing", "quiz", "result", "notfound", "types"}

// Page is the data every template needs.
type Page struct {
	L    *locale.Resolver
	Path string
}

type landingData struct {
	Page
	Total int
}

type quizData struct {
	Page
	Scale []model.ScalePoint
}

type resultData struct {
	Page
	Profile  model.PersonalityProfile
	Bars     []trait.Bar
	ShareURL string
	PDFURL   string
}

type notFoundData struct {
	Page
	Code model.PersonalityCode
}

type typesData struct {
	Page
	Profiles []model.PersonalityProfile
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
	scaleMax  int
}

var funcs = template.FuncMap{
	"text": func(l *locale.Resolver, t model.LocalizedText) string {
		return l.Resolve(t.ZH, t.EN)
	},
	"pct": func(v float64) template.CSS {
		return template.CSS(fmt.Sprintf("%.2f%%", v))
	},
}

// New parses every page against the shared layout.
func New(scaleMax int) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages)), scaleMax: scaleMax}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *Renderer) execute(w io.Writer, name string, data interface{}) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) Landing(w io.Writer, p Page, total int) error {
	return r.execute(w, "landing", landingData{Page: p, Total: total})
}

func (r *Renderer) Quiz(w io.Writer, p Page) error {
	return r.execute(w, "quiz", quizData{Page: p, Scale: model.Scale})
}

// Result renders the report of a lookup, or the not-found view on a miss.
func (r *Renderer) Result(w io.Writer, p Page, res transport.LookupResult, scores model.DimensionScores, shareURL string) error {
	if !res.Found {
		return r.execute(w, "notfound", notFoundData{Page: p, Code: res.Code})
	}
	return r.execute(w, "result", resultData{
		Page:     p,
		Profile:  res.Profile,
		Bars:     trait.Bars(scores, r.scaleMax),
		ShareURL: shareURL,
		PDFURL:   PDFRoute(res.Code, scores),
	})
}

func (r *Renderer) Types(w io.Writer, p Page, profiles []model.PersonalityProfile) error {
	return r.execute(w, "types", typesData{Page: p, Profiles: profiles})
}

// PDFRoute is the download route of a result's PDF report.
func PDFRoute(code model.PersonalityCode, scores model.DimensionScores) string {
	return fmt.Sprintf("%s%s/report.pdf?%s", transport.ResultsPrefix, code, transport.EncodeQuery(scores))
}
