// Package report renders a result as a downloadable PDF.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jung-kurt/gofpdf"

	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/trait"
	"crypto-persona-backend/internal/transport"
)

// ErrNotFound is returned for codes without a profile.
var ErrNotFound = errors.New("personality type not found")

const defaultCacheSize = 64

// Options configures a Renderer.
type Options struct {
	// FontPath is a UTF-8 TrueType font. Without it only Latin text is rendered.
	FontPath  string
	FontName  string
	StaticDir string
	ScaleMax  int
	CacheSize int
	PublicURL string
	Metrics   *metrics.Recorder
}

// Renderer builds PDF reports and keeps recently rendered ones.
type Renderer struct {
	opts    Options
	unicode bool
	cache   *lru.Cache[string, []byte]
}

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.FontName == "" {
		opts.FontName = "NotoSansSC"
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create report cache: %w", err)
	}
	r := &Renderer{opts: opts, cache: cache}
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err != nil {
			return nil, fmt.Errorf("report font: %w", err)
		}
		r.unicode = true
	}
	return r, nil
}

// Render returns the PDF of a looked-up result. Identical requests are served from
// the cache.
func (r *Renderer) Render(res transport.LookupResult, scores model.DimensionScores, lang locale.Language) ([]byte, error) {
	if !res.Found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, res.Code)
	}
	key := string(lang) + "|" + transport.Encode(res.Code, scores)
	if data, ok := r.cache.Get(key); ok {
		r.opts.Metrics.ReportCache(true)
		return data, nil
	}
	r.opts.Metrics.ReportCache(false)

	data, err := r.render(res.Profile, scores, locale.Mounted(lang))
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, data)
	return data, nil
}

// CacheLen reports how many reports are cached.
func (r *Renderer) CacheLen() int {
	return r.cache.Len()
}

var barColors = map[string][3]int{
	"indigo":  {79, 70, 229},
	"emerald": {16, 185, 129},
	"purple":  {147, 51, 234},
	"rose":    {225, 29, 72},
}

func (r *Renderer) render(p model.PersonalityProfile, scores model.DimensionScores, res *locale.Resolver) ([]byte, error) {
	// Core fonts cannot draw CJK text, so fall back to English labels.
	if !r.unicode {
		res = locale.Mounted(locale.English)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetTitle(fmt.Sprintf("%s %s", p.Code, p.Name.EN), true)
	pdf.SetCreator("crypto-persona-backend", true)

	family := "Helvetica"
	if r.unicode {
		family = r.opts.FontName
		pdf.AddUTF8Font(family, "", r.opts.FontPath)
		pdf.AddUTF8Font(family, "B", r.opts.FontPath)
	}
	pdf.AddPage()

	// Header
	pdf.SetFont(family, "B", 28)
	pdf.CellFormat(0, 14, string(p.Code), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 10, res.Resolve(p.Name.ZH, p.Name.EN), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if img := r.imagePath(p.Image); img != "" {
		pdf.Image(img, 75, pdf.GetY(), 60, 60, false, "", 0, "")
		pdf.Ln(64)
	}

	if r.unicode {
		pdf.SetFont(family, "", 11)
		if len(p.Tags) > 0 {
			pdf.CellFormat(0, 7, strings.Join(p.Tags, " / "), "", 1, "C", false, 0, "")
		}
		pdf.MultiCell(0, 6, p.Description, "", "L", false)
		pdf.Ln(2)
		pdf.SetFont(family, "", 12)
		pdf.MultiCell(0, 7, "“"+p.Quote+"”", "", "C", false)
		pdf.Ln(4)
	}

	// Trait bars
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 9, res.Resolve("特质分析", "Trait Analysis"), "", 1, "L", false, 0, "")
	for _, bar := range trait.Bars(scores, r.opts.ScaleMax) {
		r.drawBar(pdf, family, bar, res)
	}

	if r.unicode {
		r.list(pdf, family, res.Resolve("优势", "Strengths"), p.Strengths)
		r.list(pdf, family, res.Resolve("劣势", "Weaknesses"), p.Weaknesses)
	}

	if p.FamousFigure.Name != "" {
		pdf.Ln(3)
		pdf.SetFont(family, "B", 12)
		pdf.CellFormat(0, 8, res.Resolve("代表人物", "Famous Figure")+": "+p.FamousFigure.Name, "", 1, "L", false, 0, "")
		if r.unicode && p.FamousFigure.Description != "" {
			pdf.SetFont(family, "", 11)
			pdf.MultiCell(0, 6, p.FamousFigure.Description, "", "L", false)
		}
	}

	if r.opts.PublicURL != "" {
		pdf.Ln(4)
		pdf.SetFont(family, "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 6, strings.TrimSuffix(r.opts.PublicURL, "/")+transport.Encode(p.Code, scores), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report %s: %w", p.Code, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawBar(pdf *gofpdf.Fpdf, family string, bar trait.Bar, res *locale.Resolver) {
	const (
		x      = 20.0
		width  = 170.0
		height = 5.0
	)
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 6, res.Resolve(bar.Label.ZH, bar.Label.EN), "", 1, "L", false, 0, "")

	y := pdf.GetY()
	pdf.SetFillColor(229, 231, 235)
	pdf.Rect(x, y, width, height, "F")
	if fill := bar.FillWidth(); fill > 0 {
		c := barColors[bar.Color]
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.Rect(x+width*bar.FillStart()/100, y, width*fill/100, height, "F")
	}
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(x+width/2, y-1, x+width/2, y+height+1)
	pdf.Ln(height + 1)

	pdf.SetFont(family, "", 9)
	left := res.Resolve(bar.Left.ZH, bar.Left.EN)
	right := res.Resolve(bar.Right.ZH, bar.Right.EN)
	if l := bar.LeftLabel(); l != "" {
		left += " " + l
	}
	if rl := bar.RightLabel(); rl != "" {
		right = rl + " " + right
	}
	pdf.SetX(x)
	pdf.CellFormat(width/2, 5, left, "", 0, "L", false, 0, "")
	pdf.CellFormat(width/2, 5, right, "", 1, "R", false, 0, "")
	pdf.Ln(2)
}

func (r *Renderer) list(pdf *gofpdf.Fpdf, family, title string, items []string) {
	if len(items) == 0 {
		return
	}
	pdf.Ln(2)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	for _, item := range items {
		pdf.MultiCell(0, 6, "- "+item, "", "L", false)
	}
}

// imagePath maps a profile image URL onto the static directory. Missing files are
// skipped.
func (r *Renderer) imagePath(image string) string {
	if r.opts.StaticDir == "" || image == "" {
		return ""
	}
	rel := strings.TrimPrefix(image, "/static/")
	path := filepath.Join(r.opts.StaticDir, filepath.FromSlash(rel))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
