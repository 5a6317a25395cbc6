package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/report"
	"crypto-persona-backend/internal/trait"
	"crypto-persona-backend/internal/transport"
	"crypto-persona-backend/internal/view"
	"crypto-persona-backend/utilities"
)

type ResultController struct {
	catalog   *catalog.Catalog
	views     *view.Renderer
	reports   *report.Renderer
	metrics   *metrics.Recorder
	scaleMax  int
	publicURL string
}

func NewResultController(c *catalog.Catalog, views *view.Renderer, reports *report.Renderer, m *metrics.Recorder, scaleMax int, publicURL string) *ResultController {
	return &ResultController{
		catalog:   c,
		views:     views,
		reports:   reports,
		metrics:   m,
		scaleMax:  scaleMax,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

type traitView struct {
	Dimension model.Dimension `json:"dimension"`
	trait.Trait
}

type resultResponse struct {
	Code    model.PersonalityCode     `json:"code"`
	Found   bool                      `json:"found"`
	Profile *model.PersonalityProfile `json:"profile,omitempty"`
	Scores  model.DimensionScores     `json:"scores"`
	Traits  []traitView               `json:"traits,omitempty"`
	URL     string                    `json:"url"`
}

func (rc *ResultController) decode(c *gin.Context) (transport.LookupResult, model.DimensionScores) {
	code, scores := transport.DecodeParams(c.Param("code"), c.Request.URL.Query())
	res := transport.Lookup(code, rc.catalog)
	rc.metrics.ResultLookup(res.Found)
	return res, scores
}

// GetResult renders a report route. An unknown code is a normal outcome rendered with
// the not-found view and a 200.
func (rc *ResultController) GetResult(c *gin.Context) {
	res, scores := rc.decode(c)
	shareURL := rc.publicURL + transport.Encode(res.Code, scores)

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		body := resultResponse{Code: res.Code, Found: res.Found, Scores: scores, URL: shareURL}
		if res.Found {
			profile := res.Profile
			body.Profile = &profile
			for _, bar := range trait.Bars(scores, rc.scaleMax) {
				body.Traits = append(body.Traits, traitView{Dimension: bar.Dimension, Trait: bar.Trait})
			}
		}
		c.JSON(http.StatusOK, body)
		return
	}

	var buf bytes.Buffer
	if err := rc.views.Result(&buf, pageFor(c), res, scores, shareURL); err != nil {
		renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// DownloadReport serves the PDF of a known result.
func (rc *ResultController) DownloadReport(c *gin.Context) {
	res, scores := rc.decode(c)
	data, err := rc.reports.Render(res, scores, resolverFor(c).Language())
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personality type not found", "code": res.Code})
		return
	}
	if err != nil {
		utilities.Error("render report %s: %v", res.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", res.Code))
	c.Data(http.StatusOK, "application/pdf", data)
}

// GetTypes lists every profile ordered by code.
func (rc *ResultController) GetTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": rc.catalog.Profiles()})
}
