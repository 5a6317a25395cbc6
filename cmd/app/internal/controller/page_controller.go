package controller

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/view"
	"crypto-persona-backend/utilities"
)

type PageController struct {
	catalog *catalog.Catalog
	views   *view.Renderer
}

func NewPageController(c *catalog.Catalog, views *view.Renderer) *PageController {
	return &PageController{catalog: c, views: views}
}

func (pc *PageController) Landing(c *gin.Context) {
	var buf bytes.Buffer
	if err := pc.views.Landing(&buf, pageFor(c), pc.catalog.Len()); err != nil {
		renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (pc *PageController) Quiz(c *gin.Context) {
	var buf bytes.Buffer
	if err := pc.views.Quiz(&buf, pageFor(c)); err != nil {
		renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (pc *PageController) Types(c *gin.Context) {
	var buf bytes.Buffer
	if err := pc.views.Types(&buf, pageFor(c), pc.catalog.Profiles()); err != nil {
		renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (pc *PageController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func renderError(c *gin.Context, err error) {
	utilities.Error("render %s: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
}
