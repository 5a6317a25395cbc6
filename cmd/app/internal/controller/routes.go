package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/report"
	"crypto-persona-backend/internal/view"
	"crypto-persona-backend/utilities"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Catalog   *catalog.Catalog
	Views     *view.Renderer
	Reports   *report.Renderer
	Locale    *locale.Store
	Metrics   *metrics.Recorder
	Gatherer  prometheus.Gatherer
	Bus       *utilities.EventBus
	LockDelay time.Duration
	ScaleMax  int
	PublicURL string
	StaticDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(LocaleMiddleware(d.Locale))

	// Page routes.
	pageCtrl := NewPageController(d.Catalog, d.Views)
	r.GET("/", pageCtrl.Landing)
	r.GET("/quiz", pageCtrl.Quiz)
	r.GET("/types", pageCtrl.Types)
	r.GET("/health", pageCtrl.Health)

	// Quiz routes.
	quizCtrl := NewQuizController(d.Catalog, d.Metrics, d.Bus, d.LockDelay, d.PublicURL)
	apiRoutes := r.Group("/api")
	{
		apiRoutes.GET("/questions", quizCtrl.GetQuestions)
		apiRoutes.POST("/score", quizCtrl.Score)
	}
	r.GET("/quiz/ws", quizCtrl.QuizSocket)

	// Result routes.
	resultCtrl := NewResultController(d.Catalog, d.Views, d.Reports, d.Metrics, d.ScaleMax, d.PublicURL)
	r.GET("/results/:code", resultCtrl.GetResult)
	r.GET("/results/:code/report.pdf", resultCtrl.DownloadReport)
	apiRoutes.GET("/types", resultCtrl.GetTypes)

	// Locale routes.
	localeCtrl := NewLocaleController(d.Locale)
	r.POST("/lang/:lang", localeCtrl.SetLanguage)

	// Static and operational routes.
	if d.StaticDir != "" {
		r.Static("/static", d.StaticDir)
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
