package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/report"
	"crypto-persona-backend/internal/scoring"
	"crypto-persona-backend/internal/transport"
	"crypto-persona-backend/internal/view"
	"crypto-persona-backend/utilities"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	views, err := view.New(20)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)
	reports, err := report.NewRenderer(report.Options{Metrics: rec})
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Catalog:   catalog.MustLoad(),
		Views:     views,
		Reports:   reports,
		Locale:    locale.NewStore(""),
		Metrics:   rec,
		Gatherer:  reg,
		Bus:       utilities.NewEventBus(),
		PublicURL: "https://persona.example/",
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newRouter(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetQuestionsFollowsLanguageCookie(t *testing.T) {
	r := newRouter(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var zh struct {
		Language  string `json:"language"`
		Total     int    `json:"total"`
		Questions []struct {
			ID        int    `json:"id"`
			Statement string `json:"statement"`
		} `json:"questions"`
		Scale []struct {
			Value int `json:"value"`
		} `json:"scale"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zh))
	assert.Equal(t, "zh", zh.Language)
	assert.Equal(t, 16, zh.Total)
	assert.Len(t, zh.Questions, 16)
	assert.Len(t, zh.Scale, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	req.AddCookie(&http.Cookie{Name: locale.DefaultCookieName, Value: "en"})
	w = do(r, req)
	assert.Contains(t, w.Body.String(), `"language":"en"`)
}

func TestScoreRejectsOffScaleAnswer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(`{"answers":{"1":2}}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(newRouter(t), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Answer out of scale")
}

func TestScoreReturnsRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(newRouter(t), req)
	require.Equal(t, http.StatusOK, w.Code)

	var res CompletedResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.PersonalityCode("LAEB"), res.Code)
	assert.Equal(t, "/results/LAEB?time=0&risk=0&decision=0&role=0", res.Route)
	assert.Equal(t, "https://persona.example"+res.Route, res.URL)
}

func TestResultPage(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/results/LCEP?time=8&risk=-3&decision=1&role=-6", nil)
	req.AddCookie(&http.Cookie{Name: locale.DefaultCookieName, Value: "en"})
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Believer Sloth")

	w = do(r, httptest.NewRequest(http.MethodGet, "/results/zzzz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "未找到人格类型")
}

func TestResultJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/results/lcep?time=abc&risk=-3", nil)
	req.Header.Set("Accept", "application/json")
	w := do(newRouter(t), req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Code   string                `json:"code"`
		Found  bool                  `json:"found"`
		Scores model.DimensionScores `json:"scores"`
		Traits []struct {
			Dimension string `json:"dimension"`
			Percent   int    `json:"percent"`
		} `json:"traits"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "LCEP", body.Code)
	assert.True(t, body.Found)
	assert.Equal(t, model.DimensionScores{Risk: -3}, body.Scores)
	require.Len(t, body.Traits, 4)
	assert.Equal(t, 15, body.Traits[1].Percent)
	assert.Equal(t, "https://persona.example/results/LCEP?time=0&risk=-3&decision=0&role=0", body.URL)
}

func TestDownloadReport(t *testing.T) {
	r := newRouter(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/results/SAEB/report.pdf?time=-4&risk=6", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=SAEB.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = do(r, httptest.NewRequest(http.MethodGet, "/results/XXXX/report.pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTypes(t *testing.T) {
	w := do(newRouter(t), httptest.NewRequest(http.MethodGet, "/api/types", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Profiles []model.PersonalityProfile `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Profiles, catalog.ProfileCount)
}

func TestSetLanguage(t *testing.T) {
	r := newRouter(t)

	w := do(r, httptest.NewRequest(http.MethodPost, "/lang/en", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"language":"en"}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), locale.DefaultCookieName+"=en")

	req := httptest.NewRequest(http.MethodPost, "/lang/zh", strings.NewReader("redirect=/types"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = do(r, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/types", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodPost, "/lang/en", strings.NewReader("redirect=//evil.example"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/lang/fr", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLangQueryOverridesAndPersists(t *testing.T) {
	w := do(newRouter(t), httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), locale.DefaultCookieName+"=en")
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t)
	do(r, httptest.NewRequest(http.MethodGet, "/results/LCEP", nil))

	w := do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `crypto_persona_result_lookups_total{outcome="found"} 1`)
}

func TestQuizSocketCompletesSession(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/quiz/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first serverMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 16, first.Snapshot.Total)
	assert.Equal(t, 0, first.Snapshot.Index)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "dance"}))
	var errMsg serverMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "answer"}))
	var missing serverMessage
	require.NoError(t, conn.ReadJSON(&missing))
	assert.Equal(t, "error", missing.Type)
	assert.Equal(t, "answer needs a value", missing.Error)

	questions := catalog.MustLoad().Questions()
	answers := model.Answers{}
	for _, q := range questions {
		answers[q.ID] = 3
	}
	scores, code := scoring.Evaluate(answers, questions)

	var completed serverMessage
	for range questions {
		value := 3
		require.NoError(t, conn.WriteJSON(clientMessage{Type: "answer", Value: &value}))
	}
	for {
		var msg serverMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "completed" {
			completed = msg
			break
		}
	}
	require.NotNil(t, completed.Result)
	assert.Equal(t, code, completed.Result.Code)
	assert.Equal(t, transport.Encode(code, scores), completed.Route)
}

func TestResolverForFollowsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, resolverFor(c).IsMounted())

	r := gin.New()
	r.Use(LocaleMiddleware(locale.NewStore("")))
	var mounted bool
	var lang locale.Language
	r.GET("/", func(c *gin.Context) {
		l := resolverFor(c)
		mounted, lang = l.IsMounted(), l.Language()
	})
	do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, mounted)
	assert.Equal(t, locale.Default, lang)
}
