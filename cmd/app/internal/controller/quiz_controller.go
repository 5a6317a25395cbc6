package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/quiz"
	"crypto-persona-backend/internal/scoring"
	"crypto-persona-backend/internal/transport"
	"crypto-persona-backend/utilities"
)

const writeWait = 10 * time.Second

type QuizController struct {
	catalog   *catalog.Catalog
	metrics   *metrics.Recorder
	bus       *utilities.EventBus
	lockDelay time.Duration
	publicURL string
	upgrader  websocket.Upgrader
}

func NewQuizController(c *catalog.Catalog, m *metrics.Recorder, bus *utilities.EventBus, lockDelay time.Duration, publicURL string) *QuizController {
	if bus == nil {
		bus = utilities.GlobalEventBus
	}
	return &QuizController{
		catalog:   c,
		metrics:   m,
		bus:       bus,
		lockDelay: lockDelay,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type questionItem struct {
	ID        int             `json:"id"`
	Dimension model.Dimension `json:"dimension"`
	Statement string          `json:"statement"`
}

type scaleItem struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// GetQuestions returns the catalog in presentation order, resolved for the request.
func (qc *QuizController) GetQuestions(c *gin.Context) {
	l := resolverFor(c)
	questions := qc.catalog.Questions()
	items := make([]questionItem, 0, len(questions))
	for _, q := range questions {
		items = append(items, questionItem{ID: q.ID, Dimension: q.Dimension, Statement: l.Resolve(q.Statement.ZH, q.Statement.EN)})
	}
	scale := make([]scaleItem, 0, len(model.Scale))
	for _, p := range model.Scale {
		scale = append(scale, scaleItem{Value: p.Value, Label: l.Resolve(p.Label.ZH, p.Label.EN)})
	}
	c.JSON(http.StatusOK, gin.H{
		"language":  l.Language(),
		"total":     len(items),
		"questions": items,
		"scale":     scale,
	})
}

type scoreRequest struct {
	Answers model.Answers `json:"answers"`
}

// CompletedResult is the payload published when a quiz completes.
type CompletedResult struct {
	Code   model.PersonalityCode `json:"code"`
	Scores model.DimensionScores `json:"scores"`
	Route  string                `json:"route"`
	URL    string                `json:"url"`
}

// Score evaluates a full answer set in one call.
func (qc *QuizController) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	for id, v := range req.Answers {
		if !model.OnScale(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Answer out of scale", "question_id": id, "value": v})
			return
		}
	}

	scores, code := scoring.Evaluate(req.Answers, qc.catalog.Questions())
	res := qc.completed(code, scores, "api")
	c.JSON(http.StatusOK, res)
}

func (qc *QuizController) completed(code model.PersonalityCode, scores model.DimensionScores, source string) CompletedResult {
	route := transport.Encode(code, scores)
	res := CompletedResult{Code: code, Scores: scores, Route: route, URL: qc.publicURL + route}
	qc.metrics.ResultScored(string(code), source)
	qc.bus.Publish(utilities.EventQuizCompleted, res)
	return res
}

type clientMessage struct {
	Type  string `json:"type"`
	Value *int   `json:"value"`
}

type serverMessage struct {
	Type     string           `json:"type"`
	Snapshot *quiz.Snapshot   `json:"snapshot,omitempty"`
	Result   *CompletedResult `json:"result,omitempty"`
	Route    string           `json:"route,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// QuizSocket runs one quiz session over a websocket. The client sends answer, forward
// and back messages; the server pushes a snapshot after every change and a completed
// message with the report route at the end.
func (qc *QuizController) QuizSocket(c *gin.Context) {
	conn, err := qc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utilities.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log := utilities.L().With(zap.String("session_id", sessionID))
	qc.metrics.SessionOpened()
	defer qc.metrics.SessionClosed()

	out := make(chan serverMessage, 16)
	done := make(chan struct{})
	defer close(done)
	push := func(msg serverMessage) {
		select {
		case out <- msg:
		case <-done:
		}
	}

	session, err := quiz.NewSession(qc.catalog.Questions(),
		quiz.WithLockDelay(qc.lockDelay),
		quiz.WithOnChange(func(s quiz.Snapshot) {
			push(serverMessage{Type: "snapshot", Snapshot: &s})
		}),
		quiz.WithOnComplete(func(r quiz.Result) {
			res := qc.completed(r.Code, r.Scores, "ws")
			push(serverMessage{Type: "completed", Result: &res, Route: r.Route})
		}),
	)
	if err != nil {
		log.Error("quiz session", zap.Error(err))
		return
	}
	defer session.Close()

	first := session.Snapshot()
	if err := qc.write(conn, serverMessage{Type: "snapshot", Snapshot: &first}); err != nil {
		return
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			switch msg.Type {
			case "answer":
				if msg.Value == nil {
					push(serverMessage{Type: "error", Error: "answer needs a value"})
					continue
				}
				session.Answer(*msg.Value)
			case "forward":
				session.Forward()
			case "back":
				session.Back()
			default:
				push(serverMessage{Type: "error", Error: "unknown message type"})
			}
		}
	}()

	for {
		select {
		case msg := <-out:
			if err := qc.write(conn, msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
			if msg.Type == "completed" {
				log.Info("quiz completed", zap.String("code", string(msg.Result.Code)))
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "completed"),
					time.Now().Add(writeWait))
				return
			}
		case err := <-readErr:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
	}
}

func (qc *QuizController) write(conn *websocket.Conn, msg serverMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
