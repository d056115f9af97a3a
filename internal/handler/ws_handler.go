package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/service"
	"github.com/prepstem/ieltsmock-backend/internal/session"
	ws "github.com/prepstem/ieltsmock-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a running session: answer saves and submit over the
// socket, countdown ticks and the scored result pushed back.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; the tick pusher and the read loop share the
// underlying connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws.WriteError(w.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream?token=...
// Upgrades to WebSocket for real-time answer saves and the countdown feed.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID := c.Param("session_id")

	// Reject before upgrading when the session is already gone.
	if _, err := h.sessionService.State(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()

	conn := &wsConn{conn: raw}
	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	wsLog.Info().Msg("Candidate connected")

	done := make(chan struct{})
	defer close(done)
	go h.pushTicks(conn, sessionID, done, wsLog)

	for {
		var msg ws.AnswerRequest
		if err := ws.ReadJSON(raw, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(c, conn, sessionID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(c, conn, sessionID, wsLog)
		case ws.ActionPing:
			conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			conn.writeError("unknown action")
		}
	}
}

func (h *WSHandler) handleAnswer(c *gin.Context, conn *wsConn, sessionID string, msg *ws.AnswerRequest) {
	if err := h.sessionService.SetAnswer(c.Request.Context(), sessionID, msg.Number, msg.Answer); err != nil {
		conn.writeError(err.Error())
		return
	}
	conn.write(ws.AnswerResponse{Event: ws.EventSuccess, Number: msg.Number})
}

func (h *WSHandler) handleSubmit(c *gin.Context, conn *wsConn, sessionID string, wsLog zerolog.Logger) {
	result, err := h.sessionService.Submit(c.Request.Context(), sessionID)
	if err != nil {
		conn.writeError(err.Error())
		return
	}

	snap, stateErr := h.sessionService.State(c.Request.Context(), sessionID)
	expired := stateErr == nil && snap.Expired

	wsLog.Info().Int("correct", result.Correct).Float64("band", result.Band).Msg("Submitted over socket")
	conn.write(ws.ScoredResponse{
		Event:   ws.EventScored,
		Correct: result.Correct,
		Band:    result.Band,
		Expired: expired,
	})
}

// pushTicks sends the remaining time once per second while the session runs,
// then a single scored event when it finishes.
func (h *WSHandler) pushTicks(conn *wsConn, sessionID string, done <-chan struct{}, wsLog zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	scoredSent := false
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap, err := h.sessionService.State(context.Background(), sessionID)
			if err != nil {
				return
			}

			switch {
			case snap.Phase == session.PhaseRunning:
				conn.write(ws.TickResponse{Event: ws.EventTick, RemainingSeconds: snap.RemainingSeconds})
			case snap.Submitted && !scoredSent:
				scoredSent = true
				conn.write(ws.ScoredResponse{
					Event:   ws.EventScored,
					Correct: snap.Result.Correct,
					Band:    snap.Result.Band,
					Expired: snap.Expired,
				})
				wsLog.Debug().Msg("Scored event pushed")
			}
		}
	}
}
