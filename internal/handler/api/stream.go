package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinResearch/internal/domain/models"
	"FinResearch/internal/usecase"
	xhttp "FinResearch/pkg/http"
	xlogger "FinResearch/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamEvent is one websocket frame: progress events while the run is in
// flight, then a single result frame.
type StreamEvent struct {
	Type      string                   `json:"type"`
	RunID     string                   `json:"run_id,omitempty"`
	Section   string                   `json:"section,omitempty"`
	Stage     string                   `json:"stage,omitempty"`
	Kind      string                   `json:"kind,omitempty"`
	Message   string                   `json:"message,omitempty"`
	ElapsedMS int64                    `json:"elapsed_ms,omitempty"`
	Result    *models.ResearchResponse `json:"result,omitempty"`
}

const (
	EventProgress = "progress"
	EventResult   = "result"
)

func progressEvent(ev usecase.ProgressEvent) StreamEvent {
	return StreamEvent{
		Type:      EventProgress,
		RunID:     ev.RunID,
		Section:   string(ev.Section),
		Stage:     ev.Stage,
		Kind:      string(ev.Kind),
		Message:   ev.Message,
		ElapsedMS: ev.Elapsed.Milliseconds(),
	}
}

// wsWriter serializes writes; gorilla connections allow one concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) writeJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) writeControl(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(kind, data, time.Now().Add(writeWait))
}

// Stream upgrades to a websocket, streams section progress for one research
// run and finishes with the result. A client disconnect cancels the run.
func (h *ResearchHandler) Stream(c echo.Context) error {
	token, err := normalizeToken(c.QueryParam("token"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if !h.rl.Allow(c.RealIP()+":research", rateCapacity, rateRefillPerSec) {
		return xhttp.AppErrorResponse(c, errRateLimited())
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("research stream upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()
	w := &wsWriter{conn: conn}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Incoming frames are ignored; a read error means the client left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.writeControl(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	report := h.research.Run(ctx, token, false, func(ev usecase.ProgressEvent) {
		if err := w.writeJSON(progressEvent(ev)); err != nil {
			h.logger.Debug("research stream write failed", xlogger.Error(err))
		}
	})
	resp := models.NewResearchResponse(report.Result, report.Sections)
	if err := w.writeJSON(StreamEvent{Type: EventResult, RunID: resp.RunID, Result: &resp}); err != nil {
		h.logger.Debug("research stream write failed", xlogger.Error(err))
		return nil
	}
	_ = w.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	return nil
}
