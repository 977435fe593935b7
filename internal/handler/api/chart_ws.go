package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ChartFeed/internal/domain/models"
	xhttp "ChartFeed/pkg/http"
	xlogger "ChartFeed/pkg/logger"
)

const (
	wsReadLimit    = 4096
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

type wsError struct {
	Error  string                  `json:"error"`
	Detail []xhttp.ValidationError `json:"detail,omitempty"`
}

// Socket upgrades to a websocket. Each text frame {"symbol","range"} is answered with a
// chart frame, or an error frame when the request is rejected.
func (h *ChartEchoHandler) Socket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.metrics.Fail("ws", "upgrade")
		h.logger.Warn("ws upgrade error", xlogger.Error(err))
		return nil
	}
	h.metrics.SocketOpened()
	defer h.metrics.SocketClosed()
	defer conn.Close()

	remote := c.RealIP()
	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx := c.Request().Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", xlogger.String("remote", remote), xlogger.Error(err))
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		start := time.Now()
		reply := h.answer(ctx, remote, msg)
		h.metrics.Observe("ws", start)

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("ws write error", xlogger.String("remote", remote), xlogger.Error(err))
			return nil
		}
	}
}

func (h *ChartEchoHandler) answer(ctx context.Context, remote string, msg []byte) any {
	if h.rl != nil && h.capacity > 0 && !h.rl.Allow(remote, h.capacity, h.refill) {
		h.metrics.Fail("ws", "rate_limited")
		return wsError{Error: http.StatusText(http.StatusTooManyRequests)}
	}

	req := &models.ChartRequest{}
	if err := json.Unmarshal(msg, req); err != nil {
		h.metrics.Fail("ws", "malformed")
		return wsError{Error: "malformed request: " + err.Error()}
	}
	req.Range = strings.ToUpper(strings.TrimSpace(req.Range))
	if verr := xhttp.ValidateStruct(req); verr != nil {
		h.metrics.Fail("ws", "validation")
		return wsError{Error: "invalid request", Detail: verr}
	}
	return newChartResponse(h.svc.Series(ctx, req.Symbol, req.Range))
}

// keepAlive pings until done closes. WriteControl may run concurrently with WriteJSON.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
