package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

const (
	logPollInterval = 200 * time.Millisecond
	pingPeriod      = 20 * time.Second
	pongWait        = 2 * pingPeriod
	writeWait       = 5 * time.Second
	// RFC 6455 caps a close frame reason at 123 bytes.
	maxCloseReason = 123
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamRunLogs streams run log lines over WebSocket until the run finishes.
// The close frame carries the final status, plus the error for failed runs.
func (s *Server) StreamRunLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run := s.Runs.Get(id)
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	log := s.Log.With().Str("run_id", id).Str("remote", r.RemoteAddr).Logger()

	// Clients only send pongs and close frames; the reader handles both and
	// reports when the peer goes away.
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(logPollInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	offset := 0
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			log.Debug().Msg("log stream client went away")
			return
		case <-s.ctx.Done():
			closeStream(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-poll.C:
			done := run.Done()
			lines := run.LogsSince(offset)
			for _, line := range lines {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return
				}
				offset++
			}
			if done && len(lines) == 0 {
				closeStream(conn, websocket.CloseNormalClosure, closeReason(run.Snapshot()))
				return
			}
		}
	}
}

func closeStream(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func closeReason(run *models.Run) string {
	reason := run.Status
	if run.Error != "" {
		reason += ": " + run.Error
	}
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return reason
}
