package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/transsync/schedule-api/internal/domain"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// PositionsResponse is the body of GET /positions.
type PositionsResponse struct {
	Data []domain.Position `json:"data"`
}

// ListPositions handles GET /positions.
// It returns the latest known position of every vehicle.
func (s *Server) ListPositions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PositionsResponse{Data: s.positions.Latest()})
}

// StreamPositions handles GET /positions/stream.
// After the upgrade it sends the latest position of every vehicle, then one
// JSON message per update until either side closes. Client messages are
// read only to process control frames.
func (s *Server) StreamPositions(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	latest, updates, cancel := s.positions.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.DebugContext(r.Context(), "websocket closed unexpectedly", "error", err)
				}
				return
			}
		}
	}()

	for _, p := range latest {
		if err := writePosition(conn, p); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := writePosition(conn, p); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writePosition(conn *websocket.Conn, p domain.Position) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(p)
}
