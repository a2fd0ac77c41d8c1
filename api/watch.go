package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// watchPingPeriod is the keepalive cadence of the watch stream.
const watchPingPeriod = 30 * time.Second

// handleWatch handles GET /api/v1/watch
//
// The connection is upgraded to a websocket that carries one snapshot summary
// immediately (when the registry is ready) and one per subsequent publish.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("watch upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := s.pool.Subscribe()
	defer cancel()

	// No client frames are expected, but reading is what surfaces
	// disconnects and services control messages.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if status := s.pool.Status(); status.Ready {
		if err := conn.WriteJSON(WatchEvent{Type: "snapshot", Status: status}); err != nil {
			return
		}
	}

	pings := time.NewTicker(watchPingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-disconnected:
			return
		case <-r.Context().Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(WatchEvent{Type: "snapshot", Status: status}); err != nil {
				return
			}
		case <-pings.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
