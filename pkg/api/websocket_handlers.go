package api

import (
	"time"

	"github.com/gofiber/contrib/websocket"

	customlog "github.com/open-teleop/armctl/pkg/log"
)

// StateStreamInterval is the cadence at which /ws/state pushes snapshots.
const StateStreamInterval = 100 * time.Millisecond

// StateWebSocketHandler streams controller state snapshots to a connected
// UI until the client goes away.
func StateWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, controller StateProvider) {
	logger.Infof("State WebSocket connected: %s", conn.RemoteAddr())
	defer logger.Infof("State WebSocket disconnected: %s", conn.RemoteAddr())

	ticker := time.NewTicker(StateStreamInterval)
	defer ticker.Stop()

	// Reads are only performed to notice the close handshake.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(controller.State()); err != nil {
				logger.Debugf("State WS write failed, closing: %v", err)
				return
			}
		}
	}
}
