package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/pkg/metrics"
)

// wsMessage is sent from client to drive the selection of its session.
type wsMessage struct {
	Action string `json:"action"` // "select" | "navigate" | "timeline" | "view"
	Index  *int   `json:"index"`
	Name   string `json:"name"`
	Delta  int    `json:"delta"`
	Open   bool   `json:"open"`
}

// wsReply is sent to the client. Type is "view", "event" or "error".
type wsReply struct {
	Type  string          `json:"type"`
	View  *domain.View    `json:"view,omitempty"`
	Moved *bool           `json:"moved,omitempty"`
	Event json.RawMessage `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

// WebSocketHandler returns a handler bound to one session (?session=<id>).
// It relays the live map events of that session from NATS and answers
// selection actions with the updated view.
// Clients send JSON: {"action":"select","index":2} or {"action":"navigate","delta":1}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := c.Query("session")
		remoteAddr := c.RemoteAddr().String()
		log := slog.With("session", id, "remote", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		sendView := func(view domain.View, err error) {
			if err != nil {
				_ = writeJSON(wsReply{Type: "error", Error: err.Error()})
				return
			}
			_ = writeJSON(wsReply{Type: "view", View: &view})
		}

		view, err := deps.Sessions.View(id)
		if err != nil {
			_ = writeJSON(wsReply{Type: "error", Error: err.Error()})
			return
		}
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")
		sendView(view, nil)

		if deps.Events != nil {
			unsubscribe, err := deps.Events.SubscribeSession(id, func(data []byte) {
				_ = writeJSON(wsReply{Type: "event", Event: json.RawMessage(data)})
			})
			if err != nil {
				log.Warn("ws relay subscribe failed", "error", err)
			} else {
				defer func() { _ = unsubscribe() }()
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsReply{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "select":
				switch {
				case m.Index != nil:
					sendView(deps.Sessions.Select(id, *m.Index))
				case m.Name != "":
					sendView(deps.Sessions.SelectByName(id, m.Name))
				default:
					_ = writeJSON(wsReply{Type: "error", Error: "index or name is required"})
				}

			case "navigate":
				if m.Delta != -1 && m.Delta != 1 {
					_ = writeJSON(wsReply{Type: "error", Error: "delta must be -1 or 1"})
					continue
				}
				view, moved, err := deps.Sessions.Navigate(id, m.Delta)
				if err != nil {
					_ = writeJSON(wsReply{Type: "error", Error: err.Error()})
					continue
				}
				_ = writeJSON(wsReply{Type: "view", View: &view, Moved: &moved})

			case "timeline":
				sendView(deps.Sessions.SetTimelineOpen(id, m.Open))

			case "view":
				sendView(deps.Sessions.View(id))

			default:
				_ = writeJSON(wsReply{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}
