package capability

import (
	"go-taskhub/internal/versionfeed"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FeedHandler streams version-bump events for one workspace over a
// websocket. Clients watch it to drop local capability caches the moment a
// role, group, policy or membership they can see changes.
type FeedHandler struct {
	hub *versionfeed.Hub
	log *zap.Logger
}

func NewFeedHandler(hub *versionfeed.Hub, log *zap.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, log: log}
}

// Upgrade gates the websocket handshake.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream pushes events as JSON frames until the client hangs up.
func (h *FeedHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		workspaceID := conn.Params("workspaceId")

		events, cancel := h.hub.Subscribe(workspaceID)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			// Drain client frames so pings and close frames are processed.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					h.log.Debug("version feed client gone", zap.Error(err))
					return
				}
			case <-done:
				return
			}
		}
	})
}
