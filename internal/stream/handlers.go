package stream

import (
	"github.com/klach-ocado/10x-aimondo/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/ws", authMiddleware, requireUpgrade, websocket.New(func(c *websocket.Conn) {
		ownerID, _ := c.Locals(auth.LocalsKey).(string)
		client := hub.Register(ownerID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}

func requireUpgrade(c *fiber.Ctx) error {
	if auth.OwnerID(c) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing owner")
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}
