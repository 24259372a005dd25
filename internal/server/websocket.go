package server

import (
	"errors"
	"log/slog"

	"inkwell/internal/events"
	"inkwell/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if s.hub == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "event stream disabled")
	}
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// EventStreamHandler streams every published domain event to the client.
// The stream is read-only; inbound frames are discarded.
func (s *Server) EventStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			if errors.Is(err, events.ErrTooManyClients) {
				middleware.Logger.Warn("event stream rejected", slog.String("error", err.Error()))
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
