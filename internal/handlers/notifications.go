package handlers

// notifications.go: Server-Sent Events stream of lock announcements.

import (
	"bufio"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/notify"
)

// keepaliveInterval is how often an idle stream sends a comment line so proxies keep
// the connection open.
const keepaliveInterval = 15 * time.Second

// StreamNotifications handles GET /api/v1/notifications/stream?kind=results|leader.
// Without a kind the client receives every announcement. Each announcement is written
// as an SSE event named after its kind with the JSON notification as data.
func StreamNotifications(hub *notify.Hub, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind := models.NotificationKind(c.Query("kind"))
		switch kind {
		case "", models.NotificationResults, models.NotificationLeader:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "kind must be results or leader",
			})
		}

		client := notify.NewClient(kind)
		if !hub.Register(client) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "notifications are not available",
			})
		}

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(client)

			ticker := time.NewTicker(keepaliveInterval)
			defer ticker.Stop()

			// Initial keepalive (comment event)
			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case data, ok := <-client.Send:
					if !ok {
						// Hub stopped or dropped us as too slow.
						return
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(kind), data)
				case <-ticker.C:
					w.WriteString(":\n\n")
				}
				if err := w.Flush(); err != nil {
					logger.Debug("notification stream closed", "error", err)
					return
				}
			}
		})
		return nil
	}
}

// eventName picks the SSE event name: the subscribed kind, or "notification" for
// clients listening to everything.
func eventName(kind models.NotificationKind) string {
	if kind == "" {
		return "notification"
	}
	return string(kind)
}
