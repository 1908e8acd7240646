// Package ws is the realtime push surface. Each websocket connection is
// authenticated with the same JWT the REST API uses and subscribed to the
// user's own channel plus, when affiliated, their campus channel.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second

	// pongWait must exceed pingInterval so a healthy client always
	// answers in time.
	pongWait = 60 * time.Second
)

// Subscriber is the event source the hub attaches connections to.
type Subscriber interface {
	Subscribe(channels ...string) (<-chan shared.Event, func())
}

// Hub upgrades connections, verifies their JWT, and pipes subscribed
// events to them. Missed events are not replayed; clients reconcile via
// the REST read endpoints on reconnect.
type Hub struct {
	source Subscriber
	users  user.Repository
	secret string
	logger *slog.Logger
}

// NewHub creates a Hub.
func NewHub(source Subscriber, users user.Repository, jwtSecret string, logger *slog.Logger) *Hub {
	return &Hub{source: source, users: users, secret: jwtSecret, logger: logger}
}

// UpgradeRequired rejects plain HTTP requests on the websocket route.
func (h *Hub) UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket handler. The access token travels in the
// "token" query parameter because browsers cannot set headers on upgrade
// requests.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		userID, err := h.verifyToken(conn.Query("token"))
		if err != nil {
			h.writeClose(conn, websocket.ClosePolicyViolation, "invalid token")
			return
		}

		channels := []string{shared.UserChannel(userID)}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		u, err := h.users.GetByID(ctx, userID)
		cancel()
		if err != nil {
			h.writeClose(conn, websocket.ClosePolicyViolation, "unknown user")
			return
		}
		if u.HasUniversity() {
			channels = append(channels, shared.CampusChannel(*u.UniversityID))
		}

		events, unsubscribe := h.source.Subscribe(channels...)
		defer unsubscribe()

		h.logger.Debug("websocket connected",
			slog.String("user_id", userID),
			slog.Int("channels", len(channels)))

		done := make(chan struct{})
		go h.readLoop(conn, done)
		h.writeLoop(conn, events, done)

		h.logger.Debug("websocket disconnected", slog.String("user_id", userID))
	})
}

// verifyToken parses and validates the access token, returning the user id.
func (h *Hub) verifyToken(raw string) (string, error) {
	if raw == "" {
		return "", jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(h.secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	return sub, nil
}

// readLoop drains client frames so pongs and close frames are processed.
// Inbound payloads are ignored; the channel is push-only.
func (h *Hub) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop pushes subscribed events and keepalive pings until the client
// disconnects or the event source closes.
func (h *Hub) writeLoop(conn *websocket.Conn, events <-chan shared.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case event, ok := <-events:
			if !ok {
				h.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to marshal event", slog.Any("error", err))
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
