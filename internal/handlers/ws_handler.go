package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/services"
)

// WSHandler serves the live query surface over websockets. A connection is
// a set of bus subscriptions pumped to the socket; the chat socket also
// accepts inbound frames so clients can send without a parallel HTTP call.
type WSHandler struct {
	chats     *services.ChatService
	bus       *live.Bus
	jwtSecret string
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(chats *services.ChatService, bus *live.Bus, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		chats:     chats,
		bus:       bus,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// RegisterWSRoutes registers the websocket endpoints. They authenticate
// through the token query parameter, so they sit outside the JWT group.
func (h *WSHandler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws/chats/:id", h.HandleChatSocket)
	e.GET("/ws/updates", h.HandleUpdatesSocket)
}

func (h *WSHandler) authenticate(c echo.Context) (string, error) {
	tokenString, err := middleware.BearerToken(c)
	if err != nil {
		return "", err
	}
	claims, err := middleware.ParseToken(h.jwtSecret, tokenString)
	if err != nil {
		return "", err
	}
	return claims.UID, nil
}

type inboundFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageRef string `json:"image_ref"`
	Typing   bool   `json:"typing"`
}

// HandleChatSocket streams one conversation. Outbound frames are the chat's
// bus events (messages, reads, typing); inbound frames are send, read and
// typing commands from the connected participant.
func (h *WSHandler) HandleChatSocket(c echo.Context) error {
	uid, err := h.authenticate(c)
	if err != nil {
		return err
	}
	chatID := c.Param("id")

	// Membership is checked before the upgrade so rejection is a plain
	// HTTP status rather than a closed socket.
	if _, err := h.chats.GetChat(c.Request().Context(), chatID, uid); err != nil {
		return httpError(err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	events, unsubscribe := h.bus.Subscribe(live.TopicChat(chatID), 32)
	defer unsubscribe()

	done := make(chan struct{})
	go h.writeLoop(conn, events, done)
	h.chatReadLoop(c, conn, chatID, uid)
	close(done)
	return nil
}

// HandleUpdatesSocket streams everything outside an open conversation: the
// caller's chat list, relationship and profile changes, and story activity.
func (h *WSHandler) HandleUpdatesSocket(c echo.Context) error {
	uid, err := h.authenticate(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	events := make(chan live.Event, 32)
	done := make(chan struct{})
	for _, topic := range []string{live.TopicUser(uid), live.TopicChats(uid), live.TopicStories(uid)} {
		ch, unsubscribe := h.bus.Subscribe(topic, 32)
		defer unsubscribe()
		go func(ch <-chan live.Event) {
			for {
				select {
				case evt := <-ch:
					select {
					case events <- evt:
					default:
					}
				case <-done:
					return
				}
			}
		}(ch)
	}

	go h.writeLoop(conn, events, done)
	h.drainReadLoop(conn)
	close(done)
	return nil
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, events <-chan live.Event, done <-chan struct{}) {
	for {
		select {
		case evt := <-events:
			if err := conn.WriteJSON(evt); err != nil {
				conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) chatReadLoop(c echo.Context, conn *websocket.Conn, chatID, uid string) {
	conn.SetReadLimit(64 * 1024)
	for {
		var inbound inboundFrame
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		ctx := c.Request().Context()
		switch inbound.Type {
		case "send":
			if _, err := h.chats.Append(ctx, chatID, uid, inbound.Text, inbound.ImageRef); err != nil {
				h.logger.Warn("socket send rejected", zap.String("chat", chatID), zap.Error(err))
			}
		case "read":
			if err := h.chats.MarkRead(ctx, chatID, uid); err != nil {
				h.logger.Warn("socket read rejected", zap.String("chat", chatID), zap.Error(err))
			}
		case "typing":
			if err := h.chats.SetTyping(ctx, chatID, uid, inbound.Typing); err != nil {
				h.logger.Warn("socket typing rejected", zap.String("chat", chatID), zap.Error(err))
			}
		}
	}
}

// drainReadLoop keeps the connection's read side alive so close frames and
// pings are processed. Inbound data frames are ignored.
func (h *WSHandler) drainReadLoop(conn *websocket.Conn) {
	conn.SetReadLimit(64 * 1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
