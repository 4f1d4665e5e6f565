package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/services"
)

// ChatHandler handles chat and message HTTP requests
type ChatHandler struct {
	chats *services.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// RegisterChatRoutes registers chat and message routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chats", h.StartChat)
	g.GET("/chats", h.ListChats)
	g.GET("/chats/:id", h.GetChat)
	g.GET("/chats/:id/messages", h.GetMessages)
	g.POST("/chats/:id/messages", h.SendMessage)
	g.POST("/chats/:id/read", h.MarkRead)
	g.PUT("/chats/:id/typing", h.SetTyping)
}

// StartChat opens the chat with another user, returning the existing one
// if the pair already has a chat
func (h *ChatHandler) StartChat(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.StartChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	chat, err := h.chats.GetOrCreate(c.Request().Context(), uid, req.UserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, chat)
}

// ListChats returns the caller's chats, most recently updated first
func (h *ChatHandler) ListChats(c echo.Context) error {
	uid := middleware.UID(c)

	chats, err := h.chats.ListChats(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, chats)
}

// GetChat returns a single chat the caller participates in
func (h *ChatHandler) GetChat(c echo.Context) error {
	uid := middleware.UID(c)

	chat, err := h.chats.GetChat(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, chat)
}

// GetMessages returns a chat's messages in ascending order. The after_seq
// parameter resumes from a known position; limit caps the page size.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	uid := middleware.UID(c)

	afterSeq, _ := strconv.ParseInt(c.QueryParam("after_seq"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, err := h.chats.History(c.Request().Context(), c.Param("id"), uid, afterSeq, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, messages)
}

// SendMessage appends a message to the chat
func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	text, imageRef, ok := req.Normalized()
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must carry text or an image")
	}

	msg, err := h.chats.Append(c.Request().Context(), c.Param("id"), uid, text, imageRef)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, msg)
}

// MarkRead marks every message in the chat as read by the caller
func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.chats.MarkRead(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SetTyping toggles the caller's typing indicator on the chat
func (h *ChatHandler) SetTyping(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.TypingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if err := h.chats.SetTyping(c.Request().Context(), c.Param("id"), uid, req.Typing); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
