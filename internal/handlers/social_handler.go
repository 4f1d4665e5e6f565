package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/services"
)

// SocialHandler handles friend-graph HTTP requests
type SocialHandler struct {
	social *services.SocialGraphService
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(social *services.SocialGraphService) *SocialHandler {
	return &SocialHandler{social: social}
}

// RegisterSocialRoutes registers friend-graph routes
func (h *SocialHandler) RegisterSocialRoutes(g *echo.Group) {
	g.POST("/friends/invites", h.SendInvite)
	g.GET("/friends/invites/pending", h.GetPendingInvites)
	g.DELETE("/friends/invites/:id", h.CancelInvite)
	g.POST("/friends/invites/:id/accept", h.AcceptInvite)
	g.POST("/friends/invites/:id/decline", h.DeclineInvite)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.RemoveFriend)
	g.POST("/users/:id/block", h.BlockUser)
	g.GET("/users/:id/relation", h.GetRelation)
}

// SendInvite sends a friend invite to the user named in the body
func (h *SocialHandler) SendInvite(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.RelationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.social.SendInvite(c.Request().Context(), uid, req.UserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": models.RelationPendingOutgoing})
}

// CancelInvite withdraws a pending invite the caller sent to :id
func (h *SocialHandler) CancelInvite(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.social.CancelInvite(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AcceptInvite accepts the pending invite received from :id
func (h *SocialHandler) AcceptInvite(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.social.AcceptInvite(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": models.RelationFriends})
}

// DeclineInvite rejects the pending invite received from :id
func (h *SocialHandler) DeclineInvite(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.social.DeclineInvite(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetPendingInvites lists the users whose invites await the caller's answer
func (h *SocialHandler) GetPendingInvites(c echo.Context) error {
	uid := middleware.UID(c)

	users, err := h.social.PendingInvites(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, users)
}

// GetFriends lists the caller's friends
func (h *SocialHandler) GetFriends(c echo.Context) error {
	uid := middleware.UID(c)

	users, err := h.social.Friends(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, users)
}

// RemoveFriend dissolves the friendship with :id on both sides
func (h *SocialHandler) RemoveFriend(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.social.RemoveFriend(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// BlockUser adds :id to the caller's block list and severs any friendship
// or pending invites between the two
func (h *SocialHandler) BlockUser(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.social.Block(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetRelation returns the caller's relationship to :id
func (h *SocialHandler) GetRelation(c echo.Context) error {
	uid := middleware.UID(c)

	relation, err := h.social.Status(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"relation": relation})
}
