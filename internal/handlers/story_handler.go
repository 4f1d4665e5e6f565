package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/services"
)

// StoryHandler handles story HTTP requests
type StoryHandler struct {
	stories *services.StoryService
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(stories *services.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

// RegisterStoryRoutes registers story routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.PublishStory)
	g.DELETE("/stories", h.RemoveStory)
	g.GET("/stories", h.ListStories)
	g.POST("/stories/:id/like", h.LikeStory)
}

// PublishStory replaces the caller's live story with a new one
func (h *StoryHandler) PublishStory(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.PublishStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story, err := h.stories.Publish(c.Request().Context(), uid, req.Image)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, story)
}

// RemoveStory deletes the caller's live story if one exists
func (h *StoryHandler) RemoveStory(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.stories.Remove(c.Request().Context(), uid); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListStories returns the unexpired stories visible to the caller
func (h *StoryHandler) ListStories(c echo.Context) error {
	uid := middleware.UID(c)

	stories, err := h.stories.ListVisible(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, stories)
}

// LikeStory records the caller's like on a visible story
func (h *StoryHandler) LikeStory(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.stories.Like(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
