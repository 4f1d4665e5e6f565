package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
	"github.com/ahmedembaby/chat/internal/services"
)

// UserHandler handles profile and directory HTTP requests
type UserHandler struct {
	directory *services.DirectoryService
	social    *services.SocialGraphService
	accounts  repositories.AccountRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(directory *services.DirectoryService, social *services.SocialGraphService, accounts repositories.AccountRepository) *UserHandler {
	return &UserHandler{directory: directory, social: social, accounts: accounts}
}

// RegisterUserRoutes registers profile and directory routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile", h.GetOwnProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteProfile)
	g.POST("/profile/username", h.ClaimUsername)
	g.PUT("/profile/avatar", h.UpdateAvatar)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

// GetOwnProfile returns the authenticated user's profile
func (h *UserHandler) GetOwnProfile(c echo.Context) error {
	uid := middleware.UID(c)

	user, err := h.directory.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// GetUser returns another user's profile together with the caller's
// relationship to them, derived fresh from the mirrored sets.
func (h *UserHandler) GetUser(c echo.Context) error {
	uid := middleware.UID(c)
	targetID := c.Param("id")

	user, err := h.directory.GetProfile(c.Request().Context(), targetID)
	if err != nil {
		return httpError(err)
	}

	relation, err := h.social.Status(c.Request().Context(), uid, targetID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user, "relation": relation})
}

// ClaimUsername sets the authenticated user's unique username during
// onboarding, together with bio and location.
func (h *UserHandler) ClaimUsername(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.ClaimUsernameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.directory.ClaimUsername(c.Request().Context(), uid, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a partial update to the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.directory.UpdateProfile(c.Request().Context(), uid, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateAvatar replaces the authenticated user's profile image
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	uid := middleware.UID(c)

	var req models.UpdateAvatarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	image, err := h.directory.UpdateAvatar(c.Request().Context(), uid, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"profile_image": image})
}

// DeleteProfile removes the authenticated user's profile and identity.
// Relationship sets on other users are left to dangle; read paths skip
// ids that no longer resolve.
func (h *UserHandler) DeleteProfile(c echo.Context) error {
	uid := middleware.UID(c)

	if err := h.directory.DeleteProfile(c.Request().Context(), uid); err != nil {
		return httpError(err)
	}
	if err := h.accounts.DeleteAccountByUID(uid); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SearchUsers finds users by username or display name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	users, err := h.directory.Search(c.Request().Context(), query, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, users)
}
