package handlers

import (
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
	"github.com/ahmedembaby/chat/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accounts     repositories.AccountRepository
	directory    *services.DirectoryService
	firebaseAuth *auth.Client
	jwtSecret    string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts repositories.AccountRepository, directory *services.DirectoryService, firebaseAuthClient *auth.Client, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		directory:    directory,
		firebaseAuth: firebaseAuthClient,
		jwtSecret:    jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local account registration with email and password. The
// identity row and the directory profile are created together; if the
// profile write fails the account row is rolled back so no half-registered
// identity survives.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check if an account with this email already exists
	if _, err := h.accounts.GetAccountByEmail(email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Account with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	account := &models.Account{
		UID:           uuid.NewString(),
		Email:         email,
		PasswordHash:  string(hashedPassword),
		EmailVerified: true, // local signups skip the federated verification flow
	}

	if err := h.accounts.CreateAccount(account); err != nil {
		return httpError(err)
	}

	user, err := h.directory.CreateProfile(c.Request().Context(), account.UID, req.Name, email, req.Phone)
	if err != nil {
		if delErr := h.accounts.DeleteAccountByUID(account.UID); delErr != nil {
			c.Logger().Error("failed to roll back account after profile error: ", delErr)
		}
		return httpError(err)
	}

	token, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}

	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.GetAccountByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	if !account.EmailVerified {
		return echo.NewHTTPError(http.StatusUnauthorized, "Email is not verified")
	}

	h.directory.TouchLastSeen(c.Request().Context(), account.UID)

	token, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// provisioning the account and profile on first login.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase authentication is not configured")
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	emailVerified, _ := token.Claims["email_verified"].(bool)
	name, _ := token.Claims["name"].(string)
	firebaseUID := token.UID

	account, err := h.accounts.GetAccountByFirebaseUID(firebaseUID)
	switch {
	case err == nil:
		if account.EmailVerified != emailVerified {
			account.EmailVerified = emailVerified
			if err := h.accounts.UpdateAccount(account); err != nil {
				return httpError(err)
			}
		}
	case apperr.KindOf(err) == apperr.KindNotFound:
		// Returning user from another auth path, or a brand new identity.
		account, err = h.accounts.GetAccountByEmail(strings.ToLower(email))
		if err == nil {
			account.FirebaseUID = &firebaseUID
			account.EmailVerified = emailVerified
			if err := h.accounts.UpdateAccount(account); err != nil {
				return httpError(err)
			}
		} else {
			account = &models.Account{
				UID:           uuid.NewString(),
				Email:         strings.ToLower(email),
				FirebaseUID:   &firebaseUID,
				EmailVerified: emailVerified,
			}
			if err := h.accounts.CreateAccount(account); err != nil {
				return httpError(err)
			}
			if _, err := h.directory.CreateProfile(c.Request().Context(), account.UID, name, account.Email, ""); err != nil {
				if delErr := h.accounts.DeleteAccountByUID(account.UID); delErr != nil {
					c.Logger().Error("failed to roll back account after profile error: ", delErr)
				}
				return httpError(err)
			}
		}
	default:
		return httpError(err)
	}

	if !account.EmailVerified {
		return echo.NewHTTPError(http.StatusUnauthorized, "Email is not verified")
	}

	h.directory.TouchLastSeen(c.Request().Context(), account.UID)

	localJWT, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": localJWT})
}

// generateJWT generates a JWT token for a given account
func (h *AuthHandler) generateJWT(account *models.Account) (string, error) {
	claims := &models.JwtCustomClaims{
		UID:   account.UID,
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)), // Token expires in 72 hours
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", err
	}
	return t, nil
}
