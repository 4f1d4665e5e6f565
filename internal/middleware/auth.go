package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/ahmedembaby/chat/internal/repositories"
)

// AuthMiddleware authenticates a request with either a locally issued JWT
// or, when a Firebase client is configured, a Firebase ID token resolved to
// its linked account. Both paths store the same user id in the request
// context, so handlers never see which provider authenticated the caller.
func AuthMiddleware(secret string, client *auth.Client, accounts repositories.AccountRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := BearerToken(c)
			if err != nil {
				return err
			}

			if claims, err := ParseToken(secret, tokenString); err == nil {
				c.Set(uidContextKey, claims.UID)
				return next(c)
			}

			if client == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			token, err := client.VerifyIDToken(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			account, err := accounts.GetAccountByFirebaseUID(token.UID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "No account linked to this identity")
			}
			c.Set(uidContextKey, account.UID)
			return next(c)
		}
	}
}
