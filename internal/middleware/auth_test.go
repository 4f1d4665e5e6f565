package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, uid string, ttl time.Duration) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invoke(t *testing.T, header, query string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?token="+query, nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenUID string
	mw := AuthMiddleware(testSecret, nil, repositories.NewMemoryAccountRepository())
	err := mw(func(c echo.Context) error {
		seenUID = UID(c)
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seenUID
}

func TestAuthMiddlewareAcceptsLocalToken(t *testing.T) {
	token := mintToken(t, testSecret, "u1", time.Hour)

	rec, uid := invoke(t, "Bearer "+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", uid)
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	token := mintToken(t, testSecret, "u1", time.Hour)

	rec, uid := invoke(t, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", uid)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	rec, _ := invoke(t, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbageWithoutFirebase(t *testing.T) {
	// With no Firebase client configured there is no second provider to
	// fall back to.
	rec, _ := invoke(t, "Bearer not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	token := mintToken(t, testSecret, "u1", -time.Hour)

	rec, _ := invoke(t, "Bearer "+token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsWrongSignature(t *testing.T) {
	token := mintToken(t, "another-secret", "u1", time.Hour)

	rec, _ := invoke(t, "Bearer "+token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
