package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedembaby/chat/internal/models"
)

// onboard signs a user up and claims their username, returning the token
// and the directory id.
func onboard(t *testing.T, e *echo.Echo, name, email, username string) (token, uid string) {
	t.Helper()
	token = signup(t, e, name, email)

	rec := doJSON(e, http.MethodPost, "/api/v1/profile/username", token, `{"username":"`+username+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return token, user.ID
}

func TestChatFlowOverHTTP(t *testing.T) {
	e := newTestServer(t)
	aliceToken, _ := onboard(t, e, "Alice", "alice@example.com", "alice")
	bobToken, bobID := onboard(t, e, "Bob", "bob@example.com", "bob")

	// Alice opens the chat with Bob.
	rec := doJSON(e, http.MethodPost, "/api/v1/chats", aliceToken, `{"user_id":"`+bobID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	require.NotEmpty(t, chat.ID)

	// She sends a message.
	rec = doJSON(e, http.MethodPost, "/api/v1/chats/"+chat.ID+"/messages", aliceToken, `{"text":"hi bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var msg models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, int64(1), msg.Seq)

	// Bob sees the chat in his list with the denormalized summary.
	rec = doJSON(e, http.MethodGet, "/api/v1/chats", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var chats []models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "hi bob", chats[0].LastMessage.Text)
	assert.Equal(t, int64(1), chats[0].MessageCount)

	// Bob reads the history and marks it read.
	rec = doJSON(e, http.MethodGet, "/api/v1/chats/"+chat.ID+"/messages", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 1)

	rec = doJSON(e, http.MethodPost, "/api/v1/chats/"+chat.ID+"/read", bobToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChatAccessDeniedForOutsider(t *testing.T) {
	e := newTestServer(t)
	aliceToken, _ := onboard(t, e, "Alice", "alice@example.com", "alice")
	_, bobID := onboard(t, e, "Bob", "bob@example.com", "bob")
	carolToken, _ := onboard(t, e, "Carol", "carol@example.com", "carol")

	rec := doJSON(e, http.MethodPost, "/api/v1/chats", aliceToken, `{"user_id":"`+bobID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))

	rec = doJSON(e, http.MethodGet, "/api/v1/chats/"+chat.ID, carolToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStartChatWithUnknownUser(t *testing.T) {
	e := newTestServer(t)
	aliceToken, _ := onboard(t, e, "Alice", "alice@example.com", "alice")

	rec := doJSON(e, http.MethodPost, "/api/v1/chats", aliceToken, `{"user_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
