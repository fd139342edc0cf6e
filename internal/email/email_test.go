package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nibog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendgridSender(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendgridSender(&config.Config{
		SendgridAPIKey: "sg-key",
		SendgridHost:   srv.URL,
		EmailFrom:      "noreply@nibog.in",
		EmailFromName:  "NIBOG",
	})

	id, err := s.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Text: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "sg-123", id)

	from := body["from"].(map[string]interface{})
	assert.Equal(t, "noreply@nibog.in", from["email"])
	content := body["content"].([]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text/plain", content[0].(map[string]interface{})["type"])
}

func TestSendgridSenderRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendgridSender(&config.Config{SendgridHost: srv.URL, EmailFrom: "noreply@nibog.in"})
	_, err := s.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Text: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestConsoleSenderRecords(t *testing.T) {
	s := NewConsoleSender(&config.Config{EmailFrom: "noreply@nibog.in"})

	id, err := s.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Text: "Hello"})
	require.NoError(t, err)
	assert.Contains(t, id, "console-")
	require.Len(t, s.Sent(), 1)
	assert.Equal(t, "a@x.com", s.Sent()[0].To)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Send(ctx, Message{To: "b@x.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSender(t *testing.T) {
	_, ok := NewSender(&config.Config{EmailProvider: "console"}).(*ConsoleSender)
	assert.True(t, ok)
	_, ok = NewSender(&config.Config{EmailProvider: "sendgrid"}).(*sendgridSender)
	assert.True(t, ok)
}
