package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadsAuthCodeURL(t *testing.T) {
	p, err := NewThreadsProvider(enabledConfig())
	require.NoError(t, err)

	authURL := p.AuthCodeURL("state-value")
	assert.Contains(t, authURL, "https://threads.net/oauth/authorize")
	assert.Contains(t, authURL, "client_id=client-id")
	assert.Contains(t, authURL, "state=state-value")
	assert.Contains(t, authURL, "threads_content_publish")
}

// the Threads token exchange travels as a JSON body
func TestThreadsGetOAuthToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "client-id", body["client_id"])
		require.Equal(t, "client-secret", body["client_secret"])
		require.Equal(t, "auth-code", body["code"])
		require.Equal(t, "authorization_code", body["grant_type"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"threads-token","token_type":"bearer","expires_in":3600}`)
	}))
	defer server.Close()

	ext := enabledConfig()
	ext.URL = server.URL

	p, err := NewThreadsProvider(ext)
	require.NoError(t, err)

	tok, err := p.GetOAuthToken(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "threads-token", tok.AccessToken)
}

func TestThreadsPublish(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/posts", r.URL.Path)
		require.Equal(t, "Bearer threads-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		io.WriteString(w, `{"id":"post-1"}`)
	}))
	defer server.Close()

	ext := enabledConfig()
	ext.ApiURL = server.URL

	p, err := NewThreadsProvider(ext)
	require.NoError(t, err)

	note := Note{Title: "a title", Content: "note body"}
	require.NoError(t, p.Publish(context.Background(), "threads-token", note))
	assert.Equal(t, "note body", gotBody["content"])
	assert.Equal(t, "a title", gotBody["title"])
}
