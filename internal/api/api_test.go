package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/notecast/crosspost/internal/conf"
	"github.com/notecast/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory models.Store so handlers can be exercised without
// a database.
type fakeStore struct {
	mu     sync.Mutex
	tokens map[string]*models.SocialToken
	states map[string]*models.AuthorizationState
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens: make(map[string]*models.SocialToken),
		states: make(map[string]*models.AuthorizationState),
	}
}

func tokenKey(userID, provider string) string {
	return userID + "|" + provider
}

func (s *fakeStore) UpsertSocialToken(ctx context.Context, token *models.SocialToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey(token.UserID, token.Provider)] = token
	return nil
}

func (s *fakeStore) FindSocialToken(ctx context.Context, userID, provider string) (*models.SocialToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenKey(userID, provider)]
	if !ok {
		return nil, models.SocialTokenNotFoundError{}
	}
	return token, nil
}

func (s *fakeStore) CreateAuthorizationState(ctx context.Context, state *models.AuthorizationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ID.String()] = state
	return nil
}

func (s *fakeStore) ConsumeAuthorizationState(ctx context.Context, id string) (*models.AuthorizationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return nil, models.AuthorizationStateNotFoundError{}
	}
	delete(s.states, id)
	return state, nil
}

func testConfig(t *testing.T) *conf.GlobalConfiguration {
	config := &conf.GlobalConfiguration{
		SiteURL:       "http://localhost:3000",
		RateLimitPost: 100,
	}
	config.API.ExternalURL = "http://localhost:8081"

	config.Social.Twitter = conf.OAuthProviderConfiguration{
		ClientID:    "twitter-client-id",
		Secret:      "twitter-secret",
		RedirectURI: "http://localhost:8081/authorize/twitter",
		Enabled:     true,
	}
	config.Social.Facebook = conf.OAuthProviderConfiguration{
		ClientID:    "facebook-client-id",
		Secret:      "facebook-secret",
		RedirectURI: "http://localhost:8081/authorize/facebook",
		Enabled:     true,
	}
	config.Social.Threads = conf.OAuthProviderConfiguration{
		ClientID:    "threads-client-id",
		Secret:      "threads-secret",
		RedirectURI: "http://localhost:8081/authorize/threads",
		Enabled:     true,
	}

	require.NoError(t, config.ApplyDefaults())
	return config
}

func TestHealthCheck(t *testing.T) {
	api := newAPI(testConfig(t), newFakeStore(), "v1.2.3")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/health", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response HealthCheckResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "v1.2.3", response.Version)
	assert.Equal(t, "crosspost", response.Name)
}

func TestSettings(t *testing.T) {
	config := testConfig(t)
	config.Social.Threads.Enabled = false
	api := newAPI(config, newFakeStore(), "test")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/settings", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response SettingsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.ExternalProviders["twitter"])
	assert.True(t, response.ExternalProviders["facebook"])
	assert.False(t, response.ExternalProviders["threads"])
}

func TestUnsupportedProvider(t *testing.T) {
	api := newAPI(testConfig(t), newFakeStore(), "test")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/authorize/myspace?user_id=u1", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response HTTPError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, ErrorCodeValidationFailed, response.ErrorCode)
}

func TestDisabledProvider(t *testing.T) {
	config := testConfig(t)
	config.Social.Twitter.Enabled = false
	api := newAPI(config, newFakeStore(), "test")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/authorize/twitter?user_id=u1", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response HTTPError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, ErrorCodeProviderDisabled, response.ErrorCode)
}
