package provider

import (
	"testing"
	"time"

	"github.com/notecast/crosspost/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledConfig() conf.OAuthProviderConfiguration {
	return conf.OAuthProviderConfiguration{
		ClientID:    "client-id",
		Secret:      "client-secret",
		RedirectURI: "http://localhost:8081/authorize/test",
		Enabled:     true,
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"twitter", "facebook", "threads"} {
		p, err := New(name, enabledConfig())
		require.NoError(t, err, name)
		require.NotNil(t, p, name)
	}

	_, err := New("myspace", enabledConfig())
	assert.Error(t, err)

	_, err = New("twitter", conf.OAuthProviderConfiguration{})
	assert.Error(t, err, "disabled provider must not construct")
}

func TestChooseHost(t *testing.T) {
	assert.Equal(t, "https://api.x.com", chooseHost("", "api.x.com"))
	assert.Equal(t, "http://localhost:1234", chooseHost("http://localhost:1234", "api.x.com"))
	assert.Equal(t, "http://localhost:1234", chooseHost("http://localhost:1234/", "api.x.com"))
}

func TestTokenResponse(t *testing.T) {
	res := tokenResponse{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 3600}
	tok, err := res.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, 5*time.Second)

	// providers without expiry leave Expiry zero
	res = tokenResponse{AccessToken: "tok"}
	tok, err = res.Token()
	require.NoError(t, err)
	assert.True(t, tok.Expiry.IsZero())

	res = tokenResponse{}
	_, err = res.Token()
	assert.Error(t, err)
}
