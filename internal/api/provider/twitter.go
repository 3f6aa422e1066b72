package provider

import (
	"context"

	"github.com/notecast/crosspost/internal/conf"
	"golang.org/x/oauth2"
)

// Twitter/X API v2 OAuth 2.0 endpoints
// See: https://developer.x.com/en/docs/authentication/oauth-2-0/authorization-code
const (
	defaultTwitterAuthBase = "x.com"
	defaultTwitterAPIBase  = "api.x.com"
)

type twitterProvider struct {
	*oauth2.Config
	APIHost string
}

// NewTwitterProvider creates a Twitter/X v2 account provider. The token
// exchange uses OAuth 2.0 with PKCE; the code verifier generated at
// authorization time must be replayed at exchange time.
func NewTwitterProvider(ext conf.OAuthProviderConfiguration) (Provider, error) {
	if err := ext.ValidateOAuth(); err != nil {
		return nil, err
	}

	authHost := chooseHost(ext.URL, defaultTwitterAuthBase)
	apiHost := chooseHost(ext.ApiURL, defaultTwitterAPIBase)

	// tweet.write is required for publishing notes, offline.access keeps
	// the consent alive for the whole token lifetime
	oauthScopes := []string{
		"tweet.read",
		"tweet.write",
		"users.read",
		"offline.access",
	}

	return &twitterProvider{
		Config: &oauth2.Config{
			ClientID:     ext.ClientID,
			ClientSecret: ext.Secret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authHost + "/i/oauth2/authorize",
				TokenURL: apiHost + "/2/oauth2/token",
			},
			RedirectURL: ext.RedirectURI,
			Scopes:      oauthScopes,
		},
		APIHost: apiHost,
	}, nil
}

func (p twitterProvider) GetOAuthToken(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient())
	return p.Exchange(ctx, code, opts...)
}

func (p twitterProvider) Publish(ctx context.Context, accessToken string, note Note) error {
	// See: https://docs.x.com/x-api/posts/creation-of-a-post
	body := struct {
		Text string `json:"text"`
	}{
		Text: note.Content,
	}

	return postJSON(ctx, p.APIHost+"/2/tweets", accessToken, body, nil)
}

func (p twitterProvider) RequiresPKCE() bool {
	return true
}
