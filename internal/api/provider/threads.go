package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/notecast/crosspost/internal/conf"
	"golang.org/x/oauth2"
)

const (
	defaultThreadsAuthBase = "threads.net"
	defaultThreadsAPIBase  = "threads.com"
)

type threadsProvider struct {
	*oauth2.Config
	APIHost string
}

// NewThreadsProvider creates a Threads account provider. The token endpoint
// expects the exchange parameters as a JSON body.
func NewThreadsProvider(ext conf.OAuthProviderConfiguration) (Provider, error) {
	if err := ext.ValidateOAuth(); err != nil {
		return nil, err
	}

	authHost := chooseHost(ext.URL, defaultThreadsAuthBase)
	apiHost := chooseHost(ext.ApiURL, defaultThreadsAPIBase)

	oauthScopes := []string{
		"threads_basic",
		"threads_content_publish",
	}

	return &threadsProvider{
		Config: &oauth2.Config{
			ClientID:     ext.ClientID,
			ClientSecret: ext.Secret,
			RedirectURL:  ext.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authHost + "/oauth/authorize",
				TokenURL: authHost + "/oauth/token",
			},
			Scopes: oauthScopes,
		},
		APIHost: apiHost,
	}, nil
}

func (p threadsProvider) GetOAuthToken(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     p.ClientID,
		"client_secret": p.ClientSecret,
		"code":          code,
		"redirect_uri":  p.RedirectURL,
		"grant_type":    "authorization_code",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res tokenResponse
	if err := makeRequest(req, &res); err != nil {
		return nil, err
	}
	return res.Token()
}

func (p threadsProvider) Publish(ctx context.Context, accessToken string, note Note) error {
	// Threads keeps the note title alongside the content
	body := struct {
		Content string `json:"content"`
		Title   string `json:"title,omitempty"`
	}{
		Content: note.Content,
		Title:   note.Title,
	}

	return postJSON(ctx, p.APIHost+"/api/v1/posts", accessToken, body, nil)
}

func (p threadsProvider) RequiresPKCE() bool {
	return false
}

// AuthCodeURL keeps Threads' comma-separated scope convention intact.
func (p threadsProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	authURL := p.Config.AuthCodeURL(state, opts...)
	if u, err := url.Parse(authURL); err == nil {
		q := u.Query()
		q.Set("scope", strings.Join(p.Scopes, ","))
		u.RawQuery = q.Encode()
		authURL = u.String()
	}
	return authURL
}
