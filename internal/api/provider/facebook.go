package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/notecast/crosspost/internal/conf"
	"golang.org/x/oauth2"
)

const (
	defaultFacebookAuthBase  = "www.facebook.com"
	defaultFacebookTokenBase = "graph.facebook.com" //#nosec G101 -- Not a secret value.
	defaultFacebookAPIBase   = "graph.facebook.com"

	facebookGraphVersion = "v18.0"
)

type facebookProvider struct {
	*oauth2.Config
	APIHost string
}

// NewFacebookProvider creates a Facebook account provider. The Graph API
// takes the token exchange parameters as a query string rather than a form
// body, so the exchange bypasses the oauth2 package.
func NewFacebookProvider(ext conf.OAuthProviderConfiguration) (Provider, error) {
	if err := ext.ValidateOAuth(); err != nil {
		return nil, err
	}

	authHost := chooseHost(ext.URL, defaultFacebookAuthBase)
	tokenHost := chooseHost(ext.ApiURL, defaultFacebookTokenBase)
	apiHost := chooseHost(ext.ApiURL, defaultFacebookAPIBase)

	oauthScopes := []string{
		"public_profile",
		"email",
		"publish_to_groups",
	}

	return &facebookProvider{
		Config: &oauth2.Config{
			ClientID:     ext.ClientID,
			ClientSecret: ext.Secret,
			RedirectURL:  ext.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authHost + "/" + facebookGraphVersion + "/dialog/oauth",
				TokenURL: tokenHost + "/" + facebookGraphVersion + "/oauth/access_token",
			},
			Scopes: oauthScopes,
		},
		APIHost: apiHost,
	}, nil
}

func (p facebookProvider) GetOAuthToken(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	query := url.Values{
		"client_id":     {p.ClientID},
		"client_secret": {p.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint.TokenURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var res tokenResponse
	if err := makeRequest(req, &res); err != nil {
		return nil, err
	}
	return res.Token()
}

func (p facebookProvider) Publish(ctx context.Context, accessToken string, note Note) error {
	// notes land on the user's feed as a plain message
	body := struct {
		Message string `json:"message"`
	}{
		Message: note.Content,
	}

	return postJSON(ctx, p.APIHost+"/"+facebookGraphVersion+"/me/feed", accessToken, body, nil)
}

func (p facebookProvider) RequiresPKCE() bool {
	return false
}

// AuthCodeURL keeps Facebook's comma-separated scope convention intact; the
// oauth2 package would join them with spaces.
func (p facebookProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	authURL := p.Config.AuthCodeURL(state, opts...)
	if u, err := url.Parse(authURL); err == nil {
		q := u.Query()
		q.Set("scope", strings.Join(p.Scopes, ","))
		u.RawQuery = q.Encode()
		authURL = u.String()
	}
	return authURL
}
