package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

var defaultTimeout time.Duration = time.Second * 10

func init() {
	timeoutStr := os.Getenv("CROSSPOST_INTERNAL_HTTP_TIMEOUT")
	if timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err != nil {
			log.Fatalf("error loading CROSSPOST_INTERNAL_HTTP_TIMEOUT: %v", err.Error())
		} else if timeout != 0 {
			defaultTimeout = timeout
		}
	}
}

// Note is the publishable content of one note. Providers decide which fields
// end up in the outbound post.
type Note struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Provider is an external social platform notes can be published to. Each
// provider covers the full capability set of the flow: building the
// authorization redirect, exchanging the returned code for a token, and
// publishing a note with that token.
type Provider interface {
	// AuthCodeURL builds the provider authorization endpoint URL the user
	// is redirected to at the start of the flow.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// GetOAuthToken exchanges an authorization code for an access token
	// at the provider token endpoint.
	GetOAuthToken(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// Publish posts a single note using a previously obtained token.
	Publish(ctx context.Context, accessToken string, note Note) error

	// RequiresPKCE reports whether the provider's token exchange needs a
	// proof-key code verifier generated at authorization time.
	RequiresPKCE() bool
}

func chooseHost(base, defaultHost string) string {
	if base == "" {
		return "https://" + defaultHost
	}

	baseLen := len(base)
	if base[baseLen-1] == '/' {
		return base[:baseLen-1]
	}

	return base
}

// tokenResponse is the common shape of a token endpoint response. expires_in
// of zero means the provider issued a token without expiry.
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   float64 `json:"expires_in"`
}

func (r *tokenResponse) Token() (*oauth2.Token, error) {
	if r.AccessToken == "" {
		return nil, httpError(http.StatusInternalServerError, "token endpoint response is missing access_token")
	}

	token := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
	}
	if r.ExpiresIn != 0 {
		token.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return token, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// makeRequest performs req and decodes the JSON response into dst. Non-2xx
// responses become an HTTPError carrying the provider's body for server-side
// logging.
func makeRequest(req *http.Request, dst interface{}) error {
	res, err := httpClient().Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	bodyBytes, _ := io.ReadAll(res.Body)

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return httpError(res.StatusCode, "%s", string(bodyBytes))
	}

	if dst == nil {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		return err
	}

	return nil
}

// postJSON sends a bearer-authenticated JSON POST, the transport every
// provider in scope uses for publishing.
func postJSON(ctx context.Context, url, accessToken string, body interface{}, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	return makeRequest(req, dst)
}
