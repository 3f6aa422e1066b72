package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ExternalTestSuite struct {
	suite.Suite
	API   *API
	Store *fakeStore
}

func TestExternal(t *testing.T) {
	suite.Run(t, &ExternalTestSuite{})
}

func (ts *ExternalTestSuite) SetupTest() {
	ts.Store = newFakeStore()
	ts.API = newAPI(testConfig(ts.T()), ts.Store, "test")
}

func (ts *ExternalTestSuite) performAuthorize(provider, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("http://localhost/authorize/%s?%s", provider, query), nil)
	w := httptest.NewRecorder()
	ts.API.handler.ServeHTTP(w, req)
	return w
}

func (ts *ExternalTestSuite) redirectLocation(w *httptest.ResponseRecorder) *url.URL {
	ts.Require().Equal(http.StatusFound, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	ts.Require().NoError(err)
	return u
}

func (ts *ExternalTestSuite) TestRedirectRequiresUserID() {
	w := ts.performAuthorize("twitter", "")
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal("User ID is required", response.Message)
}

func (ts *ExternalTestSuite) TestTwitterRedirect() {
	w := ts.performAuthorize("twitter", "user_id=u1")
	u := ts.redirectLocation(w)

	ts.Equal("x.com", u.Host)
	ts.Equal("/i/oauth2/authorize", u.Path)

	q := u.Query()
	ts.Equal("twitter-client-id", q.Get("client_id"))
	ts.Equal("code", q.Get("response_type"))
	ts.Equal("http://localhost:8081/authorize/twitter", q.Get("redirect_uri"))
	ts.Contains(q.Get("scope"), "tweet.write")

	// PKCE challenge rides along with the redirect
	ts.Equal("S256", q.Get("code_challenge_method"))
	ts.NotEmpty(q.Get("code_challenge"))

	state := q.Get("state")
	ts.Require().NotEmpty(state)

	stored, ok := ts.Store.states[state]
	ts.Require().True(ok, "state parameter must identify a stored record")
	ts.Equal("u1", stored.UserID)
	ts.Equal("twitter", stored.Provider)
	ts.NotEmpty(stored.CodeVerifier)
}

func (ts *ExternalTestSuite) TestFacebookRedirect() {
	w := ts.performAuthorize("facebook", "user_id=u1")
	u := ts.redirectLocation(w)

	ts.Equal("www.facebook.com", u.Host)
	ts.Equal("/v18.0/dialog/oauth", u.Path)

	q := u.Query()
	ts.Equal("facebook-client-id", q.Get("client_id"))
	ts.Equal("public_profile,email,publish_to_groups", q.Get("scope"))
	ts.Empty(q.Get("code_challenge"))

	stored, ok := ts.Store.states[q.Get("state")]
	ts.Require().True(ok)
	ts.Empty(stored.CodeVerifier)
}

func (ts *ExternalTestSuite) TestStateIsUniquePerRequest() {
	first := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")
	second := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")
	ts.NotEqual(first, second)
}

func (ts *ExternalTestSuite) TestCallbackStoresToken() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.Require().Equal("/2/oauth2/token", r.URL.Path)
		ts.Require().NoError(r.ParseForm())
		ts.Equal("twitter-code", r.FormValue("code"))
		ts.NotEmpty(r.FormValue("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"twitter-token","token_type":"bearer","expires_in":7200}`)
	}))
	defer server.Close()
	ts.API.config.Social.Twitter.ApiURL = server.URL

	state := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")

	w := ts.performAuthorize("twitter", "code=twitter-code&state="+state)
	u := ts.redirectLocation(w)
	ts.Equal("http://localhost:3000/notes", u.String())

	token, err := ts.Store.FindSocialToken(context.Background(), "u1", "twitter")
	ts.Require().NoError(err)
	ts.Equal("twitter-token", token.AccessToken)
	ts.Require().NotNil(token.ExpiresAt)
	ts.WithinDuration(time.Now().Add(7200*time.Second), *token.ExpiresAt, 10*time.Second)
}

func (ts *ExternalTestSuite) TestCallbackWithoutExpiryStoresToken() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"facebook-token","token_type":"bearer"}`)
	}))
	defer server.Close()
	ts.API.config.Social.Facebook.ApiURL = server.URL

	state := ts.redirectLocation(ts.performAuthorize("facebook", "user_id=u1")).Query().Get("state")

	w := ts.performAuthorize("facebook", "code=facebook-code&state="+state)
	ts.redirectLocation(w)

	token, err := ts.Store.FindSocialToken(context.Background(), "u1", "facebook")
	ts.Require().NoError(err)
	ts.Equal("facebook-token", token.AccessToken)
	ts.Nil(token.ExpiresAt, "tokens without expires_in never expire")
}

func (ts *ExternalTestSuite) TestCallbackStateIsSingleUse() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"twitter-token","token_type":"bearer"}`)
	}))
	defer server.Close()
	ts.API.config.Social.Twitter.ApiURL = server.URL

	state := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")

	ts.redirectLocation(ts.performAuthorize("twitter", "code=twitter-code&state="+state))

	w := ts.performAuthorize("twitter", "code=twitter-code&state="+state)
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal(ErrorCodeAuthorizationStateNotFound, response.ErrorCode)
}

func (ts *ExternalTestSuite) TestCallbackUnknownState() {
	w := ts.performAuthorize("twitter", "code=twitter-code&state=never-issued")
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal(ErrorCodeAuthorizationStateNotFound, response.ErrorCode)
}

func (ts *ExternalTestSuite) TestCallbackMissingState() {
	w := ts.performAuthorize("twitter", "code=twitter-code")
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal("State is required", response.Message)
}

func (ts *ExternalTestSuite) TestCallbackProviderMismatch() {
	state := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")

	w := ts.performAuthorize("facebook", "code=facebook-code&state="+state)
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal(ErrorCodeValidationFailed, response.ErrorCode)
}

func (ts *ExternalTestSuite) TestCallbackExpiredState() {
	state := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")

	ts.API.overrideTime = func() time.Time {
		return time.Now().Add(10 * time.Minute)
	}

	w := ts.performAuthorize("twitter", "code=twitter-code&state="+state)
	ts.Require().Equal(http.StatusBadRequest, w.Code)

	var response HTTPError
	ts.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
	ts.Equal(ErrorCodeAuthorizationStateExpired, response.ErrorCode)
}

func (ts *ExternalTestSuite) TestCallbackProviderError() {
	w := ts.performAuthorize("twitter", "code=twitter-code&state=s&error=access_denied")
	ts.Require().Equal(http.StatusBadRequest, w.Code)
}

func (ts *ExternalTestSuite) TestCallbackSecondCompletionWins() {
	accessToken := "token-one"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer"}`, accessToken)
	}))
	defer server.Close()
	ts.API.config.Social.Twitter.ApiURL = server.URL

	state := ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")
	ts.redirectLocation(ts.performAuthorize("twitter", "code=c1&state="+state))

	accessToken = "token-two"
	state = ts.redirectLocation(ts.performAuthorize("twitter", "user_id=u1")).Query().Get("state")
	ts.redirectLocation(ts.performAuthorize("twitter", "code=c2&state="+state))

	token, err := ts.Store.FindSocialToken(context.Background(), "u1", "twitter")
	ts.Require().NoError(err)
	ts.Equal("token-two", token.AccessToken)
}
