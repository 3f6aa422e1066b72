package api

import (
	"net/http"
	"time"

	"github.com/notecast/crosspost/internal/crypto"
	"github.com/notecast/crosspost/internal/models"
	"github.com/notecast/crosspost/internal/observability"
	"golang.org/x/oauth2"
)

// ExternalProviderAuthorize serves both halves of the authorization round
// trip on a single route. A request without a code query parameter starts the
// flow with a redirect to the provider; the provider sends the browser back
// here with a code, which completes it. A user who lands here with a stale or
// missing code simply starts over.
func (a *API) ExternalProviderAuthorize(w http.ResponseWriter, r *http.Request) error {
	if r.URL.Query().Get("code") == "" {
		return a.externalProviderRedirect(w, r)
	}
	return a.externalProviderCallback(w, r)
}

func (a *API) externalProviderRedirect(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	p := getExternalProvider(ctx)
	providerName := getExternalProviderName(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return badRequestError(ErrorCodeValidationFailed, "User ID is required")
	}

	codeVerifier := ""
	authCodeOptions := []oauth2.AuthCodeOption{}
	if p.RequiresPKCE() {
		codeVerifier = crypto.SecureToken(32)
		authCodeOptions = append(authCodeOptions, oauth2.S256ChallengeOption(codeVerifier))
	}

	state, err := models.NewAuthorizationState(userID, providerName, codeVerifier, a.config.Social.StateExpiryDuration)
	if err != nil {
		return internalServerError("Error creating authorization state").WithInternalError(err)
	}
	if err := a.store.CreateAuthorizationState(ctx, state); err != nil {
		return internalServerError("Database error persisting authorization state").WithInternalError(err)
	}

	log := observability.GetLogEntry(r)
	log.WithField("provider", providerName).Info("Redirecting to external provider")

	http.Redirect(w, r, p.AuthCodeURL(state.ID.String(), authCodeOptions...), http.StatusFound)
	return nil
}

func (a *API) externalProviderCallback(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	p := getExternalProvider(ctx)
	providerName := getExternalProviderName(ctx)

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		return badRequestError(ErrorCodeValidationFailed, "External provider returned an error: %s", errParam)
	}

	stateParam := query.Get("state")
	if stateParam == "" {
		return badRequestError(ErrorCodeValidationFailed, "State is required")
	}

	// The state is single use; a replayed callback will not find it again.
	state, err := a.store.ConsumeAuthorizationState(ctx, stateParam)
	if err != nil {
		if models.IsNotFoundError(err) {
			return badRequestError(ErrorCodeAuthorizationStateNotFound, "Authorization state not found")
		}
		return internalServerError("Database error finding authorization state").WithInternalError(err)
	}

	if state.Provider != providerName {
		return badRequestError(ErrorCodeValidationFailed, "Authorization state was issued for provider %s", state.Provider)
	}
	if state.IsExpired(a.Now()) {
		return badRequestError(ErrorCodeAuthorizationStateExpired, "Authorization state has expired")
	}

	authCodeOptions := []oauth2.AuthCodeOption{}
	if state.CodeVerifier != "" {
		authCodeOptions = append(authCodeOptions, oauth2.VerifierOption(state.CodeVerifier))
	}

	tok, err := p.GetOAuthToken(ctx, query.Get("code"), authCodeOptions...)
	if err != nil {
		return internalServerError("Unable to exchange external code").WithInternalError(err)
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		expiresAt = &expiry
	}

	token, err := models.NewSocialToken(state.UserID, providerName, tok.AccessToken, expiresAt)
	if err != nil {
		return internalServerError("Error creating access token record").WithInternalError(err)
	}
	if err := a.store.UpsertSocialToken(ctx, token); err != nil {
		return internalServerError("Database error storing access token").WithInternalError(err)
	}

	log := observability.GetLogEntry(r)
	log.WithField("provider", providerName).Info("External authorization completed")

	http.Redirect(w, r, a.config.SiteURL+"/notes", http.StatusFound)
	return nil
}
