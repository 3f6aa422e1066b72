package api

import (
	"context"
	"net/http"

	"github.com/notecast/crosspost/internal/models"
)

// AccessTokenResponse is returned when a stored token passes the read-time
// gate.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// TokenGet returns the stored access token for a user and provider, or the
// reason it cannot be used.
func (a *API) TokenGet(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	token, err := a.getActiveToken(ctx, r.URL.Query().Get("user_id"), getExternalProviderName(ctx))
	if err != nil {
		return err
	}

	return sendJSON(w, http.StatusOK, &AccessTokenResponse{
		AccessToken: token.AccessToken,
	})
}

// getActiveToken is the read-time gate shared by the token endpoint and the
// batch poster. Expired tokens are reported, never deleted; only a fresh
// authorization flow replaces them.
func (a *API) getActiveToken(ctx context.Context, userID, providerName string) (*models.SocialToken, error) {
	if userID == "" {
		return nil, badRequestError(ErrorCodeValidationFailed, "User ID is required")
	}

	token, err := a.store.FindSocialToken(ctx, userID, providerName)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, notFoundError(ErrorCodeTokenNotFound, "Access token not found")
		}
		return nil, internalServerError("Database error finding access token").WithInternalError(err)
	}

	if token.IsExpired(a.Now()) {
		return nil, unauthorizedError(ErrorCodeTokenExpired, "Access token expired")
	}

	return token, nil
}
