package api

import (
	"net/http"

	"github.com/notecast/crosspost/internal/api/provider"
	"github.com/notecast/crosspost/internal/observability"
	"github.com/sirupsen/logrus"
)

// PostBatchParams holds a batch of notes to publish on behalf of a user.
type PostBatchParams struct {
	UserID string          `json:"userId"`
	Notes  []provider.Note `json:"notes"`
}

type PostBatchResponse struct {
	Success bool `json:"success"`
}

// PostBatch publishes a batch of notes to the provider, in order. The stored
// token is gated up front so a batch never partially runs on a missing or
// expired token. An empty batch succeeds without calling the provider.
//
// A publish failure aborts the remaining notes unless continue-on-error is
// configured; either way the response reports a single failure, with the
// details kept in the server logs.
func (a *API) PostBatch(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	p := getExternalProvider(ctx)
	providerName := getExternalProviderName(ctx)

	params := &PostBatchParams{}
	if err := retrieveRequestParams(r, params); err != nil {
		return err
	}

	for _, note := range params.Notes {
		if note.Content == "" {
			return badRequestError(ErrorCodeValidationFailed, "Note content is required")
		}
	}

	token, err := a.getActiveToken(ctx, params.UserID, providerName)
	if err != nil {
		return err
	}

	log := observability.GetLogEntry(r)

	failed := 0
	var firstErr error
	for i, note := range params.Notes {
		if err := p.Publish(ctx, token.AccessToken, note); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"provider":   providerName,
				"note_index": i,
			}).Error("Error publishing note")

			failed++
			if firstErr == nil {
				firstErr = err
			}
			if !a.config.Social.ContinueOnError {
				break
			}
		}
	}

	if firstErr != nil {
		return internalServerError("Failed to publish %d of %d notes to %s", failed, len(params.Notes), providerName).WithInternalError(firstErr)
	}

	return sendJSON(w, http.StatusOK, &PostBatchResponse{Success: true})
}
