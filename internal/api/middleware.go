package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/notecast/crosspost/internal/api/provider"
	"github.com/notecast/crosspost/internal/observability"
)

func (a *API) limitHandler(lmt *limiter.Limiter) middlewareHandler {
	return func(w http.ResponseWriter, req *http.Request) (context.Context, error) {
		c := req.Context()

		if limitHeader := a.config.RateLimitHeader; limitHeader != "" {
			key := req.Header.Get(limitHeader)

			if key == "" {
				log := observability.GetLogEntry(req)
				log.WithField("header", limitHeader).Warn("request does not have a value for the rate limiting header, rate limiting is not applied")
			} else if err := tollbooth.LimitByKeys(lmt, []string{key}); err != nil {
				return c, tooManyRequestsError(ErrorCodeOverRequestRateLimit, "Request rate limit reached")
			}
		}

		return c, nil
	}
}

// loadExternalProvider resolves the {provider} URL parameter into a
// configured provider client and stashes it on the request context. Requests
// for unknown or unconfigured providers never reach the handlers.
func (a *API) loadExternalProvider(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	name := strings.ToLower(chi.URLParam(r, "provider"))

	config, err := a.config.ProviderConfiguration(name)
	if err != nil {
		return nil, badRequestError(ErrorCodeValidationFailed, "Unsupported provider: %v", name)
	}

	if err := config.ValidateOAuth(); err != nil {
		return nil, badRequestError(ErrorCodeProviderDisabled, "Provider %v is not configured: %v", name, err)
	}

	p, err := provider.New(name, config)
	if err != nil {
		return nil, internalServerError("Error creating provider client").WithInternalError(err)
	}

	observability.LogEntrySetField(r, "provider", name)

	return withExternalProvider(ctx, name, p), nil
}
