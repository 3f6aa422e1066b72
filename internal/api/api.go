package api

import (
	"context"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	"github.com/notecast/crosspost/internal/conf"
	"github.com/notecast/crosspost/internal/models"
	"github.com/notecast/crosspost/internal/observability"
	"github.com/notecast/crosspost/internal/storage"
	"github.com/rs/cors"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"
)

const (
	defaultVersion = "unknown version"
)

// API is the main REST API
type API struct {
	handler http.Handler
	store   models.Store
	config  *conf.GlobalConfiguration
	version string

	// overrideTime can be used to override the clock used by handlers. Should only be used in tests!
	overrideTime func() time.Time
}

// Now returns the current time, or the overridden time when set.
func (a *API) Now() time.Time {
	if a.overrideTime != nil {
		return a.overrideTime()
	}
	return time.Now()
}

// NewAPI instantiates a new REST API
func NewAPI(globalConfig *conf.GlobalConfiguration, db *storage.Connection) *API {
	return NewAPIWithVersion(context.Background(), globalConfig, db, defaultVersion)
}

// NewAPIWithVersion creates a new REST API using the specified version
func NewAPIWithVersion(ctx context.Context, globalConfig *conf.GlobalConfiguration, db *storage.Connection, version string) *API {
	return newAPI(globalConfig, models.NewStore(db), version)
}

// newAPI does all the route and middleware wiring. The store is injected so
// tests can swap the database for a double.
func newAPI(globalConfig *conf.GlobalConfiguration, store models.Store, version string) *API {
	api := &API{
		config:  globalConfig,
		store:   store,
		version: version,
	}

	xffmw, _ := xff.Default()
	logger := observability.NewStructuredLogger(logrus.StandardLogger())

	r := newRouter()
	r.Use(addRequestID(globalConfig))

	if globalConfig.Tracing.Enabled || globalConfig.Metrics.Enabled {
		r.UseBypass(observability.RequestTracing())
	}

	r.UseBypass(xffmw.Handler)
	r.Use(recoverer)

	r.Get("/health", api.HealthCheck)

	r.Route("/", func(r *router) {
		r.UseBypass(logger)

		r.Get("/settings", api.Settings)

		r.Route("/authorize/{provider}", func(r *router) {
			r.Use(api.loadExternalProvider)
			r.Get("/", api.ExternalProviderAuthorize)
		})

		r.Route("/token/{provider}", func(r *router) {
			r.Use(api.loadExternalProvider)
			r.Get("/", api.TokenGet)
		})

		postLimiter := tollbooth.NewLimiter(api.config.RateLimitPost/(60*60), &limiter.ExpirableOptions{
			DefaultExpirationTTL: time.Hour,
		}).SetBurst(30)
		r.Route("/post/{provider}", func(r *router) {
			r.Use(api.limitHandler(postLimiter))
			r.Use(api.loadExternalProvider)
			r.Post("/", api.PostBatch)
		})
	})

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", api.config.API.RequestIDHeader},
		AllowCredentials: true,
	})

	api.handler = corsHandler.Handler(r)
	return api
}

// HealthCheck endpoint indicates if the service is available
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	return sendJSON(w, http.StatusOK, HealthCheckResponse{
		Version:     a.version,
		Name:        "crosspost",
		Description: "crosspost publishes notes to external social platforms",
	})
}

type HealthCheckResponse struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SettingsResponse reports which providers are available, without leaking
// credentials.
type SettingsResponse struct {
	ExternalProviders map[string]bool `json:"external"`
}

func (a *API) Settings(w http.ResponseWriter, r *http.Request) error {
	return sendJSON(w, http.StatusOK, &SettingsResponse{
		ExternalProviders: map[string]bool{
			"twitter":  a.config.Social.Twitter.Enabled,
			"facebook": a.config.Social.Facebook.Enabled,
			"threads":  a.config.Social.Threads.Enabled,
		},
	})
}
