package conf

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultStateExpiryDuration time.Duration = 300 * time.Second

// OAuthProviderConfiguration holds all config related to external account providers.
type OAuthProviderConfiguration struct {
	ClientID    string `json:"client_id" split_words:"true"`
	Secret      string `json:"secret"`
	RedirectURI string `json:"redirect_uri" split_words:"true"`
	URL         string `json:"url"`
	ApiURL      string `json:"api_url" split_words:"true"`
	Enabled     bool   `json:"enabled"`
}

// ValidateOAuth rejects a provider configuration with missing credentials so a
// flow never proceeds with an undefined client id, secret or redirect URI.
func (o *OAuthProviderConfiguration) ValidateOAuth() error {
	if !o.Enabled {
		return errors.New("provider is not enabled")
	}
	if o.ClientID == "" {
		return errors.New("missing OAuth client ID")
	}
	if o.Secret == "" {
		return errors.New("missing OAuth secret")
	}
	if o.RedirectURI == "" {
		return errors.New("missing redirect URI")
	}

	return nil
}

// SocialConfiguration holds the configuration of every social platform notes
// can be published to.
type SocialConfiguration struct {
	Twitter  OAuthProviderConfiguration `json:"twitter"`
	Facebook OAuthProviderConfiguration `json:"facebook"`
	Threads  OAuthProviderConfiguration `json:"threads"`

	// ContinueOnError makes a batch post keep publishing remaining notes
	// after a provider rejects one. The default aborts the batch on the
	// first error. Either way a failed batch surfaces as a single error.
	ContinueOnError bool `json:"continue_on_error" split_words:"true"`

	// StateExpiryDuration bounds how long an authorization round trip to a
	// provider may take before the stored state is rejected.
	StateExpiryDuration time.Duration `json:"state_expiry_duration" split_words:"true"`
}

// DBConfiguration holds all the database related configuration.
type DBConfiguration struct {
	Driver string `json:"driver" required:"true"`
	URL    string `json:"url" envconfig:"DATABASE_URL" required:"true"`
	// MaxPoolSize defaults to 0 (unlimited).
	MaxPoolSize       int           `json:"max_pool_size" split_words:"true"`
	MaxIdlePoolSize   int           `json:"max_idle_pool_size" split_words:"true"`
	ConnMaxLifetime   time.Duration `json:"conn_max_lifetime,omitempty" split_words:"true"`
	ConnMaxIdleTime   time.Duration `json:"conn_max_idle_time,omitempty" split_words:"true"`
	HealthCheckPeriod time.Duration `json:"health_check_period" split_words:"true"`
}

type APIConfiguration struct {
	Host            string
	Port            string `envconfig:"PORT" default:"8081"`
	RequestIDHeader string `envconfig:"REQUEST_ID_HEADER"`
	ExternalURL     string `json:"external_url" envconfig:"API_EXTERNAL_URL"`
}

func (a *APIConfiguration) Validate() error {
	if a.ExternalURL != "" {
		if _, err := url.ParseRequestURI(a.ExternalURL); err != nil {
			return err
		}
	}

	return nil
}

type LoggingConfig struct {
	Level            string                 `mapstructure:"log_level" json:"log_level"`
	File             string                 `mapstructure:"log_file" json:"log_file"`
	DisableColors    bool                   `mapstructure:"disable_colors" split_words:"true" json:"disable_colors"`
	QuoteEmptyFields bool                   `mapstructure:"quote_empty_fields" split_words:"true" json:"quote_empty_fields"`
	TSFormat         string                 `mapstructure:"ts_format" json:"ts_format"`
	Fields           map[string]interface{} `mapstructure:"fields" json:"fields"`
	SQL              string                 `mapstructure:"sql" json:"sql"`
}

// GlobalConfiguration holds all the configuration that applies to all instances.
type GlobalConfiguration struct {
	API     APIConfiguration
	DB      DBConfiguration
	Logging LoggingConfig `envconfig:"LOG"`
	Tracing TracingConfig
	Metrics MetricsConfig
	Social  SocialConfiguration `envconfig:"SOCIAL"`

	// SiteURL is where the note-taking frontend lives; completed
	// authorization flows redirect back to its note list.
	SiteURL         string  `json:"site_url" split_words:"true" required:"true"`
	RateLimitHeader string  `split_words:"true"`
	RateLimitPost   float64 `split_words:"true" default:"100"`
}

func loadEnvironment(filename string) error {
	var err error
	if filename != "" {
		err = godotenv.Overload(filename)
	} else {
		err = godotenv.Load()
		// handle if .env file does not exist, this is OK
		if os.IsNotExist(err) {
			return nil
		}
	}
	return err
}

// LoadGlobal loads configuration from file and environment variables.
func LoadGlobal(filename string) (*GlobalConfiguration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, err
	}

	config := new(GlobalConfiguration)
	if err := envconfig.Process("crosspost", config); err != nil {
		return nil, err
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyDefaults sets defaults for a GlobalConfiguration
func (config *GlobalConfiguration) ApplyDefaults() error {
	if config.Social.StateExpiryDuration == 0 {
		config.Social.StateExpiryDuration = defaultStateExpiryDuration
	}

	return nil
}

// Providers returns the configuration for every enabled provider keyed by name.
func (config *GlobalConfiguration) Providers() map[string]OAuthProviderConfiguration {
	all := map[string]OAuthProviderConfiguration{
		"twitter":  config.Social.Twitter,
		"facebook": config.Social.Facebook,
		"threads":  config.Social.Threads,
	}

	enabled := make(map[string]OAuthProviderConfiguration)
	for name, ext := range all {
		if ext.Enabled {
			enabled[name] = ext
		}
	}
	return enabled
}

// ProviderConfiguration looks up the configuration of a single provider by
// name, enabled or not. Unknown names are an error.
func (config *GlobalConfiguration) ProviderConfiguration(name string) (OAuthProviderConfiguration, error) {
	switch name {
	case "twitter":
		return config.Social.Twitter, nil
	case "facebook":
		return config.Social.Facebook, nil
	case "threads":
		return config.Social.Threads, nil
	}
	return OAuthProviderConfiguration{}, fmt.Errorf("provider %q is not supported", name)
}

func (config *GlobalConfiguration) Validate() error {
	validatables := []interface {
		Validate() error
	}{
		&config.API,
		&config.Tracing,
		&config.Metrics,
	}

	for _, validatable := range validatables {
		if err := validatable.Validate(); err != nil {
			return err
		}
	}

	return nil
}
