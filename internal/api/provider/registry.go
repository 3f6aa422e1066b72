package provider

import (
	"fmt"

	"github.com/notecast/crosspost/internal/conf"
)

// New constructs the provider with the given name from its configuration.
// The provider set is closed; unknown names are an error. Providers are
// plain values constructed per use, there are no package-level singletons.
func New(name string, ext conf.OAuthProviderConfiguration) (Provider, error) {
	switch name {
	case "twitter":
		return NewTwitterProvider(ext)
	case "facebook":
		return NewFacebookProvider(ext)
	case "threads":
		return NewThreadsProvider(ext)
	}
	return nil, fmt.Errorf("provider %q could not be found", name)
}
