package api

import (
	"context"

	"github.com/notecast/crosspost/internal/api/provider"
)

type contextKey string

func (c contextKey) String() string {
	return "api context key " + string(c)
}

const (
	externalProviderKey     = contextKey("external_provider")
	externalProviderNameKey = contextKey("external_provider_name")
)

// withExternalProvider adds the resolved provider client and its name to the
// context.
func withExternalProvider(ctx context.Context, name string, p provider.Provider) context.Context {
	ctx = context.WithValue(ctx, externalProviderKey, p)
	return context.WithValue(ctx, externalProviderNameKey, name)
}

func getExternalProvider(ctx context.Context) provider.Provider {
	obj := ctx.Value(externalProviderKey)
	if obj == nil {
		return nil
	}
	return obj.(provider.Provider)
}

func getExternalProviderName(ctx context.Context) string {
	obj := ctx.Value(externalProviderNameKey)
	if obj == nil {
		return ""
	}
	return obj.(string)
}
