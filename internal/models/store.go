package models

import (
	"context"

	"github.com/notecast/crosspost/internal/storage"
)

// Store is the persistence surface the API handlers depend on. The database
// implementation below is the only one outside of tests; the indirection
// exists so handlers can be exercised with a test double instead of a live
// database.
type Store interface {
	UpsertSocialToken(ctx context.Context, token *SocialToken) error
	FindSocialToken(ctx context.Context, userID, provider string) (*SocialToken, error)
	CreateAuthorizationState(ctx context.Context, state *AuthorizationState) error
	ConsumeAuthorizationState(ctx context.Context, id string) (*AuthorizationState, error)
}

type dbStore struct {
	db *storage.Connection
}

// NewStore wraps a database connection as a Store.
func NewStore(db *storage.Connection) Store {
	return &dbStore{db: db}
}

func (s *dbStore) UpsertSocialToken(ctx context.Context, token *SocialToken) error {
	return UpsertSocialToken(s.db.WithContext(ctx), token)
}

func (s *dbStore) FindSocialToken(ctx context.Context, userID, provider string) (*SocialToken, error) {
	return FindSocialToken(s.db.WithContext(ctx), userID, provider)
}

func (s *dbStore) CreateAuthorizationState(ctx context.Context, state *AuthorizationState) error {
	return CreateAuthorizationState(s.db.WithContext(ctx), state)
}

func (s *dbStore) ConsumeAuthorizationState(ctx context.Context, id string) (*AuthorizationState, error) {
	return ConsumeAuthorizationState(s.db.WithContext(ctx), id)
}
