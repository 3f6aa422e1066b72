package models

import (
	"database/sql"
	"time"

	"github.com/gofrs/uuid"
	"github.com/notecast/crosspost/internal/storage"
	"github.com/pkg/errors"
)

// AuthorizationState is the server-stored half of the state parameter
// threaded through an OAuth redirect round trip. The callback is only trusted
// when it presents a state value that matches a stored record for the same
// provider that has not yet expired. Records are one-time use.
type AuthorizationState struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Provider     string    `json:"provider" db:"provider"`
	CodeVerifier string    `json:"-" db:"code_verifier"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
}

func (AuthorizationState) TableName() string {
	tableName := "authorization_states"
	return tableName
}

// NewAuthorizationState creates a state record bound to the initiating user.
// The id doubles as the state parameter value; uuid v4 is drawn from
// crypto/rand so the value is not guessable. codeVerifier is empty for
// providers that do not use proof-key exchange.
func NewAuthorizationState(userID, provider, codeVerifier string, expiryDuration time.Duration) (*AuthorizationState, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}

	now := time.Now()
	return &AuthorizationState{
		ID:           uuid.Must(uuid.NewV4()),
		UserID:       userID,
		Provider:     provider,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(expiryDuration),
	}, nil
}

// IsExpired reports whether the authorization round trip took longer than the
// state TTL allows.
func (s *AuthorizationState) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// CreateAuthorizationState persists the state for a begun flow.
func CreateAuthorizationState(tx *storage.Connection, state *AuthorizationState) error {
	return errors.Wrap(tx.Create(state), "error creating authorization state")
}

// ConsumeAuthorizationState loads a state by id and destroys it so the same
// callback cannot be replayed. Expiry is the caller's concern; a consumed
// expired state is still gone.
func ConsumeAuthorizationState(tx *storage.Connection, id string) (*AuthorizationState, error) {
	state := &AuthorizationState{}
	err := tx.Transaction(func(rtx *storage.Connection) error {
		if err := rtx.Q().Where("id = ?", id).First(state); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return AuthorizationStateNotFoundError{}
			}
			return errors.Wrap(err, "error finding authorization state")
		}
		return errors.Wrap(rtx.Destroy(state), "error destroying authorization state")
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
