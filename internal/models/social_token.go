package models

import (
	"database/sql"
	"time"

	"github.com/gobuffalo/pop/v6"
	"github.com/gofrs/uuid"
	"github.com/notecast/crosspost/internal/storage"
	"github.com/pkg/errors"
)

// SocialToken is the access token obtained from an external social platform
// on behalf of one user. At most one live token exists per (user, provider)
// pair. The token value itself must never be logged.
type SocialToken struct {
	ID          uuid.UUID  `json:"-" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Provider    string     `json:"provider" db:"provider"`
	AccessToken string     `json:"-" db:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (SocialToken) TableName() string {
	tableName := "social_tokens"
	return tableName
}

// NewSocialToken builds a token record for a completed authorization code
// exchange. A nil expiresAt means the provider issued a token without expiry.
func NewSocialToken(userID, provider, accessToken string, expiresAt *time.Time) (*SocialToken, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}

	return &SocialToken{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		Provider:    provider,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// IsExpired reports whether the token is past its expiry at the given time.
// Tokens without an expiry never expire. Expiry is advisory and checked at
// read time only; expired records are kept until overwritten by a fresh
// authorization flow.
func (t *SocialToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// UpsertSocialToken writes the token, overwriting any previous record for the
// same (user, provider) pair. The conflict resolution is a single statement
// so concurrent completions cannot leave two rows behind; last writer wins.
func UpsertSocialToken(tx *storage.Connection, token *SocialToken) error {
	currentTime := time.Now()
	return tx.RawQuery("INSERT INTO "+(&pop.Model{Value: SocialToken{}}).TableName()+
		` (id, user_id, provider, access_token, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, provider)
			DO UPDATE SET access_token = excluded.access_token, expires_at = excluded.expires_at, updated_at = ?;`,
		token.ID, token.UserID, token.Provider, token.AccessToken, token.ExpiresAt, currentTime, currentTime, currentTime).Exec()
}

// FindSocialToken looks up the stored token for a user and provider.
func FindSocialToken(tx *storage.Connection, userID, provider string) (*SocialToken, error) {
	token := &SocialToken{}
	err := tx.Q().Where("user_id = ? and provider = ?", userID, provider).First(token)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, SocialTokenNotFoundError{}
		}
		return nil, errors.Wrap(err, "error finding social token")
	}
	return token, nil
}
