package models

// IsNotFoundError returns whether an error represents a "not found" error.
func IsNotFoundError(err error) bool {
	switch err.(type) {
	case SocialTokenNotFoundError, *SocialTokenNotFoundError:
		return true
	case AuthorizationStateNotFoundError, *AuthorizationStateNotFoundError:
		return true
	}
	return false
}

// SocialTokenNotFoundError represents when no access token is stored for a
// user and provider pair.
type SocialTokenNotFoundError struct{}

func (e SocialTokenNotFoundError) Error() string {
	return "Social token not found"
}

// AuthorizationStateNotFoundError represents when an authorization callback
// carries a state value with no matching stored state.
type AuthorizationStateNotFoundError struct{}

func (e AuthorizationStateNotFoundError) Error() string {
	return "Authorization state not found"
}
