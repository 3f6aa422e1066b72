package api

type ErrorCode = string

const (
	// ErrorCodeUnknown should not be used directly, it only indicates a failure in the error handling system in such a way that an error code was not assigned properly.
	ErrorCodeUnknown ErrorCode = "unknown"

	// ErrorCodeUnexpectedFailure signals an unexpected failure such as a 500 Internal Server Error.
	ErrorCodeUnexpectedFailure ErrorCode = "unexpected_failure"

	ErrorCodeValidationFailed           ErrorCode = "validation_failed"
	ErrorCodeBadJSON                    ErrorCode = "bad_json"
	ErrorCodeTokenNotFound              ErrorCode = "token_not_found"
	ErrorCodeTokenExpired               ErrorCode = "token_expired"
	ErrorCodeAuthorizationStateNotFound ErrorCode = "authorization_state_not_found"
	ErrorCodeAuthorizationStateExpired  ErrorCode = "authorization_state_expired"
	ErrorCodeProviderDisabled           ErrorCode = "provider_disabled"
	ErrorCodeOverRequestRateLimit       ErrorCode = "over_request_rate_limit"
	ErrorCodeConflict                   ErrorCode = "conflict"
)
