package types

import "errors"

// Engine-wide error taxonomy. API handlers map these to HTTP statuses with
// errors.Is; packages wrap them with fmt.Errorf("...: %w", ...) for context.
var (
	// ErrAuthenticationRequired means the request carried no caller identity.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNoProviderAvailable means no usable model credential could be resolved.
	ErrNoProviderAvailable = errors.New("no model provider available")

	// ErrRateLimited means the per-user request-frequency cap was hit.
	// Recoverable: the caller retries after the indicated delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrDailyQuotaExceeded means the platform free-tier daily cap was hit.
	ErrDailyQuotaExceeded = errors.New("daily free quota exceeded")

	// ErrPermissionDenied means no matching grant exists or it was revoked.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConfirmationRequired is not a failure: the action passed permission
	// checks but needs one explicit human confirmation before it runs.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrActionLimitExceeded means the per-action value ceiling was breached.
	ErrActionLimitExceeded = errors.New("action value limit exceeded")

	// ErrUnknownAction means the action id is not in the catalog.
	ErrUnknownAction = errors.New("unknown action")

	// ErrProvider wraps an upstream model-call failure. Never retried here.
	ErrProvider = errors.New("provider error")

	// ErrAuth wraps an invalid-credential failure from a provider.
	ErrAuth = errors.New("invalid provider credential")

	// ErrExecutionFailed means the entity collaborator reported an error.
	ErrExecutionFailed = errors.New("execution failed")
)
