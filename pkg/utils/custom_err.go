package utils

import "errors"

// Validation errors: rejected before any remote call, never retried.
var (
	ErrTierUnavailable             = errors.New("no billing plan configured for tier")
	ErrDuplicateActiveSubscription = errors.New("account already has an active subscription")
	ErrNotAnUpgrade                = errors.New("target tier is not higher than current tier")
	ErrNotADowngrade               = errors.New("target tier is not lower than current tier")
	ErrNoPendingDowngrade          = errors.New("no downgrade is scheduled")
	ErrNotPaused                   = errors.New("subscription is not paused")
	ErrInvalidRetentionAction      = errors.New("unknown retention action")
	ErrSpreadNotFound              = errors.New("spread not found")
	ErrFeatureNotOffered           = errors.New("feature not offered")
)

// Authorization errors: surfaced as a generic forbidden, no resource detail.
var (
	ErrForbidden = errors.New("forbidden")
)

// Not-found and storage errors.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDatabaseError        = errors.New("database error")
)

// Webhook errors. A bad signature is the single webhook failure the
// endpoint refuses; everything after signature verification is acked.
var (
	ErrWebhookSignature = errors.New("webhook signature verification failed")
)

// Gateway errors: the only category allowed to leave local state untouched
// on purpose. The caller is prompted to retry; recovery runs through the
// webhook or sync path, never by replaying the mutating call.
var (
	ErrGatewayUnavailable = errors.New("billing gateway call failed")
)

// Integrity errors: an invariant would be broken. Programming-level signal,
// logged at high severity, operation refused.
var (
	ErrIntegrityViolation = errors.New("subscription state integrity violation")
)
