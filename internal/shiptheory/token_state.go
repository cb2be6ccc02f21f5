package shiptheory

import "time"

const (
	// expirySafetyMargin is subtracted from a token's exp claim.
	expirySafetyMargin = 30 * time.Second
	// fallbackTokenLifetime applies to tokens without a readable exp claim.
	// The API issues tokens valid for 60 minutes.
	fallbackTokenLifetime = 58 * time.Minute
)

// TokenState is the cached access token of a credentials provider.
type TokenState struct {
	Token     string
	FetchedAt time.Time
	// ExpiresAt is the decoded exp claim, zero when the token has none.
	ExpiresAt time.Time
}

// IsExpired decides whether state must be refreshed before use at now.
// Tokens with an exp claim expire 30s early. Tokens without one expire once
// more than 58 minutes have passed since they were fetched.
func IsExpired(state TokenState, now time.Time) bool {
	if state.Token == "" {
		return true
	}
	if !state.ExpiresAt.IsZero() {
		return !now.Before(state.ExpiresAt.Add(-expirySafetyMargin))
	}
	return now.Sub(state.FetchedAt) > fallbackTokenLifetime
}
