package shiptheory

import (
	"context"
	"net/http"
)

// TokenProvider supplies the bearer token for API calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StaticToken is a permanent access token issued from the Shiptheory UI. It
// never expires and never touches the network.
type StaticToken struct {
	token string
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: token}
}

// Token returns the configured token. An empty token is reported as an
// *AuthError here rather than sent as "Bearer " and rejected upstream.
func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", newAuthError("static access token is empty", 0, "", nil)
	}
	return s.token, nil
}

// maskToken masks a token for safe logging, showing only a short prefix.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
