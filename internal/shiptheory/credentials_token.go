package shiptheory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath       = "/token"
	maxResponseSize = 1 << 20 // 1MB limit for token responses
	// exchangeTimeout bounds a shared exchange, which no single caller owns.
	exchangeTimeout = 30 * time.Second
)

type CredentialsTokenOptions struct {
	HTTPClient Doer
	BaseURL    string
	PartnerTag string
	Logger     *zap.Logger
	Now        func() time.Time
}

// CredentialsToken exchanges a username and password for an access token
// and caches it until IsExpired reports it stale. It is safe for concurrent
// use; callers that find the token stale at the same time share a single
// exchange.
type CredentialsToken struct {
	username   string
	password   string
	httpClient Doer
	builder    *requestBuilder
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	state TokenState
	group singleflight.Group
}

func NewCredentialsToken(username, password string, opts CredentialsTokenOptions) (*CredentialsToken, error) {
	if username == "" {
		return nil, errors.New("shiptheory username is required")
	}
	if password == "" {
		return nil, errors.New("shiptheory password is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	builder, err := newRequestBuilder(opts.BaseURL, opts.PartnerTag)
	if err != nil {
		return nil, err
	}

	return &CredentialsToken{
		username:   username,
		password:   password,
		httpClient: opts.HTTPClient,
		builder:    builder,
		logger:     opts.Logger,
		now:        opts.Now,
	}, nil
}

// Token returns the cached token, fetching a new one first when there is
// none or it has expired. A caller whose ctx ends while waiting on the
// shared exchange returns ctx.Err(); the exchange itself keeps running for
// the remaining callers.
func (c *CredentialsToken) Token(ctx context.Context) (string, error) {
	if state := c.State(); !IsExpired(state, c.now()) {
		return state.Token, nil
	}

	ch := c.group.DoChan("token", func() (any, error) {
		if state := c.State(); !IsExpired(state, c.now()) {
			return state.Token, nil
		}

		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exchangeTimeout)
		defer cancel()

		next, err := c.exchange(exchangeCtx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.state = next
		c.mu.Unlock()
		return next.Token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// State returns a copy of the cached token state.
func (c *CredentialsToken) State() TokenState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *CredentialsToken) exchange(ctx context.Context) (TokenState, error) {
	body, err := json.Marshal(map[string]string{
		"email":    c.username,
		"password": c.password,
	})
	if err != nil {
		return TokenState{}, fmt.Errorf("marshal token body: %w", err)
	}

	req, err := c.builder.Build(ctx, http.MethodGet, tokenPath, "", body)
	if err != nil {
		return TokenState{}, err
	}
	req.Header.Del("Authorization")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenState{}, newTransportError(req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return TokenState{}, newTransportError(req.Method, req.URL.Redacted(), err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil || decoded == nil {
		return TokenState{}, newAuthError("undecodable token response", resp.StatusCode, "", err)
	}
	obj, _ := decoded.(map[string]any)
	message, _ := obj["message"].(string)

	if resp.StatusCode != http.StatusOK {
		return TokenState{}, newAuthError("unable to authorise with shiptheory", resp.StatusCode, message, nil)
	}

	payload, _ := obj["data"].(map[string]any)
	token, _ := payload["token"].(string)
	if token == "" {
		return TokenState{}, newAuthError("ok response without a token", resp.StatusCode, message, nil)
	}

	state := TokenState{Token: token, FetchedAt: c.now()}
	if isJWTShaped(token) {
		claims, err := DecodeToken(token)
		if err != nil {
			return TokenState{}, err
		}
		if exp, ok := claims.ExpiresAt(); ok {
			state.ExpiresAt = exp
		}
	}

	c.logger.Info("access token retrieved",
		zap.String("access_token", maskToken(token)),
		zap.Time("fetched_at", state.FetchedAt),
		zap.Time("expires_at", state.ExpiresAt),
	)
	return state, nil
}
