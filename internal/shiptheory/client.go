package shiptheory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClientOptions struct {
	HTTPClient Doer
	BaseURL    string
	PartnerTag string
	Logger     *zap.Logger
	Now        func() time.Time
}

// Client sends authenticated requests to the Shiptheory API.
type Client struct {
	tokens     TokenProvider
	httpClient Doer
	builder    *requestBuilder
	logger     *zap.Logger
	now        func() time.Time
}

func NewClient(tokens TokenProvider, opts *ClientOptions) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("token provider is required")
	}
	if opts == nil {
		opts = &ClientOptions{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	builder, err := newRequestBuilder(opts.BaseURL, opts.PartnerTag)
	if err != nil {
		return nil, err
	}

	return &Client{
		tokens:     tokens,
		httpClient: httpClient,
		builder:    builder,
		logger:     logger,
		now:        now,
	}, nil
}

// MakeRequest obtains a token, sends method and path with the optional JSON
// body and returns the response unread. Token errors (*AuthError,
// *FormatError) are returned as is; transport failures are logged and
// returned as *TransportError. Nothing is retried.
func (c *Client) MakeRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.builder.Build(ctx, method, path, token, body)
	if err != nil {
		return nil, err
	}

	start := c.now()
	logger := c.logger.With(
		zap.String("correlation_id", correlationID(req.Method, path, start)),
		zap.String("method", req.Method),
		zap.String("path", path),
	)
	debug := logger.Core().Enabled(zap.DebugLevel)

	if debug {
		if rendered, err := RenderRequest(req); err != nil {
			logger.Warn("render request", zap.Error(err))
		} else {
			logger.Debug("shiptheory request", zap.String("message", rendered))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		transportErr := newTransportError(req.Method, req.URL.Redacted(), err)
		logger.Error("shiptheory request failed", zap.Error(transportErr))
		return nil, transportErr
	}

	if debug {
		// A failed read stays in resp.Body for the caller to see.
		if rendered, err := RenderResponse(resp); err != nil {
			logger.Warn("render response", zap.Int("status", resp.StatusCode), zap.Error(err))
		} else {
			logger.Debug("shiptheory response",
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", c.now().Sub(start).Round(time.Millisecond)),
				zap.String("message", rendered),
			)
		}
	}

	return resp, nil
}

// correlationID ties the request and response log lines of one call.
func correlationID(method, path string, at time.Time) string {
	name := fmt.Sprintf("%s %s %d", method, path, at.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
