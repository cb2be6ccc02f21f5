package shiptheory

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// NewTokenProvider picks the static token when cfg.AccessToken is set and
// the credentials exchange otherwise.
func NewTokenProvider(cfg Config, httpClient Doer, logger *zap.Logger) (TokenProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AccessToken != "" {
		logger.Info("using permanent access token", zap.String("access_token", maskToken(cfg.AccessToken)))
		return NewStaticToken(cfg.AccessToken), nil
	}

	logger.Info("using credentials access token", zap.String("base_url", cfg.BaseURL))
	return NewCredentialsToken(cfg.Username, cfg.Password, CredentialsTokenOptions{
		HTTPClient: httpClient,
		BaseURL:    cfg.BaseURL,
		PartnerTag: cfg.PartnerTag,
		Logger:     logger.Named("credentials"),
	})
}

// NewClientFromConfig wires an HTTP client with the configured timeout, a
// token provider and the API client.
func NewClientFromConfig(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		var err error
		logger, err = NewLogger(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout.Duration,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ForceAttemptHTTP2:     true,
			ResponseHeaderTimeout: cfg.RequestTimeout.Duration,
		},
	}

	tokens, err := NewTokenProvider(cfg, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("init token provider: %w", err)
	}

	return NewClient(tokens, &ClientOptions{
		HTTPClient: httpClient,
		BaseURL:    cfg.BaseURL,
		PartnerTag: cfg.PartnerTag,
		Logger:     logger.Named("client"),
	})
}
