package shiptheory

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfigFile(t, "shiptheory.yaml", `
username: ops@example.com
password: hunter2
partner_tag: acme
log_level: debug
request_timeout: 45s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "acme", cfg.PartnerTag)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
}

func TestLoadConfigJSONNumericTimeout(t *testing.T) {
	path := writeConfigFile(t, "shiptheory.json", `{"access_token":"perm-token","request_timeout":10}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "perm-token", cfg.AccessToken)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Config{
		BaseURL:     "not a url",
		AccessToken: "perm",
		Username:    "ops@example.com",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"base_url", "request_timeout", "cannot be combined"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateRequiresAuth(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "no credentials")

	cfg.Username = "ops@example.com"
	assert.NoError(t, cfg.Validate(), "username alone should validate (password may be prompted)")
}

func TestNewTokenProviderSelectsVariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessToken = "perm-token"
	provider, err := NewTokenProvider(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &StaticToken{}, provider)

	cfg = DefaultConfig()
	cfg.Username = "ops@example.com"
	cfg.Password = "hunter2"
	provider, err = NewTokenProvider(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &CredentialsToken{}, provider)
}

func TestNewClientFromConfig(t *testing.T) {
	server := newHTTPTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			io.WriteString(w, `{"data":{"token":"session"}}`)
		default:
			if r.Header.Get("Authorization") != "Bearer session" || r.Header.Get(partnerTagHeader) != "acme" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"tags":[]}`)
		}
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Username = "ops@example.com"
	cfg.Password = "hunter2"
	cfg.PartnerTag = "acme"
	cfg.RequestTimeout = Duration{Duration: 2 * time.Second}

	client, err := NewClientFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	resp, err := client.ListTags(context.Background())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("chatty")
	assert.Error(t, err)

	_, err = NewLogger("")
	assert.NoError(t, err, "default level")
}
