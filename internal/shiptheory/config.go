package shiptheory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Duration parses from human-friendly strings (e.g., "60s") or numeric seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	}
	var seconds int64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return err
	}
	d.Duration = time.Duration(seconds) * time.Second
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		d.Duration = time.Duration(seconds) * time.Second
		return nil
	}
	var text string
	if err := value.Decode(&text); err == nil {
		parsed, err := time.ParseDuration(text)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	}
	return errors.New("invalid duration format")
}

// Config holds client settings. Set either AccessToken (a permanent token)
// or Username and Password.
type Config struct {
	BaseURL        string   `json:"base_url" yaml:"base_url"`
	AccessToken    string   `json:"access_token" yaml:"access_token"`
	Username       string   `json:"username" yaml:"username"`
	Password       string   `json:"password" yaml:"password"`
	PartnerTag     string   `json:"partner_tag" yaml:"partner_tag"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		LogLevel:       "info",
		RequestTimeout: Duration{Duration: 30 * time.Second},
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		format := detectFormat(path)
		if err := decodeConfig(format, data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}

	ensureDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs error

	if c.BaseURL == "" {
		errs = multierr.Append(errs, errors.New("base_url cannot be empty"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierr.Append(errs, fmt.Errorf("base_url %q must be an absolute url", c.BaseURL))
	}

	if c.RequestTimeout.Duration <= 0 {
		errs = multierr.Append(errs, errors.New("request_timeout must be positive"))
	}

	switch {
	case c.AccessToken != "" && (c.Username != "" || c.Password != ""):
		errs = multierr.Append(errs, errors.New("access_token cannot be combined with username/password"))
	case c.AccessToken == "" && c.Username == "":
		errs = multierr.Append(errs, errors.New("either access_token or username must be set"))
	}

	return errs
}

func detectFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json"
	case ".yml", ".yaml":
		return "yaml"
	default:
		return "yaml" // prefer YAML when ambiguous
	}
}

func decodeConfig(format string, data []byte, cfg *Config) error {
	switch format {
	case "json":
		return json.Unmarshal(data, cfg)
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format: %s", format)
	}
}

func ensureDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultConfig().LogLevel
	}
	if cfg.RequestTimeout.Duration == 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
}
