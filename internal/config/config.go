package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultPageSize is the listing limit requested per page. A page with
	// fewer raw children than this is the last page of its stream.
	DefaultPageSize = 50
	// DefaultConcurrency bounds in-flight delete calls per stream.
	DefaultConcurrency = 8
)

// Credentials holds the Reddit script-app credentials used for the OAuth
// password grant.
type Credentials struct {
	ClientID string `mapstructure:"client_id"`
	Secret   string `mapstructure:"secret"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Settings is the full runtime configuration, loaded from the .regreddit
// config file and REGREDDIT_* environment variables.
type Settings struct {
	Credentials Credentials `mapstructure:"credentials"`
	// Whitelist lists subreddits whose posts and comments are never deleted.
	Whitelist []string `mapstructure:"whitelist"`

	UserAgent      string        `mapstructure:"user_agent"`
	PageSize       int           `mapstructure:"page_size"`
	Concurrency    int           `mapstructure:"concurrency"`
	ProxyURLs      []string      `mapstructure:"proxy_urls"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
}

// Load reads the configuration. cfgFile overrides the default search for a
// .regreddit file in the working directory and $HOME.
func Load(cfgFile string) (*Settings, error) {
	// Environment variables from a local .env take effect before viper reads.
	_ = godotenv.Load()

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".regreddit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("REGREDDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func setDefaults(v *viper.Viper) {
	// Credential keys get empty defaults so AutomaticEnv can bind
	// REGREDDIT_CREDENTIALS_* even without a config file.
	v.SetDefault("credentials.client_id", "")
	v.SetDefault("credentials.secret", "")
	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")

	v.SetDefault("user_agent", "regreddit/1.0")
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("max_retries", 3)
	v.SetDefault("request_timeout", "30s")
}

func (s *Settings) validate() error {
	c := s.Credentials
	if c.ClientID == "" || c.Secret == "" || c.Username == "" || c.Password == "" {
		return fmt.Errorf("credentials are incomplete: client_id, secret, username and password are all required")
	}

	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultConcurrency
	}

	for _, p := range s.ProxyURLs {
		if p == "" {
			continue
		}
		if _, err := url.Parse(p); err != nil {
			return fmt.Errorf("invalid proxy URL %s: %w", p, err)
		}
		if !strings.Contains(p, "://") {
			return fmt.Errorf("invalid proxy URL %s: missing scheme", p)
		}
	}

	return nil
}
