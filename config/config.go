package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"

	"github.com/slighter12/go-lib/database/postgres"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultMaxRequestBodySize = "100KB"
	defaultHTTPPort           = 8080
	defaultQueryTimeout       = 5 * time.Second
	defaultAlgorithm          = "HS256"
	defaultAccessTTLMinutes   = 480
	defaultRefreshTTLDays     = 30
	defaultLineVerifyURL      = "https://api.line.me/oauth2/v2.1/verify"
	defaultLineIssuer         = "https://access.line.me"
	defaultFederatedTimeout   = 5 * time.Second
	defaultRateLimitPerSecond = 1
	defaultRateLimitBurst     = 5
	defaultMetricsPath        = "/metrics"
	defaultRateLimitExpiresIn = 3 * time.Minute
)

// Federated login providers.
const (
	ProviderLine = "line"
	ProviderOIDC = "oidc"
)

// Legacy environment names kept working as aliases of structured keys.
const (
	legacySigningKeyEnv  = "SECRET_KEY"
	legacyAlgorithmEnv   = "ALGORITHM"
	legacyAccessTTLEnv   = "ACCESS_TOKEN_EXPIRE_MINUTES"
	legacyLineChannelEnv = "LINE_LOGIN_CHANNEL_ID"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Database DatabaseConfig `json:"database" yaml:"database"`

	Token TokenConfig `json:"token" yaml:"token"`

	Federated FederatedConfig `json:"federated" yaml:"federated"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// DatabaseConfig bounds persistence calls and controls schema management at start.
type DatabaseConfig struct {
	QueryTimeout time.Duration `json:"queryTimeout" yaml:"queryTimeout"`
	AutoMigrate  bool          `json:"autoMigrate" yaml:"autoMigrate"`
	// SessionPurgeInterval runs the expired-session sweeper; zero disables it.
	SessionPurgeInterval time.Duration `json:"sessionPurgeInterval" yaml:"sessionPurgeInterval"`
}

// TokenConfig defines how bearer tokens are signed.
type TokenConfig struct {
	SigningKey       string `json:"signingKey" yaml:"signingKey"`
	Algorithm        string `json:"algorithm" yaml:"algorithm"`
	AccessTTLMinutes int    `json:"accessTTLMinutes" yaml:"accessTTLMinutes"`
	RefreshTTLDays   int    `json:"refreshTTLDays" yaml:"refreshTTLDays"`
}

// AccessTTL returns the lifetime of access tokens.
func (t TokenConfig) AccessTTL() time.Duration {
	return time.Duration(t.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the lifetime of refresh tokens and their sessions.
func (t TokenConfig) RefreshTTL() time.Duration {
	return time.Duration(t.RefreshTTLDays) * 24 * time.Hour
}

// FederatedConfig selects and configures the federated login provider.
type FederatedConfig struct {
	// Provider is "line" (verify endpoint) or "oidc" (discovery + JWKS).
	Provider   string        `json:"provider" yaml:"provider"`
	ClientID   string        `json:"clientId" yaml:"clientId"`
	VerifyURL  string        `json:"verifyURL" yaml:"verifyURL"`
	Issuer     string        `json:"issuer" yaml:"issuer"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries uint64        `json:"maxRetries" yaml:"maxRetries"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost  int    `json:"bcryptCost" yaml:"bcryptCost"`
	DefaultRole string `json:"defaultRole" yaml:"defaultRole"`
}

// RateLimitConfig throttles the login endpoints per client IP.
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond float64       `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int           `json:"burst" yaml:"burst"`
	ExpiresIn         time.Duration `json:"expiresIn" yaml:"expiresIn"`
}

// MetricsConfig exposes the prometheus registry over HTTP.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// New loads the configuration and validates it. A validation failure is a
// *errors.ConfigurationError and aborts application start.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads config.yaml with environment overrides and fills defaults without validating.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := loadYAML(cfg, "config", searchDirs...); err != nil {
		return nil, err
	}

	if err := applyLegacyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = replicasFromEnv(os.LookupEnv)
	}

	return cfg, nil
}

// legacyAlias maps a pre-structured environment name onto the key it used to set.
type legacyAlias struct {
	legacy     string
	structured string
	apply      func(cfg *Config, value string) error
}

var legacyAliases = []legacyAlias{
	{legacy: legacySigningKeyEnv, structured: "TOKEN_SIGNINGKEY", apply: func(cfg *Config, v string) error {
		cfg.Token.SigningKey = v

		return nil
	}},
	{legacy: legacyAlgorithmEnv, structured: "TOKEN_ALGORITHM", apply: func(cfg *Config, v string) error {
		cfg.Token.Algorithm = strings.TrimSpace(v)

		return nil
	}},
	{legacy: legacyLineChannelEnv, structured: "FEDERATED_CLIENTID", apply: func(cfg *Config, v string) error {
		cfg.Federated.ClientID = strings.TrimSpace(v)

		return nil
	}},
	{legacy: legacyAccessTTLEnv, structured: "TOKEN_ACCESSTTLMINUTES", apply: func(cfg *Config, v string) error {
		minutes, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domainerrors.NewConfigurationError(legacyAccessTTLEnv, "must be an integer number of minutes")
		}
		cfg.Token.AccessTTLMinutes = minutes

		return nil
	}},
}

// applyLegacyEnv applies the legacy environment names on top of config.yaml.
// A legacy name is ignored when its structured environment name is also set.
func applyLegacyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, alias := range legacyAliases {
		v, ok := lookup(alias.legacy)
		if !ok {
			continue
		}
		if _, structured := lookup(alias.structured); structured {
			continue
		}
		if err := alias.apply(cfg, v); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultHTTPPort
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = defaultQueryTimeout
	}
	if c.Token.Algorithm == "" {
		c.Token.Algorithm = defaultAlgorithm
	}
	if c.Token.AccessTTLMinutes == 0 {
		c.Token.AccessTTLMinutes = defaultAccessTTLMinutes
	}
	if c.Token.RefreshTTLDays == 0 {
		c.Token.RefreshTTLDays = defaultRefreshTTLDays
	}
	if c.Federated.Provider == "" {
		c.Federated.Provider = ProviderLine
	}
	if c.Federated.VerifyURL == "" {
		c.Federated.VerifyURL = defaultLineVerifyURL
	}
	if c.Federated.Issuer == "" {
		c.Federated.Issuer = defaultLineIssuer
	}
	if c.Federated.Timeout == 0 {
		c.Federated.Timeout = defaultFederatedTimeout
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Auth.DefaultRole == "" {
		c.Auth.DefaultRole = entity.DefaultProvisionedRole.String()
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = defaultRateLimitPerSecond
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = defaultRateLimitBurst
	}
	if c.RateLimit.ExpiresIn == 0 {
		c.RateLimit.ExpiresIn = defaultRateLimitExpiresIn
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
}

// Validate reports the first missing or invalid setting the server cannot start without.
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return domainerrors.NewConfigurationError("postgres", "section is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return domainerrors.NewConfigurationError("database.queryTimeout", "must be positive")
	}
	if strings.TrimSpace(c.Token.SigningKey) == "" {
		return domainerrors.NewConfigurationError("token.signingKey", "must be set (or "+legacySigningKeyEnv+")")
	}
	switch c.Token.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return domainerrors.NewConfigurationError("token.algorithm", "unsupported algorithm "+strconv.Quote(c.Token.Algorithm))
	}
	if c.Token.AccessTTLMinutes <= 0 {
		return domainerrors.NewConfigurationError("token.accessTTLMinutes", "must be positive")
	}
	if c.Token.RefreshTTLDays <= 0 {
		return domainerrors.NewConfigurationError("token.refreshTTLDays", "must be positive")
	}
	if strings.TrimSpace(c.Federated.ClientID) == "" {
		return domainerrors.NewConfigurationError("federated.clientId", "must be set (or "+legacyLineChannelEnv+")")
	}
	switch c.Federated.Provider {
	case ProviderLine:
		if c.Federated.VerifyURL == "" {
			return domainerrors.NewConfigurationError("federated.verifyURL", "must be set for the line provider")
		}
	case ProviderOIDC:
		if c.Federated.Issuer == "" {
			return domainerrors.NewConfigurationError("federated.issuer", "must be set for the oidc provider")
		}
	default:
		return domainerrors.NewConfigurationError("federated.provider", "unknown provider "+strconv.Quote(c.Federated.Provider))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return domainerrors.NewConfigurationError("auth.bcryptCost", "out of bcrypt cost range")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return domainerrors.NewConfigurationError("rateLimit", "requestsPerSecond and burst must be positive")
	}

	return nil
}
