package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinSigningKeyLength is the shortest HS256 secret we accept.
const MinSigningKeyLength = 32

// DefaultWebhookTimeout applies to subscriptions without their own timeout.
const DefaultWebhookTimeout = 5 * time.Second

// DefaultWebhookUserAgent is sent with every webhook delivery.
const DefaultWebhookUserAgent = "go-credentials-webhook/1.0"

// Duration is a time.Duration that encodes to JSON as "1h30m".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		// bare numbers are milliseconds
		*d = Duration(time.Duration(val) * time.Millisecond)
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TokensConfig overrides token lifetimes. Zero values use the defaults.
type TokensConfig struct {
	SessionTTL      Duration `json:"session_ttl"`
	VerificationTTL Duration `json:"verification_ttl"`
	ResetTTL        Duration `json:"reset_ttl"`
}

// Policy converts the config into a TokenPolicy.
func (t TokensConfig) Policy() TokenPolicy {
	return TokenPolicy{
		SessionTTL:      t.SessionTTL.Std(),
		VerificationTTL: t.VerificationTTL.Std(),
		ResetTTL:        t.ResetTTL.Std(),
	}.withDefaults()
}

// WebhookSubscription is a read-only subscriber registration.
type WebhookSubscription struct {
	// ID identifies the subscription in envelopes. Defaults to URL.
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Events  []EventName       `json:"events"`
	Headers map[string]string `json:"headers"`
	Timeout Duration          `json:"timeout"`
}

// Identifier returns ID or URL when ID is empty.
func (s WebhookSubscription) Identifier() string {
	if s.ID != "" {
		return s.ID
	}
	return s.URL
}

// EffectiveTimeout returns the subscription timeout or the default.
func (s WebhookSubscription) EffectiveTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout.Std()
	}
	return DefaultWebhookTimeout
}

// Accepts reports whether the subscription wants event name.
func (s WebhookSubscription) Accepts(name EventName) bool {
	for _, e := range s.Events {
		if e == name {
			return true
		}
	}
	return false
}

func (s WebhookSubscription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, validation.Required, is.URL),
		validation.Field(&s.Events, validation.Required, validation.By(validateEventNames)),
		validation.Field(&s.Timeout, validation.Min(Duration(0))),
	)
}

func validateEventNames(v any) error {
	names, _ := v.([]EventName)
	for _, n := range names {
		if !n.IsValid() {
			return fmt.Errorf("unknown event %q", n)
		}
	}
	return nil
}

// WebhooksConfig configures the event dispatcher.
type WebhooksConfig struct {
	Enabled        bool                  `json:"enabled"`
	UserAgent      string                `json:"user_agent"`
	MaxConcurrency int                   `json:"max_concurrency"`
	Subscriptions  []WebhookSubscription `json:"subscriptions"`
}

// PersistenceConfig selects the store backend.
type PersistenceConfig struct {
	// Dialect is one of sqlite, postgres, mysql.
	Dialect string `json:"dialect"`
	DSN     string `json:"dsn"`
	Migrate bool   `json:"migrate"`
}

// Config is the full, explicit configuration surface. It is immutable once
// the Manager has been built from it.
type Config struct {
	SigningKey   string `json:"signing_key"`
	Issuer       string `json:"issuer"`
	BaseURL      string `json:"base_url"`
	PasswordCost int    `json:"password_cost"`

	Tokens TokensConfig `json:"tokens"`

	// RevokeSessionsOnReset invalidates session tokens issued before a
	// password reset.
	RevokeSessionsOnReset bool `json:"revoke_sessions_on_reset"`
	// MaskResetLookup makes RequestPasswordReset succeed silently for
	// unknown emails.
	MaskResetLookup bool `json:"mask_reset_lookup"`
	// HashedIDs derives user ids from the email with hashid.
	HashedIDs bool `json:"hashed_ids"`

	Webhooks    WebhooksConfig    `json:"webhooks"`
	Persistence PersistenceConfig `json:"persistence"`
}

// DefaultConfig returns a config with every optional field set.
func DefaultConfig() Config {
	return Config{
		Issuer:       "go-credentials",
		BaseURL:      "http://localhost:3000",
		PasswordCost: DefaultPasswordCost,
		Tokens: TokensConfig{
			SessionTTL:      Duration(DefaultSessionTTL),
			VerificationTTL: Duration(DefaultVerificationTTL),
			ResetTTL:        Duration(DefaultResetTTL),
		},
		Webhooks: WebhooksConfig{
			Enabled:   true,
			UserAgent: DefaultWebhookUserAgent,
		},
		Persistence: PersistenceConfig{
			Dialect: "sqlite",
			DSN:     "file:credentials.db?cache=shared",
			Migrate: true,
		},
	}
}

func (t TokensConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.SessionTTL, validation.Min(Duration(0))),
		validation.Field(&t.VerificationTTL, validation.Min(Duration(0))),
		validation.Field(&t.ResetTTL, validation.Min(Duration(0))),
	)
}

func (w WebhooksConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.MaxConcurrency, validation.Min(0)),
		validation.Field(&w.Subscriptions),
	)
}

func (p PersistenceConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Dialect, validation.In("sqlite", "postgres", "mysql")),
	)
}

// Validate checks the configuration eagerly.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(MinSigningKeyLength, 0)),
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.PasswordCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.Tokens),
		validation.Field(&c.Webhooks),
		validation.Field(&c.Persistence),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfigFile reads a JSON config on top of DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables recognized by ApplyEnv.
const (
	EnvSigningKey            = "CREDENTIALS_SIGNING_KEY"
	EnvIssuer                = "CREDENTIALS_ISSUER"
	EnvBaseURL               = "CREDENTIALS_BASE_URL"
	EnvPasswordCost          = "CREDENTIALS_PASSWORD_COST"
	EnvSessionTTL            = "CREDENTIALS_SESSION_TTL"
	EnvVerificationTTL       = "CREDENTIALS_VERIFICATION_TTL"
	EnvResetTTL              = "CREDENTIALS_RESET_TTL"
	EnvRevokeSessionsOnReset = "CREDENTIALS_REVOKE_SESSIONS_ON_RESET"
	EnvMaskResetLookup       = "CREDENTIALS_MASK_RESET_LOOKUP"
	EnvDBDialect             = "CREDENTIALS_DB_DIALECT"
	EnvDBDSN                 = "CREDENTIALS_DB_DSN"
)

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are ignored. Existing variables are not overwritten.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on cfg.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = Duration(d)
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str(EnvSigningKey, &c.SigningKey)
	str(EnvIssuer, &c.Issuer)
	str(EnvBaseURL, &c.BaseURL)
	str(EnvDBDialect, &c.Persistence.Dialect)
	str(EnvDBDSN, &c.Persistence.DSN)

	if v, ok := lookup(EnvPasswordCost); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPasswordCost, err)
		}
		c.PasswordCost = n
	}

	return errors.Join(
		dur(EnvSessionTTL, &c.Tokens.SessionTTL),
		dur(EnvVerificationTTL, &c.Tokens.VerificationTTL),
		dur(EnvResetTTL, &c.Tokens.ResetTTL),
		boolean(EnvRevokeSessionsOnReset, &c.RevokeSessionsOnReset),
		boolean(EnvMaskResetLookup, &c.MaskResetLookup),
	)
}

// LoadConfig builds a validated config from defaults, an optional JSON file,
// optional .env files and the process environment, in that order.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return cfg, err
		}
	}
	if err := LoadEnvFiles(envFiles...); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
