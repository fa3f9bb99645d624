package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Directory  DirectoryConfig
	SalesCalls SalesCallsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// AutoMigrate applies the embedded schema on start.
	AutoMigrate bool
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig configures verification of session tokens minted by the
// external session provider.
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	SessionTTL  time.Duration
}

// DirectoryConfig configures the external identity directory.
type DirectoryConfig struct {
	BaseURL   string
	SecretKey string

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
	// LookupTimeout bounds one identity resolution inside a fan-out.
	LookupTimeout time.Duration
	// FanoutLimit caps concurrent lookups per ResolveMany call.
	FanoutLimit int

	// PrivilegeKey is the private metadata key holding the admin flag.
	PrivilegeKey string
}

type SalesCallsConfig struct {
	// ReadFailurePolicy is one of degrade, propagate.
	ReadFailurePolicy string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.AutoMigrate = optionalBool("DB_AUTO_MIGRATE")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.SessionTTL, parseErrs = optionalDuration(parseErrs, "JWT_SESSION_TTL")

	c.Directory.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("DIRECTORY_BASE_URL")), "/")
	c.Directory.SecretKey = os.Getenv("DIRECTORY_SECRET_KEY")
	c.Directory.Timeout, parseErrs = optionalDuration(parseErrs, "DIRECTORY_TIMEOUT")
	c.Directory.LookupTimeout, parseErrs = optionalDuration(parseErrs, "DIRECTORY_LOOKUP_TIMEOUT")
	if v := strings.TrimSpace(os.Getenv("DIRECTORY_FANOUT_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("DIRECTORY_FANOUT_LIMIT must be an integer, got %q", v))
		}
		c.Directory.FanoutLimit = n
	}
	c.Directory.PrivilegeKey = strings.TrimSpace(os.Getenv("DIRECTORY_PRIVILEGE_KEY"))

	c.SalesCalls.ReadFailurePolicy = strings.TrimSpace(os.Getenv("SALES_CALLS_READ_FAILURE_POLICY"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = time.Hour
	}

	if c.Directory.BaseURL == "" {
		errs = append(errs, errors.New("DIRECTORY_BASE_URL is required"))
	} else if !strings.HasPrefix(c.Directory.BaseURL, "http://") && !strings.HasPrefix(c.Directory.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("DIRECTORY_BASE_URL must be an http(s) URL, got %q", c.Directory.BaseURL))
	}
	if c.Directory.SecretKey == "" {
		errs = append(errs, errors.New("DIRECTORY_SECRET_KEY is required"))
	}
	if c.Directory.Timeout <= 0 {
		c.Directory.Timeout = 5 * time.Second
	}
	if c.Directory.LookupTimeout <= 0 {
		c.Directory.LookupTimeout = 3 * time.Second
	}
	if c.Directory.FanoutLimit < 0 {
		errs = append(errs, fmt.Errorf("DIRECTORY_FANOUT_LIMIT must be >= 0, got %d", c.Directory.FanoutLimit))
	} else if c.Directory.FanoutLimit == 0 {
		c.Directory.FanoutLimit = 8
	}
	if c.Directory.PrivilegeKey == "" {
		c.Directory.PrivilegeKey = "admin"
	}

	switch c.SalesCalls.ReadFailurePolicy {
	case "":
		c.SalesCalls.ReadFailurePolicy = "degrade"
	case "degrade", "propagate":
	default:
		errs = append(errs, fmt.Errorf("SALES_CALLS_READ_FAILURE_POLICY must be one of degrade, propagate, got %q", c.SalesCalls.ReadFailurePolicy))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalDuration reads key as a time.Duration. Unset is 0 (Validate fills
// the default); a malformed value is reported, never defaulted.
func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration like 3s, got %q", key, v))
	}
	if d < 0 {
		return 0, append(errs, fmt.Errorf("%s must not be negative, got %q", key, v))
	}
	return d, errs
}

func optionalBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
