package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/usermanagement/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction

	defaultAccessTokenTTL        = 15 * time.Minute
	defaultRefreshTokenTTL       = 7 * 24 * time.Hour
	defaultRefreshTokenRetention = 48 * time.Hour
	defaultHousekeepingInterval  = time.Hour
	defaultLoginRateLimit        = 20
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key to sign access tokens
	// Required, generate one with 'gensecret'
	SecretKey string

	// Environment: dev or prod
	// Swagger UI is served in dev only
	Environment string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Inactive refresh tokens are kept that long after creation
	RefreshTokenRetention time.Duration

	// How often inactive refresh tokens of all users are deleted
	HousekeepingInterval time.Duration

	// Requests per minute per client IP to authenticate and refresh endpoints
	// Zero disables limiting
	LoginRateLimit int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:              defaultLoggingLevel,
		ListenAddr:            defaultListenAddr,
		Environment:           defaultEnvironment,
		AccessTokenTTL:        defaultAccessTokenTTL,
		RefreshTokenTTL:       defaultRefreshTokenTTL,
		RefreshTokenRetention: defaultRefreshTokenRetention,
		HousekeepingInterval:  defaultHousekeepingInterval,
		LoginRateLimit:        defaultLoginRateLimit,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			i, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = i
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":             setString(&c.ListenAddr),
		"DATABASE_URI":            setString(&c.DatabaseDSN),
		"SECRET_KEY":              setString(&c.SecretKey),
		"LOG_LEVEL":               setString(&c.LogLevel),
		"ENVIRONMENT":             setString(&c.Environment),
		"ACCESS_TOKEN_TTL":        setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":       setDuration(&c.RefreshTokenTTL),
		"REFRESH_TOKEN_RETENTION": setDuration(&c.RefreshTokenRetention),
		"HOUSEKEEPING_INTERVAL":   setDuration(&c.HousekeepingInterval),
		"LOGIN_RATE_LIMIT":        setInt(&c.LoginRateLimit),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("usermanagement", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.DurationVar(&c.RefreshTokenRetention, "refresh-retention", c.RefreshTokenRetention, "How long inactive refresh tokens are kept")
	fs.DurationVar(&c.HousekeepingInterval, "housekeeping-interval", c.HousekeepingInterval, "How often inactive refresh tokens are deleted")
	fs.IntVar(&c.LoginRateLimit, "login-rate-limit", c.LoginRateLimit, "Authenticate and refresh requests per minute per IP, 0 disables")

	return fs.Parse(args)
}

// Validate checks options the service can't start without
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.DatabaseDSN == "":
		return errors.New("database DSN is required")
	case c.LoginRateLimit < 0:
		return errors.New("login rate limit must not be negative")
	}

	return nil
}
