package config

import (
	"errors"        // For configuration errors
	"os"            // For environment variables
	"strconv"       // For string to int conversion
	"time"          // For durations and locations
	_ "time/tzdata" // Embedded zone database for REPORT_TIMEZONE

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the recharge ceiling
	"github.com/sirupsen/logrus"    // Logging of bad values
)

// DefaultJWTSecret is the development signing key used when JWT_SECRET is unset
const DefaultJWTSecret = "change-me"

// ErrDefaultSecret rejects production runs that sign tokens with DefaultJWTSecret
var ErrDefaultSecret = errors.New("JWT_SECRET must be set in production")

// Config holds the application configuration
type Config struct {
	AppPort         string          // Application port
	IsProd          bool            // Is production environment
	JWTSecret       string          // JWT secret key
	TokenTTL        time.Duration   // Lifetime of issued tokens
	BcryptCost      int             // Cost used when hashing seeded passwords
	RechargeCeiling decimal.Decimal // Largest single recharge request
	ReportLocation  *time.Location  // Day boundary for today's revenue
	RedisAddr       string          // Redis server address, empty disables caching
	RedisPass       string          // Redis password
	RedisDB         int             // Redis database number
	CacheTTL        time.Duration   // Lifetime of cached reports
	DBUser          string          // Database user
	DBPassword      string          // Database password
	DBHost          string          // Database host, empty disables the archive
	DBPort          string          // Database port
	DBName          string          // Database name
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),               // Application port
		IsProd:          os.Getenv("IS_PROD") == "true",           // Is production environment
		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),   // JWT secret key
		TokenTTL:        getDuration("TOKEN_TTL", 24*time.Hour),   // Token lifetime
		BcryptCost:      getInt("BCRYPT_COST", 10),                // Bcrypt cost
		RechargeCeiling: getDecimal("RECHARGE_CEILING", "500"),    // Recharge ceiling
		ReportLocation:  getLocation("REPORT_TIMEZONE", "UTC"),    // Report day boundary
		RedisAddr:       os.Getenv("REDIS_ADDR"),                  // Redis server address
		RedisPass:       os.Getenv("REDIS_PASS"),                  // Redis password
		RedisDB:         getInt("REDIS_DB", 0),                    // Redis database number
		CacheTTL:        getDuration("CACHE_TTL", 60*time.Second), // Cache lifetime
		DBUser:          os.Getenv("DB_USER"),                     // Database user
		DBPassword:      os.Getenv("DB_PASSWORD"),                 // Database password
		DBHost:          os.Getenv("DB_HOST"),                     // Database host
		DBPort:          getEnv("DB_PORT", "3306"),                // Database port
		DBName:          getEnv("DB_NAME", "canteen"),             // Database name
	}
}

// Validate reports settings that are unsafe to run with
func (c *Config) Validate() error {
	if c.IsProd && c.JWTSecret == DefaultJWTSecret {
		return ErrDefaultSecret
	}
	return nil
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// ArchiveEnabled reports whether a MySQL archive is configured
func (c *Config) ArchiveEnabled() bool {
	return c.DBHost != ""
}

// CacheEnabled reports whether a Redis cache is configured
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns the variable or the fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt parses an integer variable
func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid integer, using default")
		return fallback
	}
	return n
}

// getDuration parses a duration variable such as "90s"
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid duration, using default")
		return fallback
	}
	return d
}

// getDecimal parses a positive decimal variable
func getDecimal(key, fallback string) decimal.Decimal {
	def := decimal.RequireFromString(fallback)
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid amount, using default")
		return def
	}
	return d
}

// getLocation loads an IANA time zone such as "Asia/Kolkata"
func getLocation(key, fallback string) *time.Location {
	name := getEnv(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": name}).Warn("unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}
