package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"sjsage522/pricewatch/pkg/errors"
)

// MinCrawlInterval is the shortest allowed period between scheduled runs
const MinCrawlInterval = 5 * time.Minute

// Lease backends
const (
	LeaseBackendFile     = "file"
	LeaseBackendMemcache = "memcache"
)

// Config represents the application configuration
type Config struct {
	// Storage
	ProductsFile string
	HistoryFile  string

	// Currency
	ExchangeRate decimal.Decimal
	TargetPrefix string
	Location     *time.Location

	// Fetching and scheduling
	RequestTimeout time.Duration
	RequestDelay   time.Duration
	CrawlInterval  time.Duration
	RateLimitBlock time.Duration
	RetentionDays  int

	// Lease
	LockFile     string
	LockTTL      time.Duration
	LeaseBackend string

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Archive configuration
	ArchiveBucket          string
	ArchiveDir             string
	ArchiveObject          string
	ArchiveCredentialsJSON string // empty uses application default credentials

	// Environment
	Environment string

	loadErrs []string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	c := &Config{
		ProductsFile:  getEnv("PRICEWATCH_PRODUCTS_FILE", "products.txt"),
		HistoryFile:   getEnv("PRICEWATCH_HISTORY_FILE", "price_history.csv"),
		TargetPrefix:  getEnv("PRICEWATCH_TARGET_PREFIX", "PHP"),
		LockFile:      getEnv("PRICEWATCH_LOCK_FILE", "update.lock"),
		LeaseBackend:  strings.ToLower(getEnv("PRICEWATCH_LEASE_BACKEND", LeaseBackendFile)),
		MemcacheAddr:  getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisStream:   getEnv("REDIS_STREAM", "pricewatch"),
		ArchiveBucket: getEnv("PRICEWATCH_ARCHIVE_BUCKET", ""),
		ArchiveDir:    getEnv("PRICEWATCH_ARCHIVE_DIR", ""),
		ArchiveObject: getEnv("PRICEWATCH_ARCHIVE_OBJECT", "price_history.csv"),
		Environment:   getEnv("PRICEWATCH_ENVIRONMENT", "development"),
	}
	c.ArchiveCredentialsJSON = getEnv("GOOGLE_CREDENTIALS_JSON", "")

	rate, err := decimal.NewFromString(getEnv("PRICEWATCH_EXCHANGE_RATE", "59.0"))
	if err != nil {
		c.loadErrs = append(c.loadErrs, fmt.Sprintf("PRICEWATCH_EXCHANGE_RATE: %v", err))
	}
	c.ExchangeRate = rate

	tz := getEnv("PRICEWATCH_TIMEZONE", "Asia/Manila")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.loadErrs = append(c.loadErrs, fmt.Sprintf("PRICEWATCH_TIMEZONE %q: %v", tz, err))
		loc = time.UTC
	}
	c.Location = loc

	c.RequestTimeout = time.Duration(c.getInt("PRICEWATCH_REQUEST_TIMEOUT_SECONDS", 20)) * time.Second
	c.RequestDelay = time.Duration(c.getInt("PRICEWATCH_REQUEST_DELAY_MS", 500)) * time.Millisecond
	c.CrawlInterval = time.Duration(c.getInt("PRICEWATCH_CRAWL_INTERVAL_MINUTES", 60)) * time.Minute
	c.RateLimitBlock = time.Duration(c.getInt("PRICEWATCH_RATE_LIMIT_BLOCK_SECONDS", 500)) * time.Second
	c.LockTTL = time.Duration(c.getInt("PRICEWATCH_LOCK_TTL_SECONDS", 300)) * time.Second
	c.RetentionDays = c.getInt("PRICEWATCH_RETENTION_DAYS", 90)
	c.RedisDB = c.getInt("REDIS_DB", 0)
	c.RedisStreamCount = c.getInt("REDIS_STREAM_COUNT", 1)
	c.RedisStreamMaxLength = c.getInt("REDIS_STREAM_MAX_LENGTH", 1000)

	return c
}

// Validate checks the loaded values and returns the first problem found
func (c *Config) Validate() error {
	if len(c.loadErrs) > 0 {
		return errors.NewConfiguration(strings.Join(c.loadErrs, "; "), nil)
	}
	if !c.ExchangeRate.IsPositive() {
		return errors.NewConfiguration("exchange rate must be positive", nil)
	}
	if c.TargetPrefix == "" {
		return errors.NewConfiguration("target prefix must not be empty", nil)
	}
	if c.ProductsFile == "" || c.HistoryFile == "" {
		return errors.NewConfiguration("products and history files must be set", nil)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfiguration("request timeout must be positive", nil)
	}
	if c.RequestDelay < 0 {
		return errors.NewConfiguration("request delay must not be negative", nil)
	}
	if c.CrawlInterval < MinCrawlInterval {
		return errors.NewConfiguration(fmt.Sprintf("crawl interval must be at least %v", MinCrawlInterval), nil)
	}
	if c.LockTTL <= 0 {
		return errors.NewConfiguration("lock ttl must be positive", nil)
	}
	if c.RetentionDays < 1 {
		return errors.NewConfiguration("retention days must be at least 1", nil)
	}
	switch c.LeaseBackend {
	case LeaseBackendFile:
	case LeaseBackendMemcache:
		if c.MemcacheAddr == "" {
			return errors.NewConfiguration("memcache lease backend requires MEMCACHE_ADDR", nil)
		}
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown lease backend %q", c.LeaseBackend), nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if c.ArchiveBucket != "" && c.ArchiveDir != "" {
		return errors.NewConfiguration("set only one of PRICEWATCH_ARCHIVE_BUCKET and PRICEWATCH_ARCHIVE_DIR", nil)
	}
	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) getInt(key string, defaultValue int) int {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.loadErrs = append(c.loadErrs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return v
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
