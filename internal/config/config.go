package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":3010"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// External collaborators
	BDOURL     string // storage backend base URL, "memory://" runs an in-process backend
	PaymentURL string // payment backend base URL, empty disables payment intents
	AppHash    string // hash signed into every storage call

	// Reverse index
	IndexFile          string        // local JSON mirror of the alphanumeric index
	IndexFlushEvery    int           // flush after this many insertions
	IndexFlushInterval time.Duration // flush when dirty for this long
	BackupInterval     time.Duration // cold backup cadence
	BackupKeyFile      string        // identity used to sign backup documents
	PrefixMinLength    int           // shortest accepted alphanumeric identifier

	// Handoff
	HandoffTTL           time.Duration
	HandoffGrace         time.Duration // extra lifetime after completion
	HandoffSweepInterval time.Duration
	HandoffMaxAttempts   int // 0 = unlimited
	SequenceLength       int

	CatalogFile   string        // optional YAML product catalog
	ImportTimeout time.Duration // third-party page fetch timeout

	// Redis (optional, enables shared handoff state)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration
	RedisRT             time.Duration
	RedisWT             time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisWarnThreshold  int

	// MinIO / S3 (optional, extra cold backup target)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AllowedCIDRS    []string // restrict /admin and /infra
	AllowedHosts    []string // Host headers accepted on /admin and /infra, empty = any
	TrustProxy      bool     // true => trust X-Forwarded-For headers
	RateLimitBurst  int
	RateLimitPerMin int
	CORSAllowOrigin string
}

// RedisEnabled reports whether a redis address was configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// MinioEnabled reports whether an S3 backup target was configured.
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" && c.MinioBucket != "" }

func Load() *Config {
	loadDotEnv(getenv("LINKITYLINK_ENV_FILE", ".env"))

	cfg := &Config{
		ListenPort:      getenv("LINKITYLINK_LISTEN_PORT", ":3010"),
		ShutdownTimeout: mustDuration("LINKITYLINK_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("LINKITYLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKITYLINK_PRETTY_LOG", true),

		BDOURL:     requireEnv("LINKITYLINK_BDO_URL"),
		PaymentURL: getenv("LINKITYLINK_PAYMENT_URL", ""),
		AppHash:    getenv("LINKITYLINK_APP_HASH", "linkitylink"),

		IndexFile:          getenv("LINKITYLINK_INDEX_FILE", "./data/alphanumeric-index.json"),
		IndexFlushEvery:    getenvInt("LINKITYLINK_INDEX_FLUSH_EVERY", 10),
		IndexFlushInterval: mustDuration("LINKITYLINK_INDEX_FLUSH_INTERVAL", 10*time.Minute),
		BackupInterval:     mustDuration("LINKITYLINK_BACKUP_INTERVAL", time.Hour),
		BackupKeyFile:      getenv("LINKITYLINK_BACKUP_KEY_FILE", "./data/backup-keys.json"),
		PrefixMinLength:    getenvInt("LINKITYLINK_PREFIX_MIN_LENGTH", 8),

		HandoffTTL:           mustDuration("LINKITYLINK_HANDOFF_TTL", 30*time.Minute),
		HandoffGrace:         mustDuration("LINKITYLINK_HANDOFF_GRACE", 5*time.Minute),
		HandoffSweepInterval: mustDuration("LINKITYLINK_HANDOFF_SWEEP_INTERVAL", 5*time.Minute),
		HandoffMaxAttempts:   getenvInt("LINKITYLINK_HANDOFF_MAX_ATTEMPTS", 5),
		SequenceLength:       getenvInt("LINKITYLINK_SEQUENCE_LENGTH", 5),

		CatalogFile:   getenv("LINKITYLINK_CATALOG_FILE", ""),
		ImportTimeout: mustDuration("LINKITYLINK_IMPORT_TIMEOUT", 10*time.Second),

		RedisAddr:           getenv("LINKITYLINK_REDIS_ADDR", ""),
		RedisUser:           getenv("LINKITYLINK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("LINKITYLINK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("LINKITYLINK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		MinioEndpoint:  getenv("LINKITYLINK_MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("LINKITYLINK_MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("LINKITYLINK_MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("LINKITYLINK_MINIO_BUCKET", ""),
		MinioUseSSL:    mustBool("LINKITYLINK_MINIO_USE_SSL", true),

		AllowedCIDRS:    parseAllowedIPs(getenv("LINKITYLINK_ALLOWED_CIDRS", "")),
		AllowedHosts:    splitAndTrim(getenv("LINKITYLINK_ALLOWED_HOSTS", "")),
		TrustProxy:      mustBool("LINKITYLINK_TRUST_PROXY", true),
		RateLimitBurst:  getenvInt("LINKITYLINK_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("LINKITYLINK_RATE_LIMIT_PER_MIN", 60),
		CORSAllowOrigin: getenv("LINKITYLINK_CORS_ORIGIN", "*"),
	}

	if cfg.SequenceLength < 1 {
		panic(fmt.Sprintf("❌ FATAL: LINKITYLINK_SEQUENCE_LENGTH must be >= 1, got %d", cfg.SequenceLength))
	}
	if cfg.IndexFlushEvery < 1 {
		panic(fmt.Sprintf("❌ FATAL: LINKITYLINK_INDEX_FLUSH_EVERY must be >= 1, got %d", cfg.IndexFlushEvery))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfgCopy.MinioSecretKey != "" {
			cfgCopy.MinioSecretKey = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadDotEnv populates unset variables from an optional .env file.
// Variables already present in the environment win.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[WARN] failed to load %s: %v\n", path, err)
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
