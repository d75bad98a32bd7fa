package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the host environment hands the compliance core.
// FromEnv keeps main lean; every value has a development default except the
// encryption passphrase, which intentionally mirrors the deployment's own
// "change me" convention so a misconfigured host is obvious in the logs.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	// KafkaBrokers enables the audit fan-out sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	EncryptionPassphrase string
	EncryptionSalt       string

	UploadDir      string
	MaxUploadBytes int64

	// AllowedExtensions replaces the built-in upload allow-list when set.
	AllowedExtensions []string

	RetentionYears int
	SweepInterval  time.Duration

	CallsPerMinute int

	AdminJWTKey string
}

const (
	defaultMaxUpload  = 50 << 20 // 50 MiB
	defaultSalt       = "medvault_salt_2024"
	defaultPassphrase = "default-key-change-in-production"
)

// FromEnv builds the config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 getenv("MEDVAULT_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("MEDVAULT_DATABASE_URL"),
		RedisURL:             os.Getenv("MEDVAULT_REDIS_URL"),
		AuditTopic:           getenv("MEDVAULT_AUDIT_TOPIC", "medvault.audit"),
		EncryptionPassphrase: getenv("MEDVAULT_ENCRYPTION_KEY", defaultPassphrase),
		EncryptionSalt:       getenv("MEDVAULT_ENCRYPTION_SALT", defaultSalt),
		UploadDir:            getenv("MEDVAULT_UPLOAD_DIR", "uploads"),
		MaxUploadBytes:       getenvInt64("MEDVAULT_MAX_UPLOAD_BYTES", defaultMaxUpload),
		RetentionYears:       getenvInt("MEDVAULT_RETENTION_YEARS", 6),
		SweepInterval:        getenvDuration("MEDVAULT_SWEEP_INTERVAL", 1*time.Hour),
		CallsPerMinute:       getenvInt("MEDVAULT_CALLS_PER_MINUTE", 100),
		AdminJWTKey:          getenv("MEDVAULT_ADMIN_JWT_KEY", "dev-secret-key-change-in-production"),
	}

	if brokers := os.Getenv("MEDVAULT_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if exts := os.Getenv("MEDVAULT_ALLOWED_EXTENSIONS"); exts != "" {
		for _, e := range strings.Split(exts, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.AllowedExtensions = append(cfg.AllowedExtensions, e)
			}
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
