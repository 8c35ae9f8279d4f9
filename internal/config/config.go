// Package config reads weavd settings from WEAVD_* environment variables, and
// optionally a config file, into typed values.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents runtime configuration for every weavd process.
type Config struct {
	Env             string
	Address         string
	PublicURL       string
	MaxFileSize     int64
	AllowedTypes    []string
	SigningSecret   []byte
	// SecretGenerated is set when no signing secret was configured and a
	// random one was made up. Tokens then break on restart and across replicas.
	SecretGenerated bool
	SessionTTL      time.Duration
	VisionURL       string
	VisionTimeout   time.Duration
	CleanupWorkers  int
	DatabaseURL     string
	FeedLimit       int

	Storage Storage
	Redis   Redis
	Labeler Labeler
}

// Storage configures the MinIO/S3 bucket. An empty Endpoint selects the
// in-memory store.
type Storage struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Region     string
	Bucket     string
	PublicURL  string
	PresignTTL time.Duration
}

// Redis configures the asynq broker. An empty Addr keeps cleanup in process.
type Redis struct {
	Addr        string
	Password    string
	DB          int
	Concurrency int
}

// Labeler configures the vision proxy.
type Labeler struct {
	Address         string
	Provider        string
	CredentialsFile string
	GeminiAPIKey    string
	GeminiModel     string
}

const (
	defaultAddress       = ":8080"
	defaultPublicURL     = "http://localhost:8080"
	defaultMaxFileSize   = 10 << 20 // 10 MiB
	defaultAllowedTypes  = "image/jpeg,image/png,image/webp,image/gif"
	defaultSessionTTL    = 30 * time.Minute
	defaultVisionURL     = "http://localhost:5001/vision"
	defaultVisionTimeout = 6 * time.Second
	defaultWorkerCount   = 2
	defaultFeedLimit     = 50
	defaultBucket        = "weavd"
	defaultPresignTTL    = 24 * time.Hour
	defaultConcurrency   = 4
	defaultVisionAddress = ":5001"
	defaultProvider      = "cloudvision"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// Load reads configuration, falling back to defaults for missing or invalid
// values. path names an optional config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEAVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:            v.GetString("env"),
		Address:        v.GetString("address"),
		PublicURL:      strings.TrimRight(v.GetString("public_url"), "/"),
		MaxFileSize:    v.GetInt64("max_file_bytes"),
		AllowedTypes:   parseList(v.GetString("allowed_types")),
		SigningSecret:  []byte(v.GetString("signing_secret")),
		SessionTTL:     v.GetDuration("session_ttl"),
		VisionURL:      v.GetString("vision.url"),
		VisionTimeout:  v.GetDuration("vision.timeout"),
		CleanupWorkers: v.GetInt("cleanup_workers"),
		DatabaseURL:    v.GetString("database_url"),
		FeedLimit:      v.GetInt("feed_limit"),
		Storage: Storage{
			Endpoint:   v.GetString("storage.endpoint"),
			AccessKey:  v.GetString("storage.access_key"),
			SecretKey:  v.GetString("storage.secret_key"),
			UseSSL:     v.GetBool("storage.use_ssl"),
			Region:     v.GetString("storage.region"),
			Bucket:     v.GetString("storage.bucket"),
			PublicURL:  v.GetString("storage.public_url"),
			PresignTTL: v.GetDuration("storage.presign_ttl"),
		},
		Redis: Redis{
			Addr:        v.GetString("redis.addr"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			Concurrency: v.GetInt("redis.concurrency"),
		},
		Labeler: Labeler{
			Address:         v.GetString("labeler.address"),
			Provider:        strings.ToLower(v.GetString("labeler.provider")),
			CredentialsFile: v.GetString("labeler.credentials_file"),
			GeminiAPIKey:    v.GetString("labeler.gemini_api_key"),
			GeminiModel:     v.GetString("labeler.gemini_model"),
		},
	}
	if len(cfg.SigningSecret) == 0 {
		cfg.SigningSecret = randomSecret()
		cfg.SecretGenerated = true
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = defaultVisionTimeout
	}
	if cfg.CleanupWorkers <= 0 {
		cfg.CleanupWorkers = defaultWorkerCount
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = defaultFeedLimit
	}
	if cfg.Storage.PresignTTL <= 0 {
		cfg.Storage.PresignTTL = defaultPresignTTL
	}
	if cfg.Redis.Concurrency <= 0 {
		cfg.Redis.Concurrency = defaultConcurrency
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("address", defaultAddress)
	v.SetDefault("public_url", defaultPublicURL)
	v.SetDefault("max_file_bytes", defaultMaxFileSize)
	v.SetDefault("allowed_types", defaultAllowedTypes)
	v.SetDefault("signing_secret", "")
	v.SetDefault("session_ttl", defaultSessionTTL)
	v.SetDefault("vision.url", defaultVisionURL)
	v.SetDefault("vision.timeout", defaultVisionTimeout)
	v.SetDefault("cleanup_workers", defaultWorkerCount)
	v.SetDefault("database_url", "")
	v.SetDefault("feed_limit", defaultFeedLimit)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", defaultBucket)
	v.SetDefault("storage.public_url", "")
	v.SetDefault("storage.presign_ttl", defaultPresignTTL)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.concurrency", defaultConcurrency)
	v.SetDefault("labeler.address", defaultVisionAddress)
	v.SetDefault("labeler.provider", defaultProvider)
	v.SetDefault("labeler.credentials_file", "")
	v.SetDefault("labeler.gemini_api_key", "")
	v.SetDefault("labeler.gemini_model", defaultGeminiModel)
}

// IsDevelopment reports whether the development logger should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func parseList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte(hex.EncodeToString([]byte("fallbacksecret")))
	}
	return buf
}
