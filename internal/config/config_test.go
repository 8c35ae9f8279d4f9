package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp", "image/gif"}, cfg.AllowedTypes)
	assert.Equal(t, 6*time.Second, cfg.VisionTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Len(t, cfg.SigningSecret, 32)
	assert.True(t, cfg.SecretGenerated)
	assert.Equal(t, "weavd", cfg.Storage.Bucket)
	assert.Empty(t, cfg.Storage.Endpoint)
	assert.Equal(t, "cloudvision", cfg.Labeler.Provider)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WEAVD_ENV", "production")
	t.Setenv("WEAVD_VISION_TIMEOUT", "2500ms")
	t.Setenv("WEAVD_STORAGE_ENDPOINT", "minio:9000")
	t.Setenv("WEAVD_STORAGE_USE_SSL", "true")
	t.Setenv("WEAVD_REDIS_ADDR", "redis:6379")
	t.Setenv("WEAVD_ALLOWED_TYPES", " image/png , ,image/jpeg")
	t.Setenv("WEAVD_SIGNING_SECRET", "topsecret")
	t.Setenv("WEAVD_LABELER_PROVIDER", "Gemini")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2500*time.Millisecond, cfg.VisionTimeout)
	assert.Equal(t, "minio:9000", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.AllowedTypes)
	assert.Equal(t, []byte("topsecret"), cfg.SigningSecret)
	assert.False(t, cfg.SecretGenerated)
	assert.Equal(t, "gemini", cfg.Labeler.Provider)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WEAVD_VISION_TIMEOUT", "soon")
	t.Setenv("WEAVD_MAX_FILE_BYTES", "-4")
	t.Setenv("WEAVD_CLEANUP_WORKERS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, cfg.VisionTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, 2, cfg.CleanupWorkers)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weavd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed_limit: 12\nstorage:\n  bucket: closet\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.FeedLimit)
	assert.Equal(t, "closet", cfg.Storage.Bucket)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
