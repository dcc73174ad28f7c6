package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}

func TestLoadFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "katalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
backend: mongo
mongodb_uri: mongodb://localhost:27017
store_timeout: 2s
image:
  max_dimension: 512
telemetry:
  exporter: stdout
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 512, cfg.Image.MaxDimension)
	assert.Equal(t, 85, cfg.Image.Quality, "keys absent from the file keep their defaults")
	assert.Equal(t, DefaultDBName, cfg.MongoDBName)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0o600))
	assert.Error(t, cfg.LoadFile(path))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"MONGODB_URI":           "mongodb://db:27017",
		"MONGO_DB_NAME":         "shop",
		"REDIS_URL":             "redis://cache:6379/0",
		"KATALOG_BACKEND":       "mongo",
		"KATALOG_STORE_TIMEOUT": "750ms",
		"KATALOG_SEED_ON_START": "true",
		"KATALOG_ADDR":          "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "shop", cfg.MongoDBName)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.True(t, cfg.SeedOnStart)
	assert.Equal(t, DefaultAddr, cfg.Addr, "empty values are ignored")
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"KATALOG_STORE_TIMEOUT":       "soon",
		"KATALOG_IMAGE_MAX_DIMENSION": "big",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KATALOG_STORE_TIMEOUT")
	assert.Contains(t, err.Error(), "KATALOG_IMAGE_MAX_DIMENSION")
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-a", ":7000", "-backend", "mongo", "-c", "katalog.yaml"}))

	cfg := Default()
	cfg.MongoURI = "mongodb://from-env"
	flags.Apply(&cfg)

	assert.Equal(t, "katalog.yaml", flags.ConfigPath)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, "mongodb://from-env", cfg.MongoURI)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLitePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "postgres" }},
		{"mongo without uri", func(c *Config) { c.Backend = BackendMongo }},
		{"empty sqlite path", func(c *Config) { c.SQLitePath = "" }},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }},
		{"otlp without endpoint", func(c *Config) { c.Telemetry.Exporter = ExporterOTLP }},
		{"unknown exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{"no admin user", func(c *Config) { c.AdminUser = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Backend = " Mongo "
	cfg.MongoURI = "mongodb://localhost"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMongo, cfg.Backend)
}
