// Package config loads katalog settings. Sources are applied in order:
// built-in defaults, an optional YAML file, a .env file and the process
// environment, then command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Telemetry exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	DefaultAddr         = ":8080"
	DefaultSQLitePath   = "katalog.sqlite3"
	DefaultDBName       = "katalog"
	DefaultAdminUser    = "admin"
	DefaultStoreTimeout = 5 * time.Second
)

// Config is the complete runtime configuration.
type Config struct {
	Addr         string        `yaml:"addr"`
	LogFile      string        `yaml:"log_file"`
	Backend      string        `yaml:"backend"`
	SQLitePath   string        `yaml:"sqlite_path"`
	MongoURI     string        `yaml:"mongodb_uri"`
	MongoDBName  string        `yaml:"mongo_db_name"`
	RedisURL     string        `yaml:"redis_url"`
	AdminUser    string        `yaml:"admin_user"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
	SeedOnStart  bool          `yaml:"seed_on_start"`

	Image     ImageConfig     `yaml:"image"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ImageConfig controls upload processing.
type ImageConfig struct {
	MaxDimension int   `yaml:"max_dimension"`
	Quality      int   `yaml:"quality"`
	MaxBytes     int64 `yaml:"max_bytes"`
}

// TelemetryConfig selects the trace exporter.
type TelemetryConfig struct {
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         DefaultAddr,
		Backend:      BackendSQLite,
		SQLitePath:   DefaultSQLitePath,
		MongoDBName:  DefaultDBName,
		AdminUser:    DefaultAdminUser,
		StoreTimeout: DefaultStoreTimeout,
		Image: ImageConfig{
			MaxDimension: 1024,
			Quality:      85,
			MaxBytes:     10 << 20,
		},
		Telemetry: TelemetryConfig{
			Exporter:    ExporterNone,
			ServiceName: "katalog",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty), .env and the environment. Flags are applied separately.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	// load .env if present but don't error if not present
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("KATALOG_ADDR", &c.Addr)
	str("KATALOG_LOG_FILE", &c.LogFile)
	str("KATALOG_BACKEND", &c.Backend)
	str("KATALOG_SQLITE_PATH", &c.SQLitePath)
	str("MONGODB_URI", &c.MongoURI)
	str("MONGO_DB_NAME", &c.MongoDBName)
	str("REDIS_URL", &c.RedisURL)
	str("KATALOG_ADMIN_USER", &c.AdminUser)
	str("KATALOG_TELEMETRY_EXPORTER", &c.Telemetry.Exporter)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.Endpoint)
	str("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)

	var errs []error
	if v, ok := lookup("KATALOG_STORE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("KATALOG_STORE_TIMEOUT: %w", err))
		}
		c.StoreTimeout = d
	}
	if v, ok := lookup("KATALOG_SEED_ON_START"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("KATALOG_SEED_ON_START: %w", err))
		}
		c.SeedOnStart = b
	}
	if v, ok := lookup("KATALOG_IMAGE_MAX_DIMENSION"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("KATALOG_IMAGE_MAX_DIMENSION: %w", err))
		}
		c.Image.MaxDimension = n
	}
	return errors.Join(errs...)
}

// Flags holds command-line overrides.
type Flags struct {
	ConfigPath string
	fs         *flag.FlagSet
	values     map[string]*string
}

// flagTargets maps each flag name to the field it overrides.
var flagTargets = map[string]func(*Config) *string{
	"addr":      func(c *Config) *string { return &c.Addr },
	"log":       func(c *Config) *string { return &c.LogFile },
	"backend":   func(c *Config) *string { return &c.Backend },
	"db":        func(c *Config) *string { return &c.SQLitePath },
	"mongo-uri": func(c *Config) *string { return &c.MongoURI },
	"redis-url": func(c *Config) *string { return &c.RedisURL },
	"user":      func(c *Config) *string { return &c.AdminUser },
}

// flagAliases are the one-letter forms.
var flagAliases = map[string]string{
	"a": "addr",
	"l": "log",
	"d": "db",
	"u": "user",
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, values: make(map[string]*string)}
	fs.StringVar(&f.ConfigPath, "config", "", "")
	fs.StringVar(&f.ConfigPath, "c", "", "")
	for name := range flagTargets {
		f.values[name] = fs.String(name, "", "")
	}
	for alias := range flagAliases {
		f.values[alias] = fs.String(alias, "", "")
	}
	return f
}

// Apply copies explicitly set flags onto c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := flagAliases[name]; ok {
			name = long
		}
		if target, ok := flagTargets[name]; ok {
			*target(c) = *f.values[fl.Name]
		}
	})
}

// Validate checks backend choice and required fields.
func (c *Config) Validate() error {
	var errs []error

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite backend"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI not set"))
		}
		if c.MongoDBName == "" {
			errs = append(errs, errors.New("mongo_db_name is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendMongo))
	}

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.AdminUser == "" {
		errs = append(errs, errors.New("admin_user is required"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store_timeout must be positive"))
	}
	if c.Image.MaxDimension <= 0 {
		errs = append(errs, errors.New("image.max_dimension must be positive"))
	}

	switch c.Telemetry.Exporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.Telemetry.Endpoint == "" {
			errs = append(errs, errors.New("telemetry.endpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter))
	}

	return errors.Join(errs...)
}
