// Package config loads the server's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// PathEnvVar names a config file that takes precedence over ENV lookup.
const PathEnvVar = "CLUSTERDB_CONFIG"

// Config holds the clusterdb server configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Events  EventsConfig  `yaml:"events"`
	Query   QueryConfig   `yaml:"query"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// AuthConfig controls how requests are mapped to users. An empty ServiceURL
// disables bearer token lookup; IdentityHeader is trusted as set by the gateway.
type AuthConfig struct {
	ServiceURL     string        `yaml:"service_url" validate:"omitempty,http_url"`
	IdentityHeader string        `yaml:"identity_header"`
	Timeout        time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type MongoConfig struct {
	URI string `yaml:"uri" validate:"required"`
	// Database overrides the one named in URI.
	Database           string        `yaml:"database"`
	ReadinessTimeout   time.Duration `yaml:"readiness_timeout"`
	ClustersCollection string        `yaml:"clusters_collection"`
}

// RedisConfig backs the count cache and event streams. No addrs disables both.
type RedisConfig struct {
	Addrs            []string      `yaml:"addrs"`
	Password         string        `yaml:"password"`
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`
}

// Enabled reports whether Redis-backed features are configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

type EventsConfig struct {
	StreamPrefix string `yaml:"stream_prefix"`
	// MaxLen caps each stream approximately; negative disables trimming.
	MaxLen  int64  `yaml:"max_len"`
	Service string `yaml:"service"`
}

type QueryConfig struct {
	DefaultPageSize int `yaml:"default_page_size" validate:"ltefield=MaxPageSize"`
	MaxPageSize     int `yaml:"max_page_size"`
}

type CacheConfig struct {
	CountTTL time.Duration `yaml:"count_ttl"`
}

// Load reads the config for env. CLUSTERDB_CONFIG, when set, names the file directly.
func Load(env string) (Config, error) {
	path := os.Getenv(PathEnvVar)
	if path == "" {
		path = locate(env)
	}
	return LoadFile(path)
}

// LoadFile reads, expands ${VAR} references in, defaults and validates one file.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	return lo.Must(Load(env))
}

// GetEnv returns ENV, defaulting to "local".
func GetEnv() string {
	return lo.CoalesceOrEmpty(os.Getenv("ENV"), "local")
}

func orDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func orInt[T int | int64](v *T, def T) {
	if *v <= 0 {
		*v = def
	}
}

func orString(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	orDuration(&c.HTTP.ReadTimeout, 10*time.Second)
	orDuration(&c.HTTP.WriteTimeout, 10*time.Second)
	orDuration(&c.HTTP.ShutdownTimeout, 10*time.Second)
	orInt(&c.HTTP.MaxBodyBytes, 10<<20)

	orDuration(&c.Mongo.ReadinessTimeout, 10*time.Second)
	orString(&c.Mongo.ClustersCollection, "clusters")

	c.Redis.Addrs = lo.Compact(c.Redis.Addrs)
	orDuration(&c.Redis.ReadinessTimeout, 10*time.Second)

	orDuration(&c.Auth.Timeout, 5*time.Second)

	orString(&c.Events.StreamPrefix, "events:")
	orString(&c.Events.Service, "clusterdb")

	orInt(&c.Query.DefaultPageSize, 20)
	orInt(&c.Query.MaxPageSize, 100)

	orDuration(&c.Cache.CountTTL, 5*time.Minute)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid setting by its YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return err
	}
	fe := fes[0]
	key := yamlPath(fe.StructNamespace())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "ltefield":
		return fmt.Errorf("%s (%v) must not exceed %s", key, fe.Value(), yamlPath("Config.Query."+fe.Param()))
	case "http_url":
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, fe.Value())
	default:
		return fmt.Errorf("%s is invalid (%s=%s), got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// yamlPath turns Config.Query.MaxPageSize into query.max_page_size.
func yamlPath(ns string) string {
	parts := strings.Split(ns, ".")[1:]
	for i, p := range parts {
		parts[i] = strings.ToLower(camelBoundary.ReplaceAllString(p, "${1}_${2}"))
	}
	return strings.Join(parts, ".")
}

// locate prefers ./config/<env>.yaml, then the repo's config dir.
func locate(env string) string {
	name := env + ".yaml"
	local := filepath.Join("config", name)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	_, here, _, _ := runtime.Caller(0)
	repo := filepath.Join(filepath.Dir(here), "..", "..", "config", name)
	if _, err := os.Stat(repo); err == nil {
		return repo
	}
	return local
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default}.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name, def, hasDef := strings.Cut(string(m[2:len(m)-1]), ":-")
		if v := os.Getenv(name); v != "" || !hasDef {
			return []byte(v)
		}
		return []byte(def)
	})
}
