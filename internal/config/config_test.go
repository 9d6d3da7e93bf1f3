package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Mongo: MongoConfig{URI: "mongodb://localhost:27017/clusterdb"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	if !strings.HasPrefix(err.Error(), "http.port is invalid") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_MissingMongoURI(t *testing.T) {
	cfg := validConfig()
	cfg.Mongo.URI = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing mongo uri")
	}
	if err.Error() != "mongo.uri is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Query = QueryConfig{DefaultPageSize: 200, MaxPageSize: 100}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
	want := "query.default_page_size (200) must not exceed query.max_page_size"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestValidate_AuthServiceURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"", true},
		{"http://auth:3001", true},
		{"https://auth.example.com", true},
		{"auth:3001", false},
	}
	for _, tt := range tests {
		t.Run("url="+tt.url, func(t *testing.T) {
			cfg := validConfig()
			cfg.Auth.ServiceURL = tt.url

			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Errorf("expected ReadTimeout=10s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.MaxBodyBytes != 10<<20 {
		t.Errorf("expected MaxBodyBytes=10MiB, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.Mongo.ClustersCollection != "clusters" {
		t.Errorf("expected ClustersCollection='clusters', got %q", cfg.Mongo.ClustersCollection)
	}
	if cfg.Events.StreamPrefix != "events:" {
		t.Errorf("expected StreamPrefix='events:', got %q", cfg.Events.StreamPrefix)
	}
	if cfg.Events.Service != "clusterdb" {
		t.Errorf("expected Service='clusterdb', got %q", cfg.Events.Service)
	}
	if cfg.Query.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Query.DefaultPageSize)
	}
	if cfg.Query.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Query.MaxPageSize)
	}
	if cfg.Cache.CountTTL != 5*time.Minute {
		t.Errorf("expected CountTTL=5m, got %v", cfg.Cache.CountTTL)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis should be disabled without addrs")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeout: 30 * time.Second, WriteTimeout: time.Minute, ShutdownTimeout: 5 * time.Second},
		Mongo:  MongoConfig{ClustersCollection: "registry"},
		Events: EventsConfig{StreamPrefix: "bus:"},
		Query:  QueryConfig{DefaultPageSize: 50, MaxPageSize: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeout != time.Minute {
		t.Errorf("expected WriteTimeout=1m, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Mongo.ClustersCollection != "registry" {
		t.Errorf("expected ClustersCollection='registry', got %q", cfg.Mongo.ClustersCollection)
	}
	if cfg.Events.StreamPrefix != "bus:" {
		t.Errorf("expected StreamPrefix='bus:', got %q", cfg.Events.StreamPrefix)
	}
	if cfg.Query.MaxPageSize != 500 {
		t.Errorf("expected MaxPageSize=500, got %d", cfg.Query.MaxPageSize)
	}
}

func TestApplyDefaults_DropsEmptyRedisAddrs(t *testing.T) {
	cfg := Config{Redis: RedisConfig{Addrs: []string{""}}}
	cfg.ApplyDefaults()

	if cfg.Redis.Enabled() {
		t.Errorf("expected redis disabled, got addrs %v", cfg.Redis.Addrs)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CLUSTERDB_TEST_URI", "mongodb://db:27017/x")

	got := string(expandEnvVars([]byte("a: ${CLUSTERDB_TEST_URI}\nb: ${CLUSTERDB_TEST_UNSET:-fallback}\nc: ${CLUSTERDB_TEST_UNSET}")))
	want := "a: mongodb://db:27017/x\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "http:\n  port: 9090\n  read_timeout: 3s\nmongo:\n  uri: ${CLUSTERDB_TEST_MONGO:-mongodb://localhost/clusterdb}\nredis:\n  addrs: []\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unit.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unit")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Mongo.URI != "mongodb://localhost/clusterdb" {
		t.Errorf("unexpected mongo uri %q", cfg.Mongo.URI)
	}
	if cfg.HTTP.ReadTimeout != 3*time.Second {
		t.Errorf("expected read timeout 3s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Query.MaxPageSize != 100 {
		t.Errorf("defaults not applied: MaxPageSize=%d", cfg.Query.MaxPageSize)
	}
}

func TestLoad_PathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 7070\nmongo:\n  uri: mongodb://m/x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("does-not-exist")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.HTTP.Port)
	}
}

func TestLoadFile_InvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := "http:\n  port: 8080\nmongo:\n  uri: mongodb://m/x\nlogging:\n  level: loud\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "logging.level is invalid") {
		t.Fatalf("expected logging.level error, got %v", err)
	}
}

func TestYAMLPath(t *testing.T) {
	cases := map[string]string{
		"Config.Mongo.URI":              "mongo.uri",
		"Config.Auth.ServiceURL":        "auth.service_url",
		"Config.Query.MaxPageSize":      "query.max_page_size",
		"Config.HTTP.MaxBodyBytes":      "http.max_body_bytes",
		"Config.Redis.ReadinessTimeout": "redis.readiness_timeout",
	}
	for in, want := range cases {
		if got := yamlPath(in); got != want {
			t.Errorf("yamlPath(%q) = %q, want %q", in, got, want)
		}
	}
}
