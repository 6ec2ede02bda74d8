package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected at least one default source")
	}
	if cfg.APIURL == "" {
		t.Error("expected api_url to be set")
	}
	if cfg.StorageBackend() != BackendSQLite {
		t.Errorf("expected sqlite default backend, got %s", cfg.StorageBackend())
	}
	if err := validate(cfg); err != nil {
		t.Errorf("embedded defaults should validate: %v", err)
	}
}

func TestRefreshDuration(t *testing.T) {
	cfg := &Config{RefreshInterval: "30m"}
	d := cfg.RefreshDuration()
	if d.Minutes() != 30 {
		t.Errorf("expected 30m, got %v", d)
	}

	cfg.RefreshInterval = "invalid"
	d = cfg.RefreshDuration()
	if d.Minutes() != 15 {
		t.Errorf("expected 15m default for invalid interval, got %v", d)
	}
}

func TestRetentionDuration(t *testing.T) {
	tests := []struct {
		input    string
		wantDays int
	}{
		{"90d", 90},
		{"7d", 7},
		{"720h", 30},
		{"", 30},        // default
		{"invalid", 30}, // fallback to default
	}
	for _, tt := range tests {
		cfg := &Config{Retention: tt.input}
		got := cfg.RetentionDuration()
		wantHours := float64(tt.wantDays * 24)
		if got.Hours() != wantHours {
			t.Errorf("RetentionDuration(%q) = %v, want %dd", tt.input, got, tt.wantDays)
		}
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDays(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("ParseDays(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDays(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDays(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	if got := (&Config{Timeout: "3s"}).RequestTimeout(); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
	if got := (&Config{}).RequestTimeout(); got != 10*time.Second {
		t.Errorf("expected 10s default, got %v", got)
	}
	if got := (&Config{Timeout: "-1s"}).RequestTimeout(); got != 10*time.Second {
		t.Errorf("expected 10s for negative timeout, got %v", got)
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{
		Sources: []Source{
			{Name: "A", Enabled: true},
			{Name: "B", Enabled: false},
			{Name: "C", Enabled: true},
		},
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(enabled))
	}
	if enabled[0].Name != "A" || enabled[1].Name != "C" {
		t.Errorf("unexpected enabled sources: %v", enabled)
	}

	names := cfg.SourceNames()
	if len(names) != 2 || names[0] != "A" || names[1] != "C" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestStorageDefaults(t *testing.T) {
	cfg := &Config{}
	if cfg.StorageBackend() != BackendSQLite {
		t.Errorf("expected sqlite, got %s", cfg.StorageBackend())
	}
	if cfg.RedisNamespace() != "devfeed" {
		t.Errorf("expected devfeed namespace, got %s", cfg.RedisNamespace())
	}
	if filepath.Base(cfg.StoragePath()) != "annotations.json" {
		t.Errorf("unexpected storage path %s", cfg.StoragePath())
	}

	cfg.Storage = Storage{Backend: "Redis", Path: "/tmp/x.json", Namespace: "alice"}
	if cfg.StorageBackend() != BackendRedis {
		t.Errorf("expected backend name to be lowercased, got %s", cfg.StorageBackend())
	}
	if cfg.StoragePath() != "/tmp/x.json" || cfg.RedisNamespace() != "alice" {
		t.Errorf("explicit storage settings ignored: %+v", cfg.Storage)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `api_url: https://news.example.com
refresh_interval: 2h
sources:
  - name: Test
    type: rss
    url: https://example.com/feed
    enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://news.example.com" {
		t.Errorf("expected api url from file, got %s", cfg.APIURL)
	}
	if cfg.RefreshInterval != "2h" {
		t.Errorf("expected 2h, got %s", cfg.RefreshInterval)
	}
	if cfg.Retention != "30d" {
		t.Errorf("expected retention filled from defaults, got %q", cfg.Retention)
	}
	if cfg.Sources[0].Name != "Test" {
		t.Errorf("expected first source name Test, got %s", cfg.Sources[0].Name)
	}
	if len(cfg.Sources) <= 1 {
		t.Errorf("expected default sources to be merged, got %d total", len(cfg.Sources))
	}
}

func TestLoadNonexistentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources when config doesn't exist")
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults to be written on first run: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEVFEED_API_URL", "https://env.example.com")
	t.Setenv("DEVFEED_STORAGE", "redis")
	t.Setenv("DEVFEED_REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Errorf("expected env api url, got %s", cfg.APIURL)
	}
	if cfg.StorageBackend() != BackendRedis || cfg.Storage.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("expected redis storage from env, got %+v", cfg.Storage)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(cfgPath, []byte("sources: [\n"), 0o644)

	if _, err := Load(cfgPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestMergeDefaultSources(t *testing.T) {
	cfg := &Config{
		Sources: []Source{
			{Name: "Existing", Type: "rss", URL: "https://example.com/feed", Enabled: true},
			{Name: "Shared", Type: "rss", URL: "https://old.com/feed", Enabled: true},
		},
	}
	defaults := &Config{
		Sources: []Source{
			{Name: "Shared", Type: "atom", URL: "https://new.com/feed", Enabled: false},
			{Name: "NewSource", Type: "rss", URL: "https://new-source.com/feed", Enabled: true},
		},
	}
	mergeDefaultSources(cfg, defaults)

	if len(cfg.Sources) != 3 {
		t.Fatalf("expected 3 sources after merge, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "Existing" {
		t.Errorf("expected first source Existing, got %s", cfg.Sources[0].Name)
	}
	if cfg.Sources[1].URL != "https://new.com/feed" {
		t.Errorf("expected Shared URL updated, got %s", cfg.Sources[1].URL)
	}
	if cfg.Sources[1].Type != "atom" {
		t.Errorf("expected Shared type updated to atom, got %s", cfg.Sources[1].Type)
	}
	if !cfg.Sources[1].Enabled {
		t.Error("expected user's enabled flag to be kept")
	}
	if cfg.Sources[2].Name != "NewSource" {
		t.Errorf("expected NewSource appended, got %s", cfg.Sources[2].Name)
	}
}

func validConfig() *Config {
	return &Config{APIURL: "http://localhost:8000"}
}

func TestValidateAPIURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://localhost:8000", false},
		{"https://news.example.com", false},
		{"", true},
		{"file:///etc/passwd", true},
		{"localhost:8000", true},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.APIURL = tt.url
		err := validate(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("validate(api_url=%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateStorage(t *testing.T) {
	tests := []struct {
		storage Storage
		wantErr bool
	}{
		{Storage{}, false},
		{Storage{Backend: "file"}, false},
		{Storage{Backend: "memory"}, false},
		{Storage{Backend: "redis"}, true},
		{Storage{Backend: "redis", RedisURL: "redis://localhost:6379"}, false},
		{Storage{Backend: "localstorage"}, true},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.Storage = tt.storage
		err := validate(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("validate(%+v) error = %v, wantErr %v", tt.storage, err, tt.wantErr)
		}
	}
}

func TestValidateSources(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{"missing name", Source{Type: "rss", URL: "https://example.com"}, true},
		{"reserved name", Source{Name: "api", Type: "rss", URL: "https://example.com"}, true},
		{"missing url", Source{Name: "Test", Type: "rss"}, true},
		{"invalid type", Source{Name: "Test", Type: "json", URL: "https://example.com"}, true},
		{"file scheme", Source{Name: "Test", Type: "rss", URL: "file:///etc/passwd"}, true},
		{"https", Source{Name: "Test", Type: "rss", URL: "https://example.com/feed"}, false},
		{"http atom", Source{Name: "Test", Type: "atom", URL: "http://example.com/feed"}, false},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.Sources = []Source{tt.source}
		err := validate(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
