package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("bypass403", pflag.ContinueOnError)
	f.StringP("url", "u", "", "")
	f.String("proxy", "", "")
	f.BoolP("insecure", "k", false, "")
	f.BoolP("verbose", "v", false, "")
	f.Float64("rate", 0, "")
	f.Bool("session", false, "")
	f.Bool("curl", false, "")
	f.Bool("no-progress", false, "")
	f.Bool("no-color", false, "")
	f.Bool("debug", false, "")
	f.String("config", "", "")
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantURL string
		wantErr bool
	}{
		{"bare host", Config{URL: "example.com/admin"}, "http://example.com/admin", false},
		{"https kept", Config{URL: "https://example.com"}, "https://example.com", false},
		{"trimmed", Config{URL: "  example.com  "}, "http://example.com", false},
		{"socks proxy", Config{URL: "example.com", Proxy: "socks5://127.0.0.1:1080"}, "http://example.com", false},
		{"http proxy", Config{URL: "example.com", Proxy: "http://127.0.0.1:8080"}, "http://example.com", false},
		{"missing host", Config{URL: "http://"}, "", true},
		{"bad proxy scheme", Config{URL: "example.com", Proxy: "ftp://127.0.0.1"}, "", true},
		{"proxy without host", Config{URL: "example.com", Proxy: "http://"}, "", true},
		{"negative rate", Config{URL: "example.com", Rate: -1}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.cfg.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", tt.cfg.URL, tt.wantURL)
			}
		})
	}
}

func TestValidate_MissingURL(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingURL) {
		t.Errorf("Validate() error = %v, want ErrMissingURL", err)
	}
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(newFlagSet(t, "-u", "example.com/admin", "-k", "-v", "--rate", "2.5", "--curl", "--no-progress"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.URL != "http://example.com/admin" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if !cfg.Insecure || !cfg.Verbose || !cfg.Curl || !cfg.NoProgress {
		t.Errorf("boolean flags not applied: %+v", cfg)
	}
	if cfg.Session || cfg.NoColor || cfg.Debug {
		t.Errorf("unset flags turned on: %+v", cfg)
	}
	if cfg.Rate != 2.5 {
		t.Errorf("Rate = %v, want 2.5", cfg.Rate)
	}
}

func TestLoad_MissingURL(t *testing.T) {
	if _, err := Load(newFlagSet(t)); !errors.Is(err, ErrMissingURL) {
		t.Errorf("Load() error = %v, want ErrMissingURL", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BYPASS403_URL", "env.example.com")
	t.Setenv("BYPASS403_PROXY", "http://127.0.0.1:8080")
	t.Setenv("BYPASS403_NO_COLOR", "true")

	cfg, err := Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.URL != "http://env.example.com" || cfg.Proxy != "http://127.0.0.1:8080" || !cfg.NoColor {
		t.Errorf("environment not applied: %+v", cfg)
	}

	cfg, err = Load(newFlagSet(t, "--url", "flag.example.com"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.URL != "http://flag.example.com" {
		t.Errorf("URL = %q, flags should win over the environment", cfg.URL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bypass403.yaml")
	content := "url: file.example.com/admin\nrate: 3\nsession: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(newFlagSet(t, "--config", path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.URL != "http://file.example.com/admin" || cfg.Rate != 3 || !cfg.Session {
		t.Errorf("config file not applied: %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}

	if _, err := Load(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("Load() with a missing config file should fail")
	}
}

func TestBrowserHeaders_FreshCopy(t *testing.T) {
	h := BrowserHeaders()
	h["Accept"] = "changed"
	if BrowserHeaders()["Accept"] == "changed" {
		t.Error("BrowserHeaders returned shared state")
	}
	if _, ok := h["User-Agent"]; ok {
		t.Error("BrowserHeaders should not carry the User-Agent")
	}
}
