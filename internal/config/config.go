package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bypass403/internal/utils"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// BaselineTimeout bounds the single reference request.
	BaselineTimeout = 10 * time.Second
	// ProbeTimeout bounds every variant request.
	ProbeTimeout = 5 * time.Second

	EnvPrefix = "BYPASS403"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var ErrMissingURL = errors.New("target URL is required (--url)")

// BrowserHeaders returns the fingerprint sent with every request, minus the
// User-Agent. A fresh map is returned on each call.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding":           "gzip, deflate, br",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Ch-Ua":                 `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
		"Sec-Ch-Ua-Mobile":          "?0",
		"Sec-Ch-Ua-Platform":        `"Windows"`,
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
}

// Config holds the resolved settings for one run.
type Config struct {
	URL        string
	Proxy      string
	Insecure   bool
	Verbose    bool
	Rate       float64
	Session    bool
	Curl       bool
	NoProgress bool
	NoColor    bool
	Debug      bool
	ConfigFile string
}

// Load resolves settings from flags, BYPASS403_* environment variables and an
// optional config file, in that order of precedence.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg := Config{
		URL:        v.GetString("url"),
		Proxy:      v.GetString("proxy"),
		Insecure:   v.GetBool("insecure"),
		Verbose:    v.GetBool("verbose"),
		Rate:       v.GetFloat64("rate"),
		Session:    v.GetBool("session"),
		Curl:       v.GetBool("curl"),
		NoProgress: v.GetBool("no-progress"),
		NoColor:    v.GetBool("no-color"),
		Debug:      v.GetBool("debug"),
		ConfigFile: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes the target and rejects unusable values.
func (c *Config) Validate() error {
	c.URL = utils.NormalizeTarget(c.URL)
	if c.URL == "" {
		return ErrMissingURL
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", c.URL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid target URL %q: missing host", c.URL)
	}

	if c.Proxy != "" {
		p, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", c.Proxy, err)
		}
		switch p.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("invalid proxy URL %q: unsupported scheme %q", c.Proxy, p.Scheme)
		}
		if p.Host == "" {
			return fmt.Errorf("invalid proxy URL %q: missing host", c.Proxy)
		}
	}

	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", c.Rate)
	}
	return nil
}
