package scanner

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"bypass403/internal/config"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// ClientConfig is shared by every request of a run and never mutated after
// NewRequester.
type ClientConfig struct {
	UserAgent string
	Headers   map[string]string
	Proxy     string
	Insecure  bool
	// Rate caps requests per second; zero disables pacing.
	Rate float64
	// Session keeps cookies between requests.
	Session bool
}

// DefaultClientConfig returns the browser fingerprint with TLS verification on.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		UserAgent: config.DefaultUserAgent,
		Headers:   config.BrowserHeaders(),
	}
}

// Requester sends variants with the immutable base configuration. Overlay
// headers are merged into a per-request copy, so nothing a variant sets can
// reach the next request.
type Requester struct {
	cfg          ClientConfig
	client       *http.Client
	headers      http.Header
	limiter      *rate.Limiter
	forwardProxy bool
}

// NewRequester builds the shared client for cfg.
func NewRequester(cfg ClientConfig) (*Requester, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
	}

	forwardProxy := false
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		forwardProxy = proxyURL.Scheme == "http" || proxyURL.Scheme == "https"
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if cfg.Session {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		client.Jar = jar
	}

	headers := make(http.Header, len(cfg.Headers)+1)
	for key, value := range cfg.Headers {
		headers.Set(key, value)
	}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	return &Requester{
		cfg:          cfg,
		client:       client,
		headers:      headers,
		limiter:      limiter,
		forwardProxy: forwardProxy,
	}, nil
}

// Config returns the configuration the requester was built with.
func (r *Requester) Config() ClientConfig {
	return r.cfg
}

// BaseHeaders returns a copy of the headers every request starts from.
func (r *Requester) BaseHeaders() http.Header {
	return r.headers.Clone()
}

func (r *Requester) headersFor(overlay map[string]string) http.Header {
	h := r.headers.Clone()
	for key, value := range overlay {
		h.Set(key, value)
	}
	return h
}

// Send issues one variant and measures the response. Redirects are returned
// as-is. Any transport failure is returned unwrapped for the caller to skip.
func (r *Requester) Send(ctx context.Context, v Variant, timeout time.Duration) (ProbeResult, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return ProbeResult{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := r.newProbeRequest(ctx, v)
	if err != nil {
		return ProbeResult{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	n, err := bodyLength(resp)
	if err != nil {
		return ProbeResult{}, err
	}
	return ProbeResult{Variant: v, StatusCode: resp.StatusCode, BodyLength: n}, nil
}

func (r *Requester) newProbeRequest(ctx context.Context, v Variant) (*http.Request, error) {
	method := v.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if v.Form != nil {
		body = strings.NewReader(v.Form.Encode())
	}

	origin, target := splitTarget(v.URL)
	var (
		req *http.Request
		err error
	)
	if strings.HasPrefix(target, "//") {
		// Opaque values starting with // are rendered as scheme:opaque, so
		// these go through the parser, which keeps a valid RawPath verbatim.
		req, err = http.NewRequestWithContext(ctx, method, v.URL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, origin+"/", body)
		if err == nil {
			req.URL.Opaque = target
			if r.forwardProxy && req.URL.Scheme == "http" && method != http.MethodConnect {
				req.URL.Opaque = "//" + req.URL.Host + target
			}
		}
	}
	if err != nil {
		return nil, err
	}

	req.Header = r.headersFor(v.Headers)
	if v.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if te := req.Header.Get("Transfer-Encoding"); te != "" {
		// net/http ignores Transfer-Encoding in the header map. A non-nil
		// empty body makes it emit the terminating zero-length chunk.
		req.Header.Del("Transfer-Encoding")
		req.TransferEncoding = []string{te}
		if req.Body == nil {
			req.Body = io.NopCloser(strings.NewReader(""))
		}
	}
	return req, nil
}

// splitTarget separates scheme://host from the request-target. The target
// ends at the first /, \ or ? after the authority; an empty target becomes /.
// Fragments are never sent.
func splitTarget(raw string) (origin, target string) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	start := 0
	if i := strings.Index(raw, "://"); i >= 0 {
		start = i + 3
	}
	end := strings.IndexAny(raw[start:], `/\?`)
	if end < 0 {
		return raw, "/"
	}
	origin, target = raw[:start+end], raw[start+end:]
	if strings.HasPrefix(target, "?") {
		target = "/" + target
	}
	return origin, target
}

// bodyLength reads the whole body and returns its decoded size. gzip, deflate
// (zlib-wrapped or raw) and brotli bodies are measured after decoding;
// anything else, or a body that fails to decode, is measured raw.
func bodyLength(resp *http.Response) (int, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return len(raw), nil
		}
		return decodedLength(zr, len(raw)), nil
	case "deflate":
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			n, err := io.Copy(io.Discard, zr)
			zr.Close()
			if err == nil {
				return int(n), nil
			}
		}
		return decodedLength(flate.NewReader(bytes.NewReader(raw)), len(raw)), nil
	case "br":
		return decodedLength(io.NopCloser(brotli.NewReader(bytes.NewReader(raw))), len(raw)), nil
	}
	return len(raw), nil
}

func decodedLength(r io.ReadCloser, rawLen int) int {
	defer r.Close()
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return rawLen
	}
	return int(n)
}
