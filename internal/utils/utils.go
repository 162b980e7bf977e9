package utils

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"
)

var (
	WarningColor = color.New(color.FgHiYellow).SprintFunc()
	ErrorColor   = color.New(color.FgHiRed).SprintFunc()
	InfoColor    = color.New(color.FgHiCyan).SprintFunc()
)

// PrintInfo writes an informational line in cyan.
func PrintInfo(w io.Writer, msg string) {
	fmt.Fprintln(w, InfoColor(msg))
}

// PrintSection writes a "[*]" phase header preceded by a blank line.
func PrintSection(w io.Writer, msg string) {
	fmt.Fprintf(w, "\n%s\n", WarningColor("[*] "+msg))
}

// PrintError formats and prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, ErrorColor(msg))
}

// PrintHint prints a remediation hint that follows an error.
func PrintHint(w io.Writer, msg string) {
	fmt.Fprintln(w, WarningColor("Hint: "+msg))
}

// NormalizeTarget prefixes http:// when the target carries no scheme.
func NormalizeTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}

// QuotePath percent-encodes every byte outside the unreserved set, leaving
// slashes untouched.
func QuotePath(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// SwapCase inverts the case of every letter in s.
func SwapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}

// GenerateCurlCommand creates a reproducible curl command for a probe.
// Only the probe-specific headers are emitted; the browser fingerprint is
// left to curl's defaults.
func GenerateCurlCommand(method, rawURL string, headers map[string]string, form url.Values, insecure bool) string {
	var command strings.Builder
	command.WriteString("curl -s -i --path-as-is -X ")
	command.WriteString(method)
	command.WriteString(fmt.Sprintf(" '%s'", rawURL))

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if lowerKey == "host" || lowerKey == "content-length" {
			continue
		}
		command.WriteString(fmt.Sprintf(" -H '%s: %s'", key, headers[key]))
	}

	if len(form) > 0 {
		command.WriteString(fmt.Sprintf(" --data '%s'", form.Encode()))
	}
	if insecure {
		command.WriteString(" -k")
	}
	return command.String()
}
