package report

import (
	"fmt"
	"io"

	"bypass403/internal/utils"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Category is the display class of a status code. It only drives colors.
type Category int

const (
	CategoryInfo Category = iota
	CategorySuccess
	CategoryRedirect
	CategoryBlocked
	CategoryServerError
)

func (c Category) String() string {
	switch c {
	case CategorySuccess:
		return "success"
	case CategoryRedirect:
		return "redirect"
	case CategoryBlocked:
		return "blocked"
	case CategoryServerError:
		return "server-error"
	default:
		return "info"
	}
}

// CategoryFor maps a status code to its display category.
func CategoryFor(status int) Category {
	switch status {
	case 200, 201, 202, 204:
		return CategorySuccess
	case 301, 302, 307, 308:
		return CategoryRedirect
	case 401, 403:
		return CategoryBlocked
	}
	if status >= 500 {
		return CategoryServerError
	}
	return CategoryInfo
}

var palette = map[Category]*color.Color{
	CategorySuccess:     color.New(color.FgHiGreen),
	CategoryRedirect:    color.New(color.FgHiYellow),
	CategoryBlocked:     color.New(color.FgHiRed),
	CategoryServerError: color.New(color.FgHiMagenta),
	CategoryInfo:        color.New(color.FgHiCyan),
}

// Entry is one completed probe ready for printing.
type Entry struct {
	Technique   string
	Payload     string
	StatusCode  int
	Size        int
	Interesting bool
	Curl        string
}

// Line renders e without color.
func (e Entry) Line() string {
	marker := "[-]"
	if e.Interesting {
		marker = "[+]"
	}
	return fmt.Sprintf("%s %s | Payload: %s | Status: %d | Size: %d", marker, e.Technique, e.Payload, e.StatusCode, e.Size)
}

// Reporter prints run output. Each call writes whole lines, and the progress
// bar, when attached, is cleared first so the two never interleave.
type Reporter struct {
	out     io.Writer
	verbose bool
	bar     *progressbar.ProgressBar
}

func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

// SetProgressBar attaches bar; nil detaches it.
func (r *Reporter) SetProgressBar(bar *progressbar.ProgressBar) {
	r.bar = bar
}

func (r *Reporter) clearBar() {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
}

// Banner prints the run header.
func (r *Reporter) Banner(target, userAgent, proxy string) {
	utils.PrintInfo(r.out, "Targeting: "+target)
	utils.PrintInfo(r.out, "Using User-Agent: "+userAgent)
	if proxy != "" {
		utils.PrintInfo(r.out, "Using Proxy: "+proxy)
	}
}

// Baseline prints the reference status and length.
func (r *Reporter) Baseline(status, length int) {
	utils.PrintInfo(r.out, fmt.Sprintf("Baseline :: Status: %d, Length: %d", status, length))
}

// Section prints a category header.
func (r *Reporter) Section(title string) {
	r.clearBar()
	utils.PrintSection(r.out, title)
}

// Report prints e when it is interesting or the reporter is verbose, and
// tells whether a line was written.
func (r *Reporter) Report(e Entry) bool {
	if !e.Interesting && !r.verbose {
		return false
	}
	r.clearBar()
	fmt.Fprintln(r.out, palette[CategoryFor(e.StatusCode)].Sprint(e.Line()))
	if e.Curl != "" {
		fmt.Fprintln(r.out, "    "+e.Curl)
	}
	return true
}

// Interrupted prints the user-abort notice.
func (r *Reporter) Interrupted() {
	r.clearBar()
	fmt.Fprintln(r.out)
	utils.PrintError(r.out, "[!] Interrupted by user.")
}

// Failure prints an error and its remediation hint.
func (r *Reporter) Failure(msg, hint string) {
	r.clearBar()
	utils.PrintError(r.out, msg)
	if hint != "" {
		utils.PrintHint(r.out, hint)
	}
}
