package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"bypass403/internal/config"
	"bypass403/internal/report"
	"bypass403/internal/utils"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// ErrBaseline marks a failed reference request; without it the run has no
// point of comparison.
var ErrBaseline = errors.New("baseline request failed")

// BaselineError wraps the transport failure of the reference request.
type BaselineError struct {
	Err error
}

func (e *BaselineError) Error() string {
	return ErrBaseline.Error() + ": " + e.Err.Error()
}

func (e *BaselineError) Unwrap() error { return e.Err }

func (e *BaselineError) Is(target error) bool { return target == ErrBaseline }

// PanicError carries a panic recovered during the probing phases.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Value)
}

// Options tune a Scanner beyond its required collaborators.
type Options struct {
	// Curl attaches a reproducible curl command to interesting lines.
	Curl bool
	// Progress draws a bar on ProgressWriter while probing.
	Progress       bool
	ProgressWriter io.Writer

	BaselineTimeout time.Duration
	ProbeTimeout    time.Duration
}

type Scanner struct {
	target    Target
	requester *Requester
	reporter  *report.Reporter
	log       *log.Logger
	opts      Options
}

func NewScanner(target Target, requester *Requester, reporter *report.Reporter, logger *log.Logger, opts Options) *Scanner {
	if opts.BaselineTimeout <= 0 {
		opts.BaselineTimeout = config.BaselineTimeout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = config.ProbeTimeout
	}
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Scanner{
		target:    target,
		requester: requester,
		reporter:  reporter,
		log:       logger,
		opts:      opts,
	}
}

// Baseline sends the unauthenticated reference GET.
func (s *Scanner) Baseline(ctx context.Context) (Baseline, error) {
	v := Variant{Technique: "Baseline", Payload: "GET", Method: "GET", URL: s.target.Raw}
	res, err := s.requester.Send(ctx, v, s.opts.BaselineTimeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Baseline{}, ctxErr
		}
		return Baseline{}, &BaselineError{Err: err}
	}
	return Baseline{StatusCode: res.StatusCode, BodyLength: res.BodyLength}, nil
}

// Run takes the baseline and then works through every category in order.
// It returns ctx.Err() when interrupted, an ErrBaseline-wrapped error when
// the reference request fails, and a *PanicError for anything unexpected.
func (s *Scanner) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	cfg := s.requester.Config()
	s.reporter.Banner(s.target.Raw, cfg.UserAgent, cfg.Proxy)

	baseline, err := s.Baseline(ctx)
	if err != nil {
		return err
	}
	s.reporter.Baseline(baseline.StatusCode, baseline.BodyLength)

	plan := Plan(s.target)
	bar := s.newProgressBar(CountVariants(plan))
	if bar != nil {
		s.reporter.SetProgressBar(bar)
		defer func() {
			_ = bar.Finish()
			s.reporter.SetProgressBar(nil)
		}()
	}

	for _, category := range plan {
		s.reporter.Section(category.Title)
		s.log.WithFields(log.Fields{"category": category.Title, "variants": len(category.Variants)}).Debug("Starting category")
		for _, v := range category.Variants {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.probe(ctx, v, baseline)
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}
	return ctx.Err()
}

func (s *Scanner) probe(ctx context.Context, v Variant, baseline Baseline) {
	res, err := s.requester.Send(ctx, v, s.opts.ProbeTimeout)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithFields(log.Fields{"technique": v.Technique, "payload": v.Payload, "err": err}).Debug("Probe failed, skipping")
		}
		return
	}

	entry := report.Entry{
		Technique:   v.Technique,
		Payload:     v.Payload,
		StatusCode:  res.StatusCode,
		Size:        res.BodyLength,
		Interesting: Classify(res, baseline),
	}
	if entry.Interesting && s.opts.Curl {
		entry.Curl = utils.GenerateCurlCommand(v.Method, v.URL, v.Headers, v.Form, s.requester.Config().Insecure)
	}
	s.reporter.Report(entry)
}

func (s *Scanner) newProgressBar(total int) *progressbar.ProgressBar {
	if !s.opts.Progress || s.opts.ProgressWriter == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.opts.ProgressWriter),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]Probing...[reset]"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
