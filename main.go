package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bypass403/internal/config"
	"bypass403/internal/report"
	"bypass403/internal/scanner"
	"bypass403/internal/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	baselineHint = "The target might be blocking automated clients. Try using a proxy or check if the site is accessible."
	runtimeHint  = "Connection timeouts often mean the server is dropping packets from your IP."
)

var rootCmd = &cobra.Command{
	Use:   "bypass403 --url <target> [flags]",
	Short: "Probe a 401/403-protected endpoint with access-control bypass techniques",
	Long: `bypass403 sends a baseline request to the target and then tries HTTP verb
variations, spoofed client-identity headers, path-normalization tricks and
protocol-pollution hints, reporting every attempt whose response differs
from the baseline.`,
	Example: `  bypass403 --url https://example.com/admin
  bypass403 --url example.com/admin -v
  bypass403 --url https://example.com/admin --proxy http://127.0.0.1:8080 --insecure
  bypass403 --url https://example.com/admin --rate 5 --curl`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScan,
}

// exitError carries the process exit code out of RunE once the failure has
// already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	f := rootCmd.Flags()
	f.StringP("url", "u", "", "Target URL or bare host (http:// is assumed when no scheme is given)")
	f.String("proxy", "", "Proxy URL applied to every request (http, https or socks5)")
	f.BoolP("insecure", "k", false, "Skip TLS certificate verification")
	f.BoolP("verbose", "v", false, "Show all attempts, not only interesting ones")
	f.Float64("rate", 0, "Maximum requests per second (0 for no limit)")
	f.Bool("session", false, "Keep cookies across requests like a browser session")
	f.Bool("curl", false, "Print a curl command for every interesting result")
	f.Bool("no-progress", false, "Disable the progress bar")
	f.Bool("no-color", false, "Disable colored output")
	f.Bool("debug", false, "Enable debug logging of skipped probes")
	f.String("config", "", "Optional config file (yaml, json or toml)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		if errors.Is(err, config.ErrMissingURL) {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
		}
		return err
	}

	if cfg.NoColor {
		color.NoColor = true
	}
	logger := utils.NewLogger(os.Stderr, cfg.Debug, cfg.NoColor)
	if cfg.ConfigFile != "" {
		logger.WithField("file", cfg.ConfigFile).Debug("Loaded config file")
	}

	target, err := scanner.ParseTarget(cfg.URL)
	if err != nil {
		return err
	}

	clientCfg := scanner.DefaultClientConfig()
	clientCfg.Proxy = cfg.Proxy
	clientCfg.Insecure = cfg.Insecure
	clientCfg.Rate = cfg.Rate
	clientCfg.Session = cfg.Session
	requester, err := scanner.NewRequester(clientCfg)
	if err != nil {
		return err
	}

	reporter := report.NewReporter(os.Stdout, cfg.Verbose)
	s := scanner.NewScanner(target, requester, reporter, logger, scanner.Options{
		Curl:           cfg.Curl,
		Progress:       !cfg.NoProgress && term.IsTerminal(int(os.Stderr.Fd())),
		ProgressWriter: os.Stderr,
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = s.Run(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		reporter.Interrupted()
		return nil
	}

	msg, hint := failureMessage(err)
	var panicErr *scanner.PanicError
	switch {
	case errors.Is(err, scanner.ErrBaseline):
		reporter.Failure(msg, hint)
		return &exitError{code: 1}
	case errors.As(err, &panicErr):
		fmt.Fprintln(os.Stdout)
		reporter.Failure(msg, hint)
		logger.Error("Probing aborted")
		os.Stderr.Write(panicErr.Stack)
		return nil
	default:
		fmt.Fprintln(os.Stdout)
		reporter.Failure(msg, hint)
		return nil
	}
}

// failureMessage returns the user-facing error line and hint for a failed run.
func failureMessage(err error) (msg, hint string) {
	var (
		baselineErr *scanner.BaselineError
		panicErr    *scanner.PanicError
	)
	switch {
	case errors.As(err, &baselineErr):
		return fmt.Sprintf("Error connecting to target: %v", baselineErr.Err), baselineHint
	case errors.As(err, &panicErr):
		return fmt.Sprintf("[!] Unexpected error: %v", panicErr.Value), runtimeHint
	default:
		return "[!] Unexpected error: " + err.Error(), runtimeHint
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, utils.ErrorColor("[ERROR] "+err.Error()))
		os.Exit(1)
	}
}
