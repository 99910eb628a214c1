package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/control"
	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/handling"
	"github.com/vietddude/resilience/internal/handling/retry"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "GET a URL through the retry wrapper and report any failure",
	Args:  cobra.ExactArgs(1),
	Run:   runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "per-attempt request timeout")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	url := args[0]

	ctx := context.Background()
	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	if err := probe(ctx, app, &http.Client{Timeout: probeTimeout}, url); err != nil {
		os.Exit(1)
	}
}

type probeApp interface {
	Handler() *handling.Handler
	RetryOptions() []retry.Option
	Stop(ctx context.Context) error
}

// probe fetches url through the retry wrapper. app is stopped before
// returning on every path.
func probe(ctx context.Context, app probeApp, client *http.Client, url string) error {
	defer func() {
		_ = app.Stop(ctx)
	}()

	scope := apperr.Scope{Component: "probe", Action: "GET " + url}
	size, err := retry.Do(ctx, app.Handler(), func(ctx context.Context) (int64, error) {
		return fetch(ctx, client, url)
	}, scope, app.RetryOptions()...)

	m := app.Handler().ErrorMetrics()
	if err != nil {
		slog.Error("Probe failed", "url", url, "errors", m.ErrorCount, "error", err)
		return err
	}
	slog.Info("Probe succeeded", "url", url, "bytes", size, "errors", m.ErrorCount)
	return nil
}

// fetch GETs url and returns the body size. Non-2xx answers become apperr
// values so that the dispatcher can classify them.
func fetch(ctx context.Context, client *http.Client, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, apperr.FromHTTPStatus(resp.StatusCode, url, http.MethodGet)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read body: %w", err)
	}
	return n, nil
}
