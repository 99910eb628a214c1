package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
	"github.com/vietddude/resilience/internal/infra/storage/postgres"
)

var recentLimit int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show persisted error counts per kind and the most recent errors",
	Run:   runMetrics,
}

func init() {
	metricsCmd.Flags().IntVar(&recentLimit, "recent", 10, "number of recent errors to list")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		slog.Error("database.url is not set")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewErrorLogRepo(db)
	counts, err := repo.CountByKind(ctx)
	if err != nil {
		slog.Error("Failed to count errors", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KIND\tCOUNT")
	for _, kind := range apperr.Kinds {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", kind, counts[kind])
	}
	_ = w.Flush()

	if recentLimit <= 0 {
		return
	}
	recs, err := repo.List(ctx, storage.Filter{Limit: recentLimit})
	if err != nil {
		slog.Error("Failed to list errors", "error", err)
		os.Exit(1)
	}

	_, _ = fmt.Fprintln(os.Stdout)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "OCCURRED\tKIND\tCODE\tSEVERITY\tCOMPONENT")
	for _, rec := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.OccurredAt.Format("2006-01-02 15:04:05"), rec.Kind, rec.Code, rec.Severity, rec.Component)
	}
	_ = w.Flush()
}
