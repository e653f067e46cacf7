package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/leadgen/internal/core/config"
	redisclient "github.com/vietddude/leadgen/internal/infra/redis"
	"github.com/vietddude/leadgen/internal/infra/storage"
	"github.com/vietddude/leadgen/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List jobs and their current states",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	repo, cleanup, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open job storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	jobs, err := repo.List(ctx)
	if err != nil {
		slog.Error("Failed to list jobs", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "JOB\tSTATUS\tINDUSTRY\tCOUNTRY\tCREATED")

	for _, job := range jobs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.ID, job.Status, job.Request.Industry, job.Request.Country,
			job.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}

// openRepository connects to the durable backend named in the config.
// The in-memory store is process-local, so the status command has
// nothing to show for it.
func openRepository(ctx context.Context, cfg *config.AppConfig) (storage.JobRepository, func(), error) {
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewJobRepo(db), func() { _ = db.Close() }, nil
	}
	if cfg.Redis.URL != "" {
		rdb, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisclient.NewJobStore(rdb), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("no durable storage configured; in-memory jobs are only visible to the running server")
}
