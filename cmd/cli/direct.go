package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iho/txsummary/internal/adapter/csvimport"
	"github.com/iho/txsummary/internal/adapter/http/dto"
	postgresRepo "github.com/iho/txsummary/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/txsummary/internal/adapter/repository/redis"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/config"
	"github.com/iho/txsummary/internal/infrastructure/logger"
	"github.com/iho/txsummary/internal/infrastructure/postgres"
	"github.com/iho/txsummary/internal/infrastructure/redis"
	"github.com/iho/txsummary/internal/render"
	"github.com/iho/txsummary/internal/usecase"
)

// backend holds the stores used by commands that bypass the API.
type backend struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	redis     *goredis.Client
	summaries *usecase.SummaryUseCase
	imports   *usecase.ImportUseCase
}

func openBackend(ctx context.Context) (*backend, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 0)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, "txsummary-cli")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	summaries := usecase.NewSummaryUseCase(
		accountRepo,
		transactionRepo,
		redisRepo.NewSummaryCache(redisClient, cfg.SummaryTTL),
		redisRepo.NewSequenceStore(redisClient),
		nil,
	)
	imports := usecase.NewImportUseCase(
		postgresRepo.NewTxManager(pool),
		accountRepo,
		transactionRepo,
		postgresRepo.NewOutboxRepository(pool),
		csvimport.NewParser(),
		summaries,
		redisRepo.NewUpdateBus(redisClient, cfg.UpdatesChannel, nil),
		postgresRepo.NewULIDGenerator(),
		postgresRepo.NewRetrier(),
		nil,
	)

	return &backend{cfg: cfg, pool: pool, redis: redisClient, summaries: summaries, imports: imports}, nil
}

func (b *backend) Close() {
	b.redis.Close()
	b.pool.Close()
}

func newSummaryCmd(opts *options) *cobra.Command {
	var expandAll bool

	cmd := &cobra.Command{
		Use:   "summary <account-id>",
		Short: "Print the monthly transaction summary of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cliContext(cmd)
			b, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			summary, err := b.summaries.GetSummary(ctx, args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd, summary, opts.jsonOut, expandAll)
		},
	}
	cmd.Flags().BoolVar(&expandAll, "expand", false, "Show every transaction of every month")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *domain.TransactionSummary, jsonOut, expandAll bool) error {
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), dto.SummaryFromDomain(summary))
	}

	state := render.NewViewState().ExpandDetails()
	if expandAll {
		state = render.ExpandAll(summary)
	}
	return render.WriteText(cmd.OutOrStdout(), render.Render(summary, state))
}

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <account-id> <file>",
		Short: "Import a CSV statement directly, without the queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if len(content) == 0 {
				return domain.ErrEmptyUpload
			}

			ctx := cliContext(cmd)
			b, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			job := &domain.ImportJob{
				ID:        postgresRepo.NewULIDGenerator().Generate(),
				AccountID: args[0],
				FileName:  filepath.Base(args[1]),
				Content:   content,
			}
			result, err := b.imports.Import(ctx, job)
			if err != nil {
				return err
			}

			resp := dto.ImportResultFromUseCase(result)
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions into %s (sequence %d)\n", resp.Imported, resp.AccountID, resp.Sequence)
			for _, skipped := range resp.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped line %d: %s\n", skipped.Line, skipped.Reason)
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	run := func(apply func(*postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			m, err := postgres.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := apply(m); err != nil {
				return err
			}

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%v)\n", version, dirty)
			return nil
		}
	}

	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", Args: cobra.NoArgs, RunE: run((*postgres.Migrator).Up)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", Args: cobra.NoArgs, RunE: run((*postgres.Migrator).Down)},
	)
	return migrateCmd
}

// cliContext attaches a stderr logger so use-case logs stay out of command output.
func cliContext(cmd *cobra.Command) context.Context {
	l := logger.New(logger.Config{Level: "warn", Format: "console", Output: cmd.ErrOrStderr()})
	return l.WithContext(cmd.Context())
}
