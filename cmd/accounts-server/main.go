package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hms/accounts/internal/config"
	"github.com/hms/accounts/internal/domain/ledger"
	"github.com/hms/accounts/internal/platform/auth"
	"github.com/hms/accounts/internal/platform/db"
	"github.com/hms/accounts/internal/platform/events"
	"github.com/hms/accounts/internal/platform/middleware"
	"github.com/hms/accounts/internal/platform/reporting"
	"github.com/hms/accounts/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "accounts-server",
		Short:        "Hospital accounts ledger service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(hospitalCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(accountCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the accounts API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger writes JSON, or a console format in development.
func newLogger(env, level string, out io.Writer) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// loadConfig loads and validates configuration for every command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		MinConns:       cfg.DBMinConns,
		ConnectTimeout: 10 * time.Second,
	})
}

// newLedgerService wires the pg repositories and configured opening
// balances. The publisher is left as a no-op.
func newLedgerService(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*ledger.Service, error) {
	cashOpening, ledgerOpening, err := cfg.OpeningBalances()
	if err != nil {
		return nil, err
	}
	svc := ledger.NewService(
		ledger.NewAccountRepoPG(pool),
		ledger.NewVoucherEntryRepoPG(pool),
		ledger.NewReceiptRepoPG(pool),
		logger,
	)
	svc.SetDefaults(ledger.Defaults{
		CashBookOpeningBalance:      cashOpening,
		AccountLedgerOpeningBalance: ledgerOpening,
	})
	return svc, nil
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"), os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg.Env, cfg.LogLevel, os.Stdout)
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode: unauthenticated requests get admin access")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	signingKey, err := cfg.SigningKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid signing key")
	}

	ledgerSvc, err := newLedgerService(cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure ledger service")
	}
	if cfg.EventsEnabled() {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		ledgerSvc.SetPublisher(publisher)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("ledger events enabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader, db.HospitalHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, echo.HeaderContentDisposition},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(cfg.DefaultHospital, signingKey))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: signingKey,
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(db.HospitalMiddleware(pool, cfg.DefaultHospital))
	apiV1.Use(middleware.Audit(logger, middleware.TableAuditRecorder()))

	ledger.NewHandler(ledgerSvc).RegisterRoutes(apiV1)
	reporting.NewHandler(pool).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for a hospital schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			hospital, _ := cmd.Flags().GetString("hospital")
			return withMigrator(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, m *db.Migrator) error {
				schema := db.SchemaFor(hospital)
				fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
				count, err := m.Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("hospital", "default", "Hospital whose schema to migrate")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			hospital, _ := cmd.Flags().GetString("hospital")
			return withMigrator(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, m *db.Migrator) error {
				schema := db.SchemaFor(hospital)
				statuses, err := m.Status(ctx, schema)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printMigrationStatus(cmd.OutOrStdout(), schema, statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("hospital", "default", "Hospital whose schema to inspect")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func withMigrator(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool, m *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger := newLogger(cfg.Env, cfg.LogLevel, os.Stderr)
	return fn(ctx, pool, db.NewMigrator(pool, migrations.FS, logger))
}

func hospitalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hospital",
		Short: "Manage hospital schemas",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a hospital schema and apply all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if !db.ValidHospitalID(name) {
				return fmt.Errorf("--name must be alphanumeric or underscore, got %q", name)
			}
			return withMigrator(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, m *db.Migrator) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Creating hospital schema: %s\n", db.SchemaFor(name))
				if err := db.CreateHospitalSchema(ctx, pool, name, m); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Hospital created successfully.")
				return nil
			})
		},
	}
	createCmd.Flags().String("name", "", "Hospital identifier (alphanumeric)")
	cmd.AddCommand(createCmd)
	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add an account with an explicit role",
		RunE: func(cmd *cobra.Command, args []string) error {
			hospital, _ := cmd.Flags().GetString("hospital")
			name, _ := cmd.Flags().GetString("name")
			accountType, _ := cmd.Flags().GetString("type")
			role, _ := cmd.Flags().GetString("role")

			return withLedger(cmd.Context(), hospital, func(ctx context.Context, svc *ledger.Service) error {
				a := &ledger.Account{Name: name, AccountType: accountType, Role: ledger.AccountRole(role)}
				if err := svc.CreateAccount(ctx, a); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	createCmd.Flags().String("hospital", "default", "Hospital identifier")
	createCmd.Flags().String("name", "", "Account name")
	createCmd.Flags().String("type", "", "Account type, e.g. Asset or Income")
	createCmd.Flags().String("role", "", "Account role: receivable, cash, bank or other")
	cmd.AddCommand(createCmd)
	return cmd
}

// withLedger runs fn against a ledger service scoped to one hospital schema.
func withLedger(ctx context.Context, hospital string, fn func(ctx context.Context, svc *ledger.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := newLogger(cfg.Env, cfg.LogLevel, os.Stderr)
	svc, err := newLedgerService(cfg, pool, logger)
	if err != nil {
		return err
	}
	scoped, release, err := db.ScopeToHospital(ctx, pool, hospital)
	if err != nil {
		return err
	}
	defer release()
	return fn(scoped, svc)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
