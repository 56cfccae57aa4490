package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/infrastructure/logger"
	"github.com/iho/pocketledger/internal/infrastructure/postgres"
)

type options struct {
	baseURL     string
	token       string
	timeout     time.Duration
	databaseURL string
	migrations  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "pocketledger",
		Short:        "PocketLedger CLI tool",
		Long:         `A command line interface for the PocketLedger API and database.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("POCKETLEDGER_URL", "http://localhost:8080"), "Base URL of the PocketLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("POCKETLEDGER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(newLedgerCmd(opts), newMigrateCmd(opts), newHashPasswordCmd())
	return rootCmd
}

func newLedgerCmd(opts *options) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	trialBalanceCmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Check that every currency nets to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tb dto.TrialBalanceResponse
			status, err := getJSON(opts, "/api/v1/ledger/trial-balance", &tb)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, total := range tb.Totals {
				fmt.Fprintf(out, "%s\t%s\n", total.Currency, total.Total)
			}
			if !tb.Balanced || status == http.StatusConflict {
				return fmt.Errorf("trial balance FAILED: ledger is unbalanced")
			}
			fmt.Fprintln(out, "Trial balance PASSED")
			return nil
		},
	}

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the computed balance of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Balances []dto.AccountBalanceResponse `json:"balances"`
			}
			if _, err := getJSON(opts, "/api/v1/ledger/balances", &resp); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tCURRENCY\tTYPE\tBALANCE")
			for _, b := range resp.Balances {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, b.Currency, b.Type, b.Balance)
			}
			return w.Flush()
		},
	}

	ledgerCmd.AddCommand(trialBalanceCmd, balancesCmd)
	return ledgerCmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	migrateCmd.PersistentFlags().StringVar(&opts.migrations, "source", envOr("MIGRATIONS_PATH", "file://migrations"), "Migration source URL")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireDatabaseURL(opts); err != nil {
				return err
			}
			return postgres.RunMigrations(cliContext(cmd), opts.databaseURL, opts.migrations)
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			if err := requireDatabaseURL(opts); err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cliContext(cmd), opts.databaseURL, opts.migrations, steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireDatabaseURL(opts); err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(opts.databaseURL, opts.migrations)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of a password, reading stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = strings.TrimRight(string(raw), "\r\n")
			}
			hash, err := domain.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.String())
			return nil
		},
	}
}

func getJSON(opts *options, path string, v any) (int, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return 0, err
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return resp.StatusCode, fmt.Errorf("request %s failed (status %d): %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("parse response: %w", err)
	}
	return resp.StatusCode, nil
}

func requireDatabaseURL(opts *options) error {
	if opts.databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return nil
}

func cliContext(cmd *cobra.Command) context.Context {
	log := logger.New(logger.Config{Format: "console", Output: cmd.ErrOrStderr()})
	return logger.WithContext(cmd.Context(), log)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
