package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/config"
	"github.com/spec-kit/case-workflow/internal/persistence"
	"github.com/spec-kit/case-workflow/internal/repository"
	"github.com/spec-kit/case-workflow/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "casectl",
	Short: "Operator tooling for the case workflow service",
	Long: `casectl mints role tokens for the HTTP API and reads the case store directly.
Tokens carry a role (INTAKE_OFFICE, COORDINATING_AUTHORITY, ARBITRATION_AUTHORITY) and,
for intake offices, the office name. Case commands need POSTGRES_DSN or --dsn.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(tokenCmd(), casesCmd(), officesCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CASECTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("dsn", "", "postgres DSN (overrides POSTGRES_DSN)")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dsn := viper.GetString("dsn"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	return cfg, nil
}

// withCaseService opens the postgres store for the duration of fn.
func withCaseService(ctx context.Context, fn func(context.Context, *service.CaseService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN or --dsn required")
	}
	logger := zap.NewNop()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	svc := service.NewCaseService(repository.NewCaseRepository(pool), repository.NewNoteRepository(pool), logger)
	return fn(ctx, svc)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
