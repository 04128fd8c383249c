/*
main.go - Application entry point

PURPOSE:
  CLI for the POS installment ledger. `serve` runs the HTTP API; the other
  commands operate on the configured store directly.

COMMANDS:
  serve     Start the HTTP server (graceful shutdown on SIGINT/SIGTERM)
  kpis      Print portfolio KPIs as JSON
  import    Load a JSON export of the POS blobs into the store
  version   Print version

GLOBAL FLAGS:
  --config     config file (default: ./config.yaml or ~/.config/pos-ledger/config.yaml)
  --log-level  debug, info, warn, error
  --store      memory, sqlite, postgres, redis

ENVIRONMENT:
  Every setting can be given as LEDGER_<SECTION>_<KEY>, for example
  LEDGER_STORE_DRIVER=postgres LEDGER_STORE_POSTGRES_URL=postgres://...

EXAMPLES:
  # Run against a file database
  ./server serve --store sqlite

  # Seed a dev database from a POS export, then look at the numbers
  ./server import export.json && ./server kpis

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/config"
	"github.com/warp/pos-ledger/logger"
)

const serviceName = "pos-ledger"

var (
	cfgFile string
	version = "dev"

	cfg *config.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:               "server",
		Short:             "POS installment ledger",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", config.DriverSQLite, "store driver (memory, sqlite, postgres, redis)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(kpisCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	l, err := logger.New(serviceName, cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	log = l
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serviceName, version)
		},
	}
}
