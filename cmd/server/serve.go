package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/api"
	"github.com/warp/pos-ledger/config"
	"github.com/warp/pos-ledger/ledger"
	memstore "github.com/warp/pos-ledger/ledger/store"
	"github.com/warp/pos-ledger/receipt"
	"github.com/warp/pos-ledger/store/postgres"
	"github.com/warp/pos-ledger/store/redis"
	"github.com/warp/pos-ledger/store/sqlite"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 8080, "HTTP server port")
	cmd.Flags().String("shop-name", "", "shop name printed on receipts")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("receipt.shop_name", cmd.Flags().Lookup("shop-name"))
	return cmd
}

func serve(ctx context.Context) error {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	service := ledger.NewService(
		ledger.NewBlobRepository(store),
		log,
		ledger.WithRenderer(receipt.NewTextRenderer(cfg.Receipt.ShopName)),
	)
	router := api.NewRouter(api.NewHandler(service, log), cfg.Server.AllowedOrigins)

	scheduler := api.NewPortfolioScheduler(service, log)
	scheduler.CheckInterval = cfg.Server.KpiRefreshInterval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// openStore connects the configured BlobStore.
func openStore(ctx context.Context, sc config.StoreConfig) (ledger.BlobStore, error) {
	switch sc.Driver {
	case config.DriverMemory:
		return memstore.NewMemory(), nil
	case config.DriverSQLite:
		return sqlite.New(sc.SQLitePath)
	case config.DriverPostgres:
		return postgres.New(ctx, sc.PostgresURL)
	case config.DriverRedis:
		return redis.New(ctx, redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			Prefix:   sc.RedisPrefix,
		})
	}
	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}
