package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// KPIS
// =============================================================================

func kpisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Print portfolio KPIs as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			service := ledger.NewService(ledger.NewBlobRepository(store), log)
			kpis, err := service.Kpis(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(kpis)
		},
	}
}

// =============================================================================
// IMPORT
// =============================================================================

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a POS export into the store",
		Long: `Reads a JSON object whose keys are ledger blob keys
(installment_plans, installment_transactions, pos_transactions) and whose
values are the JSON arrays stored under them. Keys present in the file
replace the stored blobs in one transaction; other keys are left alone.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			store, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := importBlobs(cmd.Context(), store, r)
			if err != nil {
				return err
			}
			log.Info("import complete", zap.Strings("keys", keys))
			return nil
		},
	}
}

// importBlobs writes every known key of the export to the store atomically
// and returns the keys written.
func importBlobs(ctx context.Context, store ledger.BlobStore, r io.Reader) ([]string, error) {
	var export map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("invalid export: %w", err)
	}

	known := make(map[string]bool, len(ledger.LedgerKeys))
	for _, k := range ledger.LedgerKeys {
		known[k] = true
	}

	keys := make([]string, 0, len(export))
	for k, v := range export {
		if !known[k] {
			return nil, fmt.Errorf("unknown key %q in export", k)
		}
		if !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
			return nil, fmt.Errorf("value of %q must be a JSON array", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	err := store.WithTx(ctx, keys, func(b ledger.Blob) error {
		for _, k := range keys {
			if err := b.Set(ctx, k, string(export[k])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
