package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// BLOB REPOSITORY - Repository over any BlobStore
// =============================================================================

// BlobRepository stores the ledger as JSON documents in a BlobStore.
type BlobRepository struct {
	store BlobStore
}

func NewBlobRepository(store BlobStore) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) LoadPlans(ctx context.Context) ([]InstallmentPlan, error) {
	return blobRepo{r.store}.LoadPlans(ctx)
}

func (r *BlobRepository) SavePlans(ctx context.Context, plans []InstallmentPlan) error {
	return blobRepo{r.store}.SavePlans(ctx, plans)
}

func (r *BlobRepository) LoadInstallmentTransactions(ctx context.Context) ([]InstallmentTransaction, error) {
	return blobRepo{r.store}.LoadInstallmentTransactions(ctx)
}

// AppendInstallmentTransaction runs in its own store transaction so the
// read-append-write of the log is atomic.
func (r *BlobRepository) AppendInstallmentTransaction(ctx context.Context, tx InstallmentTransaction) error {
	return r.WithTx(ctx, func(repo Repository) error {
		return repo.AppendInstallmentTransaction(ctx, tx)
	})
}

func (r *BlobRepository) LoadSales(ctx context.Context) ([]Transaction, error) {
	return blobRepo{r.store}.LoadSales(ctx)
}

// WithTx executes fn against a transactional view of all ledger keys.
func (r *BlobRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	return r.store.WithTx(ctx, LedgerKeys, func(b Blob) error {
		return fn(blobRepo{b})
	})
}

// blobRepo implements Repository on a plain Blob (the store or a tx view).
type blobRepo struct {
	blob Blob
}

func (r blobRepo) LoadPlans(ctx context.Context) ([]InstallmentPlan, error) {
	raw, ok, err := r.blob.Get(ctx, KeyPlans)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	if !ok {
		return []InstallmentPlan{}, nil
	}
	return NormalizePlans([]byte(raw)), nil
}

func (r blobRepo) SavePlans(ctx context.Context, plans []InstallmentPlan) error {
	data, err := MarshalPlans(plans)
	if err != nil {
		return fmt.Errorf("encode plans: %w", err)
	}
	if err := r.blob.Set(ctx, KeyPlans, string(data)); err != nil {
		return fmt.Errorf("save plans: %w", err)
	}
	return nil
}

func (r blobRepo) LoadInstallmentTransactions(ctx context.Context) ([]InstallmentTransaction, error) {
	raw, ok, err := r.blob.Get(ctx, KeyInstallmentTransactions)
	if err != nil {
		return nil, fmt.Errorf("load installment transactions: %w", err)
	}
	txs := []InstallmentTransaction{}
	if !ok || raw == "" {
		return txs, nil
	}
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLog, err)
	}
	if txs == nil {
		txs = []InstallmentTransaction{}
	}
	return txs, nil
}

func (r blobRepo) AppendInstallmentTransaction(ctx context.Context, tx InstallmentTransaction) error {
	txs, err := r.LoadInstallmentTransactions(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(append(txs, tx))
	if err != nil {
		return fmt.Errorf("encode installment transactions: %w", err)
	}
	if err := r.blob.Set(ctx, KeyInstallmentTransactions, string(data)); err != nil {
		return fmt.Errorf("append installment transaction: %w", err)
	}
	return nil
}

func (r blobRepo) LoadSales(ctx context.Context) ([]Transaction, error) {
	raw, ok, err := r.blob.Get(ctx, KeySales)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	if !ok {
		return []Transaction{}, nil
	}
	return NormalizeSales([]byte(raw)), nil
}
