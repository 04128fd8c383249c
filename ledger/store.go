/*
store.go - Persistence interfaces

PURPOSE:
  The POS keeps its ledger in a string-keyed blob store: one JSON document per
  key. This file defines that store and the typed Repository on top of it, so
  the engine itself never performs I/O.

KEYS:
  installment_plans         JSON array of (possibly legacy) plan records
  installment_transactions  JSON array of InstallmentTransaction, append-only
  pos_transactions          JSON array of sales, read-only for the engine

TRANSACTIONS:
  WithTx runs fn against a view of the store. Writes made through the view
  become visible together when fn returns nil and are discarded otherwise.
  keys names every key fn will touch (needed by stores that watch keys).

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite table of blobs
  - store/postgres/postgres.go: PostgreSQL table of blobs
  - store/redis/redis.go: Redis strings with WATCH/MULTI

SEE ALSO:
  - repository.go: typed Repository over a BlobStore
  - service.go: uses TxRepository for the record-payment write
*/
package ledger

import "context"

const (
	KeyPlans                   = "installment_plans"
	KeyInstallmentTransactions = "installment_transactions"
	KeySales                   = "pos_transactions"
)

// LedgerKeys are all keys the engine reads or writes.
var LedgerKeys = []string{KeyPlans, KeyInstallmentTransactions, KeySales}

// =============================================================================
// BLOB STORE
// =============================================================================

// Blob is a string-keyed get/set view.
type Blob interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// BlobStore is a durable Blob with atomic multi-key updates.
type BlobStore interface {
	Blob

	// WithTx executes fn with a transactional view of keys.
	// If fn returns an error nothing is written.
	WithTx(ctx context.Context, keys []string, fn func(Blob) error) error

	Close() error
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the typed view of the ledger keys.
type Repository interface {
	LoadPlans(ctx context.Context) ([]InstallmentPlan, error)
	SavePlans(ctx context.Context, plans []InstallmentPlan) error

	// LoadInstallmentTransactions returns the audit log in append order.
	LoadInstallmentTransactions(ctx context.Context) ([]InstallmentTransaction, error)

	// AppendInstallmentTransaction is the only write to the audit log.
	AppendInstallmentTransaction(ctx context.Context, tx InstallmentTransaction) error

	LoadSales(ctx context.Context) ([]Transaction, error)
}

// TxRepository adds atomic read-modify-write across the ledger keys.
type TxRepository interface {
	Repository

	WithTx(ctx context.Context, fn func(Repository) error) error
}
