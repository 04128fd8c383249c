/*
Package redis provides a Redis-backed ledger.BlobStore.

PURPOSE:
  Lets several POS terminals share one ledger. Each blob is a plain Redis
  string under "<prefix><key>".

TRANSACTIONS:
  WithTx uses optimistic locking: WATCH the keys, run fn against a view
  that buffers writes, then flush the writes in MULTI/EXEC. If another
  client changed a watched key EXEC fails and fn is run again, up to
  MaxRetries times, after which ledger.ErrConcurrentModification is
  returned. fn must therefore be safe to re-run.

SEE ALSO:
  - ledger/store.go: BlobStore interface
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/warp/pos-ledger/ledger"
)

const DefaultMaxRetries = 5

type Options struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces the ledger keys, e.g. "pos:".
	Prefix string

	MaxRetries int
}

type Store struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewWithClient(client, opts.Prefix, opts.MaxRetries), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Store{client: client, prefix: prefix, maxRetries: maxRetries}
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return get(ctx, s.client, s.key(key))
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, key string) (string, bool, error) {
	val, err := c.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) WithTx(ctx context.Context, keys []string, fn func(ledger.Blob) error) error {
	watched := make([]string, len(keys))
	for i, k := range keys {
		watched[i] = s.key(k)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			view := &txView{store: s, tx: rtx, writes: make(map[string]string)}
			if err := fn(view); err != nil {
				return err
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for k, v := range view.writes {
					pipe.Set(ctx, s.key(k), v, 0)
				}
				return nil
			})
			return err
		}, watched...)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: redis transaction retried %d times", ledger.ErrConcurrentModification, s.maxRetries)
}

// txView reads through the watched connection and buffers writes until EXEC.
type txView struct {
	store  *Store
	tx     *redis.Tx
	writes map[string]string
}

func (v *txView) Get(ctx context.Context, key string) (string, bool, error) {
	if val, ok := v.writes[key]; ok {
		return val, true, nil
	}
	return get(ctx, v.tx, v.store.key(key))
}

func (v *txView) Set(_ context.Context, key, value string) error {
	v.writes[key] = value
	return nil
}

var _ ledger.BlobStore = (*Store)(nil)
