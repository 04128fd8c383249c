// Package store provides in-process BlobStore implementations.
package store

import (
	"context"
	"maps"
	"sync"

	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]string)}
}

// NewMemoryWith returns a store preloaded with blobs, keyed as in the POS.
func NewMemoryWith(blobs map[string]string) *Memory {
	m := NewMemory()
	maps.Copy(m.blobs, blobs)
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = value
	return nil
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole of fn, so transactions serialize.
func (m *Memory) WithTx(ctx context.Context, _ []string, fn func(ledger.Blob) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := maps.Clone(m.blobs)

	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.blobs = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		m.blobs = snapshot
		return err
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// txMemoryView reads and writes the parent map directly; the parent's lock
// is already held by WithTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := tv.parent.blobs[key]
	return v, ok, nil
}

func (tv *txMemoryView) Set(_ context.Context, key, value string) error {
	tv.parent.blobs[key] = value
	return nil
}

var _ ledger.BlobStore = (*Memory)(nil)
