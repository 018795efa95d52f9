package worldstate

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the single-writer, multi-reader world state (spec §5).
// Writes take an exclusive lock for the duration of a transaction's commit;
// plain reads (outside a WriteTx) take the shared read lock.
type Store struct {
	kv KV
	mu sync.RWMutex
}

// NewStore wraps a KV backend as a world state.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Begin starts a write transaction, acquiring the exclusive world-state
// lock for its duration (spec §4.1 commit path: "atomically, under the
// world-state write lock"). Callers must always terminate it with exactly
// one of Commit or Discard.
func (s *Store) Begin() *WriteTx {
	s.mu.Lock()
	return &WriteTx{
		store:   s,
		batch:   s.kv.NewBatch(),
		written: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// get is a plain read taking the shared lock, used by read-only callers
// outside of a write transaction.
func (s *Store) get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv.Get(key)
}

// GetAccount reads an account without a write transaction.
func (s *Store) GetAccount(id string) (*Account, error) {
	b, err := s.get(accountKey(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var a Account
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("worldstate: decode account %s: %w", id, err)
	}
	return &a, nil
}

// WriteTx is a staged, all-or-nothing mutation of the world state
// (spec §4.1, §4.3: "any failure aborts the whole transaction's commands
// and leaves state untouched"). Reads made through a WriteTx see its own
// uncommitted writes (read-your-writes) but nothing is visible to other
// readers until Commit.
type WriteTx struct {
	store   *Store
	batch   Batch
	written map[string][]byte
	deleted map[string]bool
}

// Commit flushes the staged batch atomically and releases the write lock.
func (tx *WriteTx) Commit() error {
	defer tx.store.mu.Unlock()
	if err := tx.batch.Commit(); err != nil {
		return fmt.Errorf("worldstate: commit batch: %w", err)
	}
	return nil
}

// Discard abandons all staged writes, releasing the write lock without
// touching the underlying store (spec §8: "world state is bit-identical
// before and after" a failed transaction).
func (tx *WriteTx) Discard() {
	tx.store.mu.Unlock()
}

func (tx *WriteTx) rawGet(key []byte) ([]byte, error) {
	k := string(key)
	if tx.deleted[k] {
		return nil, nil
	}
	if v, ok := tx.written[k]; ok {
		return v, nil
	}
	return tx.store.kv.Get(key)
}

func (tx *WriteTx) rawPut(key, value []byte) {
	k := string(key)
	tx.written[k] = value
	delete(tx.deleted, k)
	tx.batch.Put(key, value)
}

func (tx *WriteTx) rawDelete(key []byte) {
	k := string(key)
	tx.deleted[k] = true
	delete(tx.written, k)
	tx.batch.Delete(key)
}

func (tx *WriteTx) rawHas(key []byte) (bool, error) {
	v, err := tx.rawGet(key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (tx *WriteTx) rawPrefixScan(prefix []byte) ([][]byte, error) {
	keys, values, err := tx.rawPrefixScanEntries(prefix)
	_ = keys
	return values, err
}

// rawPrefixScanKeys is rawPrefixScan's sibling for callers that need the
// matching keys themselves (e.g. to recover an ID encoded in the key).
func (tx *WriteTx) rawPrefixScanKeys(prefix []byte) ([]string, error) {
	keys, _, err := tx.rawPrefixScanEntries(prefix)
	return keys, err
}

func (tx *WriteTx) rawPrefixScanEntries(prefix []byte) ([]string, [][]byte, error) {
	base, err := tx.store.kv.PrefixScan(prefix)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool)
	var keys []string
	var values [][]byte
	for _, entry := range base {
		k := string(entry.Key)
		if tx.deleted[k] {
			continue
		}
		if v, ok := tx.written[k]; ok {
			values = append(values, v)
		} else {
			values = append(values, entry.Value)
		}
		keys = append(keys, k)
		seen[k] = true
	}
	hasPrefix := func(k string) bool {
		return len(k) >= len(prefix) && k[:len(prefix)] == string(prefix)
	}
	for k, v := range tx.written {
		if !seen[k] && hasPrefix(k) {
			keys = append(keys, k)
			values = append(values, v)
		}
	}
	return keys, values, nil
}
