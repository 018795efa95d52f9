package worldstate

import (
	"sort"
	"strings"
	"sync"
)

// MemKV is an in-memory KV used by tests and by replicas that don't need
// durability across restarts. Production deployments use CometKV (kv_adapter.go).
type MemKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemKV creates an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemKV) PrefixScan(prefix []byte) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: []byte(k), Value: m.data[k]})
	}
	return out, nil
}

func (m *MemKV) NewBatch() Batch {
	return &memBatch{kv: m}
}

type memOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	kv  *MemKV
	ops []memOp
}

func (b *memBatch) Put(key, value []byte) {
	b.ops = append(b.ops, memOp{key: key, value: value})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, memOp{key: key, delete: true})
}

func (b *memBatch) Commit() error {
	b.kv.mu.Lock()
	defer b.kv.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.kv.data, string(op.key))
			continue
		}
		v := make([]byte, len(op.value))
		copy(v, op.value)
		b.kv.data[string(op.key)] = v
	}
	return nil
}
