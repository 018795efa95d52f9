// Copyright 2025 Certen Protocol
//
// CometKV wraps CometBFT's dbm.DB as the durable worldstate.KV backend
// (spec §6 persistent storage contract; §6 configuration's database_path).
//
// Grounded on pkg/kvdb/adapter.go.
package worldstate

import (
	dbm "github.com/cometbft/cometbft-db"
)

// CometKV adapts a CometBFT dbm.DB to the worldstate.KV interface.
type CometKV struct {
	db dbm.DB
}

// NewCometKV wraps db, defaulting to the goleveldb backend the teacher uses
// (dbm.NewGoLevelDB) when opened via OpenGoLevelDB.
func NewCometKV(db dbm.DB) *CometKV {
	return &CometKV{db: db}
}

// OpenGoLevelDB opens (or creates) a goleveldb-backed store at dir/name,
// matching spec §6's database_path configuration option.
func OpenGoLevelDB(name, dir string) (*CometKV, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return NewCometKV(db), nil
}

func (a *CometKV) Get(key []byte) ([]byte, error) {
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (a *CometKV) Put(key, value []byte) error {
	return a.db.SetSync(key, value)
}

func (a *CometKV) Delete(key []byte) error {
	return a.db.DeleteSync(key)
}

func (a *CometKV) PrefixScan(prefix []byte) ([]Entry, error) {
	it, err := a.db.Iterator(prefix, prefixUpperBound(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Entry
	for ; it.Valid(); it.Next() {
		k := make([]byte, len(it.Key()))
		copy(k, it.Key())
		v := make([]byte, len(it.Value()))
		copy(v, it.Value())
		out = append(out, Entry{Key: k, Value: v})
	}
	return out, it.Error()
}

func (a *CometKV) NewBatch() Batch {
	return &cometBatch{b: a.db.NewBatch()}
}

type cometBatch struct {
	b dbm.Batch
}

func (c *cometBatch) Put(key, value []byte) {
	_ = c.b.Set(key, value)
}

func (c *cometBatch) Delete(key []byte) {
	_ = c.b.Delete(key)
}

func (c *cometBatch) Commit() error {
	defer c.b.Close()
	return c.b.WriteSync()
}

// prefixUpperBound returns the smallest key greater than every key sharing
// prefix, i.e. prefix with its last byte incremented (carrying as needed).
// A nil result means "no upper bound" (prefix is all 0xFF bytes), which
// dbm.DB.Iterator treats as scanning to the end of the keyspace.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
