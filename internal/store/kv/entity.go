package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/readtrackapp/readtrack-server/internal/store"
)

// entity provides generic CRUD over one JSON-encoded record type.
//
// Keys are laid out as:
//
//	<prefix><id>                        -> record JSON
//	<prefix>idx:<name>:<value>          -> id      (unique index)
//	<prefix>idx:<name>:<value>:<id>     -> id      (list index)
//
// Every method runs inside a caller-owned badger transaction, so a service
// operation touching several records commits once.
type entity[T any] struct {
	prefix  string
	id      func(*T) string
	indexes []index[T]
}

// index is a secondary index. Unique indexes reject a second record with the
// same value; list indexes append the id so values may repeat and a prefix
// scan returns records in value order.
type index[T any] struct {
	name   string
	unique bool
	keyGen func(*T) []string
}

func newEntity[T any](prefix string, id func(*T) string) *entity[T] {
	return &entity[T]{prefix: prefix, id: id}
}

// withUnique adds a unique index. Empty values are not indexed.
func (e *entity[T]) withUnique(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, unique: true, keyGen: keyGen})
	return e
}

// withList adds a non-unique, ordered index.
func (e *entity[T]) withList(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexPrefix(name string) string {
	return e.prefix + "idx:" + name + ":"
}

func (e *entity[T]) indexKeys(idx index[T], rec *T) [][]byte {
	values := idx.keyGen(rec)
	keys := make([][]byte, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		k := e.indexPrefix(idx.name) + v
		if !idx.unique {
			k += ":" + e.id(rec)
		}
		keys = append(keys, []byte(k))
	}
	return keys
}

// create stores a new record. Returns store.ErrAlreadyExists if the id or a
// unique index value is taken.
func (e *entity[T]) create(txn *badger.Txn, rec *T) error {
	id := e.id(rec)
	if _, err := txn.Get(e.key(id)); err == nil {
		return store.ErrAlreadyExists
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check existing key: %w", err)
	}

	if err := e.checkUnique(txn, rec, nil); err != nil {
		return err
	}
	return e.write(txn, rec)
}

// update replaces an existing record and moves its index entries.
func (e *entity[T]) update(txn *badger.Txn, rec *T) error {
	old, err := e.get(txn, e.id(rec))
	if err != nil {
		return err
	}
	if err := e.checkUnique(txn, rec, old); err != nil {
		return err
	}
	if err := e.dropIndexes(txn, old); err != nil {
		return err
	}
	return e.write(txn, rec)
}

// delete removes a record and its index entries.
func (e *entity[T]) delete(txn *badger.Txn, id string) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}
	if err := e.dropIndexes(txn, old); err != nil {
		return err
	}
	if err := txn.Delete(e.key(id)); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}

	var rec T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", strings.TrimSuffix(e.prefix, ":"), err)
	}
	return &rec, nil
}

// getByUnique resolves a unique index value to its record.
func (e *entity[T]) getByUnique(txn *badger.Txn, name, value string) (*T, error) {
	if value == "" {
		return nil, store.ErrNotFound
	}
	item, err := txn.Get([]byte(e.indexPrefix(name) + value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get index key: %w", err)
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return e.get(txn, string(id))
}

// errStopScan ends a scan early without error.
var errStopScan = errors.New("stop scan")

// scanOptions controls a list index walk.
type scanOptions struct {
	// after excludes every key up to and including this index value suffix
	// in walk order. Empty starts at the beginning.
	after   string
	reverse bool
	// limit stops the walk after this many records; 0 walks everything.
	limit int
}

// scan walks a list index under value prefix and yields records in key order.
func (e *entity[T]) scan(txn *badger.Txn, name, prefix string, opts scanOptions, fn func(*T) error) error {
	base := []byte(e.indexPrefix(name) + prefix)

	iopts := badger.DefaultIteratorOptions
	iopts.Prefix = base
	iopts.PrefetchValues = false
	iopts.Reverse = opts.reverse

	it := txn.NewIterator(iopts)
	defer it.Close()

	start := base
	if opts.reverse {
		start = append(append([]byte{}, base...), 0xFF)
	}
	var bound []byte
	if opts.after != "" {
		bound = []byte(e.indexPrefix(name) + opts.after)
		start = bound
	}

	seen := 0
	for it.Seek(start); it.ValidForPrefix(base); it.Next() {
		if bound != nil && string(it.Item().Key()) == string(bound) {
			continue
		}

		id, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err := e.get(txn, string(id))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, errStopScan) {
				return nil
			}
			return err
		}

		seen++
		if opts.limit > 0 && seen >= opts.limit {
			return nil
		}
	}
	return nil
}

func (e *entity[T]) checkUnique(txn *badger.Txn, rec, old *T) error {
	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}
		var keep map[string]bool
		if old != nil {
			keep = make(map[string]bool)
			for _, k := range e.indexKeys(idx, old) {
				keep[string(k)] = true
			}
		}
		for _, k := range e.indexKeys(idx, rec) {
			if keep[string(k)] {
				continue
			}
			_, err := txn.Get(k)
			if err == nil {
				return store.ErrAlreadyExists.WithCause(fmt.Errorf("index %s conflict", idx.name))
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) write(txn *badger.Txn, rec *T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", strings.TrimSuffix(e.prefix, ":"), err)
	}

	id := e.id(rec)
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	for _, idx := range e.indexes {
		for _, k := range e.indexKeys(idx, rec) {
			if err := txn.Set(k, []byte(id)); err != nil {
				return fmt.Errorf("set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) dropIndexes(txn *badger.Txn, old *T) error {
	for _, idx := range e.indexes {
		for _, k := range e.indexKeys(idx, old) {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete index key: %w", err)
			}
		}
	}
	return nil
}
