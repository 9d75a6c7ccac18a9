// Package store implements C1, the durable single-writer/many-reader
// key-value database of spec.md §4.1. Persistence is a JSON file guarded by
// an external advisory lock (github.com/gofrs/flock); every mutation is a
// full load-mutate-rename cycle, matching the "rename-based atomic replace"
// design note of spec.md §9.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ivxv.ee/collector-admin/core/ivxverr"
)

const (
	maxRetries   = 30
	retryBackoff = 100 * time.Millisecond
)

// T is a handle on the management database file.
type T struct {
	path string
	lock *flock.Flock
	log  *zerolog.Logger
}

// Open returns a handle for the database at path, without touching it.
// The caller is expected to have called Reset once at install time.
func Open(path string, log *zerolog.Logger) *T {
	return &T{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  log,
	}
}

func (t *T) load() (map[string]string, error) {
	b, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read database file")
	}
	if len(b) == 0 {
		return map[string]string{}, nil
	}
	m := map[string]string{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, ivxverr.WrapInternalInvariant(err, "malformed database file")
	}
	return m, nil
}

func (t *T) save(m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal database")
	}
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "mkdir database dir")
	}
	tmp, err := os.CreateTemp(dir, ".ivxv-management.db.*")
	if err != nil {
		return errors.Wrap(err, "create temp database file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp database file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp database file")
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temp database file")
	}
	return nil
}

// withWrite acquires the exclusive lock, retrying up to maxRetries times
// with retryBackoff between attempts, and always releases it.
func (t *T) withWrite(fn func(m map[string]string) (map[string]string, error)) error {
	ok, err := tryLock(t.lock.TryLock, maxRetries)
	if err != nil {
		return err
	}
	if !ok {
		return ivxverr.NewLockBusy(t.path, maxRetries)
	}
	defer t.lock.Unlock()

	m, err := t.load()
	if err != nil {
		return err
	}
	m2, err := fn(m)
	if err != nil {
		return err
	}
	if m2 == nil {
		return nil
	}
	return t.save(m2)
}

// withRead acquires the shared lock with the same retry discipline.
func (t *T) withRead(fn func(m map[string]string) error) error {
	ok, err := tryLock(t.lock.TryRLock, maxRetries)
	if err != nil {
		return err
	}
	if !ok {
		return ivxverr.NewLockBusy(t.path, maxRetries)
	}
	defer t.lock.Unlock()

	m, err := t.load()
	if err != nil {
		return err
	}
	return fn(m)
}

func tryLock(tryFn func() (bool, error), retries int) (bool, error) {
	for i := 0; i < retries; i++ {
		ok, err := tryFn()
		if err != nil {
			return false, errors.Wrap(err, "acquire lock")
		}
		if ok {
			return true, nil
		}
		time.Sleep(retryBackoff)
	}
	return false, nil
}

// Get returns a key's value and whether it exists.
func (t *T) Get(key string) (string, bool, error) {
	var val string
	var ok bool
	err := t.withRead(func(m map[string]string) error {
		val, ok = m[key]
		return nil
	})
	return val, ok, err
}

// SetOption customizes a Set call.
type SetOption func(*setOpts)

type setOpts struct {
	safe bool
}

// WithSafe requests the "safe" semantics of spec.md §4.1: the write is
// skipped if the key was concurrently removed by another writer (e.g. an
// in-flight Reset) since the caller last observed it.
func WithSafe() SetOption {
	return func(o *setOpts) { o.safe = true }
}

// Set validates and writes a single key, matching db.py's set_value.
func (t *T) Set(key, value string, opts ...SetOption) error {
	o := &setOpts{}
	for _, f := range opts {
		f(o)
	}
	if err := validateSet(key, value); err != nil {
		return err
	}
	return t.withWrite(func(m map[string]string) (map[string]string, error) {
		if o.safe {
			if _, existed := m[key]; !existed {
				t.log.Debug().Str("key", key).Msg("safe set skipped: key concurrently removed")
				return nil, nil
			}
		}
		m[key] = value
		return m, nil
	})
}

// SetMany validates and writes several keys atomically: all commit or none
// do (spec.md §3 invariant 7).
func (t *T) SetMany(kv map[string]string) error {
	for k, v := range kv {
		if err := validateSet(k, v); err != nil {
			return err
		}
	}
	return t.withWrite(func(m map[string]string) (map[string]string, error) {
		for k, v := range kv {
			m[k] = v
		}
		return m, nil
	})
}

// Delete removes a key. Missing keys are not an error.
func (t *T) Delete(key string) error {
	return t.withWrite(func(m map[string]string) (map[string]string, error) {
		delete(m, key)
		return m, nil
	})
}

// DeletePrefix removes every key under a section/name prefix, used when
// REMOVED-marking or fully dropping a service record.
func (t *T) DeletePrefix(prefix string) error {
	return t.withWrite(func(m map[string]string) (map[string]string, error) {
		for k := range m {
			if strings.HasPrefix(k, prefix) {
				delete(m, k)
			}
		}
		return m, nil
	})
}

// Keys returns every key in sorted order.
func (t *T) Keys() ([]string, error) {
	var keys []string
	err := t.withRead(func(m map[string]string) error {
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil
	})
	return keys, err
}

// All returns a snapshot of every key under prefix (or the whole database if
// prefix is empty).
func (t *T) All(prefix string) (map[string]string, error) {
	out := map[string]string{}
	err := t.withRead(func(m map[string]string) error {
		for k, v := range m {
			if prefix == "" || strings.HasPrefix(k, prefix) {
				out[k] = v
			}
		}
		return nil
	})
	return out, err
}

// Reset empties the store and writes the default row set atomically
// (spec.md §4.1, §3 "Lifecycle").
func (t *T) Reset() error {
	return t.withWrite(func(map[string]string) (map[string]string, error) {
		fresh := map[string]string{}
		for k, v := range DefaultKeys {
			fresh[k] = v
		}
		return fresh, nil
	})
}
