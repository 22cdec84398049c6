// Package kvstore implements a key-value store.
package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akrylysov/pogreb"
	"github.com/fxamacker/cbor/v2"

	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
)

// How long OpenKVStore waits for pogreb before continuing without a cache.
var initTimeout = 30 * time.Second

// A key in the KVStore.
type CacheKey []byte

// GenerateCacheKey builds a key from a namespace and its parameters. Keys
// are CBOR-encoded so distinct parameter lists never collide.
func GenerateCacheKey(namespace string, params ...interface{}) CacheKey {
	key, err := cbor.Marshal([]interface{}{namespace, params})
	if err != nil {
		// Only plain strings and integers are used as parameters.
		panic(fmt.Sprintf("kvstore: unencodable cache key %s %v: %v", namespace, params, err))
	}
	return CacheKey(key)
}

// A key-value store. Additional functions that give a typed interface
// to the store (i.e. with typed values instead of []byte) are provided below,
// taking KVStore as the first argument so they can use generics.
type KVStore interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Close() error
}

type pogrebKVStore struct {
	db *pogreb.DB

	path    string
	logger  *log.Logger
	metrics *metrics.CacheMetrics // if nil, no metrics are emitted

	// Whether the store is initialized. Synchronisation is required because
	// the store is opened in a background goroutine.
	initialized atomic.Bool
}

var _ KVStore = (*pogrebKVStore)(nil)

// Get implements KVStore.
func (s *pogrebKVStore) Get(key []byte) ([]byte, error) {
	if !s.initialized.Load() {
		return nil, fmt.Errorf("kvstore: not initialized yet")
	}
	return s.db.Get(key)
}

// Has implements KVStore.
func (s *pogrebKVStore) Has(key []byte) (bool, error) {
	if !s.initialized.Load() {
		return false, nil
	}
	return s.db.Has(key)
}

// Put implements KVStore.
func (s *pogrebKVStore) Put(key []byte, value []byte) error {
	if !s.initialized.Load() {
		s.logger.Debug("skipping write to uninitialized KVStore", "key", CacheKey(key).Pretty())
		return nil
	}
	return s.db.Put(key, value)
}

// Close implements KVStore.
func (s *pogrebKVStore) Close() error {
	if !s.initialized.Load() {
		// If pogreb is in the middle of recovery in the background, it will
		// have to start over next time.
		s.logger.Warn("skipping closing uninitialized KVStore")
		return nil
	}
	s.logger.Info("closing KVStore", "path", s.path)
	return s.db.Close()
}

// Deletes all files that match the glob pattern.
func deleteFiles(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("unable to glob for files %s to delete: %w", pattern, err)
	}
	var lastErr error
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			lastErr = fmt.Errorf("unable to delete file %s: %w", f, err)
		}
	}
	return lastErr
}

func (s *pogrebKVStore) init() error {
	// Pogreb backs up its indices into <oldname>.bac before a reindex, and
	// ".bac" becomes ".bac.bac" on the next crash. Keep only one generation.
	if err := deleteFiles(filepath.Join(s.path, "*.bac.bac")); err != nil {
		s.logger.Warn("failed to delete excessively backed-up pogreb index files", "err", err)
	}

	s.logger.Info("(re)opening KVStore", "path", s.path)
	db, err := pogreb.Open(s.path, &pogreb.Options{BackgroundSyncInterval: -1})
	if err != nil {
		s.logger.Error("failed to initialize pogreb store", "err", err)
		return err
	}

	s.db = db
	s.initialized.Store(true)
	s.logger.Info("KVStore opened", "path", s.path, "entries", db.Count())
	return nil
}

// OpenKVStore initializes a new KVStore backed by a database at `path`, or
// opens an existing one. `metrics` can be `nil`, in which case no metrics are
// emitted during operation.
func OpenKVStore(logger *log.Logger, path string, metrics *metrics.CacheMetrics) (KVStore, error) {
	store := &pogrebKVStore{
		logger:  logger,
		path:    path,
		metrics: metrics,
	}

	// Open the database in background as it is possible it will do a full
	// reindex on startup after a crash.
	initErrCh := make(chan error, 1)
	go func() {
		initErrCh <- store.init()
	}()

	select {
	case err := <-initErrCh:
		if err != nil {
			return nil, err
		}
		return store, nil
	case <-time.After(initTimeout):
		// Continue without cache while the database is reindexing. Once it's
		// done, the cache will be used. A failure during the reindex is only
		// logged, and the cache then stays empty.
		logger.Warn("KVStore initialization timed out, continuing without cache while the database is reindexing in the background")
		return store, nil
	}
}

// memoryKVStore is a KVStore that lives and dies with the process.
type memoryKVStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	metrics *metrics.CacheMetrics
}

var _ KVStore = (*memoryKVStore)(nil)

// NewMemoryKVStore returns an empty in-memory KVStore.
func NewMemoryKVStore(metrics *metrics.CacheMetrics) KVStore {
	return &memoryKVStore{entries: map[string][]byte{}, metrics: metrics}
}

// Has implements KVStore.
func (s *memoryKVStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[string(key)]
	return ok, nil
}

// Get implements KVStore.
func (s *memoryKVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Put implements KVStore.
func (s *memoryKVStore) Put(key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[string(key)] = append([]byte(nil), value...)
	return nil
}

// Close implements KVStore.
func (s *memoryKVStore) Close() error {
	return nil
}

// Pretty returns a human-readable version of the cache key. It tries to
// interpret it as CBOR, otherwise it returns the key's raw bytes as hex.
// Intended only for debugging. Not guaranteed to be a stable representation.
func (cacheKey CacheKey) Pretty() string {
	var pretty string
	var parsed interface{}
	if err := cbor.Unmarshal(cacheKey, &parsed); err == nil {
		pretty = fmt.Sprintf("%+v", parsed)
	} else {
		pretty = fmt.Sprintf("%x", []byte(cacheKey))
	}
	if len(pretty) > 100 {
		pretty = pretty[:95] + "[...]"
	}
	return pretty
}

// ErrNoSuchKey is returned by GetTyped for keys that are not in the store.
var ErrNoSuchKey = errors.New("no such key")

func cacheMetrics(cache KVStore) *metrics.CacheMetrics {
	switch c := cache.(type) {
	case *pogrebKVStore:
		return c.metrics
	case *memoryKVStore:
		return c.metrics
	default:
		return nil
	}
}

func increaseReadCounter(cache KVStore, status metrics.CacheReadStatus) {
	if m := cacheMetrics(cache); m != nil {
		m.LocalCacheReads(status).Inc()
	}
}

// GetTyped fetches the value of `key` from the cache, interpreted as a `Value`.
func GetTyped[Value any](cache KVStore, key CacheKey, value *Value) error {
	isCached, err := cache.Has(key)
	if err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusError)
		return err
	}
	if !isCached {
		increaseReadCounter(cache, metrics.CacheReadStatusMiss)
		return ErrNoSuchKey
	}
	raw, err := cache.Get(key)
	if err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusError)
		return fmt.Errorf("failed to fetch key %s from cache: %w", key.Pretty(), err)
	}
	if err = cbor.Unmarshal(raw, value); err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusBadValue)
		return fmt.Errorf("failed to unmarshal the value for key %s from cache into %T: %w; raw value was %x", key.Pretty(), value, err, raw)
	}
	increaseReadCounter(cache, metrics.CacheReadStatusHit)

	return nil
}

// PutTyped CBOR-encodes value and stores it under key.
func PutTyped[Value any](cache KVStore, key CacheKey, value *Value) error {
	raw, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal the value for key %s: %w", key.Pretty(), err)
	}
	return cache.Put(key, raw)
}

// GetFromCacheOrCall fetches the value of `key` from the cache if it exists,
// interpreted as a `Value`. If it does not exist, it calls `valueFunc` to get
// the value, and caches it before returning it.
// If `volatile` is true, `valueFunc` is always called, and the result is not cached.
func GetFromCacheOrCall[Value any](cache KVStore, volatile bool, key CacheKey, valueFunc func() (*Value, error)) (*Value, error) {
	if volatile {
		return valueFunc()
	}

	var cached Value
	switch err := GetTyped(cache, key, &cached); {
	case err == nil:
		return &cached, nil
	case errors.Is(err, ErrNoSuchKey): // Regular cache miss; continue below.
	default:
		// Log unexpected error and fall back to valueFunc.
		if loggingCache, ok := cache.(*pogrebKVStore); ok {
			loggingCache.logger.Warn("error fetching from cache", "key", key.Pretty(), "err", err)
		}
	}

	computed, err := valueFunc()
	if err != nil {
		return nil, err
	}

	return computed, PutTyped(cache, key, computed)
}
