// Package cache keeps analysis summaries in an LRU with msgpack persistence,
// so repeated runs over unchanged sources skip the analysis.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one cached value with its bookkeeping.
type Entry[V any] struct {
	Key        string    `msgpack:"key"`
	Value      V         `msgpack:"value"`
	CreatedAt  time.Time `msgpack:"created_at"`
	AccessedAt time.Time `msgpack:"accessed_at"`
}

// Options configures an LRU.
type Options struct {
	// MaxSize is the maximum number of entries, 0 for unlimited.
	MaxSize int
	// OnEvict is called with the key of every evicted entry.
	OnEvict func(key string)
}

// LRU is a concurrency-safe least recently used cache.
type LRU[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element // of *Entry[V]
	order   *list.List               // most recent at front
	maxSize int
	onEvict func(string)
	now     func() time.Time
}

// New creates an empty LRU.
func New[V any](opts Options) *LRU[V] {
	return &LRU[V]{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
		now:     time.Now,
	}
}

// Get returns the value stored under key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	e := el.Value.(*Entry[V])
	e.AccessedAt = c.now()
	c.order.MoveToFront(el)
	return e.Value, true
}

// Set stores value under key, evicting the least recently used entries
// beyond MaxSize.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*Entry[V])
		e.Value, e.AccessedAt = value, now
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&Entry[V]{Key: key, Value: value, CreatedAt: now, AccessedAt: now})
	c.evict()
}

func (c *LRU[V]) evict() {
	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		el := c.order.Back()
		e := c.order.Remove(el).(*Entry[V])
		delete(c.items, e.Key)
		if c.onEvict != nil {
			c.onEvict(e.Key)
		}
	}
}

// Delete removes key.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Save writes the entries, most recent first, as msgpack.
func (c *LRU[V]) Save(w io.Writer) error {
	c.mu.Lock()
	entries := make([]*Entry[V], 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		entries = append(entries, el.Value.(*Entry[V]))
	}
	c.mu.Unlock()

	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the contents with entries written by Save. MaxSize still
// applies.
func (c *LRU[V]) Load(r io.Reader) error {
	var entries []*Entry[V]
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, len(entries))
	c.order.Init()
	for _, e := range entries {
		if _, dup := c.items[e.Key]; dup {
			continue
		}
		c.items[e.Key] = c.order.PushBack(e)
	}
	c.evict()
	return nil
}

// PersistToFile saves c to path atomically, creating parent directories.
func (c *LRU[V]) PersistToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFromFile fills c from path. A missing file leaves c empty.
func (c *LRU[V]) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// Key derives a cache key from the given parts. Parts are length-prefixed
// so that different splits of the same bytes give different keys.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
