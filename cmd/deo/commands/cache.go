package commands

import (
	"fmt"

	"github.com/l3aro/go-deodorant/internal/config"
	"github.com/l3aro/go-deodorant/pkg/analysis"
	"github.com/l3aro/go-deodorant/pkg/cache"
)

// summaryCache keeps complete dependence graph summaries between runs. A
// nil *summaryCache is valid and caches nothing.
type summaryCache struct {
	lru   *cache.LRU[[]*analysis.Summary]
	path  string
	dirty bool
}

func openCache(enabled bool) *summaryCache {
	cfg := settings.cfg
	path := cfg.CacheFile
	if path == "" && enabled {
		path = config.DefaultCacheFilePath()
	}
	if path == "" || cfg.CacheSize == 0 {
		return nil
	}

	c := &summaryCache{
		lru:  cache.New[[]*analysis.Summary](cache.Options{MaxSize: cfg.CacheSize}),
		path: path,
	}
	if err := c.lru.LoadFromFile(path); err != nil {
		settings.logger.Warn("ignoring unreadable cache", "file", path, "error", err)
		c.lru.Clear()
	}
	return c
}

func (c *summaryCache) get(key string) ([]*analysis.Summary, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		settings.logger.Debug("cache hit", "key", key[:12])
	}
	return v, ok
}

// put stores summaries unless one of them is partial.
func (c *summaryCache) put(key string, summaries []*analysis.Summary) {
	if c == nil {
		return
	}
	for _, s := range summaries {
		if s.Incomplete {
			return
		}
	}
	c.lru.Set(key, summaries)
	c.dirty = true
}

func (c *summaryCache) flush() {
	if c == nil || !c.dirty {
		return
	}
	if err := c.lru.PersistToFile(c.path); err != nil {
		settings.logger.Warn("could not write cache", "file", c.path, "error", err)
	}
}

// summaryKey covers the target, the settings that change results and the
// content of every indexed file, since any of them may affect resolution.
func summaryKey(s *session, target string) string {
	cfg := settings.cfg
	parts := [][]byte{
		[]byte(target),
		[]byte(fmt.Sprintf("external=%t max=%d", cfg.ExternalCalls, cfg.MaxStatements)),
	}
	for _, src := range s.ws.Sources() {
		parts = append(parts, []byte(src.Path), src.Content)
	}
	return cache.Key(parts...)
}
