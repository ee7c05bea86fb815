// Package cache keeps recently resolved stage configurations so repeated
// builds over an unchanged project skip hook dispatch entirely.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// DefaultSize is used when the configured cache size is zero or negative.
const DefaultSize = 64

// Key identifies one resolved configuration: the stage it was assembled for
// and a fingerprint of everything the assembly depended on.
type Key struct {
	Stage       stage.Stage
	Fingerprint string
}

// Cache is an LRU over resolved bundler configurations. Values are cloned on
// both Put and Get so cached entries can never be mutated through aliases.
type Cache struct {
	entries *lru.Cache[Key, bundler.Config]
}

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, bundler.Config](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached configuration for key, if present.
func (c *Cache) Get(key Key) (bundler.Config, bool) {
	if c == nil || c.entries == nil {
		return bundler.Config{}, false
	}
	cfg, ok := c.entries.Get(key)
	if !ok {
		return bundler.Config{}, false
	}
	return cfg.Clone(), true
}

// Put stores a resolved configuration under key.
func (c *Cache) Put(key Key, cfg bundler.Config) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Add(key, cfg.Clone())
}

// Len returns the number of cached configurations.
func (c *Cache) Len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached configuration.
func (c *Cache) Purge() {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Purge()
}
