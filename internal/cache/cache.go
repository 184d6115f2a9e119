// Package cache is the normalized translation cache. Entries live in memory and
// are mirrored, debounced, into a single blob in a durable BlobStore.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	// BlobName is the fixed name the cache is persisted under.
	BlobName = "agrolingo_translation_cache"

	DefaultTTL      = 24 * time.Hour
	DefaultDebounce = time.Second

	persistTimeout = 10 * time.Second
)

// Options tunes a Cache. Zero values select the defaults.
type Options struct {
	TTL      time.Duration
	Debounce time.Duration
	BlobName string
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Cache maps (source, target, normalized text) to a translation.
type Cache struct {
	items *gocache.Cache
	store BlobStore
	opts  Options

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	persistMu sync.Mutex
}

// blob is the persisted form: every pair plus the time it was written.
type blob struct {
	Data      [][2]string `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// New builds an empty cache over store. Call Load to restore persisted entries.
// A nil store keeps the cache memory-only.
func New(store BlobStore, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if strings.TrimSpace(opts.BlobName) == "" {
		opts.BlobName = BlobName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		items: gocache.New(opts.TTL, opts.TTL/4),
		store: store,
		opts:  opts,
	}
}

// NormalizeText lowercases, trims and collapses internal whitespace.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Key is the cache (and in-flight) key for a translation of text from src to tgt.
func Key(src, tgt, text string) string {
	return src + "-" + tgt + "-" + NormalizeText(text)
}

// Get returns the cached translation, if any.
func (c *Cache) Get(src, tgt, text string) (string, bool) {
	value, ok := c.items.Get(Key(src, tgt, text))
	if !ok {
		return "", false
	}
	translated, ok := value.(string)
	return translated, ok
}

// Set stores a translation and schedules a durable write.
func (c *Cache) Set(src, tgt, text, value string) {
	c.items.SetDefault(Key(src, tgt, text), value)
	c.schedulePersist()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Load restores the persisted blob. An absent blob leaves the cache empty; a
// blob written TTL or more ago is discarded as a whole.
func (c *Cache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	raw, err := c.store.Load(ctx, c.opts.BlobName)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil
		}
		return fmt.Errorf("load cache blob: %w", err)
	}

	var stored blob
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.opts.Logger.Warn().Err(err).Msg("discarding unreadable cache blob")
		return c.deleteBlob(ctx)
	}

	age := c.opts.Now().Sub(time.UnixMilli(stored.Timestamp))
	if age < 0 {
		// Written by a clock ahead of ours; restore with the full TTL, never more.
		age = 0
	}
	if age >= c.opts.TTL {
		c.opts.Logger.Info().Dur("age", age).Int("entries", len(stored.Data)).Msg("discarding expired cache blob")
		return c.deleteBlob(ctx)
	}

	remaining := c.opts.TTL - age
	for _, pair := range stored.Data {
		if pair[0] == "" {
			continue
		}
		c.items.Set(pair[0], pair[1], remaining)
	}
	c.opts.Logger.Debug().Int("entries", len(stored.Data)).Dur("age", age).Msg("translation cache restored")
	return nil
}

// Clear drops every entry, cancels a pending write and deletes the blob.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	// Held so a persist already in Save lands before the delete.
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.items.Flush()
	return c.deleteBlob(ctx)
}

// Flush writes the current entries immediately.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	return c.persist(ctx)
}

// Close flushes pending writes; later Sets stay in memory only.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	return c.persist(ctx)
}

func (c *Cache) schedulePersist() {
	if c.store == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.opts.Debounce, c.persistFromTimer)
		return
	}
	c.timer.Reset(c.opts.Debounce)
}

func (c *Cache) persistFromTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.persist(ctx); err != nil {
		c.opts.Logger.Error().Err(err).Msg("persist translation cache failed")
	}
}

func (c *Cache) persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	items := c.items.Items()
	stored := blob{
		Data:      make([][2]string, 0, len(items)),
		Timestamp: c.opts.Now().UnixMilli(),
	}
	for key, item := range items {
		value, ok := item.Object.(string)
		if !ok {
			continue
		}
		stored.Data = append(stored.Data, [2]string{key, value})
	}
	sort.Slice(stored.Data, func(i, j int) bool {
		return stored.Data[i][0] < stored.Data[j][0]
	})

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal cache blob: %w", err)
	}
	if err := c.store.Save(ctx, c.opts.BlobName, raw); err != nil {
		return fmt.Errorf("save cache blob: %w", err)
	}
	return nil
}

func (c *Cache) deleteBlob(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, c.opts.BlobName); err != nil && !errors.Is(err, ErrBlobNotFound) {
		return fmt.Errorf("delete cache blob: %w", err)
	}
	return nil
}
