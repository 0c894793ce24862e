// Package cache keeps decoded modules so that hosts loading the same skin script again skip decoding.
package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/makiscript/gomaki/pkg/logging"
	"github.com/makiscript/gomaki/pkg/maki/metrics"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

// DefaultSize is the cache capacity in bytes used when none is given.
// It holds encoded modules of up to MaxEntrySize(DefaultSize) = 32 KiB.
const DefaultSize = 32 << 20

// minSize is the smallest capacity freecache accepts.
const minSize = 512 * 1024

// MaxEntrySize bounds the encoded module a cache of the given size can hold, key and entry
// header included.
func MaxEntrySize(size int) int {
	return max(size, minSize) / 1024
}

// Loader decodes module bytes. *serialization.Loader satisfies it.
type Loader interface {
	Load(data []byte) (*program.Module, error)
}

// ModuleCache stores canonical modules CBOR encoded in a freecache, keyed by the xxhash
// and the length of the module bytes. Decode errors are never cached.
type ModuleCache struct {
	cache  *freecache.Cache
	size   int
	loader Loader
	logger *zap.Logger
}

// New creates a cache of size bytes, DefaultSize if size is not positive.
func New(size int, loader Loader) *ModuleCache {
	if size <= 0 {
		size = DefaultSize
	}
	return &ModuleCache{
		cache:  freecache.NewCache(size),
		size:   size,
		loader: loader,
		logger: zap.L().Named(logging.LoaderNamespace),
	}
}

func key(data []byte) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k[:8], xxhash.Sum64(data))
	binary.BigEndian.PutUint64(k[8:], uint64(len(data)))
	return k
}

// Load returns a fresh copy of the cached module for data, decoding and storing it on a miss.
func (c *ModuleCache) Load(data []byte) (*program.Module, error) {
	k := key(data)
	if m, ok := c.get(k); ok {
		metrics.CacheLookup(true)
		return m, nil
	}
	metrics.CacheLookup(false)
	m, err := c.loader.Load(data)
	if err != nil {
		return nil, err
	}
	// A module the cache cannot hold is still returned.
	if err := c.put(k, m); err != nil {
		metrics.CacheStoreFailed()
		c.logger.Debug("module not cached", zap.Error(err), zap.Int("maxEntrySize", c.maxEntrySize()))
	}
	return m, nil
}

func (c *ModuleCache) get(k []byte) (*program.Module, bool) {
	b, err := c.cache.Get(k)
	if err != nil {
		return nil, false
	}
	m, err := unmarshalModule(b)
	if err != nil {
		c.cache.Del(k)
		return nil, false
	}
	return m, true
}

func (c *ModuleCache) put(k []byte, m *program.Module) error {
	b, err := marshalModule(m)
	if err != nil {
		return err
	}
	if err := c.cache.Set(k, b, 0); err != nil {
		return errors.Wrapf(err, "failed to store module of %d bytes", len(b))
	}
	return nil
}

func (c *ModuleCache) maxEntrySize() int {
	return MaxEntrySize(c.size)
}

// Len is the number of cached modules.
func (c *ModuleCache) Len() int64 {
	return c.cache.EntryCount()
}

func (c *ModuleCache) Clear() {
	c.cache.Clear()
}
