// Package icaocache tracks recently validated ICAO addresses so the
// address-XOR-CRC downlink formats (DF0/4/5/16/20/21/24) can be
// recovered without their own address field.
package icaocache

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultTTL = 60 * time.Second

// Cache is a short-TTL membership set keyed by 24-bit ICAO address.
// Collisions overwrite: the most recent Insert for an address always
// wins, matching go-cache's Set semantics.
type Cache struct {
	c *cache.Cache
}

// New builds a Cache with the given TTL; expired entries are purged every
// 10*TTL. A TTL of zero uses the spec default of 60 seconds.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{c: cache.New(ttl, 10*ttl)}
}

// Insert records addr as seen now, extending its TTL if already present.
func (c *Cache) Insert(addr uint32) {
	c.c.SetDefault(key(addr), addr)
}

// Contains reports whether addr was inserted within the last TTL.
func (c *Cache) Contains(addr uint32) bool {
	_, found := c.c.Get(key(addr))
	return found
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}

func key(addr uint32) string {
	return strconv.FormatUint(uint64(addr), 16)
}
