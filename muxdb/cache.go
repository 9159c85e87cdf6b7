// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/qianbin/directcache"

	"github.com/meridianchain/meridian/cache"
)

// nodeCache caches trie node blobs by their hash.
// Nodes are immutable once committed, so entries never go stale.
type nodeCache struct {
	queried   *directcache.Cache // recently queried node blobs
	committed *directcache.Cache // newly committed node blobs

	stats       cache.Stats
	lastLogTime atomic.Int64
}

func newNodeCache(sizeMB int) *nodeCache {
	sizeBytes := sizeMB * 1024 * 1024
	c := &nodeCache{
		queried:   directcache.New(sizeBytes / 4),
		committed: directcache.New(sizeBytes - sizeBytes/4),
	}
	c.lastLogTime.Store(time.Now().UnixNano())
	return c
}

// Add adds node blob into the cache.
func (c *nodeCache) Add(hash, blob []byte, isCommitting bool) {
	if isCommitting {
		c.committed.Set(hash, blob)
	} else {
		c.queried.Set(hash, blob)
	}
}

// Get returns the cached node blob, or nil.
func (c *nodeCache) Get(hash []byte) []byte {
	var blob []byte
	if c.committed.AdvGet(hash, func(val []byte) {
		blob = slices.Clone(val)
	}, false) && len(blob) > 0 {
		c.hit()
		return blob
	}
	if c.queried.AdvGet(hash, func(val []byte) {
		blob = slices.Clone(val)
	}, false) && len(blob) > 0 {
		c.hit()
		return blob
	}
	c.stats.Miss()
	return nil
}

func (c *nodeCache) hit() {
	if c.stats.Hit()%2000 == 0 {
		c.log()
	}
}

func (c *nodeCache) log() {
	now := time.Now().UnixNano()
	last := c.lastLogTime.Swap(now)

	if now-last > int64(time.Second*20) {
		changed, hit, miss := c.stats.Stats()
		if changed {
			logStats("node cache stats", hit, miss)
		}
		metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
		metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
	} else {
		c.lastLogTime.CompareAndSwap(now, last)
	}
}

func logStats(msg string, hit, miss int64) {
	lookups := hit + miss
	var str string
	if lookups > 0 {
		str = cache.HitRate(hit, lookups)
	} else {
		str = "n/a"
	}
	logger.Info(msg,
		"lookups", lookups,
		"hitrate", str,
	)
}
