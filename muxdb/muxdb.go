// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb implements the storage layer of the engine.
// It multiplexes a single leveldb instance into the trie node space and
// general purpose named kv-stores.
package muxdb

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/meridianchain/meridian/kv"
	"github.com/meridianchain/meridian/log"
)

var logger = log.WithContext("pkg", "muxdb")

const (
	trieNodeSpace   = byte(0) // the key space for trie nodes.
	namedStoreSpace = byte(1) // the key space for named store.
)

const (
	propStoreName = "muxdb.props"
	configKey     = "config"

	currentFormat = uint32(1)
)

// Options optional parameters for MuxDB.
type Options struct {
	// NodeCacheSizeMB is the size of the cache for trie node blobs.
	NodeCacheSizeMB int
	// CompressNodes enables snappy compression of stored node blobs.
	// It only takes effect when the database is created.
	CompressNodes bool

	// OpenFilesCacheCapacity is the capacity of open files caching for underlying database.
	OpenFilesCacheCapacity int
	// ReadCacheMB is the size of read cache for underlying database.
	ReadCacheMB int
	// WriteBufferMB is the size of write buffer for underlying database.
	WriteBufferMB int
}

// MuxDB is the database to efficiently store state trie and chain data.
type MuxDB struct {
	engine *levelEngine
	nodes  *NodeStore
}

// Open opens or creates DB at the given path.
func Open(path string, options *Options) (*MuxDB, error) {
	ldbOpts := opt.Options{
		OpenFilesCacheCapacity: options.OpenFilesCacheCapacity,
		BlockCacheCapacity:     options.ReadCacheMB * opt.MiB,
		WriteBuffer:            options.WriteBufferMB * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
		BlockSize:              1024 * 32, // balance performance of point reads and compression ratio.
		CompactionTableSize:    4 * opt.MiB,
	}

	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		logger.Warn("database corrupted, recovering", "path", path)
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, err
	}

	engine := newLevelEngine(ldb)

	// persists critical options to avoid corruption when tweaked.
	cfg := config{
		Format:        currentFormat,
		CompressNodes: options.CompressNodes,
	}
	if err := cfg.LoadOrSave(kv.Bucket(string(namedStoreSpace) + propStoreName).NewStore(engine)); err != nil {
		ldb.Close()
		return nil, err
	}

	var nc *nodeCache
	if options.NodeCacheSizeMB > 0 {
		nc = newNodeCache(options.NodeCacheSizeMB)
	}
	return &MuxDB{
		engine: engine,
		nodes:  newNodeStore(engine, nc, cfg.CompressNodes),
	}, nil
}

// NewMem creates a memory-backed DB.
func NewMem() *MuxDB {
	storage := storage.NewMemStorage()
	ldb, _ := leveldb.Open(storage, nil)

	engine := newLevelEngine(ldb)
	return &MuxDB{
		engine: engine,
		nodes:  newNodeStore(engine, nil, true),
	}
}

// Close closes the DB.
func (db *MuxDB) Close() error {
	return db.engine.Close()
}

// Nodes returns the trie node store.
func (db *MuxDB) Nodes() *NodeStore {
	return db.nodes
}

// NewStore creates named kv-store.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(string(namedStoreSpace) + name).NewStore(db.engine)
}

// Flush makes all previous writes durable.
func (db *MuxDB) Flush() error {
	return db.engine.Sync()
}

// IsNotFound returns whether the error is caused by a missing key.
func (db *MuxDB) IsNotFound(err error) bool {
	return db.engine.IsNotFound(errors.Cause(err))
}

type config struct {
	Format        uint32
	CompressNodes bool
}

// LoadOrSave loads the stored config, or saves the current one when absent.
// The stored config always wins.
func (c *config) LoadOrSave(store kv.Store) error {
	data, err := store.Get([]byte(configKey))
	if err != nil {
		if !store.IsNotFound(err) {
			return errors.Wrap(err, "get config")
		}
		if data, err = json.Marshal(c); err != nil {
			return err
		}
		return errors.Wrap(store.Put([]byte(configKey), data), "save config")
	}

	var stored config
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrap(err, "decode config")
	}
	if stored.Format != currentFormat {
		return errors.Errorf("unsupported database format %d", stored.Format)
	}
	if stored != *c {
		logger.Debug("database options overridden by stored config", "compress", stored.CompressNodes)
	}
	*c = stored
	return nil
}
