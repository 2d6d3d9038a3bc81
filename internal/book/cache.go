package book

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// cachedEntries is the gob-encoded payload stored per book file, keyed by
// path and mtime so a changed file on disk invalidates the cache entry
// rather than serving stale moves.
type cachedEntries struct {
	ModTime int64
	Entries map[uint64][]BookEntry
}

// DiskCache wraps a Badger store holding pre-parsed Polyglot opening books,
// so repeated engine startups against the same large book file skip
// re-parsing its binary entries.
type DiskCache struct {
	db *badger.DB
}

// OpenDiskCache opens (creating if necessary) a Badger store at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DiskCache{db: db}, nil
}

// Close closes the underlying store.
func (c *DiskCache) Close() error {
	return c.db.Close()
}

// LoadPolyglot returns the book at path, served from the disk cache when an
// up-to-date entry exists, parsing and populating the cache otherwise.
func (c *DiskCache) LoadPolyglot(path string) (*Book, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := []byte("polyglot:" + path)

	if cached, ok := c.lookup(key, info.ModTime().Unix()); ok {
		return &Book{entries: cached.Entries}, nil
	}

	b, err := LoadPolyglot(path)
	if err != nil {
		return nil, err
	}

	if err := c.store(key, cachedEntries{ModTime: info.ModTime().Unix(), Entries: b.entries}); err != nil {
		return b, fmt.Errorf("book loaded but cache write failed: %w", err)
	}
	return b, nil
}

func (c *DiskCache) lookup(key []byte, modTime int64) (cachedEntries, bool) {
	var result cachedEntries
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&result)
		})
	})
	if err != nil || result.ModTime != modTime {
		return cachedEntries{}, false
	}
	return result, true
}

func (c *DiskCache) store(key []byte, entry cachedEntries) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}
