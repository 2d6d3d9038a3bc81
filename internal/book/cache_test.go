package book

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwingate/chesscore/internal/board"
)

func writeTestPolyglotFile(t *testing.T, path string) {
	t.Helper()

	pos := board.NewPosition()
	key := pos.PolyglotHash()
	e2e4Encoded := uint16(4 | (3 << 3) | (4 << 6) | (1 << 9))

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, key)
	binary.Write(&buf, binary.BigEndian, e2e4Encoded)
	binary.Write(&buf, binary.BigEndian, uint16(100))
	binary.Write(&buf, binary.BigEndian, uint32(0))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test book: %v", err)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "test.bin")
	writeTestPolyglotFile(t, bookPath)

	cache, err := OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCache failed: %v", err)
	}
	defer cache.Close()

	b1, err := cache.LoadPolyglot(bookPath)
	if err != nil {
		t.Fatalf("first LoadPolyglot failed: %v", err)
	}
	if b1.Size() != 1 {
		t.Fatalf("expected 1 entry, got %d", b1.Size())
	}

	// Second load should come from the cache and return the same entries.
	b2, err := cache.LoadPolyglot(bookPath)
	if err != nil {
		t.Fatalf("second LoadPolyglot failed: %v", err)
	}

	pos := board.NewPosition()
	move, found := b2.Probe(pos)
	if !found {
		t.Fatal("expected cached book to still find the move")
	}
	if move.From() != board.E2 || move.To() != board.E4 {
		t.Errorf("expected e2e4 from cached book, got %s", move.String())
	}
}

func TestDiskCacheInvalidatesOnModTime(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "test.bin")
	writeTestPolyglotFile(t, bookPath)

	cache, err := OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCache failed: %v", err)
	}
	defer cache.Close()

	if _, err := cache.LoadPolyglot(bookPath); err != nil {
		t.Fatalf("initial LoadPolyglot failed: %v", err)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(bookPath, future, future); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	if _, ok := cache.lookup([]byte("polyglot:"+bookPath), future.Unix()); ok {
		t.Error("cache entry should not validate against a different mtime")
	}
}
