package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_MigrationSetsUserVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

// sampleSource builds a source with one full record, one linked record,
// and one tombstone.
func sampleSource(t *testing.T) *store.MapRecordSource {
	t.Helper()

	src := store.NewMapRecordSource()

	mark := store.NewRecord("4", "User")
	mark.Set("name", store.Scalar{Value: value.String("Mark")})
	mark.Set("bestFriend", store.Reference{ID: "5"})
	src.Set("4", mark)

	zuck := store.NewRecord("5", "User")
	zuck.Set("name", store.Scalar{Value: value.String("Zuck")})
	src.Set("5", zuck)

	src.Delete("gone")
	return src
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenWithIDs(path, NewFixedGenerator("snap-1"))
	if err != nil {
		t.Fatalf("OpenWithIDs() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	src := sampleSource(t)

	id, err := s.Save(ctx, "baseline", src)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if id != "snap-1" {
		t.Errorf("Save() id = %q, want %q", id, "snap-1")
	}

	loaded, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !value.Equal(src.Serialize(), loaded.Serialize()) {
		t.Errorf("loaded source differs from saved source")
	}

	// Tombstone survives as a known nonexistent entry.
	rec, known := loaded.Get("gone")
	if !known {
		t.Error("tombstone was not persisted")
	}
	if rec != nil {
		t.Error("tombstone loaded as a record")
	}
}

func TestSave_IdempotentUnderFixedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenWithIDs(path, NewFixedGenerator("snap-1", "snap-1"))
	if err != nil {
		t.Fatalf("OpenWithIDs() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	src := sampleSource(t)

	first, err := s.Save(ctx, "baseline", src)
	if err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}
	second, err := s.Save(ctx, "baseline", src)
	if err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if first != second {
		t.Errorf("replayed save returned %q, want %q", second, first)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("List() returned %d snapshots, want 1", len(infos))
	}
}

func TestLoad_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	_, err = s.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestList_OrderedByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenWithIDs(path, NewFixedGenerator("a-first", "b-second"))
	if err != nil {
		t.Fatalf("OpenWithIDs() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	src := sampleSource(t)

	if _, err := s.Save(ctx, "one", src); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := s.Save(ctx, "two", src); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() returned %d snapshots, want 2", len(infos))
	}
	if infos[0].ID != "a-first" || infos[1].ID != "b-second" {
		t.Errorf("List() order = [%s, %s]", infos[0].ID, infos[1].ID)
	}
	if infos[0].Label != "one" {
		t.Errorf("List() label = %q, want %q", infos[0].Label, "one")
	}
	if infos[0].RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", infos[0].RecordCount)
	}
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	if id := g.Generate(); id != "only" {
		t.Fatalf("Generate() = %q, want %q", id, "only")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic after ids exhausted")
		}
	}()
	g.Generate()
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
