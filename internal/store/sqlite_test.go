package store

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"rcskit/rcs"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "rcskit.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newArchive(t *testing.T, text ...string) *rcs.Archive {
	t.Helper()
	a, err := rcs.New(text, "stored file", rcs.WithAuthor("tester"))
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	return a
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "store.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected database file at %s", path)
	}
	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
}

func TestOpenBusyTimeout(t *testing.T) {
	tests := []struct {
		opts []OpenOption
		want int64
	}{
		{nil, DefaultBusyTimeout.Milliseconds()},
		{[]OpenOption{WithBusyTimeout(2 * time.Second)}, 2000},
		{[]OpenOption{WithBusyTimeout(0)}, DefaultBusyTimeout.Milliseconds()},
	}
	for i, tt := range tests {
		db, err := Open(filepath.Join(t.TempDir(), "store.db"), tt.opts...)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		var got int64
		if err := db.conn.QueryRow("PRAGMA busy_timeout").Scan(&got); err != nil {
			t.Fatalf("case %d: reading busy_timeout: %v", i, err)
		}
		if got != tt.want {
			t.Errorf("case %d: busy_timeout = %d, want %d", i, got, tt.want)
		}
		db.Close()
	}
}

func TestPutGet(t *testing.T) {
	db := openTestDB(t)
	a := newArchive(t, "one", "two")
	if _, _, err := a.AddRevision([]string{"one", "two", "three"}, "", "more"); err != nil {
		t.Fatal(err)
	}

	if err := db.Put("src/file.txt,v", "tester", a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get("src/file.txt,v")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.String() != a.String() {
		t.Error("stored archive differs from original")
	}
	text, err := got.Revision("1.1")
	if err != nil || !slices.Equal(text, []string{"one", "two"}) {
		t.Errorf("Revision(1.1) = %q, %v", text, err)
	}

	if _, err := db.Get("missing,v"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	db := openTestDB(t)
	a := newArchive(t, "x")
	if err := db.Create("a,v", "tester", a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Create("a,v", "tester", a); !errors.Is(err, ErrArchiveExists) {
		t.Errorf("expected ErrArchiveExists, got %v", err)
	}
}

func TestListAndRevisions(t *testing.T) {
	db := openTestDB(t)
	b := newArchive(t, "b")
	a := newArchive(t, "a")
	for i := 0; i < 10; i++ {
		if _, _, err := a.AddRevision([]string{"a", string(rune('a' + i))}, "", "edit"); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Put("b,v", "tester", b); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("a,v", "tester", a); err != nil {
		t.Fatal(err)
	}

	infos, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "a,v" || infos[1].Name != "b,v" {
		t.Fatalf("unexpected list: %v", infos)
	}
	if infos[0].Head != "1.11" || len(infos[0].Checksum) != 32 || infos[0].Size == 0 {
		t.Errorf("unexpected info: %+v", infos[0])
	}

	revs, err := db.Revisions("a,v")
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 11 {
		t.Fatalf("expected 11 revisions, got %d", len(revs))
	}
	if revs[0].Version != "1.1" || revs[1].Version != "1.2" || revs[10].Version != "1.11" {
		t.Errorf("revisions not in version order: %s %s %s", revs[0].Version, revs[1].Version, revs[10].Version)
	}
	if revs[0].Author != "tester" || revs[0].Log != "Initial revision" {
		t.Errorf("unexpected revision: %+v", revs[0])
	}
}

func TestDeleteAndHistory(t *testing.T) {
	db := openTestDB(t)
	a := newArchive(t, "x")
	if err := db.Put("x,v", "alice", a); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.AddRevision([]string{"y"}, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("x,v", "bob", a); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete("x,v", "carol"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete("x,v", "carol"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound, got %v", err)
	}
	if _, err := db.Revisions("x,v"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("revisions should cascade, got %v", err)
	}

	hist, err := db.History("x,v", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(hist))
	}
	if hist[0].Action != "delete" || hist[0].Actor != "carol" || hist[2].Actor != "alice" {
		t.Errorf("unexpected history order: %s/%s ... %s", hist[0].Action, hist[0].Actor, hist[2].Actor)
	}
	if hist[1].Head != "1.2" {
		t.Errorf("expected head 1.2 in second entry, got %s", hist[1].Head)
	}
	if hist[2].Parent != nil || !slices.Equal(hist[1].Parent, hist[2].ID) || !slices.Equal(hist[0].Parent, hist[1].ID) {
		t.Error("history entries not chained")
	}

	limited, err := db.History("x,v", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("History(limit 1) = %d entries, %v", len(limited), err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("x,v", "tester", newArchive(t, "x")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec(`UPDATE archives SET checksum = ? WHERE name = ?`, []byte{1, 2, 3}, "x,v"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get("x,v"); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("x,v", "tester", newArchive(t, "base")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := db.Update("x,v", "tester", func(a *rcs.Archive) error {
				_, _, err := a.Commit([]string{"base", string(rune('0' + i))}, "concurrent")
				return err
			}, rcs.WithAuthor("tester"))
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}(i)
	}
	wg.Wait()

	a, err := db.Get("x,v")
	if err != nil {
		t.Fatal(err)
	}
	if a.Head().String() != "1.6" {
		t.Errorf("expected every update to land, head is %s", a.Head())
	}

	failing := errors.New("boom")
	err = db.Update("x,v", "tester", func(a *rcs.Archive) error {
		if _, _, err := a.Commit([]string{"discarded"}, ""); err != nil {
			return err
		}
		return failing
	})
	if !errors.Is(err, failing) {
		t.Errorf("expected fn error, got %v", err)
	}
	a, _ = db.Get("x,v")
	if a.Head().String() != "1.6" {
		t.Errorf("failed update was stored: head %s", a.Head())
	}
}
