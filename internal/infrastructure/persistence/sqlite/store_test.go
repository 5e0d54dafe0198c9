package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"droidBot/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "droidbot.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStoreEmptyPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("NewStore(\"\") should fail")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droidbot.db")
	for i := 0; i < 2; i++ {
		store, err := NewStore(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		store.Close()
	}
}

func TestInsertLinkDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.InsertLink(ctx, &domain.Link{Author: "alice", Dest: "http://example.com/x"})
	if err != nil {
		t.Fatalf("InsertLink() error = %v", err)
	}
	if !created {
		t.Fatal("first insert should create a row")
	}

	created, err = store.InsertLink(ctx, &domain.Link{Author: "bob", Dest: "http://example.com/x"})
	if err != nil {
		t.Fatalf("InsertLink() duplicate error = %v", err)
	}
	if created {
		t.Error("duplicate insert should not create a row")
	}

	n, err := store.CountLinks(ctx)
	if err != nil {
		t.Fatalf("CountLinks() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountLinks() = %d, want 1", n)
	}

	links, err := store.ListLinks(ctx, 10)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if len(links) != 1 || links[0].Author != "alice" {
		t.Errorf("ListLinks() = %+v, want the original row by alice", links)
	}
}

func TestRandomLinkEmpty(t *testing.T) {
	store := newTestStore(t)
	link, err := store.RandomLink(context.Background())
	if err != nil {
		t.Fatalf("RandomLink() error = %v", err)
	}
	if link != nil {
		t.Errorf("RandomLink() = %+v, want nil", link)
	}
}

func TestRandomLinkReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.InsertLink(ctx, &domain.Link{Author: "alice", Dest: "https://example.com"}); err != nil {
		t.Fatal(err)
	}

	link, err := store.RandomLink(ctx)
	if err != nil {
		t.Fatalf("RandomLink() error = %v", err)
	}
	if link == nil || link.Dest != "https://example.com" {
		t.Fatalf("RandomLink() = %+v", link)
	}
	if link.Timestamp.IsZero() {
		t.Error("RandomLink() timestamp should be set")
	}
}

func TestSounds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"second", "first"} {
		ts := base.Add(time.Duration(1-i) * time.Minute)
		if err := store.InsertSound(ctx, &domain.Sound{Name: name, Author: "alice", Timestamp: ts}); err != nil {
			t.Fatalf("InsertSound(%s) error = %v", name, err)
		}
	}

	err := store.InsertSound(ctx, &domain.Sound{Name: "first", Author: "bob"})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("duplicate InsertSound() error = %v, want ErrDuplicate", err)
	}

	sounds, err := store.ListSounds(ctx)
	if err != nil {
		t.Fatalf("ListSounds() error = %v", err)
	}
	if len(sounds) != 2 {
		t.Fatalf("ListSounds() len = %d, want 2", len(sounds))
	}
	if sounds[0].Name != "first" || sounds[1].Name != "second" {
		t.Errorf("ListSounds() order = %s,%s, want first,second", sounds[0].Name, sounds[1].Name)
	}

	n, err := store.CountSounds(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountSounds() = %d, %v; want 2", n, err)
	}

	random, err := store.RandomSound(ctx)
	if err != nil || random == nil {
		t.Fatalf("RandomSound() = %+v, %v", random, err)
	}
}

func TestAliases(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.CreateAlias(ctx, &domain.Alias{CommandName: "foo", Action: "!ping", Author: "alice"})
	if err != nil || !created {
		t.Fatalf("CreateAlias() = %v, %v; want true", created, err)
	}

	created, err = store.CreateAlias(ctx, &domain.Alias{CommandName: "foo", Action: "!help", Author: "bob"})
	if err != nil {
		t.Fatalf("CreateAlias() duplicate error = %v", err)
	}
	if created {
		t.Error("duplicate CreateAlias() should be rejected")
	}

	found, err := store.FindAliases(ctx, "foo")
	if err != nil {
		t.Fatalf("FindAliases() error = %v", err)
	}
	if len(found) != 1 || found[0].Action != "!ping" || found[0].Author != "alice" {
		t.Errorf("FindAliases() = %+v, want original alias", found)
	}

	if _, err := store.CreateAlias(ctx, &domain.Alias{CommandName: "bar", Action: "!stats", Author: "alice"}); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListAliases(ctx)
	if err != nil {
		t.Fatalf("ListAliases() error = %v", err)
	}
	if len(list) != 2 || list[0].CommandName != "bar" || list[1].CommandName != "foo" {
		t.Errorf("ListAliases() not ordered by name: %+v", list)
	}

	n, err := store.DeleteAlias(ctx, "foo")
	if err != nil || n != 1 {
		t.Errorf("DeleteAlias(foo) = %d, %v; want 1", n, err)
	}
	n, err = store.DeleteAlias(ctx, "missing")
	if err != nil || n != 0 {
		t.Errorf("DeleteAlias(missing) = %d, %v; want 0, nil", n, err)
	}
}
