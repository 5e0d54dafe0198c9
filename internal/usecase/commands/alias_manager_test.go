package commands

import (
	"context"
	"errors"
	"testing"

	"droidBot/internal/domain"
	"droidBot/internal/fakes"
)

func TestAliasManagerResolve(t *testing.T) {
	ctx := context.Background()
	store := fakes.NewStore()
	mgr := NewAliasManager(store, nil)

	if _, err := mgr.Create(ctx, "Foo", "!ping", "alice"); err != nil {
		t.Fatal(err)
	}
	store.ExtraAliases = []*domain.Alias{
		{CommandName: "twice", Action: "!a"},
		{CommandName: "twice", Action: "!b"},
	}

	tests := []struct {
		name   string
		kind   ResolutionKind
		action string
	}{
		{"foo", Found, "!ping"},
		{" FOO ", Found, "!ping"},
		{"bar", NotFound, ""},
		{"", NotFound, ""},
		{"twice", Ambiguous, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mgr.Resolve(ctx, tt.name)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.Kind != tt.kind || res.Action != tt.action {
				t.Errorf("Resolve(%q) = %+v, want kind %v action %q", tt.name, res, tt.kind, tt.action)
			}
		})
	}
}

func TestAliasManagerCreate(t *testing.T) {
	ctx := context.Background()
	mgr := NewAliasManager(fakes.NewStore(), nil)
	mgr.SetReservedChecker(func(name string) bool { return name == "ping" })

	if _, err := mgr.Create(ctx, "PING", "!stats", "alice"); !errors.Is(err, ErrReservedName) {
		t.Errorf("Create(PING) error = %v, want ErrReservedName", err)
	}
	if _, err := mgr.Create(ctx, "", "!stats", "alice"); !errors.Is(err, ErrInvalidAlias) {
		t.Errorf("Create(\"\") error = %v, want ErrInvalidAlias", err)
	}
	if _, err := mgr.Create(ctx, "x", "   ", "alice"); !errors.Is(err, ErrInvalidAlias) {
		t.Errorf("Create with blank action error = %v, want ErrInvalidAlias", err)
	}

	created, err := mgr.Create(ctx, "x", "!stats", "alice")
	if err != nil || !created {
		t.Fatalf("Create(x) = %v, %v", created, err)
	}
	created, err = mgr.Create(ctx, "X", "!ping", "bob")
	if err != nil || created {
		t.Errorf("second Create(X) = %v, %v; want false, nil", created, err)
	}
}

func TestAliasManagerDeleteMissing(t *testing.T) {
	mgr := NewAliasManager(fakes.NewStore(), nil)
	n, err := mgr.Delete(context.Background(), "ghost")
	if err != nil || n != 0 {
		t.Errorf("Delete(ghost) = %d, %v; want 0, nil", n, err)
	}
}

func TestServiceListsBuiltinsAndAliases(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!alias foo !ping")

	list, err := NewService(h.router, h.aliases).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var builtins, aliases int
	for _, c := range list {
		switch c.Source {
		case CommandSourceBuiltin:
			builtins++
		case CommandSourceAlias:
			aliases++
			if c.Name != "foo" || c.Action != "!ping" || c.Author != "alice" {
				t.Errorf("alias dto = %+v", c)
			}
		}
	}
	if builtins != len(h.router.Commands()) || aliases != 1 {
		t.Errorf("builtins = %d aliases = %d", builtins, aliases)
	}
}
