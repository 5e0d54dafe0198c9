package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"droidBot/internal/domain"
)

func TestPing(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!ping")
	if h.lastText() != "Pong!" {
		t.Errorf("reply = %q", h.lastText())
	}
	h.run(t, "!ping extra")
	if h.lastText() != "usage: !ping" {
		t.Errorf("reply = %q, want usage", h.lastText())
	}
}

func TestHelpListsRegisteredCommands(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!help")
	got := h.lastText()
	for _, want := range []string{"!ping", "!alias <name> <action...>", "!get <url> <start> <length>", "!play [name]", "!say <text...>"} {
		if !strings.Contains(got, want) {
			t.Errorf("help missing %q:\n%s", want, got)
		}
	}
}

func TestAliasCommand(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		line  string
		reply string
	}{
		{"create", "!alias foo !ping", "alias `foo` saved"},
		{"prefix on name is dropped", "!alias !bar !stats", "alias `bar` saved"},
		{"builtin", "!alias ping !stats", "`ping` is a built-in command"},
		{"missing action", "!alias foo", "usage: !alias <name> <action...>"},
		{"no args", "!alias", "usage: !alias <name> <action...>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.run(t, tt.line)
			if h.lastText() != tt.reply {
				t.Errorf("reply = %q, want %q", h.lastText(), tt.reply)
			}
		})
	}

	t.Run("duplicate keeps original", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, "!alias foo !ping")
		h.run(t, "!alias foo !stats")
		if h.lastText() != "alias `foo` already exists" {
			t.Errorf("reply = %q", h.lastText())
		}
		res, err := h.aliases.Resolve(ctx, "foo")
		if err != nil || res.Action != "!ping" {
			t.Errorf("Resolve(foo) = %+v, %v; want original action", res, err)
		}
	})

	t.Run("multi word action", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, "!alias greet hello   there friend")
		res, _ := h.aliases.Resolve(ctx, "greet")
		if res.Action != "hello there friend" {
			t.Errorf("action = %q", res.Action)
		}
	})
}

func TestDelAlias(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!alias foo !ping")

	h.run(t, "!delalias foo")
	if h.lastText() != "alias `foo` deleted" {
		t.Errorf("reply = %q", h.lastText())
	}
	h.run(t, "!delalias foo")
	if h.lastText() != "no alias `foo`" {
		t.Errorf("reply = %q", h.lastText())
	}
	h.run(t, "!delalias")
	if !strings.HasPrefix(h.lastText(), "usage:") {
		t.Errorf("reply = %q, want usage", h.lastText())
	}
}

func TestAliasesTable(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!aliases")
	if h.lastText() != "no aliases yet" {
		t.Errorf("reply = %q", h.lastText())
	}

	h.run(t, "!alias zed !ping")
	h.run(t, "!alias abc !stats")
	h.run(t, "!aliases")

	lines := strings.Split(h.lastText(), "\n")
	if len(lines) != 3 {
		t.Fatalf("table = %q", h.lastText())
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.HasPrefix(lines[1], "abc") || !strings.HasPrefix(lines[2], "zed") {
		t.Errorf("table not ordered by name:\n%s", h.lastText())
	}
}

func TestStatsMatchesRowCounts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.InsertLink(ctx, &domain.Link{Author: "a", Dest: "http://one"})
	h.store.InsertLink(ctx, &domain.Link{Author: "a", Dest: "http://two"})
	h.store.InsertSound(ctx, &domain.Sound{Name: "s1", Author: "a"})

	h.run(t, "!stats")
	if h.lastText() != "links: 2, sounds: 1" {
		t.Errorf("reply = %q", h.lastText())
	}
}

func TestLink(t *testing.T) {
	h := newHarness(t)
	h.run(t, "!link")
	if h.lastText() != "no links yet" {
		t.Fatalf("reply = %q", h.lastText())
	}

	h.store.InsertLink(context.Background(), &domain.Link{Author: "bob", Dest: "https://example.com"})
	link := h.router.cmdIndex["link"].(*LinkCommand)
	link.pick = func(int) int { return 1 }

	h.run(t, "!link")
	if h.lastText() != "remember this one? https://example.com (from bob)" {
		t.Errorf("reply = %q", h.lastText())
	}
}

func TestSoundsTable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.run(t, "!sounds")
	if h.lastText() != "no sounds yet" {
		t.Fatalf("reply = %q", h.lastText())
	}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	h.store.InsertSound(ctx, &domain.Sound{Name: "late", Author: "a", Timestamp: base.Add(time.Hour)})
	h.store.InsertSound(ctx, &domain.Sound{Name: "early", Author: "b", Timestamp: base})

	h.run(t, "!sounds")
	lines := strings.Split(h.lastText(), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "early") || !strings.Contains(lines[1], "2024-03-01 10:00") {
		t.Errorf("sounds table = %q", h.lastText())
	}
}

func TestGetValidation(t *testing.T) {
	tests := []string{
		"!get http://example.com/v 1",
		"!get http://example.com/v 1 2 3",
		"!get notaurl 1 2",
		"!get ftp://example.com/v 1 2",
		"!get http://example.com/v -1 2",
		"!get http://example.com/v 1 0",
		"!get http://example.com/v 1 31",
		"!get http://example.com/v one 2",
		"!get http://example.com/v 1 NaN",
		"!get https://youtu.be/abc</a> 1 2",
		`!get https://youtu.be/abc"> 1 2`,
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			h := newHarness(t)
			h.run(t, line)
			if h.lastText() != "usage: !get <url> <start> <length>" {
				t.Errorf("reply = %q, want usage", h.lastText())
			}
			if len(h.acquirer.Requests) != 0 {
				t.Error("acquirer should not run on invalid input")
			}
		})
	}
}

func TestGetAcquiresStoresAndPlays(t *testing.T) {
	h := newHarness(t)
	get := h.router.cmdIndex["get"].(*GetCommand)
	get.newID = func() string { return "clip-1" }

	h.run(t, "!get https://example.com/v 12.5 3")

	if len(h.acquirer.Requests) != 1 {
		t.Fatalf("acquirer requests = %d", len(h.acquirer.Requests))
	}
	req := h.acquirer.Requests[0]
	if req.ID != "clip-1" || req.Start != 12500*time.Millisecond || req.Length != 3*time.Second {
		t.Errorf("request = %+v", req)
	}
	if n, _ := h.store.CountSounds(context.Background()); n != 1 {
		t.Errorf("sounds = %d, want 1", n)
	}
	if h.backend.Refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", h.backend.Refreshes)
	}
	queue, playing := h.backend.Snapshot()
	if len(queue) != 1 || queue[0] != "clip-1.mp3" || !playing {
		t.Errorf("queue = %v playing = %v", queue, playing)
	}
	if !strings.Contains(strings.Join(h.out.Texts(), "\n"), "got `clip-1`") {
		t.Errorf("replies = %v", h.out.Texts())
	}
}

func TestGetAcquisitionFailure(t *testing.T) {
	h := newHarness(t)
	h.acquirer.Err = errors.New("helper exited 1")

	h.run(t, "!get https://example.com/v 0 5")
	if h.lastText() != "couldn't get that clip" {
		t.Errorf("reply = %q", h.lastText())
	}
	if n, _ := h.store.CountSounds(context.Background()); n != 0 {
		t.Error("no sound should be stored on failure")
	}
}

func TestPlay(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, "!play")
		if h.lastText() != "no sounds yet" {
			t.Errorf("reply = %q", h.lastText())
		}
	})

	t.Run("random sound", func(t *testing.T) {
		h := newHarness(t)
		h.store.InsertSound(ctx, &domain.Sound{Name: "abc", Author: "a"})
		h.backend.AddFile("abc.mp3")
		h.backend.Queue = []string{"old.mp3"}

		h.run(t, "!play")
		queue, playing := h.backend.Snapshot()
		if len(queue) != 1 || queue[0] != "abc.mp3" || !playing {
			t.Errorf("queue = %v playing = %v", queue, playing)
		}
	})

	t.Run("not found", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, "!play missing")
		if h.lastText() != "`missing` not found" {
			t.Errorf("reply = %q", h.lastText())
		}
	})

	t.Run("ambiguous", func(t *testing.T) {
		h := newHarness(t)
		h.backend.AddFile("abc1.mp3")
		h.backend.AddFile("abc2.mp3")
		h.run(t, "!play abc")
		if h.lastText() != "`abc` not found" {
			t.Errorf("reply = %q", h.lastText())
		}
		if _, playing := h.backend.Snapshot(); playing {
			t.Error("ambiguous name should not start playback")
		}
	})

	t.Run("too many args", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, "!play a b")
		if h.lastText() != "usage: !play [name]" {
			t.Errorf("reply = %q", h.lastText())
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		h := newHarness(t)
		h.backend.Err = errors.New("mpd: dial: refused")
		h.run(t, "!play abc")
		if h.lastText() != "sorry, `!play` failed" {
			t.Errorf("reply = %q", h.lastText())
		}
	})
}

func TestSay(t *testing.T) {
	h := newHarness(t)
	say := h.router.cmdIndex["say"].(*SayCommand)
	say.newID = func() string { return "tts-1" }

	h.run(t, "!say hello there")
	if len(h.speech.Texts) != 1 || h.speech.Texts[0] != "hello there" {
		t.Fatalf("synth texts = %v", h.speech.Texts)
	}
	queue, playing := h.backend.Snapshot()
	if len(queue) != 1 || queue[0] != "tts-1.mp3" || !playing {
		t.Errorf("queue = %v playing = %v", queue, playing)
	}

	h.run(t, "!say")
	if h.lastText() != "usage: !say <text...>" {
		t.Errorf("reply = %q", h.lastText())
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"0", 0, true},
		{"1.25", 1250 * time.Millisecond, true},
		{"-3", 0, false},
		{"abc", 0, false},
		{"Inf", 0, false},
		{"1e12", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSeconds(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseSeconds(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
