package commands

import (
	"context"
	"testing"
	"time"

	"droidBot/internal/domain"
	"droidBot/internal/fakes"
)

type harness struct {
	router   *Router
	aliases  *AliasManager
	out      *fakes.Outbox
	store    *fakes.Store
	backend  *fakes.Backend
	acquirer *fakes.Acquirer
	speech   *fakes.Synthesizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		out:     &fakes.Outbox{},
		store:   fakes.NewStore(),
		backend: &fakes.Backend{},
	}
	h.acquirer = &fakes.Acquirer{Backend: h.backend}
	h.speech = &fakes.Synthesizer{Backend: h.backend}
	h.aliases = NewAliasManager(h.store, nil)
	h.router = Setup(Deps{
		Prefix:        "!",
		Out:           h.out,
		Links:         h.store,
		Sounds:        h.store,
		Aliases:       h.aliases,
		Backend:       h.backend,
		Acquirer:      h.acquirer,
		Speech:        h.speech,
		MaxClipLength: 30 * time.Second,
	})
	return h
}

func chatMessage(text string) domain.Message {
	return domain.Message{
		Platform:  domain.PlatformMumble,
		ChannelID: "1",
		UserID:    "7",
		Username:  "alice",
		Text:      text,
	}
}

// run parsea y despacha una línea como si viniera del chat.
func (h *harness) run(t *testing.T, text string) Result {
	t.Helper()
	inv, ok := h.router.Parse(text)
	if !ok {
		t.Fatalf("Parse(%q) not command-shaped", text)
	}
	return h.router.Dispatch(context.Background(), chatMessage(text), inv)
}

func (h *harness) lastText() string {
	return h.out.Last().Text
}
