package app

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"droidBot/internal/domain"
	"droidBot/internal/interface/outs"
)

type fakeAdapter struct {
	fail    error
	started chan struct{}

	mu       sync.Mutex
	handler  domain.MessageHandler
	presence domain.PresenceHandler
	sent     []string
}

func newFakeAdapter(fail error) *fakeAdapter {
	return &fakeAdapter{fail: fail, started: make(chan struct{})}
}

func (f *fakeAdapter) Start(ctx context.Context) error {
	close(f.started)
	if f.fail != nil {
		return f.fail
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeAdapter) SetHandler(h domain.MessageHandler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakeAdapter) SetPresenceHandler(h domain.PresenceHandler) {
	f.mu.Lock()
	f.presence = h
	f.mu.Unlock()
}

func (f *fakeAdapter) SendMessage(_ context.Context, _ domain.Platform, _, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) SendToUser(ctx context.Context, p domain.Platform, to domain.Recipient, text string) error {
	return f.SendMessage(ctx, p, to.ChannelID, text)
}

func (f *fakeAdapter) SendImage(ctx context.Context, p domain.Platform, channelID string, img domain.Image) error {
	return f.SendMessage(ctx, p, channelID, img.Caption)
}

func (f *fakeAdapter) handlers() (domain.MessageHandler, domain.PresenceHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler, f.presence
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnableRegistersSenderAndHandlers(t *testing.T) {
	multi := outs.NewMultiSender()
	mgr := NewPlatformManager(ManagerConfig{MultiOut: multi})
	defer mgr.Shutdown()

	mgr.SetHandler(func(context.Context, domain.Message) error { return nil })
	mgr.SetPresenceHandler(func(context.Context, domain.PresenceEvent) error { return nil })

	ad := newFakeAdapter(nil)
	mgr.Enable(domain.PlatformConsole, ad)
	<-ad.started

	if h, p := ad.handlers(); h == nil || p == nil {
		t.Error("handlers were not propagated to the adapter")
	}
	if err := multi.SendMessage(context.Background(), domain.PlatformConsole, "console", "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if !slices.Equal(mgr.Running(), []domain.Platform{domain.PlatformConsole}) {
		t.Errorf("Running() = %v", mgr.Running())
	}
}

func TestFailedAdapterDoesNotStopOthers(t *testing.T) {
	multi := outs.NewMultiSender()
	mgr := NewPlatformManager(ManagerConfig{MultiOut: multi})
	defer mgr.Shutdown()

	good := newFakeAdapter(nil)
	bad := newFakeAdapter(errors.New("dial refused"))
	mgr.Enable(domain.PlatformMumble, good)
	mgr.Enable(domain.PlatformTwitch, bad)
	<-bad.started

	waitFor(t, func() bool { return len(mgr.Running()) == 1 })

	if err := multi.SendMessage(context.Background(), domain.PlatformTwitch, "#c", "x"); err == nil {
		t.Error("failed adapter should be unregistered from the sender")
	}
	if err := multi.SendMessage(context.Background(), domain.PlatformMumble, "1", "x"); err != nil {
		t.Errorf("healthy adapter send error = %v", err)
	}
}

func TestDisableAndShutdown(t *testing.T) {
	multi := outs.NewMultiSender()
	mgr := NewPlatformManager(ManagerConfig{MultiOut: multi})

	a := newFakeAdapter(nil)
	b := newFakeAdapter(nil)
	mgr.Enable(domain.PlatformKick, a)
	mgr.Enable(domain.PlatformWeb, b)

	mgr.Disable(domain.PlatformKick)
	if slices.Contains(mgr.Running(), domain.PlatformKick) {
		t.Error("kick still running after Disable")
	}

	mgr.Shutdown()
	if n := len(mgr.Running()); n != 0 {
		t.Errorf("Running() after Shutdown = %d adapters", n)
	}
	if len(multi.Platforms()) != 0 {
		t.Errorf("senders left registered: %v", multi.Platforms())
	}
}

func TestEnableReplacesAdapter(t *testing.T) {
	mgr := NewPlatformManager(ManagerConfig{MultiOut: outs.NewMultiSender()})
	defer mgr.Shutdown()

	first := newFakeAdapter(nil)
	second := newFakeAdapter(nil)
	mgr.Enable(domain.PlatformTwitch, first)
	<-first.started
	mgr.Enable(domain.PlatformTwitch, second)
	<-second.started

	if n := len(mgr.Running()); n != 1 {
		t.Errorf("Running() = %d adapters, want 1", n)
	}
}
