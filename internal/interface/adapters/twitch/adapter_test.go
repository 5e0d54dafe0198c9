package twitchadapter

import (
	"context"
	"testing"

	"droidBot/internal/domain"
)

func TestSendWithoutConnection(t *testing.T) {
	a := NewAdapter(Config{Username: "droid"}, nil)
	if err := a.SendMessage(context.Background(), domain.PlatformTwitch, "#c", "x"); err == nil {
		t.Error("SendMessage() without connection should fail")
	}
	if err := a.SendMessage(context.Background(), domain.PlatformKick, "#c", "x"); err == nil {
		t.Error("SendMessage() for another platform should fail")
	}
}

func TestStartValidatesConfig(t *testing.T) {
	if err := NewAdapter(Config{}, nil).Start(context.Background()); err == nil {
		t.Error("Start() without channels should fail")
	}
	if err := NewAdapter(Config{Channels: []string{"c"}}, nil).Start(context.Background()); err == nil {
		t.Error("Start() without credentials should fail")
	}
}
