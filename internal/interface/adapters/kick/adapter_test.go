package kickadapter

import (
	"context"
	"strings"
	"testing"

	"droidBot/internal/domain"
)

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "Pong!", "Pong!"},
		{"table", "commands:\nping\nhelp\n", "commands: | ping | help"},
		{"empty", " \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatContent(tt.in); got != tt.want {
				t.Errorf("FormatContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	long := FormatContent(strings.Repeat("x", 600))
	if n := len([]rune(long)); n != maxMessageRunes {
		t.Errorf("FormatContent(long) = %d runes, want %d", n, maxMessageRunes)
	}
}

func TestIsChatEvent(t *testing.T) {
	for typ, want := range map[string]bool{"": true, "chat": true, "Message": true, "subscription": false} {
		if got := isChatEvent(typ); got != want {
			t.Errorf("isChatEvent(%q) = %v, want %v", typ, got, want)
		}
	}
}

func TestIsSelf(t *testing.T) {
	a := NewAdapter(Config{BotUsername: "DroidBot"}, nil)
	if !a.isSelf("droidbot") {
		t.Error("isSelf(droidbot) = false")
	}
	if a.isSelf("alice") {
		t.Error("isSelf(alice) = true")
	}
	if NewAdapter(Config{}, nil).isSelf("alice") {
		t.Error("isSelf without bot username should be false")
	}
}

func TestSendWithoutClient(t *testing.T) {
	a := NewAdapter(Config{BroadcasterUserID: 1}, nil)
	if err := a.SendMessage(context.Background(), domain.PlatformKick, "1", "hi"); err == nil {
		t.Error("SendMessage() without Start should fail")
	}
	if err := a.SendMessage(context.Background(), domain.PlatformTwitch, "1", "hi"); err == nil {
		t.Error("SendMessage() with other platform should fail")
	}
	if err := a.SendImage(context.Background(), domain.PlatformKick, "1", domain.Image{}); err != nil {
		t.Errorf("SendImage() without caption = %v, want nil", err)
	}
}

func TestStartValidation(t *testing.T) {
	tests := []Config{
		{},
		{AccessToken: "t"},
		{AccessToken: "t", ChatroomID: 1},
	}
	for _, cfg := range tests {
		if err := NewAdapter(cfg, nil).Start(context.Background()); err == nil {
			t.Errorf("Start(%+v) should fail", cfg)
		}
	}
}
