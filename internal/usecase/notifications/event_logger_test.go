package notifications

import (
	"testing"
	"time"

	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"droidBot/internal/app/events"
)

type recorder struct {
	topics   []string
	payloads []any
}

func (r *recorder) Publish(topic string, payload any) {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, payload)
}

func TestHandleKickMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := &recorder{}
	l := NewEventLogger(zap.New(core), pub)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	chat := kickchatwrapper.ChatMessage{Type: "chat", Content: "!ping"}
	l.HandleKickMessage(chat)
	if logs.Len() != 0 || len(pub.topics) != 0 {
		t.Fatal("chat messages should not be recorded")
	}

	sub := kickchatwrapper.ChatMessage{Type: "subscription", ChatroomID: 42, Content: "thanks!"}
	l.HandleKickMessage(sub)

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	if len(pub.topics) != 1 || pub.topics[0] != events.TopicPlatformEvent {
		t.Fatalf("published topics = %v", pub.topics)
	}
	ev, ok := pub.payloads[0].(PlatformEventDTO)
	if !ok {
		t.Fatalf("payload type %T", pub.payloads[0])
	}
	want := PlatformEventDTO{Source: "kick", EventType: "subscription", Channel: "42", Message: "thanks!", Timestamp: "2024-05-01T10:00:00Z"}
	if ev != want {
		t.Errorf("event = %+v, want %+v", ev, want)
	}
}

func TestNilPublisher(t *testing.T) {
	l := NewEventLogger(nil, nil)
	l.HandleKickMessage(kickchatwrapper.ChatMessage{Type: "gift"})
}
