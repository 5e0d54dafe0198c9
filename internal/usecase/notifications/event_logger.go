// Package notifications registra los eventos de plataforma que no son chat (subs, tips, raids).
package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adeithe/go-twitch/irc"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"
	"go.uber.org/zap"

	"droidBot/internal/app/events"
)

// PlatformEventDTO es lo que se publica en el bus para el relay.
type PlatformEventDTO struct {
	Source    string `json:"source"`
	EventType string `json:"event_type"`
	Channel   string `json:"channel,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

type EventLogger struct {
	logger *zap.Logger
	events events.Publisher
	now    func() time.Time
}

func NewEventLogger(logger *zap.Logger, publisher events.Publisher) *EventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogger{
		logger: logger.Named("platform-events"),
		events: publisher,
		now:    time.Now,
	}
}

// HandleKickMessage ignora el chat normal; eso va por el pipeline.
func (l *EventLogger) HandleKickMessage(msg kickchatwrapper.ChatMessage) {
	eventType := strings.TrimSpace(msg.Type)
	if strings.EqualFold(eventType, "chat") || strings.EqualFold(eventType, "message") || eventType == "" {
		return
	}
	l.record(PlatformEventDTO{
		Source:    "kick",
		EventType: eventType,
		Channel:   itoa(msg.ChatroomID),
		Sender:    msg.Sender.Username,
		Message:   msg.Content,
	})
}

// HandleTwitchUserNotice registra los USERNOTICE (subs, gifts, raids).
func (l *EventLogger) HandleTwitchUserNotice(notice irc.UserNotice) {
	l.record(PlatformEventDTO{
		Source:    "twitch",
		EventType: fmt.Sprint(notice.Type),
		Channel:   strings.Join(notice.IRCMessage.Params, " "),
		Sender:    notice.Sender.DisplayName,
		Message:   notice.Message,
	})
}

func (l *EventLogger) record(ev PlatformEventDTO) {
	ev.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	l.logger.Info("platform event",
		zap.String("source", ev.Source),
		zap.String("event_type", ev.EventType),
		zap.String("channel", ev.Channel),
		zap.String("sender", ev.Sender),
		zap.String("message", ev.Message),
	)
	if l.events != nil {
		l.events.Publish(events.TopicPlatformEvent, ev)
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
