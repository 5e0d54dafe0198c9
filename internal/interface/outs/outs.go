package outs

import (
	"context"
	"fmt"
	"sync"

	"droidBot/internal/app/events"
	"droidBot/internal/domain"
)

// Sender es la interfaz que implementan los adapters de salida (Mumble, Twitch, Kick, consola, web).
type Sender interface {
	// channelID: canal al que hay que responder (ej. "#droid" en Twitch, id numérico en Mumble)
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
	SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error
	SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error
}

// MultiSender enruta los mensajes al sender correcto según la plataforma.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
	events  events.Publisher
}

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

// SetPublisher hace que cada envío exitoso se publique como chat:reply.
func (m *MultiSender) SetPublisher(p events.Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = p
}

func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if m == nil || sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

func (m *MultiSender) Platforms() []domain.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Platform, 0, len(m.senders))
	for p := range m.senders {
		out = append(out, p)
	}
	return out
}

func (m *MultiSender) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	sender, pub, err := m.lookup(platform)
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, platform, channelID, text); err != nil {
		return err
	}
	publish(pub, events.NewReplyDTO(platform, channelID, "", text, false))
	return nil
}

func (m *MultiSender) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	sender, pub, err := m.lookup(platform)
	if err != nil {
		return err
	}
	if err := sender.SendToUser(ctx, platform, to, text); err != nil {
		return err
	}
	publish(pub, events.NewReplyDTO(platform, to.ChannelID, to.Username, text, false))
	return nil
}

func (m *MultiSender) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	sender, pub, err := m.lookup(platform)
	if err != nil {
		return err
	}
	if err := sender.SendImage(ctx, platform, channelID, img); err != nil {
		return err
	}
	publish(pub, events.NewReplyDTO(platform, channelID, "", img.Caption, true))
	return nil
}

func (m *MultiSender) lookup(platform domain.Platform) (Sender, events.Publisher, error) {
	if m == nil {
		return nil, nil, fmt.Errorf("outs: no multi sender configured")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sender, ok := m.senders[platform]
	if !ok {
		return nil, nil, fmt.Errorf("outs: no sender registered for platform %s", platform)
	}
	return sender, m.events, nil
}

func publish(p events.Publisher, reply events.ReplyDTO) {
	if p != nil {
		p.Publish(events.TopicChatReply, reply)
	}
}

var _ domain.OutgoingMessagePort = (*MultiSender)(nil)
