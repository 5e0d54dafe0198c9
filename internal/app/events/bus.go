package events

import (
	"sync"

	"go.uber.org/zap"
)

const (
	TopicChatMessage = "chat:message"
	TopicChatReply   = "chat:reply"
	TopicPresence    = "chat:presence"
	// TopicPlatformEvent lleva subs, tips y raids de Twitch/Kick.
	TopicPlatformEvent = "platform:event"
	TopicAppError      = "app:error"

	defaultBufferSize = 128
)

// Publisher es lo único que necesitan los productores de eventos.
type Publisher interface {
	Publish(topic string, payload any)
}

type Bus struct {
	logger *zap.Logger

	mu        sync.RWMutex
	subs      map[string]map[int]chan any
	nextSubID int
	closed    bool

	dropMu     sync.Mutex
	dropCounts map[string]uint64
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:     logger.Named("events"),
		subs:       make(map[string]map[int]chan any),
		dropCounts: make(map[string]uint64),
	}
}

func (b *Bus) Publish(topic string, payload any) {
	if topic == "" {
		return
	}
	// el envío no bloquea, así que se puede hacer con el lock tomado
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- payload:
		default:
			b.recordDrop(topic)
		}
	}
}

func (b *Bus) Subscribe(topic string) (<-chan any, func()) {
	ch := make(chan any, defaultBufferSize)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string]map[int]chan any)
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan any)
	}
	id := b.nextSubID
	b.nextSubID++
	b.subs[topic][id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs, ok := b.subs[topic]
		if !ok {
			return
		}
		if _, live := subs[id]; !live {
			return
		}
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
		close(ch)
	}

	return ch, unsubscribe
}

// Close cierra todas las suscripciones; Publish posterior no hace nada.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, topic)
	}
}

func (b *Bus) recordDrop(topic string) {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	if b.dropCounts == nil {
		b.dropCounts = make(map[string]uint64)
	}
	b.dropCounts[topic]++
	if b.dropCounts[topic]%100 == 1 {
		b.logger.Warn("dropping events", zap.String("topic", topic), zap.Uint64("total_drops", b.dropCounts[topic]))
	}
}
