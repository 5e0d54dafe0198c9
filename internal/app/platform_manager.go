package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/interface/outs"
)

// Adapter es cualquier conexión de chat que se puede arrancar y parar con un contexto.
type Adapter interface {
	Start(ctx context.Context) error
}

type messageReceiver interface {
	SetHandler(h domain.MessageHandler)
}

type presenceReceiver interface {
	SetPresenceHandler(h domain.PresenceHandler)
}

type ManagerConfig struct {
	Context  context.Context
	MultiOut *outs.MultiSender
	Logger   *zap.Logger
}

// PlatformManager arranca cada adapter en su goroutine. Si uno falla se
// desregistra y el resto sigue funcionando.
type PlatformManager struct {
	ctx      context.Context
	multiOut *outs.MultiSender
	logger   *zap.Logger

	handlerMu sync.RWMutex
	handler   domain.MessageHandler
	presence  domain.PresenceHandler

	mu       sync.Mutex
	runtimes map[domain.Platform]*adapterRuntime
	wg       sync.WaitGroup
}

type adapterRuntime struct {
	cancel  context.CancelFunc
	adapter Adapter
	done    chan struct{}
}

func NewPlatformManager(cfg ManagerConfig) *PlatformManager {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlatformManager{
		ctx:      ctx,
		multiOut: cfg.MultiOut,
		logger:   logger.Named("platforms"),
		runtimes: make(map[domain.Platform]*adapterRuntime),
	}
}

// SetHandler aplica a los adapters ya habilitados y a los siguientes.
func (m *PlatformManager) SetHandler(handler domain.MessageHandler) {
	m.handlerMu.Lock()
	m.handler = handler
	m.handlerMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.runtimes {
		if r, ok := rt.adapter.(messageReceiver); ok {
			r.SetHandler(handler)
		}
	}
}

func (m *PlatformManager) SetPresenceHandler(handler domain.PresenceHandler) {
	m.handlerMu.Lock()
	m.presence = handler
	m.handlerMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.runtimes {
		if r, ok := rt.adapter.(presenceReceiver); ok {
			r.SetPresenceHandler(handler)
		}
	}
}

// Enable registra el adapter como sender de la plataforma y lo arranca.
// Si ya había uno para esa plataforma se para primero.
func (m *PlatformManager) Enable(platform domain.Platform, adapter Adapter) {
	if adapter == nil {
		return
	}
	m.Disable(platform)

	m.handlerMu.RLock()
	handler, presence := m.handler, m.presence
	m.handlerMu.RUnlock()

	if r, ok := adapter.(messageReceiver); ok && handler != nil {
		r.SetHandler(handler)
	}
	if r, ok := adapter.(presenceReceiver); ok && presence != nil {
		r.SetPresenceHandler(presence)
	}
	if sender, ok := adapter.(outs.Sender); ok && m.multiOut != nil {
		m.multiOut.Register(platform, sender)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	rt := &adapterRuntime{cancel: cancel, adapter: adapter, done: make(chan struct{})}

	m.mu.Lock()
	m.runtimes[platform] = rt
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(rt.done)

		err := adapter.Start(ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			m.logger.Info("adapter stopped", zap.String("platform", string(platform)))
		default:
			m.logger.Error("adapter failed", zap.String("platform", string(platform)), zap.Error(err))
		}
		m.release(platform, rt)
	}()

	m.logger.Info("adapter enabled", zap.String("platform", string(platform)))
}

// Disable para el adapter y espera a que Start termine.
func (m *PlatformManager) Disable(platform domain.Platform) {
	m.mu.Lock()
	rt := m.runtimes[platform]
	m.mu.Unlock()
	if rt == nil {
		return
	}
	rt.cancel()
	<-rt.done
}

// release borra el runtime solo si sigue siendo el registrado para la plataforma.
func (m *PlatformManager) release(platform domain.Platform, rt *adapterRuntime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runtimes[platform] != rt {
		return
	}
	delete(m.runtimes, platform)
	if m.multiOut != nil {
		m.multiOut.Unregister(platform)
	}
}

func (m *PlatformManager) Running() []domain.Platform {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Platform, 0, len(m.runtimes))
	for p := range m.runtimes {
		out = append(out, p)
	}
	return out
}

// Shutdown para todos los adapters y espera a que terminen.
func (m *PlatformManager) Shutdown() {
	m.mu.Lock()
	for _, rt := range m.runtimes {
		rt.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
