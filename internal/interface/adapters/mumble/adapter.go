// Package mumbleadapter conecta el bot a un servidor Mumble.
package mumbleadapter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"layeh.com/gumble/gumble"
	"layeh.com/gumble/gumbleutil"

	"droidBot/internal/domain"
	"droidBot/internal/interface/adapters/textfmt"
)

const (
	dialTimeout = 10 * time.Second
	inboxSize   = 64
)

type Config struct {
	Host     string
	Name     string
	Password string
	// Channel es la ruta desde la raíz separada por "/"; vacío = raíz.
	Channel  string
	CertDir  string
	Insecure bool
}

type Adapter struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	handler  domain.MessageHandler
	presence domain.PresenceHandler
	client   *gumble.Client

	inbox chan func(ctx context.Context)
}

func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		cfg:    cfg,
		logger: logger.Named("mumble"),
		inbox:  make(chan func(ctx context.Context), inboxSize),
	}
}

func (a *Adapter) SetHandler(h domain.MessageHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

func (a *Adapter) SetPresenceHandler(h domain.PresenceHandler) {
	a.mu.Lock()
	a.presence = h
	a.mu.Unlock()
}

func (a *Adapter) Start(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.Host) == "" {
		return errors.New("mumble: empty host")
	}
	if strings.TrimSpace(a.cfg.Name) == "" {
		return errors.New("mumble: empty username")
	}

	tlsConfig, err := a.tlsConfig()
	if err != nil {
		return err
	}

	config := gumble.NewConfig()
	config.Username = a.cfg.Name
	config.Password = a.cfg.Password

	disconnected := make(chan *gumble.DisconnectEvent, 1)
	config.Attach(gumbleutil.Listener{
		Connect: a.onConnect,
		TextMessage: func(e *gumble.TextMessageEvent) {
			a.onTextMessage(e)
		},
		UserChange: func(e *gumble.UserChangeEvent) {
			a.onUserChange(e)
		},
		Disconnect: func(e *gumble.DisconnectEvent) {
			select {
			case disconnected <- e:
			default:
			}
		},
	})

	client, err := gumble.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, a.cfg.Host, config, tlsConfig)
	if err != nil {
		return fmt.Errorf("mumble: dial %s: %w", a.cfg.Host, err)
	}

	a.mu.Lock()
	a.client = client
	a.mu.Unlock()

	stopDrain := a.runInbox(ctx)
	defer stopDrain()

	defer func() {
		a.mu.Lock()
		a.client = nil
		a.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		_ = client.Disconnect()
		return ctx.Err()
	case e := <-disconnected:
		return fmt.Errorf("mumble: disconnected (type %d): %s", e.Type, e.String)
	}
}

// los callbacks de gumble corren en su bucle de lectura; el trabajo va a drain
func (a *Adapter) enqueue(job func(ctx context.Context)) {
	select {
	case a.inbox <- job:
	default:
		a.logger.Warn("inbox full, dropping event")
	}
}

// runInbox arranca drain; stop lo cancela y espera a que salga.
func (a *Adapter) runInbox(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.drain(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (a *Adapter) drain(ctx context.Context) {
	for {
		select {
		case job := <-a.inbox:
			job(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) onConnect(e *gumble.ConnectEvent) {
	a.logger.Info("connected", zap.String("host", a.cfg.Host), zap.String("name", a.cfg.Name))

	path := ChannelPath(a.cfg.Channel)
	if len(path) == 0 {
		return
	}
	target := e.Client.Channels.Find(path...)
	if target == nil {
		a.logger.Warn("channel not found", zap.String("channel", a.cfg.Channel))
		return
	}
	e.Client.Self.Move(target)
}

func (a *Adapter) onTextMessage(e *gumble.TextMessageEvent) {
	if e.Sender == nil || e.Sender == e.Client.Self {
		return
	}

	a.mu.RLock()
	handler := a.handler
	a.mu.RUnlock()
	if handler == nil {
		return
	}

	msg := mapTextMessage(e.TextMessage, e.Client.Self)
	a.enqueue(func(ctx context.Context) {
		if err := handler(ctx, msg); err != nil {
			a.logger.Warn("handler error", zap.Error(err))
		}
	})
}

func (a *Adapter) onUserChange(e *gumble.UserChangeEvent) {
	a.mu.RLock()
	handler := a.presence
	a.mu.RUnlock()
	if handler == nil {
		return
	}

	ev, ok := mapPresence(e.Type, e.User, e.Client.Self)
	if !ok {
		return
	}
	a.enqueue(func(ctx context.Context) {
		if err := handler(ctx, ev); err != nil {
			a.logger.Warn("presence handler error", zap.Error(err))
		}
	})
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformMumble {
		return fmt.Errorf("mumble: unsupported platform %s", platform)
	}
	return a.sendToChannel(channelID, textfmt.HTML(text))
}

func (a *Adapter) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	if platform != domain.PlatformMumble {
		return fmt.Errorf("mumble: unsupported platform %s", platform)
	}

	session, err := strconv.ParseUint(to.UserID, 10, 32)
	if err != nil {
		return fmt.Errorf("mumble: invalid user session %q: %w", to.UserID, err)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.client == nil {
		return errors.New("mumble: client not connected")
	}
	user := a.client.Users[uint32(session)]
	if user == nil {
		return fmt.Errorf("mumble: user %s not found", to.UserID)
	}
	user.Send(textfmt.HTML(text))
	return nil
}

func (a *Adapter) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	if platform != domain.PlatformMumble {
		return fmt.Errorf("mumble: unsupported platform %s", platform)
	}
	if len(img.Data) == 0 {
		return errors.New("mumble: empty image")
	}
	return a.sendToChannel(channelID, textfmt.ImageHTML(img.Data, img.MIMEType, img.Caption))
}

func (a *Adapter) sendToChannel(channelID, html string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.client == nil {
		return errors.New("mumble: client not connected")
	}

	channel := a.client.Self.Channel
	if channelID != "" {
		id, err := strconv.ParseUint(channelID, 10, 32)
		if err != nil {
			return fmt.Errorf("mumble: invalid channel id %q: %w", channelID, err)
		}
		channel = a.client.Channels[uint32(id)]
	}
	if channel == nil {
		return fmt.Errorf("mumble: channel %s not found", channelID)
	}

	a.logger.Debug("send", zap.Uint32("channel", channel.ID), zap.Int("bytes", len(html)))
	channel.Send(html, false)
	return nil
}

// tlsConfig carga <cert_dir>/<name>.pem y .key si existen; el servidor usa el certificado como identidad.
func (a *Adapter) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: a.cfg.Insecure}

	if a.cfg.CertDir == "" {
		return cfg, nil
	}
	certFile := filepath.Join(a.cfg.CertDir, a.cfg.Name+".pem")
	keyFile := filepath.Join(a.cfg.CertDir, a.cfg.Name+".key")
	if _, err := os.Stat(certFile); errors.Is(err, os.ErrNotExist) {
		a.logger.Debug("no client certificate", zap.String("path", certFile))
		return cfg, nil
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("mumble: load certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

// ChannelPath parte "Lobby/Music" en segmentos no vacíos.
func ChannelPath(channel string) []string {
	var out []string
	for _, part := range strings.Split(channel, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mapTextMessage(tm gumble.TextMessage, self *gumble.User) domain.Message {
	msg := domain.Message{
		Platform: domain.PlatformMumble,
		Text:     DecodeText(tm.Message),
		// sin canales ni árboles: mensaje directo al bot
		IsPrivate: len(tm.Channels) == 0 && len(tm.Trees) == 0,
	}
	if tm.Sender != nil {
		msg.UserID = strconv.FormatUint(uint64(tm.Sender.Session), 10)
		msg.Username = tm.Sender.Name
	}

	switch {
	case len(tm.Channels) > 0:
		msg.ChannelID = channelID(tm.Channels[0])
	case self != nil:
		msg.ChannelID = channelID(self.Channel)
	}
	return msg
}

func mapPresence(change gumble.UserChangeType, user, self *gumble.User) (domain.PresenceEvent, bool) {
	if user == nil || (!change.Has(gumble.UserChangeConnected) && !change.Has(gumble.UserChangeChannel)) {
		return domain.PresenceEvent{}, false
	}
	if self == nil || user.Channel == nil || self.Channel == nil || user.Channel.ID != self.Channel.ID {
		return domain.PresenceEvent{}, false
	}
	return domain.PresenceEvent{
		Platform:  domain.PlatformMumble,
		ChannelID: channelID(user.Channel),
		UserID:    strconv.FormatUint(uint64(user.Session), 10),
		Username:  user.Name,
		IsSelf:    user.Session == self.Session,
	}, true
}

func channelID(c *gumble.Channel) string {
	if c == nil {
		return ""
	}
	return strconv.FormatUint(uint64(c.ID), 10)
}
