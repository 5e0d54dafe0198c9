// Package twitchadapter adapter for twitch
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adeithe/go-twitch/irc"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/interface/adapters/textfmt"
)

const maxLinesPerReply = 8

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string

	// UserNoticeHandler recibe subs, gifts y raids.
	UserNoticeHandler UserNoticeHandler
}

type UserNoticeHandler func(notice irc.UserNotice)

type Adapter struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	handler domain.MessageHandler
	conn    *irc.Conn
}

func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, logger: logger.Named("twitch")}
}

func (a *Adapter) SetHandler(h domain.MessageHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

func (a *Adapter) Start(ctx context.Context) error {
	if len(a.cfg.Channels) == 0 {
		return errors.New("twitch: no channels configured")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: empty username or oauth token")
	}

	// una sola conexión, sin sharding
	conn := &irc.Conn{}

	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: SetLogin: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			return
		}

		msg := mapChatMessageToDomain(cm)
		if strings.EqualFold(msg.Username, a.cfg.Username) {
			return
		}
		if err := handler(ctx, msg); err != nil {
			a.logger.Warn("handler error", zap.Error(err))
		}
	})

	if h := a.cfg.UserNoticeHandler; h != nil {
		conn.OnChannelUserNotice(h)
	}

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: Connect: %w", err)
	}

	if err := conn.Join(a.cfg.Channels...); err != nil {
		conn.Close()
		return fmt.Errorf("twitch: Join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	a.logger.Info("connected", zap.String("user", a.cfg.Username), zap.Strings("channels", a.cfg.Channels))

	<-ctx.Done()

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformTwitch {
		return fmt.Errorf("twitch: unsupported platform %s", platform)
	}

	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: connection not ready")
	}

	// IRC no admite saltos de línea: una línea por mensaje
	for _, line := range textfmt.SplitLines(text, maxLinesPerReply) {
		a.logger.Debug("say", zap.String("channel", channelID), zap.String("text", line))
		if err := conn.Say(channelID, line); err != nil {
			return fmt.Errorf("twitch: Say: %w", err)
		}
	}
	return nil
}

// SendToUser menciona al usuario en el canal; los whispers requieren la API de Helix.
func (a *Adapter) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	return a.SendMessage(ctx, platform, to.ChannelID, textfmt.Mention(to.Username, text))
}

func (a *Adapter) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	if strings.TrimSpace(img.Caption) == "" {
		return nil
	}
	return a.SendMessage(ctx, platform, channelID, img.Caption)
}

func mapChatMessageToDomain(cm irc.ChatMessage) domain.Message {
	sender := cm.Sender

	return domain.Message{
		Platform:  domain.PlatformTwitch,
		ChannelID: cm.Channel,
		UserID:    strconv.FormatInt(sender.ID, 10),
		Username:  sender.DisplayName,
		Text:      cm.Text,
	}
}
