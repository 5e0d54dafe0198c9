// Package kickadapter conecta el bot al chat de Kick.
package kickadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	kicksdk "github.com/glichtv/kick-sdk"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/interface/adapters/textfmt"
)

const (
	maxMessageRunes  = 500
	maxLinesPerReply = 8
)

type Config struct {
	// Token OAuth con scope chat:write
	AccessToken string

	// ID del usuario broadcaster
	BroadcasterUserID int

	// ID del chatroom (no es el mismo que el userID)
	// lo sacas de: https://kick.com/api/v2/channels/{slug}, campo "chatroom":{"id":...}
	ChatroomID int

	// BotUsername es la cuenta que publica; sus mensajes se ignoran.
	BotUsername string

	// EventHandler recibe lo que no es chat (subs, tips, etc.)
	EventHandler EventHandler
}

type EventHandler func(msg kickchatwrapper.ChatMessage)

type Adapter struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	handler domain.MessageHandler
	sdk     *kicksdk.Client
	ws      *kickchatwrapper.Client
}

func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, logger: logger.Named("kick")}
}

func (a *Adapter) SetHandler(h domain.MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.AccessToken == "" {
		return errors.New("kick: empty access token")
	}
	if a.cfg.ChatroomID == 0 {
		return errors.New("kick: chatroom id not configured")
	}
	if a.cfg.BroadcasterUserID == 0 {
		return errors.New("kick: broadcaster user id not configured")
	}

	// REST para enviar, websocket para escuchar
	sdkClient := newSDKClient(a.cfg.AccessToken)

	wsClient, err := kickchatwrapper.NewClient()
	if err != nil {
		return fmt.Errorf("kick: ws client: %w", err)
	}
	if err := wsClient.JoinChannelByID(a.cfg.ChatroomID); err != nil {
		return fmt.Errorf("kick: JoinChannelByID: %w", err)
	}

	msgChan := wsClient.ListenForMessages()

	a.mu.Lock()
	a.sdk = sdkClient
	a.ws = wsClient
	a.mu.Unlock()

	a.logger.Info("connected", zap.Int("chatroom_id", a.cfg.ChatroomID), zap.Int("broadcaster_user_id", a.cfg.BroadcasterUserID))

	go a.listen(ctx, msgChan)

	<-ctx.Done()

	a.mu.Lock()
	if a.ws != nil {
		a.ws.Close()
		a.ws = nil
	}
	a.sdk = nil
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) listen(ctx context.Context, msgChan <-chan kickchatwrapper.ChatMessage) {
	for {
		select {
		case m, ok := <-msgChan:
			if !ok {
				a.logger.Warn("message channel closed")
				return
			}
			if !isChatEvent(m.Type) {
				if h := a.cfg.EventHandler; h != nil {
					h(m)
				}
				continue
			}
			if a.isSelf(m.Sender.Username) {
				continue
			}

			a.mu.RLock()
			handler := a.handler
			a.mu.RUnlock()
			if handler == nil {
				continue
			}

			if err := handler(ctx, mapChatMessageToDomain(m)); err != nil {
				a.logger.Warn("handler error", zap.Error(err))
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) isSelf(username string) bool {
	return a.cfg.BotUsername != "" && strings.EqualFold(username, a.cfg.BotUsername)
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformKick {
		return fmt.Errorf("kick: unsupported platform %s", platform)
	}

	a.mu.RLock()
	client := a.sdk
	a.mu.RUnlock()

	if client == nil {
		return errors.New("kick: client not ready")
	}

	content := FormatContent(text)
	if content == "" {
		return nil
	}

	a.logger.Debug("post message", zap.Int("broadcaster_user_id", a.cfg.BroadcasterUserID), zap.String("text", content))

	resp, err := client.Chat().PostMessage(ctx, kicksdk.PostChatMessageInput{
		BroadcasterUserID: a.cfg.BroadcasterUserID,
		Content:           content,
		PosterType:        kicksdk.MessagePosterUser,
	})
	if err != nil {
		return fmt.Errorf("kick: post message: %w", err)
	}

	if !resp.Payload.IsSent {
		meta := resp.ResponseMetadata
		a.logger.Warn("message rejected",
			zap.Int("status", meta.StatusCode),
			zap.String("message_id", resp.Payload.MessageID),
			zap.String("kick_message", meta.KickMessage),
			zap.String("kick_error", meta.KickError),
			zap.String("description", meta.KickErrorDescription),
		)
		return fmt.Errorf("kick: message rejected by api (status %d)", meta.StatusCode)
	}

	a.logger.Debug("message delivered", zap.String("message_id", resp.Payload.MessageID))
	return nil
}

// SendToUser menciona al usuario; Kick no tiene mensajes privados en la API pública.
func (a *Adapter) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	return a.SendMessage(ctx, platform, to.ChannelID, textfmt.Mention(to.Username, text))
}

func (a *Adapter) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	if strings.TrimSpace(img.Caption) == "" {
		return nil
	}
	return a.SendMessage(ctx, platform, channelID, img.Caption)
}

// UpdateAccessToken cambia el token sin reiniciar el websocket.
func (a *Adapter) UpdateAccessToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cfg.AccessToken = token
	if a.sdk != nil {
		a.sdk = newSDKClient(token)
	}
}

func newSDKClient(token string) *kicksdk.Client {
	return kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: token,
		}),
	)
}

// FormatContent deja el texto en una sola línea dentro del límite de Kick.
func FormatContent(text string) string {
	return textfmt.Truncate(textfmt.Flatten(text, " | ", maxLinesPerReply), maxMessageRunes)
}

// el websocket también entrega subs, tips y baneos
func isChatEvent(eventType string) bool {
	t := strings.ToLower(strings.TrimSpace(eventType))
	return t == "" || t == "chat" || t == "message"
}

func mapChatMessageToDomain(m kickchatwrapper.ChatMessage) domain.Message {
	return domain.Message{
		Platform:  domain.PlatformKick,
		ChannelID: strconv.Itoa(m.ChatroomID),
		UserID:    strconv.Itoa(m.Sender.ID),
		Username:  m.Sender.Username,
		Text:      m.Content,
	}
}
