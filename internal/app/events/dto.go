package events

import (
	"time"

	"droidBot/internal/domain"
)

// ChatMessageDTO describe el payload que se envía al relay WebSocket a través del bus.
type ChatMessageDTO struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	IsPrivate bool   `json:"is_private"`
	Timestamp string `json:"timestamp"`
}

func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Text:      msg.Text,
		IsPrivate: msg.IsPrivate,
		Timestamp: now(),
	}
}

// ReplyDTO es una respuesta del bot. To solo se rellena en respuestas privadas.
type ReplyDTO struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	To        string `json:"to,omitempty"`
	Text      string `json:"text"`
	HasImage  bool   `json:"has_image,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewReplyDTO(platform domain.Platform, channelID, to, text string, hasImage bool) ReplyDTO {
	return ReplyDTO{
		Platform:  string(platform),
		ChannelID: channelID,
		To:        to,
		Text:      text,
		HasImage:  hasImage,
		Timestamp: now(),
	}
}

type PresenceDTO struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

func NewPresenceDTO(ev domain.PresenceEvent) PresenceDTO {
	return PresenceDTO{
		Platform:  string(ev.Platform),
		ChannelID: ev.ChannelID,
		Username:  ev.Username,
		Timestamp: now(),
	}
}

// AppErrorDTO avisa al relay de un fallo interno que el usuario no ve.
type AppErrorDTO struct {
	Source    string `json:"source"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func NewAppErrorDTO(source string, err error) AppErrorDTO {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return AppErrorDTO{Source: source, Error: msg, Timestamp: now()}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
