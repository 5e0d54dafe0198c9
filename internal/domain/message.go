package domain

type Platform string

const (
	PlatformMumble  Platform = "mumble"
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
	PlatformConsole Platform = "console"
	PlatformWeb     Platform = "web"
)

type Message struct {
	Platform  Platform
	ChannelID string
	UserID    string
	Username  string
	Text      string
	IsPrivate bool
}

// Recipient identifica a quién va una respuesta privada.
type Recipient struct {
	ChannelID string
	UserID    string
	Username  string
}

func (m Message) Sender() Recipient {
	return Recipient{
		ChannelID: m.ChannelID,
		UserID:    m.UserID,
		Username:  m.Username,
	}
}

// PresenceEvent se emite cuando un usuario se conecta o entra al canal del bot.
type PresenceEvent struct {
	Platform  Platform
	ChannelID string
	UserID    string
	Username  string
	// IsSelf marca los eventos del propio bot.
	IsSelf bool
}
