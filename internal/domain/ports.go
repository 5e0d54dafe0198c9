package domain

import (
	"context"
	"time"
)

// Image es una imagen para enviar al canal. Caption se usa en plataformas sin soporte de imágenes.
type Image struct {
	Data     []byte
	MIMEType string
	Caption  string
}

type OutgoingMessagePort interface {
	SendMessage(ctx context.Context, platform Platform, channelID, text string) error
	SendToUser(ctx context.Context, platform Platform, to Recipient, text string) error
	SendImage(ctx context.Context, platform Platform, channelID string, img Image) error
}

type Track struct {
	File  string
	Title string
}

// PlaybackBackend es el reproductor externo (MPD) que emite audio al canal de voz.
type PlaybackBackend interface {
	RefreshLibrary(ctx context.Context) error
	FindTracks(ctx context.Context, name string) ([]Track, error)
	ClearQueue(ctx context.Context) error
	Enqueue(ctx context.Context, track Track) error
	Play(ctx context.Context) error
}

type ClipRequest struct {
	URL    string
	Start  time.Duration
	Length time.Duration
	ID     string
}

type Clip struct {
	ID       string
	Path     string
	Duration time.Duration
}

type ClipAcquirer interface {
	Acquire(ctx context.Context, req ClipRequest) (Clip, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, id string) (Clip, error)
}

// MessageHandler y PresenceHandler son los callbacks que los adapters de chat invocan.
type MessageHandler func(ctx context.Context, msg Message) error

type PresenceHandler func(ctx context.Context, ev PresenceEvent) error
