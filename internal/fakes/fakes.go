// Package fakes contiene dobles en memoria de los puertos de dominio para tests.
package fakes

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"droidBot/internal/domain"
)

type Sent struct {
	Platform  domain.Platform
	ChannelID string
	To        *domain.Recipient
	Text      string
	Image     *domain.Image
}

// Outbox registra todo lo enviado por el bot.
type Outbox struct {
	mu   sync.Mutex
	Sent []Sent
}

func (o *Outbox) SendMessage(_ context.Context, platform domain.Platform, channelID, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sent = append(o.Sent, Sent{Platform: platform, ChannelID: channelID, Text: text})
	return nil
}

func (o *Outbox) SendToUser(_ context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sent = append(o.Sent, Sent{Platform: platform, ChannelID: to.ChannelID, To: &to, Text: text})
	return nil
}

func (o *Outbox) SendImage(_ context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sent = append(o.Sent, Sent{Platform: platform, ChannelID: channelID, Text: img.Caption, Image: &img})
	return nil
}

func (o *Outbox) Texts() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.Sent))
	for _, s := range o.Sent {
		out = append(out, s.Text)
	}
	return out
}

func (o *Outbox) Last() Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Sent) == 0 {
		return Sent{}
	}
	return o.Sent[len(o.Sent)-1]
}

func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sent = nil
}

// Store implementa los tres repositorios en memoria con las mismas reglas de unicidad que SQLite.
type Store struct {
	mu      sync.Mutex
	links   []*domain.Link
	sounds  []*domain.Sound
	aliases []*domain.Alias
	// ExtraAliases simula filas duplicadas insertadas fuera del bot.
	ExtraAliases []*domain.Alias
	Err          error

	AliasLookups int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) InsertLink(_ context.Context, link *domain.Link) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, l := range s.links {
		if l.Dest == link.Dest {
			return false, nil
		}
	}
	cp := *link
	cp.ID = int64(len(s.links) + 1)
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	s.links = append(s.links, &cp)
	return true, nil
}

func (s *Store) RandomLink(context.Context) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.links) == 0 {
		return nil, nil
	}
	cp := *s.links[rand.IntN(len(s.links))]
	return &cp, nil
}

func (s *Store) CountLinks(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links), s.Err
}

func (s *Store) ListLinks(_ context.Context, limit int) ([]*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Link
	for i := len(s.links) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *s.links[i]
		out = append(out, &cp)
	}
	return out, s.Err
}

func (s *Store) Links() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l.Dest)
	}
	return out
}

func (s *Store) InsertSound(_ context.Context, sound *domain.Sound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.sounds {
		if existing.Name == sound.Name {
			return fmt.Errorf("fakes: insert sound %s: %w", sound.Name, domain.ErrDuplicate)
		}
	}
	cp := *sound
	s.sounds = append(s.sounds, &cp)
	return nil
}

func (s *Store) RandomSound(context.Context) (*domain.Sound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.sounds) == 0 {
		return nil, nil
	}
	cp := *s.sounds[rand.IntN(len(s.sounds))]
	return &cp, nil
}

func (s *Store) CountSounds(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sounds), s.Err
}

func (s *Store) ListSounds(context.Context) ([]*domain.Sound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Sound, 0, len(s.sounds))
	for _, snd := range s.sounds {
		cp := *snd
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, s.Err
}

func (s *Store) CreateAlias(_ context.Context, alias *domain.Alias) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, a := range s.aliases {
		if a.CommandName == alias.CommandName {
			return false, nil
		}
	}
	cp := *alias
	s.aliases = append(s.aliases, &cp)
	return true, nil
}

func (s *Store) DeleteAlias(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	kept := s.aliases[:0]
	for _, a := range s.aliases {
		if a.CommandName == name {
			n++
			continue
		}
		kept = append(kept, a)
	}
	s.aliases = kept
	return n, nil
}

func (s *Store) FindAliases(_ context.Context, name string) ([]*domain.Alias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AliasLookups++
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*domain.Alias
	for _, a := range append(append([]*domain.Alias(nil), s.aliases...), s.ExtraAliases...) {
		if a.CommandName == name {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListAliases(context.Context) ([]*domain.Alias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Alias, 0, len(s.aliases))
	for _, a := range s.aliases {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommandName < out[j].CommandName })
	return out, s.Err
}

// Backend simula MPD: la biblioteca es una lista de archivos y la búsqueda es por subcadena.
type Backend struct {
	mu        sync.Mutex
	Library   []string
	Queue     []string
	Playing   bool
	Refreshes int
	Err       error
}

func (b *Backend) RefreshLibrary(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Refreshes++
	return b.Err
}

func (b *Backend) FindTracks(_ context.Context, name string) ([]domain.Track, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	var out []domain.Track
	for _, file := range b.Library {
		if strings.Contains(strings.ToLower(file), strings.ToLower(name)) {
			out = append(out, domain.Track{File: file})
		}
	}
	return out, nil
}

func (b *Backend) ClearQueue(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queue = nil
	b.Playing = false
	return b.Err
}

func (b *Backend) Enqueue(_ context.Context, track domain.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queue = append(b.Queue, track.File)
	return b.Err
}

func (b *Backend) Play(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Playing = true
	return b.Err
}

func (b *Backend) AddFile(file string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Library = append(b.Library, file)
}

func (b *Backend) Snapshot() (queue []string, playing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Queue...), b.Playing
}

// Acquirer simula el helper de descarga; añade el clip a Backend si se configura.
type Acquirer struct {
	Requests []domain.ClipRequest
	Backend  *Backend
	Err      error
}

func (a *Acquirer) Acquire(_ context.Context, req domain.ClipRequest) (domain.Clip, error) {
	a.Requests = append(a.Requests, req)
	if a.Err != nil {
		return domain.Clip{}, a.Err
	}
	if a.Backend != nil {
		a.Backend.AddFile(req.ID + ".mp3")
	}
	return domain.Clip{ID: req.ID, Path: req.ID + ".mp3", Duration: req.Length}, nil
}

type Synthesizer struct {
	Texts   []string
	Backend *Backend
	Err     error
}

func (s *Synthesizer) Synthesize(_ context.Context, text, id string) (domain.Clip, error) {
	s.Texts = append(s.Texts, text)
	if s.Err != nil {
		return domain.Clip{}, s.Err
	}
	if s.Backend != nil {
		s.Backend.AddFile(id + ".mp3")
	}
	return domain.Clip{ID: id, Path: id + ".mp3"}, nil
}

var (
	_ domain.OutgoingMessagePort = (*Outbox)(nil)
	_ domain.LinkRepository      = (*Store)(nil)
	_ domain.SoundRepository     = (*Store)(nil)
	_ domain.AliasRepository     = (*Store)(nil)
	_ domain.PlaybackBackend     = (*Backend)(nil)
	_ domain.ClipAcquirer        = (*Acquirer)(nil)
	_ domain.SpeechSynthesizer   = (*Synthesizer)(nil)
)
