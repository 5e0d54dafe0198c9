package commands

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/telemetry"
)

type PlayCommand struct {
	sounds  domain.SoundRepository
	backend domain.PlaybackBackend
	logger  *zap.Logger
}

func NewPlayCommand(sounds domain.SoundRepository, backend domain.PlaybackBackend, logger *zap.Logger) *PlayCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayCommand{sounds: sounds, backend: backend, logger: logger.Named("play")}
}

func (c *PlayCommand) Name() string {
	return "play"
}

func (c *PlayCommand) Usage() string {
	return "play [name]"
}

func (c *PlayCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) > 1 {
		return cmdCtx.Usage(ctx)
	}

	var name string
	if len(cmdCtx.Args) == 1 {
		name = cmdCtx.Args[0]
	} else {
		sound, err := c.sounds.RandomSound(ctx)
		if err != nil {
			return err
		}
		if sound == nil {
			return cmdCtx.Reply(ctx, "no sounds yet")
		}
		name = sound.Name
	}

	tracks, err := c.backend.FindTracks(ctx, name)
	if err != nil {
		return err
	}
	if len(tracks) != 1 {
		if len(tracks) > 1 {
			c.logger.Warn("ambiguous sound name", zap.String("name", name), zap.Int("matches", len(tracks)))
		}
		telemetry.IncPlayback("not_found")
		return cmdCtx.Reply(ctx, fmt.Sprintf("`%s` not found", name))
	}

	if err := c.backend.ClearQueue(ctx); err != nil {
		return err
	}
	if err := c.backend.Enqueue(ctx, tracks[0]); err != nil {
		return err
	}
	if err := c.backend.Play(ctx); err != nil {
		return err
	}

	telemetry.IncPlayback("played")
	c.logger.Info("playing", zap.String("name", name), zap.String("file", tracks[0].File), zap.String("user", cmdCtx.Message.Username))
	return nil
}

type GetCommand struct {
	acquirer  domain.ClipAcquirer
	sounds    domain.SoundRepository
	backend   domain.PlaybackBackend
	maxLength time.Duration
	newID     func() string
	logger    *zap.Logger
}

func NewGetCommand(acquirer domain.ClipAcquirer, sounds domain.SoundRepository, backend domain.PlaybackBackend, maxLength time.Duration, logger *zap.Logger) *GetCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GetCommand{
		acquirer:  acquirer,
		sounds:    sounds,
		backend:   backend,
		maxLength: maxLength,
		newID:     uuid.NewString,
		logger:    logger.Named("get"),
	}
}

func (c *GetCommand) Name() string {
	return "get"
}

func (c *GetCommand) Usage() string {
	return "get <url> <start> <length>"
}

func (c *GetCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 3 {
		return cmdCtx.Usage(ctx)
	}

	src := cmdCtx.Args[0]
	start, okStart := parseSeconds(cmdCtx.Args[1])
	length, okLength := parseSeconds(cmdCtx.Args[2])
	if !isHTTPURL(src) || !okStart || !okLength || length <= 0 || (c.maxLength > 0 && length > c.maxLength) {
		return cmdCtx.Usage(ctx)
	}

	id := c.newID()
	clip, err := c.acquirer.Acquire(ctx, domain.ClipRequest{
		URL:    src,
		Start:  start,
		Length: length,
		ID:     id,
	})
	if err != nil {
		c.logger.Error("clip acquisition failed", zap.String("id", id), zap.String("url", src), zap.Error(err))
		return cmdCtx.Reply(ctx, "couldn't get that clip")
	}

	if err := storeAndRefresh(ctx, c.sounds, c.backend, clip.ID, cmdCtx.Message.Username); err != nil {
		return err
	}

	if err := cmdCtx.Reply(ctx, fmt.Sprintf("got `%s`", clip.ID)); err != nil {
		c.logger.Warn("reply failed", zap.Error(err))
	}
	return cmdCtx.Run(ctx, "play", clip.ID)
}

type SayCommand struct {
	synth   domain.SpeechSynthesizer
	sounds  domain.SoundRepository
	backend domain.PlaybackBackend
	newID   func() string
	logger  *zap.Logger
}

func NewSayCommand(synth domain.SpeechSynthesizer, sounds domain.SoundRepository, backend domain.PlaybackBackend, logger *zap.Logger) *SayCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SayCommand{
		synth:   synth,
		sounds:  sounds,
		backend: backend,
		newID:   uuid.NewString,
		logger:  logger.Named("say"),
	}
}

func (c *SayCommand) Name() string {
	return "say"
}

func (c *SayCommand) Usage() string {
	return "say <text...>"
}

func (c *SayCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) == 0 {
		return cmdCtx.Usage(ctx)
	}

	text := strings.Join(cmdCtx.Args, " ")
	id := c.newID()
	clip, err := c.synth.Synthesize(ctx, text, id)
	if err != nil {
		c.logger.Error("speech synthesis failed", zap.String("id", id), zap.Error(err))
		return cmdCtx.Reply(ctx, "couldn't say that")
	}

	if err := storeAndRefresh(ctx, c.sounds, c.backend, clip.ID, cmdCtx.Message.Username); err != nil {
		return err
	}
	return cmdCtx.Run(ctx, "play", clip.ID)
}

func storeAndRefresh(ctx context.Context, sounds domain.SoundRepository, backend domain.PlaybackBackend, name, author string) error {
	if err := sounds.InsertSound(ctx, &domain.Sound{
		Name:      name,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return err
	}
	return backend.RefreshLibrary(ctx)
}

const maxSeconds = 24 * 60 * 60

// parseSeconds acepta segundos decimales no negativos ("12", "1.5").
func parseSeconds(raw string) (time.Duration, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > maxSeconds {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}

func isHTTPURL(raw string) bool {
	// restos de markup: el helper recibiría basura
	if strings.ContainsAny(raw, "<>\"") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
