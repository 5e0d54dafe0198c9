// Package handle_message es el pipeline de mensajes entrantes: limpia el texto,
// despacha comandos (expandiendo alias con límite de profundidad) y guarda los links.
package handle_message

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"droidBot/internal/app/events"
	"droidBot/internal/domain"
	"droidBot/internal/telemetry"
	"droidBot/internal/usecase/commands"
)

const (
	DefaultMaxAliasDepth = 16
	aliasLoopText        = "alias loop detected"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

type Config struct {
	Router     *commands.Router
	Links      domain.LinkRepository
	Out        domain.OutgoingMessagePort
	Events     events.Publisher
	MaxDepth   int
	PlayOnJoin bool
	// LoopImage se envía en lugar del texto cuando una cadena de alias supera MaxDepth.
	LoopImage *domain.Image
	Logger    *zap.Logger
}

type Interactor struct {
	router     *commands.Router
	links      domain.LinkRepository
	out        domain.OutgoingMessagePort
	events     events.Publisher
	maxDepth   int
	playOnJoin bool
	loopImage  *domain.Image
	logger     *zap.Logger

	// un solo flujo lógico: cada evento se procesa completo, alias incluidos
	mu sync.Mutex
}

func NewInteractor(cfg Config) *Interactor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxAliasDepth
	}
	return &Interactor{
		router:     cfg.Router,
		links:      cfg.Links,
		out:        cfg.Out,
		events:     cfg.Events,
		maxDepth:   depth,
		playOnJoin: cfg.PlayOnJoin,
		loopImage:  cfg.LoopImage,
		logger:     logger.Named("pipeline"),
	}
}

func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) (err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			uc.logger.Error("panic while handling message",
				zap.Any("panic", rec),
				zap.String("platform", string(msg.Platform)),
				zap.String("text", msg.Text),
			)
			err = fmt.Errorf("handle_message: panic: %v", rec)
			uc.publish(events.TopicAppError, events.NewAppErrorDTO("pipeline", err))
		}
	}()

	telemetry.IncMessage(string(msg.Platform))
	uc.publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
	uc.logger.Debug("message",
		zap.String("platform", string(msg.Platform)),
		zap.String("user", msg.Username),
		zap.String("text", msg.Text),
	)

	uc.process(ctx, msg, msg.Text, 0)
	return nil
}

// HandlePresence lanza un !play implícito cuando alguien entra al canal del bot.
func (uc *Interactor) HandlePresence(ctx context.Context, ev domain.PresenceEvent) error {
	if ev.IsSelf {
		return nil
	}
	uc.publish(events.TopicPresence, events.NewPresenceDTO(ev))
	if !uc.playOnJoin || uc.router == nil {
		return nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			uc.logger.Error("panic while handling presence", zap.Any("panic", rec))
		}
	}()

	uc.logger.Info("user joined, playing a random sound",
		zap.String("platform", string(ev.Platform)),
		zap.String("user", ev.Username),
	)
	msg := domain.Message{
		Platform:  ev.Platform,
		ChannelID: ev.ChannelID,
		UserID:    ev.UserID,
		Username:  ev.Username,
		Text:      uc.router.Prefix() + "play",
	}
	uc.router.Run(ctx, msg, "play", nil, 0)
	return nil
}

func (uc *Interactor) process(ctx context.Context, msg domain.Message, text string, depth int) {
	if depth > uc.maxDepth {
		uc.aliasLoop(ctx, msg, depth)
		return
	}

	cleaned := CleanText(text)

	if inv, ok := uc.router.Parse(cleaned); ok {
		inv.Depth = depth
		res := uc.router.Dispatch(ctx, msg, inv)
		if res.Outcome == commands.Rewrite {
			telemetry.Inc(telemetry.AliasExpansions)
			uc.logger.Debug("alias expanded",
				zap.String("command", inv.Name),
				zap.String("action", res.Action),
				zap.Int("depth", depth),
			)
			uc.process(ctx, msg, res.Action, depth+1)
		}
	} else if depth > 0 && cleaned != "" {
		// alias cuya acción no es un comando: respuesta de texto fija
		uc.send(ctx, msg, cleaned)
	}

	uc.harvestLinks(ctx, msg, cleaned)
}

func (uc *Interactor) aliasLoop(ctx context.Context, msg domain.Message, depth int) {
	telemetry.Inc(telemetry.AliasDepthExceeded)
	uc.logger.Info("alias depth exceeded",
		zap.Int("depth", depth),
		zap.Int("max_depth", uc.maxDepth),
		zap.String("user", msg.Username),
		zap.String("text", msg.Text),
	)

	var err error
	if uc.loopImage != nil {
		img := *uc.loopImage
		if img.Caption == "" {
			img.Caption = aliasLoopText
		}
		err = uc.out.SendImage(ctx, msg.Platform, msg.ChannelID, img)
	} else {
		err = uc.out.SendMessage(ctx, msg.Platform, msg.ChannelID, aliasLoopText)
	}
	if err != nil {
		uc.logger.Warn("alias loop notice failed", zap.Error(err))
	}
}

func (uc *Interactor) send(ctx context.Context, msg domain.Message, text string) {
	if err := uc.out.SendMessage(ctx, msg.Platform, msg.ChannelID, text); err != nil {
		uc.logger.Warn("send failed", zap.Error(err))
	}
}

func (uc *Interactor) harvestLinks(ctx context.Context, msg domain.Message, text string) {
	if uc.links == nil {
		return
	}
	for _, dest := range ExtractLinks(text) {
		created, err := uc.links.InsertLink(ctx, &domain.Link{
			Author:    msg.Username,
			Dest:      dest,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			uc.logger.Error("storing link failed", zap.String("dest", dest), zap.Error(err))
			uc.publish(events.TopicAppError, events.NewAppErrorDTO("links", err))
			continue
		}
		if created {
			telemetry.Inc(telemetry.LinksHarvested)
			uc.logger.Debug("link stored", zap.String("dest", dest), zap.String("author", msg.Username))
		}
	}
}

func (uc *Interactor) publish(topic string, payload any) {
	if uc.events != nil {
		uc.events.Publish(topic, payload)
	}
}

// CleanText quita espacios finales y el primer tramo <...> del mensaje.
func CleanText(text string) string {
	text = strings.TrimRight(text, " \t\r\n")
	if open := strings.Index(text, "<"); open >= 0 {
		if end := strings.Index(text[open:], ">"); end >= 0 {
			text = text[:open] + text[open+end+1:]
		}
	}
	return strings.TrimSpace(text)
}

// ExtractLinks devuelve los URLs http(s) del texto sin repetir, en orden de aparición.
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?)]}")
		if host := strings.TrimPrefix(strings.TrimPrefix(m, "https://"), "http://"); host == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
