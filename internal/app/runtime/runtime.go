package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"droidBot/internal/app"
	"droidBot/internal/app/events"
	"droidBot/internal/domain"
	"droidBot/internal/infrastructure/clip"
	"droidBot/internal/infrastructure/config"
	sqlitestorage "droidBot/internal/infrastructure/persistence/sqlite"
	"droidBot/internal/infrastructure/playback/mpd"
	consoleadapter "droidBot/internal/interface/adapters/console"
	kickadapter "droidBot/internal/interface/adapters/kick"
	mumbleadapter "droidBot/internal/interface/adapters/mumble"
	twitchadapter "droidBot/internal/interface/adapters/twitch"
	ws "droidBot/internal/interface/api/ws"
	"droidBot/internal/interface/outs"
	"droidBot/internal/telemetry"
	"droidBot/internal/usecase/commands"
	"droidBot/internal/usecase/handle_message"
	"droidBot/internal/usecase/notifications"
	"droidBot/internal/usecase/speech"
)

type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// Stdin/Stdout del prompt de consola; nil = os.Stdin/os.Stdout.
	Stdin  io.Reader
	Stdout io.Writer
}

type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	store      *sqlitestorage.Store
	bus        *events.Bus
	multiOut   *outs.MultiSender
	platform   *app.PlatformManager
	aliases    *commands.AliasManager
	commandSvc *commands.Service
	interactor *handle_message.Interactor

	stopOnce sync.Once
}

func Start(ctx context.Context, opts Options) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("runtime: nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	telemetry.Init()

	store, err := sqlitestorage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	runtimeCtx, cancel := context.WithCancel(ctx)

	bus := events.NewBus(logger)
	multiOut := outs.NewMultiSender()
	multiOut.SetPublisher(bus)

	backend := mpd.NewBackend(cfg.MPD.Network, cfg.MPD.Address, cfg.MPD.Password, logger)
	acquirer := clip.NewAcquirer(cfg.Clip.Script, cfg.MPD.LibraryDir, cfg.Clip.Timeout, logger)

	var synth domain.SpeechSynthesizer
	if cfg.Speech.Enabled {
		svc, err := speech.NewService(cfg.MPD.LibraryDir, cfg.Speech.Voice, logger)
		if err != nil {
			cancel()
			store.Close()
			return nil, fmt.Errorf("runtime: %w", err)
		}
		synth = svc
	}

	aliases := commands.NewAliasManager(store, logger)
	router := commands.Setup(commands.Deps{
		Prefix:        cfg.Bot.Prefix,
		Out:           multiOut,
		Links:         store,
		Sounds:        store,
		Aliases:       aliases,
		Backend:       backend,
		Acquirer:      acquirer,
		Speech:        synth,
		MaxClipLength: cfg.Clip.MaxLength,
		Logger:        logger,
	})

	loopImage, err := loadImage(cfg.Bot.AliasLoopImage)
	if err != nil {
		logger.Warn("alias loop image not loaded, falling back to text", zap.Error(err))
	}

	interactor := handle_message.NewInteractor(handle_message.Config{
		Router:     router,
		Links:      store,
		Out:        multiOut,
		Events:     bus,
		MaxDepth:   cfg.Bot.MaxAliasDepth,
		PlayOnJoin: cfg.Bot.PlayOnJoin,
		LoopImage:  loopImage,
		Logger:     logger,
	})

	platform := app.NewPlatformManager(app.ManagerConfig{
		Context:  runtimeCtx,
		MultiOut: multiOut,
		Logger:   logger,
	})
	platform.SetHandler(interactor.Handle)
	platform.SetPresenceHandler(interactor.HandlePresence)

	run := &Runtime{
		ctx:        runtimeCtx,
		cancel:     cancel,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		bus:        bus,
		multiOut:   multiOut,
		platform:   platform,
		aliases:    aliases,
		commandSvc: commands.NewService(router, aliases),
		interactor: interactor,
	}

	run.enableAdapters(opts)

	logger.Info("bot started",
		zap.String("prefix", cfg.Bot.Prefix),
		zap.Int("max_alias_depth", cfg.Bot.MaxAliasDepth),
		zap.Any("platforms", platform.Running()),
	)
	return run, nil
}

func (r *Runtime) enableAdapters(opts Options) {
	cfg := r.cfg

	if strings.TrimSpace(cfg.Mumble.Host) != "" {
		r.platform.Enable(domain.PlatformMumble, mumbleadapter.NewAdapter(mumbleadapter.Config{
			Host:     cfg.Mumble.Host,
			Name:     cfg.Mumble.Name,
			Password: cfg.Mumble.Password,
			Channel:  cfg.Mumble.Channel,
			CertDir:  cfg.Mumble.CertDir,
			Insecure: cfg.Mumble.Insecure,
		}, r.logger))
	}

	eventLogger := notifications.NewEventLogger(r.logger, r.bus)

	if cfg.TwitchEnabled() {
		r.platform.Enable(domain.PlatformTwitch, twitchadapter.NewAdapter(twitchadapter.Config{
			Username:          cfg.Twitch.Username,
			OAuthToken:        formatTwitchOAuthToken(cfg.Twitch.Token),
			Channels:          cfg.Twitch.Channels,
			UserNoticeHandler: eventLogger.HandleTwitchUserNotice,
		}, r.logger))
	}

	if cfg.KickEnabled() {
		r.platform.Enable(domain.PlatformKick, kickadapter.NewAdapter(kickadapter.Config{
			AccessToken:       cfg.Kick.AccessToken,
			BroadcasterUserID: cfg.Kick.BroadcasterUserID,
			ChatroomID:        cfg.Kick.ChatroomID,
			BotUsername:       cfg.Kick.BotUsername,
			EventHandler:      eventLogger.HandleKickMessage,
		}, r.logger))
	}

	if strings.TrimSpace(cfg.API.Addr) != "" {
		r.platform.Enable(domain.PlatformWeb, ws.NewServer(ws.Config{
			Addr:           cfg.API.Addr,
			AllowedOrigins: cfg.API.AllowedOrigins,
			AcceptChat:     cfg.API.AcceptChat,
			Links:          r.store,
			Sounds:         r.store,
			Aliases:        r.aliases,
			Commands:       r.commandSvc,
			Events:         r.bus,
			Logger:         r.logger,
		}))
	}

	if cfg.Bot.Console {
		in, out := opts.Stdin, opts.Stdout
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		r.platform.Enable(domain.PlatformConsole, consoleadapter.NewAdapter(in, out, "", r.logger))
	}
}

// Wait bloquea hasta que se cancela el contexto del runtime.
func (r *Runtime) Wait() {
	<-r.ctx.Done()
}

func (r *Runtime) Stop() error {
	if r == nil {
		return nil
	}
	var err error
	r.stopOnce.Do(func() {
		r.cancel()
		r.platform.Shutdown()
		r.bus.Close()
		if closeErr := r.store.Close(); closeErr != nil {
			err = fmt.Errorf("runtime: close store: %w", closeErr)
		}
		r.logger.Info("bot stopped")
	})
	return err
}

func (r *Runtime) Bus() *events.Bus {
	if r == nil {
		return nil
	}
	return r.bus
}

func (r *Runtime) CommandService() *commands.Service {
	if r == nil {
		return nil
	}
	return r.commandSvc
}

func (r *Runtime) Config() *config.Config {
	if r == nil {
		return nil
	}
	return r.cfg
}

// DispatchMessage entra al pipeline como si el mensaje viniera de un adapter.
func (r *Runtime) DispatchMessage(ctx context.Context, msg domain.Message) error {
	if r == nil || r.interactor == nil {
		return fmt.Errorf("runtime: dispatcher unavailable")
	}
	if ctx == nil {
		ctx = r.ctx
	}
	return r.interactor.Handle(ctx, msg)
}

// loadImage lee la imagen del bucle de alias; path vacío no es error.
func loadImage(path string) (*domain.Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}
	return &domain.Image{Data: data, MIMEType: mimeType}, nil
}

func formatTwitchOAuthToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}
