package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"droidBot/internal/app/events"
	"droidBot/internal/domain"
)

const (
	writeWait     = 5 * time.Second
	apiTimeout    = 5 * time.Second
	maxFrameBytes = 4096

	WebChannelID = "web"
	DefaultAddr  = "127.0.0.1:8080"
)

// Subscriber es la parte del bus que usa el relay.
type Subscriber interface {
	Subscribe(topic string) (<-chan any, func())
}

// Server expone la API HTTP de lectura y un relay WebSocket del chat.
type Server struct {
	addr     string
	api      *apiHandlers
	events   Subscriber
	logger   *zap.Logger
	upgrader websocket.Upgrader
	origins  map[string]struct{}
	chat     bool

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	handler domain.MessageHandler
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Envelope es cada frame que recibe un cliente del relay.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var relayTopics = map[string]string{
	events.TopicChatMessage:   "message",
	events.TopicChatReply:     "reply",
	events.TopicPresence:      "presence",
	events.TopicPlatformEvent: "event",
	events.TopicAppError:      "error",
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:    cfg.addr(),
		api:     newAPIHandlers(cfg),
		events:  cfg.Events,
		logger:  logger.Named("api"),
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		chat:    cfg.AcceptChat,
		clients: make(map[*wsClient]struct{}),
	}
	for _, o := range cfg.AllowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			s.origins[o] = struct{}{}
		}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// checkOrigin acepta clientes sin Origin (no navegadores), el mismo host y la allow-list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := s.origins[normalizeOrigin(origin)]
	if !ok {
		s.logger.Warn("rejected websocket origin", zap.String("origin", origin), zap.String("remote", r.RemoteAddr))
	}
	return ok
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

func (s *Server) SetHandler(h domain.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Handler arma el router chi; ctx es el contexto de vida de las conexiones WS.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(apiTimeout))
		r.Use(cors)
		s.api.register(r)
	})

	r.Get("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	return r
}

// Start levanta el HTTP server y se bloquea hasta que el contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	if s.events != nil {
		s.startRelay(ctx)
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("shutdown error", zap.Error(err))
		}
		s.closeClients()
	}()

	s.logger.Info("listening", zap.String("addr", s.addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("api: listen: %w", err)
}

// startRelay se suscribe al bus y reenvía los eventos a todos los clientes WS.
func (s *Server) startRelay(ctx context.Context) {
	type frame struct {
		kind    string
		payload any
	}
	merged := make(chan frame)

	var wg sync.WaitGroup
	for topic, kind := range relayTopics {
		ch, unsubscribe := s.events.Subscribe(topic)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			for {
				select {
				case payload, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- frame{kind: kind, payload: payload}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	go func() {
		for f := range merged {
			s.broadcast(Envelope{Type: f.kind, Data: f.payload})
		}
	}()
}

func (s *Server) broadcast(env Envelope) {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(env); err != nil {
			s.logger.Debug("removing client after write error", zap.Error(err))
			s.removeClient(c)
		}
	}
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade error", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("client connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", count))

	go s.handleClient(ctx, client, r.RemoteAddr)
}

func (s *Server) handleClient(ctx context.Context, client *wsClient, remote string) {
	defer s.removeClient(client)

	for {
		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := s.dispatchIncoming(ctx, data, remote); err != nil {
			s.logger.Warn("incoming dispatch error", zap.Error(err))
		}
	}
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	count := len(s.clients)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = c.conn.Close()
	s.logger.Info("client disconnected", zap.Int("clients", count))
}

func (s *Server) closeClients() {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	for _, c := range clients {
		s.removeClient(c)
	}
}

type incomingPayload struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	IsPrivate bool   `json:"is_private"`
}

// dispatchIncoming acepta JSON {"text": ...} o texto plano.
func (s *Server) dispatchIncoming(ctx context.Context, data []byte, remote string) error {
	if !s.chat {
		s.logger.Debug("chat input disabled, dropping frame", zap.String("remote", remote))
		return nil
	}
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return nil
	}

	msg, err := ParseIncoming(data, remote)
	if err != nil {
		return err
	}
	return handler(ctx, msg)
}

// ParseIncoming convierte un frame del cliente en un mensaje de la plataforma web.
func ParseIncoming(data []byte, remote string) (domain.Message, error) {
	payload := incomingPayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = incomingPayload{Text: string(data)}
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return domain.Message{}, errors.New("api: empty incoming text")
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		username = "web-user"
	}

	return domain.Message{
		Platform:  domain.PlatformWeb,
		ChannelID: WebChannelID,
		UserID:    remote,
		Username:  username,
		Text:      text,
		IsPrivate: payload.IsPrivate,
	}, nil
}

// Las respuestas a la plataforma web llegan a los clientes como chat:reply vía el bus;
// registrar el Server en outs.MultiSender solo confirma la entrega.
func (s *Server) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformWeb {
		return fmt.Errorf("api: unsupported platform %s", platform)
	}
	return nil
}

func (s *Server) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	return s.SendMessage(ctx, platform, to.ChannelID, text)
}

func (s *Server) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	return s.SendMessage(ctx, platform, channelID, img.Caption)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
