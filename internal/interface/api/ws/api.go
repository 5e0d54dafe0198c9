package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/usecase/commands"
)

const (
	defaultLinkLimit = 50
	maxLinkLimit     = 500
)

type Config struct {
	Addr string
	// AllowedOrigins amplía la comprobación same-origin del WebSocket.
	AllowedOrigins []string
	// AcceptChat habilita que los frames entrantes lleguen al pipeline.
	AcceptChat bool
	Links      domain.LinkRepository
	Sounds     domain.SoundRepository
	Aliases    AliasLister
	Commands   CommandLister
	Events     Subscriber
	Logger     *zap.Logger
}

type AliasLister interface {
	List(ctx context.Context) ([]*domain.Alias, error)
}

type CommandLister interface {
	List(ctx context.Context) ([]commands.CommandDTO, error)
}

func (c *Config) addr() string {
	if strings.TrimSpace(c.Addr) == "" {
		return DefaultAddr
	}
	return c.Addr
}

type apiHandlers struct {
	links    domain.LinkRepository
	sounds   domain.SoundRepository
	aliases  AliasLister
	commands CommandLister
	logger   *zap.Logger
}

func newAPIHandlers(cfg Config) *apiHandlers {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &apiHandlers{
		links:    cfg.Links,
		sounds:   cfg.Sounds,
		aliases:  cfg.Aliases,
		commands: cfg.Commands,
		logger:   logger.Named("api"),
	}
}

func (a *apiHandlers) register(r chi.Router) {
	r.Get("/links", a.handleLinks)
	r.Get("/sounds", a.handleSounds)
	r.Get("/aliases", a.handleAliases)
	r.Get("/stats", a.handleStats)
	r.Get("/commands", a.handleCommands)
}

type linkResponse struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Dest      string `json:"dest"`
	Timestamp string `json:"timestamp"`
}

type soundResponse struct {
	Name      string `json:"name"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

type aliasResponse struct {
	Name      string `json:"name"`
	Action    string `json:"action"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

type statsResponse struct {
	Links  int `json:"links"`
	Sounds int `json:"sounds"`
}

func (a *apiHandlers) handleLinks(w http.ResponseWriter, r *http.Request) {
	if a.links == nil {
		writeError(w, http.StatusServiceUnavailable, "links not available")
		return
	}

	limit := defaultLinkLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLinkLimit)
	}

	links, err := a.links.ListLinks(r.Context(), limit)
	if err != nil {
		a.internalError(w, "list links", err)
		return
	}
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, linkResponse{ID: l.ID, Author: l.Author, Dest: l.Dest, Timestamp: formatTime(l.Timestamp)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiHandlers) handleSounds(w http.ResponseWriter, r *http.Request) {
	if a.sounds == nil {
		writeError(w, http.StatusServiceUnavailable, "sounds not available")
		return
	}
	sounds, err := a.sounds.ListSounds(r.Context())
	if err != nil {
		a.internalError(w, "list sounds", err)
		return
	}
	out := make([]soundResponse, 0, len(sounds))
	for _, s := range sounds {
		out = append(out, soundResponse{Name: s.Name, Author: s.Author, Timestamp: formatTime(s.Timestamp)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiHandlers) handleAliases(w http.ResponseWriter, r *http.Request) {
	if a.aliases == nil {
		writeError(w, http.StatusServiceUnavailable, "aliases not available")
		return
	}
	aliases, err := a.aliases.List(r.Context())
	if err != nil {
		a.internalError(w, "list aliases", err)
		return
	}
	out := make([]aliasResponse, 0, len(aliases))
	for _, al := range aliases {
		out = append(out, aliasResponse{Name: al.CommandName, Action: al.Action, Author: al.Author, Timestamp: formatTime(al.Timestamp)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if a.links == nil || a.sounds == nil {
		writeError(w, http.StatusServiceUnavailable, "stats not available")
		return
	}
	links, err := a.links.CountLinks(r.Context())
	if err != nil {
		a.internalError(w, "count links", err)
		return
	}
	sounds, err := a.sounds.CountSounds(r.Context())
	if err != nil {
		a.internalError(w, "count sounds", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Links: links, Sounds: sounds})
}

func (a *apiHandlers) handleCommands(w http.ResponseWriter, r *http.Request) {
	if a.commands == nil {
		writeError(w, http.StatusServiceUnavailable, "commands not available")
		return
	}
	list, err := a.commands.List(r.Context())
	if err != nil {
		a.internalError(w, "list commands", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *apiHandlers) internalError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
