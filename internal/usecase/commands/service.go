package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"droidBot/internal/domain"
)

const (
	CommandSourceBuiltin = "builtin"
	CommandSourceAlias   = "alias"
)

type CommandDTO struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Usage       string `json:"usage,omitempty"`
	Description string `json:"description,omitempty"`
	Action      string `json:"action,omitempty"`
	Author      string `json:"author,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Deps struct {
	Prefix        string
	Out           domain.OutgoingMessagePort
	Links         domain.LinkRepository
	Sounds        domain.SoundRepository
	Aliases       *AliasManager
	Backend       domain.PlaybackBackend
	Acquirer      domain.ClipAcquirer
	Speech        domain.SpeechSynthesizer
	MaxClipLength time.Duration
	Logger        *zap.Logger
}

// Setup registra los comandos internos y enlaza el chequeo de nombres reservados.
func Setup(deps Deps) *Router {
	r := NewRouter(deps.Prefix, deps.Out, deps.Aliases, deps.Logger)

	r.Register(NewPingCommand())
	r.Register(NewHelpCommand(r))
	r.Register(NewAliasCommand(deps.Aliases))
	r.Register(NewDelAliasCommand(deps.Aliases))
	r.Register(NewAliasesCommand(deps.Aliases))
	r.Register(NewStatsCommand(deps.Links, deps.Sounds))
	r.Register(NewLinkCommand(deps.Links))
	r.Register(NewSoundsCommand(deps.Sounds))
	r.Register(NewPlayCommand(deps.Sounds, deps.Backend, deps.Logger))
	if deps.Acquirer != nil {
		r.Register(NewGetCommand(deps.Acquirer, deps.Sounds, deps.Backend, deps.MaxClipLength, deps.Logger))
	}
	if deps.Speech != nil {
		r.Register(NewSayCommand(deps.Speech, deps.Sounds, deps.Backend, deps.Logger))
	}

	deps.Aliases.SetReservedChecker(r.IsBuiltin)
	return r
}

// Service expone el catálogo completo (internos + alias) a la API.
type Service struct {
	router  *Router
	aliases *AliasManager
}

func NewService(router *Router, aliases *AliasManager) *Service {
	return &Service{router: router, aliases: aliases}
}

func (s *Service) List(ctx context.Context) ([]CommandDTO, error) {
	catalog := s.router.Catalog()
	out := make([]CommandDTO, 0, len(catalog))
	for _, item := range catalog {
		out = append(out, CommandDTO{
			Name:        item.Name,
			Source:      CommandSourceBuiltin,
			Usage:       item.Usage,
			Description: item.Description,
		})
	}

	aliases, err := s.aliases.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		out = append(out, aliasDTO(a))
	}
	return out, nil
}

func aliasDTO(a *domain.Alias) CommandDTO {
	created := ""
	if !a.Timestamp.IsZero() {
		created = a.Timestamp.UTC().Format(time.RFC3339)
	}
	return CommandDTO{
		Name:      a.CommandName,
		Source:    CommandSourceAlias,
		Action:    a.Action,
		Author:    a.Author,
		CreatedAt: created,
	}
}
