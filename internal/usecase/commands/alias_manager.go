package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"droidBot/internal/domain"
)

type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Ambiguous
	Found
)

type Resolution struct {
	Kind    ResolutionKind
	Action  string
	Matches int
}

var (
	ErrReservedName = errors.New("reserved by a built-in command")
	ErrInvalidAlias = errors.New("invalid alias")
)

type AliasManager struct {
	repo   domain.AliasRepository
	logger *zap.Logger

	mu         sync.RWMutex
	isReserved func(string) bool
}

func NewAliasManager(repo domain.AliasRepository, logger *zap.Logger) *AliasManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AliasManager{
		repo:   repo,
		logger: logger.Named("aliases"),
	}
}

func (m *AliasManager) SetReservedChecker(fn func(string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isReserved = fn
}

func (m *AliasManager) reserved(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isReserved != nil && m.isReserved(name)
}

// Resolve busca el alias por nombre exacto. Más de una fila se trata como no encontrado.
func (m *AliasManager) Resolve(ctx context.Context, name string) (Resolution, error) {
	key := normalizeCommandName(name)
	if key == "" || m.repo == nil {
		return Resolution{Kind: NotFound}, nil
	}

	rows, err := m.repo.FindAliases(ctx, key)
	if err != nil {
		return Resolution{}, fmt.Errorf("aliases: resolve %s: %w", key, err)
	}

	switch len(rows) {
	case 0:
		return Resolution{Kind: NotFound}, nil
	case 1:
		return Resolution{Kind: Found, Action: rows[0].Action, Matches: 1}, nil
	default:
		m.logger.Warn("ambiguous alias", zap.String("alias", key), zap.Int("matches", len(rows)))
		return Resolution{Kind: Ambiguous, Matches: len(rows)}, nil
	}
}

// Create guarda el alias; created=false si el nombre ya estaba en uso.
func (m *AliasManager) Create(ctx context.Context, name, action, author string) (bool, error) {
	key := normalizeCommandName(name)
	action = strings.TrimSpace(action)
	if key == "" || action == "" || strings.ContainsAny(key, " \t\r\n") {
		return false, ErrInvalidAlias
	}
	if m.reserved(key) {
		return false, ErrReservedName
	}
	if m.repo == nil {
		return false, fmt.Errorf("aliases: no repository")
	}

	created, err := m.repo.CreateAlias(ctx, &domain.Alias{
		CommandName: key,
		Action:      action,
		Author:      author,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("aliases: create %s: %w", key, err)
	}
	if created {
		m.logger.Info("alias created", zap.String("alias", key), zap.String("action", action), zap.String("author", author))
	}
	return created, nil
}

func (m *AliasManager) Delete(ctx context.Context, name string) (int64, error) {
	key := normalizeCommandName(name)
	if key == "" {
		return 0, ErrInvalidAlias
	}
	if m.repo == nil {
		return 0, nil
	}
	n, err := m.repo.DeleteAlias(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("aliases: delete %s: %w", key, err)
	}
	return n, nil
}

func (m *AliasManager) List(ctx context.Context) ([]*domain.Alias, error) {
	if m.repo == nil {
		return nil, nil
	}
	list, err := m.repo.ListAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("aliases: list: %w", err)
	}
	return list, nil
}

func normalizeCommandName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ AliasResolver = (*AliasManager)(nil)
