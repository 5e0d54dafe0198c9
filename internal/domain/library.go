package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicate = errors.New("already exists")
	ErrNotFound  = errors.New("not found")
)

type Link struct {
	ID        int64
	Author    string
	Dest      string
	Timestamp time.Time
}

type Sound struct {
	Name      string
	Author    string
	Timestamp time.Time
}

type Alias struct {
	CommandName string
	Action      string
	Author      string
	Timestamp   time.Time
}

type LinkRepository interface {
	// InsertLink devuelve false si el destino ya estaba guardado.
	InsertLink(ctx context.Context, link *Link) (bool, error)
	RandomLink(ctx context.Context) (*Link, error)
	CountLinks(ctx context.Context) (int, error)
	ListLinks(ctx context.Context, limit int) ([]*Link, error)
}

type SoundRepository interface {
	InsertSound(ctx context.Context, sound *Sound) error
	RandomSound(ctx context.Context) (*Sound, error)
	CountSounds(ctx context.Context) (int, error)
	ListSounds(ctx context.Context) ([]*Sound, error)
}

type AliasRepository interface {
	// CreateAlias devuelve false si ya existe un alias con ese nombre.
	CreateAlias(ctx context.Context, alias *Alias) (bool, error)
	DeleteAlias(ctx context.Context, name string) (int64, error)
	FindAliases(ctx context.Context, name string) ([]*Alias, error)
	ListAliases(ctx context.Context) ([]*Alias, error)
}
