package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"droidBot/internal/domain"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"links", `
CREATE TABLE IF NOT EXISTS links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author TEXT NOT NULL,
	dest TEXT NOT NULL UNIQUE,
	timestamp DATETIME NOT NULL
);`},
		{"sounds", `
CREATE TABLE IF NOT EXISTS sounds (
	soundname TEXT NOT NULL UNIQUE,
	author TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);`},
		{"aliases", `
CREATE TABLE IF NOT EXISTS aliases (
	commandname TEXT NOT NULL UNIQUE,
	action TEXT NOT NULL,
	author TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);`},
		{"sounds index", `CREATE INDEX IF NOT EXISTS idx_sounds_timestamp ON sounds(timestamp);`},
	}

	for _, s := range stmts {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("sqlite: migrate %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ----- Links -----

func (s *Store) InsertLink(ctx context.Context, link *domain.Link) (bool, error) {
	if link == nil {
		return false, fmt.Errorf("sqlite: link nil")
	}
	if link.Timestamp.IsZero() {
		link.Timestamp = time.Now().UTC()
	}

	const stmt = `
INSERT INTO links (author, dest, timestamp)
VALUES (?, ?, ?)
ON CONFLICT(dest) DO NOTHING;
`

	res, err := s.db.ExecContext(ctx, stmt, link.Author, link.Dest, link.Timestamp)
	if err != nil {
		return false, fmt.Errorf("sqlite: insert link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: insert link: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		link.ID = id
	}
	return true, nil
}

func (s *Store) RandomLink(ctx context.Context) (*domain.Link, error) {
	const query = `
SELECT id, author, dest, timestamp
FROM links
ORDER BY RANDOM()
LIMIT 1;
`

	var link domain.Link
	var ts sql.NullTime
	err := s.db.QueryRowContext(ctx, query).Scan(&link.ID, &link.Author, &link.Dest, &ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: random link: %w", err)
	}
	link.Timestamp = ts.Time
	return &link, nil
}

func (s *Store) CountLinks(ctx context.Context) (int, error) {
	return s.count(ctx, "links")
}

func (s *Store) ListLinks(ctx context.Context, limit int) ([]*domain.Link, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, author, dest, timestamp
FROM links
ORDER BY id DESC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list links: %w", err)
	}
	defer rows.Close()

	var out []*domain.Link
	for rows.Next() {
		var link domain.Link
		var ts sql.NullTime
		if err := rows.Scan(&link.ID, &link.Author, &link.Dest, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan link: %w", err)
		}
		link.Timestamp = ts.Time
		out = append(out, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list links rows: %w", err)
	}
	return out, nil
}

// ----- Sounds -----

func (s *Store) InsertSound(ctx context.Context, sound *domain.Sound) error {
	if sound == nil {
		return fmt.Errorf("sqlite: sound nil")
	}
	if strings.TrimSpace(sound.Name) == "" {
		return fmt.Errorf("sqlite: empty sound name")
	}
	if sound.Timestamp.IsZero() {
		sound.Timestamp = time.Now().UTC()
	}

	const stmt = `
INSERT INTO sounds (soundname, author, timestamp)
VALUES (?, ?, ?)
ON CONFLICT(soundname) DO NOTHING;
`

	res, err := s.db.ExecContext(ctx, stmt, sound.Name, sound.Author, sound.Timestamp)
	if err != nil {
		return fmt.Errorf("sqlite: insert sound: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: insert sound %q: %w", sound.Name, domain.ErrDuplicate)
	}
	return nil
}

func (s *Store) RandomSound(ctx context.Context) (*domain.Sound, error) {
	const query = `
SELECT soundname, author, timestamp
FROM sounds
ORDER BY RANDOM()
LIMIT 1;
`

	var sound domain.Sound
	var ts sql.NullTime
	err := s.db.QueryRowContext(ctx, query).Scan(&sound.Name, &sound.Author, &ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: random sound: %w", err)
	}
	sound.Timestamp = ts.Time
	return &sound, nil
}

func (s *Store) CountSounds(ctx context.Context) (int, error) {
	return s.count(ctx, "sounds")
}

func (s *Store) ListSounds(ctx context.Context) ([]*domain.Sound, error) {
	const query = `
SELECT soundname, author, timestamp
FROM sounds
ORDER BY timestamp ASC, soundname ASC;
`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sounds: %w", err)
	}
	defer rows.Close()

	var out []*domain.Sound
	for rows.Next() {
		var sound domain.Sound
		var ts sql.NullTime
		if err := rows.Scan(&sound.Name, &sound.Author, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan sound: %w", err)
		}
		sound.Timestamp = ts.Time
		out = append(out, &sound)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list sounds rows: %w", err)
	}
	return out, nil
}

// ----- Aliases -----

func (s *Store) CreateAlias(ctx context.Context, alias *domain.Alias) (bool, error) {
	if alias == nil {
		return false, fmt.Errorf("sqlite: alias nil")
	}
	if alias.Timestamp.IsZero() {
		alias.Timestamp = time.Now().UTC()
	}

	const stmt = `
INSERT INTO aliases (commandname, action, author, timestamp)
VALUES (?, ?, ?, ?)
ON CONFLICT(commandname) DO NOTHING;
`

	res, err := s.db.ExecContext(ctx, stmt, alias.CommandName, alias.Action, alias.Author, alias.Timestamp)
	if err != nil {
		return false, fmt.Errorf("sqlite: create alias: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: create alias: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteAlias(ctx context.Context, name string) (int64, error) {
	const stmt = `DELETE FROM aliases WHERE commandname = ?;`
	res, err := s.db.ExecContext(ctx, stmt, name)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete alias: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete alias: %w", err)
	}
	return n, nil
}

func (s *Store) FindAliases(ctx context.Context, name string) ([]*domain.Alias, error) {
	const query = `
SELECT commandname, action, author, timestamp
FROM aliases
WHERE commandname = ?;
`
	return s.queryAliases(ctx, query, name)
}

func (s *Store) ListAliases(ctx context.Context) ([]*domain.Alias, error) {
	const query = `
SELECT commandname, action, author, timestamp
FROM aliases
ORDER BY commandname ASC;
`
	return s.queryAliases(ctx, query)
}

func (s *Store) queryAliases(ctx context.Context, query string, args ...any) ([]*domain.Alias, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query aliases: %w", err)
	}
	defer rows.Close()

	var out []*domain.Alias
	for rows.Next() {
		var alias domain.Alias
		var ts sql.NullTime
		if err := rows.Scan(&alias.CommandName, &alias.Action, &alias.Author, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan alias: %w", err)
		}
		alias.Timestamp = ts.Time
		out = append(out, &alias)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: alias rows: %w", err)
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	// table viene de una constante interna, nunca de input del chat
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+";").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count %s: %w", table, err)
	}
	return n, nil
}

var _ domain.LinkRepository = (*Store)(nil)
var _ domain.SoundRepository = (*Store)(nil)
var _ domain.AliasRepository = (*Store)(nil)
