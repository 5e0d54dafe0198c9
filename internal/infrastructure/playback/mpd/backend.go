package mpd

import (
	"context"
	"fmt"
	"strings"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"
	"go.uber.org/zap"

	"droidBot/internal/domain"
)

// conn es el subconjunto de *mpd.Client que usa el backend.
type conn interface {
	Update(uri string) (int, error)
	Status() (gompd.Attrs, error)
	Search(args ...string) ([]gompd.Attrs, error)
	Clear() error
	Add(uri string) error
	Play(pos int) error
	Close() error
}

const (
	updatePollInterval = 200 * time.Millisecond
	updateMaxWait      = 10 * time.Second
)

type dialFunc func(network, addr, password string) (conn, error)

type Backend struct {
	network  string
	addr     string
	password string
	dial     dialFunc
	logger   *zap.Logger
}

func NewBackend(network, addr, password string, logger *zap.Logger) *Backend {
	if network == "" {
		network = "tcp"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		network:  network,
		addr:     addr,
		password: password,
		dial:     dialMPD,
		logger:   logger.Named("mpd"),
	}
}

func dialMPD(network, addr, password string) (conn, error) {
	if password != "" {
		return gompd.DialAuthenticated(network, addr, password)
	}
	return gompd.Dial(network, addr)
}

// do abre una conexión corta, ejecuta fn y la cierra.
func (b *Backend) do(ctx context.Context, op string, fn func(c conn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mpd: %s: %w", op, err)
	}
	c, err := b.dial(b.network, b.addr, b.password)
	if err != nil {
		b.logger.Warn("dial failed", zap.String("op", op), zap.String("addr", b.addr), zap.Error(err))
		return fmt.Errorf("mpd: %s: dial: %w", op, err)
	}
	defer c.Close()

	if err := fn(c); err != nil {
		return fmt.Errorf("mpd: %s: %w", op, err)
	}
	return nil
}

// RefreshLibrary lanza "update" y espera a que MPD termine de indexar,
// para que un FindTracks posterior vea los archivos nuevos.
func (b *Backend) RefreshLibrary(ctx context.Context) error {
	return b.do(ctx, "update", func(c conn) error {
		job, err := c.Update("")
		if err != nil {
			return err
		}
		b.logger.Debug("library update queued", zap.Int("job", job))

		deadline := time.Now().Add(updateMaxWait)
		for {
			status, err := c.Status()
			if err != nil {
				return err
			}
			if _, updating := status["updating_db"]; !updating {
				return nil
			}
			if time.Now().After(deadline) {
				b.logger.Warn("library update still running", zap.Int("job", job))
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(updatePollInterval):
			}
		}
	})
}

func (b *Backend) FindTracks(ctx context.Context, name string) ([]domain.Track, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var tracks []domain.Track
	err := b.do(ctx, "search", func(c conn) error {
		attrs, err := c.Search("file", name)
		if err != nil {
			return err
		}
		for _, a := range attrs {
			file := a["file"]
			if file == "" {
				continue
			}
			tracks = append(tracks, domain.Track{File: file, Title: a["Title"]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func (b *Backend) ClearQueue(ctx context.Context) error {
	return b.do(ctx, "clear", func(c conn) error { return c.Clear() })
}

func (b *Backend) Enqueue(ctx context.Context, track domain.Track) error {
	if track.File == "" {
		return fmt.Errorf("mpd: add: empty track uri")
	}
	return b.do(ctx, "add", func(c conn) error { return c.Add(track.File) })
}

func (b *Backend) Play(ctx context.Context) error {
	return b.do(ctx, "play", func(c conn) error { return c.Play(-1) })
}

var _ domain.PlaybackBackend = (*Backend)(nil)
