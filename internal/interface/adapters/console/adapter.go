// Package consoleadapter lee comandos de stdin con el prompt "=> ".
package consoleadapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"droidBot/internal/domain"
)

const (
	Prompt    = "=> "
	ChannelID = "console"
)

type Adapter struct {
	in       io.Reader
	out      io.Writer
	username string
	logger   *zap.Logger

	mu      sync.Mutex // protege out y handler
	handler domain.MessageHandler
}

func NewAdapter(in io.Reader, out io.Writer, username string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if username == "" {
		username = "console"
	}
	return &Adapter{in: in, out: out, username: username, logger: logger.Named("console")}
}

func (a *Adapter) SetHandler(h domain.MessageHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

// Start termina con nil al llegar EOF.
func (a *Adapter) Start(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	a.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("console: read: %w", err)
			}
			return nil
		case line := <-lines:
			a.dispatch(ctx, line)
			a.prompt()
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	a.mu.Lock()
	handler := a.handler
	a.mu.Unlock()
	if handler == nil {
		return
	}

	msg := domain.Message{
		Platform:  domain.PlatformConsole,
		ChannelID: ChannelID,
		UserID:    a.username,
		Username:  a.username,
		Text:      line,
	}
	if err := handler(ctx, msg); err != nil {
		a.logger.Warn("handler error", zap.Error(err))
	}
}

func (a *Adapter) prompt() {
	a.write(Prompt)
}

func (a *Adapter) write(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := io.WriteString(a.out, s); err != nil {
		a.logger.Debug("write failed", zap.Error(err))
	}
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformConsole {
		return fmt.Errorf("console: unsupported platform %s", platform)
	}
	a.write(strings.TrimRight(text, "\n") + "\n")
	return nil
}

func (a *Adapter) SendToUser(ctx context.Context, platform domain.Platform, to domain.Recipient, text string) error {
	return a.SendMessage(ctx, platform, to.ChannelID, text)
}

func (a *Adapter) SendImage(ctx context.Context, platform domain.Platform, channelID string, img domain.Image) error {
	caption := img.Caption
	if caption == "" {
		caption = "image"
	}
	return a.SendMessage(ctx, platform, channelID, fmt.Sprintf("[%s, %d bytes] %s", img.MIMEType, len(img.Data), caption))
}
