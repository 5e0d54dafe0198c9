package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/telemetry"
)

const (
	defaultTimeout = 2 * time.Minute
	outputTail     = 512
)

type Acquirer struct {
	script     string
	libraryDir string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewAcquirer usa script como helper externo; si está vacío se usa yt-dlp.
func NewAcquirer(script, libraryDir string, timeout time.Duration, logger *zap.Logger) *Acquirer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{
		script:     strings.TrimSpace(script),
		libraryDir: libraryDir,
		timeout:    timeout,
		logger:     logger.Named("clip"),
	}
}

func (a *Acquirer) Acquire(ctx context.Context, req domain.ClipRequest) (domain.Clip, error) {
	if req.ID == "" || req.URL == "" {
		return domain.Clip{}, fmt.Errorf("clip: acquire: id and url are required")
	}
	if req.Length <= 0 {
		return domain.Clip{}, fmt.Errorf("clip: acquire: length must be positive")
	}
	if err := os.MkdirAll(a.libraryDir, 0o755); err != nil {
		return domain.Clip{}, fmt.Errorf("clip: acquire: library dir: %w", err)
	}

	output := filepath.Join(a.libraryDir, req.ID+".mp3")
	name, args := a.command(req, output)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.WaitDelay = 2 * time.Second
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	a.logger.Info("acquiring clip",
		zap.String("id", req.ID),
		zap.String("url", req.URL),
		zap.Duration("start", req.Start),
		zap.Duration("length", req.Length),
		zap.String("helper", name),
	)

	err := cmd.Run()
	telemetry.Observe(telemetry.ClipDuration, time.Since(started).Seconds())
	if err != nil {
		telemetry.Inc(telemetry.ClipFailures)
		os.Remove(output)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return domain.Clip{}, fmt.Errorf("clip: acquire: timed out after %s", a.timeout)
		}
		a.logger.Warn("helper failed", zap.String("id", req.ID), zap.String("output", tail(out.String())), zap.Error(err))
		return domain.Clip{}, fmt.Errorf("clip: acquire: %s: %w", name, err)
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		telemetry.Inc(telemetry.ClipFailures)
		return domain.Clip{}, fmt.Errorf("clip: acquire: helper produced no output at %s", output)
	}

	telemetry.Inc(telemetry.ClipsAcquired)
	return domain.Clip{ID: req.ID, Path: output, Duration: ProbeDuration(output)}, nil
}

func (a *Acquirer) command(req domain.ClipRequest, output string) (string, []string) {
	start := formatSeconds(req.Start)
	length := formatSeconds(req.Length)

	if a.script != "" {
		return a.script, []string{req.URL, start, length, output}
	}

	end := formatSeconds(req.Start + req.Length)
	template := strings.TrimSuffix(output, ".mp3") + ".%(ext)s"
	return "yt-dlp", []string{
		"-x", "--audio-format", "mp3",
		"--no-playlist",
		"--download-sections", "*" + start + "-" + end,
		"-o", template,
		req.URL,
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// ProbeDuration decodifica el MP3; devuelve 0 si no se puede leer.
func ProbeDuration(path string) time.Duration {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil || dec.SampleRate() == 0 {
		return 0
	}
	// PCM de 16 bits estéreo: 4 bytes por muestra.
	samples := dec.Length() / 4
	if samples <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(dec.SampleRate())
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > outputTail {
		return s[len(s)-outputTail:]
	}
	return s
}

var _ domain.ClipAcquirer = (*Acquirer)(nil)
