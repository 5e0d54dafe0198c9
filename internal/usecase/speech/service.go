package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hegedustibor/htgo-tts/voices"
	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/infrastructure/clip"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	chunkSize       = 200
	maxTextRunes    = 1000
)

type VoiceOption struct {
	Code  string
	Label string
}

var supportedVoices = []VoiceOption{
	{Code: voices.English, Label: "English US"},
	{Code: voices.EnglishUK, Label: "English UK"},
	{Code: voices.Spanish, Label: "Spanish"},
	{Code: voices.Portuguese, Label: "Portuguese"},
	{Code: voices.French, Label: "French"},
	{Code: voices.German, Label: "German"},
}

// Service genera clips de voz en el directorio de la biblioteca de MPD.
type Service struct {
	libraryDir string
	voice      VoiceOption
	endpoint   string
	httpCli    *http.Client
	logger     *zap.Logger
}

func NewService(libraryDir, voice string, logger *zap.Logger) (*Service, error) {
	option, ok := FindVoice(voice)
	if !ok {
		return nil, fmt.Errorf("speech: unsupported voice %q", voice)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		libraryDir: libraryDir,
		voice:      option,
		endpoint:   defaultEndpoint,
		httpCli: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.Named("speech"),
	}, nil
}

func ListVoices() []VoiceOption {
	return append([]VoiceOption(nil), supportedVoices...)
}

// FindVoice acepta el código exacto o su prefijo de idioma (en-gb -> en).
func FindVoice(code string) (VoiceOption, bool) {
	code = normalizeVoice(code)
	if code == "" {
		return supportedVoices[0], true
	}
	for _, option := range supportedVoices {
		if normalizeVoice(option.Code) == code {
			return option, true
		}
	}
	if idx := strings.Index(code, "-"); idx > 0 {
		return FindVoice(code[:idx])
	}
	return VoiceOption{}, false
}

func (s *Service) Voice() VoiceOption {
	return s.voice
}

func (s *Service) Synthesize(ctx context.Context, text, id string) (domain.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: empty text")
	}
	if id == "" {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: empty id")
	}
	if n := len([]rune(text)); n > maxTextRunes {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: text too long (%d > %d)", n, maxTextRunes)
	}

	audio, err := s.generateAudio(ctx, text)
	if err != nil {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: %w", err)
	}

	if err := os.MkdirAll(s.libraryDir, 0o755); err != nil {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: library dir: %w", err)
	}
	path := filepath.Join(s.libraryDir, id+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return domain.Clip{}, fmt.Errorf("speech: synthesize: write: %w", err)
	}

	s.logger.Info("speech clip written", zap.String("id", id), zap.String("voice", s.voice.Code), zap.Int("bytes", len(audio)))
	return domain.Clip{ID: id, Path: path, Duration: clip.ProbeDuration(path)}, nil
}

func (s *Service) generateAudio(ctx context.Context, text string) ([]byte, error) {
	runes := []rune(text)
	buf := bytes.NewBuffer(nil)

	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		audio, err := s.fetchChunk(ctx, string(runes[start:end]))
		if err != nil {
			return nil, err
		}
		buf.Write(audio)
	}

	return buf.Bytes(), nil
}

func (s *Service) fetchChunk(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", s.voice.Code)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts endpoint status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func normalizeVoice(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

var _ domain.SpeechSynthesizer = (*Service)(nil)
