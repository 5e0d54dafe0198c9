package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type MumbleConfig struct {
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
	CertDir  string `yaml:"cert_dir"`
	Insecure bool   `yaml:"insecure"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MPDConfig struct {
	Network    string `yaml:"network"` // tcp | unix
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	LibraryDir string `yaml:"library_dir"`
}

type ClipConfig struct {
	Script    string        `yaml:"script"` // vacío => yt-dlp
	Timeout   time.Duration `yaml:"timeout"`
	MaxLength time.Duration `yaml:"max_length"`
}

type SpeechConfig struct {
	Enabled bool   `yaml:"enabled"`
	Voice   string `yaml:"voice"`
}

type BotConfig struct {
	Prefix         string `yaml:"prefix"`
	MaxAliasDepth  int    `yaml:"max_alias_depth"`
	PlayOnJoin     bool   `yaml:"play_on_join"`
	AliasLoopImage string `yaml:"alias_loop_image"`
	Console        bool   `yaml:"console"`
}

type TwitchConfig struct {
	Username string   `yaml:"username"`
	Token    string   `yaml:"token"`
	Channels []string `yaml:"channels"`
}

type KickConfig struct {
	AccessToken       string `yaml:"access_token"`
	BroadcasterUserID int    `yaml:"broadcaster_user_id"`
	ChatroomID        int    `yaml:"chatroom_id"`
	BotUsername       string `yaml:"bot_username"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
	// AllowedOrigins: orígenes de navegador aceptados en /ws/chat además del propio host.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// AcceptChat deja que los clientes del relay envíen comandos.
	AcceptChat bool `yaml:"accept_chat"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Config struct {
	Mumble   MumbleConfig   `yaml:"mumble"`
	Database DatabaseConfig `yaml:"database"`
	MPD      MPDConfig      `yaml:"mpd"`
	Clip     ClipConfig     `yaml:"clip"`
	Speech   SpeechConfig   `yaml:"speech"`
	Bot      BotConfig      `yaml:"bot"`
	Twitch   TwitchConfig   `yaml:"twitch"`
	Kick     KickConfig     `yaml:"kick"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

type Options struct {
	DefaultsPath string
	ConfigPath   string
	EnvFile      string
}

// Default devuelve la configuración base usada cuando no hay defaults.yml.
func Default() *Config {
	return &Config{
		Mumble: MumbleConfig{
			Host:    "localhost:64738",
			Name:    "droidbot",
			CertDir: "certs",
		},
		Database: DatabaseConfig{Path: "data/droidbot.db"},
		MPD: MPDConfig{
			Network:    "tcp",
			Address:    "localhost:6600",
			LibraryDir: "sounds",
		},
		Clip: ClipConfig{
			Timeout:   2 * time.Minute,
			MaxLength: 30 * time.Second,
		},
		Speech: SpeechConfig{Voice: "en"},
		Bot: BotConfig{
			Prefix:        "!",
			MaxAliasDepth: 16,
		},
		API: APIConfig{Addr: "127.0.0.1:8080"},
		Log: LogConfig{Level: "info"},
	}
}

// Load aplica, en orden: Default(), defaults.yml, config.yml y variables de entorno.
// Los archivos que no existen se ignoran.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	cfg := Default()
	for _, path := range []string{opts.DefaultsPath, opts.ConfigPath} {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Mumble.Host, "DROIDBOT_MUMBLE_HOST")
	setString(&cfg.Mumble.Password, "DROIDBOT_MUMBLE_PASSWORD")
	setString(&cfg.Database.Path, "DROIDBOT_DATABASE_PATH")
	setString(&cfg.MPD.Address, "DROIDBOT_MPD_ADDRESS")
	setString(&cfg.MPD.Password, "DROIDBOT_MPD_PASSWORD")
	setString(&cfg.Log.Level, "DROIDBOT_LOG_LEVEL")
	setString(&cfg.API.Addr, "CHAT_WS_ADDR")

	setString(&cfg.Twitch.Username, "TWITCH_BOT_USERNAME")
	setString(&cfg.Twitch.Token, "TWITCH_BOT_ACCESS_TOKEN")
	if v := strings.TrimSpace(os.Getenv("TWITCH_BOT_CHANNELS")); v != "" {
		cfg.Twitch.Channels = splitCSV(v)
	}

	setString(&cfg.Kick.AccessToken, "KICK_BOT_TOKEN")
	setInt(&cfg.Kick.BroadcasterUserID, "KICK_BROADCASTER_USER_ID")
	setInt(&cfg.Kick.ChatroomID, "KICK_CHATROOM_ID")
	setString(&cfg.Kick.BotUsername, "KICK_BOT_USERNAME")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Prefix) == "" {
		return fmt.Errorf("config: bot.prefix is required")
	}
	if c.Bot.MaxAliasDepth <= 0 {
		return fmt.Errorf("config: bot.max_alias_depth must be positive")
	}
	if c.Clip.Timeout <= 0 {
		return fmt.Errorf("config: clip.timeout must be positive")
	}
	if c.Clip.MaxLength <= 0 {
		return fmt.Errorf("config: clip.max_length must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}
	return nil
}

func (c *Config) TwitchEnabled() bool {
	return c.Twitch.Username != "" && c.Twitch.Token != "" && len(c.Twitch.Channels) > 0
}

func (c *Config) KickEnabled() bool {
	return c.Kick.AccessToken != "" && c.Kick.BroadcasterUserID != 0 && c.Kick.ChatroomID != 0
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
