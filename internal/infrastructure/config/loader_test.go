package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DROIDBOT_MUMBLE_HOST", "DROIDBOT_MUMBLE_PASSWORD", "DROIDBOT_DATABASE_PATH",
		"DROIDBOT_MPD_ADDRESS", "DROIDBOT_MPD_PASSWORD", "DROIDBOT_LOG_LEVEL",
		"TWITCH_BOT_USERNAME", "TWITCH_BOT_ACCESS_TOKEN", "TWITCH_BOT_CHANNELS",
		"KICK_BOT_TOKEN", "KICK_BROADCASTER_USER_ID", "KICK_CHATROOM_ID", "KICK_BOT_USERNAME", "CHAT_WS_ADDR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(Options{
		DefaultsPath: filepath.Join(dir, "defaults.yml"),
		ConfigPath:   filepath.Join(dir, "config.yml"),
		EnvFile:      filepath.Join(dir, ".env"),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.Prefix != "!" || cfg.Bot.MaxAliasDepth != 16 {
		t.Errorf("bot defaults = %+v", cfg.Bot)
	}
	if cfg.Clip.MaxLength != 30*time.Second || cfg.Clip.Timeout != 2*time.Minute {
		t.Errorf("clip defaults = %+v", cfg.Clip)
	}
	if cfg.API.Addr != "127.0.0.1:8080" || cfg.API.AcceptChat {
		t.Errorf("api defaults = %+v", cfg.API)
	}
}

func TestLoadLayering(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	defaults := writeFile(t, dir, "defaults.yml", `
mumble:
  host: voice.example.com:64738
  name: droid
mpd:
  address: localhost:6600
clip:
  max_length: 20s
`)
	config := writeFile(t, dir, "config.yml", `
mumble:
  name: droid-prod
mpd:
  address: mpd.internal:6600
bot:
  play_on_join: true
`)
	t.Setenv("DROIDBOT_MPD_ADDRESS", "10.0.0.5:6600")

	cfg, err := Load(Options{DefaultsPath: defaults, ConfigPath: config})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mumble.Host != "voice.example.com:64738" {
		t.Errorf("Mumble.Host = %q, want value from defaults.yml", cfg.Mumble.Host)
	}
	if cfg.Mumble.Name != "droid-prod" {
		t.Errorf("Mumble.Name = %q, want config.yml override", cfg.Mumble.Name)
	}
	if cfg.MPD.Address != "10.0.0.5:6600" {
		t.Errorf("MPD.Address = %q, want env override", cfg.MPD.Address)
	}
	if cfg.Clip.MaxLength != 20*time.Second {
		t.Errorf("Clip.MaxLength = %v, want 20s", cfg.Clip.MaxLength)
	}
	if !cfg.Bot.PlayOnJoin {
		t.Error("Bot.PlayOnJoin should be true")
	}
	if cfg.Bot.Prefix != "!" {
		t.Errorf("Bot.Prefix = %q, want untouched default", cfg.Bot.Prefix)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "TWITCH_BOT_USERNAME=droid\nTWITCH_BOT_ACCESS_TOKEN=abc\nTWITCH_BOT_CHANNELS= one, ,two \nKICK_CHATROOM_ID=42\n")

	cfg, err := Load(Options{EnvFile: env})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Twitch.Channels; len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Twitch.Channels = %v, want [one two]", got)
	}
	if !cfg.TwitchEnabled() {
		t.Error("TwitchEnabled() = false, want true")
	}
	if cfg.Kick.ChatroomID != 42 {
		t.Errorf("Kick.ChatroomID = %d, want 42", cfg.Kick.ChatroomID)
	}
	if cfg.KickEnabled() {
		t.Error("KickEnabled() = true without token")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yml", "mumble: [unterminated")
	if _, err := Load(Options{ConfigPath: path}); err == nil {
		t.Fatal("Load() should fail on malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.Bot.Prefix = " " }},
		{"zero depth", func(c *Config) { c.Bot.MaxAliasDepth = 0 }},
		{"zero timeout", func(c *Config) { c.Clip.Timeout = 0 }},
		{"zero max length", func(c *Config) { c.Clip.MaxLength = 0 }},
		{"no database", func(c *Config) { c.Database.Path = "" }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestShippedDefaultsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(Options{
		DefaultsPath: filepath.Join("..", "..", "..", "defaults.yml"),
		ConfigPath:   filepath.Join(dir, "config.yml"),
		EnvFile:      filepath.Join(dir, ".env"),
	})
	if err != nil {
		t.Fatalf("Load(defaults.yml) error = %v", err)
	}
	if cfg.Bot.MaxAliasDepth != 16 || cfg.Bot.Prefix != "!" {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if cfg.Clip.Timeout != 2*time.Minute || cfg.MPD.LibraryDir != "sounds" {
		t.Errorf("clip/mpd = %+v %+v", cfg.Clip, cfg.MPD)
	}
	if cfg.Mumble.Insecure {
		t.Error("mumble.insecure should default to false")
	}
	if cfg.API.Addr != "127.0.0.1:8080" || cfg.API.AcceptChat || len(cfg.API.AllowedOrigins) != 0 {
		t.Errorf("api = %+v, want loopback listener without chat input", cfg.API)
	}
}
