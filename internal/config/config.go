package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken      string             `yaml:"discord_token"`
	DatabasePath      string             `yaml:"database_path"`
	LogLevel          string             `yaml:"log_level"`
	RetentionDays     int                `yaml:"retention_days"`
	RetentionSchedule string             `yaml:"retention_schedule"`
	Operators         []string           `yaml:"operators"`
	RenamePresets     string             `yaml:"rename_presets"`
	NameCacheSize     int                `yaml:"name_cache_size"`
	Health            HealthConfig       `yaml:"health"`
	Settings          SettingsConfig     `yaml:"settings"`
	Commands          CommandConfig      `yaml:"commands"`
	Ownership         OwnershipConfig    `yaml:"ownership"`
	Voice             VoiceConfig        `yaml:"voice"`
	Notifications     NotificationConfig `yaml:"notifications"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type SettingsConfig struct {
	Backend     string `yaml:"backend"`
	BuntDBPath  string `yaml:"buntdb_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type CommandConfig struct {
	Prefixes          string            `yaml:"prefixes"`
	Aliases           map[string]string `yaml:"aliases"`
	ModeratorImmunity bool              `yaml:"moderator_immunity"`
	MaxNameLength     int               `yaml:"max_name_length"`
}

type OwnershipConfig struct {
	AutomationBotID    string   `yaml:"automation_bot_id"`
	LobbyMarkers       []string `yaml:"lobby_markers"`
	OwnedNameTemplates []string `yaml:"owned_name_templates"`
}

// VoiceConfig optionally names a voice channel to join on startup.
type VoiceConfig struct {
	BlockEnabled  bool   `yaml:"block_enabled"`
	EventLogLimit int    `yaml:"event_log_limit"`
	GuildID       string `yaml:"guild_id"`
	JoinChannelID string `yaml:"join_channel_id"`
}

type NotificationConfig struct {
	ChannelID  string `yaml:"channel_id"`
	CooldownMS int    `yaml:"cooldown_ms"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:      "/data/voiceguard.db",
		LogLevel:          "info",
		RetentionDays:     14,
		RetentionSchedule: "@daily",
		NameCacheSize:     512,
		Health:            HealthConfig{Enabled: false, Addr: ":8080"},
		Settings:          SettingsConfig{Backend: "sqlite", BuntDBPath: "/data/voiceguard.bunt"},
		Commands: CommandConfig{
			Prefixes: "!.",
			Aliases: map[string]string{
				".k ":   "!voice-kick ",
				".b ":   "!voice-ban ",
				".lmt ": "!voice-limit ",
			},
			ModeratorImmunity: true,
			MaxNameLength:     99,
		},
		Ownership: OwnershipConfig{
			AutomationBotID:    "1110336525176164452",
			LobbyMarkers:       []string{"Voice erstellen", "Kanal erstellen"},
			OwnedNameTemplates: []string{"%s's Channel", "%ss Kanal"},
		},
		Voice:         VoiceConfig{BlockEnabled: false, EventLogLimit: 25},
		Notifications: NotificationConfig{CooldownMS: 2500},
	}
}

// Load reads config.yaml (or CONFIG_PATH), then .env, then environment
// overrides. A Discord token is required.
func Load() (Config, error) {
	cfg, err := LoadFile(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return Config{}, err
	}
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	return cfg, nil
}

// LoadFile is Load without the token requirement, for tooling that only
// touches the settings backend.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	cfg.Settings.Backend = normalizeBackend(cfg.Settings.Backend)
	if cfg.Commands.Prefixes == "" {
		cfg.Commands.Prefixes = "!."
	}
	if cfg.Commands.MaxNameLength <= 0 {
		cfg.Commands.MaxNameLength = 99
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = "@daily"
	}
	if cfg.Notifications.CooldownMS < 0 {
		cfg.Notifications.CooldownMS = 0
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.RetentionSchedule = envString("RETENTION_SCHEDULE", cfg.RetentionSchedule)
	cfg.Operators = envList("OPERATORS", cfg.Operators)
	cfg.RenamePresets = envString("RENAME_PRESETS", cfg.RenamePresets)
	cfg.NameCacheSize = envInt("NAME_CACHE_SIZE", cfg.NameCacheSize)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Settings.Backend = envString("SETTINGS_BACKEND", cfg.Settings.Backend)
	cfg.Settings.BuntDBPath = envString("BUNTDB_PATH", cfg.Settings.BuntDBPath)
	cfg.Settings.PostgresDSN = envString("POSTGRES_DSN", cfg.Settings.PostgresDSN)
	cfg.Commands.Prefixes = envString("COMMAND_PREFIXES", cfg.Commands.Prefixes)
	cfg.Commands.ModeratorImmunity = envBool("MODERATOR_IMMUNITY", cfg.Commands.ModeratorImmunity)
	cfg.Commands.MaxNameLength = envInt("MAX_NAME_LENGTH", cfg.Commands.MaxNameLength)
	cfg.Ownership.AutomationBotID = envString("AUTOMATION_BOT_ID", cfg.Ownership.AutomationBotID)
	cfg.Ownership.LobbyMarkers = envList("LOBBY_MARKERS", cfg.Ownership.LobbyMarkers)
	cfg.Voice.BlockEnabled = envBool("VOICE_BLOCK", cfg.Voice.BlockEnabled)
	cfg.Voice.EventLogLimit = envInt("EVENT_LOG_LIMIT", cfg.Voice.EventLogLimit)
	cfg.Voice.GuildID = envString("VOICE_GUILD_ID", cfg.Voice.GuildID)
	cfg.Voice.JoinChannelID = envString("VOICE_JOIN_CHANNEL", cfg.Voice.JoinChannelID)
	cfg.Notifications.ChannelID = envString("NOTICE_CHANNEL", cfg.Notifications.ChannelID)
	cfg.Notifications.CooldownMS = envInt("NOTICE_COOLDOWN_MS", cfg.Notifications.CooldownMS)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeBackend(value string) string {
	switch strings.ToLower(value) {
	case "memory", "buntdb", "postgres":
		return strings.ToLower(value)
	default:
		return "sqlite"
	}
}
