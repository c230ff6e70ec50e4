package bot

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/music"
)

// ConfigEnv overrides the default configuration file path.
const ConfigEnv = "XF8BOT_CONFIG"

type Config struct {
	Auth  AuthConfig  `toml:"auth"`
	Bot   BotConfig   `toml:"bot"`
	Music MusicConfig `toml:"music"`
}

type AuthConfig struct {
	Discord  string `toml:"discord"`
	Postgres string `toml:"postgres"`
	Redis    string `toml:"redis"`
	Sentry   string `toml:"sentry"`

	Influx AuthInfluxConfig `toml:"influx"`
}

type AuthInfluxConfig struct {
	URL          string `toml:"url"`
	Token        string `toml:"token"`
	Organization string `toml:"organization"`
	Database     string `toml:"database"`
}

type BotConfig struct {
	Prefix string `toml:"prefix"`
	// Administrators can use bot administrator commands in every guild.
	Administrators []discord.UserID `toml:"administrators"`

	CommandsGuildID discord.GuildID `toml:"commands_guild_id"`
	NoSyncCommands  bool            `toml:"no_sync_commands"`

	// NoAutoMigrate specifies if migrations should be done automatically when the bot starts.
	// If this is set to true, migrations must be done manually by running the `xf8bot migrate` command.
	NoAutoMigrate bool `toml:"no_auto_migrate"`

	// LogWebhook receives warnings and errors, and a message every time the bot starts.
	LogWebhook    string `toml:"log_webhook"`
	SupportServer string `toml:"support_server"`

	CommandTimeout Duration        `toml:"command_timeout"`
	RateLimit      RateLimitConfig `toml:"rate_limit"`
}

type RateLimitConfig struct {
	// Commands is the number of commands a user can run per Per. 0 disables rate limiting.
	Commands int      `toml:"commands"`
	Per      Duration `toml:"per"`
}

type MusicConfig struct {
	YTDLP   string `toml:"yt_dlp"`
	FFmpeg  string `toml:"ffmpeg"`
	Bitrate string `toml:"bitrate"`

	SessionExpiry Duration `toml:"session_expiry"`
	LoadTimeout   Duration `toml:"load_timeout"`
}

// Duration is a time.Duration written as a string, such as "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (c *Config) setDefaults() {
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = command.DefaultPrefix
	}
	if c.Bot.CommandTimeout.Duration == 0 {
		c.Bot.CommandTimeout.Duration = time.Minute
	}
	if c.Bot.RateLimit.Per.Duration == 0 {
		c.Bot.RateLimit.Per.Duration = 5 * time.Second
	}

	if c.Music.SessionExpiry.Duration == 0 {
		c.Music.SessionExpiry.Duration = music.DefaultExpiry
	}
}

// ConfigPath returns the path set in $XF8BOT_CONFIG, or config.toml.
func ConfigPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return "config.toml"
}

func ReadConfig(path string) (c Config, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "read config file")
	}

	err = toml.Unmarshal(b, &c)
	if err != nil {
		return c, errors.Wrap(err, "unmarshal config")
	}

	c.setDefaults()
	return c, nil
}
