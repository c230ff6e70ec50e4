// Package bot wires the gateway, database, command dispatcher and music sessions together.
package bot

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session/shard"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/ws"
	"github.com/getsentry/sentry-go"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/audio"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/common"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/db"
	"github.com/xf8b/xf8bot/db/stats"
	"github.com/xf8b/xf8bot/music"
	"github.com/xf8b/xf8bot/permissions"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const Intents = gateway.IntentGuilds |
	gateway.IntentGuildMembers |
	gateway.IntentGuildMessages |
	gateway.IntentGuildVoiceStates

// Timeouts for work done outside of a command.
const (
	voiceTimeout = 10 * time.Second
	eventTimeout = 10 * time.Second
)

type Bot struct {
	Router *bcr.Router
	DB     *db.DB
	Config Config

	Registry    *command.Registry
	Dispatcher  *command.Dispatcher
	Permissions *permissions.Checker

	Engine   *audio.Manager
	Sessions *music.SessionCache
	Voice    *VoiceManager

	Start time.Time

	ytdlp   *audio.YTDLP
	logSink *LogSink
	cancel  context.CancelFunc
}

// New creates a new Bot. Commands must be registered in b.Registry before Open is called.
func New(c Config) (b *Bot, err error) {
	ws.WSDebug = log.Named("ws").Debug
	ws.WSError = func(err error) {
		log.Errorf("ws error: %v", err)
	}

	r, err := bcr.NewWithIntents(c.Auth.Discord, c.Bot.Administrators, []string{c.Bot.Prefix}, Intents)
	if err != nil {
		return nil, errors.Wrap(err, "creating router")
	}
	r.EmbedColor = bcr.ColourPurple

	ctx, cancel := context.WithCancel(context.Background())
	b = &Bot{
		Router: r,
		Config: c,
		Start:  time.Now(),
		cancel: cancel,
	}
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	// sentry, if enabled
	var hub *sentry.Hub
	if c.Auth.Sentry != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:     c.Auth.Sentry,
			Release: common.Version(),
		})
		if err != nil {
			return nil, errors.Wrap(err, "initing Sentry")
		}
		hub = sentry.CurrentHub()
	}

	b.DB, err = db.New(ctx, c.Auth.Postgres, c.Auth.Redis, !c.Bot.NoAutoMigrate)
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}
	b.DB.Hub = hub
	log.Info("Opened database connection.")

	if c.Auth.Influx.URL != "" {
		influx := c.Auth.Influx
		b.DB.Stats = stats.New(ctx, influx.URL, influx.Token, influx.Organization, influx.Database)
	} else {
		log.Warn("No InfluxDB URL set, not collecting statistics")
	}

	// music
	b.ytdlp = audio.NewYTDLP(c.Music.YTDLP, c.Music.FFmpeg)
	if c.Music.Bitrate != "" {
		b.ytdlp.Bitrate = c.Music.Bitrate
	}
	b.Engine = audio.NewManager(b.ytdlp, b.ytdlp)
	// voice connections send frames at the right rate on their own
	b.Engine.Pace = 0
	if c.Music.LoadTimeout.Duration > 0 {
		b.Engine.LoadTimeout = c.Music.LoadTimeout.Duration
	}

	b.Voice = newVoiceManager(b)
	b.Sessions = music.NewSessionCache(b.Engine, music.AnnouncerFunc(b.announce), c.Music.SessionExpiry.Duration)
	b.Sessions.OnEvict = b.Voice.onEvict
	if b.DB.Stats != nil {
		b.DB.Stats.Sessions = b.Sessions.Len
	}

	// commands
	b.Registry = command.NewRegistry()
	b.Permissions = permissions.New(b, b.DB)

	d := command.NewDispatcher(b.Registry, c.Bot.Prefix)
	d.Prefixes = b.DB
	d.Permissions = b.Permissions
	d.BotAdministrators = c.Bot.Administrators
	d.Timeout = c.Bot.CommandTimeout.Duration
	d.Report = b.reportError
	if b.DB.Stats != nil {
		d.Counter = b.DB.Stats
	}
	if rl := c.Bot.RateLimit; rl.Commands > 0 {
		d.SetRateLimit(rate.Every(rl.Per.Duration/time.Duration(rl.Commands)), rl.Commands)
	}
	b.Dispatcher = d

	if c.Bot.LogWebhook != "" {
		b.logSink, err = NewLogSink(c.Bot.LogWebhook, zapcore.WarnLevel)
		if err != nil {
			return nil, errors.Wrap(err, "creating log webhook")
		}
		log.Tee(b.logSink)
	}

	return b, nil
}

// Open registers event handlers and connects to Discord.
// The registry is frozen and, unless disabled, slash commands are synced.
func (bot *Bot) Open(ctx context.Context) error {
	bot.Registry.Freeze()

	bot.Router.AddHandler(bot.messageCreate)
	bot.Router.AddHandler(bot.interactionCreate)
	bot.Router.AddHandler(bot.guildCreate)
	bot.Router.AddHandler(bot.voiceStateUpdate)
	if bot.DB.Stats != nil {
		bot.Router.AddHandler(bot.DB.Stats.EventHandler)
	}

	bot.ForEach(func(s *state.State) {
		s.Client.Client.OnResponse = append(s.Client.Client.OnResponse, bot.onResponse)
	})

	// get current user
	s, _ := bot.Router.StateFromGuildID(0)
	botUser, err := s.Me()
	if err != nil {
		return errors.Wrap(err, "fetching bot user")
	}
	bot.Router.Bot = botUser
	bot.Dispatcher.Mentions = command.MentionPrefixes(botUser.ID)

	log.Debug("Opening gateway connection")
	if err := bot.Router.ShardManager.Open(ctx); err != nil {
		return errors.Wrap(err, "connecting to Discord")
	}
	log.Infof("User: %v (%v)", botUser.Tag(), botUser.ID)

	if bot.Config.Bot.NoSyncCommands {
		log.Info("Note: not syncing slash commands. Set no_sync_commands to false to sync commands")
	} else if err := bot.SyncCommands(); err != nil {
		log.Errorf("Error syncing slash commands: %v", err)
	}

	if bot.logSink != nil {
		bot.logSink.SetAvatar(botUser.AvatarURL())
		bot.logSink.Restarted()
	}

	go bot.updatePresence(ctx)
	return nil
}

// Close leaves all voice channels and disconnects from Discord and the database.
func (bot *Bot) Close() (err error) {
	bot.ForEach(func(s *state.State) {
		_ = s.Gateway().Send(context.Background(), &gateway.UpdatePresenceCommand{
			Status: discord.DoNotDisturbStatus,
			Activities: []discord.Activity{{
				Name: "Restarting, please wait...",
				Type: discord.GameActivity,
			}},
		})
	})

	_ = bot.Sessions.Close()
	bot.Voice.Close()
	bot.Engine.Close()
	_ = bot.ytdlp.Close()
	_ = bot.Dispatcher.Close()

	err = bot.Router.ShardManager.Close()

	if bot.logSink != nil {
		_ = bot.logSink.Sync()
	}
	if bot.DB.Hub != nil {
		sentry.Flush(2 * time.Second)
	}

	bot.cancel()
	if dbErr := bot.DB.Close(); dbErr != nil && err == nil {
		err = dbErr
	}
	return err
}

// ForEach runs fn for every shard's state.
func (bot *Bot) ForEach(fn func(s *state.State)) {
	bot.Router.ShardManager.ForEach(func(s shard.Shard) {
		fn(s.(*state.State))
	})
}

// GuildOwner returns the owner of the given guild, from the state cache if possible.
func (bot *Bot) GuildOwner(ctx context.Context, guildID discord.GuildID) (discord.UserID, error) {
	s, _ := bot.Router.StateFromGuildID(guildID)

	g, err := s.WithContext(ctx).Guild(guildID)
	if err != nil {
		return 0, errors.Wrap(err, "getting guild")
	}
	return g.OwnerID, nil
}

// announce sends music session messages.
func (bot *Bot) announce(channelID discord.ChannelID, content string) error {
	s, _ := bot.Router.StateFromGuildID(0)

	_, err := s.SendMessageComplex(channelID, api.SendMessageData{
		Content:         content,
		AllowedMentions: &api.AllowedMentions{Parse: []api.AllowedMentionType{}},
	})
	return err
}

func (bot *Bot) guildCreate(ev *gateway.GuildCreateEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	exists, err := bot.DB.CreateGuild(ctx, ev.ID)
	if err != nil {
		bot.DB.Report(db.ErrorContext{Event: "GuildCreateEvent", GuildID: ev.ID}, err)
		return
	}
	if !exists {
		log.Infof("Joined new guild %v (%v)", ev.Name, ev.ID)
	}
}

// voiceStateUpdate ends the guild's session when the bot is disconnected from voice.
func (bot *Bot) voiceStateUpdate(ev *gateway.VoiceStateUpdateEvent) {
	if bot.Router.Bot == nil || ev.UserID != bot.Router.Bot.ID || ev.ChannelID.IsValid() {
		return
	}

	if _, ok := bot.Voice.Channel(ev.GuildID); !ok {
		return
	}

	log.Debugf("Disconnected from voice in guild %v", ev.GuildID)
	bot.Sessions.Remove(ev.GuildID)
}
