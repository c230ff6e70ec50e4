package bot

import (
	"os"
	"os/signal"
	"syscall"

	"emperror.dev/errors"
	"github.com/urfave/cli/v2"
	"github.com/xf8b/xf8bot/bot"
	"github.com/xf8b/xf8bot/commands/info"
	"github.com/xf8b/xf8bot/commands/moderation"
	"github.com/xf8b/xf8bot/commands/music"
	"github.com/xf8b/xf8bot/common/log"
)

var Command = &cli.Command{
	Name:   "bot",
	Usage:  "Run the bot",
	Action: run,
	Flags: []cli.Flag{&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the configuration file (default: $XF8BOT_CONFIG or config.toml)",
	}},
}

func run(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = bot.ConfigPath()
	}

	conf, err := bot.ReadConfig(path)
	if err != nil {
		return errors.Wrap(err, "reading config")
	}

	b, err := bot.New(conf)
	if err != nil {
		return errors.Wrap(err, "creating bot")
	}

	infoCommands := info.New(b.Start, b, b)
	infoCommands.SupportServer = conf.Bot.SupportServer

	err = b.Registry.Discover(
		music.New(b.Sessions, b.Voice),           // music commands
		infoCommands,                             // help, ping, someone
		moderation.New(b, b.DB, conf.Bot.Prefix), // clear, prefix, administrators
	)
	if err != nil {
		return errors.Wrap(err, "registering commands")
	}
	log.Infof("Registered %d commands", len(b.Registry.Commands()))

	// actually run bot!
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := b.Open(ctx); err != nil {
		_ = b.Close()
		return errors.Wrap(err, "opening gateway connection")
	}
	log.Info("Connected to Discord. Press Ctrl-C or send an interrupt signal to stop.")

	<-ctx.Done()

	log.Info("Interrupt signal received. Shutting down...")
	if err := b.Close(); err != nil {
		log.Errorf("Error shutting down: %v", err)
	}
	return nil
}
