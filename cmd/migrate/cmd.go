package migrate

import (
	"github.com/urfave/cli/v2"
	"github.com/xf8b/xf8bot/bot"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/db"
)

var Command = &cli.Command{
	Name:   "migrate",
	Usage:  "Run migrations manually",
	Action: run,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Run migrations whether or not no_auto_migrate is set in the config.",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file (default: $XF8BOT_CONFIG or config.toml)",
		},
	},
}

func run(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = bot.ConfigPath()
	}

	conf, err := bot.ReadConfig(path)
	if err != nil {
		log.Fatalf("Reading configuration: %v", err)
	}

	if conf.Auth.Postgres == "" {
		return cli.Exit("No database url set in the config file.", 1)
	}

	if !conf.Bot.NoAutoMigrate && !c.Bool("force") {
		return cli.Exit("Migrations are run automatically, and the --force flag is not set.", 1)
	}

	n, err := db.RunMigrations(conf.Auth.Postgres)
	if err != nil {
		log.Fatalf("Running migrations: %v", err)
	}

	log.Infof("Successfully ran %d migrations!", n)
	return nil
}
