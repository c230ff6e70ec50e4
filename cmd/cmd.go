// Package cmd is the xf8bot command line interface.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"
	"github.com/xf8b/xf8bot/cmd/bot"
	"github.com/xf8b/xf8bot/cmd/migrate"
	"github.com/xf8b/xf8bot/common"
)

var app = &cli.App{
	Name:    "xf8bot",
	Usage:   "Discord music and moderation bot",
	Version: common.Version(),

	Commands: []*cli.Command{
		bot.Command,
		migrate.Command,
	},
}

func Run() error {
	return app.Run(os.Args)
}
