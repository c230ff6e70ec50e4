package bot

import (
	"strings"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
	"github.com/xf8b/xf8bot/command"
)

func TestSlashCommands(t *testing.T) {
	cmds := []*command.Command{
		{Name: "ping", Description: "Pong!"},
		{
			Name:        "Volume",
			Description: strings.Repeat("Sets the volume. ", 10),
			MinArgs:     1,
			Arguments:   []command.Argument{command.Integer("volume", command.Single(1))},
		},
		{
			Name:      "skip",
			Arguments: []command.Argument{&command.Arg[int]{Name: "amount", Index: command.Single(1), Optional: true}},
		},
		{Name: "shutdown", BotAdministratorOnly: true},
	}

	got := SlashCommands(cmds)
	if len(got) != 3 {
		t.Fatalf("got %d commands, want 3", len(got))
	}

	if got[0].Name != "ping" || got[0].Description != "Pong!" || len(got[0].Options) != 0 {
		t.Errorf("wrong ping command: %+v", got[0])
	}

	volume := got[1]
	if volume.Name != "volume" {
		t.Errorf("name = %q", volume.Name)
	}
	if n := len([]rune(volume.Description)); n != maxDescriptionLength {
		t.Errorf("description has %d characters", n)
	}
	if len(volume.Options) != 1 {
		t.Fatalf("volume has %d options", len(volume.Options))
	}
	opt, ok := volume.Options[0].(*discord.StringOption)
	if !ok {
		t.Fatalf("option is %T", volume.Options[0])
	}
	if opt.OptionName != slashArguments || !opt.Required || opt.Description != "Volume <volume>" {
		t.Errorf("wrong option: %+v", opt)
	}

	skip := got[2]
	if skip.Description != "skip" {
		t.Errorf("empty description wasn't replaced: %q", skip.Description)
	}
	if opt := skip.Options[0].(*discord.StringOption); opt.Required {
		t.Error("optional arguments are required")
	}
}

func TestSlashTokens(t *testing.T) {
	if diff := cmp.Diff([]string{"volume", "150"}, slashTokens("volume", " 150 ")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ping"}, slashTokens("ping", "")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestPresence(t *testing.T) {
	if got := presence(">", 1234, 0); got != ">help | in 1,234 servers" {
		t.Errorf("got %q", got)
	}
	if got := presence("!", 2, 1); got != "!help | in 2 servers | playing in 1" {
		t.Errorf("got %q", got)
	}
}
