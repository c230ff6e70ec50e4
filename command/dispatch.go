package command

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/ReneKroon/ttlcache/v2"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/spf13/pflag"
	"github.com/xf8b/xf8bot/common/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultPrefix is used for guilds without a custom prefix.
const DefaultPrefix = ">"

// Replies sent by the dispatcher.
const (
	PermissionDeniedMessage = "Sorry, you don't have high enough permissions."
	BotAdministratorMessage = "Sorry, you aren't an administrator of xf8bot."
	RateLimitedMessage      = "Slow down!"
)

// PrefixStore returns a guild's command prefix.
type PrefixStore interface {
	Prefix(ctx context.Context, guildID discord.GuildID) (string, error)
}

// PermissionLookup returns the administrator level of a guild member.
type PermissionLookup interface {
	AdministratorLevel(ctx context.Context, guildID discord.GuildID, member *discord.Member) (int, error)
}

// Counter counts executed commands.
type Counter interface {
	IncCommand()
}

// Dispatcher turns message events into command executions.
type Dispatcher struct {
	Registry      *Registry
	DefaultPrefix string

	// Prefixes is optional; if nil every guild uses DefaultPrefix.
	Prefixes PrefixStore
	// Mentions are accepted as a prefix in every guild, in addition to the guild's prefix.
	Mentions []string
	// Permissions is optional; if nil every member has level 0.
	Permissions PermissionLookup
	// BotAdministrators may use commands with BotAdministratorOnly set.
	BotAdministrators []discord.UserID

	// Timeout bounds a single dispatch, including the command itself. 0 means no timeout.
	Timeout time.Duration

	// Report is called with errors returned by a command's executor.
	// If nil, the error is logged and a generic reply is sent.
	Report func(ctx *Context, err error)
	// Counter is optional.
	Counter Counter

	limit    rate.Limit
	burst    int
	limiters *ttlcache.Cache
}

// NewDispatcher returns a dispatcher for the given registry.
func NewDispatcher(r *Registry, defaultPrefix string) *Dispatcher {
	if defaultPrefix == "" {
		defaultPrefix = DefaultPrefix
	}

	return &Dispatcher{
		Registry:      r,
		DefaultPrefix: defaultPrefix,
	}
}

type userLimiter struct {
	*rate.Limiter
	warned atomic.Bool
}

// SetRateLimit limits how often a single user can run commands.
// Idle limiters are dropped after ten minutes.
func (d *Dispatcher) SetRateLimit(limit rate.Limit, burst int) {
	d.limit = limit
	d.burst = burst

	d.limiters = ttlcache.NewCache()
	d.limiters.SetTTL(10 * time.Minute)
}

// Close releases the dispatcher's rate limiters.
func (d *Dispatcher) Close() error {
	if d.limiters == nil {
		return nil
	}
	return d.limiters.Close()
}

// allow returns false if the user is over their rate limit.
// The second return value is true the first time a user is refused after being allowed.
func (d *Dispatcher) allow(id discord.UserID) (allowed, warn bool) {
	if d.limiters == nil {
		return true, false
	}

	var l *userLimiter
	v, err := d.limiters.Get(id.String())
	if err == nil {
		l = v.(*userLimiter)
	} else {
		l = &userLimiter{Limiter: rate.NewLimiter(d.limit, d.burst)}
		if err := d.limiters.Set(id.String(), l); err != nil {
			log.Errorf("Error caching rate limiter for %v: %v", id, err)
		}
	}

	if l.Allow() {
		l.warned.Store(false)
		return true, false
	}
	return false, l.warned.CompareAndSwap(false, true)
}

// Prefix returns the prefix for the given guild, falling back to the default prefix.
func (d *Dispatcher) Prefix(ctx context.Context, guildID discord.GuildID) string {
	if d.Prefixes == nil || !guildID.IsValid() {
		return d.DefaultPrefix
	}

	prefix, err := d.Prefixes.Prefix(ctx, guildID)
	if err != nil {
		log.Errorf("Error getting prefix for guild %v: %v", guildID, err)
		return d.DefaultPrefix
	}
	if prefix == "" {
		return d.DefaultPrefix
	}
	return prefix
}

// Dispatch runs the command in ev, if any.
// Messages that aren't commands return nil.
// Rejected invocations are answered in chat and the rejection error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if ev.Member == nil || ev.Message.Author.Bot {
		return nil
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	prefix := d.Prefix(ctx, ev.Message.GuildID)
	content := strings.TrimSpace(ev.Message.Content)

	rest, ok := strings.CutPrefix(content, prefix)
	if !ok {
		for _, m := range d.Mentions {
			if rest, ok = strings.CutPrefix(content, m); ok {
				break
			}
		}
	}
	if !ok {
		return nil
	}

	// usage lines always show the guild's prefix
	return d.run(ctx, ev, prefix, strings.Fields(rest))
}

// MentionPrefixes returns both forms of a user's mention.
func MentionPrefixes(id discord.UserID) []string {
	return []string{"<@" + id.String() + ">", "<@!" + id.String() + ">"}
}

// Run runs the command named by tokens[0] with the remaining tokens as its arguments.
// It is used for invocations that don't come from a message's content, such as slash commands;
// prefix is only used in usage lines.
func (d *Dispatcher) Run(ctx context.Context, ev Event, prefix string, tokens []string) error {
	if ev.Member == nil {
		return nil
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	return d.run(ctx, ev, prefix, tokens)
}

func (d *Dispatcher) run(ctx context.Context, ev Event, prefix string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	cmd, ok := d.Registry.Lookup(tokens[0])
	if !ok {
		return nil
	}

	cctx := NewContext(ctx, cmd, ev, nil)
	cctx.Registry = d.Registry
	cctx.Prefix = prefix

	if allowed, warn := d.allow(ev.Message.Author.ID); !allowed {
		if warn {
			d.reply(cctx, RateLimitedMessage)
		}
		return ErrRateLimited
	}

	positional := tokens
	if cmd.Flags != nil {
		fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs = cmd.Flags(fs)

		if err := fs.Parse(tokens[1:]); err != nil {
			ierr := &InvalidArgumentError{
				Argument: "flags",
				Raw:      strings.Join(tokens[1:], " "),
				Message:  "Invalid flags: " + err.Error(),
				Err:      &ParseError{Raw: strings.Join(tokens[1:], " "), Err: err},
			}
			d.reply(cctx, ierr.Message)
			return ierr
		}

		cctx.Flags = fs
		positional = append([]string{tokens[0]}, fs.Args()...)
	}
	cctx.Tokens = positional

	if len(positional)-1 < cmd.MinArgs {
		ierr := &InsufficientArgumentsError{
			Command: cmd.Name,
			Usage:   cmd.Usage(prefix),
			Got:     len(positional) - 1,
			Want:    cmd.MinArgs,
		}
		d.reply(cctx, InsufficientArgumentsMessage(ierr.Usage))
		return ierr
	}

	// the permission lookup does I/O, so it runs while the arguments are parsed
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var level int
	g, gctx := errgroup.WithContext(pctx)
	if cmd.AdministratorLevel > 0 && d.Permissions != nil {
		g.Go(func() error {
			l, err := d.Permissions.AdministratorLevel(gctx, ev.Message.GuildID, ev.Member)
			if err != nil {
				return errors.Wrap(err, "getting administrator level")
			}
			level = l
			return nil
		})
	}

	args, argErr := cmd.parseArguments(positional)
	if argErr != nil {
		cancel()
	}
	permErr := g.Wait()

	if argErr != nil {
		var insufficient *InsufficientArgumentsError
		if errors.As(argErr, &insufficient) {
			insufficient.Usage = cmd.Usage(prefix)
			d.reply(cctx, InsufficientArgumentsMessage(insufficient.Usage))
			return argErr
		}

		var invalid *InvalidArgumentError
		if errors.As(argErr, &invalid) {
			d.reply(cctx, invalid.Message)
		}
		return argErr
	}

	if permErr != nil {
		log.Errorf("Error checking permissions for %v in %v: %v", ev.Message.Author.ID, ev.Message.GuildID, permErr)
		d.reportError(cctx, permErr)
		return permErr
	}

	if level < cmd.AdministratorLevel {
		d.reply(cctx, PermissionDeniedMessage)
		return &PermissionDeniedError{Command: cmd.Name, Required: cmd.AdministratorLevel, Level: level}
	}

	if cmd.BotAdministratorOnly && !d.isBotAdministrator(ev.Message.Author.ID) {
		d.reply(cctx, BotAdministratorMessage)
		return &PermissionDeniedError{Command: cmd.Name, BotAdministrator: true}
	}

	cctx.args = args
	cctx.AdministratorLevel = level

	if d.Counter != nil {
		d.Counter.IncCommand()
	}

	log.Debugf("Running command %v for %v in %v", cmd.Name, ev.Message.Author.ID, ev.Message.GuildID)

	if err := cmd.Executor.Execute(cctx); err != nil {
		err = errors.Wrapf(err, "running command %v", cmd.Name)
		d.reportError(cctx, err)
		return err
	}
	return nil
}

func (d *Dispatcher) isBotAdministrator(id discord.UserID) bool {
	for _, admin := range d.BotAdministrators {
		if admin == id {
			return true
		}
	}
	return false
}

func (d *Dispatcher) reply(ctx *Context, content string) {
	if err := ctx.Reply(content); err != nil {
		log.Errorf("Error sending reply in %v: %v", ctx.ChannelID, err)
	}
}

func (d *Dispatcher) reportError(ctx *Context, err error) {
	if d.Report != nil {
		d.Report(ctx, err)
		return
	}

	log.Errorf("Error in command %v: %v", ctx.Command.Name, err)
	d.reply(ctx, "An internal error occurred.")
}

// InsufficientArgumentsMessage is the reply to a command invoked with too few arguments.
func InsufficientArgumentsMessage(usage string) string {
	return "Huh? Could you repeat that? The usage of this command is: `" + usage + "`."
}
