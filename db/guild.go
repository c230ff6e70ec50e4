package db

import (
	"context"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jackc/pgx/v4"
	"github.com/mediocregopher/radix/v4"
	"github.com/xf8b/xf8bot/common/log"
)

// MaxPrefixLength is the maximum length of a custom prefix.
const MaxPrefixLength = 32

// ErrInvalidPrefix is returned by SetPrefix for empty, too long, or multi-word prefixes.
const ErrInvalidPrefix = errors.Sentinel("prefix must be 1 to 32 characters without spaces")

// CreateGuild adds a guild to the database, if it isn't in it already.
func (db *DB) CreateGuild(ctx context.Context, id discord.GuildID) (alreadyExists bool, err error) {
	sql, args, err := sq.Insert("guilds").
		Columns("id").
		Values(id).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building sql")
	}

	ct, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return false, errors.Wrap(err, "executing query")
	}

	return ct.RowsAffected() == 0, nil
}

func prefixKey(id discord.GuildID) string {
	return "prefix:" + id.String()
}

// Prefix returns the guild's custom prefix, or an empty string if it has none.
func (db *DB) Prefix(ctx context.Context, id discord.GuildID) (string, error) {
	if db.Redis != nil {
		var s string
		mb := radix.Maybe{Rcv: &s}

		err := db.Redis.Do(ctx, radix.Cmd(&mb, "GET", prefixKey(id)))
		if err == nil && !mb.Null {
			return s, nil
		}
		if err != nil {
			log.Errorf("Error getting cached prefix for guild %v: %v", id, err)
		}
	}

	var prefix *string
	err := db.QueryRow(ctx, "select prefix from guilds where id = $1", id).Scan(&prefix)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", errors.Wrap(err, "getting prefix")
	}

	s := ""
	if prefix != nil {
		s = *prefix
	}

	db.cachePrefix(ctx, id, s)
	return s, nil
}

func (db *DB) cachePrefix(ctx context.Context, id discord.GuildID, prefix string) {
	if db.Redis == nil {
		return
	}

	ttl := strconv.Itoa(int(db.PrefixTTL.Seconds()))
	if err := db.Redis.Do(ctx, radix.Cmd(nil, "SET", prefixKey(id), prefix, "EX", ttl)); err != nil {
		log.Errorf("Error caching prefix for guild %v: %v", id, err)
	}
}

// ValidPrefix returns true if prefix can be used as a custom prefix.
func ValidPrefix(prefix string) bool {
	return prefix != "" &&
		len(prefix) <= MaxPrefixLength &&
		!strings.ContainsAny(prefix, " \t\n\r")
}

// SetPrefix sets the guild's custom prefix.
func (db *DB) SetPrefix(ctx context.Context, id discord.GuildID, prefix string) error {
	if !ValidPrefix(prefix) {
		return ErrInvalidPrefix
	}

	return db.updatePrefix(ctx, id, &prefix)
}

// ResetPrefix removes the guild's custom prefix.
func (db *DB) ResetPrefix(ctx context.Context, id discord.GuildID) error {
	return db.updatePrefix(ctx, id, nil)
}

func (db *DB) updatePrefix(ctx context.Context, id discord.GuildID, prefix *string) error {
	sql, args, err := sq.Insert("guilds").
		Columns("id", "prefix").
		Values(id, prefix).
		Suffix("ON CONFLICT (id) DO UPDATE SET prefix = EXCLUDED.prefix").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building sql")
	}

	if _, err = db.Exec(ctx, sql, args...); err != nil {
		return errors.Wrap(err, "updating prefix")
	}

	if db.Redis != nil {
		if err := db.Redis.Do(ctx, radix.Cmd(nil, "DEL", prefixKey(id))); err != nil {
			log.Errorf("Error clearing cached prefix for guild %v: %v", id, err)
		}
	}
	return nil
}
