// Package permissions computes the administrator level of guild members.
// The guild owner has the highest level; everyone else has the highest level of
// their roles registered as administrator roles, or 0.
package permissions

import (
	"context"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/sync/errgroup"
)

// Administrator levels.
const (
	LevelNone  = 0
	LevelMin   = 1
	LevelMax   = 4
	LevelOwner = LevelMax
)

// ErrInvalidLevel is returned for levels outside LevelMin to LevelMax.
const ErrInvalidLevel = errors.Sentinel("administrator level must be between 1 and 4")

// ValidLevel returns true if level can be assigned to a role.
func ValidLevel(level int) bool {
	return level >= LevelMin && level <= LevelMax
}

// OwnerLookup returns the owner of a guild.
type OwnerLookup interface {
	GuildOwner(ctx context.Context, guildID discord.GuildID) (discord.UserID, error)
}

// RoleStore returns a guild's administrator roles and their levels.
type RoleStore interface {
	AdministratorRoles(ctx context.Context, guildID discord.GuildID) (map[discord.RoleID]int, error)
}

// Checker implements the dispatcher's permission lookup.
type Checker struct {
	Owners OwnerLookup
	Roles  RoleStore
}

// New returns a Checker.
func New(owners OwnerLookup, roles RoleStore) *Checker {
	return &Checker{Owners: owners, Roles: roles}
}

// AdministratorLevel returns the level of m in the given guild.
func (c *Checker) AdministratorLevel(ctx context.Context, guildID discord.GuildID, m *discord.Member) (int, error) {
	if m == nil {
		return LevelNone, nil
	}

	var (
		owner discord.UserID
		roles map[discord.RoleID]int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		owner, err = c.Owners.GuildOwner(ctx, guildID)
		return errors.Wrap(err, "getting guild owner")
	})
	g.Go(func() (err error) {
		roles, err = c.Roles.AdministratorRoles(ctx, guildID)
		return errors.Wrap(err, "getting administrator roles")
	})
	if err := g.Wait(); err != nil {
		return LevelNone, err
	}

	if owner == m.User.ID {
		return LevelOwner, nil
	}
	return Level(roles, m.RoleIDs), nil
}

// Level returns the highest level in levels among the given roles.
func Level(levels map[discord.RoleID]int, roles []discord.RoleID) int {
	level := LevelNone
	for _, id := range roles {
		if l, ok := levels[id]; ok && l > level {
			level = l
		}
	}
	if level > LevelMax {
		level = LevelMax
	}
	return level
}

// CanUse returns true if level is at least required.
func CanUse(level, required int) bool {
	return level >= required
}
