package db

import (
	"context"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/xf8b/xf8bot/permissions"
)

// AdministratorRole is a role with an administrator level.
type AdministratorRole struct {
	GuildID int64 `db:"guild_id"`
	RoleID  int64 `db:"role_id"`
	Level   int   `db:"level"`
}

// Role returns the role's ID.
func (r AdministratorRole) Role() discord.RoleID {
	return discord.RoleID(r.RoleID)
}

// ListAdministratorRoles returns the guild's administrator roles, highest level first.
func (db *DB) ListAdministratorRoles(ctx context.Context, guildID discord.GuildID) (rs []AdministratorRole, err error) {
	sql, args, err := sq.Select("guild_id", "role_id", "level").
		From("administrator_roles").
		Where("guild_id = ?", guildID).
		OrderBy("level desc", "role_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building sql")
	}

	err = pgxscan.Select(ctx, db, &rs, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "getting administrator roles")
	}
	return rs, nil
}

// AdministratorRoles returns the guild's administrator roles mapped to their levels.
func (db *DB) AdministratorRoles(ctx context.Context, guildID discord.GuildID) (map[discord.RoleID]int, error) {
	rs, err := db.ListAdministratorRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	m := make(map[discord.RoleID]int, len(rs))
	for _, r := range rs {
		m[r.Role()] = r.Level
	}
	return m, nil
}

var _ permissions.RoleStore = (*DB)(nil)

// AddAdministratorRole adds a role with the given level, or changes its level if it already is an administrator role.
func (db *DB) AddAdministratorRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID, level int) error {
	if !permissions.ValidLevel(level) {
		return permissions.ErrInvalidLevel
	}

	if _, err := db.CreateGuild(ctx, guildID); err != nil {
		return errors.Wrap(err, "creating guild")
	}

	sql, args, err := sq.Insert("administrator_roles").
		Columns("guild_id", "role_id", "level").
		Values(guildID, roleID, level).
		Suffix("ON CONFLICT (guild_id, role_id) DO UPDATE SET level = EXCLUDED.level").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building sql")
	}

	_, err = db.Exec(ctx, sql, args...)
	return errors.Wrap(err, "adding administrator role")
}

// RemoveAdministratorRole removes an administrator role.
// It returns false if the role wasn't an administrator role.
func (db *DB) RemoveAdministratorRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) (removed bool, err error) {
	sql, args, err := sq.Delete("administrator_roles").
		Where("guild_id = ? and role_id = ?", guildID, roleID).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building sql")
	}

	ct, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return false, errors.Wrap(err, "removing administrator role")
	}
	return ct.RowsAffected() != 0, nil
}
