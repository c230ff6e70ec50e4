package permissions_test

import (
	"context"
	"testing"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/permissions"
)

type guild struct {
	owner discord.UserID
	roles map[discord.RoleID]int
	err   error
}

func (g guild) GuildOwner(context.Context, discord.GuildID) (discord.UserID, error) {
	return g.owner, nil
}

func (g guild) AdministratorRoles(context.Context, discord.GuildID) (map[discord.RoleID]int, error) {
	return g.roles, g.err
}

func TestAdministratorLevel(t *testing.T) {
	g := guild{
		owner: 1,
		roles: map[discord.RoleID]int{
			10: 1,
			20: 3,
			30: 2,
		},
	}
	c := permissions.New(g, g)

	cases := []struct {
		name   string
		member *discord.Member
		want   int
	}{
		{"owner", &discord.Member{User: discord.User{ID: 1}}, 4},
		{"owner with a role", &discord.Member{User: discord.User{ID: 1}, RoleIDs: []discord.RoleID{10}}, 4},
		{"no roles", &discord.Member{User: discord.User{ID: 2}}, 0},
		{"unregistered role", &discord.Member{User: discord.User{ID: 2}, RoleIDs: []discord.RoleID{99}}, 0},
		{"single role", &discord.Member{User: discord.User{ID: 2}, RoleIDs: []discord.RoleID{30}}, 2},
		{"highest role wins", &discord.Member{User: discord.User{ID: 2}, RoleIDs: []discord.RoleID{10, 20, 30}}, 3},
		{"nil member", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.AdministratorLevel(context.Background(), 5, tc.member)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("level = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAdministratorLevelError(t *testing.T) {
	errDB := errors.Sentinel("database is down")
	g := guild{owner: 1, err: errDB}

	_, err := permissions.New(g, g).AdministratorLevel(context.Background(), 5, &discord.Member{User: discord.User{ID: 2}})
	if !errors.Is(err, errDB) {
		t.Errorf("got %v, want %v", err, errDB)
	}
}

func TestCanUse(t *testing.T) {
	for level := 0; level <= 4; level++ {
		for required := 0; required <= 4; required++ {
			if got, want := permissions.CanUse(level, required), level >= required; got != want {
				t.Errorf("CanUse(%d, %d) = %v", level, required, got)
			}
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []int{1, 2, 3, 4} {
		if !permissions.ValidLevel(l) {
			t.Errorf("ValidLevel(%d) = false", l)
		}
	}
	for _, l := range []int{-1, 0, 5} {
		if permissions.ValidLevel(l) {
			t.Errorf("ValidLevel(%d) = true", l)
		}
	}
}
