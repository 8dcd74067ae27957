package client

import (
	"context"

	"fosscord/pkg/bitfield"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

type RoleTags struct {
	BotID             snowflake.ID
	IntegrationID     snowflake.ID
	PremiumSubscriber bool
}

// Role is a guild role. RawPosition is the server-assigned position; the
// rank among siblings comes from ComparePositionTo.
type Role struct {
	ID           snowflake.ID
	GuildID      snowflake.ID
	Name         string
	Color        int
	Hoist        bool
	RawPosition  int
	Permissions  bitfield.Permissions
	Managed      bool
	Mentionable  bool
	Icon         *string
	UnicodeEmoji *string
	Tags         *RoleTags

	guild *Guild
}

func newRole(g *Guild, id snowflake.ID) *Role {
	return &Role{ID: id, GuildID: g.ID, guild: g}
}

func (r *Role) patch(p models.RolePayload) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	if p.Hoist != nil {
		r.Hoist = *p.Hoist
	}
	if p.Position != nil {
		r.RawPosition = *p.Position
	}
	if p.Permissions != nil {
		r.Permissions = *p.Permissions
	}
	if p.Managed != nil {
		r.Managed = *p.Managed
	}
	if p.Mentionable != nil {
		r.Mentionable = *p.Mentionable
	}
	if p.Icon != nil {
		r.Icon = cloneString(p.Icon)
	}
	if p.UnicodeEmoji != nil {
		r.UnicodeEmoji = cloneString(p.UnicodeEmoji)
	}
	if p.Tags != nil {
		tags := &RoleTags{PremiumSubscriber: bool(p.Tags.PremiumSubscriber)}
		if p.Tags.BotID != nil {
			tags.BotID = *p.Tags.BotID
		}
		if p.Tags.IntegrationID != nil {
			tags.IntegrationID = *p.Tags.IntegrationID
		}
		r.Tags = tags
	}
}

// Clone returns a detached copy sharing no mutable state with r.
func (r *Role) Clone() *Role {
	c := *r
	c.Icon = cloneString(r.Icon)
	c.UnicodeEmoji = cloneString(r.UnicodeEmoji)
	if r.Tags != nil {
		tags := *r.Tags
		c.Tags = &tags
	}
	return &c
}

// Equal compares every observable field.
func (r *Role) Equal(o *Role) bool {
	if r.ID != o.ID || r.Name != o.Name || r.Color != o.Color || r.Hoist != o.Hoist ||
		r.RawPosition != o.RawPosition || r.Permissions != o.Permissions ||
		r.Managed != o.Managed || r.Mentionable != o.Mentionable ||
		!equalString(r.Icon, o.Icon) || !equalString(r.UnicodeEmoji, o.UnicodeEmoji) {
		return false
	}
	if r.Tags == nil || o.Tags == nil {
		return r.Tags == o.Tags
	}
	return *r.Tags == *o.Tags
}

func (r *Role) Guild() *Guild { return r.guild }

// IsEveryone reports whether r is the guild's base role.
func (r *Role) IsEveryone() bool { return r.ID == r.GuildID }

// roleRank is a role's ordering key, read under its store lock.
type roleRank struct {
	role     *Role
	id       snowflake.ID
	position int
}

// compareRanks orders by raw position; on a tie the newer id ranks higher.
func compareRanks(a, b roleRank) int {
	if a.position == b.position {
		return snowflake.Compare(a.id, b.id)
	}
	if a.position < b.position {
		return -1
	}
	return 1
}

// rank reads r's position under the store lock when r is the cached record.
// A detached role is read as is.
func (r *Role) rank() roleRank {
	rk := roleRank{role: r, id: r.ID}
	live := false
	r.guild.Roles.Cache.Read(r.ID, func(c *Role) {
		if c == r {
			rk.position, live = c.RawPosition, true
		}
	})
	if !live {
		rk.position = r.RawPosition
	}
	return rk
}

// ComparePositionTo is negative when r ranks below other, positive when above.
func (r *Role) ComparePositionTo(other any) int {
	o := r.guild.Roles.Resolve(other)
	if o == nil {
		return 0
	}
	return compareRanks(r.rank(), o.rank())
}

// Position is the role's index among its cached siblings, lowest first.
func (r *Role) Position() int {
	for i, rk := range r.guild.roleRanks() {
		if rk.id == r.ID {
			return i
		}
	}
	return -1
}

// SetPosition moves the role. See RoleManager.SetPosition.
func (r *Role) SetPosition(ctx context.Context, position int, relative bool, reason string) (*Role, error) {
	return r.guild.Roles.SetPosition(ctx, r, position, relative, reason)
}

func (r *Role) Edit(ctx context.Context, data RoleData, reason string) (*Role, error) {
	return r.guild.Roles.Edit(ctx, r, data, reason)
}

func (r *Role) SetName(ctx context.Context, name, reason string) (*Role, error) {
	return r.Edit(ctx, RoleData{Name: &name}, reason)
}

func (r *Role) Delete(ctx context.Context, reason string) error {
	return r.guild.Roles.Delete(ctx, r, reason)
}
