package client

import (
	"context"

	"fosscord/pkg/bitfield"
	"fosscord/pkg/cache"
	"fosscord/pkg/color"
	"fosscord/pkg/logger"
	"fosscord/pkg/models"
	"fosscord/pkg/position"
	"fosscord/pkg/snowflake"
)

// RoleManager is the façade over one guild's roles.
type RoleManager struct {
	guild  *Guild
	client *Client
	Cache  *cache.Store[snowflake.ID, *Role]
}

func newRoleManager(g *Guild) *RoleManager {
	return &RoleManager{
		guild:  g,
		client: g.client,
		Cache:  cache.New[snowflake.ID, *Role]("roles", g.client.storeOption()),
	}
}

func (m *RoleManager) path() string { return "guilds/" + m.guild.ID.String() + "/roles" }

// add merges p into the store. With cache false the record is built, or
// cloned from the live one, and patched without being inserted.
func (m *RoleManager) add(p models.RolePayload, cache bool) (*Role, bool) {
	if !cache {
		r, ok := m.Cache.Snapshot(p.ID)
		if !ok {
			r = newRole(m.guild, p.ID)
		}
		r.patch(p)
		return r, ok
	}
	return m.Cache.Upsert(p.ID, func() *Role { return newRole(m.guild, p.ID) }, func(r *Role) { r.patch(p) })
}

// FetchAll pulls every role of the guild.
func (m *RoleManager) FetchAll(ctx context.Context, opts ...FetchOption) ([]*Role, error) {
	o := fetchOptions(opts)
	var payloads []models.RolePayload
	if err := m.client.request(ctx, "GET", m.path(), nil, &payloads); err != nil {
		return nil, err
	}
	roles := make([]*Role, 0, len(payloads))
	for _, p := range payloads {
		r, _ := m.add(p, o.Cache)
		roles = append(roles, r)
	}
	return roles, nil
}

// Fetch returns one role. Roles are only pulled in bulk, so a miss pulls
// every role and picks id; nil means the guild has no such role.
func (m *RoleManager) Fetch(ctx context.Context, id snowflake.ID, opts ...FetchOption) (*Role, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if r, ok := m.Cache.Get(id); ok {
			return r, nil
		}
	}
	m.client.diag.WarnOnce("roles.single_fetch", "role_fetch_bulk_fallback", "guild", m.guild.ID)
	roles, err := m.FetchAll(ctx, opts...)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

// CreateRoleOptions are the attributes of a new role. Color accepts anything
// color.Resolve does and Permissions anything bitfield.Resolve does. A
// non-zero Position triggers a reorder once the role exists.
type CreateRoleOptions struct {
	Name         *string
	Color        any
	Hoist        *bool
	Permissions  any
	Mentionable  *bool
	Icon         *string
	UnicodeEmoji *string
	Position     int
	Reason       string
}

// RoleData is an edit. Nil fields are left unchanged.
type RoleData struct {
	Name         *string
	Color        any
	Hoist        *bool
	Permissions  any
	Mentionable  *bool
	Icon         *string
	UnicodeEmoji *string
	Position     *int
}

func writeBody(name *string, col any, hoist *bool, perms any, mentionable *bool, icon, emoji *string) (models.RoleWriteBody, error) {
	body := models.RoleWriteBody{Name: name, Hoist: hoist, Mentionable: mentionable, Icon: icon, UnicodeEmoji: emoji}
	if col != nil {
		n, err := color.Resolve(col)
		if err != nil {
			return body, err
		}
		body.Color = &n
	}
	if perms != nil {
		bits, err := bitfield.Resolve(perms)
		if err != nil {
			return body, err
		}
		body.Permissions = &bits
	}
	return body, nil
}

// Create posts a new role and routes the response through the role create
// action, the same path a pushed creation takes.
func (m *RoleManager) Create(ctx context.Context, opts CreateRoleOptions) (*Role, error) {
	body, err := writeBody(opts.Name, opts.Color, opts.Hoist, opts.Permissions, opts.Mentionable, opts.Icon, opts.UnicodeEmoji)
	if err != nil {
		return nil, err
	}
	var p models.RolePayload
	if err := m.client.request(ctx, "POST", m.path(), body, &p, reasonOpts(opts.Reason)...); err != nil {
		return nil, err
	}
	res := m.client.Actions.GuildRoleCreate(m.guild, p)
	if opts.Position != 0 {
		return res.Record.SetPosition(ctx, opts.Position, false, opts.Reason)
	}
	return res.Record, nil
}

// Edit changes a role. A position change is reconciled first as its own
// round trip. The returned role is a detached copy of the pre-edit record
// patched with the write response; the cached record only changes when a
// push delta arrives.
func (m *RoleManager) Edit(ctx context.Context, role any, data RoleData, reason string) (*Role, error) {
	r := m.Resolve(role)
	if r == nil {
		return nil, invalidResolvable("RoleResolvable")
	}
	body, err := writeBody(data.Name, data.Color, data.Hoist, data.Permissions, data.Mentionable, data.Icon, data.UnicodeEmoji)
	if err != nil {
		return nil, err
	}
	if data.Position != nil {
		if _, err := m.SetPosition(ctx, r, *data.Position, false, reason); err != nil {
			return nil, err
		}
	}

	var p models.RolePayload
	if err := m.client.request(ctx, "PATCH", m.path()+"/"+r.ID.String(), body, &p, reasonOpts(reason)...); err != nil {
		return nil, err
	}
	clone, ok := m.Cache.Snapshot(r.ID)
	if !ok {
		clone = r.Clone()
	}
	clone.patch(p)
	return clone, nil
}

// Delete removes a role and routes the removal through the role delete action.
func (m *RoleManager) Delete(ctx context.Context, role any, reason string) error {
	id := m.ResolveID(role)
	if !id.Valid() {
		return invalidResolvable("RoleResolvable")
	}
	if err := m.client.request(ctx, "DELETE", m.path()+"/"+id.String(), nil, nil, reasonOpts(reason)...); err != nil {
		return err
	}
	m.client.Actions.GuildRoleDelete(m.guild, id)
	return nil
}

// SetPosition reconciles the sibling order around role and submits it as
// one batch. Out of range positions are clamped and positions below 1
// reset to 1; the base role cannot move.
func (m *RoleManager) SetPosition(ctx context.Context, role any, pos int, relative bool, reason string) (*Role, error) {
	r := m.Resolve(role)
	if r == nil {
		return nil, invalidResolvable("RoleResolvable")
	}
	plan, ok := position.Reconcile(m.guild.positionItems(), m.guild.ID, r.ID, pos, relative)
	if !ok {
		return nil, invalidResolvable("RoleResolvable")
	}
	logger.Debug("role_position_reconciled", "guild", m.guild.ID, "role", r.ID, "position", plan.Position, "changed", len(plan.Changed()))
	if _, err := m.SetPositions(ctx, plan.Pairs, reason); err != nil {
		return nil, err
	}
	if live, ok := m.Cache.Get(r.ID); ok {
		return live, nil
	}
	return r, nil
}

// SetPositions submits a batch reorder and feeds the server-confirmed list
// through the positional batch action once.
func (m *RoleManager) SetPositions(ctx context.Context, pairs []position.Pair, reason string) ([]*Role, error) {
	var confirmed []models.RolePayload
	if err := m.client.request(ctx, "PATCH", m.path(), pairs, &confirmed, reasonOpts(reason)...); err != nil {
		return nil, err
	}
	positions := make([]models.RolePosition, 0, len(confirmed))
	for _, p := range confirmed {
		if p.Position == nil {
			continue
		}
		positions = append(positions, models.RolePosition{ID: p.ID, Position: *p.Position})
	}
	return m.client.Actions.GuildRolesPositionUpdate(m.guild, positions), nil
}

// Everyone returns the base role, or nil when it is not cached.
func (m *RoleManager) Everyone() *Role {
	r, _ := m.Cache.Get(m.guild.ID)
	return r
}

// Highest returns the top ranked cached role.
func (m *RoleManager) Highest() *Role {
	ranks := m.guild.roleRanks()
	if len(ranks) == 0 {
		return nil
	}
	return ranks[len(ranks)-1].role
}

// BotRoleFor returns the managed role created for a bot user.
func (m *RoleManager) BotRoleFor(user any) *Role {
	id := m.client.Users.ResolveID(user)
	if !id.Valid() {
		return nil
	}
	r, _ := m.Cache.Find(func(r *Role) bool { return r.Tags != nil && r.Tags.BotID == id })
	return r
}

func (m *RoleManager) PremiumSubscriberRole() *Role {
	r, _ := m.Cache.Find(func(r *Role) bool { return r.Tags != nil && r.Tags.PremiumSubscriber })
	return r
}

// Resolve accepts a *Role, an id or a decimal id string.
func (m *RoleManager) Resolve(r any) *Role {
	if v, ok := r.(*Role); ok {
		return v
	}
	role, _ := m.Cache.Get(rawID(r))
	return role
}

func (m *RoleManager) ResolveID(r any) snowflake.ID {
	if v, ok := r.(*Role); ok {
		if v == nil {
			return 0
		}
		return v.ID
	}
	return rawID(r)
}
