package client

import (
	"context"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

// GuildEmoji is a custom emoji owned by a guild.
type GuildEmoji struct {
	ID            snowflake.ID
	GuildID       snowflake.ID
	Name          string
	Animated      bool
	Available     bool
	Managed       bool
	RequireColons bool
	Roles         []snowflake.ID
	UserID        snowflake.ID

	guild *Guild
}

func newGuildEmoji(g *Guild, id snowflake.ID) *GuildEmoji {
	return &GuildEmoji{ID: id, GuildID: g.ID, Available: true, guild: g}
}

func (e *GuildEmoji) patch(p models.EmojiPayload) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Animated != nil {
		e.Animated = *p.Animated
	}
	if p.Available != nil {
		e.Available = *p.Available
	}
	if p.Managed != nil {
		e.Managed = *p.Managed
	}
	if p.RequireColons != nil {
		e.RequireColons = *p.RequireColons
	}
	if p.Roles != nil {
		e.Roles = cloneIDs(p.Roles)
	}
	if p.User != nil {
		e.UserID = p.User.ID
	}
}

func (e *GuildEmoji) Clone() *GuildEmoji {
	c := *e
	c.Roles = cloneIDs(e.Roles)
	return &c
}

func (e *GuildEmoji) Equal(o *GuildEmoji) bool {
	return e.ID == o.ID && e.Name == o.Name && e.Animated == o.Animated &&
		e.Available == o.Available && e.Managed == o.Managed &&
		e.RequireColons == o.RequireColons && e.UserID == o.UserID && equalIDs(e.Roles, o.Roles)
}

func (e *GuildEmoji) Guild() *Guild { return e.guild }

// Identifier is the form used in reaction routes.
func (e *GuildEmoji) Identifier() string { return e.Name + ":" + e.ID.String() }

type EmojiManager struct {
	guild  *Guild
	client *Client
	Cache  *cache.Store[snowflake.ID, *GuildEmoji]
}

func newEmojiManager(g *Guild) *EmojiManager {
	return &EmojiManager{
		guild:  g,
		client: g.client,
		Cache:  cache.New[snowflake.ID, *GuildEmoji]("emojis", g.client.storeOption()),
	}
}

func (m *EmojiManager) path() string { return "guilds/" + m.guild.ID.String() + "/emojis" }

func (m *EmojiManager) add(p models.EmojiPayload, cache bool) (*GuildEmoji, bool) {
	if p.User != nil {
		m.client.Users.add(*p.User, cache)
	}
	if !cache {
		e, ok := m.Cache.Snapshot(p.ID)
		if !ok {
			e = newGuildEmoji(m.guild, p.ID)
		}
		e.patch(p)
		return e, ok
	}
	return m.Cache.Upsert(p.ID, func() *GuildEmoji { return newGuildEmoji(m.guild, p.ID) }, func(e *GuildEmoji) { e.patch(p) })
}

func (m *EmojiManager) Fetch(ctx context.Context, id snowflake.ID, opts ...FetchOption) (*GuildEmoji, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if e, ok := m.Cache.Get(id); ok {
			return e, nil
		}
	}
	var p models.EmojiPayload
	if err := m.client.request(ctx, "GET", m.path()+"/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	e, _ := m.add(p, o.Cache)
	return e, nil
}

func (m *EmojiManager) FetchAll(ctx context.Context, opts ...FetchOption) ([]*GuildEmoji, error) {
	o := fetchOptions(opts)
	var payloads []models.EmojiPayload
	if err := m.client.request(ctx, "GET", m.path(), nil, &payloads); err != nil {
		return nil, err
	}
	out := make([]*GuildEmoji, 0, len(payloads))
	for _, p := range payloads {
		e, _ := m.add(p, o.Cache)
		out = append(out, e)
	}
	return out, nil
}

func (m *EmojiManager) Resolve(r any) *GuildEmoji {
	if v, ok := r.(*GuildEmoji); ok {
		return v
	}
	e, _ := m.Cache.Get(rawID(r))
	return e
}

func (m *EmojiManager) ResolveID(r any) snowflake.ID {
	if v, ok := r.(*GuildEmoji); ok {
		if v == nil {
			return 0
		}
		return v.ID
	}
	return rawID(r)
}
