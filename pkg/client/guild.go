package client

import (
	"context"
	"sort"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/position"
	"fosscord/pkg/snowflake"
)

// Guild is the owner of the role, emoji and sticker stores.
type Guild struct {
	ID        snowflake.ID
	Name      string
	OwnerID   snowflake.ID
	Icon      *string
	Available bool

	Roles    *RoleManager
	Emojis   *EmojiManager
	Stickers *StickerManager

	client *Client
}

func newGuild(c *Client, id snowflake.ID) *Guild {
	g := &Guild{ID: id, Available: true, client: c}
	g.Roles = newRoleManager(g)
	g.Emojis = newEmojiManager(g)
	g.Stickers = newStickerManager(g)
	return g
}

// patch applies scalar fields. Child collections are applied by the caller.
func (g *Guild) patch(p models.GuildPayload) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.OwnerID != nil {
		g.OwnerID = *p.OwnerID
	}
	if p.Icon != nil {
		icon := *p.Icon
		g.Icon = &icon
	}
	if p.Unavailable != nil {
		g.Available = !*p.Unavailable
	}
}

// Clone copies the guild's attributes. The clone points at the live child
// stores, which belong to the owner and not to any snapshot of it.
func (g *Guild) Clone() *Guild {
	c := *g
	c.Icon = cloneString(g.Icon)
	return &c
}

func (g *Guild) Equal(o *Guild) bool {
	return g.ID == o.ID && g.Name == o.Name && g.OwnerID == o.OwnerID &&
		equalString(g.Icon, o.Icon) && g.Available == o.Available
}

// roleRanks takes every cached role's ordering key under one read lock and
// sorts lowest first.
func (g *Guild) roleRanks() []roleRank {
	ranks := make([]roleRank, 0, g.Roles.Cache.Len())
	g.Roles.Cache.Range(func(r *Role) {
		ranks = append(ranks, roleRank{role: r, id: r.ID, position: r.RawPosition})
	})
	sort.SliceStable(ranks, func(i, j int) bool { return compareRanks(ranks[i], ranks[j]) < 0 })
	return ranks
}

// SortedRoles returns the cached roles lowest first.
func (g *Guild) SortedRoles() []*Role {
	ranks := g.roleRanks()
	roles := make([]*Role, len(ranks))
	for i, rk := range ranks {
		roles[i] = rk.role
	}
	return roles
}

func (g *Guild) positionItems() []position.Item {
	ranks := g.roleRanks()
	items := make([]position.Item, len(ranks))
	for i, rk := range ranks {
		items[i] = position.Item{ID: rk.id, Position: rk.position}
	}
	return items
}

// teardown discards every child record.
func (g *Guild) teardown() {
	g.Roles.Cache.Clear()
	g.Emojis.Cache.Clear()
	g.Stickers.Cache.Clear()
}

// GuildManager holds the client's guilds.
type GuildManager struct {
	client *Client
	Cache  *cache.Store[snowflake.ID, *Guild]
}

func newGuildManager(c *Client) *GuildManager {
	return &GuildManager{client: c, Cache: cache.New[snowflake.ID, *Guild]("guilds", c.storeOption())}
}

// add upserts the guild and then each child collection it carries.
func (m *GuildManager) add(p models.GuildPayload) (*Guild, bool) {
	g, existed := m.Cache.Upsert(p.ID, func() *Guild { return newGuild(m.client, p.ID) }, func(g *Guild) { g.patch(p) })
	for _, rp := range p.Roles {
		g.Roles.add(rp, true)
	}
	for _, ep := range p.Emojis {
		g.Emojis.add(ep, true)
	}
	for _, sp := range p.Stickers {
		g.Stickers.add(sp, true)
	}
	return g, existed
}

// Fetch pulls one guild.
func (m *GuildManager) Fetch(ctx context.Context, id snowflake.ID, opts ...FetchOption) (*Guild, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if g, ok := m.Cache.Get(id); ok {
			return g, nil
		}
	}
	var p models.GuildPayload
	if err := m.client.request(ctx, "GET", "guilds/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	if !o.Cache {
		g := newGuild(m.client, p.ID)
		if live, ok := m.Cache.Snapshot(p.ID); ok {
			g = live
		}
		g.patch(p)
		return g, nil
	}
	g, _ := m.add(p)
	return g, nil
}

// FetchPreview pulls a guild preview. Previews are never cached.
func (m *GuildManager) FetchPreview(ctx context.Context, guild any) (*GuildPreview, error) {
	id := m.ResolveID(guild)
	if !id.Valid() {
		return nil, invalidResolvable("GuildResolvable")
	}
	gp := newGuildPreview(m.client, id)
	if err := gp.load(ctx); err != nil {
		return nil, err
	}
	return gp, nil
}

// Resolve accepts a *Guild, an id or a decimal id string.
func (m *GuildManager) Resolve(r any) *Guild {
	switch v := r.(type) {
	case *Guild:
		return v
	default:
		if g, ok := m.Cache.Get(rawID(r)); ok {
			return g
		}
		return nil
	}
}

func (m *GuildManager) ResolveID(r any) snowflake.ID {
	switch v := r.(type) {
	case *Guild:
		if v == nil {
			return 0
		}
		return v.ID
	case *GuildPreview:
		if v == nil {
			return 0
		}
		return v.ID
	default:
		return rawID(r)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneIDs(ids []snowflake.ID) []snowflake.ID {
	if ids == nil {
		return nil
	}
	return append([]snowflake.ID(nil), ids...)
}

func sortIDs(ids []snowflake.ID) {
	sort.Slice(ids, func(i, j int) bool { return snowflake.Compare(ids[i], ids[j]) < 0 })
}

func equalIDs(a, b []snowflake.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
