package client

import (
	"sort"

	"fosscord/pkg/cache"
	"fosscord/pkg/events"
	"fosscord/pkg/logger"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

// Result reports the record an action touched and whether its store already
// held it before the action ran.
type Result[T any] struct {
	Record    T
	WasCached bool
}

// Actions apply push deltas to the stores. Write responses that must share a
// delta's dedup rule are routed through here too. Handlers never block.
type Actions struct {
	c *Client
}

type diffable[V any] interface {
	cache.Entry[V]
	Equal(V) bool
}

// upsertDiff patches the record under the store lock and returns a copy of
// it taken just before the patch.
func upsertDiff[K comparable, V diffable[V]](s *cache.Store[K, V], key K, create func() V, patch func(V)) (old, live V, existed, changed bool) {
	live, existed = s.Upsert(key, create, func(v V) {
		old = v.Clone()
		patch(v)
		changed = !old.Equal(v)
	})
	return old, live, existed, changed
}

func (a *Actions) GuildCreate(p models.GuildPayload) Result[*Guild] {
	g, existed := a.c.Guilds.add(p)
	if existed {
		a.c.swallow(models.EventGuildCreate, "guild_create_known", "guild", p.ID)
	} else {
		a.c.emit(events.Event{Kind: events.GuildCreate, New: g})
	}
	return Result[*Guild]{Record: g, WasCached: existed}
}

// GuildDelete tears the guild down, discarding its child stores and its
// messages. An outage only marks the guild unavailable.
func (a *Actions) GuildDelete(ev models.GuildDeleteEvent) Result[*Guild] {
	if ev.Unavailable {
		g, ok := a.c.Guilds.Cache.Update(ev.ID, func(g *Guild) { g.Available = false })
		if !ok {
			a.c.swallow(models.EventGuildDelete, "guild_unavailable_uncached", "guild", ev.ID)
			return Result[*Guild]{}
		}
		logger.Info("guild_unavailable", "guild", ev.ID)
		return Result[*Guild]{Record: g, WasCached: true}
	}
	g, ok := a.c.Guilds.Cache.Remove(ev.ID)
	if !ok {
		a.c.swallow(models.EventGuildDelete, "guild_delete_uncached", "guild", ev.ID)
		return Result[*Guild]{}
	}
	g.teardown()
	removed := a.c.Messages.Cache.Sweep(func(m *Message) bool {
		if m.GuildID != ev.ID {
			return false
		}
		m.teardown()
		return true
	})
	logger.Debug("guild_teardown", "guild", ev.ID, "messages", removed)
	a.c.emit(events.Event{Kind: events.GuildDelete, Old: g})
	return Result[*Guild]{Record: g, WasCached: true}
}

func (a *Actions) GuildRoleCreate(g *Guild, p models.RolePayload) Result[*Role] {
	r, existed := g.Roles.add(p, true)
	if existed {
		a.c.swallow(models.EventGuildRoleCreate, "role_create_duplicate", "guild", g.ID, "role", p.ID)
	} else {
		a.c.emit(events.Event{Kind: events.RoleCreate, New: r})
	}
	return Result[*Role]{Record: r, WasCached: existed}
}

func (a *Actions) GuildRoleUpdate(g *Guild, p models.RolePayload) Result[*Role] {
	old, r, existed, changed := upsertDiff(g.Roles.Cache, p.ID,
		func() *Role { return newRole(g, p.ID) },
		func(r *Role) { r.patch(p) })
	switch {
	case !existed:
		a.c.swallow(models.EventGuildRoleUpdate, "role_update_uncached", "guild", g.ID, "role", p.ID)
	case !changed:
		a.c.swallow(models.EventGuildRoleUpdate, "role_update_unchanged", "guild", g.ID, "role", p.ID)
	default:
		a.c.emit(events.Event{Kind: events.RoleUpdate, Old: old, New: r})
	}
	return Result[*Role]{Record: r, WasCached: existed}
}

func (a *Actions) GuildRoleDelete(g *Guild, id snowflake.ID) Result[*Role] {
	r, ok := g.Roles.Cache.Remove(id)
	if !ok {
		a.c.swallow(models.EventGuildRoleDelete, "role_delete_uncached", "guild", g.ID, "role", id)
		return Result[*Role]{}
	}
	a.c.emit(events.Event{Kind: events.RoleDelete, Old: r})
	return Result[*Role]{Record: r, WasCached: true}
}

// GuildRolesPositionUpdate sets the position of every cached role listed and
// raises one notification with the touched roles lowest first. Other fields
// are left alone and uncached ids are skipped.
func (a *Actions) GuildRolesPositionUpdate(g *Guild, positions []models.RolePosition) []*Role {
	ranks := make([]roleRank, 0, len(positions))
	for _, rp := range positions {
		pos := rp.Position
		if r, ok := g.Roles.Cache.Update(rp.ID, func(r *Role) { r.RawPosition = pos }); ok {
			ranks = append(ranks, roleRank{role: r, id: r.ID, position: pos})
		}
	}
	if len(ranks) == 0 {
		a.c.swallow(models.EventGuildRolesPositionUpdate, "role_positions_uncached", "guild", g.ID, "roles", len(positions))
		return []*Role{}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return compareRanks(ranks[i], ranks[j]) < 0 })
	touched := make([]*Role, len(ranks))
	records := make([]any, len(ranks))
	for i, rk := range ranks {
		touched[i] = rk.role
		records[i] = rk.role
	}
	a.c.emit(events.Event{Kind: events.RolePositionsUpdate, New: g, Records: records})
	return touched
}

func (a *Actions) GuildStickerCreate(g *Guild, p models.StickerPayload) Result[*Sticker] {
	s, existed := g.Stickers.add(p, true)
	if existed {
		a.c.swallow(models.EventGuildStickerCreate, "sticker_create_duplicate", "guild", g.ID, "sticker", p.ID)
	} else {
		a.c.emit(events.Event{Kind: events.StickerCreate, New: s})
	}
	return Result[*Sticker]{Record: s, WasCached: existed}
}

func (a *Actions) GuildStickerUpdate(g *Guild, p models.StickerPayload) Result[*Sticker] {
	if p.User != nil {
		a.c.Users.add(*p.User, true)
	}
	old, s, existed, changed := upsertDiff(g.Stickers.Cache, p.ID,
		func() *Sticker { return newSticker(g, p.ID) },
		func(s *Sticker) { s.patch(p) })
	switch {
	case !existed:
		a.c.swallow(models.EventGuildStickerUpdate, "sticker_update_uncached", "guild", g.ID, "sticker", p.ID)
	case !changed:
		a.c.swallow(models.EventGuildStickerUpdate, "sticker_update_unchanged", "guild", g.ID, "sticker", p.ID)
	default:
		a.c.emit(events.Event{Kind: events.StickerUpdate, Old: old, New: s})
	}
	return Result[*Sticker]{Record: s, WasCached: existed}
}

func (a *Actions) GuildStickerDelete(g *Guild, id snowflake.ID) Result[*Sticker] {
	s, ok := g.Stickers.Cache.Remove(id)
	if !ok {
		a.c.swallow(models.EventGuildStickerDelete, "sticker_delete_uncached", "guild", g.ID, "sticker", id)
		return Result[*Sticker]{}
	}
	a.c.emit(events.Event{Kind: events.StickerDelete, Old: s})
	return Result[*Sticker]{Record: s, WasCached: true}
}

// GuildStickersUpdate diffs the full sticker set against the cache: new ids
// are created, known ids updated and missing ids deleted.
func (a *Actions) GuildStickersUpdate(g *Guild, stickers []models.StickerPayload) {
	known := g.Stickers.Cache.Keys()
	seen := make(map[snowflake.ID]struct{}, len(stickers))
	for _, p := range stickers {
		seen[p.ID] = struct{}{}
		if g.Stickers.Cache.Has(p.ID) {
			a.GuildStickerUpdate(g, p)
		} else {
			a.GuildStickerCreate(g, p)
		}
	}
	for _, id := range known {
		if _, ok := seen[id]; !ok {
			a.GuildStickerDelete(g, id)
		}
	}
}

func (a *Actions) GuildEmojiCreate(g *Guild, p models.EmojiPayload) Result[*GuildEmoji] {
	e, existed := g.Emojis.add(p, true)
	if existed {
		a.c.swallow(models.EventGuildEmojisUpdate, "emoji_create_duplicate", "guild", g.ID, "emoji", p.ID)
	} else {
		a.c.emit(events.Event{Kind: events.EmojiCreate, New: e})
	}
	return Result[*GuildEmoji]{Record: e, WasCached: existed}
}

func (a *Actions) GuildEmojiUpdate(g *Guild, p models.EmojiPayload) Result[*GuildEmoji] {
	if p.User != nil {
		a.c.Users.add(*p.User, true)
	}
	old, e, existed, changed := upsertDiff(g.Emojis.Cache, p.ID,
		func() *GuildEmoji { return newGuildEmoji(g, p.ID) },
		func(e *GuildEmoji) { e.patch(p) })
	switch {
	case !existed:
		a.c.swallow(models.EventGuildEmojisUpdate, "emoji_update_uncached", "guild", g.ID, "emoji", p.ID)
	case !changed:
		a.c.swallow(models.EventGuildEmojisUpdate, "emoji_update_unchanged", "guild", g.ID, "emoji", p.ID)
	default:
		a.c.emit(events.Event{Kind: events.EmojiUpdate, Old: old, New: e})
	}
	return Result[*GuildEmoji]{Record: e, WasCached: existed}
}

func (a *Actions) GuildEmojiDelete(g *Guild, id snowflake.ID) Result[*GuildEmoji] {
	e, ok := g.Emojis.Cache.Remove(id)
	if !ok {
		a.c.swallow(models.EventGuildEmojisUpdate, "emoji_delete_uncached", "guild", g.ID, "emoji", id)
		return Result[*GuildEmoji]{}
	}
	a.c.emit(events.Event{Kind: events.EmojiDelete, Old: e})
	return Result[*GuildEmoji]{Record: e, WasCached: true}
}

// GuildEmojisUpdate diffs the full emoji set the same way as stickers.
func (a *Actions) GuildEmojisUpdate(g *Guild, emojis []models.EmojiPayload) {
	known := g.Emojis.Cache.Keys()
	seen := make(map[snowflake.ID]struct{}, len(emojis))
	for _, p := range emojis {
		seen[p.ID] = struct{}{}
		if g.Emojis.Cache.Has(p.ID) {
			a.GuildEmojiUpdate(g, p)
		} else {
			a.GuildEmojiCreate(g, p)
		}
	}
	for _, id := range known {
		if _, ok := seen[id]; !ok {
			a.GuildEmojiDelete(g, id)
		}
	}
}

// MessageCreate inserts a message. A partial placeholder that gets its full
// payload counts as created.
func (a *Actions) MessageCreate(p models.MessagePayload) Result[*Message] {
	if p.Author != nil {
		a.c.Users.add(*p.Author, true)
	}
	var wasPartial bool
	m, existed := a.c.Messages.Cache.Upsert(p.ID,
		func() *Message { return newMessage(a.c, p.ChannelID, p.ID) },
		func(m *Message) {
			wasPartial = m.Partial
			m.patch(p)
		})
	if existed && !wasPartial {
		a.c.swallow(models.EventMessageCreate, "message_create_duplicate", "message", p.ID)
	} else {
		a.c.emit(events.Event{Kind: events.MessageCreate, New: m})
	}
	return Result[*Message]{Record: m, WasCached: existed}
}

func (a *Actions) MessageDelete(ev models.MessageDeleteEvent) Result[*Message] {
	m, ok := a.c.Messages.Cache.Remove(ev.ID)
	if !ok {
		a.c.swallow(models.EventMessageDelete, "message_delete_uncached", "message", ev.ID)
		return Result[*Message]{}
	}
	m.teardown()
	a.c.emit(events.Event{Kind: events.MessageDelete, Old: m})
	return Result[*Message]{Record: m, WasCached: true}
}

// MessageReactionAdd adds userID as a holder. An unseen reaction is created
// known with a zero count, or partial when the message is partial.
func (a *Actions) MessageReactionAdd(m *Message, userID snowflake.ID, emoji models.EmojiPayload) Result[*Reaction] {
	self := a.c.selfID()
	key := emojiKey(emoji)
	msgPartial := m.isPartial()
	var changed, partial bool
	r, existed := m.Reactions.Cache.Upsert(key, func() *Reaction {
		var count *int
		if !msgPartial {
			zero := 0
			count = &zero
		}
		return newReaction(m, emoji, count, self.Valid() && userID == self)
	}, func(r *Reaction) {
		changed = r.addHolder(userID, self)
		partial = r.count == nil
	})
	if !changed {
		a.c.swallow(models.EventMessageReactionAdd, "reaction_add_ignored",
			"message", m.ID, "emoji", key, "user", userID, "partial", partial)
		return Result[*Reaction]{Record: r, WasCached: existed}
	}
	a.c.emit(events.Event{Kind: events.MessageReactionAdd, New: r, User: a.user(userID)})
	return Result[*Reaction]{Record: r, WasCached: existed}
}

// MessageReactionRemove drops userID as a holder and evicts the reaction once
// it is empty.
func (a *Actions) MessageReactionRemove(m *Message, userID snowflake.ID, emoji models.EmojiPayload) Result[*Reaction] {
	self := a.c.selfID()
	key := emojiKey(emoji)
	var changed, evict bool
	r, ok := m.Reactions.Cache.Update(key, func(r *Reaction) { changed, evict = r.removeHolder(userID, self) })
	if !ok || !changed {
		a.c.swallow(models.EventMessageReactionRemove, "reaction_remove_ignored",
			"message", m.ID, "emoji", key, "user", userID, "cached", ok)
		return Result[*Reaction]{Record: r, WasCached: ok}
	}
	if evict {
		m.Reactions.Cache.RemoveIf(key, (*Reaction).evictable)
	}
	a.c.emit(events.Event{Kind: events.MessageReactionRemove, Old: r, User: a.user(userID)})
	return Result[*Reaction]{Record: r, WasCached: true}
}

func (a *Actions) MessageReactionRemoveAll(m *Message) []*Reaction {
	var removed []*Reaction
	m.Reactions.Cache.Sweep(func(r *Reaction) bool {
		removed = append(removed, r)
		return true
	})
	if len(removed) == 0 {
		a.c.swallow(models.EventMessageReactionRemoveAll, "reaction_remove_all_empty", "message", m.ID)
		return nil
	}
	records := make([]any, len(removed))
	for i, r := range removed {
		records[i] = r
	}
	a.c.emit(events.Event{Kind: events.MessageReactionRemoveAll, New: m, Records: records})
	return removed
}

func (a *Actions) MessageReactionRemoveEmoji(m *Message, key string) Result[*Reaction] {
	r, ok := m.Reactions.Cache.Remove(key)
	if !ok {
		a.c.swallow(models.EventMessageReactionRemoveEmoji, "reaction_remove_emoji_uncached", "message", m.ID, "emoji", key)
		return Result[*Reaction]{}
	}
	a.c.emit(events.Event{Kind: events.MessageReactionRemoveEmoji, Old: r})
	return Result[*Reaction]{Record: r, WasCached: true}
}

// UserUpdate applies a user delta. The client user is patched in place,
// including its token side effect.
func (a *Actions) UserUpdate(p models.UserPayload) Result[*User] {
	if self := a.c.selfID(); self.Valid() && p.ID == self {
		res := a.clientUserUpdate(p)
		return Result[*User]{Record: &res.Record.User, WasCached: res.WasCached}
	}
	old, u, existed, changed := upsertDiff(a.c.Users.Cache, p.ID,
		func() *User { return newUser(p.ID) },
		func(u *User) { u.patch(p) })
	switch {
	case !existed:
		a.c.swallow(models.EventUserUpdate, "user_update_uncached", "user", p.ID)
	case !changed:
		a.c.swallow(models.EventUserUpdate, "user_update_unchanged", "user", p.ID)
	default:
		a.c.emit(events.Event{Kind: events.UserUpdate, Old: old, New: u})
	}
	return Result[*User]{Record: u, WasCached: existed}
}

func (a *Actions) clientUserUpdate(p models.UserPayload) Result[*ClientUser] {
	old, cu, existed, changed := a.c.patchClientUser(p)
	if existed && changed {
		a.c.emit(events.Event{Kind: events.UserUpdate, Old: old, New: cu})
	} else {
		a.c.swallow(models.EventUserUpdate, "client_user_update_unchanged", "user", p.ID, "known", existed)
	}
	return Result[*ClientUser]{Record: cu, WasCached: existed}
}

// setClientUser applies a pulled client user without notifying.
func (a *Actions) setClientUser(p models.UserPayload) *ClientUser {
	_, cu, existed, _ := a.c.patchClientUser(p)
	if !existed {
		logger.Info("client_user_ready", "user", cu.ID)
	}
	return cu
}

// user returns the cached acting user, or its id when it is not cached.
func (a *Actions) user(id snowflake.ID) any {
	if u := a.c.Users.Resolve(id); u != nil {
		return u
	}
	return id
}
