package client

import (
	"context"
	"net/url"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/rest"
	"fosscord/pkg/snowflake"
)

type ReactionEmojiKind int

const (
	// EmojiPlaceholder carries only what the reaction payload said.
	EmojiPlaceholder ReactionEmojiKind = iota
	// EmojiKnown resolved to a cached guild emoji.
	EmojiKnown
)

// ReactionEmoji is the emoji of a reaction as resolved at read time.
type ReactionEmoji struct {
	Kind     ReactionEmojiKind
	ID       snowflake.ID
	Name     string
	Animated bool
	Emoji    *GuildEmoji
}

// Identifier is the form used in reaction routes.
func (e ReactionEmoji) Identifier() string {
	if e.ID.Valid() {
		return e.Name + ":" + e.ID.String()
	}
	return url.PathEscape(e.Name)
}

// emojiKey keys a reaction within its message: the custom emoji id, or the
// unicode name.
func emojiKey(p models.EmojiPayload) string {
	if p.ID.Valid() {
		return p.ID.String()
	}
	if p.Name != nil {
		return *p.Name
	}
	return ""
}

// Reaction aggregates one emoji on one message. A nil count is partial and
// ignores holder changes until a fetch makes it known.
type Reaction struct {
	count   *int
	me      bool
	holders mapset.Set[snowflake.ID]

	emojiID       snowflake.ID
	emojiName     string
	emojiAnimated bool

	message *Message
	Users   *ReactionUserManager
}

func newReaction(m *Message, e models.EmojiPayload, count *int, me bool) *Reaction {
	r := &Reaction{
		me:      me,
		holders: mapset.NewSet[snowflake.ID](),
		emojiID: e.ID,
		message: m,
	}
	if count != nil {
		n := *count
		r.count = &n
	}
	r.patchEmoji(e)
	r.Users = &ReactionUserManager{reaction: r, client: m.client}
	return r
}

func (r *Reaction) patchEmoji(e models.EmojiPayload) {
	if e.Name != nil {
		r.emojiName = *e.Name
	}
	if e.Animated != nil {
		r.emojiAnimated = *e.Animated
	}
}

// patch applies a snapshot from a message pull.
func (r *Reaction) patch(p models.ReactionPayload) {
	if p.Count != nil {
		n := *p.Count
		r.count = &n
	}
	if p.Me != nil {
		r.me = *p.Me
	}
	r.patchEmoji(p.Emoji)
}

func (r *Reaction) Clone() *Reaction {
	c := *r
	if r.count != nil {
		n := *r.count
		c.count = &n
	}
	c.holders = r.holders.Clone()
	return &c
}

// Count returns the count and whether it is known.
func (r *Reaction) Count() (int, bool) {
	if r.count == nil {
		return 0, false
	}
	return *r.count, true
}

func (r *Reaction) Partial() bool { return r.count == nil }

// Me reports whether the client user is among the holders.
func (r *Reaction) Me() bool { return r.me }

// Holders lists the locally known holders in id order.
func (r *Reaction) Holders() []snowflake.ID {
	ids := r.holders.ToSlice()
	sortIDs(ids)
	return ids
}

func (r *Reaction) Message() *Message { return r.message }

// Key is the reaction's key in its message's store.
func (r *Reaction) Key() string {
	if r.emojiID.Valid() {
		return r.emojiID.String()
	}
	return r.emojiName
}

// Emoji resolves the reaction's emoji against the client's guild emojis.
func (r *Reaction) Emoji() ReactionEmoji {
	e := ReactionEmoji{Kind: EmojiPlaceholder, ID: r.emojiID, Name: r.emojiName, Animated: r.emojiAnimated}
	if ge, ok := r.message.client.Emoji(r.emojiID); ok {
		e.Kind = EmojiKnown
		e.Name = ge.Name
		e.Animated = ge.Animated
		e.Emoji = ge
	}
	return e
}

func (r *Reaction) setCount(n int) {
	r.count = &n
}

// addHolder records user as a holder. It reports whether anything changed.
func (r *Reaction) addHolder(user, self snowflake.ID) bool {
	if r.count == nil || r.holders.Contains(user) {
		return false
	}
	r.holders.Add(user)
	isSelf := self.Valid() && user == self
	if !(isSelf && r.me && *r.count != 0) {
		r.setCount(*r.count + 1)
	}
	if isSelf {
		r.me = true
	}
	return true
}

// removeHolder drops user. It reports whether anything changed and whether
// the reaction is now empty and must be evicted from its message.
func (r *Reaction) removeHolder(user, self snowflake.ID) (changed, evict bool) {
	if r.count == nil {
		return false, false
	}
	r.holders.Remove(user)
	if *r.count > 0 {
		r.setCount(*r.count - 1)
	}
	if self.Valid() && user == self {
		r.me = false
	}
	return true, r.evictable()
}

func (r *Reaction) evictable() bool {
	return r.count != nil && *r.count == 0 && r.holders.Cardinality() == 0
}

func (r *Reaction) path() string {
	return r.message.path() + "/reactions/" + r.Emoji().Identifier()
}

// Remove deletes every reaction of this emoji on the message.
func (r *Reaction) Remove(ctx context.Context) error {
	if err := r.message.client.request(ctx, "DELETE", r.path(), nil, nil); err != nil {
		return err
	}
	r.message.client.Actions.MessageReactionRemoveEmoji(r.message, r.Key())
	return nil
}

// Fetch refetches the message so the reaction becomes known. A reaction the
// server no longer reports is known with a count of zero.
func (r *Reaction) Fetch(ctx context.Context) (*Reaction, error) {
	msg, err := r.message.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	zero := func(x *Reaction) {
		if x.count == nil {
			x.setCount(0)
		}
	}
	if live, ok := msg.Reactions.Cache.Update(r.Key(), zero); ok {
		return live, nil
	}
	zero(r)
	return r, nil
}

type ReactionManager struct {
	message *Message
	client  *Client
	Cache   *cache.Store[string, *Reaction]
}

func newReactionManager(m *Message, opts ...cache.Option) *ReactionManager {
	return &ReactionManager{
		message: m,
		client:  m.client,
		Cache:   cache.New[string, *Reaction]("reactions", opts...),
	}
}

// add merges a pulled reaction snapshot.
func (m *ReactionManager) add(p models.ReactionPayload) (*Reaction, bool) {
	key := emojiKey(p.Emoji)
	return m.Cache.Upsert(key, func() *Reaction {
		return newReaction(m.message, p.Emoji, nil, false)
	}, func(r *Reaction) { r.patch(p) })
}

// Resolve accepts a *Reaction or an emoji key (custom emoji id or unicode name).
func (m *ReactionManager) Resolve(r any) *Reaction {
	switch v := r.(type) {
	case *Reaction:
		return v
	case string:
		rec, _ := m.Cache.Get(v)
		return rec
	case snowflake.ID:
		rec, _ := m.Cache.Get(v.String())
		return rec
	case *GuildEmoji:
		if v == nil {
			return nil
		}
		rec, _ := m.Cache.Get(v.ID.String())
		return rec
	default:
		return nil
	}
}

// RemoveAll clears every reaction on the message.
func (m *ReactionManager) RemoveAll(ctx context.Context) error {
	if err := m.client.request(ctx, "DELETE", m.message.path()+"/reactions", nil, nil); err != nil {
		return err
	}
	m.client.Actions.MessageReactionRemoveAll(m.message)
	return nil
}

// ReactionUserManager loads the users holding a reaction.
type ReactionUserManager struct {
	reaction *Reaction
	client   *Client
}

// Fetch loads up to limit holders into the users store and the holder set.
// The count is left alone.
func (m *ReactionUserManager) Fetch(ctx context.Context, limit int) ([]*User, error) {
	var opts []rest.RequestOption
	if limit > 0 {
		opts = append(opts, rest.WithQuery("limit", strconv.Itoa(limit)))
	}
	var payloads []models.UserPayload
	if err := m.client.request(ctx, "GET", m.reaction.path(), nil, &payloads, opts...); err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(payloads))
	ids := make([]snowflake.ID, 0, len(payloads))
	for _, p := range payloads {
		u, _ := m.client.Users.add(p, true)
		users = append(users, u)
		ids = append(ids, p.ID)
	}
	self := m.client.selfID()
	hold := func(r *Reaction) {
		for _, id := range ids {
			r.holders.Add(id)
			if self.Valid() && id == self {
				r.me = true
			}
		}
	}
	msgReactions := m.reaction.message.Reactions.Cache
	if _, ok := msgReactions.Update(m.reaction.Key(), hold); !ok {
		hold(m.reaction)
	}
	return users, nil
}

// Remove takes user's reaction off the message. A nil user means the client user.
func (m *ReactionUserManager) Remove(ctx context.Context, user any) error {
	target := "@me"
	if user != nil {
		id := m.client.Users.ResolveID(user)
		if !id.Valid() {
			return invalidResolvable("UserResolvable")
		}
		if id != m.client.selfID() {
			target = id.String()
		}
	}
	return m.client.request(ctx, "DELETE", m.reaction.path()+"/"+target, nil, nil)
}
