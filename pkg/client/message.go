package client

import (
	"context"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

// Message owns its reaction store. A partial message is one only referenced
// by a reaction event; its reactions stay partial until it is fetched.
type Message struct {
	ID        snowflake.ID
	ChannelID snowflake.ID
	GuildID   snowflake.ID
	AuthorID  snowflake.ID
	Content   string
	Partial   bool

	Reactions *ReactionManager

	client *Client
}

func newMessage(c *Client, channelID, id snowflake.ID) *Message {
	m := &Message{ID: id, ChannelID: channelID, client: c}
	m.Reactions = newReactionManager(m, c.storeOption())
	return m
}

// patch applies a full message payload, which also clears the partial flag.
func (m *Message) patch(p models.MessagePayload) {
	m.Partial = false
	if p.GuildID.Valid() {
		m.GuildID = p.GuildID
	}
	if p.Author != nil {
		m.AuthorID = p.Author.ID
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Reactions == nil {
		return
	}
	// a reactions key replaces the set; reactions it omits are dropped
	seen := make(map[string]struct{}, len(p.Reactions))
	for _, rp := range p.Reactions {
		m.Reactions.add(rp)
		seen[emojiKey(rp.Emoji)] = struct{}{}
	}
	m.Reactions.Cache.Sweep(func(r *Reaction) bool {
		_, ok := seen[r.Key()]
		return !ok
	})
}

// isPartial reads the partial flag under the messages store lock when m is
// the cached record.
func (m *Message) isPartial() bool {
	partial, live := false, false
	m.client.Messages.Cache.Read(m.ID, func(c *Message) {
		if c == m {
			partial, live = c.Partial, true
		}
	})
	if !live {
		return m.Partial
	}
	return partial
}

// Clone copies the message's attributes; the reaction store stays shared.
func (m *Message) Clone() *Message {
	c := *m
	return &c
}

func (m *Message) Equal(o *Message) bool {
	return m.ID == o.ID && m.ChannelID == o.ChannelID && m.GuildID == o.GuildID &&
		m.AuthorID == o.AuthorID && m.Content == o.Content && m.Partial == o.Partial
}

// teardown discards the message's reactions.
func (m *Message) teardown() { m.Reactions.Cache.Clear() }

func (m *Message) path() string {
	return "channels/" + m.ChannelID.String() + "/messages/" + m.ID.String()
}

// Fetch refreshes the message from the server.
func (m *Message) Fetch(ctx context.Context) (*Message, error) {
	return m.client.Messages.Fetch(ctx, m.ChannelID, m.ID, WithForce(true))
}

type MessageManager struct {
	client *Client
	Cache  *cache.Store[snowflake.ID, *Message]
}

func newMessageManager(c *Client) *MessageManager {
	return &MessageManager{client: c, Cache: cache.New[snowflake.ID, *Message]("messages", c.storeOption())}
}

func (m *MessageManager) add(p models.MessagePayload, cache bool) (*Message, bool) {
	if p.Author != nil {
		m.client.Users.add(*p.Author, cache)
	}
	if !cache {
		// detached reactions are kept out of the record gauge
		msg, ok := m.Cache.Snapshot(p.ID)
		if !ok {
			msg = &Message{ID: p.ID, ChannelID: p.ChannelID, client: m.client}
		}
		msg.Reactions = newReactionManager(msg)
		msg.patch(p)
		return msg, ok
	}
	return m.Cache.Upsert(p.ID, func() *Message { return newMessage(m.client, p.ChannelID, p.ID) }, func(msg *Message) { msg.patch(p) })
}

// partial returns the cached message or inserts a partial placeholder for it.
func (m *MessageManager) partial(channelID, id, guildID snowflake.ID) *Message {
	msg, _ := m.Cache.Upsert(id, func() *Message {
		msg := newMessage(m.client, channelID, id)
		msg.GuildID = guildID
		msg.Partial = true
		return msg
	}, nil)
	return msg
}

// Fetch pulls one message from channelID.
func (m *MessageManager) Fetch(ctx context.Context, channelID, id snowflake.ID, opts ...FetchOption) (*Message, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if msg, ok := m.Cache.Get(id); ok && !msg.isPartial() {
			return msg, nil
		}
	}
	var p models.MessagePayload
	path := "channels/" + channelID.String() + "/messages/" + id.String()
	if err := m.client.request(ctx, "GET", path, nil, &p); err != nil {
		return nil, err
	}
	if !p.ChannelID.Valid() {
		p.ChannelID = channelID
	}
	msg, _ := m.add(p, o.Cache)
	return msg, nil
}

func (m *MessageManager) Resolve(r any) *Message {
	if v, ok := r.(*Message); ok {
		return v
	}
	msg, _ := m.Cache.Get(rawID(r))
	return msg
}

func (m *MessageManager) ResolveID(r any) snowflake.ID {
	if v, ok := r.(*Message); ok {
		if v == nil {
			return 0
		}
		return v.ID
	}
	return rawID(r)
}
