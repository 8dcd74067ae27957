package client

import (
	"context"
	"encoding/json"
	"fmt"

	"fosscord/pkg/logger"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

// HandlerFunc applies one decoded dispatch frame.
type HandlerFunc func(ctx context.Context, c *Client, raw json.RawMessage) error

// RegisterHandler installs fn for kind, replacing any previous handler.
func (c *Client) RegisterHandler(kind models.EventKind, fn HandlerFunc) {
	c.handlers[kind] = fn
}

// RegisterDefaultHandlers wires every push delta the client mirrors.
func RegisterDefaultHandlers(c *Client) {
	c.RegisterHandler(models.EventGuildCreate, decoded(onGuildCreate))
	c.RegisterHandler(models.EventGuildDelete, decoded(onGuildDelete))
	c.RegisterHandler(models.EventGuildRoleCreate, decoded(onGuildRoleCreate))
	c.RegisterHandler(models.EventGuildRoleUpdate, decoded(onGuildRoleUpdate))
	c.RegisterHandler(models.EventGuildRoleDelete, decoded(onGuildRoleDelete))
	c.RegisterHandler(models.EventGuildRolesPositionUpdate, decoded(onGuildRolesPositionUpdate))
	c.RegisterHandler(models.EventGuildStickerCreate, decoded(onGuildStickerCreate))
	c.RegisterHandler(models.EventGuildStickerUpdate, decoded(onGuildStickerUpdate))
	c.RegisterHandler(models.EventGuildStickerDelete, decoded(onGuildStickerDelete))
	c.RegisterHandler(models.EventGuildStickersUpdate, decoded(onGuildStickersUpdate))
	c.RegisterHandler(models.EventGuildEmojisUpdate, decoded(onGuildEmojisUpdate))
	c.RegisterHandler(models.EventMessageCreate, decoded(onMessageCreate))
	c.RegisterHandler(models.EventMessageDelete, decoded(onMessageDelete))
	c.RegisterHandler(models.EventMessageReactionAdd, decoded(onMessageReactionAdd))
	c.RegisterHandler(models.EventMessageReactionRemove, decoded(onMessageReactionRemove))
	c.RegisterHandler(models.EventMessageReactionRemoveAll, decoded(onMessageReactionRemoveAll))
	c.RegisterHandler(models.EventMessageReactionRemoveEmoji, decoded(onMessageReactionRemoveEmoji))
	c.RegisterHandler(models.EventUserUpdate, decoded(onUserUpdate))
}

// Dispatch routes a frame to its handler. Unknown kinds are ignored.
func (c *Client) Dispatch(ctx context.Context, env models.Envelope) error {
	fn, ok := c.handlers[env.T]
	if !ok {
		logger.Debug("dispatch_unknown_kind", "kind", env.T)
		return nil
	}
	c.metrics.EventDispatched(string(env.T))
	if err := fn(ctx, c, env.D); err != nil {
		return fmt.Errorf("dispatch %s: %w", env.T, err)
	}
	return nil
}

func decoded[T any](fn func(c *Client, ev T)) HandlerFunc {
	return func(_ context.Context, c *Client, raw json.RawMessage) error {
		var ev T
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		fn(c, ev)
		return nil
	}
}

// guild returns the owning guild, or nil when it is not cached.
func (c *Client) guild(kind models.EventKind, id snowflake.ID) *Guild {
	g, ok := c.Guilds.Cache.Get(id)
	if !ok {
		logger.Debug("dispatch_unknown_owner", "kind", kind, "guild", id)
		return nil
	}
	return g
}

// message returns the cached message. With partial messages enabled an
// uncached message is inserted as a partial placeholder.
func (c *Client) message(kind models.EventKind, channelID, id, guildID snowflake.ID) *Message {
	if m, ok := c.Messages.Cache.Get(id); ok {
		return m
	}
	if c.partialMessages {
		return c.Messages.partial(channelID, id, guildID)
	}
	logger.Debug("dispatch_unknown_owner", "kind", kind, "message", id)
	return nil
}

func onGuildCreate(c *Client, p models.GuildPayload) {
	c.Actions.GuildCreate(p)
}

func onGuildDelete(c *Client, ev models.GuildDeleteEvent) {
	c.Actions.GuildDelete(ev)
}

func onGuildRoleCreate(c *Client, ev models.GuildRoleEvent) {
	if g := c.guild(models.EventGuildRoleCreate, ev.GuildID); g != nil {
		c.Actions.GuildRoleCreate(g, ev.Role)
	}
}

func onGuildRoleUpdate(c *Client, ev models.GuildRoleEvent) {
	if g := c.guild(models.EventGuildRoleUpdate, ev.GuildID); g != nil {
		c.Actions.GuildRoleUpdate(g, ev.Role)
	}
}

func onGuildRoleDelete(c *Client, ev models.GuildRoleDeleteEvent) {
	if g := c.guild(models.EventGuildRoleDelete, ev.GuildID); g != nil {
		c.Actions.GuildRoleDelete(g, ev.RoleID)
	}
}

func onGuildRolesPositionUpdate(c *Client, ev models.GuildRolesPositionEvent) {
	if g := c.guild(models.EventGuildRolesPositionUpdate, ev.GuildID); g != nil {
		c.Actions.GuildRolesPositionUpdate(g, ev.Roles)
	}
}

func onGuildStickerCreate(c *Client, p models.StickerPayload) {
	if g := c.guild(models.EventGuildStickerCreate, p.GuildID); g != nil {
		c.Actions.GuildStickerCreate(g, p)
	}
}

func onGuildStickerUpdate(c *Client, p models.StickerPayload) {
	if g := c.guild(models.EventGuildStickerUpdate, p.GuildID); g != nil {
		c.Actions.GuildStickerUpdate(g, p)
	}
}

func onGuildStickerDelete(c *Client, p models.StickerPayload) {
	if g := c.guild(models.EventGuildStickerDelete, p.GuildID); g != nil {
		c.Actions.GuildStickerDelete(g, p.ID)
	}
}

func onGuildStickersUpdate(c *Client, ev models.GuildStickersUpdateEvent) {
	if g := c.guild(models.EventGuildStickersUpdate, ev.GuildID); g != nil {
		c.Actions.GuildStickersUpdate(g, ev.Stickers)
	}
}

func onGuildEmojisUpdate(c *Client, ev models.GuildEmojisUpdateEvent) {
	if g := c.guild(models.EventGuildEmojisUpdate, ev.GuildID); g != nil {
		c.Actions.GuildEmojisUpdate(g, ev.Emojis)
	}
}

func onMessageCreate(c *Client, p models.MessagePayload) {
	c.Actions.MessageCreate(p)
}

func onMessageDelete(c *Client, ev models.MessageDeleteEvent) {
	c.Actions.MessageDelete(ev)
}

func onMessageReactionAdd(c *Client, ev models.MessageReactionEvent) {
	if m := c.message(models.EventMessageReactionAdd, ev.ChannelID, ev.MessageID, ev.GuildID); m != nil {
		c.Actions.MessageReactionAdd(m, ev.UserID, ev.Emoji)
	}
}

func onMessageReactionRemove(c *Client, ev models.MessageReactionEvent) {
	if m := c.message(models.EventMessageReactionRemove, ev.ChannelID, ev.MessageID, ev.GuildID); m != nil {
		c.Actions.MessageReactionRemove(m, ev.UserID, ev.Emoji)
	}
}

func onMessageReactionRemoveAll(c *Client, ev models.MessageReactionRemoveAllEvent) {
	if m := c.message(models.EventMessageReactionRemoveAll, ev.ChannelID, ev.MessageID, ev.GuildID); m != nil {
		c.Actions.MessageReactionRemoveAll(m)
	}
}

func onMessageReactionRemoveEmoji(c *Client, ev models.MessageReactionRemoveEmojiEvent) {
	if m := c.message(models.EventMessageReactionRemoveEmoji, ev.ChannelID, ev.MessageID, ev.GuildID); m != nil {
		c.Actions.MessageReactionRemoveEmoji(m, emojiKey(ev.Emoji))
	}
}

func onUserUpdate(c *Client, p models.UserPayload) {
	c.Actions.UserUpdate(p)
}
