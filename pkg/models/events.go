package models

import (
	"encoding/json"

	"fosscord/pkg/snowflake"
)

// EventKind is the "t" field of a dispatch frame.
type EventKind string

const (
	EventGuildCreate                EventKind = "GUILD_CREATE"
	EventGuildDelete                EventKind = "GUILD_DELETE"
	EventGuildRoleCreate            EventKind = "GUILD_ROLE_CREATE"
	EventGuildRoleUpdate            EventKind = "GUILD_ROLE_UPDATE"
	EventGuildRoleDelete            EventKind = "GUILD_ROLE_DELETE"
	EventGuildRolesPositionUpdate   EventKind = "GUILD_ROLES_POSITION_UPDATE"
	EventGuildStickerCreate         EventKind = "GUILD_STICKER_CREATE"
	EventGuildStickerUpdate         EventKind = "GUILD_STICKER_UPDATE"
	EventGuildStickerDelete         EventKind = "GUILD_STICKER_DELETE"
	EventGuildStickersUpdate        EventKind = "GUILD_STICKERS_UPDATE"
	EventGuildEmojisUpdate          EventKind = "GUILD_EMOJIS_UPDATE"
	EventMessageCreate              EventKind = "MESSAGE_CREATE"
	EventMessageDelete              EventKind = "MESSAGE_DELETE"
	EventMessageReactionAdd         EventKind = "MESSAGE_REACTION_ADD"
	EventMessageReactionRemove      EventKind = "MESSAGE_REACTION_REMOVE"
	EventMessageReactionRemoveAll   EventKind = "MESSAGE_REACTION_REMOVE_ALL"
	EventMessageReactionRemoveEmoji EventKind = "MESSAGE_REACTION_REMOVE_EMOJI"
	EventUserUpdate                 EventKind = "USER_UPDATE"
)

// OpDispatch is the only opcode consumed from the push stream.
const OpDispatch = 0

// Envelope is one gateway frame.
type Envelope struct {
	Op int             `json:"op"`
	T  EventKind       `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type GuildRoleEvent struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    RolePayload  `json:"role"`
}

type GuildRoleDeleteEvent struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id"`
}

type GuildRolesPositionEvent struct {
	GuildID snowflake.ID   `json:"guild_id"`
	Roles   []RolePosition `json:"roles"`
}

type GuildDeleteEvent struct {
	ID          snowflake.ID `json:"id"`
	Unavailable bool         `json:"unavailable,omitempty"`
}

type GuildStickersUpdateEvent struct {
	GuildID  snowflake.ID     `json:"guild_id"`
	Stickers []StickerPayload `json:"stickers"`
}

type GuildEmojisUpdateEvent struct {
	GuildID snowflake.ID   `json:"guild_id"`
	Emojis  []EmojiPayload `json:"emojis"`
}

type MessageDeleteEvent struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id"`
	GuildID   snowflake.ID `json:"guild_id,omitempty"`
}

// MessageReactionEvent is shared by add and remove.
type MessageReactionEvent struct {
	UserID    snowflake.ID `json:"user_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id,omitempty"`
	Emoji     EmojiPayload `json:"emoji"`
}

type MessageReactionRemoveAllEvent struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id,omitempty"`
}

type MessageReactionRemoveEmojiEvent struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id,omitempty"`
	Emoji     EmojiPayload `json:"emoji"`
}
