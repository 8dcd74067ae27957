package models

import (
	"encoding/json"

	"fosscord/pkg/bitfield"
	"fosscord/pkg/snowflake"
)

// Payload structs mirror the remote JSON. Optional fields are pointers so a
// patch can tell "absent" from "zero"; slices are nil when absent.

type UserPayload struct {
	ID            snowflake.ID `json:"id"`
	Username      *string      `json:"username,omitempty"`
	Discriminator *string      `json:"discriminator,omitempty"`
	Avatar        *string      `json:"avatar,omitempty"`
	Bot           *bool        `json:"bot,omitempty"`
	System        *bool        `json:"system,omitempty"`
	PublicFlags   *int         `json:"public_flags,omitempty"`

	// Only sent for the authenticated user.
	Verified *bool `json:"verified,omitempty"`
	// MFAEnabled is kept raw: a present but non-boolean value resolves to unknown.
	MFAEnabled json.RawMessage `json:"mfa_enabled,omitempty"`
	Token      *string         `json:"token,omitempty"`
}

// RoleTagsPayload carries role tags. PremiumSubscriber is sent as a null
// valued key, so presence is what matters.
type RoleTagsPayload struct {
	BotID             *snowflake.ID `json:"bot_id,omitempty"`
	IntegrationID     *snowflake.ID `json:"integration_id,omitempty"`
	PremiumSubscriber Presence      `json:"premium_subscriber,omitempty"`
}

// Presence is true when its key appeared in the decoded object, whatever the value.
type Presence bool

func (p *Presence) UnmarshalJSON([]byte) error {
	*p = true
	return nil
}

func (p Presence) MarshalJSON() ([]byte, error) {
	if p {
		return []byte("null"), nil
	}
	return []byte("false"), nil
}

type RolePayload struct {
	ID           snowflake.ID          `json:"id"`
	Name         *string               `json:"name,omitempty"`
	Color        *int                  `json:"color,omitempty"`
	Hoist        *bool                 `json:"hoist,omitempty"`
	Position     *int                  `json:"position,omitempty"`
	Permissions  *bitfield.Permissions `json:"permissions,omitempty"`
	Managed      *bool                 `json:"managed,omitempty"`
	Mentionable  *bool                 `json:"mentionable,omitempty"`
	Icon         *string               `json:"icon,omitempty"`
	UnicodeEmoji *string               `json:"unicode_emoji,omitempty"`
	Tags         *RoleTagsPayload      `json:"tags,omitempty"`
}

type EmojiPayload struct {
	ID            snowflake.ID   `json:"id"`
	Name          *string        `json:"name,omitempty"`
	Animated      *bool          `json:"animated,omitempty"`
	Available     *bool          `json:"available,omitempty"`
	Managed       *bool          `json:"managed,omitempty"`
	RequireColons *bool          `json:"require_colons,omitempty"`
	Roles         []snowflake.ID `json:"roles,omitempty"`
	User          *UserPayload   `json:"user,omitempty"`
}

type StickerPayload struct {
	ID          snowflake.ID `json:"id"`
	GuildID     snowflake.ID `json:"guild_id,omitempty"`
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Tags        *string      `json:"tags,omitempty"`
	Type        *int         `json:"type,omitempty"`
	FormatType  *int         `json:"format_type,omitempty"`
	Available   *bool        `json:"available,omitempty"`
	SortValue   *int         `json:"sort_value,omitempty"`
	User        *UserPayload `json:"user,omitempty"`
}

type ReactionPayload struct {
	Count *int         `json:"count,omitempty"`
	Me    *bool        `json:"me,omitempty"`
	Emoji EmojiPayload `json:"emoji"`
}

type MessagePayload struct {
	ID        snowflake.ID      `json:"id"`
	ChannelID snowflake.ID      `json:"channel_id"`
	GuildID   snowflake.ID      `json:"guild_id,omitempty"`
	Author    *UserPayload      `json:"author,omitempty"`
	Content   *string           `json:"content,omitempty"`
	Reactions []ReactionPayload `json:"reactions,omitempty"`
}

type GuildPayload struct {
	ID          snowflake.ID     `json:"id"`
	Name        *string          `json:"name,omitempty"`
	OwnerID     *snowflake.ID    `json:"owner_id,omitempty"`
	Icon        *string          `json:"icon,omitempty"`
	Unavailable *bool            `json:"unavailable,omitempty"`
	Roles       []RolePayload    `json:"roles,omitempty"`
	Emojis      []EmojiPayload   `json:"emojis,omitempty"`
	Stickers    []StickerPayload `json:"stickers,omitempty"`
}

type GuildPreviewPayload struct {
	ID                       snowflake.ID   `json:"id"`
	Name                     *string        `json:"name,omitempty"`
	Icon                     *string        `json:"icon,omitempty"`
	Splash                   *string        `json:"splash,omitempty"`
	DiscoverySplash          *string        `json:"discovery_splash,omitempty"`
	Features                 []string       `json:"features,omitempty"`
	ApproximateMemberCount   *int           `json:"approximate_member_count,omitempty"`
	ApproximatePresenceCount *int           `json:"approximate_presence_count,omitempty"`
	Description              *string        `json:"description,omitempty"`
	Emojis                   []EmojiPayload `json:"emojis,omitempty"`
}

// RolePosition is one entry of a role reorder request or response.
type RolePosition struct {
	ID       snowflake.ID `json:"id"`
	Position int          `json:"position"`
}
