package models

import "fosscord/pkg/bitfield"

// Request bodies. Nil fields are left out so the server keeps their value.

type RoleWriteBody struct {
	Name         *string               `json:"name,omitempty"`
	Color        *int                  `json:"color,omitempty"`
	Hoist        *bool                 `json:"hoist,omitempty"`
	Permissions  *bitfield.Permissions `json:"permissions,omitempty"`
	Mentionable  *bool                 `json:"mentionable,omitempty"`
	Icon         *string               `json:"icon,omitempty"`
	UnicodeEmoji *string               `json:"unicode_emoji,omitempty"`
}

type StickerWriteBody struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	File        *string `json:"file,omitempty"`
}

type UserWriteBody struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}
