package bitfield

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrInvalidBitfield is returned when a value cannot be resolved to permission bits.
var ErrInvalidBitfield = errors.New("invalid bitfield flag or number")

// Permissions is a permission bitmask. Its JSON form is a decimal string.
type Permissions uint64

// Permission flags.
const (
	CreateInstantInvite Permissions = 1 << iota
	KickMembers
	BanMembers
	Administrator
	ManageChannels
	ManageGuild
	AddReactions
	ViewAuditLog
	PrioritySpeaker
	Stream
	ViewChannel
	SendMessages
	SendTTSMessages
	ManageMessages
	EmbedLinks
	AttachFiles
	ReadMessageHistory
	MentionEveryone
	UseExternalEmojis
	ViewGuildInsights
	Connect
	Speak
	MuteMembers
	DeafenMembers
	MoveMembers
	UseVAD
	ChangeNickname
	ManageNicknames
	ManageRoles
	ManageWebhooks
	ManageEmojisAndStickers
	UseApplicationCommands
	RequestToSpeak
	_
	ManageThreads
	UsePublicThreads
	UsePrivateThreads
	UseExternalStickers
)

var flagNames = map[string]Permissions{
	"CREATE_INSTANT_INVITE":      CreateInstantInvite,
	"KICK_MEMBERS":               KickMembers,
	"BAN_MEMBERS":                BanMembers,
	"ADMINISTRATOR":              Administrator,
	"MANAGE_CHANNELS":            ManageChannels,
	"MANAGE_GUILD":               ManageGuild,
	"ADD_REACTIONS":              AddReactions,
	"VIEW_AUDIT_LOG":             ViewAuditLog,
	"PRIORITY_SPEAKER":           PrioritySpeaker,
	"STREAM":                     Stream,
	"VIEW_CHANNEL":               ViewChannel,
	"SEND_MESSAGES":              SendMessages,
	"SEND_TTS_MESSAGES":          SendTTSMessages,
	"MANAGE_MESSAGES":            ManageMessages,
	"EMBED_LINKS":                EmbedLinks,
	"ATTACH_FILES":               AttachFiles,
	"READ_MESSAGE_HISTORY":       ReadMessageHistory,
	"MENTION_EVERYONE":           MentionEveryone,
	"USE_EXTERNAL_EMOJIS":        UseExternalEmojis,
	"VIEW_GUILD_INSIGHTS":        ViewGuildInsights,
	"CONNECT":                    Connect,
	"SPEAK":                      Speak,
	"MUTE_MEMBERS":               MuteMembers,
	"DEAFEN_MEMBERS":             DeafenMembers,
	"MOVE_MEMBERS":               MoveMembers,
	"USE_VAD":                    UseVAD,
	"CHANGE_NICKNAME":            ChangeNickname,
	"MANAGE_NICKNAMES":           ManageNicknames,
	"MANAGE_ROLES":               ManageRoles,
	"MANAGE_WEBHOOKS":            ManageWebhooks,
	"MANAGE_EMOJIS_AND_STICKERS": ManageEmojisAndStickers,
	"USE_APPLICATION_COMMANDS":   UseApplicationCommands,
	"REQUEST_TO_SPEAK":           RequestToSpeak,
	"MANAGE_THREADS":             ManageThreads,
	"USE_PUBLIC_THREADS":         UsePublicThreads,
	"USE_PRIVATE_THREADS":        UsePrivateThreads,
	"USE_EXTERNAL_STICKERS":      UseExternalStickers,
}

// All is every known flag.
var All = func() Permissions {
	var all Permissions
	for _, f := range flagNames {
		all |= f
	}
	return all
}()

// Resolve converts a permission resolvable into bits. Accepted inputs are
// Permissions, unsigned and signed integers, flag names ("SEND_MESSAGES"),
// decimal strings ("2048") and slices of any of those (OR-ed together).
func Resolve(v any) (Permissions, error) {
	switch p := v.(type) {
	case nil:
		return 0, nil
	case Permissions:
		return p, nil
	case *Permissions:
		if p == nil {
			return 0, nil
		}
		return *p, nil
	case uint64:
		return Permissions(p), nil
	case uint:
		return Permissions(p), nil
	case int:
		if p < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidBitfield, p)
		}
		return Permissions(p), nil
	case int64:
		if p < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidBitfield, p)
		}
		return Permissions(p), nil
	case string:
		if f, ok := flagNames[p]; ok {
			return f, nil
		}
		if n, err := strconv.ParseUint(p, 10, 64); err == nil {
			return Permissions(n), nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidBitfield, p)
	case []string:
		var out Permissions
		for _, s := range p {
			bits, err := Resolve(s)
			if err != nil {
				return 0, err
			}
			out |= bits
		}
		return out, nil
	case []Permissions:
		var out Permissions
		for _, b := range p {
			out |= b
		}
		return out, nil
	case []any:
		var out Permissions
		for _, item := range p {
			bits, err := Resolve(item)
			if err != nil {
				return 0, err
			}
			out |= bits
		}
		return out, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidBitfield, v)
	}
}

// Has reports whether every bit of bits is set. Administrator implies all.
func (p Permissions) Has(bits Permissions) bool {
	if p&Administrator == Administrator {
		return true
	}
	return p&bits == bits
}

func (p Permissions) Add(bits Permissions) Permissions    { return p | bits }
func (p Permissions) Remove(bits Permissions) Permissions { return p &^ bits }

// Names returns the sorted flag names set in p.
func (p Permissions) Names() []string {
	var out []string
	for name, f := range flagNames {
		if p&f == f {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (p Permissions) String() string { return strconv.FormatUint(uint64(p), 10) }

func (p Permissions) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare number.
func (p *Permissions) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBitfield, b)
	}
	*p = Permissions(n)
	return nil
}
