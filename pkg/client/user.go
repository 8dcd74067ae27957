package client

import (
	"context"
	"encoding/json"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

type User struct {
	ID            snowflake.ID
	Username      string
	Discriminator string
	Avatar        *string
	Bot           bool
	System        bool
	PublicFlags   int
}

func newUser(id snowflake.ID) *User { return &User{ID: id} }

func (u *User) patch(p models.UserPayload) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Discriminator != nil {
		u.Discriminator = *p.Discriminator
	}
	if p.Avatar != nil {
		u.Avatar = cloneString(p.Avatar)
	}
	if p.Bot != nil {
		u.Bot = *p.Bot
	}
	if p.System != nil {
		u.System = *p.System
	}
	if p.PublicFlags != nil {
		u.PublicFlags = *p.PublicFlags
	}
}

func (u *User) Clone() *User {
	c := *u
	c.Avatar = cloneString(u.Avatar)
	return &c
}

func (u *User) Equal(o *User) bool {
	return u.ID == o.ID && u.Username == o.Username && u.Discriminator == o.Discriminator &&
		equalString(u.Avatar, o.Avatar) && u.Bot == o.Bot && u.System == o.System &&
		u.PublicFlags == o.PublicFlags
}

// Tag is username#discriminator, or the bare username when the
// discriminator is unset.
func (u *User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// ClientUser is the authenticated user.
type ClientUser struct {
	User
	Verified bool
	// MFAEnabled is nil when unknown.
	MFAEnabled *bool

	client *Client
}

func (u *ClientUser) patch(p models.UserPayload) {
	u.User.patch(p)
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	if len(p.MFAEnabled) > 0 {
		// null or a non-boolean value means unknown
		var v *bool
		if err := json.Unmarshal(p.MFAEnabled, &v); err != nil {
			v = nil
		}
		u.MFAEnabled = v
	}
}

func (u *ClientUser) Clone() *ClientUser {
	c := *u
	c.User = *u.User.Clone()
	if u.MFAEnabled != nil {
		v := *u.MFAEnabled
		c.MFAEnabled = &v
	}
	return &c
}

func (u *ClientUser) Equal(o *ClientUser) bool {
	if !u.User.Equal(&o.User) || u.Verified != o.Verified {
		return false
	}
	if u.MFAEnabled == nil || o.MFAEnabled == nil {
		return u.MFAEnabled == o.MFAEnabled
	}
	return *u.MFAEnabled == *o.MFAEnabled
}

type ClientUserEditData struct {
	Username *string
	// Avatar is a data URI.
	Avatar *string
}

// Edit patches users/@me and applies the response through the user update
// action. The returned record is the live client user.
func (u *ClientUser) Edit(ctx context.Context, data ClientUserEditData) (*ClientUser, error) {
	var p models.UserPayload
	body := models.UserWriteBody{Username: data.Username, Avatar: data.Avatar}
	if err := u.client.request(ctx, "PATCH", "users/@me", body, &p); err != nil {
		return nil, err
	}
	return u.client.Actions.clientUserUpdate(p).Record, nil
}

func (u *ClientUser) SetUsername(ctx context.Context, username string) (*ClientUser, error) {
	return u.Edit(ctx, ClientUserEditData{Username: &username})
}

// SetAvatar uploads avatar, a data URI such as "data:image/png;base64,...".
func (u *ClientUser) SetAvatar(ctx context.Context, avatar string) (*ClientUser, error) {
	return u.Edit(ctx, ClientUserEditData{Avatar: &avatar})
}

type UserManager struct {
	client *Client
	Cache  *cache.Store[snowflake.ID, *User]
}

func newUserManager(c *Client) *UserManager {
	return &UserManager{client: c, Cache: cache.New[snowflake.ID, *User]("users", c.storeOption())}
}

func (m *UserManager) add(p models.UserPayload, cache bool) (*User, bool) {
	if !cache {
		u, ok := m.Cache.Snapshot(p.ID)
		if !ok {
			u = newUser(p.ID)
		}
		u.patch(p)
		return u, ok
	}
	return m.Cache.Upsert(p.ID, func() *User { return newUser(p.ID) }, func(u *User) { u.patch(p) })
}

func (m *UserManager) Fetch(ctx context.Context, id snowflake.ID, opts ...FetchOption) (*User, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if u, ok := m.Cache.Get(id); ok {
			return u, nil
		}
	}
	var p models.UserPayload
	if err := m.client.request(ctx, "GET", "users/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	u, _ := m.add(p, o.Cache)
	return u, nil
}

// Resolve accepts a *User, a *ClientUser, an id or a decimal id string. The
// client user resolves by id even though it is held outside the store.
func (m *UserManager) Resolve(r any) *User {
	switch v := r.(type) {
	case *User:
		return v
	case *ClientUser:
		if v == nil {
			return nil
		}
		return &v.User
	default:
		id := rawID(r)
		if u, ok := m.Cache.Get(id); ok {
			return u
		}
		if cu := m.client.User(); cu != nil && id.Valid() && cu.ID == id {
			return &cu.User
		}
		return nil
	}
}

func (m *UserManager) ResolveID(r any) snowflake.ID {
	switch v := r.(type) {
	case *User:
		if v == nil {
			return 0
		}
		return v.ID
	case *ClientUser:
		if v == nil {
			return 0
		}
		return v.ID
	default:
		return rawID(r)
	}
}
