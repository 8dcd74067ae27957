package client

import (
	"context"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

type Sticker struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	Name        string
	Description string
	Tags        string
	Type        int
	FormatType  int
	Available   bool
	SortValue   int
	UserID      snowflake.ID

	guild *Guild
}

func newSticker(g *Guild, id snowflake.ID) *Sticker {
	return &Sticker{ID: id, GuildID: g.ID, guild: g}
}

func (s *Sticker) patch(p models.StickerPayload) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Tags != nil {
		s.Tags = *p.Tags
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.FormatType != nil {
		s.FormatType = *p.FormatType
	}
	if p.Available != nil {
		s.Available = *p.Available
	}
	if p.SortValue != nil {
		s.SortValue = *p.SortValue
	}
	if p.User != nil {
		s.UserID = p.User.ID
	}
}

func (s *Sticker) Clone() *Sticker {
	c := *s
	return &c
}

func (s *Sticker) Equal(o *Sticker) bool {
	a, b := *s, *o
	a.guild, b.guild = nil, nil
	return a == b
}

func (s *Sticker) Guild() *Guild { return s.guild }

func (s *Sticker) Edit(ctx context.Context, data StickerData, reason string) (*Sticker, error) {
	return s.guild.Stickers.Edit(ctx, s, data, reason)
}

func (s *Sticker) Delete(ctx context.Context, reason string) error {
	return s.guild.Stickers.Delete(ctx, s, reason)
}

// StickerManager is the façade over one guild's stickers.
type StickerManager struct {
	guild  *Guild
	client *Client
	Cache  *cache.Store[snowflake.ID, *Sticker]
}

func newStickerManager(g *Guild) *StickerManager {
	return &StickerManager{
		guild:  g,
		client: g.client,
		Cache:  cache.New[snowflake.ID, *Sticker]("stickers", g.client.storeOption()),
	}
}

func (m *StickerManager) path() string { return "guilds/" + m.guild.ID.String() + "/stickers" }

func (m *StickerManager) add(p models.StickerPayload, cache bool) (*Sticker, bool) {
	if p.User != nil {
		m.client.Users.add(*p.User, cache)
	}
	if !cache {
		s, ok := m.Cache.Snapshot(p.ID)
		if !ok {
			s = newSticker(m.guild, p.ID)
		}
		s.patch(p)
		return s, ok
	}
	return m.Cache.Upsert(p.ID, func() *Sticker { return newSticker(m.guild, p.ID) }, func(s *Sticker) { s.patch(p) })
}

// Fetch pulls one sticker, returning the cached one unless forced.
func (m *StickerManager) Fetch(ctx context.Context, id snowflake.ID, opts ...FetchOption) (*Sticker, error) {
	o := fetchOptions(opts)
	if o.Cache && !o.Force {
		if s, ok := m.Cache.Get(id); ok {
			return s, nil
		}
	}
	var p models.StickerPayload
	if err := m.client.request(ctx, "GET", m.path()+"/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	s, _ := m.add(p, o.Cache)
	return s, nil
}

func (m *StickerManager) FetchAll(ctx context.Context, opts ...FetchOption) ([]*Sticker, error) {
	o := fetchOptions(opts)
	var payloads []models.StickerPayload
	if err := m.client.request(ctx, "GET", m.path(), nil, &payloads); err != nil {
		return nil, err
	}
	out := make([]*Sticker, 0, len(payloads))
	for _, p := range payloads {
		s, _ := m.add(p, o.Cache)
		out = append(out, s)
	}
	return out, nil
}

type CreateStickerOptions struct {
	Name        string
	Description string
	Tags        string
	// File is the encoded sticker image.
	File   string
	Reason string
}

type StickerData struct {
	Name        *string
	Description *string
	Tags        *string
}

// Create posts a sticker and routes the response through the sticker create action.
func (m *StickerManager) Create(ctx context.Context, opts CreateStickerOptions) (*Sticker, error) {
	body := models.StickerWriteBody{Name: &opts.Name, Description: &opts.Description, Tags: &opts.Tags}
	if opts.File != "" {
		body.File = &opts.File
	}
	var p models.StickerPayload
	if err := m.client.request(ctx, "POST", m.path(), body, &p, reasonOpts(opts.Reason)...); err != nil {
		return nil, err
	}
	return m.client.Actions.GuildStickerCreate(m.guild, p).Record, nil
}

// Edit returns a detached copy patched with the write response.
func (m *StickerManager) Edit(ctx context.Context, sticker any, data StickerData, reason string) (*Sticker, error) {
	s := m.Resolve(sticker)
	if s == nil {
		return nil, invalidResolvable("StickerResolvable")
	}
	body := models.StickerWriteBody{Name: data.Name, Description: data.Description, Tags: data.Tags}
	var p models.StickerPayload
	if err := m.client.request(ctx, "PATCH", m.path()+"/"+s.ID.String(), body, &p, reasonOpts(reason)...); err != nil {
		return nil, err
	}
	clone, ok := m.Cache.Snapshot(s.ID)
	if !ok {
		clone = s.Clone()
	}
	clone.patch(p)
	return clone, nil
}

func (m *StickerManager) Delete(ctx context.Context, sticker any, reason string) error {
	id := m.ResolveID(sticker)
	if !id.Valid() {
		return invalidResolvable("StickerResolvable")
	}
	if err := m.client.request(ctx, "DELETE", m.path()+"/"+id.String(), nil, nil, reasonOpts(reason)...); err != nil {
		return err
	}
	m.client.Actions.GuildStickerDelete(m.guild, id)
	return nil
}

func (m *StickerManager) Resolve(r any) *Sticker {
	if v, ok := r.(*Sticker); ok {
		return v
	}
	s, _ := m.Cache.Get(rawID(r))
	return s
}

func (m *StickerManager) ResolveID(r any) snowflake.ID {
	if v, ok := r.(*Sticker); ok {
		if v == nil {
			return 0
		}
		return v.ID
	}
	return rawID(r)
}
