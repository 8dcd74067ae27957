package client

import (
	"context"

	"fosscord/pkg/cache"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

// GuildPreview is the public summary of a guild. Previews are detached from
// the guild store.
type GuildPreview struct {
	ID                       snowflake.ID
	Name                     string
	Icon                     *string
	Splash                   *string
	DiscoverySplash          *string
	Features                 []string
	ApproximateMemberCount   int
	ApproximatePresenceCount int
	Description              *string

	// Emojis is replaced wholesale by every patch.
	Emojis *cache.Store[snowflake.ID, *GuildPreviewEmoji]

	client *Client
}

type GuildPreviewEmoji struct {
	ID            snowflake.ID
	Name          string
	Animated      bool
	Available     bool
	Managed       bool
	RequireColons bool
	Roles         []snowflake.ID

	preview *GuildPreview
}

func (e *GuildPreviewEmoji) Clone() *GuildPreviewEmoji {
	c := *e
	c.Roles = cloneIDs(e.Roles)
	return &c
}

func (e *GuildPreviewEmoji) Preview() *GuildPreview { return e.preview }

func newGuildPreview(c *Client, id snowflake.ID) *GuildPreview {
	return &GuildPreview{
		ID:     id,
		Emojis: cache.New[snowflake.ID, *GuildPreviewEmoji]("guild_preview_emojis"),
		client: c,
	}
}

func (gp *GuildPreview) patch(p models.GuildPreviewPayload) {
	if p.Name != nil {
		gp.Name = *p.Name
	}
	if p.Icon != nil {
		gp.Icon = cloneString(p.Icon)
	}
	if p.Splash != nil {
		gp.Splash = cloneString(p.Splash)
	}
	if p.DiscoverySplash != nil {
		gp.DiscoverySplash = cloneString(p.DiscoverySplash)
	}
	if p.Features != nil {
		gp.Features = append([]string(nil), p.Features...)
	}
	if p.ApproximateMemberCount != nil {
		gp.ApproximateMemberCount = *p.ApproximateMemberCount
	}
	if p.ApproximatePresenceCount != nil {
		gp.ApproximatePresenceCount = *p.ApproximatePresenceCount
	}
	if p.Description != nil {
		gp.Description = cloneString(p.Description)
	}

	gp.Emojis.Clear()
	for _, ep := range p.Emojis {
		e := &GuildPreviewEmoji{ID: ep.ID, Available: true, preview: gp}
		if ep.Name != nil {
			e.Name = *ep.Name
		}
		if ep.Animated != nil {
			e.Animated = *ep.Animated
		}
		if ep.Available != nil {
			e.Available = *ep.Available
		}
		if ep.Managed != nil {
			e.Managed = *ep.Managed
		}
		if ep.RequireColons != nil {
			e.RequireColons = *ep.RequireColons
		}
		e.Roles = cloneIDs(ep.Roles)
		gp.Emojis.Upsert(ep.ID, func() *GuildPreviewEmoji { return e }, nil)
	}
}

func (gp *GuildPreview) load(ctx context.Context) error {
	var p models.GuildPreviewPayload
	if err := gp.client.request(ctx, "GET", "guilds/"+gp.ID.String()+"/preview", nil, &p); err != nil {
		return err
	}
	gp.patch(p)
	return nil
}

// Fetch refreshes the preview in place.
func (gp *GuildPreview) Fetch(ctx context.Context) (*GuildPreview, error) {
	if err := gp.load(ctx); err != nil {
		return nil, err
	}
	return gp, nil
}

// Guild returns the cached guild the preview describes, if any.
func (gp *GuildPreview) Guild() *Guild {
	g, _ := gp.client.Guilds.Cache.Get(gp.ID)
	return g
}
