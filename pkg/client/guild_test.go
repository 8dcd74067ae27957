package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/events"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
)

func TestGuildPreviewReplacesEmojis(t *testing.T) {
	c, f, g := newSeededClient(t)
	f.on("GET", "guilds/100/preview",
		`{"id":"100","name":"guild","approximate_member_count":40,"features":["NEWS"],
		  "emojis":[{"id":"601","name":"one"},{"id":"602","name":"two"}]}`,
		`{"id":"100","approximate_member_count":41,"emojis":[{"id":"603","name":"three","roles":["201"]}]}`)

	gp, err := c.Guilds.FetchPreview(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "guild", gp.Name)
	assert.Equal(t, 40, gp.ApproximateMemberCount)
	assert.Equal(t, []string{"NEWS"}, gp.Features)
	assert.Equal(t, []snowflake.ID{601, 602}, gp.Emojis.Keys())
	assert.Same(t, g, gp.Guild())

	same, err := gp.Fetch(context.Background())
	require.NoError(t, err)
	assert.Same(t, gp, same)
	assert.Equal(t, 41, gp.ApproximateMemberCount)
	assert.Equal(t, "guild", gp.Name)
	assert.Equal(t, []snowflake.ID{603}, gp.Emojis.Keys())
	e, _ := gp.Emojis.Get(603)
	assert.Equal(t, []snowflake.ID{201}, e.Roles)
	assert.Same(t, gp, e.Preview())

	assert.Equal(t, snowflake.ID(100), c.Guilds.ResolveID(gp))
	assert.Equal(t, 1, c.Guilds.Cache.Len())
}

func TestGuildPreviewInvalidResolvable(t *testing.T) {
	c, f := newTestClient(t)
	_, err := c.Guilds.FetchPreview(context.Background(), []int{1})
	assert.ErrorIs(t, err, ErrInvalidResolvable)
	assert.Equal(t, 0, f.callCount())
}

func TestGuildFetch(t *testing.T) {
	c, f := newTestClient(t)
	f.on("GET", "guilds/100", seedGuild)

	g, err := c.Guilds.Fetch(context.Background(), guildID)
	require.NoError(t, err)
	assert.Equal(t, "guild", g.Name)
	assert.Equal(t, 4, g.Roles.Cache.Len())
	assert.Same(t, g, c.Guilds.Resolve("100"))
	assert.Same(t, g, c.Guilds.Resolve(g))

	_, err = c.Guilds.Fetch(context.Background(), guildID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.callCount())
}

func TestStickerManager(t *testing.T) {
	c, f, g := newSeededClient(t)
	rec := record(c)
	f.on("POST", "guilds/100/stickers", `{"id":"410","guild_id":"100","name":"wave","tags":"hi"}`)
	f.on("GET", "guilds/100/stickers/411", `{"id":"411","guild_id":"100","name":"fetched"}`)
	f.on("PATCH", "guilds/100/stickers/410", `{"id":"410","guild_id":"100","name":"wave2"}`)
	f.on("DELETE", "guilds/100/stickers/410")

	s, err := g.Stickers.Create(context.Background(), CreateStickerOptions{Name: "wave", Tags: "hi", File: "data:image/png;base64,AA=="})
	require.NoError(t, err)
	live, _ := g.Stickers.Cache.Get(410)
	assert.Same(t, live, s)
	assert.Len(t, rec.of(events.StickerCreate), 1)
	dispatch(t, c, models.EventGuildStickerCreate, `{"id":"410","guild_id":"100","name":"wave"}`)
	assert.Len(t, rec.of(events.StickerCreate), 1)

	fetched, err := g.Stickers.Fetch(context.Background(), 411)
	require.NoError(t, err)
	assert.Equal(t, "fetched", fetched.Name)
	assert.True(t, g.Stickers.Cache.Has(411))

	edited, err := s.Edit(context.Background(), StickerData{Name: strPtr("wave2")}, "")
	require.NoError(t, err)
	assert.NotSame(t, s, edited)
	assert.Equal(t, "wave2", edited.Name)
	assert.Equal(t, "wave", s.Name)

	require.NoError(t, s.Delete(context.Background(), "gone"))
	assert.False(t, g.Stickers.Cache.Has(410))
	assert.Len(t, rec.of(events.StickerDelete), 1)
	assert.Equal(t, "gone", f.last().Opts.Reason)
}
