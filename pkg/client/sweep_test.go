package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/config"
	"fosscord/pkg/models"
	"fosscord/pkg/snowflake"
	"fosscord/pkg/sweeper"
)

func TestSweepMessagesByAge(t *testing.T) {
	c, _ := newTestClient(t)
	now := time.Now()
	old := snowflake.Generate(now.Add(-2*time.Hour), 0)
	fresh := snowflake.Generate(now.Add(-time.Minute), 0)
	dispatch(t, c, models.EventMessageCreate, `{"id":"`+old.String()+`","channel_id":"10","reactions":[{"count":1,"emoji":{"name":"x"}}]}`)
	dispatch(t, c, models.EventMessageCreate, `{"id":"`+fresh.String()+`","channel_id":"10"}`)
	stale, _ := c.Messages.Cache.Get(old)
	require.Equal(t, 1, stale.Reactions.Cache.Len())

	removed := c.SweepMessages(time.Hour)(now)
	assert.Equal(t, 1, removed)
	assert.False(t, c.Messages.Cache.Has(old))
	assert.True(t, c.Messages.Cache.Has(fresh))
	assert.Equal(t, 0, stale.Reactions.Cache.Len())
}

func TestSweepUsersKeepsSelf(t *testing.T) {
	c, _, _ := newSeededClient(t)
	dispatch(t, c, models.EventMessageCreate, `{"id":"50","channel_id":"10","author":{"id":"7","username":"seven"}}`)
	dispatch(t, c, models.EventMessageCreate, `{"id":"51","channel_id":"10","author":{"id":"8","username":"eight"}}`)
	require.True(t, c.Users.Cache.Has(7))

	c.SweepUsers()(time.Now())
	assert.Equal(t, 0, c.Users.Cache.Len())
	require.NotNil(t, c.User())
	assert.Same(t, &c.User().User, c.Users.Resolve(selfID))
}

func TestSweepReactionsRemovesPartial(t *testing.T) {
	c, _, _ := newSeededClient(t, WithPartialMessages())
	dispatch(t, c, models.EventMessageCreate, `{"id":"50","channel_id":"10","reactions":[{"count":2,"emoji":{"name":"full"}}]}`)
	dispatch(t, c, models.EventMessageReactionAdd, reactionEvent("2", "50", `{"name":"full"}`))
	dispatch(t, c, models.EventMessageReactionAdd, reactionEvent("2", "60", `{"name":"partial"}`))

	removed := c.SweepReactions()(time.Now())
	assert.Equal(t, 1, removed)
	m50, _ := c.Messages.Cache.Get(50)
	assert.Equal(t, 1, m50.Reactions.Cache.Len())
	m60, _ := c.Messages.Cache.Get(60)
	assert.Equal(t, 0, m60.Reactions.Cache.Len())
}

func TestRegisterSweepers(t *testing.T) {
	c, _ := newTestClient(t)
	dispatch(t, c, models.EventMessageCreate, `{"id":"`+snowflake.Generate(time.Now().Add(-time.Hour), 0).String()+`","channel_id":"10"}`)

	sw := sweeper.New(nil)
	err := c.RegisterSweepers(sw, []config.SweeperConfig{
		{Target: config.SweepMessages, Cron: "@hourly", Lifetime: config.Duration(time.Minute)},
		{Target: config.SweepUsers, Cron: "@daily"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"messages", "users"}, sw.Targets())

	n, err := sw.RunImmediate(config.SweepMessages)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, c.Messages.Cache.Len())
}

func TestRegisterSweepersRejectsInvalid(t *testing.T) {
	c, _ := newTestClient(t)
	cases := map[string][]config.SweeperConfig{
		"no lifetime": {{Target: config.SweepMessages, Cron: "@hourly"}},
		"unknown":     {{Target: "guilds", Cron: "@hourly"}},
		"bad cron":    {{Target: config.SweepUsers, Cron: "sometimes"}},
	}
	for name, cfgs := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.RegisterSweepers(sweeper.New(nil), cfgs))
		})
	}
}
