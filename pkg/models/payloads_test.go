package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/bitfield"
	"fosscord/pkg/snowflake"
)

func TestRolePayloadPresence(t *testing.T) {
	raw := `{"id":"2","name":"mods","position":3,"permissions":"8","tags":{"bot_id":"99","premium_subscriber":null}}`
	var p RolePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, snowflake.ID(2), p.ID)
	require.NotNil(t, p.Name)
	assert.Equal(t, "mods", *p.Name)
	require.NotNil(t, p.Position)
	assert.Equal(t, 3, *p.Position)
	assert.Equal(t, bitfield.Administrator, *p.Permissions)
	assert.Nil(t, p.Color)
	assert.Nil(t, p.Hoist)
	require.NotNil(t, p.Tags)
	assert.Equal(t, snowflake.ID(99), *p.Tags.BotID)
	assert.True(t, bool(p.Tags.PremiumSubscriber))

	var plain RolePayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":"3","tags":{}}`), &plain))
	assert.False(t, bool(plain.Tags.PremiumSubscriber))
}

func TestEnvelopeDecode(t *testing.T) {
	raw := `{"op":0,"t":"GUILD_ROLE_DELETE","s":42,"d":{"guild_id":"1","role_id":"5"}}`
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, OpDispatch, env.Op)
	assert.Equal(t, EventGuildRoleDelete, env.T)
	require.NotNil(t, env.S)
	assert.Equal(t, int64(42), *env.S)

	var ev GuildRoleDeleteEvent
	require.NoError(t, json.Unmarshal(env.D, &ev))
	assert.Equal(t, snowflake.ID(1), ev.GuildID)
	assert.Equal(t, snowflake.ID(5), ev.RoleID)
}

func TestUserPayloadRawMFA(t *testing.T) {
	var p UserPayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","mfa_enabled":"maybe"}`), &p))
	assert.JSONEq(t, `"maybe"`, string(p.MFAEnabled))

	var absent UserPayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7"}`), &absent))
	assert.Nil(t, absent.MFAEnabled)
}
