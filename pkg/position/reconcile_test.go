package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/snowflake"
)

const base snowflake.ID = 100

func siblings() []Item {
	return []Item{{base, 0}, {11, 1}, {12, 2}, {13, 3}}
}

func ids(pairs []Pair) []snowflake.ID {
	out := make([]snowflake.ID, len(pairs))
	for i, p := range pairs {
		out[i] = p.ID
	}
	return out
}

func TestMoveToZeroFallsBackToOne(t *testing.T) {
	plan, ok := Reconcile(siblings(), base, 13, 0, false)
	require.True(t, ok)

	assert.Equal(t, 1, plan.Position)
	assert.Equal(t, []Pair{{13, 1}, {11, 2}, {12, 3}}, plan.Pairs)
	for _, p := range plan.Pairs {
		assert.NotEqual(t, base, p.ID)
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		target   snowflake.ID
		position int
		relative bool
		want     []snowflake.ID
		landed   int
	}{
		{"absolute middle", 11, 2, false, []snowflake.ID{12, 11, 13}, 2},
		{"absolute top", 11, 3, false, []snowflake.ID{12, 13, 11}, 3},
		{"clamp above", 11, 50, false, []snowflake.ID{12, 13, 11}, 3},
		{"negative resets", 12, -4, false, []snowflake.ID{12, 11, 13}, 1},
		{"no move", 12, 2, false, []snowflake.ID{11, 12, 13}, 2},
		{"relative up", 11, 1, true, []snowflake.ID{12, 11, 13}, 2},
		{"relative down past bottom", 12, -5, true, []snowflake.ID{12, 11, 13}, 1},
		{"relative past top", 12, 9, true, []snowflake.ID{11, 13, 12}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, ok := Reconcile(siblings(), base, tt.target, tt.position, tt.relative)
			require.True(t, ok)
			assert.Equal(t, tt.want, ids(plan.Pairs))
			assert.Equal(t, tt.landed, plan.Position)
			for i, p := range plan.Pairs {
				assert.Equal(t, i+1, p.Position, "positions must be contiguous from 1")
			}
		})
	}
}

func TestChanged(t *testing.T) {
	plan, ok := Reconcile(siblings(), base, 13, 2, false)
	require.True(t, ok)
	assert.Equal(t, []Pair{{13, 2}, {12, 3}}, plan.Changed())

	same, ok := Reconcile(siblings(), base, 12, 2, false)
	require.True(t, ok)
	assert.Empty(t, same.Changed())
}

func TestRenumbersFromStalePositions(t *testing.T) {
	// gaps and duplicates in the input are flattened
	stale := []Item{{base, 0}, {11, 4}, {12, 4}, {13, 9}}
	plan, ok := Reconcile(stale, base, 11, 3, false)
	require.True(t, ok)
	assert.Equal(t, []Pair{{12, 1}, {13, 2}, {11, 3}}, plan.Pairs)
}

func TestRejectsBaseAndUnknown(t *testing.T) {
	_, ok := Reconcile(siblings(), base, base, 2, false)
	assert.False(t, ok)
	_, ok = Reconcile(siblings(), base, 99, 2, false)
	assert.False(t, ok)
}
