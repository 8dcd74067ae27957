package snowflake

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeconstruct(t *testing.T) {
	// 175928847299117063 = 2016-04-30T11:18:25.796Z, worker 1, process 0, increment 7
	id := MustParse("175928847299117063")
	p := id.Deconstruct()
	assert.Equal(t, int64(1462015105796), p.Timestamp)
	assert.Equal(t, uint8(1), p.WorkerID)
	assert.Equal(t, uint8(0), p.ProcessID)
	assert.Equal(t, uint16(7), p.Increment)
}

func TestGenerateRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := Generate(at, 5)
	assert.Equal(t, at.UnixMilli(), id.Timestamp())
	assert.Equal(t, uint16(5), id.Deconstruct().Increment)
	assert.True(t, Generate(at.Add(time.Millisecond), 0) > id)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"222078108977594368", false},
		{"", true},
		{"0", true},
		{"abc", true},
		{"-5", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"41771983423143937","b":41771983423143938,"c":null}`), &v))
	assert.Equal(t, ID(41771983423143937), v.A)
	assert.Equal(t, ID(41771983423143938), v.B)
	assert.Equal(t, ID(0), v.C)

	out, err := json.Marshal(v.A)
	require.NoError(t, err)
	assert.Equal(t, `"41771983423143937"`, string(out))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(1, 2))
	assert.Equal(t, 1, Compare(3, 2))
	assert.Equal(t, 0, Compare(2, 2))
}
