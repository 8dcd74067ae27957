package snowflake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Epoch is the platform epoch (2015-01-01T00:00:00Z) in milliseconds.
const Epoch int64 = 1420070400000

// ID is a 64-bit time-sortable identity. The top 42 bits hold milliseconds
// since Epoch followed by 5 worker bits, 5 process bits and a 12-bit
// increment. The zero value is not a valid id.
type ID uint64

// Parts is a deconstructed ID.
type Parts struct {
	Timestamp int64 // unix milliseconds
	WorkerID  uint8
	ProcessID uint8
	Increment uint16
}

// Parse parses a decimal id string. Empty strings and "0" are rejected.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid snowflake %q: zero id", s)
	}
	return ID(v), nil
}

// MustParse is Parse for tests and constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Generate builds an id for the given time and increment.
func Generate(t time.Time, increment uint16) ID {
	ms := t.UnixMilli() - Epoch
	if ms < 0 {
		ms = 0
	}
	return ID(uint64(ms)<<22 | uint64(increment&0xfff))
}

// Valid reports whether id is non-zero.
func (id ID) Valid() bool { return id != 0 }

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Timestamp returns unix milliseconds encoded in the id.
func (id ID) Timestamp() int64 { return int64(uint64(id)>>22) + Epoch }

// Time returns the creation time encoded in the id.
func (id ID) Time() time.Time { return time.UnixMilli(id.Timestamp()) }

// Deconstruct splits the id into its parts.
func (id ID) Deconstruct() Parts {
	v := uint64(id)
	return Parts{
		Timestamp: id.Timestamp(),
		WorkerID:  uint8((v >> 17) & 0x1f),
		ProcessID: uint8((v >> 12) & 0x1f),
		Increment: uint16(v & 0xfff),
	}
}

// Compare orders ids by creation time (numeric order).
func Compare(a, b ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string, a bare number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snowflake %q: %w", s, err)
		}
		*id = ID(v)
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %s: %w", b, err)
	}
	*id = ID(v)
	return nil
}
