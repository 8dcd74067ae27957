package color

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

var (
	ErrColorRange   = errors.New("color must be within the range 0 - 16777215 (0xFFFFFF)")
	ErrColorConvert = errors.New("unable to convert color to a number")
)

// MaxColor is the largest RGB value.
const MaxColor = 0xFFFFFF

// Names maps symbolic color names to their numeric value.
var Names = map[string]int{
	"DEFAULT":             0x000000,
	"WHITE":               0xffffff,
	"AQUA":                0x1abc9c,
	"GREEN":               0x57f287,
	"BLUE":                0x3498db,
	"YELLOW":              0xfee75c,
	"PURPLE":              0x9b59b6,
	"LUMINOUS_VIVID_PINK": 0xe91e63,
	"FUCHSIA":             0xeb459e,
	"GOLD":                0xf1c40f,
	"ORANGE":              0xe67e22,
	"RED":                 0xed4245,
	"GREY":                0x95a5a6,
	"NAVY":                0x34495e,
	"DARK_AQUA":           0x11806a,
	"DARK_GREEN":          0x1f8b4c,
	"DARK_BLUE":           0x206694,
	"DARK_PURPLE":         0x71368a,
	"DARK_VIVID_PINK":     0xad1457,
	"DARK_GOLD":           0xc27c0e,
	"DARK_ORANGE":         0xa84300,
	"DARK_RED":            0x992d22,
	"DARK_GREY":           0x979c9f,
	"DARKER_GREY":         0x7f8c8d,
	"LIGHT_GREY":          0xbcc0c0,
	"DARK_NAVY":           0x2c3e50,
	"BLURPLE":             0x5865f2,
	"GREYPLE":             0x99aab5,
	"DARK_BUT_NOT_BLACK":  0x2c2f33,
	"NOT_QUITE_BLACK":     0x23272a,
}

// Resolve converts a color resolvable into its numeric form. Accepted
// inputs: an int, a symbolic name ("BLUE", "RANDOM"), a hex string
// ("#3498db" or "3498db") and an RGB triple ([3]int or []int of length 3).
func Resolve(v any) (int, error) {
	var c int
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		c = x
	case string:
		switch {
		case x == "RANDOM":
			return rand.Intn(MaxColor + 1), nil
		case x == "DEFAULT":
			return 0, nil
		}
		if n, ok := Names[x]; ok {
			return n, nil
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(x, "#"), 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrColorConvert, x)
		}
		c = int(n)
	case [3]int:
		c = x[0]<<16 + x[1]<<8 + x[2]
	case []int:
		if len(x) != 3 {
			return 0, fmt.Errorf("%w: rgb slice of length %d", ErrColorConvert, len(x))
		}
		c = x[0]<<16 + x[1]<<8 + x[2]
	default:
		return 0, fmt.Errorf("%w: %T", ErrColorConvert, v)
	}
	if c < 0 || c > MaxColor {
		return 0, fmt.Errorf("%w: %d", ErrColorRange, c)
	}
	return c, nil
}

// Hex renders c as "#rrggbb".
func Hex(c int) string {
	return fmt.Sprintf("#%06x", c)
}
