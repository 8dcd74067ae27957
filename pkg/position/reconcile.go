// Package position recomputes the order of sibling entities after one of them
// is moved. Position 0 belongs to the base entity and is never assigned.
package position

import (
	"fosscord/pkg/snowflake"
)

// Item is an entity's identity and its current position.
type Item struct {
	ID       snowflake.ID
	Position int
}

// Pair is one (id, position) entry of a batch write.
type Pair struct {
	ID       snowflake.ID `json:"id"`
	Position int          `json:"position"`
}

// Plan is the outcome of a reconciliation.
type Plan struct {
	Target snowflake.ID
	// Position is the clamped position the target lands on.
	Position int
	// Pairs is the full renumbered list, lowest first, without the base entity.
	Pairs []Pair

	before map[snowflake.ID]int
}

// Changed returns only the pairs whose position differs from before the move.
func (p Plan) Changed() []Pair {
	var out []Pair
	for _, pair := range p.Pairs {
		if prev, ok := p.before[pair.ID]; !ok || prev != pair.Position {
			out = append(out, pair)
		}
	}
	return out
}

// Empty reports whether there is nothing to submit.
func (p Plan) Empty() bool { return len(p.Pairs) == 0 }

// Reconcile moves target to position within sorted (lowest first) and
// renumbers the siblings sequentially from 1, skipping base. The requested
// position is clamped to [1, len(siblings)]; anything below 1 resets to 1.
// With relative set, position is an offset from the target's current
// position. ok is false when target is the base or not in sorted.
func Reconcile(sorted []Item, base, target snowflake.ID, position int, relative bool) (plan Plan, ok bool) {
	if target == base {
		return Plan{}, false
	}

	siblings := make([]snowflake.ID, 0, len(sorted))
	before := make(map[snowflake.ID]int, len(sorted))
	current := -1
	for _, it := range sorted {
		if it.ID == base {
			continue
		}
		if it.ID == target {
			current = len(siblings)
		}
		siblings = append(siblings, it.ID)
		before[it.ID] = it.Position
	}
	if current < 0 {
		return Plan{}, false
	}

	if relative {
		position = current + 1 + position
	}
	position = clamp(position, len(siblings))

	moved := make([]snowflake.ID, 0, len(siblings))
	moved = append(moved, siblings[:current]...)
	moved = append(moved, siblings[current+1:]...)
	idx := position - 1
	moved = append(moved[:idx], append([]snowflake.ID{target}, moved[idx:]...)...)

	pairs := make([]Pair, len(moved))
	for i, id := range moved {
		pairs[i] = Pair{ID: id, Position: i + 1}
	}
	return Plan{Target: target, Position: position, Pairs: pairs, before: before}, true
}

func clamp(position, n int) int {
	if position < 1 {
		return 1
	}
	if position > n {
		return n
	}
	return position
}
