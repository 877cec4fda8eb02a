package agent

import (
	"fmt"
	"slices"

	"github.com/lox/blackjackbots/internal/game"
)

// ActionValues holds the estimated return of each action in one state.
type ActionValues struct {
	Hit   float64
	Stand float64
}

// Get returns the value of a.
func (v *ActionValues) Get(a game.Action) float64 {
	if a == game.Stand {
		return v.Stand
	}
	return v.Hit
}

// Set stores the value of a.
func (v *ActionValues) Set(a game.Action, q float64) {
	if a == game.Stand {
		v.Stand = q
		return
	}
	v.Hit = q
}

// Best returns the higher-valued action. Ties go to Hit.
func (v *ActionValues) Best() game.Action {
	best := game.Actions[0]
	for _, a := range game.Actions[1:] {
		if v.Get(a) > v.Get(best) {
			best = a
		}
	}
	return best
}

// Max returns the highest action value.
func (v *ActionValues) Max() float64 {
	return v.Get(v.Best())
}

// QTable maps states to action values. Entries are created on first lookup.
type QTable struct {
	values map[game.State]*ActionValues
}

// NewQTable creates an empty table.
func NewQTable() *QTable {
	return &QTable{values: make(map[game.State]*ActionValues)}
}

// Values returns the record for s, inserting a zeroed one if absent.
func (t *QTable) Values(s game.State) *ActionValues {
	v, ok := t.values[s]
	if !ok {
		v = &ActionValues{}
		t.values[s] = v
	}
	return v
}

// Lookup returns the record for s without inserting.
func (t *QTable) Lookup(s game.State) (ActionValues, bool) {
	v, ok := t.values[s]
	if !ok {
		return ActionValues{}, false
	}
	return *v, true
}

// Size returns the number of materialised states.
func (t *QTable) Size() int { return len(t.values) }

// Entry is one row of a table snapshot.
type Entry struct {
	State  game.State
	Values ActionValues
}

func (e Entry) String() string {
	return fmt.Sprintf("(%d, %d, %t) hit=%.4f stay=%.4f",
		e.State.PlayerTotal, e.State.DealerUpcard, e.State.UsableAce, e.Values.Hit, e.Values.Stand)
}

// Entries returns a copy of the table ordered by player total, upcard, then ace flag.
func (t *QTable) Entries() []Entry {
	out := make([]Entry, 0, len(t.values))
	for s, v := range t.values {
		out = append(out, Entry{State: s, Values: *v})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := a.State.PlayerTotal - b.State.PlayerTotal; c != 0 {
			return c
		}
		if c := a.State.DealerUpcard - b.State.DealerUpcard; c != 0 {
			return c
		}
		switch {
		case a.State.UsableAce == b.State.UsableAce:
			return 0
		case !a.State.UsableAce:
			return -1
		default:
			return 1
		}
	})
	return out
}
