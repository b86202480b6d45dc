package summary

import "RegimeWatch/internal/model"

// tally counts states in first-seen order so ties resolve the same way on
// every run and platform.
type tally struct {
	order  []model.State
	counts map[model.State]int
}

func newTally() *tally {
	return &tally{counts: make(map[model.State]int)}
}

func (t *tally) add(s model.State) {
	if _, ok := t.counts[s]; !ok {
		t.order = append(t.order, s)
	}
	t.counts[s]++
}

// mostCommon returns the state with the highest count. Among equal counts the
// state first added wins.
func (t *tally) mostCommon() model.State {
	var best model.State
	top := 0
	for _, s := range t.order {
		if c := t.counts[s]; c > top {
			best, top = s, c
		}
	}
	return best
}

func (t *tally) asMap() map[model.State]int {
	out := make(map[model.State]int, len(t.counts))
	for s, c := range t.counts {
		out[s] = c
	}
	return out
}
