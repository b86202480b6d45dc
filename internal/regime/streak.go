package regime

import "RegimeWatch/internal/model"

// WeeksInState counts the consecutive most recent records equal to state.
// The record about to be written is not included.
func WeeksInState(history []model.HistoryRecord, state model.State) int {
	n := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].State != state {
			break
		}
		n++
	}
	return n
}
