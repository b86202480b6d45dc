package model

import "sort"

// Alert names produced by the indicator evaluation.
const (
	AlertSPYBelow200MA = "SPY below 200MA"
	AlertSPYAbove200MA = "SPY above 200MA"
	AlertQQQBelow100MA = "QQQ below 100MA"
	AlertQQQOffHigh    = "QQQ -12% from high"
	AlertQQQOffLow     = "QQQ +15% from low"
	AlertARKKOffHigh   = "ARKK -15% from high"
	AlertARKKOffLow    = "ARKK +20% from low"
	AlertVIXAbove25    = "VIX > 25"
	AlertVIXAbove30    = "VIX > 30"
	AlertVIXBelow20    = "VIX < 20"
	AlertVIXBelow18    = "VIX < 18"
	AlertHYGOffHigh    = "HYG -7%"
	AlertHYGOffLow     = "HYG +7%"
	AlertIEFOffLow     = "IEF +5%"
	AlertIEFOffHigh    = "IEF -3%"
)

// AlertNames lists every evaluated alert in evaluation order.
var AlertNames = []string{
	AlertSPYBelow200MA, AlertSPYAbove200MA,
	AlertQQQBelow100MA, AlertQQQOffHigh, AlertQQQOffLow,
	AlertARKKOffHigh, AlertARKKOffLow,
	AlertHYGOffHigh, AlertHYGOffLow, AlertIEFOffLow, AlertIEFOffHigh,
	AlertVIXAbove25, AlertVIXAbove30, AlertVIXBelow20, AlertVIXBelow18,
}

// AlertSet maps alert name to whether it fired this period.
// A name missing from the set reads as not triggered.
type AlertSet map[string]bool

// Triggered reports whether the named alert fired.
func (a AlertSet) Triggered(name string) bool {
	return a[name]
}

// Count returns how many of names are triggered. Duplicated names count once per occurrence.
func (a AlertSet) Count(names []string) int {
	n := 0
	for _, name := range names {
		if a.Triggered(name) {
			n++
		}
	}
	return n
}

// TriggeredNames returns the fired alert names sorted alphabetically.
func (a AlertSet) TriggeredNames() []string {
	names := make([]string, 0, len(a))
	for name, on := range a {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
