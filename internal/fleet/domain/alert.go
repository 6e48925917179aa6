package fleet

import "sort"

// Alert is one prioritizable problem report. Message carries no severity
// glyph; rendering happens at the presentation boundary.
type Alert struct {
	Severity Severity
	Message  string
}

// SortAlerts orders alerts by severity rank. The sort is stable: alerts of
// equal severity keep their original relative order so snapshots are
// reproducible.
func SortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
}
