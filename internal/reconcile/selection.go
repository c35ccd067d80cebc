package reconcile

import "time"

// SelectionSource identifies which UI surface produced a station
// selection signal.
type SelectionSource int

const (
	SourceList SelectionSource = iota
	SourceMap
)

// Selection is one station selection signal from the UI boundary.
type Selection struct {
	StationID string
	Source    SelectionSource
	At        time.Time
}

// ResolveSelection picks the winning selection when a request carries
// both a spatial (map) pick and a list pick for the same logical query.
// Policy: the most recently interacted-with signal wins; when both
// arrive with no ordering information (equal or zero timestamps), the
// spatial selection takes precedence over the list one. This is an
// explicit, documented policy, not an accidental default.
func ResolveSelection(selections ...Selection) (Selection, bool) {
	var winner Selection
	found := false
	for _, sel := range selections {
		if sel.StationID == "" {
			continue
		}
		if !found {
			winner = sel
			found = true
			continue
		}
		switch {
		case sel.At.After(winner.At):
			winner = sel
		case sel.At.Equal(winner.At) && sel.Source == SourceMap && winner.Source == SourceList:
			winner = sel
		}
	}
	return winner, found
}
