package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jblairy/techwatch/internal/query"
)

// period is one entry of the fixed date window menu. days follows the
// query convention: -1 means no window, otherwise the window reaches
// back that many days from today.
type period struct {
	label string
	days  int
}

var periods = []period{
	{"All", query.AllTime},
	{"Today", 0},
	{"Yesterday", 1},
	{"2 days", 2},
	{"Week", 6},
	{"Month", 29},
}

type filterLane int

const (
	laneNone filterLane = iota
	lanePeriod
	laneOrigin
)

// filterBar holds the two single-select filters: the date period and
// the origin. Index 0 of the origin lane is the implicit "All" entry.
type filterBar struct {
	origins   []string
	periodIdx int
	originIdx int

	lane   filterLane
	cursor int
}

func newFilterBar(origins []string) filterBar {
	return filterBar{origins: origins}
}

func (f *filterBar) setOrigins(origins []string) {
	current := f.selectedOrigin()
	f.origins = origins
	f.originIdx = 0
	for i, o := range origins {
		if o == current {
			f.originIdx = i + 1
			break
		}
	}
}

func (f *filterBar) selectedOrigin() string {
	if f.originIdx == 0 || f.originIdx > len(f.origins) {
		return ""
	}
	return f.origins[f.originIdx-1]
}

// queryValue translates the current selection into a pipeline query.
func (f *filterBar) queryValue() query.Query {
	return query.Query{
		Days:   periods[f.periodIdx].days,
		Origin: f.selectedOrigin(),
	}
}

func (f *filterBar) enter() {
	f.lane = lanePeriod
	f.cursor = f.periodIdx
}

func (f *filterBar) exit() {
	f.lane = laneNone
}

func (f *filterBar) laneLen() int {
	if f.lane == laneOrigin {
		return len(f.origins) + 1
	}
	return len(periods)
}

func (f *filterBar) switchLane() {
	if f.lane == lanePeriod {
		f.lane = laneOrigin
		f.cursor = f.originIdx
	} else {
		f.lane = lanePeriod
		f.cursor = f.periodIdx
	}
}

func (f *filterBar) moveCursor(delta int) {
	next := f.cursor + delta
	if next >= 0 && next < f.laneLen() {
		f.cursor = next
	}
}

// applyCursor commits the highlighted entry and reports whether the
// selection actually changed.
func (f *filterBar) applyCursor() bool {
	switch f.lane {
	case lanePeriod:
		if f.periodIdx == f.cursor {
			return false
		}
		f.periodIdx = f.cursor
		return true
	case laneOrigin:
		if f.originIdx == f.cursor {
			return false
		}
		f.originIdx = f.cursor
		return true
	}
	return false
}

// cyclePeriod advances the period selection without entering filter
// mode. Wraps around.
func (f *filterBar) cyclePeriod() {
	f.periodIdx = (f.periodIdx + 1) % len(periods)
}

func (f *filterBar) periodLabel() string {
	return periods[f.periodIdx].label
}

func (f *filterBar) originLabel() string {
	if o := f.selectedOrigin(); o != "" {
		return o
	}
	return "All"
}

func (f *filterBar) render(width int) string {
	var parts []string

	for i, p := range periods {
		parts = append(parts, f.renderTab(p.label, lanePeriod, i, i == f.periodIdx))
	}
	parts = append(parts, tabSeparatorStyle.Render("│"))
	parts = append(parts, f.renderTab("All", laneOrigin, 0, f.originIdx == 0))
	for i, o := range f.origins {
		parts = append(parts, f.renderTab(o, laneOrigin, i+1, f.originIdx == i+1))
	}

	sep := tabSeparatorStyle.Render(" ")
	var rowStr string
	for i, part := range parts {
		candidate := rowStr
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && rowStr != "" {
			break
		}
		rowStr = candidate
	}

	barStyle := lipgloss.NewStyle().Width(width).PaddingLeft(1)
	return barStyle.Render(rowStr)
}

func (f *filterBar) renderTab(label string, lane filterLane, idx int, active bool) string {
	if f.lane == lane && f.cursor == idx {
		label = "[" + label + "]"
	}
	if active {
		return tabActiveStyle.Render(label)
	}
	return tabInactiveStyle.Render(label)
}
