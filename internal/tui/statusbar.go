package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(shown, filtered, total int, periodLabel, originLabel string, hasMore bool, width int, filtering bool) string {
	left := fmt.Sprintf(" %d/%d articles", shown, filtered)
	if total != filtered {
		left += fmt.Sprintf(" (%d stored)", total)
	}
	left += " · " + periodLabel
	if originLabel != "All" {
		left += " · " + originLabel
	}
	if hasMore {
		left += " · m more"
	}

	right := " f filter  p period  r refresh  i info  q quit "
	if filtering {
		right = " tab lane  ←/→ move  enter apply  esc close "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(width).Render(bar)
}
