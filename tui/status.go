package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// current location, its exits, the inventory, and the turn count.
func (m Model) renderStatusBar() string {
	e := m.engine
	playerID := e.World.Player()

	var locID string
	if p, ok := e.World.Get(playerID); ok {
		if s, ok := p.Props["location"].(string); ok {
			locID = s
		}
	}

	locName := locID
	var dirs []string
	if loc, ok := e.World.Get(locID); ok {
		if loc.Name != "" {
			locName = loc.Name
		}
		if exits, ok := loc.Props["exits"].(map[string]any); ok {
			for dir := range exits {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)
		}
	}
	exitStr := strings.Join(dirs, ",")

	carried := e.World.EntitiesAt(playerID)

	left := fmt.Sprintf(" %s | Exits: %s", locName, exitStr)
	right := fmt.Sprintf("T:%d ", e.TurnCount)

	// Show inventory items if they fit, otherwise just the count.
	if len(carried) > 0 {
		names := make([]string, 0, len(carried))
		for _, id := range carried {
			name := id
			if ent, ok := e.World.Get(id); ok && ent.Name != "" {
				name = ent.Name
			}
			names = append(names, name)
		}
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(names, ", "), e.TurnCount)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(carried), e.TurnCount)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
