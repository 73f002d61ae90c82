package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mxkacsa/worldsync"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAF5F")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D75F5F")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func statusStyle(s state.Status) lipgloss.Style {
	switch s {
	case state.Reachable:
		return okStyle
	case state.Checked:
		return dimStyle
	default:
		return failStyle
	}
}

// renderSnapshot prints one row per region in world order, with its
// accessible and total location counts.
func renderSnapshot(data *world.Data, snap *state.Snapshot) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("REGION", "STATUS", "ACCESSIBLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range data.Regions() {
		open := 0
		for _, loc := range r.Locations {
			if ok, _ := snap.IsLocationAccessible(loc.Name); ok {
				open++
			}
		}
		status := snap.RegionStatus(r.Name)
		t.Row(r.Name, statusStyle(status).Render(status.String()), fmt.Sprintf("%d/%d", open, len(r.Locations)))
	}

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d regions reachable, %d locations in logic, %d passes\n",
		len(snap.ReachableRegions()), data.NumRegions(), len(snap.AccessibleLocations()), snap.Passes())
	if events := snap.Events(); len(events) > 0 {
		fmt.Fprintf(&b, "events: %s\n", strings.Join(events, ", "))
	}
	return b.String()
}

// renderChanges prints a change set as one line per entry.
func renderChanges(u worldsync.Update) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%d (%d changes)\n", u.Trigger, u.Next.Version(), u.Changes.Len())
	for _, c := range u.Changes.Regions {
		fmt.Fprintf(&b, "  region   %-30s %s -> %s\n", c.Region, c.From, statusStyle(c.To).Render(c.To.String()))
	}
	for _, c := range u.Changes.Locations {
		mark := failStyle.Render("out of logic")
		if c.Accessible {
			mark = okStyle.Render("in logic")
		}
		fmt.Fprintf(&b, "  location %-30s %s\n", c.Location, mark)
	}
	for _, c := range u.Changes.Events {
		fmt.Fprintf(&b, "  event    %-30s %s\n", c.Key, c.Op)
	}
	return b.String()
}
