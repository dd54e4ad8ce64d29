package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	codeStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 2).
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	hpHigh  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hpMid   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	hpLow   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hpEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	statusStyles = map[dex.Status]lipgloss.Style{
		dex.StatusBurn:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		dex.StatusParalysis: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		dex.StatusSleep:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		dex.StatusPoison:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

// hpBar draws a bar of the given width, colored by how much is left.
func hpBar(fraction float64, width int) string {
	if width < 1 {
		width = 1
	}
	fraction = max(0, min(1, fraction))
	filled := int(fraction*float64(width) + 0.5)
	if filled == 0 && fraction > 0 {
		filled = 1
	}

	style := hpHigh
	switch {
	case fraction <= 0.2:
		style = hpLow
	case fraction <= 0.5:
		style = hpMid
	}
	return style.Render(strings.Repeat("█", filled)) + hpEmpty.Render(strings.Repeat("░", width-filled))
}

// statusBadge renders the short status tag, or nothing when healthy.
func statusBadge(s dex.Status) string {
	if s == dex.StatusNone {
		return ""
	}
	return statusStyles[s].Render(s.Short())
}

// renderCombatant draws one active combatant. masked views report HP in
// percent.
func renderCombatant(v party.PokemonView, masked bool, barWidth int) string {
	var b strings.Builder
	header := fmt.Sprintf("%s  Lv%d", titleStyle.Render(v.Name), v.Level)
	if badge := statusBadge(v.Status); badge != "" {
		header += " " + badge
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(hpBar(v.HPFraction(), barWidth))
	if masked {
		b.WriteString(fmt.Sprintf(" %3d%%", v.HP))
	} else {
		b.WriteString(fmt.Sprintf(" %d/%d", v.HP, v.MaxHP))
	}
	return b.String()
}

// renderSide draws every active slot of a side plus a roster summary.
func renderSide(v party.PartyView, masked bool, width int) string {
	var blocks []string
	title := v.Name
	if title == "" {
		title = string(v.ID)
	}
	blocks = append(blocks, subtleStyle.Render(title)+"  "+rosterDots(v))

	barWidth := max(10, min(30, width-16))
	for slot := range v.Slots {
		mon, ok := v.Active(slot)
		if !ok {
			blocks = append(blocks, subtleStyle.Render("(empty)"))
			continue
		}
		blocks = append(blocks, renderCombatant(mon, masked, barWidth))
	}
	return panelStyle.Width(max(20, width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

// rosterDots shows one ball per roster member: filled when able to fight.
func rosterDots(v party.PartyView) string {
	var b strings.Builder
	for _, mon := range v.Roster {
		switch {
		case mon.Fainted:
			b.WriteString(hpLow.Render("○"))
		case mon.Hidden:
			b.WriteString(subtleStyle.Render("●"))
		default:
			b.WriteString(hpHigh.Render("●"))
		}
	}
	return b.String()
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}

// renderList draws a vertical menu with the cursor row highlighted.
func renderList(items []string, cursor int) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		if i == cursor {
			b.WriteString(selectedStyle.Render("▸ " + item))
		} else {
			b.WriteString("  " + item)
		}
	}
	return b.String()
}
