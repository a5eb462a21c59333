package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

const (
	gridCellWidth     = 9
	carouselCardWidth = 16
)

var (
	accentColor = lipgloss.Color("#F47A60")
	infoColor   = lipgloss.Color("#6CBFE6")
	mutedColor  = lipgloss.Color("#8D88A8")

	phasePalette = map[calendar.PhaseColor]lipgloss.Color{
		calendar.ColorMenstrual:  lipgloss.Color("#F15B5B"),
		calendar.ColorFollicular: lipgloss.Color("#5CCB76"),
		calendar.ColorOvulatory:  lipgloss.Color("#FFD54A"),
		calendar.ColorLuteal:     lipgloss.Color("#B39DDB"),
		calendar.ColorNeutral:    lipgloss.Color("#3A3F4B"),
	}

	indicatorGlyphs = map[calendar.Indicator]string{
		calendar.IndicatorPeriod:       "●",
		calendar.IndicatorMoodPositive: "+",
		calendar.IndicatorMoodNeutral:  "~",
		calendar.IndicatorMoodNegative: "-",
		calendar.IndicatorLogged:       "•",
		calendar.IndicatorTraining:     "▲",
		calendar.IndicatorSupplement:   "◆",
	}
)

func renderCalendarTitle() string {
	raw := []string{
		"█▀▀ █▄█ █▀▀ █   █▀▀ █▀▀ ▄▀█ █  ",
		"█▄▄  █  █▄▄ █▄▄ ██▄ █▄▄ █▀█ █▄▄",
	}
	style := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)
	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		rows = append(rows, style.Render(line))
	}
	return strings.Join(rows, "\n")
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	if m.width > 0 {
		frame = frame.Width(max(1, m.width-frame.GetHorizontalBorderSize()))
	}
	if m.height > 0 {
		frame = frame.Height(max(1, m.height-frame.GetVerticalBorderSize()))
	}
	layoutWidth := max(40, m.width-frame.GetHorizontalFrameSize())
	layoutHeight := max(1, m.height-frame.GetVerticalFrameSize())

	if m.showHelpOverlay {
		return frame.Render(lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(layoutWidth)))
	}
	if m.authDialog != authDialogNone {
		return frame.Render(lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, m.renderAuthDialog(layoutWidth)))
	}

	snap := m.controller.Snapshot()
	sections := []string{
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderCalendarTitle()),
		m.renderHeader(snap, layoutWidth),
		"",
	}
	if snap.Layout == calendar.LayoutCompact {
		sections = append(sections, m.renderCompact(snap))
	} else {
		sections = append(sections, renderWide(snap))
	}
	if day, ok := selectedDay(snap); ok {
		sections = append(sections, "", renderDayDetail(day, layoutWidth))
	}
	sections = append(sections, "", m.renderStatusLine(snap))
	if m.commandActive {
		sections = append(sections, m.renderCommandBox(layoutWidth))
	} else {
		sections = append(sections, m.help.View(m.keys))
	}
	return frame.Render(strings.Join(sections, "\n"))
}

func (m model) renderHeader(snap calendar.Snapshot, width int) string {
	label := lipgloss.NewStyle().Bold(true).Render(rangeLabel(snap))

	tabs := make([]string, 0, 3)
	for _, g := range []calendar.Granularity{calendar.Month, calendar.Week, calendar.TwoWeek} {
		style := lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
		if g == snap.Granularity {
			style = style.Foreground(lipgloss.Color("#FFFFFF")).Background(accentColor).Bold(true)
		}
		tabs = append(tabs, style.Render(g.String()))
	}

	statusLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("status: ")
	statusColor := lipgloss.Color("#F15B5B")
	switch m.status {
	case stateConnected:
		statusColor = lipgloss.Color("#5CCB76")
	case stateChecking:
		statusColor = lipgloss.Color("#FFD54A")
	}
	status := statusLabel + lipgloss.NewStyle().Foreground(statusColor).Bold(true).Render(m.statusDetail)

	left := label + "  " + strings.Join(tabs, "")
	gap := max(2, width-lipgloss.Width(left)-lipgloss.Width(status))
	return left + strings.Repeat(" ", gap) + status
}

// rangeLabel names the visible range: "March 2024" for a month view, else
// "Mar 17 - Mar 30 2024".
func rangeLabel(snap calendar.Snapshot) string {
	if snap.Granularity == calendar.Month {
		t := snap.Anchor.Time()
		return t.Format("January 2006")
	}
	from, to := snap.From.Time(), snap.To.Time()
	if from.Year() != to.Year() {
		return from.Format("Jan 2 2006") + " - " + to.Format("Jan 2 2006")
	}
	return from.Format("Jan 2") + " - " + to.Format("Jan 2 2006")
}

func renderWeekdayHeader(week []calendar.DayViewModel, cellWidth int) string {
	style := lipgloss.NewStyle().Foreground(mutedColor).Width(cellWidth).Align(lipgloss.Center)
	cells := make([]string, 0, len(week))
	for _, d := range week {
		cells = append(cells, style.Render(d.Date.Weekday().String()[:3]))
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// renderWide draws the month grid, or the visible week rows in week modes.
// The active week row carries a marker in the gutter.
func renderWide(snap calendar.Snapshot) string {
	rows := snap.Weeks
	activeRow := snap.WeekIndex
	if snap.Granularity != calendar.Month {
		rows = chunkWeeks(snap.Days)
		activeRow = -1
		for i, week := range rows {
			for _, d := range week {
				if d.IsSelected {
					activeRow = i
				}
			}
		}
	}
	if len(rows) == 0 {
		return ""
	}

	lines := []string{renderWeekdayHeader(rows[0], gridCellWidth)}
	gutter := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	for i, week := range rows {
		cells := make([]string, 0, len(week))
		for _, d := range week {
			dim := snap.Granularity == calendar.Month && !d.Date.SameMonth(snap.Anchor)
			cells = append(cells, renderDayCell(d, gridCellWidth, dim))
		}
		marker := "  "
		if i == activeRow {
			marker = gutter.Render("› ")
		}
		lines = append(lines, marker+lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func chunkWeeks(days []calendar.DayViewModel) [][]calendar.DayViewModel {
	out := make([][]calendar.DayViewModel, 0, (len(days)+6)/7)
	for start := 0; start < len(days); start += 7 {
		out = append(out, days[start:min(start+7, len(days))])
	}
	return out
}

// renderDayCell is a two-line cell: day number, then indicator glyphs.
func renderDayCell(d calendar.DayViewModel, width int, dim bool) string {
	color := phasePalette[calendar.PhaseColorClass(d)]
	number := lipgloss.NewStyle().Bold(d.IsToday).Underline(d.IsToday)
	if dim {
		number = number.Foreground(mutedColor)
	}

	style := lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(color)
	if d.IsSelected {
		style = style.Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accentColor).
			Background(lipgloss.Color("#263249"))
	}

	return style.Render(number.Render(fmt.Sprintf("%2d", d.Date.Day())) + "\n" + renderIndicators(d.Indicators))
}

func renderIndicators(inds []calendar.Indicator) string {
	var b strings.Builder
	for _, ind := range inds {
		b.WriteString(indicatorGlyphs[ind])
	}
	return b.String()
}

func (m model) renderCompact(snap calendar.Snapshot) string {
	var strip []calendar.DayViewModel
	if snap.WeekIndex >= 0 && snap.WeekIndex < len(snap.Weeks) {
		strip = snap.Weeks[snap.WeekIndex]
	}
	lines := []string{}
	if len(strip) > 0 {
		cells := make([]string, 0, len(strip))
		for _, d := range strip {
			cells = append(cells, renderDayCell(d, 6, !d.Date.SameMonth(snap.Selected)))
		}
		lines = append(lines, renderWeekdayHeader(strip, 6), "  "+lipgloss.JoinHorizontal(lipgloss.Top, cells...), "")
	}
	lines = append(lines, renderCarousel(snap.Days, m.carouselOffset, m.carouselVisible()))
	return strings.Join(lines, "\n")
}

// renderCarousel shows visible day cards starting at offset, with arrows
// when more cards exist on either side.
func renderCarousel(days []calendar.DayViewModel, offset, visible int) string {
	if len(days) == 0 {
		return ""
	}
	offset = max(0, min(offset, len(days)-1))
	end := min(len(days), offset+visible)

	arrow := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	left, right := "  ", "  "
	if offset > 0 {
		left = arrow.Render("‹ ")
	}
	if end < len(days) {
		right = arrow.Render(" ›")
	}

	cards := make([]string, 0, end-offset)
	for _, d := range days[offset:end] {
		cards = append(cards, renderCarouselCard(d))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Center, cards...)
	return lipgloss.JoinHorizontal(lipgloss.Center, left, body, right)
}

func renderCarouselCard(d calendar.DayViewModel) string {
	border := phasePalette[calendar.PhaseColorClass(d)]
	if d.IsSelected {
		border = accentColor
	}
	title := lipgloss.NewStyle().Bold(true).Underline(d.IsToday).Render(d.Date.Time().Format("Mon 2"))
	phase := "-"
	if d.Phase != nil {
		phase = string(d.Phase.Phase)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(carouselCardWidth - 2).
		Render(strings.Join([]string{title, phase, renderIndicators(d.Indicators)}, "\n"))
}

func selectedDay(snap calendar.Snapshot) (calendar.DayViewModel, bool) {
	for _, d := range snap.Days {
		if d.IsSelected {
			return d, true
		}
	}
	return calendar.DayViewModel{}, false
}

// renderDayDetail summarizes everything joined onto the selected day.
func renderDayDetail(d calendar.DayViewModel, width int) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	lines := []string{lipgloss.NewStyle().Bold(true).Render(d.Date.Time().Format("Monday, January 2 2006"))}

	if d.Phase != nil {
		phase := string(d.Phase.Phase)
		if d.Phase.Confidence > 0 {
			phase += fmt.Sprintf(" (%.0f%%)", d.Phase.Confidence*100)
		}
		lines = append(lines, label.Render("phase: ")+phase)
	}
	if d.HasEvent {
		lines = append(lines, label.Render("event: ")+"cycle event logged")
	}
	if s := d.Symptom; s != nil {
		lines = append(lines, label.Render("symptoms: ")+symptomSummary(*s))
	}
	if tr := d.Training; tr != nil {
		summary := string(tr.TrainingLoad)
		if summary == "" {
			summary = "logged"
		}
		if len(tr.WorkoutTypes) > 0 {
			summary += " · " + strings.Join(tr.WorkoutTypes, ", ")
		}
		if tr.PBType != "" {
			summary += fmt.Sprintf(" · PB %s %s", tr.PBType, tr.PBValue)
		}
		lines = append(lines, label.Render("training: ")+summary)
	}
	if d.ReminderTaken {
		lines = append(lines, label.Render("supplement: ")+"taken")
	}
	if len(lines) == 1 {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("nothing logged"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(infoColor).
		Padding(0, 1).
		Width(max(20, min(width-2, 72))).
		Render(strings.Join(lines, "\n"))
}

func symptomSummary(s calendar.SymptomRecord) string {
	parts := []string{}
	scale := func(name string, v *int) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s %d", name, *v))
		}
	}
	scale("mood", s.Mood)
	scale("energy", s.Energy)
	scale("sleep", s.Sleep)
	scale("cramps", s.Cramps)
	scale("bloating", s.Bloating)
	if s.Bleeding() {
		parts = append(parts, "flow "+string(s.BleedingFlow))
	}
	flags := []struct {
		on   bool
		name string
	}{
		{s.Headache, "headache"},
		{s.BreastTenderness, "breast tenderness"},
		{s.Nausea, "nausea"},
		{s.Gas, "gas"},
		{s.ToiletIssues, "toilet issues"},
		{s.HotFlushes, "hot flushes"},
		{s.Chills, "chills"},
		{s.StressHeadache, "stress headache"},
		{s.Dizziness, "dizziness"},
		{s.Ovulation, "ovulation"},
	}
	for _, f := range flags {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	parts = append(parts, s.MoodStates...)
	if len(parts) == 0 {
		return "logged"
	}
	return strings.Join(parts, ", ")
}

func (m model) renderStatusLine(snap calendar.Snapshot) string {
	parts := []string{}
	if snap.Loading {
		parts = append(parts, m.spinner.View()+" loading")
	}
	if snap.Err != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render("! "+snap.Err.Error()))
	}
	if m.syncing {
		parts = append(parts, "syncing")
	} else if m.syncStatus != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(mutedColor).Render(m.syncStatus))
	}
	if strings.TrimSpace(m.commandText) != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9")).Render(m.commandText))
	}
	return strings.Join(parts, "  ")
}

func (m model) renderCommandBox(width int) string {
	inner := max(8, min(width-4, 72))
	lines := []string{}
	for i, c := range m.commandSuggestions {
		if i >= 3 {
			break
		}
		cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
		prefix := "  "
		if i == m.commandSuggestionIndex {
			prefix = "› "
			cmdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
		}
		desc := lipgloss.NewStyle().Foreground(mutedColor).Render(c.description)
		lines = append(lines, prefix+cmdStyle.Render(c.name)+"  "+desc)
	}
	input := m.cmd
	input.Width = max(6, inner-2)
	lines = append(lines, input.View())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(infoColor).
		Padding(0, 1).
		Width(inner).
		Render(strings.Join(lines, "\n"))
}

func (m model) renderHelpOverlay(maxWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FA8FF")).
		Bold(true).
		Render("Help")

	full := m.help
	full.ShowAll = true

	catalog := commandCatalog()
	commands := make([]string, 0, len(catalog))
	for _, c := range catalog {
		commands = append(commands, fmt.Sprintf("%-12s %s", c.name, c.description))
	}
	legend := []string{
		"● period  + ~ - mood  • logged  ▲ training  ◆ supplement",
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Esc to close")

	content := strings.Join([]string{
		title, "",
		full.View(m.keys), "",
		strings.Join(commands, "\n"), "",
		strings.Join(legend, "\n"), "",
		footer,
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(infoColor).
		Padding(1, 2).
		Width(max(36, min(maxWidth-6, 76))).
		Render(content)
}

func (m model) renderAuthDialog(maxWidth int) string {
	panelWidth := max(44, min(maxWidth-6, 64))
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(infoColor).
		Padding(1, 2).
		Width(panelWidth)

	switch m.authDialog {
	case authDialogConnect:
		hint := m.connectHint
		if strings.TrimSpace(hint) == "" {
			hint = "Enter your API token to save it to keychain."
		}
		input := m.token
		input.Width = max(18, panelWidth-8)
		return panel.Render(strings.Join([]string{
			"Connect to the record API",
			"",
			hint,
			"",
			input.View(),
			"",
			"Enter to save, Esc to cancel",
		}, "\n"))
	case authDialogDisconnect:
		return panel.Render(strings.Join([]string{
			"Disconnect",
			"",
			"This removes your saved API token from keychain.",
			"Cached calendar data stays on this device.",
			"",
			"Enter to remove token, Esc to cancel",
		}, "\n"))
	default:
		return ""
	}
}
