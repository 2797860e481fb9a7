// Package tui provides the live progress dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/service"
	"github.com/xolan/evertrack/internal/timefmt"
	"github.com/xolan/evertrack/internal/tui/ui"
)

// fetchTimeout bounds one refresh, retries included.
const fetchTimeout = time.Minute

// Source produces progress reports. *service.ProgressService implements it.
type Source interface {
	RefreshAt(ctx context.Context, now time.Time, mode period.Mode) (service.Report, error)
	Now() time.Time
}

// Options configures the dashboard.
type Options struct {
	Mode            period.Mode
	RefreshInterval time.Duration
	ShowMinutes     bool
	Theme           string
	// SaveTheme persists the theme picked with the theme key. Optional.
	SaveTheme func(name string) error
	Logger    logging.Logger
}

// Model is the dashboard model
type Model struct {
	source      Source
	mode        period.Mode
	interval    time.Duration
	showMinutes bool
	saveTheme   func(string) error
	log         logging.Logger

	// seq numbers every refresh; applied is the newest one shown.
	seq     int
	applied int
	loading bool

	report *service.Report
	err    error

	width  int
	height int

	spinner spinner.Model
	help    help.Model
	keys    ui.KeyMap

	themeProvider *ui.ThemeProvider
	styles        ui.Styles
}

// reportMsg carries the outcome of refresh number seq.
type reportMsg struct {
	seq    int
	mode   period.Mode
	report service.Report
	err    error
}

// tickMsg triggers the periodic refresh.
type tickMsg time.Time

// themeSavedMsg reports the outcome of persisting a theme.
type themeSavedMsg struct {
	name string
	err  error
}

// New creates a new dashboard model
func New(source Source, opts Options) Model {
	mode := opts.Mode
	if !mode.Valid() {
		mode = period.Weekly
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	themeProvider := ui.NewThemeProvider(opts.Theme)
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		source:        source,
		mode:          mode,
		interval:      opts.RefreshInterval,
		showMinutes:   opts.ShowMinutes,
		saveTheme:     opts.SaveTheme,
		log:           log,
		seq:           1,
		loading:       true,
		spinner:       sp,
		help:          help.New(),
		keys:          ui.DefaultKeyMap(),
		themeProvider: themeProvider,
		styles:        themeProvider.Styles(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.seq, m.mode), m.spinner.Tick, m.tick())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()

		case key.Matches(msg, m.keys.Mode):
			m.mode = m.mode.Next()
			m.report = nil
			m.err = nil
			return m, m.refresh()

		case key.Matches(msg, m.keys.Theme):
			name := m.themeProvider.NextTheme()
			m.styles = m.themeProvider.Styles()
			return m, m.persistTheme(name)

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case reportMsg:
		m.apply(msg)
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			m.log.Warnf("failed to save theme %s: %v", msg.name, msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// apply shows msg unless a newer refresh has already been shown or the
// mode changed while it was in flight.
func (m *Model) apply(msg reportMsg) {
	if msg.seq <= m.applied || msg.mode != m.mode {
		m.log.Debugf("discarding refresh %d (applied %d)", msg.seq, m.applied)
		return
	}
	m.applied = msg.seq
	m.loading = m.applied < m.seq

	if msg.err != nil {
		m.err = msg.err
		return
	}
	report := msg.report
	m.report = &report
	m.err = nil
}

// refresh issues the next numbered fetch.
func (m *Model) refresh() tea.Cmd {
	m.seq++
	wasLoading := m.loading
	m.loading = true

	fetch := m.fetch(m.seq, m.mode)
	if wasLoading {
		return fetch
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m Model) fetch(seq int, mode period.Mode) tea.Cmd {
	source := m.source
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		log.Debugf("refresh %d (%s)", seq, mode)
		report, err := source.RefreshAt(ctx, source.Now(), mode)
		return reportMsg{seq: seq, mode: mode, report: report, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) persistTheme(name string) tea.Cmd {
	if m.saveTheme == nil {
		return nil
	}
	save := m.saveTheme
	return func() tea.Msg {
		return themeSavedMsg{name: name, err: save(name)}
	}
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.report != nil:
		b.WriteString(m.renderReport(*m.report))
	case m.err == nil:
		b.WriteString(m.styles.Muted.Render("Loading progress..."))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.StatusBar.Render(m.help.View(m.keys)))
	return m.styles.App.Render(b.String())
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("EverTrack")

	label := string(m.mode)
	if m.report != nil {
		label = fmt.Sprintf("%s (%s)", m.report.Result.PeriodLabel, m.mode)
	}
	parts := []string{title, m.styles.Period.Render(label)}
	if m.loading {
		parts = append(parts, m.spinner.View())
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderReport(r service.Report) string {
	res := r.Result
	status := ui.StatusStyle(res.Color)
	hours := func(h float64) string { return timefmt.FormatHours(h, m.showMinutes) }

	var b strings.Builder
	bar := cli.DeviationBar(res.FillRatio, res.DifferenceHours < 0, m.barWidth())
	b.WriteString(m.styles.Bar.Render(status.Render(bar)))
	b.WriteString("\n")

	rows := [][2]string{
		{"Worked", hours(res.WorkedHours)},
		{"Expected", hours(res.ExpectedHours) + " by now"},
		{"Target", hours(res.FullTargetHours)},
		{"Progress", fmt.Sprintf("%.0f%%", res.ProgressPercentage)},
	}
	for _, row := range rows {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.styles.Label.Render(row[0]), m.styles.Value.Render(row[1])))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Label.Render("Status"), status.Render(res.StatusText)))
	b.WriteString("\n\n")

	updated := "Updated " + cli.FormatFetchedAt(r.FetchedAt, r.At)
	if r.Stale {
		b.WriteString(m.styles.Warning.Render(updated + " (stale: cached data)"))
	} else {
		b.WriteString(m.styles.Muted.Render(updated))
	}
	b.WriteString("\n")
	return b.String()
}

// barWidth fits the deviation bar to the window, leaving room for the
// padding and brackets.
func (m Model) barWidth() int {
	const maxWidth = 60
	w := m.width - 10
	switch {
	case m.width == 0 || w > maxWidth:
		return maxWidth
	case w < 10:
		return 10
	}
	return w
}

// Run starts the dashboard on the alternate screen
func Run(source Source, opts Options) error {
	p := tea.NewProgram(New(source, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
