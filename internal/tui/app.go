// Package tui provides the interactive Bubble Tea dashboard for costcmp.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"
	"github.com/theirongolddev/costcmp/internal/tui/components"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DefaultTrendPeriods is how many periods the Trend tab shows when unset.
const DefaultTrendPeriods = 8

// loadTimeout bounds one dashboard load, including remote fetches.
const loadTimeout = 2 * time.Minute

// Options configures the dashboard.
type Options struct {
	Config   config.Config
	Fetcher  pipeline.Fetcher
	Resolver fiscal.Resolver
	// Request holds the mode, filters and optional custom ranges. A zero
	// Now is re-read from the clock on every load.
	Request      pipeline.Request
	TrendPeriods int
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

func (o Options) clock() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

// now is the instant periods are anchored on: the pinned Request.Now, or the clock.
func (o Options) now() time.Time {
	if !o.Request.Now.IsZero() {
		return o.Request.Now
	}
	return o.clock()
}

// dashboardData is everything the tabs render.
type dashboardData struct {
	Report    model.Report
	Trend     []model.PeriodSummary
	Breakdown []breakdownRow
	Records   int
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Data     dashboardData
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports load progress.
type ProgressMsg struct {
	Stage   string
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Data     dashboardData
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data        dashboardData
	loaded      bool
	loadErr     error
	loadTime    time.Duration
	lastRefresh time.Time
	refreshing  bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	// Loading: progress and completion arrive on loadSub
	spinner     spinner.Model
	stage       string
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can start with a broken config file.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates the dashboard model. First-run setup is offered when no
// config file exists yet.
func NewApp(opts Options) App {
	if opts.TrendPeriods < 1 {
		opts.TrendPeriods = DefaultTrendPeriods
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	// Forms keep pointers to their values, which must survive App copies.
	setupVals := SetupValuesFrom(opts.Config)
	return App{
		opts:      opts,
		needSetup: !config.Exists(),
		setupVals: &setupVals,
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// applyResolver rebuilds the fiscal resolver after a calendar or timezone change.
func (a *App) applyResolver(cfg config.Config) error {
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	a.opts.Resolver = res
	return nil
}

func (a App) currency() string {
	return a.opts.Config.General.Currency
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.settings.form != nil {
			a.settings.form = a.settings.form.WithWidth(components.CardInnerWidth(a.contentWidth()))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.settings.form != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		// The settings form owns the keyboard while open
		if a.activeTab == components.TabSettings && a.settings.form != nil {
			if key == "esc" {
				a.settings.form = nil
				return a, nil
			}
			return a.updateSettingsForm(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == components.TabSettings && key == "enter" {
			return a.settingsStartEdit()
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if a.refreshing {
				return a, nil
			}
			a.refreshing = true
			return a, refreshDataCmd(a.opts)
		case "left", "h":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "l", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.opts.clock()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.data = msg.Data
		}

		if a.needSetup {
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.stage = msg.Stage
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		// Keeps the data age in the status bar current.
		return a, tickCmd()

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.opts.clock()
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.data = msg.Data
		}
		return a, nil
	}

	// Forward cursor blinks and the like to whichever form is open.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.settings.form != nil {
		return a.updateSettingsForm(msg)
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		err := a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		a.settings.saveErr = err
		if mode, perr := model.ParseMode(a.setupVals.Mode); perr == nil && a.opts.Request.Custom == nil {
			a.opts.Request.Mode = mode
		}
		a.refreshing = true
		return a, refreshDataCmd(a.opts)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  costcmp needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ costcmp"))
	b.WriteString(subtitleStyle.Render(" · Fiscal Period Cost Comparison"))
	b.WriteString("\n\n")

	stage := a.stage
	if stage == "" {
		stage = "Selecting periods"
	}
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" " + stage + "..."))

	if a.progressMax > 0 {
		barW := 40
		if barW > w-30 {
			barW = w - 30
		}
		if barW < 20 {
			barW = 20
		}
		b.WriteString("\n\n")
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Highlight).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o b t x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"click", "Select tab"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"Enter", "Edit settings"},
			{"Esc", "Cancel editing"},
			{"r", "Reload records"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// headerContext describes what is being compared, e.g. "quarter · ethiopian · garage=G1".
func (a App) headerContext() string {
	parts := []string{string(a.opts.Request.Mode), a.opts.Resolver.Name()}
	if d := a.opts.Request.Filters.Describe(); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " · ")
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	dataAge := ""
	if !a.lastRefresh.IsZero() {
		dataAge = formatAge(a.opts.clock().Sub(a.lastRefresh))
	}
	statusBar := components.RenderStatusBar(w, a.headerContext(), dataAge, a.refreshing)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case a.loadErr != nil && a.activeTab != components.TabSettings:
		content = a.renderError(cw)
	case a.activeTab == components.TabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == components.TabBreakdown:
		content = a.renderBreakdownTab(cw)
	case a.activeTab == components.TabTrend:
		content = a.renderTrendTab(cw)
	case a.activeTab == components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderError(cw int) string {
	t := theme.Active
	warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := warnStyle.Render(a.loadErr.Error()) + "\n\n" +
		hintStyle.Render("Press r to retry or x to change settings.")
	return components.ContentCard("Could not load records", body, cw)
}

// Helpers

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadStages is the number of ProgressMsg steps loadDashboard reports.
const loadStages = 3

// loadDashboard selects the periods, fetches every record the tabs need in
// a single span and aggregates them.
func loadDashboard(ctx context.Context, opts Options, progress func(stage string, step int)) (dashboardData, error) {
	if progress == nil {
		progress = func(string, int) {}
	}
	req := opts.Request
	req.Now = opts.now()

	progress("Selecting periods", 1)
	pair, err := pipeline.SelectPeriods(opts.Resolver, req.Mode, req.Now, req.Custom)
	if err != nil {
		return dashboardData{}, err
	}

	var trendRanges []model.DateRange
	if req.Mode != model.ModeCustom {
		trendRanges, err = pipeline.TrendRanges(opts.Resolver, req.Mode, req.Now, opts.TrendPeriods)
		if err != nil {
			return dashboardData{}, err
		}
	}
	span := pipeline.Span(append([]model.DateRange{pair.Period1, pair.Period2}, trendRanges...)...)

	progress("Fetching work orders", 2)
	records, err := opts.Fetcher.Fetch(ctx, span)
	if err != nil {
		return dashboardData{}, fmt.Errorf("fetching %s: %w", span, err)
	}

	progress("Comparing periods", 3)
	data := dashboardData{
		Report:  pipeline.BuildReport(opts.Resolver, req, pair, records, records),
		Records: len(records),
		Breakdown: joinBreakdown(
			pipeline.Breakdown(records, pair.Period1, req.Filters, pipeline.ByGarage),
			pipeline.Breakdown(records, pair.Period2, req.Filters, pipeline.ByGarage),
		),
	}
	if req.Mode != model.ModeCustom {
		data.Trend, err = pipeline.Trend(opts.Resolver, req.Mode, req.Now, opts.TrendPeriods, records, req.Filters)
		if err != nil {
			return dashboardData{}, err
		}
	}
	return data, nil
}

// loadDataCmd runs the load in a background goroutine, streaming
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()

			// Non-blocking send; a skipped update is replaced by the next one.
			progressFn := func(stage string, step int) {
				select {
				case sub <- ProgressMsg{Stage: stage, Current: step, Total: loadStages}:
				default:
				}
			}

			data, err := loadDashboard(ctx, opts, progressFn)
			sub <- DataLoadedMsg{Data: data, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads in the background without progress UI.
func refreshDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		data, err := loadDashboard(ctx, opts, nil)
		return RefreshDataMsg{Data: data, Err: err, LoadTime: time.Since(start)}
	}
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
