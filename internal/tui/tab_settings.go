package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/tui/components"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// settingsValues backs the settings form.
type settingsValues struct {
	Mode     string
	CostType string
	Garage   string
	Workshop string
	Category string
	Calendar string
	Theme    string
}

// settingsState tracks the settings tab state.
type settingsState struct {
	form    *huh.Form
	vals    *settingsValues
	saved   bool  // flash "saved" after a successful save
	saveErr error // non-nil if last save failed
}

func (a App) currentSettings() settingsValues {
	f := a.opts.Request.Filters
	ct := string(f.CostType)
	if ct == "" {
		ct = string(model.CostTypeAll)
	}
	return settingsValues{
		Mode:     string(a.opts.Request.Mode),
		CostType: ct,
		Garage:   f.GarageID,
		Workshop: f.WorkshopID,
		Category: f.EquipmentCategoryID,
		Calendar: a.opts.Resolver.Name(),
		Theme:    theme.Active.Name,
	}
}

func newSettingsForm(v *settingsValues, allowCustom bool) *huh.Form {
	modeOpts := make([]huh.Option[string], 0, len(model.Modes))
	for _, m := range model.Modes {
		if m == model.ModeCustom && !allowCustom {
			continue
		}
		modeOpts = append(modeOpts, huh.NewOption(string(m), string(m)))
	}

	costOpts := make([]huh.Option[string], 0, len(model.CostTypes))
	for _, ct := range model.CostTypes {
		costOpts = append(costOpts, huh.NewOption(string(ct), string(ct)))
	}

	calendarOpts := make([]huh.Option[string], 0, len(fiscal.Calendars))
	for _, c := range fiscal.Calendars {
		calendarOpts = append(calendarOpts, huh.NewOption(calendarLabel(c), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Comparison mode").Options(modeOpts...).Value(&v.Mode),
			huh.NewSelect[string]().Title("Cost type").Options(costOpts...).Value(&v.CostType),
			huh.NewInput().Title("Garage").Placeholder(model.FilterAll).Value(&v.Garage),
			huh.NewInput().Title("Workshop").Placeholder(model.FilterAll).Value(&v.Workshop),
			huh.NewInput().Title("Equipment category").Placeholder(model.FilterAll).Value(&v.Category),
			huh.NewSelect[string]().Title("Fiscal calendar").Options(calendarOpts...).Value(&v.Calendar),
			huh.NewSelect[string]().Title("Theme").Options(huh.NewOptions(theme.Names()...)...).Value(&v.Theme),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.saved = false
	a.settings.saveErr = nil
	vals := a.currentSettings()
	a.settings.vals = &vals
	a.settings.form = newSettingsForm(a.settings.vals, a.opts.Request.Custom != nil)
	if a.width > 0 {
		a.settings.form = a.settings.form.WithWidth(components.CardInnerWidth(a.contentWidth()))
	}
	return a, a.settings.form.Init()
}

func (a App) updateSettingsForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.settings.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.settings.form = f
	}

	switch a.settings.form.State {
	case huh.StateCompleted:
		a.settings.form = nil
		changed, err := a.settingsApply()
		a.settings.saveErr = err
		a.settings.saved = err == nil
		if changed && !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts)
		}
		return a, nil
	case huh.StateAborted:
		a.settings.form = nil
		return a, nil
	}
	return a, cmd
}

// settingsApply updates the live request and resolver from the form values
// and persists them. It reports whether the data needs reloading.
func (a *App) settingsApply() (bool, error) {
	v := *a.settings.vals

	mode, err := model.ParseMode(v.Mode)
	if err != nil {
		return false, err
	}
	ct, err := model.ParseCostType(v.CostType)
	if err != nil {
		return false, err
	}
	filters := model.Filters{
		GarageID:            strings.TrimSpace(v.Garage),
		WorkshopID:          strings.TrimSpace(v.Workshop),
		EquipmentCategoryID: strings.TrimSpace(v.Category),
		CostType:            ct,
	}

	cfg := a.opts.Config
	cfg.General.Calendar = v.Calendar
	cfg.Filters.Garage = filters.GarageID
	cfg.Filters.Workshop = filters.WorkshopID
	cfg.Filters.Category = filters.EquipmentCategoryID
	cfg.Filters.CostType = string(ct)
	cfg.Appearance.Theme = v.Theme
	if mode != model.ModeCustom {
		cfg.General.DefaultMode = string(mode)
	}

	changed := mode != a.opts.Request.Mode ||
		filters != a.opts.Request.Filters ||
		v.Calendar != a.opts.Resolver.Name()

	if v.Calendar != a.opts.Resolver.Name() {
		if err := a.applyResolver(cfg); err != nil {
			return false, err
		}
	}
	a.opts.Request.Mode = mode
	a.opts.Request.Filters = filters
	a.opts.Config = cfg
	theme.SetActive(v.Theme)

	return changed, config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	if a.settings.form != nil {
		return components.ContentCard("Settings", a.settings.form.View(), cw)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)

	v := a.currentSettings()
	orAll := func(s string) string {
		if !model.Active(s) {
			return model.FilterAll
		}
		return s
	}

	fields := []struct{ label, value string }{
		{"Comparison mode", v.Mode},
		{"Cost type", v.CostType},
		{"Garage", orAll(v.Garage)},
		{"Workshop", orAll(v.Workshop)},
		{"Equipment category", orAll(v.Category)},
		{"Fiscal calendar", calendarLabel(v.Calendar)},
		{"Theme", v.Theme},
	}

	var form strings.Builder
	for _, f := range fields {
		form.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
		form.WriteString(valueStyle.Render(f.value))
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
		form.WriteString("\n")
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(okStyle.Render("Saved!"))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(hintStyle.Render("[Enter] edit  [Esc] cancel while editing"))

	source := a.opts.Config.Source.Kind
	if source == "" {
		source = config.SourceStore
	}

	var info strings.Builder
	info.WriteString(labelStyle.Render("Record source:  ") + valueStyle.Render(source) + "\n")
	info.WriteString(labelStyle.Render("Currency:       ") + valueStyle.Render(a.currency()) + "\n")
	info.WriteString(labelStyle.Render("Load time:      ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	info.WriteString(labelStyle.Render("Config file:    ") + valueStyle.Render(config.ConfigPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
