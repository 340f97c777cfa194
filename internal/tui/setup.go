package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues backs the first-run setup form.
type SetupValues struct {
	Calendar   string
	StartMonth int
	Timezone   string
	Mode       string
	Source     string
	APIURL     string
	Currency   string
	Theme      string
}

// SetupValuesFrom seeds the setup form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Calendar:   cfg.General.Calendar,
		StartMonth: cfg.General.FiscalStartMonth,
		Timezone:   cfg.General.Timezone,
		Mode:       cfg.General.DefaultMode,
		Source:     cfg.Source.Kind,
		APIURL:     cfg.Source.APIURL,
		Currency:   cfg.General.Currency,
		Theme:      cfg.Appearance.Theme,
	}
}

// Apply copies the form values into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.General.Calendar = v.Calendar
	cfg.General.FiscalStartMonth = v.StartMonth
	cfg.General.Timezone = strings.TrimSpace(v.Timezone)
	cfg.General.DefaultMode = v.Mode
	cfg.General.Currency = strings.TrimSpace(v.Currency)
	cfg.Source.Kind = v.Source
	cfg.Source.APIURL = strings.TrimSpace(v.APIURL)
	cfg.Appearance.Theme = v.Theme
}

// NewSetupForm builds the setup wizard. The Gregorian start month and API
// URL groups are only shown when they apply.
func NewSetupForm(v *SetupValues) *huh.Form {
	calendarOpts := make([]huh.Option[string], 0, len(fiscal.Calendars))
	for _, c := range fiscal.Calendars {
		calendarOpts = append(calendarOpts, huh.NewOption(calendarLabel(c), c))
	}

	monthOpts := make([]huh.Option[int], 0, 12)
	for m := time.January; m <= time.December; m++ {
		monthOpts = append(monthOpts, huh.NewOption(m.String(), int(m)))
	}

	modeOpts := make([]huh.Option[string], 0, 3)
	for _, m := range model.Modes {
		if m == model.ModeCustom {
			continue
		}
		modeOpts = append(modeOpts, huh.NewOption(string(m), string(m)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to costcmp").
				Description("Compare maintenance costs between fiscal periods.\nA few questions and you're ready."),
			huh.NewSelect[string]().
				Title("Fiscal calendar").
				Options(calendarOpts...).
				Value(&v.Calendar),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name, e.g. Africa/Addis_Ababa. Empty uses the local zone.").
				Value(&v.Timezone).
				Validate(validateTimezone),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Fiscal year starts in").
				Options(monthOpts...).
				Value(&v.StartMonth),
		).WithHideFunc(func() bool { return v.Calendar != fiscal.CalendarGregorian }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default comparison").
				Options(modeOpts...).
				Value(&v.Mode),
			huh.NewSelect[string]().
				Title("Record source").
				Options(
					huh.NewOption("Local store (import / sync)", config.SourceStore),
					huh.NewOption("Fleet API", config.SourceAPI),
					huh.NewOption("Postgres", config.SourcePostgres),
				).
				Value(&v.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Fleet API base URL").
				Placeholder("https://fleet.example.com/api").
				Value(&v.APIURL),
		).WithHideFunc(func() bool { return v.Source != config.SourceAPI }),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency label").
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

func validateTimezone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func calendarLabel(name string) string {
	switch name {
	case fiscal.CalendarEthiopian:
		return "Ethiopian (Hamle to Sene)"
	case fiscal.CalendarGregorian:
		return "Gregorian"
	}
	return name
}

func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()
	a.setupVals.Apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	a.opts.Config = cfg
	if err := a.applyResolver(cfg); err != nil {
		return err
	}
	return config.Save(cfg)
}
