// Package theme defines color themes for the costcmp dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps dashboard roles to colors.
type Theme struct {
	Name          string
	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceBright lipgloss.Color // active tab
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused overlays
	TextDim       lipgloss.Color // hints, axes
	TextMuted     lipgloss.Color // labels
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color

	// Cost movement between the compared periods.
	Increase lipgloss.Color
	Decrease lipgloss.Color

	Period1 lipgloss.Color
	Period2 lipgloss.Color
	History lipgloss.Color // trend periods older than the compared pair

	Highlight lipgloss.Color // key hints, secondary series
	Warning   lipgloss.Color
	Success   lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default warm dark theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	Increase:      lipgloss.Color("#D14D41"),
	Decrease:      lipgloss.Color("#A3B859"),
	Period1:       lipgloss.Color("#878580"),
	Period2:       lipgloss.Color("#3AA99F"),
	History:       lipgloss.Color("#4385BE"),
	Highlight:     lipgloss.Color("#24837B"),
	Warning:       lipgloss.Color("#DA702C"),
	Success:       lipgloss.Color("#A3B859"),
}

// TokyoNight is a cool blue theme.
var TokyoNight = Theme{
	Name:          "tokyo-night",
	Background:    lipgloss.Color("#1A1B26"),
	Surface:       lipgloss.Color("#24283B"),
	SurfaceBright: lipgloss.Color("#414868"),
	Border:        lipgloss.Color("#565F89"),
	BorderAccent:  lipgloss.Color("#7AA2F7"),
	TextDim:       lipgloss.Color("#565F89"),
	TextMuted:     lipgloss.Color("#A9B1D6"),
	TextPrimary:   lipgloss.Color("#C0CAF5"),
	Accent:        lipgloss.Color("#7AA2F7"),
	AccentBright:  lipgloss.Color("#A9C1FF"),
	Increase:      lipgloss.Color("#F7768E"),
	Decrease:      lipgloss.Color("#9ECE6A"),
	Period1:       lipgloss.Color("#BB9AF7"),
	Period2:       lipgloss.Color("#7DCFFF"),
	History:       lipgloss.Color("#565F89"),
	Highlight:     lipgloss.Color("#7DCFFF"),
	Warning:       lipgloss.Color("#FF9E64"),
	Success:       lipgloss.Color("#9ECE6A"),
}

// Terminal sticks to the 16 ANSI colors.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	Increase:      lipgloss.Color("1"),
	Decrease:      lipgloss.Color("2"),
	Period1:       lipgloss.Color("7"),
	Period2:       lipgloss.Color("14"),
	History:       lipgloss.Color("4"),
	Highlight:     lipgloss.Color("6"),
	Warning:       lipgloss.Color("3"),
	Success:       lipgloss.Color("10"),
}

// All lists the selectable themes in display order.
var All = []Theme{FlexokiDark, TokyoNight, Terminal}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
