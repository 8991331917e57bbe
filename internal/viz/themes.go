package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the cradle drawing and the settings panel.
type Theme struct {
	Name   string
	Balls  lipgloss.Color
	Frame  lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
	Impact lipgloss.Color
}

var (
	ThemeSteel = Theme{
		Name:   "steel",
		Balls:  lipgloss.Color("#c0c8d0"),
		Frame:  lipgloss.Color("#5a6470"),
		Accent: lipgloss.Color("#00ccff"),
		Muted:  lipgloss.Color("#666688"),
		Impact: lipgloss.Color("#ffffff"),
	}

	ThemeBrass = Theme{
		Name:   "brass",
		Balls:  lipgloss.Color("#d4a84b"),
		Frame:  lipgloss.Color("#6b4f2a"),
		Accent: lipgloss.Color("#ffcc66"),
		Muted:  lipgloss.Color("#8b6b4c"),
		Impact: lipgloss.Color("#fff2cc"),
	}

	ThemeRetro = Theme{
		Name:   "retro",
		Balls:  lipgloss.Color("#00ff00"),
		Frame:  lipgloss.Color("#00aa00"),
		Accent: lipgloss.Color("#88ff88"),
		Muted:  lipgloss.Color("#005500"),
		Impact: lipgloss.Color("#ccffcc"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Balls:  lipgloss.Color("#ffffff"),
		Frame:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Muted:  lipgloss.Color("#666666"),
		Impact: lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{ThemeSteel, ThemeBrass, ThemeRetro, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to steel.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSteel
}

// NextTheme returns the theme after current in Themes, wrapping around.
func NextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
