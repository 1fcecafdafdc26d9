package followup

// Theme is the monthly conversation focus attached to follow-ups.
type Theme struct {
	Name      string   `yaml:"name"`
	Questions []string `yaml:"questions"`
}

// DefaultTheme is used for periods without a configured theme.
var DefaultTheme = Theme{
	Name:      "General Check-in",
	Questions: []string{"How are you doing?", "Any prayer requests?"},
}

// ThemeFor returns the theme configured for period, or DefaultTheme.
func ThemeFor(themes map[string]Theme, period string) Theme {
	if t, ok := themes[period]; ok && t.Name != "" {
		return t
	}
	return DefaultTheme
}
