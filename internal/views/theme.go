package views

import "fmt"

// Theme selects the page styling. Both themes render identical content.
type Theme string

const (
	ThemeDark     Theme = "dark"
	ThemeGradient Theme = "gradient"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeGradient:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// ThemeFor returns the requested theme when it is valid and fallback otherwise.
func ThemeFor(requested string, fallback Theme) Theme {
	if t, err := ParseTheme(requested); err == nil {
		return t
	}
	return fallback
}

func themeClass(t Theme) string {
	if t == ThemeGradient {
		return "theme-gradient"
	}
	return "theme-dark"
}
