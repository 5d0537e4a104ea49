package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Badge colors come from StatusColors, keyed by
// order status ("pending", "paid", "cancelled"), shelf status ("on_shelf",
// "off_shelf") and role ("admin", "customer").
type Theme struct {
	Name string

	Background string
	Surface    string
	SurfaceAlt string
	FocusBg    string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	StatusColors map[string]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Price    lipgloss.Style // sale price
	Strike   lipgloss.Style // list price next to a discounted one
	Selected lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	panel := func(bg, text string) lipgloss.Style {
		return fg(text).Background(lipgloss.Color(bg))
	}
	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    panel(t.Surface, t.Text),
		SurfaceAlt: panel(t.SurfaceAlt, t.Text),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   panel(t.Surface, t.Text).Padding(0, 1),
		Footer:   panel(t.Surface, t.Muted).Padding(0, 1),
		Logo:     fg(t.Warning).Bold(true),
		Price:    fg(t.Success).Bold(true),
		Strike:   fg(t.Faint).Strikethrough(true),
		Selected: panel(t.SelectionBg, t.SelectionText),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns a badge style for an order status, shelf status or
// role. Unknown values use the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles where every style paints bgColor,
// so text placed on a panel never shows the terminal background through.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Background, &out.Surface, &out.SurfaceAlt,
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Footer, &out.Logo, &out.Price, &out.Strike, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}

// palette lists a theme's colors in the order the storefront uses them.
// The magenta slot only colors the admin role badge.
type palette struct {
	bg, surface, surfaceAlt, focus string
	selBg, selText                 string
	border, borderFocus            string
	text, muted, faint             string
	accent, green, yellow, red     string
	cyan, magenta                  string
}

func (p palette) theme(name string) Theme {
	return Theme{
		Name:          name,
		Background:    p.bg,
		Surface:       p.surface,
		SurfaceAlt:    p.surfaceAlt,
		FocusBg:       p.focus,
		SelectionBg:   p.selBg,
		SelectionText: p.selText,
		Border:        p.border,
		BorderFocus:   p.borderFocus,
		Text:          p.text,
		Muted:         p.muted,
		Faint:         p.faint,
		Accent:        p.accent,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		StatusColors: map[string]string{
			"pending":   p.yellow,
			"paid":      p.green,
			"cancelled": p.faint,
			"on_shelf":  p.cyan,
			"off_shelf": p.red,
			"admin":     p.magenta,
			"customer":  p.accent,
		},
	}
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": palette{
		bg: "#131a24", surface: "#192330", surfaceAlt: "#212e3f", focus: "#29394f",
		selBg: "#2b3b51", selText: "#cdcecf",
		border: "#39506d", borderFocus: "#719cd6",
		text: "#cdcecf", muted: "#738091", faint: "#71839b",
		accent: "#719cd6", green: "#81b29a", yellow: "#dbc074", red: "#c94f6d",
		cyan: "#63cdcf", magenta: "#9d79d6",
	}.theme("Nightfox"),
	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": palette{
		bg: "#16161D", surface: "#1F1F28", surfaceAlt: "#2A2A37", focus: "#2A2A37",
		selBg: "#2D4F67", selText: "#DCD7BA",
		border: "#54546D", borderFocus: "#7E9CD8",
		text: "#DCD7BA", muted: "#C8C093", faint: "#727169",
		accent: "#7E9CD8", green: "#98BB6C", yellow: "#E6C384", red: "#E46876",
		cyan: "#7FB4CA", magenta: "#957FB8",
	}.theme("Kanagawa"),
	// Tailwind slate/sky
	"Slate": palette{
		bg: "#020617", surface: "#0f172a", surfaceAlt: "#1e293b", focus: "#283548",
		selBg: "#0284c7", selText: "#f8fafc",
		border: "#334155", borderFocus: "#38bdf8",
		text: "#f1f5f9", muted: "#94a3b8", faint: "#64748b",
		accent: "#38bdf8", green: "#22c55e", yellow: "#f59e0b", red: "#ef4444",
		cyan: "#06b6d4", magenta: "#a855f7",
	}.theme("Slate"),
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}
