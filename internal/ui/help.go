package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// sectionFromBindings builds a help section from key bindings.
func sectionFromBindings(title string, bindings ...key.Binding) helpSection {
	items := make([]helpItem, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, helpItem{h.Key, h.Desc})
	}
	return helpSection{title: title, items: items}
}

// shopHelp lists the storefront shortcuts.
func shopHelp(k keyMap) []helpSection {
	return []helpSection{
		sectionFromBindings("Navigation", k.Tab, k.ShiftTab, k.Up, k.Down, k.Top, k.Bottom),
		sectionFromBindings("Lists", k.PrevPage, k.NextPage, k.PageSize, k.Refresh, k.Search, k.Category, k.FavoriteFilter),
		sectionFromBindings("Shopping", k.AddToCart, k.Favorite, k.Increase, k.Decrease, k.Remove, k.ClearCart, k.Checkout, k.Pay),
		sectionFromBindings("Account", k.Login, k.Register, k.Profile, k.Logout),
		sectionFromBindings("General", k.CycleTheme, k.Help, k.Quit),
	}
}

// adminHelp lists the admin console shortcuts.
func adminHelp(k keyMap) []helpSection {
	return []helpSection{
		sectionFromBindings("Navigation", k.Tab, k.ShiftTab, k.Up, k.Down, k.Top, k.Bottom),
		sectionFromBindings("Lists", k.PrevPage, k.NextPage, k.PageSize, k.Refresh, k.Filters),
		sectionFromBindings("Records", k.New, k.Edit, k.Delete, k.Toggle),
		sectionFromBindings("General", k.Logout, k.CycleTheme, k.Help, k.Quit),
	}
}

// renderHelp renders the help overlay.
func (f frame) renderHelp(sections []helpSection) string {
	styles := f.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(f.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(f.theme, f.width, f.height, b.String(), 44)
}
