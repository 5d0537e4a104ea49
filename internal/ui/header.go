package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// renderHeader renders the storefront status bar: logo, view tabs, account
// and the cart badge on the right.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	names := make([]string, len(shopViews))
	current := 0
	for i, v := range shopViews {
		names[i] = v.String()
		if v == m.currentView {
			current = i
		}
	}

	parts := []string{
		bg.Render("folio", styles.Logo),
		m.renderTabs(bg, styles, names, current),
	}

	switch {
	case m.snapshot.IsOffline():
		last := "never"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format("15:04:05")
		}
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText)+bg.Space()+bg.Render(last, styles.MutedText))
	case !m.snapshot.HasFeed && m.store != nil:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText))
	}

	if m.authed {
		parts = append(parts, bg.Render("●", styles.SuccessText)+bg.Space()+bg.Render(m.user.Username, styles.Text))
	} else {
		parts = append(parts, bg.Render("○", styles.FaintText)+bg.Space()+bg.Render("guest", styles.MutedText))
	}

	var right []string
	if m.authed && m.favs != nil {
		right = append(right, bg.Render("♥", styles.DangerText)+bg.Space()+bg.Render(fmt.Sprintf("%d", m.favs.Count()), styles.Text))
	}
	badge := fmt.Sprintf("cart %d · %s", m.cartState.TotalItems(), formatPrice(m.cartState.TotalPrice()))
	badgeStyle := styles.MutedText
	if len(m.cartState.Items) > 0 {
		badgeStyle = styles.Price
	}
	right = append(right, bg.Render(padRight(truncate(badge, cartBadgeWidth-1), cartBadgeWidth), badgeStyle))

	return m.headerLine(bg, strings.Join(parts, sep), strings.Join(right, sep))
}

// renderTabs renders view names with the current one highlighted.
func (f frame) renderTabs(bg BgStyle, styles Styles, names []string, current int) string {
	tabs := make([]string, len(names))
	for i, name := range names {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == current {
			tabs[i] = bg.Render(label, styles.AccentText.Bold(true).Underline(true))
			continue
		}
		tabs[i] = bg.Render(label, styles.MutedText)
	}
	return strings.Join(tabs, bg.Spaces(2))
}

// headerLine lays left and right out across the full width. The right part
// keeps its position; the left part is cut when space runs out.
func (f frame) headerLine(bg BgStyle, left, right string) string {
	rightW := ansi.StringWidth(right)
	leftW := max(0, f.width-rightW-1)
	left = ansi.Truncate(bg.Space()+left, leftW, "")
	gap := max(0, f.width-ansi.StringWidth(left)-rightW)
	return bg.FillLine(left+bg.Spaces(gap)+right, f.width)
}
