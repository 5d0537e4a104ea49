package ui

import (
	"context"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/folio/internal/animation"
	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/prefs"
)

// frame is the chrome shared by the storefront and the admin console: size,
// theme, key map, status line notification, help overlay and the open modal.
type frame struct {
	ctx       context.Context
	keys      keyMap
	theme     Theme
	prefs     prefs.Prefs
	prefsPath string

	width  int
	height int
	ready  bool

	flash      string
	flashError bool
	flashUntil time.Time

	showHelp bool
	modal    Modal
}

func newFrame(ctx context.Context, p prefs.Prefs, prefsPath string) frame {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.Theme == "" {
		p.Theme = prefs.Defaults().Theme
	}
	return frame{
		ctx:       ctx,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(p.Theme),
		prefs:     p,
		prefsPath: prefsPath,
	}
}

// notify shows an informational message on the status line.
func (f *frame) notify(msg string) {
	f.flash = msg
	f.flashError = false
	f.flashUntil = time.Now().Add(FlashTTL)
}

// fail shows err on the status line and logs it.
func (f *frame) fail(action string, err error) {
	if err == nil || api.IsCanceled(err) {
		return
	}
	log.Printf("ui: %s: %v", action, err)
	f.flash = api.UserMessage(err)
	f.flashError = true
	f.flashUntil = time.Now().Add(FlashTTL)
}

// expireFlash clears a notification whose time is up.
func (f *frame) expireFlash(now time.Time) {
	if f.flash != "" && now.After(f.flashUntil) {
		f.flash = ""
		f.flashError = false
	}
}

func (f *frame) cycleTheme() {
	f.theme = GetTheme(NextTheme(f.theme.Name))
	f.prefs.Theme = f.theme.Name
	f.savePrefs()
}

func (f *frame) savePrefs() {
	if f.prefsPath == "" {
		return
	}
	if err := prefs.Save(f.prefsPath, f.prefs); err != nil {
		log.Printf("ui: save prefs: %v", err)
	}
}

func (f *frame) resize(msg tea.WindowSizeMsg) {
	f.width = msg.Width
	f.height = msg.Height
	f.ready = true
}

// contentHeight is the height left for the main panes.
func (f frame) contentHeight() int {
	return max(4, f.height-chromeRows)
}

// requestCtx bounds a command's network call.
func (f frame) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(f.ctx, RequestTimeout)
}

// renderStatusLine renders the notification row at the bottom.
func (f frame) renderStatusLine(hint string) string {
	styles := f.theme.Styles().WithBackground(f.theme.Surface)
	bg := NewBgStyle(f.theme.Surface)
	var content string
	switch {
	case f.flash != "" && f.flashError:
		content = bg.Render("!", styles.DangerText) + bg.Space() + bg.Render(truncate(f.flash, f.width-4), styles.DangerText)
	case f.flash != "":
		content = bg.Render(truncate(f.flash, f.width-2), styles.SuccessText)
	default:
		content = bg.Render(truncate(hint, f.width-2), styles.FaintText)
	}
	return styles.Footer.Width(f.width).Render(content)
}

// renderCommands renders a command hint bar.
func (f frame) renderCommands(commands []command) string {
	styles := f.theme.Styles().WithBackground(f.theme.Surface)
	bg := NewBgStyle(f.theme.Surface)
	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(f.theme.Name, styles.FaintText))

	return styles.Header.Width(f.width).Render(ansi.Truncate(strings.Join(segments, sep), max(0, f.width-2), ""))
}

type command struct{ key, desc string }

// renderTitledBox draws content in a box with the title set into the top
// border. The box is exactly width x height cells.
func (f frame) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := f.theme.Border, f.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = f.theme.BorderFocus, f.theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(f.theme.Text))

	innerWidth := max(0, width-2)
	title = truncate(title, max(0, innerWidth-4))
	titleLen := ansi.StringWidth(title)
	leftPad := max(0, (innerWidth-titleLen-2)/2)
	rightPad := max(0, innerWidth-titleLen-2-leftPad)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	lines := strings.Split(content, "\n")
	boxHeight := max(0, height-2)
	rows := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], innerWidth, "")
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// renderRows renders list rows with the selected one highlighted, scrolled so
// the selection stays visible within height rows.
func (f frame) renderRows(rows []string, selected, width, height int, focused bool) string {
	bgColor := ternary(focused, f.theme.FocusBg, f.theme.SurfaceAlt)
	start := 0
	if height > 0 && selected >= height {
		start = selected - height + 1
	}
	end := len(rows)
	if height > 0 {
		end = min(len(rows), start+height)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		style := lipgloss.NewStyle().Background(lipgloss.Color(bgColor)).Foreground(lipgloss.Color(f.theme.Text)).Width(width)
		if i == selected {
			style = lipgloss.NewStyle().
				Background(lipgloss.Color(f.theme.SelectionBg)).
				Foreground(lipgloss.Color(f.theme.SelectionText)).
				Width(width)
		}
		lines = append(lines, style.Render(fit(rows[i], width)))
	}
	return strings.Join(lines, "\n")
}

// listBox draws rows in a titled box under an optional column header, or
// msg when there are no rows.
func (f frame) listBox(title, header string, rows []string, selected int, msg string, width, height int) string {
	inner := max(0, width-2)
	styles := f.theme.Styles().WithBackground(f.theme.FocusBg)
	var lines []string
	if header != "" {
		lines = append(lines, styles.FaintText.Bold(true).Render(fit(header, inner)))
	}
	if len(rows) == 0 {
		lines = append(lines, styles.MutedText.Render(msg))
	} else {
		lines = append(lines, f.renderRows(rows, selected, inner, max(1, height-2-len(lines)), true))
	}
	return f.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

// renderEmpty centres a muted message in the content area.
func (f frame) renderEmpty(msg string, width, height int) string {
	styles := f.theme.Styles()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
}

// overlay draws the modal or help on top of the main view.
func (f frame) overlay(main string, help []helpSection) string {
	if f.showHelp {
		return f.renderHelp(help)
	}
	if f.modal != nil {
		return f.modal.View(f.theme, f.width, f.height)
	}
	return main
}

// overlayGlyph writes glyph at p on top of a rendered screen.
func overlayGlyph(screen string, p animation.Point, glyph string) string {
	lines := strings.Split(screen, "\n")
	if p.Y < 0 || p.Y >= len(lines) || p.X < 0 {
		return screen
	}
	line := lines[p.Y]
	if ansi.StringWidth(line) <= p.X {
		return screen
	}
	lines[p.Y] = ansi.Truncate(line, p.X, "") + glyph + ansi.TruncateLeft(line, p.X+ansi.StringWidth(glyph), "")
	return strings.Join(lines, "\n")
}
