package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/forms"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// formKind says what a submitted form does.
type formKind int

const (
	formLogin formKind = iota
	formRegister
	formProfile
	formSearch
	formAdminLogin
	formBook
	formCategory
	formUser
	formBookFilter
	formUserFilter
)

type formField struct {
	key    string
	label  string
	toggle bool
	input  textinput.Model
}

// formModal is a column of labelled text inputs. Toggle fields hold "yes" or
// "no" and flip with space.
type formModal struct {
	kind   formKind
	title  string
	fields []formField
	focus  int

	// id is the record being edited, zero when creating.
	id int64

	captchaID string
	art       []string

	errs      forms.Errors
	note      string
	busy      bool
	submitted bool
	cancelled bool
}

func newFormModal(kind formKind, title string) *formModal {
	return &formModal{kind: kind, title: title}
}

// addField appends a text input. Fields named like passwords are masked.
func (f *formModal) addField(key, label, value string) *formModal {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = 32
	ti.SetValue(value)
	if strings.Contains(key, "password") {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	if key == "captcha" {
		ti.CharLimit = forms.CaptchaLen
	}
	f.fields = append(f.fields, formField{key: key, label: label, input: ti})
	if len(f.fields) == 1 {
		f.fields[0].input.Focus()
	}
	return f
}

// addToggle appends a yes/no field.
func (f *formModal) addToggle(key, label string, on bool) *formModal {
	f.addField(key, label, ternary(on, "yes", "no"))
	f.fields[len(f.fields)-1].toggle = true
	return f
}

// value returns the trimmed text of a field.
func (f *formModal) value(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			if fld.key == "password" || strings.HasSuffix(fld.key, "_password") {
				return fld.input.Value()
			}
			return strings.TrimSpace(fld.input.Value())
		}
	}
	return ""
}

// flag returns a toggle field's state.
func (f *formModal) flag(key string) bool {
	return f.value(key) == "yes"
}

// setValue replaces a field's text.
func (f *formModal) setValue(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
		}
	}
}

// setCaptcha installs a fresh challenge and clears the old answer.
func (f *formModal) setCaptcha(id string, art []string) {
	f.captchaID = id
	f.art = art
	f.setValue("captcha", "")
}

// fail reopens the form with validation or server errors.
func (f *formModal) fail(errs forms.Errors, note string) {
	f.errs = errs
	f.note = note
	f.busy = false
	f.submitted = false
}

func (f *formModal) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

// Update implements Modal.
func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}
	if f.busy {
		if key.Matches(keyMsg, keys.Escape) {
			f.cancelled = true
			return f, nil, true
		}
		return f, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		f.cancelled = true
		return f, nil, true
	case key.Matches(keyMsg, keys.Submit):
		f.submitted = true
		return f, nil, true
	case keyMsg.Type == tea.KeyEnter:
		if f.focus == len(f.fields)-1 {
			f.submitted = true
			return f, nil, true
		}
		f.setFocus(f.focus + 1)
		return f, nil, false
	case keyMsg.Type == tea.KeyTab, keyMsg.Type == tea.KeyDown:
		f.setFocus(f.focus + 1)
		return f, nil, false
	case keyMsg.Type == tea.KeyShiftTab, keyMsg.Type == tea.KeyUp:
		f.setFocus(f.focus - 1)
		return f, nil, false
	}

	if len(f.fields) == 0 {
		return f, nil, false
	}
	fld := &f.fields[f.focus]
	if fld.toggle {
		if keyMsg.Type == tea.KeySpace || keyMsg.String() == "y" || keyMsg.String() == "n" {
			next := ternary(fld.input.Value() == "yes", "no", "yes")
			if s := keyMsg.String(); s == "y" || s == "n" {
				next = ternary(s == "y", "yes", "no")
			}
			fld.input.SetValue(next)
		}
		return f, nil, false
	}
	var cmd tea.Cmd
	fld.input, cmd = fld.input.Update(msg)
	return f, cmd, false
}

// View implements Modal.
func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	labelW := 0
	for _, fld := range f.fields {
		labelW = max(labelW, len(fld.label))
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	if len(f.art) > 0 {
		for _, line := range f.art {
			b.WriteString(styles.AccentText.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for i, fld := range f.fields {
		label := styles.MutedText.Render(padRight(fld.label, labelW+2))
		if i == f.focus {
			label = styles.AccentText.Bold(true).Render(padRight(fld.label, labelW+2))
		}
		b.WriteString(label)
		if fld.toggle {
			b.WriteString(styles.Text.Render("[" + fld.input.Value() + "]"))
			if i == f.focus {
				b.WriteString(styles.FaintText.Render("  space to flip"))
			}
		} else {
			b.WriteString(fld.input.View())
		}
		b.WriteString("\n")
		if msg, ok := f.errs[fld.key]; ok {
			b.WriteString(strings.Repeat(" ", labelW+2))
			b.WriteString(styles.DangerText.Render(msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case f.busy:
		b.WriteString(styles.WarningText.Render("Working..."))
	case f.note != "":
		b.WriteString(styles.DangerText.Render(f.note))
	default:
		b.WriteString(styles.FaintText.Render("enter next · ctrl+s submit · esc cancel"))
	}

	return placeModal(theme, width, height, b.String(), max(48, labelW+40))
}

// confirmModal asks a yes/no question.
type confirmModal struct {
	prompt    string
	confirmed bool
	onYes     func() tea.Cmd
}

func newConfirmModal(prompt string, onYes func() tea.Cmd) *confirmModal {
	return &confirmModal{prompt: prompt, onYes: onYes}
}

// Update implements Modal.
func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Yes):
		c.confirmed = true
		var cmd tea.Cmd
		if c.onYes != nil {
			cmd = c.onYes()
		}
		return c, cmd, true
	case key.Matches(keyMsg, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	content := styles.Text.Bold(true).Render(c.prompt) + "\n\n" +
		styles.AccentText.Render("y") + styles.MutedText.Render(" confirm   ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(" cancel")
	return placeModal(theme, width, height, content, max(40, lipgloss.Width(c.prompt)+8))
}

// placeModal centres content in a bordered box.
func placeModal(theme Theme, width, height int, content string, boxWidth int) string {
	if width > 0 {
		boxWidth = min(boxWidth, width-2)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(boxWidth).
		Render(content)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
