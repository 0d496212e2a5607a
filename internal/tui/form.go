package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formField describes one input of a form.
type formField struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

// form is a vertical stack of text inputs with one focused at a time.
// Per-field errors are rendered under their input.
type form struct {
	labels []string
	inputs []textinput.Model
	errs   []string
	focus  int
}

func newForm(fields ...formField) form {
	f := form{
		labels: make([]string, len(fields)),
		inputs: make([]textinput.Model, len(fields)),
		errs:   make([]string, len(fields)),
	}
	for i, fd := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fd.placeholder
		ti.CharLimit = maxInputLen
		if fd.limit > 0 {
			ti.CharLimit = fd.limit
		}
		if fd.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.labels[i] = fd.label
		f.inputs[i] = ti
	}
	return f
}

// Focus focuses the current field.
func (f form) Focus() (form, tea.Cmd) {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if len(f.inputs) == 0 {
		return f, nil
	}
	cmd := f.inputs[f.focus].Focus()
	return f, tea.Batch(cmd, textinput.Blink)
}

// Blur removes focus from every field.
func (f form) Blur() form {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f
}

// Update moves focus on tab/shift+tab and forwards everything else to the
// focused input.
func (f form) Update(msg tea.Msg) (form, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.NextField):
			f.focus = (f.focus + 1) % len(f.inputs)
			return f.Focus()
		case key.Matches(km, keys.PrevField):
			f.focus = (f.focus - 1 + len(f.inputs)) % len(f.inputs)
			return f.Focus()
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// Value returns the trimmed text of field i.
func (f form) Value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// SetValue replaces the text of field i.
func (f *form) SetValue(i int, v string) {
	f.inputs[i].SetValue(v)
}

// SetError sets the message shown under field i. Empty clears it.
func (f *form) SetError(i int, msg string) {
	f.errs[i] = msg
}

// ClearErrors removes every field error.
func (f *form) ClearErrors() {
	for i := range f.errs {
		f.errs[i] = ""
	}
}

// Reset empties every field and moves focus to the first one.
func (f *form) Reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.ClearErrors()
	f.focus = 0
}

// OnLast reports whether the last field has focus.
func (f form) OnLast() bool {
	return f.focus == len(f.inputs)-1
}

func (f form) View() string {
	var b strings.Builder
	for i, ti := range f.inputs {
		cursor := "  "
		style := labelStyle
		if i == f.focus && ti.Focused() {
			cursor = accentStyle.Render("▸") + " "
			style = labelStyle.Foreground(selectedStyle.GetForeground())
		}
		fmt.Fprintf(&b, " %s%s %s\n", cursor, style.Render(f.labels[i]), ti.View())
		if f.errs[i] != "" {
			fmt.Fprintf(&b, "   %s %s\n", labelStyle.Render(""), errorStyle.Render(f.errs[i]))
		}
	}
	return b.String()
}
