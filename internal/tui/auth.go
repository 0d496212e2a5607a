package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkingmate/parkmate/pkg/client"
)

const (
	loginEmail = iota
	loginPassword
)

const (
	signupEmail = iota
	signupPassword
	signupName
)

type loginResultMsg struct {
	token string
	err   error
}

type signupResultMsg struct {
	email   string
	message string
	err     error
}

// signedUpMsg tells the root model an account was created.
type signedUpMsg struct {
	email   string
	message string
}

type loginModel struct {
	api        Backend
	form       form
	submitting bool
	err        string
}

func newLoginModel(api Backend) loginModel {
	return loginModel{
		api: api,
		form: newForm(
			formField{label: "email", placeholder: "you@example.com"},
			formField{label: "password", secret: true},
		),
	}
}

func (m loginModel) Focus() (loginModel, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Focus()
	return m, cmd
}

// Reset clears the form, including the typed password.
func (m loginModel) Reset() loginModel {
	m.form.Reset()
	m.submitting = false
	m.err = ""
	return m
}

// Prefill sets the email field and moves focus to the password.
func (m loginModel) Prefill(email string) loginModel {
	m = m.Reset()
	m.form.SetValue(loginEmail, email)
	if email != "" {
		m.form.focus = loginPassword
	}
	return m
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			// A rejected login leaves any existing session untouched.
			m.err = client.Describe(msg.err)
			m.form.SetValue(loginPassword, "")
			return m, nil
		}
		token := msg.token
		return m, func() tea.Msg { return authenticatedMsg{token: token} }

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Submit):
			return m.submit()
		case msg.String() == "enter":
			if m.form.OnLast() {
				return m.submit()
			}
			msg = tea.KeyMsg{Type: tea.KeyTab}
		}
		m.err = ""
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.form.ClearErrors()
	email := m.form.Value(loginEmail)
	password := m.form.inputs[loginPassword].Value()
	ok := true
	if email == "" {
		m.form.SetError(loginEmail, "required")
		ok = false
	}
	if password == "" {
		m.form.SetError(loginPassword, "required")
		ok = false
	}
	if !ok {
		return m, nil
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		token, err := api.Login(context.Background(), email, password)
		return loginResultMsg{token: token, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n  " + sectionStyle.Render("Log in") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("   " + dimStyle.Render("logging in..."))
	case m.err != "":
		b.WriteString("   " + errorStyle.Render(m.err))
	default:
		b.WriteString("   " + metaStyle.Render("no account? esc, then u to sign up"))
	}
	return b.String()
}

type signupModel struct {
	api        Backend
	form       form
	submitting bool
	err        string
}

func newSignupModel(api Backend) signupModel {
	return signupModel{
		api: api,
		form: newForm(
			formField{label: "email", placeholder: "you@example.com"},
			formField{label: "password", secret: true},
			formField{label: "name", placeholder: "shown to space owners"},
		),
	}
}

func (m signupModel) Focus() (signupModel, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Focus()
	return m, cmd
}

func (m signupModel) Reset() signupModel {
	m.form.Reset()
	m.submitting = false
	m.err = ""
	return m
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signupResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.Describe(msg.err)
			return m, nil
		}
		done := signedUpMsg{email: msg.email, message: msg.message}
		if done.message == "" {
			done.message = "account created, please log in"
		}
		return m, func() tea.Msg { return done }

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Submit):
			return m.submit()
		case msg.String() == "enter":
			if m.form.OnLast() {
				return m.submit()
			}
			msg = tea.KeyMsg{Type: tea.KeyTab}
		}
		m.err = ""
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m signupModel) submit() (signupModel, tea.Cmd) {
	m.form.ClearErrors()
	req := client.SignupRequest{
		Email:    m.form.Value(signupEmail),
		Password: m.form.inputs[signupPassword].Value(),
		Name:     m.form.Value(signupName),
	}
	ok := true
	if req.Email == "" {
		m.form.SetError(signupEmail, "required")
		ok = false
	} else if !strings.Contains(req.Email, "@") {
		m.form.SetError(signupEmail, "not an email address")
		ok = false
	}
	if req.Password == "" {
		m.form.SetError(signupPassword, "required")
		ok = false
	}
	if req.Name == "" {
		m.form.SetError(signupName, "required")
		ok = false
	}
	if !ok {
		return m, nil
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		msg, err := api.Signup(context.Background(), req)
		return signupResultMsg{email: req.Email, message: msg, err: err}
	}
}

func (m signupModel) View() string {
	var b strings.Builder
	b.WriteString("\n  " + sectionStyle.Render("Sign up") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("   " + dimStyle.Render("creating account..."))
	case m.err != "":
		b.WriteString("   " + errorStyle.Render(m.err))
	}
	return b.String()
}
