package tui

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

const (
	publishAddress = iota
	publishPrice
	publishDescription
	publishLocation
)

type spaceCreatedMsg struct {
	address string
	message string
	err     error
}

// publishModel is the form for listing a new parking space.
type publishModel struct {
	api        Backend
	logger     *slog.Logger
	form       form
	submitting bool
	err        string
}

func newPublishModel(api Backend, logger *slog.Logger) publishModel {
	return publishModel{
		api:    api,
		logger: logger,
		form: newForm(
			formField{label: "address", placeholder: "street address"},
			formField{label: "price/hour", placeholder: "3000", limit: 9},
			formField{label: "details", placeholder: "covered, EV charger, height limit..."},
			formField{label: "location", placeholder: "37.5665,126.9780 (optional)", limit: 40},
		),
	}
}

func (m publishModel) Focus() (publishModel, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Focus()
	return m, cmd
}

func (m publishModel) Update(msg tea.Msg) (publishModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spaceCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.Describe(msg.err)
			m.logger.Warn("space not published", "err", msg.err)
			return m, nil
		}
		m.logger.Info("space published", "address", msg.address)
		m.form.Reset()
		flash := msg.message
		if flash == "" {
			flash = "space published"
		}
		return m, navigateTo(viewSpaces, flash)

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

func (m publishModel) submit() (publishModel, tea.Cmd) {
	m.form.ClearErrors()
	address := m.form.Value(publishAddress)
	priceText := strings.ReplaceAll(m.form.Value(publishPrice), ",", "")

	ok := true
	if address == "" {
		m.form.SetError(publishAddress, "required")
		ok = false
	}
	price, err := strconv.ParseInt(priceText, 10, 64)
	switch {
	case priceText == "":
		m.form.SetError(publishPrice, "required")
		ok = false
	case err != nil || price < 0:
		m.form.SetError(publishPrice, "must be a whole number, 0 or more")
		ok = false
	}
	req := client.CreateSpaceRequest{
		Address:      address,
		PricePerHour: price,
		Description:  m.form.Value(publishDescription),
	}
	if where := m.form.Value(publishLocation); where != "" {
		lat, lng, err := domain.ParseCoordinates(where)
		if err != nil {
			m.form.SetError(publishLocation, "use LAT,LNG")
			ok = false
		}
		req.Latitude, req.Longitude = &lat, &lng
	}
	if !ok {
		return m, nil
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		msg, err := api.CreateSpace(context.Background(), req)
		return spaceCreatedMsg{address: req.Address, message: msg, err: err}
	}
}

func (m publishModel) View() string {
	var b strings.Builder
	b.WriteString("\n  " + sectionStyle.Render("Publish a space") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("   " + dimStyle.Render("publishing..."))
	case m.err != "":
		b.WriteString("   " + errorStyle.Render(m.err))
	}
	return b.String()
}
