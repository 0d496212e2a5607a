package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkingmate/parkmate/internal/browser"
	"github.com/parkingmate/parkmate/internal/planner"
	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

// Booking form fields.
const (
	fieldStart = iota
	fieldEnd
)

// slotWindow is how far ahead availability is shown.
const slotWindow = 24 * time.Hour

type spaceLoadedMsg struct {
	id    int64
	space *domain.ParkingSpace
	err   error
}

type slotsLoadedMsg struct {
	id    int64
	slots []domain.TimeSlot
	err   error
}

type bookingCreatedMsg struct {
	message string
	err     error
}

type copyResultMsg struct {
	what string
	err  error
}

type detailModel struct {
	api     Backend
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
	openURL func(string) error

	id      int64
	space   *domain.ParkingSpace
	slots   []domain.TimeSlot
	loading bool
	err     string

	editing    bool
	form       form
	hours      int64
	estimate   int64
	submitting bool
	bookErr    string
	status     string

	width  int
	height int
}

func newDetailModel(api Backend, loc *time.Location, logger *slog.Logger) detailModel {
	return detailModel{
		api:     api,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
		openURL: browser.Open,
		form:    newBookingForm(),
	}
}

func newBookingForm() form {
	return newForm(
		formField{label: "start", placeholder: "2006-01-02 15:04", limit: 19},
		formField{label: "end", placeholder: "2006-01-02 15:04", limit: 19},
	)
}

// open resets the page for space id and starts loading it.
func (m detailModel) open(id int64) (detailModel, tea.Cmd) {
	m.id = id
	m.space = nil
	m.slots = nil
	m.loading = true
	m.err = ""
	m.status = ""
	m = m.stopBooking()
	return m, tea.Batch(m.loadSpace(), m.loadSlots())
}

func (m detailModel) loadSpace() tea.Cmd {
	api, id := m.api, m.id
	return func() tea.Msg {
		space, err := api.GetSpace(context.Background(), id)
		return spaceLoadedMsg{id: id, space: space, err: err}
	}
}

func (m detailModel) loadSlots() tea.Cmd {
	api, id := m.api, m.id
	from := m.now().In(m.loc).Truncate(time.Hour).Add(time.Hour)
	to := from.Add(slotWindow)
	return func() tea.Msg {
		slots, err := api.AvailableSlots(context.Background(), id, from, to, 1)
		return slotsLoadedMsg{id: id, slots: slots, err: err}
	}
}

// startBooking shows the booking form and focuses the start field.
func (m detailModel) startBooking() (detailModel, tea.Cmd) {
	if m.space == nil {
		return m, nil
	}
	m.editing = true
	m.bookErr = ""
	m.status = ""
	var cmd tea.Cmd
	m.form, cmd = m.form.Focus()
	return m, cmd
}

// stopBooking hides the form and discards the draft.
func (m detailModel) stopBooking() detailModel {
	m.editing = false
	m.submitting = false
	m.bookErr = ""
	m.hours, m.estimate = 0, 0
	m.form.Reset()
	m.form = m.form.Blur()
	return m
}

func (m detailModel) Update(msg tea.Msg) (detailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spaceLoadedMsg:
		if msg.id != m.id {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if client.IsStatus(msg.err, 404) {
				m.err = "this space no longer exists"
			} else {
				m.err = client.Describe(msg.err)
			}
			return m, nil
		}
		m.space = msg.space
		return m, nil

	case slotsLoadedMsg:
		// Availability is a hint; a failure leaves the list empty.
		if msg.id == m.id && msg.err == nil {
			m.slots = msg.slots
		}
		return m, nil

	case bookingCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			m.bookErr = client.Describe(msg.err)
			m.logger.Warn("booking rejected", "space", m.id, "err", msg.err)
			return m, nil
		}
		m.logger.Info("booking created", "space", m.id, "hours", m.hours)
		flash := msg.message
		if flash == "" {
			flash = "booking confirmed"
		}
		m = m.stopBooking()
		return m, navigateTo(viewMyPage, flash)

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed"
		} else {
			m.status = "copied " + msg.what
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m detailModel) updateKeys(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, keys.Back):
		return m, navigateTo(viewSpaces, "")
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.loadSpace(), m.loadSlots())
	case key.Matches(msg, keys.Copy):
		if m.space != nil {
			address := m.space.Address
			return m, func() tea.Msg {
				return copyResultMsg{what: "address", err: clipboard.WriteAll(address)}
			}
		}
	case key.Matches(msg, keys.Map):
		if m.space != nil {
			if err := m.openURL(m.mapURL()); err != nil {
				m.status = "could not open a browser"
			} else {
				m.status = "opened map"
			}
		}
	}
	return m, nil
}

func (m detailModel) mapURL() string {
	if m.space.HasLocation() {
		return browser.MapURL(*m.space.Latitude, *m.space.Longitude)
	}
	return browser.SearchURL(m.space.Address)
}

func (m detailModel) updateForm(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		return m.stopBooking(), nil
	case key.Matches(msg, keys.Submit):
		return m.submit()
	case msg.String() == "enter":
		if m.form.OnLast() {
			return m.submit()
		}
		return m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	m, _ = m.revalidate(false)
	return m, cmd
}

// revalidate parses the form into a draft, refreshes the estimate and the
// per-field errors, and reports whether the draft may be submitted.
// Missing-field errors are shown only when final is set.
func (m detailModel) revalidate(final bool) (detailModel, *planner.Draft) {
	m.form.ClearErrors()
	m.bookErr = ""

	start, startErr := planner.ParseLocal(m.form.Value(fieldStart), m.loc)
	end, endErr := planner.ParseLocal(m.form.Value(fieldEnd), m.loc)
	if startErr != nil {
		m.form.SetError(fieldStart, "use YYYY-MM-DD HH:MM")
	}
	if endErr != nil {
		m.form.SetError(fieldEnd, "use YYYY-MM-DD HH:MM")
	}

	d := planner.Draft{SpaceID: m.id, StartTime: start, EndTime: end}
	m.hours = planner.BillableHours(d)
	m.estimate = 0
	if m.space != nil {
		m.estimate = planner.EstimateCost(d, m.space.PricePerHour)
	}
	if startErr != nil || endErr != nil {
		return m, nil
	}

	if err := planner.Validate(d, m.now()); err != nil {
		var ve *planner.ValidationError
		if errors.As(err, &ve) && (ve.Kind != planner.MissingField || final) {
			text := ve.Error()
			if ve.Kind == planner.MissingField {
				text = "required"
			}
			if ve.Field == planner.FieldStart {
				m.form.SetError(fieldStart, text)
			} else {
				m.form.SetError(fieldEnd, text)
			}
		}
		return m, nil
	}
	return m, &d
}

// submit re-validates the draft. Only a valid draft reaches the network.
func (m detailModel) submit() (detailModel, tea.Cmd) {
	m, d := m.revalidate(true)
	if d == nil {
		return m, nil
	}
	m.submitting = true
	api := m.api
	req := client.CreateBookingRequest{
		ParkingSpaceID: d.SpaceID,
		StartTime:      domain.LocalTime{Time: d.StartTime},
		EndTime:        domain.LocalTime{Time: d.EndTime},
	}
	return m, func() tea.Msg {
		msg, err := api.CreateBooking(context.Background(), req)
		return bookingCreatedMsg{message: msg, err: err}
	}
}

func (m detailModel) helpKeys(loggedIn bool) string {
	if m.editing {
		return helpBar(keys.NextField, keys.Submit, keys.Back)
	}
	bindings := []key.Binding{keys.Back}
	if loggedIn {
		bindings = append(bindings, keys.Book)
	} else {
		bindings = append(bindings, keys.Login)
	}
	bindings = append(bindings, keys.Copy, keys.Map, keys.Refresh, keys.Quit)
	return helpBar(bindings...)
}

func (m detailModel) View(loggedIn bool) string {
	if m.loading && m.space == nil {
		return " " + dimStyle.Render("loading space...")
	}
	if m.err != "" {
		return " " + errorStyle.Render("error: "+m.err)
	}
	if m.space == nil {
		return " " + dimStyle.Render("no space selected")
	}

	s := m.space
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", selectedStyle.Render(s.Address))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("price"), priceStyle.Render(domain.FormatWon(s.PricePerHour)+" per hour"))
	if d := strings.TrimSpace(s.Description); d != "" {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("details"), normalStyle.Render(d))
	}
	if s.OwnerName != "" {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("owner"), normalStyle.Render(s.OwnerName))
	}
	if s.HasLocation() {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("location"),
			dimStyle.Render(fmt.Sprintf("%.5f, %.5f", *s.Latitude, *s.Longitude)))
	}

	if len(m.slots) > 0 {
		fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Open in the next 24h"))
		shown := m.slots
		if len(shown) > 6 {
			shown = shown[:6]
		}
		for _, slot := range shown {
			fmt.Fprintf(&b, "    %s  %s\n",
				normalStyle.Render(formatSlot(slot.StartTime.At(m.loc), slot.EndTime.At(m.loc))),
				dimStyle.Render(domain.FormatWon(slot.TotalPrice)))
		}
		if len(m.slots) > len(shown) {
			fmt.Fprintf(&b, "    %s\n", metaStyle.Render(fmt.Sprintf("+%d more", len(m.slots)-len(shown))))
		}
	}

	b.WriteString("\n  " + metaStyle.Render(strings.Repeat("─", 30)) + "\n")
	switch {
	case !loggedIn:
		b.WriteString("  " + dimStyle.Render("log in to book this space (press i)") + "\n")
	case !m.editing:
		b.WriteString("  " + dimStyle.Render("press b to book") + "\n")
	default:
		fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Book"))
		b.WriteString(m.form.View())
		if m.estimate > 0 {
			fmt.Fprintf(&b, "\n   %s %s %s\n", labelStyle.Render("estimate"),
				priceStyle.Render(domain.FormatWon(m.estimate)),
				dimStyle.Render(fmt.Sprintf("(%dh × %s)", m.hours, domain.FormatWon(s.PricePerHour))))
		}
		switch {
		case m.submitting:
			b.WriteString("\n   " + dimStyle.Render("booking..."))
		case m.bookErr != "":
			b.WriteString("\n   " + errorStyle.Render(m.bookErr))
		}
	}

	if m.status != "" {
		b.WriteString("\n  " + successStyle.Render(m.status))
	}
	return b.String()
}
