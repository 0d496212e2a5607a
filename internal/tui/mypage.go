package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

type mySection int

const (
	sectionBookings mySection = iota
	sectionSpaces
	sectionNotifications
	numSections
)

var sectionNames = [numSections]string{"Bookings", "My spaces", "Notifications"}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmCancel
	confirmDelete
)

type bookingsLoadedMsg struct {
	bookings []domain.Booking
	err      error
}

type mySpacesLoadedMsg struct {
	spaces []domain.ParkingSpace
	err    error
}

type notificationsLoadedMsg struct {
	notes []domain.Notification
	err   error
}

type bookingCancelledMsg struct {
	id      int64
	message string
	err     error
}

type spaceDeletedMsg struct {
	id      int64
	message string
	err     error
}

type allReadMsg struct {
	err error
}

type noteReadMsg struct {
	id  int64
	err error
}

type myPageModel struct {
	api    Backend
	loc    *time.Location
	logger *slog.Logger

	section  mySection
	cursors  [numSections]int
	bookings []domain.Booking
	spaces   []domain.ParkingSpace
	notes    []domain.Notification
	loading  [numSections]bool
	errs     [numSections]string

	confirming confirmKind
	target     int64
	status     string
	width      int
	height     int
}

func newMyPageModel(api Backend, loc *time.Location, logger *slog.Logger) myPageModel {
	return myPageModel{api: api, loc: loc, logger: logger}
}

func (m myPageModel) Init() tea.Cmd {
	return tea.Batch(m.loadBookings(), m.loadSpaces(), m.loadNotifications())
}

func (m myPageModel) loadBookings() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		bookings, err := api.MyBookings(context.Background())
		return bookingsLoadedMsg{bookings: bookings, err: err}
	}
}

func (m myPageModel) loadSpaces() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		spaces, err := api.MySpaces(context.Background())
		return mySpacesLoadedMsg{spaces: spaces, err: err}
	}
}

func (m myPageModel) loadNotifications() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		notes, err := api.Notifications(context.Background())
		return notificationsLoadedMsg{notes: notes, err: err}
	}
}

func (m myPageModel) Update(msg tea.Msg) (myPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bookingsLoadedMsg:
		m.errs[sectionBookings] = errText(msg.err)
		if msg.err == nil {
			m.bookings = msg.bookings
			m.clampCursor(sectionBookings, len(m.bookings))
		}
		return m, nil

	case mySpacesLoadedMsg:
		m.errs[sectionSpaces] = errText(msg.err)
		if msg.err == nil {
			m.spaces = msg.spaces
			m.clampCursor(sectionSpaces, len(m.spaces))
		}
		return m, nil

	case notificationsLoadedMsg:
		m.errs[sectionNotifications] = errText(msg.err)
		if msg.err == nil {
			m.notes = msg.notes
			m.clampCursor(sectionNotifications, len(m.notes))
		}
		return m, nil

	case bookingCancelledMsg:
		if msg.err != nil {
			m.status = client.Describe(msg.err)
			m.logger.Warn("cancel failed", "booking", msg.id, "err", msg.err)
			return m, nil
		}
		m.logger.Info("booking cancelled", "booking", msg.id)
		m.status = msg.message
		if m.status == "" {
			m.status = "booking cancelled"
		}
		return m, tea.Batch(m.loadBookings(), m.loadNotifications(), unreadChanged)

	case spaceDeletedMsg:
		if msg.err != nil {
			m.status = client.Describe(msg.err)
			return m, nil
		}
		m.logger.Info("space deleted", "space", msg.id)
		m.status = msg.message
		if m.status == "" {
			m.status = "space deleted"
		}
		return m, m.loadSpaces()

	case allReadMsg:
		if msg.err != nil {
			m.status = client.Describe(msg.err)
			return m, nil
		}
		for i := range m.notes {
			m.notes[i].Read = true
		}
		return m, unreadChanged

	case noteReadMsg:
		if msg.err != nil {
			m.logger.Debug("mark read failed", "notification", msg.id, "err", msg.err)
			return m, nil
		}
		for i := range m.notes {
			if m.notes[i].ID == msg.id {
				m.notes[i].Read = true
			}
		}
		return m, unreadChanged

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
		if m.confirming != confirmNone {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func unreadChanged() tea.Msg { return unreadChangedMsg{} }

func errText(err error) string {
	if err == nil {
		return ""
	}
	return client.Describe(err)
}

func (m *myPageModel) clampCursor(s mySection, n int) {
	if m.cursors[s] >= n {
		m.cursors[s] = 0
	}
}

func (m myPageModel) sectionLen(s mySection) int {
	switch s {
	case sectionBookings:
		return len(m.bookings)
	case sectionSpaces:
		return len(m.spaces)
	case sectionNotifications:
		return len(m.notes)
	}
	return 0
}

func (m myPageModel) updateKeys(msg tea.KeyMsg) (myPageModel, tea.Cmd) {
	m.status = ""
	cur := m.cursors[m.section]
	switch {
	case key.Matches(msg, keys.Section):
		m.section = (m.section + 1) % numSections
	case key.Matches(msg, keys.Down):
		if cur < m.sectionLen(m.section)-1 {
			m.cursors[m.section]++
		}
	case key.Matches(msg, keys.Up):
		if cur > 0 {
			m.cursors[m.section]--
		}
	case key.Matches(msg, keys.Refresh):
		return m, m.Init()

	case key.Matches(msg, keys.Cancel) && m.section == sectionBookings:
		if cur < len(m.bookings) {
			b := m.bookings[cur]
			if !b.Cancellable() {
				m.status = "only reserved bookings can be cancelled"
				return m, nil
			}
			m.confirming = confirmCancel
			m.target = b.ID
		}
	case key.Matches(msg, keys.Copy) && m.section == sectionBookings:
		if cur < len(m.bookings) {
			id := strconv.FormatInt(m.bookings[cur].ID, 10)
			return m, func() tea.Msg {
				return copyResultMsg{what: "booking #" + id, err: clipboard.WriteAll(id)}
			}
		}
	case key.Matches(msg, keys.Delete) && m.section == sectionSpaces:
		if cur < len(m.spaces) {
			m.confirming = confirmDelete
			m.target = m.spaces[cur].ID
		}
	case key.Matches(msg, keys.Open) && m.section == sectionSpaces:
		if cur < len(m.spaces) {
			id := m.spaces[cur].ID
			return m, func() tea.Msg { return openSpaceMsg{id: id} }
		}
	case key.Matches(msg, keys.Read) && m.section == sectionNotifications:
		if cur < len(m.notes) && !m.notes[cur].Read {
			api, id := m.api, m.notes[cur].ID
			return m, func() tea.Msg {
				return noteReadMsg{id: id, err: api.MarkRead(context.Background(), id)}
			}
		}
	case key.Matches(msg, keys.MarkAllRead) && m.section == sectionNotifications:
		api := m.api
		return m, func() tea.Msg {
			return allReadMsg{err: api.MarkAllRead(context.Background())}
		}
	}
	return m, nil
}

// updateConfirm handles the y/anything prompt for destructive actions.
func (m myPageModel) updateConfirm(msg tea.KeyMsg) (myPageModel, tea.Cmd) {
	kind, id := m.confirming, m.target
	m.confirming = confirmNone
	m.target = 0
	if !key.Matches(msg, keys.Confirm) {
		return m, nil
	}

	api := m.api
	switch kind {
	case confirmCancel:
		return m, func() tea.Msg {
			msg, err := api.CancelBooking(context.Background(), id)
			return bookingCancelledMsg{id: id, message: msg, err: err}
		}
	case confirmDelete:
		return m, func() tea.Msg {
			msg, err := api.DeleteSpace(context.Background(), id)
			return spaceDeletedMsg{id: id, message: msg, err: err}
		}
	}
	return m, nil
}

func (m myPageModel) helpKeys() string {
	if m.confirming != confirmNone {
		return " " + helpEntry("y", "confirm") + "  " + helpEntry("any", "keep")
	}
	bindings := []key.Binding{keys.Section, keys.Up, keys.Down}
	switch m.section {
	case sectionBookings:
		bindings = append(bindings, keys.Cancel, keys.Copy)
	case sectionSpaces:
		bindings = append(bindings, keys.Open, keys.Delete)
	case sectionNotifications:
		bindings = append(bindings, keys.Read, keys.MarkAllRead)
	}
	bindings = append(bindings, keys.Refresh, keys.Quit)
	return helpBar(bindings...)
}

func (m myPageModel) View() string {
	var b strings.Builder

	// Section bar
	b.WriteString(" ")
	for s := mySection(0); s < numSections; s++ {
		name := sectionNames[s]
		if n := m.sectionLen(s); n > 0 {
			name += fmt.Sprintf(" (%d)", n)
		}
		if s == m.section {
			b.WriteString(" " + selectedStyle.Underline(true).Render(name) + " ")
		} else {
			b.WriteString(" " + dimStyle.Render(name) + " ")
		}
	}
	b.WriteString("\n\n")

	if msg := m.errs[m.section]; msg != "" {
		b.WriteString(" " + errorStyle.Render("error: "+msg) + "\n")
	} else {
		switch m.section {
		case sectionBookings:
			m.viewBookings(&b)
		case sectionSpaces:
			m.viewSpaces(&b)
		case sectionNotifications:
			m.viewNotifications(&b)
		}
	}

	switch {
	case m.confirming == confirmCancel:
		b.WriteString("\n " + unreadStyle.Render(fmt.Sprintf("cancel booking #%d? (y to confirm)", m.target)))
	case m.confirming == confirmDelete:
		b.WriteString("\n " + unreadStyle.Render(fmt.Sprintf("delete space #%d? (y to confirm)", m.target)))
	case m.status != "":
		b.WriteString("\n " + successStyle.Render(m.status))
	}
	return b.String()
}

func (m myPageModel) marker(s mySection, i int) string {
	if i == m.cursors[s] && s == m.section {
		return accentStyle.Render("▸") + " "
	}
	return "  "
}

func (m myPageModel) viewBookings(b *strings.Builder) {
	if len(m.bookings) == 0 {
		b.WriteString(" " + dimStyle.Render("no bookings yet") + "\n")
		return
	}
	for i, bk := range m.bookings {
		fmt.Fprintf(b, " %s%s  %s\n", m.marker(sectionBookings, i),
			selectedStyle.Render(truncStr(bk.Address, 40)),
			statusStyle(bk.Status).Render(bk.Status.Label()))
		line := formatSlot(bk.StartTime.At(m.loc), bk.EndTime.At(m.loc))
		if bk.TotalPrice > 0 {
			line += " · " + domain.FormatWon(bk.TotalPrice)
		}
		fmt.Fprintf(b, "   %s %s\n", metaStyle.Render(fmt.Sprintf("#%d", bk.ID)), dimStyle.Render(line))
	}
}

func (m myPageModel) viewSpaces(b *strings.Builder) {
	if len(m.spaces) == 0 {
		b.WriteString(" " + dimStyle.Render("you have not published a space (press 2)") + "\n")
		return
	}
	for i, s := range m.spaces {
		fmt.Fprintf(b, " %s%s  %s\n", m.marker(sectionSpaces, i),
			normalStyle.Render(truncStr(s.Address, 40)),
			priceStyle.Render(domain.FormatWon(s.PricePerHour)+"/h"))
	}
}

func (m myPageModel) viewNotifications(b *strings.Builder) {
	if len(m.notes) == 0 {
		b.WriteString(" " + dimStyle.Render("no notifications") + "\n")
		return
	}
	for i, n := range m.notes {
		dot := " "
		if !n.Read {
			dot = unreadStyle.Render("●")
		}
		title := n.Title
		if title == "" {
			title = string(n.Type)
		}
		when := ""
		if !n.CreatedAt.IsZero() {
			when = metaStyle.Render(formatTime(n.CreatedAt.At(m.loc)))
		}
		fmt.Fprintf(b, " %s%s %s  %s\n", m.marker(sectionNotifications, i), dot, normalStyle.Render(title), when)
		if n.Message != "" {
			fmt.Fprintf(b, "     %s\n", dimStyle.Render(truncStr(n.Message, 70)))
		}
	}
}
