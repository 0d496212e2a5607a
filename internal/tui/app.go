package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parkingmate/parkmate/internal/gate"
	"github.com/parkingmate/parkmate/internal/session"
	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

// Backend is the slice of the API client the views call.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, req client.SignupRequest) (string, error)
	ListSpaces(ctx context.Context, address string) ([]domain.ParkingSpace, error)
	GetSpace(ctx context.Context, id int64) (*domain.ParkingSpace, error)
	AvailableSlots(ctx context.Context, id int64, from, to time.Time, slotHours int) ([]domain.TimeSlot, error)
	CreateSpace(ctx context.Context, req client.CreateSpaceRequest) (string, error)
	DeleteSpace(ctx context.Context, id int64) (string, error)
	MySpaces(ctx context.Context) ([]domain.ParkingSpace, error)
	MyBookings(ctx context.Context) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, req client.CreateBookingRequest) (string, error)
	CancelBooking(ctx context.Context, id int64) (string, error)
	Notifications(ctx context.Context) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

type view int

const (
	viewSpaces view = iota
	viewDetail
	viewLogin
	viewSignup
	viewPublish
	viewMyPage
	// viewWaiting stands in for a gated page while the session is undecided.
	viewWaiting
)

var routes = map[view]string{
	viewSpaces:  "spaces",
	viewDetail:  "detail",
	viewLogin:   gate.LoginRoute,
	viewSignup:  "signup",
	viewPublish: "publish",
	viewMyPage:  "mypage",
}

func (v view) route() string { return routes[v] }

// gated views render only for a logged-in session.
func (v view) gated() bool {
	return v == viewPublish || v == viewMyPage
}

func viewForRoute(route string) view {
	for v, r := range routes {
		if r == route {
			return v
		}
	}
	return viewSpaces
}

// navigateMsg asks the root model to switch pages.
type navigateMsg struct {
	to    view
	flash string
}

func navigateTo(v view, flash string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: v, flash: flash} }
}

// openSpaceMsg opens the detail page for a space.
type openSpaceMsg struct {
	id int64
}

// authenticatedMsg carries a token issued by the login endpoint.
type authenticatedMsg struct {
	token string
}

type unreadLoadedMsg struct {
	count int64
	err   error
}

// unreadChangedMsg asks the root model to refresh the unread badge.
type unreadChangedMsg struct{}

// App is the root Bubbletea model.
type App struct {
	api     Backend
	session *session.Store
	logger  *slog.Logger
	loc     *time.Location

	view     view
	spaces   spacesModel
	detail   detailModel
	login    loginModel
	signup   signupModel
	publish  publishModel
	mypage   myPageModel
	helpOpen bool

	unread int64
	flash  string
	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI application. Booking times are read and shown in loc.
func NewApp(api Backend, sess *session.Store, loc *time.Location, logger *slog.Logger) App {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return App{
		api:     api,
		session: sess,
		logger:  logger,
		loc:     loc,
		spaces:  newSpacesModel(api),
		detail:  newDetailModel(api, loc, logger),
		login:   newLoginModel(api),
		signup:  newSignupModel(api),
		publish: newPublishModel(api, logger),
		mypage:  newMyPageModel(api, loc, logger),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spaces.Init(), shimmerTickCmd()}
	if a.session.IsLoggedIn() {
		cmds = append(cmds, a.loadUnread())
	}
	return tea.Batch(cmds...)
}

func (a App) loadUnread() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		n, err := api.UnreadCount(context.Background())
		return unreadLoadedMsg{count: n, err: err}
	}
}

// status is the gate input for the current session.
func status(snap session.Snapshot) gate.Status {
	return gate.Status{LoggedIn: snap.LoggedIn()}
}

// resolve maps a requested page to the page the gate allows.
func resolve(snap session.Snapshot, target view) view {
	return resolveStatus(status(snap), target)
}

func resolveStatus(st gate.Status, target view) view {
	if !target.gated() {
		return target
	}
	route := gate.Guard(st, target.route())
	if route == "" {
		return viewWaiting
	}
	return viewForRoute(route)
}

// navigate switches to target through the gate and starts whatever the
// destination page loads on entry.
func (a App) navigate(target view) (App, tea.Cmd) {
	snap := a.session.Snapshot()
	to := resolve(snap, target)
	if to == viewWaiting {
		// Stay on target; each render resolves it again.
		a.view = target
		return a, nil
	}
	if to != target {
		a.logger.Debug("navigation redirected", "from", target.route(), "to", to.route())
		a.flash = "log in to continue"
	}
	a.view = to

	switch to {
	case viewSpaces:
		return a, a.spaces.Init()
	case viewLogin:
		var cmd tea.Cmd
		a.login, cmd = a.login.Focus()
		return a, cmd
	case viewSignup:
		var cmd tea.Cmd
		a.signup, cmd = a.signup.Focus()
		return a, cmd
	case viewPublish:
		var cmd tea.Cmd
		a.publish, cmd = a.publish.Focus()
		return a, cmd
	case viewMyPage:
		return a, tea.Batch(a.mypage.Init(), a.loadUnread())
	}
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + flash(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.spaces, _ = a.spaces.Update(bodyMsg)
		a.detail, _ = a.detail.Update(bodyMsg)
		a.mypage, _ = a.mypage.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case navigateMsg:
		a.flash = ""
		next, cmd := a.navigate(msg.to)
		if msg.flash != "" {
			next.flash = msg.flash
		}
		return next, cmd

	case openSpaceMsg:
		a.flash = ""
		a.view = viewDetail
		var cmd tea.Cmd
		a.detail, cmd = a.detail.open(msg.id)
		return a, cmd

	case authenticatedMsg:
		a.login = a.login.Reset()
		err := a.session.Login(msg.token)
		next, cmd := a.navigate(viewMyPage)
		if err != nil {
			// The session is live in memory even when it could not be saved.
			next.logger.Warn("session not persisted", "err", err)
			next.flash = "logged in, but the session could not be saved"
		} else {
			next.logger.Info("logged in", "subject", next.session.Subject())
			next.flash = ""
		}
		return next, cmd

	case signedUpMsg:
		a.login = a.login.Prefill(msg.email)
		a.signup = a.signup.Reset()
		next, cmd := a.navigate(viewLogin)
		next.flash = msg.message
		return next, cmd

	case unreadLoadedMsg:
		if msg.err == nil {
			a.unread = msg.count
		}
		return a, nil

	case unreadChangedMsg:
		return a, a.loadUnread()

	case tea.KeyMsg:
		if a.helpOpen {
			switch {
			case key.Matches(msg, keys.Help), key.Matches(msg, keys.Back):
				a.helpOpen = false
			case key.Matches(msg, keys.Quit):
				return a, tea.Quit
			}
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		if a.isEditing() {
			if key.Matches(msg, keys.Back) && a.isFormPage() {
				a.flash = ""
				return a.navigate(viewSpaces)
			}
			break
		}

		snap := a.session.Snapshot()
		switch {
		case key.Matches(msg, keys.Help):
			a.helpOpen = true
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.TabSpaces):
			a.flash = ""
			return a.navigate(viewSpaces)
		case key.Matches(msg, keys.TabPublish):
			a.flash = ""
			return a.navigate(viewPublish)
		case key.Matches(msg, keys.TabMyPage):
			a.flash = ""
			return a.navigate(viewMyPage)
		case key.Matches(msg, keys.Login) && !snap.LoggedIn():
			a.flash = ""
			return a.navigate(viewLogin)
		case key.Matches(msg, keys.Signup) && !snap.LoggedIn():
			a.flash = ""
			return a.navigate(viewSignup)
		case key.Matches(msg, keys.Logout) && snap.LoggedIn():
			return a.logout()
		case key.Matches(msg, keys.Book) && a.view == viewDetail:
			if gate.Decide(status(snap)).State != gate.Authorized {
				next, cmd := a.navigate(viewLogin)
				next.flash = "log in to book this space"
				return next, cmd
			}
			var cmd tea.Cmd
			a.detail, cmd = a.detail.startBooking()
			return a, cmd
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewSpaces:
		a.spaces, cmd = a.spaces.Update(msg)
	case viewDetail:
		a.detail, cmd = a.detail.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewSignup:
		a.signup, cmd = a.signup.Update(msg)
	case viewPublish:
		a.publish, cmd = a.publish.Update(msg)
	case viewMyPage:
		a.mypage, cmd = a.mypage.Update(msg)
	}
	return a, cmd
}

func (a App) logout() (tea.Model, tea.Cmd) {
	if err := a.session.Logout(); err != nil {
		a.logger.Warn("session file not removed", "err", err)
		a.flash = "logged out, but the saved session could not be removed"
	} else {
		a.logger.Info("logged out")
		a.flash = "logged out"
	}
	a.unread = 0
	a.mypage = newMyPageModel(a.api, a.loc, a.logger)
	if a.detail.editing {
		a.detail = a.detail.stopBooking()
	}
	if a.view.gated() {
		a.view = viewSpaces
		return a, a.spaces.Init()
	}
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewSpaces:
		return a.spaces.searching
	case viewDetail:
		return a.detail.editing
	case viewLogin, viewSignup, viewPublish:
		return true
	case viewMyPage:
		return a.mypage.confirming != confirmNone
	}
	return false
}

func (a App) isFormPage() bool {
	return a.view == viewLogin || a.view == viewSignup || a.view == viewPublish
}

func (a App) View() string {
	// One snapshot per render so the header, tabs and gate agree.
	snap := a.session.Snapshot()

	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width)

	statusLine := dimStyle.Render("not logged in")
	if snap.LoggedIn() {
		who := snap.Subject()
		if who == "" {
			who = "logged in"
		} else {
			who = "logged in as " + who
		}
		statusLine = accentStyle.Render(who)
		if a.unread > 0 {
			statusLine += "  " + unreadStyle.Render(fmt.Sprintf("● %d unread", a.unread))
		}
	}
	header += "\n" + center(statusLine, a.width)

	tabs := a.renderTabs(snap)

	body, help := a.page(resolve(snap, a.view), snap)

	if a.helpOpen {
		body = helpView()
		help = helpBar(keys.Back)
	}

	flash := ""
	if a.flash != "" {
		flash = " " + accentStyle.Render(a.flash)
	}

	// Chrome budget: header(2) + tabs(1) + flash(1) + help(1) = 5 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-5), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabs, body, flash, help)
}

// page renders the body and help bar of the page actually shown.
func (a App) page(shown view, snap session.Snapshot) (body, help string) {
	switch shown {
	case viewSpaces:
		return a.spaces.View(), a.spaces.helpKeys()
	case viewDetail:
		return a.detail.View(snap.LoggedIn()), a.detail.helpKeys(snap.LoggedIn())
	case viewLogin:
		return a.login.View(), helpBar(keys.NextField, keys.Submit, keys.Back)
	case viewSignup:
		return a.signup.View(), helpBar(keys.NextField, keys.Submit, keys.Back)
	case viewPublish:
		return a.publish.View(), helpBar(keys.NextField, keys.Submit, keys.Back)
	case viewMyPage:
		return a.mypage.View(), a.mypage.helpKeys()
	case viewWaiting:
		return "\n  " + dimStyle.Render("checking your session..."), helpBar(keys.Quit)
	}
	return "", ""
}

func (a App) renderTabs(snap session.Snapshot) string {
	type tabEntry struct {
		b key.Binding
		v view
	}
	entries := []tabEntry{
		{keys.TabSpaces, viewSpaces},
		{keys.TabPublish, viewPublish},
		{keys.TabMyPage, viewMyPage},
	}
	if snap.LoggedIn() {
		entries = append(entries, tabEntry{keys.Logout, -1})
	} else {
		entries = append(entries, tabEntry{keys.Login, viewLogin}, tabEntry{keys.Signup, viewSignup})
	}

	colWidth := a.width / len(entries)
	var bar strings.Builder
	for _, t := range entries {
		h := t.b.Help()
		var label string
		active := t.v == a.view || (t.v == viewSpaces && a.view == viewDetail)
		switch {
		case active:
			label = accentStyle.Render(h.Key) + " " + selectedStyle.Underline(true).Render(h.Desc)
		case t.v.gated() && !snap.LoggedIn():
			label = metaStyle.Render(h.Key) + " " + metaStyle.Render(h.Desc)
		default:
			label = metaStyle.Render(h.Key) + " " + dimStyle.Render(h.Desc)
		}
		bar.WriteString(padCenter(label, colWidth))
	}
	return bar.String()
}

// center pads s so it sits in the middle of width columns.
func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

// padCenter centers s within a column of width, padding both sides.
func padCenter(s string, width int) string {
	w := lipgloss.Width(s)
	left := (width - w) / 2
	if left < 0 {
		left = 0
	}
	right := width - w - left
	if right < 0 {
		right = 0
	}
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
