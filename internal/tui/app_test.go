package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"github.com/parkingmate/parkmate/internal/gate"
	"github.com/parkingmate/parkmate/internal/session"
	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	mu sync.Mutex

	token     string
	loginErr  error
	spaces    []domain.ParkingSpace
	space     *domain.ParkingSpace
	bookings  []domain.Booking
	bookErr   error
	cancelErr error

	loginCalls    []string
	searches      []string
	bookingReqs   []client.CreateBookingRequest
	cancelled     []int64
	deleted       []int64
	createdSpaces []client.CreateSpaceRequest
	signups       []client.SignupRequest
	markedAllRead int
	markedRead    []int64
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls = append(f.loginCalls, email)
	return f.token, f.loginErr
}

func (f *fakeBackend) Signup(_ context.Context, req client.SignupRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups = append(f.signups, req)
	return "회원가입 성공", nil
}

func (f *fakeBackend) ListSpaces(_ context.Context, address string) ([]domain.ParkingSpace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, address)
	return f.spaces, nil
}

func (f *fakeBackend) GetSpace(_ context.Context, _ int64) (*domain.ParkingSpace, error) {
	return f.space, nil
}

func (f *fakeBackend) AvailableSlots(context.Context, int64, time.Time, time.Time, int) ([]domain.TimeSlot, error) {
	return nil, nil
}

func (f *fakeBackend) CreateSpace(_ context.Context, req client.CreateSpaceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdSpaces = append(f.createdSpaces, req)
	return "", nil
}

func (f *fakeBackend) DeleteSpace(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return "", nil
}

func (f *fakeBackend) MySpaces(context.Context) ([]domain.ParkingSpace, error) {
	return f.spaces, nil
}

func (f *fakeBackend) MyBookings(context.Context) ([]domain.Booking, error) {
	return f.bookings, nil
}

func (f *fakeBackend) CreateBooking(_ context.Context, req client.CreateBookingRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingReqs = append(f.bookingReqs, req)
	if f.bookErr != nil {
		return "", f.bookErr
	}
	return "예약이 완료되었습니다.", nil
}

func (f *fakeBackend) CancelBooking(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return "", f.cancelErr
}

func (f *fakeBackend) Notifications(context.Context) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeBackend) UnreadCount(context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeBackend) MarkRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeBackend) MarkAllRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAllRead++
	return nil
}

// saveFailingStore keeps the token in memory but refuses to persist it.
type saveFailingStore struct {
	session.MemoryStore
}

func (s *saveFailingStore) Save(string) error { return errors.New("disk full") }

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, api *fakeBackend) (App, *session.MemoryStore) {
	t.Helper()
	persist := &session.MemoryStore{}
	sess, err := session.Open(persist)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	a := NewApp(api, sess, time.UTC, nil)
	a.detail.now = func() time.Time { return testNow }
	a.width = 80
	a.height = 40
	return a, persist
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	next, ok := model.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", model)
	}
	return next, cmd
}

func signedToken(t *testing.T, email string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": email}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestAppGatedPagesRedirectWhenLoggedOut(t *testing.T) {
	for _, k := range []string{"2", "3"} {
		t.Run(k, func(t *testing.T) {
			a, _ := newTestApp(t, &fakeBackend{})
			a, _ = update(t, a, keyRunes(k))
			if a.view != viewLogin {
				t.Fatalf("after %q logged out: view=%d, want login", k, a.view)
			}
			view := a.View()
			if !strings.Contains(view, "Log in") {
				t.Errorf("expected login form, got:\n%s", view)
			}
			if !strings.Contains(view, "log in to continue") {
				t.Errorf("expected redirect notice, got:\n%s", view)
			}
		})
	}
}

func TestAppGatedPagesOpenWhenLoggedIn(t *testing.T) {
	tests := []struct {
		key  string
		want view
	}{
		{"2", viewPublish},
		{"3", viewMyPage},
		{"1", viewSpaces},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			a, _ := newTestApp(t, &fakeBackend{})
			if err := a.session.Login("tok"); err != nil {
				t.Fatal(err)
			}
			a, _ = update(t, a, keyRunes(tc.key))
			if a.view != tc.want {
				t.Errorf("after %q: view=%d, want %d", tc.key, a.view, tc.want)
			}
		})
	}
}

func TestAppRendersLoginWhenSessionEndsUnderneath(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	if err := a.session.Login("tok"); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, keyRunes("3"))
	if a.view != viewMyPage {
		t.Fatalf("view=%d, want my page", a.view)
	}

	// Another holder of the store logs out; the next render is gated.
	if err := a.session.Logout(); err != nil {
		t.Fatal(err)
	}
	view := a.View()
	if !strings.Contains(view, "Log in") {
		t.Errorf("gated page rendered for a logged-out session:\n%s", view)
	}
	if strings.Contains(view, "Bookings") {
		t.Errorf("my page content leaked:\n%s", view)
	}
}

func TestAppAuthenticatedMsgLogsInAndLandsOnMyPage(t *testing.T) {
	a, persist := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, keyRunes("i"))
	if a.view != viewLogin {
		t.Fatalf("view=%d, want login", a.view)
	}

	tok := signedToken(t, "kim@example.com")
	a, cmd := update(t, a, authenticatedMsg{token: tok})
	if !a.session.IsLoggedIn() {
		t.Fatal("expected session logged in")
	}
	if a.view != viewMyPage {
		t.Errorf("view=%d, want my page", a.view)
	}
	if cmd == nil {
		t.Error("expected my page load command")
	}
	if !persist.Has() {
		t.Error("expected token persisted")
	}
	if view := a.View(); !strings.Contains(view, "logged in as kim@example.com") {
		t.Errorf("header missing subject:\n%s", view)
	}
}

func TestAppAuthenticatedPersistFailureKeepsSession(t *testing.T) {
	sess, err := session.Open(&saveFailingStore{})
	if err != nil {
		t.Fatal(err)
	}
	a := NewApp(&fakeBackend{}, sess, time.UTC, nil)
	a.width, a.height = 80, 40

	a, _ = update(t, a, authenticatedMsg{token: "tok"})
	if !a.session.IsLoggedIn() {
		t.Fatal("a failed save must not undo the login")
	}
	if !strings.Contains(a.View(), "could not be saved") {
		t.Errorf("expected persistence warning:\n%s", a.View())
	}
}

func TestAppLogoutOnGatedPageReturnsToSpaces(t *testing.T) {
	a, persist := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, authenticatedMsg{token: "tok"})
	if a.view != viewMyPage {
		t.Fatalf("view=%d, want my page", a.view)
	}

	a, cmd := update(t, a, keyRunes("o"))
	if a.session.IsLoggedIn() {
		t.Error("expected logged out")
	}
	if persist.Has() {
		t.Error("expected persisted token removed")
	}
	if a.view != viewSpaces {
		t.Errorf("view=%d, want spaces", a.view)
	}
	if cmd == nil {
		t.Error("expected spaces reload")
	}
	if view := a.View(); !strings.Contains(view, "not logged in") {
		t.Errorf("header still shows a session:\n%s", view)
	}
}

func TestAppLogoutKeyIgnoredWhenLoggedOut(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, keyRunes("o"))
	if a.flash != "" {
		t.Errorf("logout while logged out set flash %q", a.flash)
	}
}

func TestAppBookKeyRedirectsToLoginWhenLoggedOut(t *testing.T) {
	space := &domain.ParkingSpace{ID: 7, Address: "서울 중구 세종대로 110", PricePerHour: 2000}
	a, _ := newTestApp(t, &fakeBackend{space: space})

	a, _ = update(t, a, openSpaceMsg{id: 7})
	a, _ = update(t, a, spaceLoadedMsg{id: 7, space: space})
	if view := a.View(); !strings.Contains(view, "log in to book") {
		t.Errorf("logged-out detail should not offer the booking form:\n%s", view)
	}

	a, _ = update(t, a, keyRunes("b"))
	if a.view != viewLogin {
		t.Fatalf("view=%d, want login", a.view)
	}
	if a.detail.editing {
		t.Error("booking form opened without a session")
	}
}

func TestAppBookKeyOpensFormWhenLoggedIn(t *testing.T) {
	space := &domain.ParkingSpace{ID: 7, Address: "서울 중구 세종대로 110", PricePerHour: 2000}
	a, _ := newTestApp(t, &fakeBackend{space: space})
	if err := a.session.Login("tok"); err != nil {
		t.Fatal(err)
	}

	a, _ = update(t, a, openSpaceMsg{id: 7})
	a, _ = update(t, a, spaceLoadedMsg{id: 7, space: space})
	a, _ = update(t, a, keyRunes("b"))
	if !a.detail.editing {
		t.Fatal("expected booking form")
	}

	// Digits go to the form, not the tab bar.
	a, _ = update(t, a, keyRunes("2"))
	if a.view != viewDetail {
		t.Errorf("typing in the form switched pages: view=%d", a.view)
	}
}

func TestAppSignedUpPrefillsLogin(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, signedUpMsg{email: "kim@example.com", message: "회원가입 성공"})
	if a.view != viewLogin {
		t.Fatalf("view=%d, want login", a.view)
	}
	if got := a.login.form.Value(loginEmail); got != "kim@example.com" {
		t.Errorf("email = %q, want prefilled", got)
	}
	if !strings.Contains(a.View(), "회원가입 성공") {
		t.Errorf("expected backend message:\n%s", a.View())
	}
}

func TestAppEscLeavesFormPages(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, keyRunes("u"))
	if a.view != viewSignup {
		t.Fatalf("view=%d, want signup", a.view)
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.view != viewSpaces {
		t.Errorf("view=%d, want spaces", a.view)
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, keyRunes("h"))
	if !a.helpOpen {
		t.Fatal("expected help open")
	}
	if view := a.View(); !strings.Contains(view, "parkmate login") {
		t.Errorf("help overlay missing commands:\n%s", view)
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.helpOpen {
		t.Error("expected help closed")
	}
}

func TestAppUnreadBadge(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	if err := a.session.Login("tok"); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, unreadLoadedMsg{count: 3})
	if view := a.View(); !strings.Contains(view, "3 unread") {
		t.Errorf("expected unread badge:\n%s", view)
	}
}

func TestAppWindowResizePropagates(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 50})
	if a.width != 120 || a.height != 50 {
		t.Errorf("app size = %dx%d", a.width, a.height)
	}
	if a.spaces.width != 120 || a.spaces.height != 45 {
		t.Errorf("body size = %dx%d, want 120x45", a.spaces.width, a.spaces.height)
	}
}

func TestResolve(t *testing.T) {
	loggedOut := session.Snapshot{}
	loggedIn := session.Snapshot{Token: "tok"}

	tests := []struct {
		name string
		snap session.Snapshot
		in   view
		want view
	}{
		{"public page logged out", loggedOut, viewSpaces, viewSpaces},
		{"detail logged out", loggedOut, viewDetail, viewDetail},
		{"publish logged out", loggedOut, viewPublish, viewLogin},
		{"my page logged out", loggedOut, viewMyPage, viewLogin},
		{"my page logged in", loggedIn, viewMyPage, viewMyPage},
		{"publish logged in", loggedIn, viewPublish, viewPublish},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolve(tc.snap, tc.in); got != tc.want {
				t.Errorf("resolve(%s) = %d, want %d", tc.in.route(), got, tc.want)
			}
		})
	}
}

func TestResolveWhileSessionLoading(t *testing.T) {
	loading := gate.Status{Loading: true}
	for _, v := range []view{viewPublish, viewMyPage} {
		if got := resolveStatus(loading, v); got != viewWaiting {
			t.Errorf("resolveStatus(loading, %s) = %d, want waiting", v.route(), got)
		}
	}
	if got := resolveStatus(loading, viewSpaces); got != viewSpaces {
		t.Errorf("public page while loading = %d, want spaces", got)
	}
}

func TestAppWaitingPageHidesGatedContent(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	body, help := a.page(viewWaiting, session.Snapshot{})
	if !strings.Contains(body, "checking your session") {
		t.Errorf("waiting body = %q", body)
	}
	for _, leaked := range []string{"Bookings", "Publish a space", "email"} {
		if strings.Contains(body, leaked) {
			t.Errorf("waiting body shows %q", leaked)
		}
	}
	if !strings.Contains(help, "quit") {
		t.Errorf("waiting help = %q", help)
	}
}

func TestAppHeaderSubjectComesFromSnapshot(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{})
	if err := a.session.Login("opaque-token"); err != nil {
		t.Fatal(err)
	}
	if view := a.View(); !strings.Contains(view, "logged in") || strings.Contains(view, "logged in as") {
		t.Errorf("opaque token header:\n%s", view)
	}
}
