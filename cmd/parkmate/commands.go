package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/parkingmate/parkmate/internal/gate"
	"github.com/parkingmate/parkmate/internal/planner"
	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

var errNotLoggedIn = errors.New("not logged in; run `parkmate login` first")

type command func(e *env, args []string) error

var commands = map[string]command{
	"login":    runLogin,
	"logout":   runLogout,
	"signup":   runSignup,
	"status":   runStatus,
	"spaces":   runSpaces,
	"space":    runSpace,
	"book":     runBook,
	"bookings": runBookings,
	"cancel":   runCancel,
	"publish":  runPublish,
	"update":   runUpdate,
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("parkmate "+name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// requireLogin applies the same gate the TUI applies to gated views.
func (e *env) requireLogin() error {
	d := gate.Decide(gate.Status{LoggedIn: e.sess.IsLoggedIn()})
	if d.State != gate.Authorized {
		return errNotLoggedIn
	}
	return nil
}

// failed turns a client error into the message shown to the user.
func failed(op string, err error) error {
	if client.IsAuth(err) {
		return fmt.Errorf("%s: %s (your session may have expired; run `parkmate login`)", op, client.Describe(err))
	}
	return fmt.Errorf("%s: %s", op, client.Describe(err))
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one %s id", what)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, args[0])
	}
	return id, nil
}

func (e *env) password(file string) (string, error) {
	if file == "" {
		return e.prompt("password", true)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func runLogin(e *env, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	passwordFile := fs.String("password-file", "", "read the password from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		v, err := e.prompt("email", false)
		if err != nil {
			return err
		}
		*email = strings.TrimSpace(v)
	}
	pw, err := e.password(*passwordFile)
	if err != nil {
		return err
	}
	if *email == "" || pw == "" {
		return errors.New("email and password are required")
	}

	token, err := e.api.Login(context.Background(), *email, pw)
	if err != nil {
		// A rejected login leaves any existing session in place.
		return failed("login", err)
	}
	if err := e.sess.Login(token); err != nil {
		e.out.warn("logged in, but the session could not be saved: %v", err)
	}
	who := e.sess.Subject()
	if who == "" {
		who = *email
	}
	e.out.ok("Logged in as %s", who)
	return nil
}

func runLogout(e *env, _ []string) error {
	if !e.sess.IsLoggedIn() {
		e.out.line("Already logged out.")
		return nil
	}
	if err := e.sess.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	e.out.ok("Logged out.")
	return nil
}

func runSignup(e *env, args []string) error {
	fs := newFlagSet("signup")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	passwordFile := fs.String("password-file", "", "read the password from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, f := range []struct {
		label string
		v     *string
	}{{"email", email}, {"name", name}} {
		if *f.v != "" {
			continue
		}
		v, err := e.prompt(f.label, false)
		if err != nil {
			return err
		}
		*f.v = strings.TrimSpace(v)
	}
	pw, err := e.password(*passwordFile)
	if err != nil {
		return err
	}
	switch {
	case *email == "" || *name == "" || pw == "":
		return errors.New("email, name and password are required")
	case !strings.Contains(*email, "@"):
		return fmt.Errorf("%q is not an email address", *email)
	}

	msg, err := e.api.Signup(context.Background(), client.SignupRequest{Email: *email, Password: pw, Name: *name})
	if err != nil {
		return failed("signup", err)
	}
	if msg == "" {
		msg = "Account created."
	}
	e.out.ok("%s", msg)
	e.out.dim("Next: parkmate login --email %s", *email)
	return nil
}

func runStatus(e *env, _ []string) error {
	snap := e.sess.Snapshot()
	switch who := snap.Subject(); {
	case !snap.LoggedIn():
		e.out.line("Not logged in.")
	case who != "":
		e.out.line("Logged in as %s", who)
	default:
		// Opaque token: ask the backend who it belongs to.
		if p, err := e.api.Me(context.Background()); err == nil && p.Email != "" {
			e.out.line("Logged in as %s", p.Email)
		} else {
			e.logger.Debug("profile unavailable", "err", err)
			e.out.line("Logged in.")
		}
	}
	e.out.dim("api %s", e.cfg.APIURL)
	return nil
}

func runSpaces(e *env, args []string) error {
	fs := newFlagSet("spaces")
	address := fs.String("address", "", "only spaces whose address contains this text")
	mine := fs.Bool("mine", false, "list the spaces you published")
	near := fs.String("near", "", "only spaces around LAT,LNG")
	radius := fs.Float64("radius", 0, "search radius in km for --near (backend default 5)")
	sortName := fs.String("sort", "", "latest, price_asc, price_desc or distance (with --near)")
	page := fs.Int("page", 0, "page number, from 0")
	size := fs.Int("size", 0, "spaces per page (backend default 10)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sortBy, err := domain.ParseSpaceSort(*sortName, *near != "")
	if err != nil {
		return fmt.Errorf("--sort: %w", err)
	}
	if *page < 0 || *size < 0 || *radius < 0 {
		return errors.New("--page, --size and --radius cannot be negative")
	}

	ctx := context.Background()
	var (
		spaces []domain.ParkingSpace
		paged  *domain.SpacePage
	)
	switch {
	case *mine:
		if *near != "" || *address != "" {
			return errors.New("--mine cannot be combined with --near or --address")
		}
		if err := e.requireLogin(); err != nil {
			return err
		}
		spaces, err = e.api.MySpaces(ctx)
	case *near != "":
		lat, lng, perr := domain.ParseCoordinates(*near)
		if perr != nil {
			return fmt.Errorf("--near: %w", perr)
		}
		paged, err = e.api.NearbySpaces(ctx, client.NearbyQuery{
			Latitude: lat, Longitude: lng, RadiusKm: *radius, Sort: sortBy, Page: *page, Size: *size,
		})
	case sortBy != "" || fs.Changed("page") || fs.Changed("size"):
		paged, err = e.api.SearchSpaces(ctx, client.SpaceQuery{
			Address: strings.TrimSpace(*address), Sort: sortBy, Page: *page, Size: *size,
		})
	default:
		spaces, err = e.api.ListSpaces(ctx, strings.TrimSpace(*address))
	}
	if err != nil {
		return failed("spaces", err)
	}
	if paged != nil {
		spaces = paged.Content
	}

	if len(spaces) == 0 {
		e.out.line("No parking spaces found.")
	}
	for _, s := range spaces {
		e.out.line("#%-5d %-10s %s", s.ID, domain.FormatWon(s.PricePerHour)+"/h", s.Address)
	}
	if paged != nil && paged.TotalPages > 0 {
		e.out.dim("page %d of %d · %d spaces", paged.Page+1, paged.TotalPages, paged.TotalElements)
	}
	return nil
}

func runSpace(e *env, args []string) error {
	id, err := parseID(args, "space")
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := e.api.GetSpace(ctx, id)
	if err != nil {
		return failed("space", err)
	}

	e.out.line("#%d %s", s.ID, s.Address)
	e.out.line("  price    %s per hour", domain.FormatWon(s.PricePerHour))
	if s.Description != "" {
		e.out.line("  details  %s", s.Description)
	}
	if s.OwnerName != "" {
		e.out.line("  owner    %s", s.OwnerName)
	}

	from := e.now().In(e.loc).Truncate(time.Hour).Add(time.Hour)
	slots, err := e.api.AvailableSlots(ctx, id, from, from.Add(24*time.Hour), 1)
	if err != nil {
		e.logger.Debug("slots unavailable", "space", id, "err", err)
		return nil
	}
	if len(slots) > 0 {
		e.out.line("  open in the next 24h:")
		for _, slot := range slots {
			e.out.line("    %s - %s  %s", slot.StartTime.At(e.loc).Format("01-02 15:04"),
				slot.EndTime.At(e.loc).Format("15:04"), domain.FormatWon(slot.TotalPrice))
		}
	}
	return nil
}

func runBook(e *env, args []string) error {
	fs := newFlagSet("book")
	start := fs.String("start", "", "start time, YYYY-MM-DD HH:MM")
	end := fs.String("end", "", "end time, YYYY-MM-DD HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "space")
	if err != nil {
		return err
	}
	if err := e.requireLogin(); err != nil {
		return err
	}

	d := planner.Draft{SpaceID: id}
	if d.StartTime, err = planner.ParseLocal(*start, e.loc); err != nil {
		return errors.New("--start: use YYYY-MM-DD HH:MM")
	}
	if d.EndTime, err = planner.ParseLocal(*end, e.loc); err != nil {
		return errors.New("--end: use YYYY-MM-DD HH:MM")
	}
	if err := planner.Validate(d, e.now()); err != nil {
		return err
	}

	ctx := context.Background()
	if s, err := e.api.GetSpace(ctx, id); err == nil {
		e.out.dim("estimate %s (%dh × %s)", domain.FormatWon(planner.EstimateCost(d, s.PricePerHour)),
			planner.BillableHours(d), domain.FormatWon(s.PricePerHour))
	} else {
		e.logger.Debug("no estimate", "space", id, "err", err)
	}

	msg, err := e.api.CreateBooking(ctx, client.CreateBookingRequest{
		ParkingSpaceID: id,
		StartTime:      domain.LocalTime{Time: d.StartTime},
		EndTime:        domain.LocalTime{Time: d.EndTime},
	})
	if err != nil {
		return failed("book", err)
	}
	if msg == "" {
		msg = "Booking confirmed."
	}
	e.out.ok("%s", msg)
	return nil
}

func runBookings(e *env, _ []string) error {
	if err := e.requireLogin(); err != nil {
		return err
	}
	bookings, err := e.api.MyBookings(context.Background())
	if err != nil {
		return failed("bookings", err)
	}
	if len(bookings) == 0 {
		e.out.line("No bookings yet.")
		return nil
	}
	for _, b := range bookings {
		e.out.line("#%-5d %-9s %s - %s  %s  %s", b.ID, b.Status.Label(),
			b.StartTime.At(e.loc).Format("2006-01-02 15:04"), b.EndTime.At(e.loc).Format("15:04"),
			domain.FormatWon(b.TotalPrice), b.Address)
	}
	return nil
}

func runCancel(e *env, args []string) error {
	id, err := parseID(args, "booking")
	if err != nil {
		return err
	}
	if err := e.requireLogin(); err != nil {
		return err
	}
	msg, err := e.api.CancelBooking(context.Background(), id)
	if err != nil {
		return failed("cancel", err)
	}
	if msg == "" {
		msg = fmt.Sprintf("Booking #%d cancelled.", id)
	}
	e.out.ok("%s", msg)
	return nil
}

func runPublish(e *env, args []string) error {
	fs := newFlagSet("publish")
	address := fs.String("address", "", "street address")
	price := fs.Int64("price", 0, "price per hour in won, 0 for free")
	description := fs.String("description", "", "details shown to drivers")
	at := fs.String("at", "", "location as LAT,LNG")
	images := fs.String("images", "", "comma separated image URLs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*address) == "" {
		return errors.New("--address is required")
	}
	if !fs.Changed("price") {
		return errors.New("--price is required")
	}
	if *price < 0 {
		return errors.New("--price must be a whole number, 0 or more")
	}
	req := client.CreateSpaceRequest{
		Address:      strings.TrimSpace(*address),
		PricePerHour: *price,
		Description:  strings.TrimSpace(*description),
		ImageURLs:    strings.TrimSpace(*images),
	}
	if *at != "" {
		lat, lng, err := domain.ParseCoordinates(*at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		req.Latitude, req.Longitude = &lat, &lng
	}
	if err := e.requireLogin(); err != nil {
		return err
	}

	msg, err := e.api.CreateSpace(context.Background(), req)
	if err != nil {
		return failed("publish", err)
	}
	if msg == "" {
		msg = "Space published."
	}
	e.out.ok("%s", msg)
	return nil
}

// runUpdate edits an owned space. The backend replaces address, price and
// description together, so unset flags keep the current values.
func runUpdate(e *env, args []string) error {
	fs := newFlagSet("update")
	address := fs.String("address", "", "new street address")
	price := fs.Int64("price", 0, "new price per hour in won")
	description := fs.String("description", "", "new details")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "space")
	if err != nil {
		return err
	}
	if !fs.Changed("address") && !fs.Changed("price") && !fs.Changed("description") {
		return errors.New("nothing to update (use --address, --price or --description)")
	}
	if fs.Changed("address") && strings.TrimSpace(*address) == "" {
		return errors.New("--address cannot be empty")
	}
	if *price < 0 {
		return errors.New("--price must be a whole number, 0 or more")
	}
	if err := e.requireLogin(); err != nil {
		return err
	}

	ctx := context.Background()
	cur, err := e.api.GetSpace(ctx, id)
	if err != nil {
		return failed("update", err)
	}
	req := client.UpdateSpaceRequest{Address: cur.Address, PricePerHour: cur.PricePerHour, Description: cur.Description}
	if fs.Changed("address") {
		req.Address = strings.TrimSpace(*address)
	}
	if fs.Changed("price") {
		req.PricePerHour = *price
	}
	if fs.Changed("description") {
		req.Description = strings.TrimSpace(*description)
	}

	msg, err := e.api.UpdateSpace(ctx, id, req)
	if err != nil {
		return failed("update", err)
	}
	if msg == "" {
		msg = fmt.Sprintf("Space #%d updated.", id)
	}
	e.out.ok("%s", msg)
	return nil
}
