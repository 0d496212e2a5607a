package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ANSI color constants for command output (no lipgloss, runs outside TUI).
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[38;2;52;212;116m"  // #34d474
	ansiYellow = "\033[38;2;212;168;68m"  // #d4a844
	ansiSlate  = "\033[38;2;136;144;160m" // #8890a0
)

// printer writes subcommand results. Colors are used only on a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ansiReset
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) ok(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(ansiGreen+ansiBold, fmt.Sprintf(format, args...)))
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(ansiYellow, "warning: "+fmt.Sprintf(format, args...)))
}

func (p *printer) dim(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(ansiSlate, fmt.Sprintf(format, args...)))
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("P A R K M A T E")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Find a space, book it by the hour.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	entries := []struct{ cmd, desc string }{
		{"parkmate", "Browse and book interactively (TUI)"},
		{"parkmate login", "Log in (--email, --password-file)"},
		{"parkmate logout", "Clear your session"},
		{"parkmate signup", "Create an account"},
		{"parkmate status", "Show who is logged in"},
		{"parkmate spaces", "List spaces (--address, --sort, --page, --near, --mine)"},
		{"parkmate space <id>", "Show a space and its open slots"},
		{"parkmate book <id>", "Book a space (--start, --end)"},
		{"parkmate bookings", "List your bookings"},
		{"parkmate cancel <id>", "Cancel a reserved booking"},
		{"parkmate publish", "List a space (--address, --price, --at)"},
		{"parkmate update <id>", "Edit one of your spaces"},
		{"parkmate --version", "Show version"},
		{"parkmate help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range entries {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", c.cmd)), descStyle.Render(c.desc))
	}
	flags := descStyle.Render("Global flags: --config FILE  --env-file FILE  --api-url URL  --log-level LEVEL")
	fmt.Fprintf(w, "\n  %s\n\n", flags)
}
