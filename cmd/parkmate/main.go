package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/parkingmate/parkmate/internal/config"
	"github.com/parkingmate/parkmate/internal/logging"
	"github.com/parkingmate/parkmate/internal/session"
	"github.com/parkingmate/parkmate/internal/tui"
	"github.com/parkingmate/parkmate/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted before the subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	apiURL     string
	logLevel   string
	version    bool
	help       bool
}

func parseGlobal(args []string) (globalFlags, []string, error) {
	var g globalFlags
	fs := pflag.NewFlagSet("parkmate", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVar(&g.configFile, "config", "", "config file (.toml or .yaml)")
	fs.StringVar(&g.envFile, "env-file", "", "dotenv file to load")
	fs.StringVar(&g.apiURL, "api-url", "", "backend base URL")
	fs.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVarP(&g.version, "version", "v", false, "print the version")
	fs.BoolVarP(&g.help, "help", "h", false, "show help")
	if err := fs.Parse(args); err != nil {
		return g, nil, err
	}
	return g, fs.Args(), nil
}

func run(args []string, stdout io.Writer) error {
	g, rest, err := parseGlobal(args)
	if err != nil {
		return err
	}
	if g.version {
		fmt.Fprintln(stdout, "parkmate "+version)
		return nil
	}
	if g.help {
		printHelp(stdout)
		return nil
	}

	name := ""
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}
	switch name {
	case "version":
		fmt.Fprintln(stdout, "parkmate "+version)
		return nil
	case "help":
		printHelp(stdout)
		return nil
	}

	cmd, ok := commands[name]
	if name != "" && !ok {
		return fmt.Errorf("unknown command %q (see parkmate help)", name)
	}

	e, err := setup(g, stdout, name == "")
	if err != nil {
		return err
	}
	defer e.Close()

	if name == "" {
		return e.runTUI()
	}
	return cmd(e, rest)
}

// env is everything a subcommand needs.
type env struct {
	cfg     *config.Config
	loc     *time.Location
	logger  *slog.Logger
	sess    *session.Store
	api     *client.Client
	out     *printer
	now     func() time.Time
	prompt  func(label string, secret bool) (string, error)
	closers []io.Closer
}

// setup loads configuration and opens the session. The TUI logs to a
// file because it owns the terminal.
func setup(g globalFlags, stdout io.Writer, forTUI bool) (*env, error) {
	cfg, err := config.LoadWith(config.Options{
		ConfigFile: g.configFile,
		EnvFile:    g.envFile,
		APIURL:     g.apiURL,
		LogLevel:   g.logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	e := &env{cfg: cfg, loc: loc, now: time.Now, out: newPrinter(stdout)}
	e.prompt = e.promptTerminal
	if forTUI {
		logger, closer, err := logging.OpenFile(cfg.StateDir, level)
		if err != nil {
			return nil, err
		}
		e.logger = logger
		e.closers = append(e.closers, closer)
	} else {
		e.logger = logging.NewCommandLogger(level)
	}

	e.api = client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout), client.WithLogger(e.logger))
	sess, err := session.Open(session.NewFileStore(cfg.StateDir),
		session.WithLogger(e.logger), session.WithCredential(e.api))
	if err != nil {
		// An unreadable token file leaves the user logged out.
		e.logger.Warn("session not restored", "err", err)
	}
	e.sess = sess
	return e, nil
}

func (e *env) Close() {
	for _, c := range e.closers {
		c.Close() //nolint:errcheck
	}
}

func (e *env) runTUI() error {
	e.logger.Info("starting", "version", version, "api", e.cfg.APIURL, "logged_in", e.sess.IsLoggedIn())
	app := tui.NewApp(e.api, e.sess, e.loc, e.logger)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// promptTerminal reads one line from stdin. Secret input is not echoed
// when stdin is a terminal.
func (e *env) promptTerminal(label string, secret bool) (string, error) {
	fmt.Fprint(os.Stderr, label+": ")
	fd := int(os.Stdin.Fd())
	if secret && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", label, err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
