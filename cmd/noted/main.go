// Command noted is a terminal client for the noted notes service.
//
//	noted login -u alice
//	noted notes list
//	noted open /notes/3
//	noted logout
//
// The session lives in ~/.noted/session.json unless configured otherwise.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	noted "github.com/MrEthical07/noted"
	"github.com/MrEthical07/noted/internal/logging"
)

const usage = `usage: noted [-config file] [-base-url url] [-session-file file] <command> [args]

commands:
  login [-u user] [-p password]     sign in and store the session
  register -u user -e email [-p pw] create an account and sign in
  logout                            clear the stored session
  whoami                            show what the stored token says
  open <path>                       navigate to path through the auth guard
  routes                            list the navigation table
  notes list|show|add|edit|rm       manage notes
  health                            probe the service
  metrics <command> [args]          run command, then print metrics
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	client *noted.Client
	stdin  *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("noted", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	var (
		configPath  = fs.String("config", "", "config file (default ~/.config/noted/config.yml)")
		baseURL     = fs.String("base-url", "", "notes service base URL")
		sessionFile = fs.String("session-file", "", "session file for the file backend")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := noted.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "noted: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	// A memory session would not survive the process.
	if cfg.Session.Backend == noted.SessionMemory {
		cfg.Session.Backend = noted.SessionFile
	}
	if *sessionFile != "" {
		cfg.Session.File = *sessionFile
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	builder := noted.New().WithConfig(cfg).WithLogger(logger)
	if cfg.Events.Enabled {
		builder = builder.WithEventSink(noted.NewJSONWriterSink(stderr))
	}
	client, err := builder.Build()
	if err != nil {
		fmt.Fprintf(stderr, "noted: %v\n", err)
		return 1
	}
	defer client.Close()

	a := &app{client: client, stdin: bufio.NewReader(stdin), out: stdout, errOut: stderr}
	if err := a.dispatch(ctx, fs.Args()); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "noted: %v\n", err)
			fmt.Fprint(stderr, usage)
			return 2
		}
		fmt.Fprintf(stderr, "noted: %v\n", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "open":
		return a.open(ctx, rest)
	case "routes":
		return a.routes()
	case "notes":
		return a.notes(ctx, rest)
	case "health":
		return a.health(ctx)
	case "metrics":
		return a.metrics(ctx, rest)
	default:
		return usagef("unknown command %q", cmd)
	}
}

// prompt reads one line from stdin after writing label to stderr.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.errOut, label)
	line, err := a.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
