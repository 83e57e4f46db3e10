package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	noted "github.com/MrEthical07/noted"
	"github.com/MrEthical07/noted/metrics/export/prometheus"
	"github.com/MrEthical07/noted/notes"
)

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	user := fs.String("u", "", "username")
	password := fs.String("p", "", "password (default $NOTED_PASSWORD, then prompt)")
	if err := fs.Parse(args); err != nil {
		return usagef("login: %v", err)
	}

	if *user == "" {
		v, err := a.prompt("Username: ")
		if err != nil {
			return err
		}
		*user = v
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, *user, pw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", a.client.Session(ctx).Username)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	user := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password (default $NOTED_PASSWORD, then prompt)")
	if err := fs.Parse(args); err != nil {
		return usagef("register: %v", err)
	}
	if *user == "" || *email == "" {
		return usagef("register: -u and -e are required")
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	req := notes.RegisterRequest{Username: *user, Email: *email, Password: pw}
	if err := a.client.Register(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered and logged in as %s\n", *user)
	return nil
}

func (a *app) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("NOTED_PASSWORD"); env != "" {
		return env, nil
	}
	return a.prompt("Password: ")
}

func (a *app) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	id, err := a.client.Whoami(ctx)
	if errors.Is(err, noted.ErrNotAuthenticated) {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "username: %s\n", id.Username)
	if id.Role != "" {
		fmt.Fprintf(a.out, "role:     %s\n", id.Role)
	}
	if !id.ExpiresAt.IsZero() {
		state := "valid"
		if id.Expired {
			state = "expired"
		}
		fmt.Fprintf(a.out, "expires:  %s (%s)\n", id.ExpiresAt.Local().Format(time.RFC3339), state)
	}
	return nil
}

func (a *app) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("open: expected one path")
	}
	loc, err := a.client.NavigatePath(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", loc.Route.Name, loc.Path)
	return nil
}

func (a *app) routes() error {
	table := a.client.Routes()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tACCESS\tROLE")
	for _, r := range table.Routes() {
		access := "open"
		switch {
		case r.RequiresAuth:
			access = "auth"
		case r.Public:
			access = "public"
		}
		role := ""
		switch r.Name {
		case table.Login().Name:
			role = "login"
		case table.Landing().Name:
			role = "landing"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Path, access, role)
	}
	return w.Flush()
}

func (a *app) health(ctx context.Context) error {
	h, err := a.client.Notes().Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, h.Status)
	return nil
}

// metrics runs a nested command and prints the metrics it produced.
func (a *app) metrics(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("metrics: expected a command to run")
	}
	if args[0] == "metrics" {
		return usagef("metrics: cannot nest metrics")
	}
	runErr := a.dispatch(ctx, args)
	fmt.Fprint(a.out, prometheus.NewExporter(a.client).Render())
	return runErr
}

func (a *app) notes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("notes: expected list, show, add, edit or rm")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return a.listNotes(ctx)
	case "show":
		id, err := noteID(rest)
		if err != nil {
			return err
		}
		n, err := a.client.GetNote(ctx, id)
		if err != nil {
			return err
		}
		printNote(a.out, n)
		return nil
	case "add":
		return a.saveNote(ctx, 0, rest)
	case "edit":
		id, err := noteID(rest)
		if err != nil {
			return err
		}
		return a.saveNote(ctx, id, rest[1:])
	case "rm":
		id, err := noteID(rest)
		if err != nil {
			return err
		}
		if err := a.client.DeleteNote(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %d\n", id)
		return nil
	default:
		return usagef("notes: unknown subcommand %q", sub)
	}
}

func (a *app) listNotes(ctx context.Context) error {
	list, err := a.client.ListNotes(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTAGS\tUPDATED")
	for _, n := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.Title, strings.Join(n.Tags, ","), n.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// saveNote creates a note when id is 0 and edits it otherwise. Edits start from the
// stored note so unset flags keep their values.
func (a *app) saveNote(ctx context.Context, id int64, args []string) error {
	var req notes.NoteRequest
	if id != 0 {
		cur, err := a.client.GetNote(ctx, id)
		if err != nil {
			return err
		}
		req = notes.NoteRequest{
			Title:    cur.Title,
			Content:  cur.Content,
			Tags:     cur.Tags,
			ImageURL: cur.ImageURL,
			Public:   cur.Public,
		}
	}

	fs := a.flagSet("notes")
	title := fs.String("title", req.Title, "note title")
	content := fs.String("content", req.Content, "note content; - reads stdin")
	tags := fs.String("tags", strings.Join(req.Tags, ","), "comma-separated tags")
	image := fs.String("image", req.ImageURL, "image URL")
	public := fs.Bool("public", req.Public, "share the note publicly")
	if err := fs.Parse(args); err != nil {
		return usagef("notes: %v", err)
	}

	req.Title = *title
	req.Content = *content
	req.ImageURL = *image
	req.Public = *public
	req.Tags = splitTags(*tags)
	if req.Content == "-" {
		body, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		req.Content = string(body)
	}

	var (
		n   *notes.Note
		err error
	)
	if id == 0 {
		n, err = a.client.CreateNote(ctx, req)
	} else {
		n, err = a.client.UpdateNote(ctx, id, req)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %d\n", n.ID)
	return nil
}

func noteID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, usagef("notes: expected a note id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("notes: invalid note id %q", args[0])
	}
	return id, nil
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printNote(w io.Writer, n *notes.Note) {
	fmt.Fprintf(w, "#%d %s\n", n.ID, n.Title)
	if len(n.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(n.Tags, ", "))
	}
	if n.ImageURL != "" {
		fmt.Fprintf(w, "image: %s\n", n.ImageURL)
	}
	fmt.Fprintf(w, "updated: %s\n\n%s\n", n.UpdatedAt.Local().Format(time.DateTime), n.Content)
}
