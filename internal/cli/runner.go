package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/camoris/tareas/internal/api"
	"github.com/camoris/tareas/internal/auth"
	"github.com/camoris/tareas/internal/config"
	"github.com/camoris/tareas/internal/geo"
	"github.com/camoris/tareas/internal/photo"
	"github.com/camoris/tareas/internal/store/localstore"
	"github.com/camoris/tareas/internal/todo"
	"github.com/camoris/tareas/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Theme string // classic | neon | mono
}

// app wires config, credentials, session and stores for one invocation.
type app struct {
	cfg      config.Config
	creds    *auth.CredentialStore
	client   *api.Client // nil in the local variant
	sessions *auth.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	creds := auth.NewCredentialStore(cfg.DataDir)
	var client *api.Client
	if cfg.Remote() {
		client = api.New(cfg.APIBaseURL, creds.Token)
	}
	sessions := auth.NewManager(creds, client)
	if err := sessions.Initialize(); err != nil {
		return nil, err
	}
	return &app{cfg: cfg, creds: creds, client: client, sessions: sessions}, nil
}

// controllerFor builds a todo controller scoped to the given session.
func (a *app) controllerFor(s auth.Session) *todo.Controller {
	locator := geo.FixedLocator{Lat: a.cfg.Latitude, Lon: a.cfg.Longitude}
	if a.cfg.Remote() {
		return todo.NewRemote(todo.NewRemoteStore(a.client), locator)
	}
	store := todo.NewLocalStore(localstore.New(a.cfg.DataDir), s.Email)
	return todo.NewLocal(store, photo.NewStore(a.cfg.DataDir), locator)
}

// controller requires a signed-in session first.
func (a *app) controller() (*todo.Controller, error) {
	s := a.sessions.Session()
	if !s.Authenticated() {
		return nil, fmt.Errorf("not signed in. Run `tareas login`")
	}
	return a.controllerFor(s), nil
}

// ---------------------------------------------------
// CLI router
// ---------------------------------------------------

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	ui.SetTheme(opt.Theme)

	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "login":
		return doLogin()
	case "logout":
		return doLogout()
	case "status":
		return doStatus()
	case "whoami":
		return doWhoAmI()
	case "ls":
		return doList()
	case "add":
		return doAdd(a)
	case "done":
		if len(a) != 1 {
			ui.Fail("usage: tareas done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return doToggle(n)
	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: tareas rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return doRemove(n)
	case "profile":
		return doProfile()
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`tareas - a personal task tracker

Usage:
  tareas <subcommand> [args]

Subcommands:
  login                    Sign in (remote backend or local identity)
  logout                   Sign out and forget the stored session
  status                   Show session status
  whoami                   Show the signed-in identity
  ls                       Open the interactive screen
  add [-photo p] <title..> Add a new task
  done <index>             Toggle done for task at 1-based index
  rm <index>               Remove task at 1-based index (asks first)
  profile                  Show the profile panel

Examples:
  tareas login
  tareas add "Buy milk"
  tareas add -photo cat.jpg "Feed the cat"
  tareas ls
  tareas done 2
  tareas rm 3
`)
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func doLogin() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	in := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, _ := in.ReadString('\n')
	fmt.Print("Password: ")
	password, _ := in.ReadString('\n')

	_, err = a.sessions.SignIn(context.Background(),
		strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			ui.Fail(authErr.Message)
		} else {
			ui.Fail("login: " + err.Error())
		}
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doLogout() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	c, _ := a.creds.Get()
	if c != nil && c.Source == "env" {
		ui.OK("token is provided by TAREAS_TOKEN env var (nothing to delete)")
		return 0
	}
	a.sessions.SignOut()
	ui.OK("logged out")
	return 0
}

func doStatus() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	c, _ := a.creds.Get()
	if c == nil {
		fmt.Println(ui.C(ui.Current().Muted, "not signed in"))
		fmt.Println("Run: tareas login")
		return 0
	}
	fmt.Printf("source: %s\n", c.Source)
	if !c.CreatedAt.IsZero() {
		fmt.Printf("since: %s\n", c.CreatedAt.UTC().Format(time.RFC3339))
	}
	if a.cfg.Remote() {
		fmt.Println("variant: remote (" + a.cfg.APIBaseURL + ")")
	} else {
		fmt.Println("variant: local")
	}
	fmt.Println("env override: TAREAS_TOKEN")
	return 0
}

// doWhoAmI prints the identity; JWTs are decoded locally (unverified),
// opaque tokens print basic info.
func doWhoAmI() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	c, _ := a.creds.Get()
	if c == nil {
		ui.Fail("not signed in. Run: tareas login")
		return 2
	}
	if c.Email != "" {
		fmt.Println("email:", c.Email)
		return 0
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err == nil {
		b, _ := json.MarshalIndent(claims, "", "  ")
		fmt.Println("JWT payload:")
		fmt.Println(string(b))
		return 0
	}
	fmt.Println("Opaque token (cannot introspect locally).")
	fmt.Println("source:", c.Source)
	return 0
}

// ---------------------------------------------------
// Todo subcommands
// ---------------------------------------------------

func doList() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	err = ui.Run(ui.App{
		Sessions:      a.sessions,
		NewController: a.controllerFor,
		RequirePhoto:  !a.cfg.Remote(),
	})
	if err != nil {
		ui.Fail("ui: " + err.Error())
		return 1
	}
	return 0
}

func doAdd(args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	photoPath := fs.String("photo", "", "path to a photo to attach")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		ui.Fail("usage: tareas add [-photo path] <title...>")
		return 2
	}

	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	ctrl, err := a.controller()
	if err != nil {
		ui.Fail(err.Error())
		return 2
	}
	ctx := context.Background()
	if err := ctrl.Load(ctx); err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	created, err := ctrl.Create(ctx, title, *photoPath)
	if err != nil {
		var vErr *todo.ValidationError
		if errors.As(err, &vErr) {
			ui.Fail(vErr.Message)
			return 2
		}
		ui.Fail("save: " + err.Error())
		return 1
	}
	if created.Latitude != nil && created.Longitude != nil {
		ui.OK(fmt.Sprintf("added (Lat: %.5f, Lon: %.5f)", *created.Latitude, *created.Longitude))
	} else {
		ui.OK("added")
	}
	return 0
}

func doToggle(userIndex int) int {
	ctrl, entries, code := loadedController()
	if code != 0 {
		return code
	}
	if userIndex < 1 || userIndex > len(entries) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(entries), userIndex))
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Muted, "Hint: run `tareas ls` to see your tasks"))
		return 2
	}
	id := entries[userIndex-1].ID
	if err := ctrl.Toggle(context.Background(), id); err != nil {
		ui.Fail("save: " + err.Error())
		return 1
	}
	ui.OK("toggled")
	return 0
}

func doRemove(userIndex int) int {
	ctrl, entries, code := loadedController()
	if code != 0 {
		return code
	}
	if userIndex < 1 || userIndex > len(entries) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(entries), userIndex))
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Muted, "Hint: run `tareas ls` to see your tasks"))
		return 2
	}
	target := entries[userIndex-1]

	// Deleting is irreversible; always ask.
	fmt.Printf("Delete %q? [y/N]: ", target.Title)
	in := bufio.NewReader(os.Stdin)
	answer, _ := in.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println(ui.C(ui.Current().Muted, "cancelled"))
		return 0
	}

	ctx := context.Background()
	if err := ctrl.RequestDelete(target.ID); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if err := ctrl.ConfirmDelete(ctx, target.ID); err != nil {
		ui.Fail("delete: " + err.Error())
		return 1
	}
	ui.OK("removed")
	return 0
}

func doProfile() int {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	s := a.sessions.Session()
	t := ui.Current()
	var lines []string
	lines = append(lines, ui.C(t.Title, "Profile"))
	switch {
	case s.Email != "":
		lines = append(lines, "Email: "+ui.C(t.Accent, s.Email))
	case s.Token != "":
		lines = append(lines, "Signed in with a backend token.")
	default:
		lines = append(lines, "No identity found. Sign in again.")
	}
	lines = append(lines, ui.C(t.Muted, "Your tasks belong to this user and only this user can see them."))
	// Best effort: a quick completion summary when the store is reachable.
	if ctrl, err := a.controller(); err == nil {
		if err := ctrl.Load(context.Background()); err == nil {
			done, pending := ctrl.Stats()
			lines = append(lines, "")
			lines = append(lines, ui.C(t.Muted, ui.ProgressBar(done, done+pending, 28)))
		}
	}
	ui.Panel(lines)
	return 0
}

// loadedController builds the controller and performs the initial load.
func loadedController() (*todo.Controller, []todo.Entry, int) {
	a, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return nil, nil, 1
	}
	ctrl, err := a.controller()
	if err != nil {
		ui.Fail(err.Error())
		return nil, nil, 2
	}
	if err := ctrl.Load(context.Background()); err != nil {
		ui.Fail("load: " + err.Error())
		return nil, nil, 1
	}
	return ctrl, ctrl.Entries(), 0
}
