package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/camoris/tareas/internal/auth"
	"github.com/camoris/tareas/internal/todo"
)

// App wires the screens to the domain layer. NewController is called
// after sign-in so the controller is always scoped to the live session.
type App struct {
	Sessions      *auth.Manager
	NewController func(s auth.Session) *todo.Controller
	RequirePhoto  bool // local variant: new tasks need a photo
}

// Run starts the interactive program.
func Run(app App) error {
	p := tea.NewProgram(newRoot(app), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenTabs
)

// route is the navigation guard: a pure function of the session
// snapshot. While the session loads nothing is routed; afterwards an
// identity opens the tab shell and its absence the login screen.
func route(s auth.Session) screen {
	switch {
	case s.Loading:
		return screenLoading
	case s.Authenticated():
		return screenTabs
	default:
		return screenLogin
	}
}

type sessionMsg auth.Session

type rootModel struct {
	app  App
	scr  screen
	spin spinner.Model

	login loginModel
	tabs  tabsModel

	width, height int
}

func newRoot(app App) rootModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return rootModel{app: app, scr: screenLoading, spin: sp}
}

func (m rootModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, readSession(m.app.Sessions))
}

func readSession(mgr *auth.Manager) tea.Cmd {
	return func() tea.Msg {
		_ = mgr.Initialize()
		return sessionMsg(mgr.Session())
	}
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.scr == screenTabs {
			var cmd tea.Cmd
			m.tabs, cmd = m.tabs.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case sessionMsg:
		next := route(auth.Session(msg))
		if next == m.scr {
			return m, nil
		}
		m.scr = next
		switch next {
		case screenLogin:
			m.login = newLogin(m.app.Sessions)
			return m, m.login.Init()
		case screenTabs:
			m.tabs = newTabs(m.app, auth.Session(msg), m.width, m.height)
			return m, m.tabs.Init()
		}
		return m, nil

	case spinner.TickMsg:
		if m.scr == screenLoading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	switch m.scr {
	case screenLogin:
		m.login, cmd = m.login.Update(msg)
	case screenTabs:
		m.tabs, cmd = m.tabs.Update(msg)
	}
	return m, cmd
}

func (m rootModel) View() string {
	switch m.scr {
	case screenLoading:
		return "\n  " + m.spin.View() + " loading session...\n"
	case screenLogin:
		return m.login.View()
	default:
		return m.tabs.View()
	}
}
