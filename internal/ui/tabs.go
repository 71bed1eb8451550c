package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/camoris/tareas/internal/auth"
)

const (
	tabHome = iota
	tabTodos
	tabProfile
)

var tabNames = []string{"Home", "Todos", "Profile"}

type tabsModel struct {
	app     App
	session auth.Session
	active  int

	todos todosModel

	width, height int
}

func newTabs(app App, s auth.Session, w, h int) tabsModel {
	ctrl := app.NewController(s)
	return tabsModel{
		app:     app,
		session: s,
		active:  tabHome,
		todos:   newTodos(ctrl, app.RequirePhoto, w, h),
		width:   w,
		height:  h,
	}
}

func (m tabsModel) Init() tea.Cmd { return m.todos.Init() }

func (m tabsModel) Update(msg tea.Msg) (tabsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		var cmd tea.Cmd
		m.todos, cmd = m.todos.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// While the todo screen captures text input, every key is its.
		if m.active == tabTodos && m.todos.capturing() {
			var cmd tea.Cmd
			m.todos, cmd = m.todos.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab", "right":
			m.active = (m.active + 1) % len(tabNames)
			return m, nil
		case "shift+tab", "left":
			m.active = (m.active + len(tabNames) - 1) % len(tabNames)
			return m, nil
		case "1", "2", "3":
			m.active = int(msg.String()[0] - '1')
			return m, nil
		case "s":
			if m.active == tabProfile {
				return m, signOut(m.app.Sessions)
			}
		}
		// Remaining keys belong to the visible tab only.
		if m.active == tabTodos {
			var cmd tea.Cmd
			m.todos, cmd = m.todos.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Background messages (spinner ticks, command results) always reach
	// the todo screen, whichever tab is visible.
	var cmd tea.Cmd
	m.todos, cmd = m.todos.Update(msg)
	return m, cmd
}

// signOut clears the session; the guard re-routes to the login screen.
func signOut(sessions *auth.Manager) tea.Cmd {
	return func() tea.Msg {
		sessions.SignOut()
		return sessionMsg(sessions.Session())
	}
}

func (m tabsModel) View() string {
	var bar []string
	for i, name := range tabNames {
		if i == m.active {
			bar = append(bar, activeTabStyle.Render(name))
		} else {
			bar = append(bar, tabStyle.Render(name))
		}
	}
	header := strings.Join(bar, "")

	var body string
	switch m.active {
	case tabHome:
		body = m.homeView()
	case tabTodos:
		body = m.todos.View()
	case tabProfile:
		body = m.profileView()
	}
	help := helpStyle.Render("tab/shift+tab switch · 1/2/3 jump · q quit")
	return header + "\n\n" + body + "\n" + help
}

func (m tabsModel) homeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome 👋") + "\n\n")
	if id := m.session.Identity(); id != "" {
		b.WriteString("Signed in as: " + accentStyle.Render(id) + "\n")
	}
	b.WriteString("This is the main screen.\n")
	b.WriteString(mutedStyle.Render("Use the Todos tab to manage your tasks.") + "\n")
	return panelStyle.Render(b.String())
}

func (m tabsModel) profileView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile") + "\n\n")
	if m.session.Email != "" {
		b.WriteString("Email: " + accentStyle.Render(m.session.Email) + "\n")
	} else if m.session.Token != "" {
		b.WriteString("Signed in with a backend token.\n")
	} else {
		b.WriteString("No identity found. Sign in again.\n")
	}
	b.WriteString(mutedStyle.Render("Your tasks belong to this user and only this user can see them.") + "\n")
	b.WriteString("\n" + helpStyle.Render("s sign out"))
	return panelStyle.Render(b.String())
}
