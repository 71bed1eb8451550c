package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/camoris/tareas/internal/auth"
)

type loginModel struct {
	sessions *auth.Manager

	email    textinput.Model
	password textinput.Model
	focus    int // 0 email, 1 password
	errLine  string
	busy     bool
}

type loginFailedMsg struct{ message string }

func newLogin(sessions *auth.Manager) loginModel {
	email := textinput.New()
	email.Prompt = "> "
	email.Placeholder = "you@mail.com"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Prompt = "> "
	password.Placeholder = "••••"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{sessions: sessions, email: email, password: password}
}

func (m loginModel) Init() tea.Cmd { return textinput.Blink }

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.password.Blur()
				return m, m.email.Focus()
			}
			m.email.Blur()
			return m, m.password.Focus()
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.email.Blur()
				return m, m.password.Focus()
			}
			m.busy = true
			m.errLine = ""
			return m, signIn(m.sessions, m.email.Value(), m.password.Value())
		}

	case loginFailedMsg:
		m.busy = false
		m.errLine = msg.message
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// signIn runs the blocking sign-in off the event loop. Success flows
// back as a session message so the guard can re-route.
func signIn(sessions *auth.Manager, email, password string) tea.Cmd {
	return func() tea.Msg {
		s, err := sessions.SignIn(context.Background(), email, password)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				return loginFailedMsg{message: authErr.Message}
			}
			return loginFailedMsg{message: "sign in failed"}
		}
		return sessionMsg(s)
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in") + "\n\n")
	b.WriteString("Email\n" + m.email.View() + "\n\n")
	b.WriteString("Password\n" + m.password.View() + "\n")
	if m.errLine != "" {
		b.WriteString("\n" + errorStyle.Render(m.errLine) + "\n")
	}
	if m.busy {
		b.WriteString("\n" + mutedStyle.Render("signing in...") + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter submit · tab switch field · esc quit"))
	return panelStyle.Render(b.String())
}
