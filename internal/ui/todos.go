package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/camoris/tareas/internal/model"
	"github.com/camoris/tareas/internal/todo"
)

// todoItem adapts a controller entry to bubbles/list.Item.
type todoItem struct {
	e todo.Entry
}

func (i todoItem) Title() string       { return i.e.Title }
func (i todoItem) Description() string { return "" }
func (i todoItem) FilterValue() string { return i.e.Title }

// Custom delegate: one line per item, state markers on the right.
type todoDelegate struct{}

func (d todoDelegate) Height() int                               { return 1 }
func (d todoDelegate) Spacing() int                              { return 0 }
func (d todoDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(todoItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.e.Title
	if it.e.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	extras := ""
	if it.e.Latitude != nil && it.e.Longitude != nil {
		extras += mutedStyle.Render(fmt.Sprintf("  (%.4f, %.4f)", *it.e.Latitude, *it.e.Longitude))
	}
	switch it.e.State {
	case todo.Pending:
		extras += pendingStyle.Render("  …saving")
	case todo.Reverting:
		extras += errorStyle.Render("  !resyncing")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text+extras)
}

const (
	modeList = iota
	modeAddTitle
	modeAddPhoto
	modeConfirm
)

type todosModel struct {
	ctrl         *todo.Controller
	requirePhoto bool

	list    list.Model
	spin    spinner.Model
	ti      textinput.Model
	loading bool
	saving  bool

	mode         int
	pendingTitle string
	confirmID    string
	confirmTitle string

	addErr string
	banner string

	width, height int
}

type listLoadedMsg struct{ err error }
type mutationDoneMsg struct{ err error }
type createdMsg struct {
	created model.Todo
	err     error
}

func newTodos(ctrl *todo.Controller, requirePhoto bool, w, h int) todosModel {
	l := list.New(nil, todoDelegate{}, w, h)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")
	l.Styles.PaginationStyle = helpStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	return todosModel{
		ctrl:         ctrl,
		requirePhoto: requirePhoto,
		list:         l,
		spin:         sp,
		ti:           ti,
		loading:      true,
		width:        w,
		height:       h,
	}
}

func (m todosModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, load(m.ctrl))
}

// capturing reports whether the screen owns the keyboard.
func (m todosModel) capturing() bool {
	return m.mode != modeList || m.list.FilterState() == list.Filtering
}

// ------- commands (blocking work off the event loop) -------

func load(ctrl *todo.Controller) tea.Cmd {
	return func() tea.Msg { return listLoadedMsg{err: ctrl.Load(context.Background())} }
}

// reload is the silent path: same full refetch, no loading screen.
func reload(ctrl *todo.Controller) tea.Cmd {
	return func() tea.Msg { return mutationDoneMsg{err: ctrl.Reload(context.Background())} }
}

func toggle(ctrl *todo.Controller, id string) tea.Cmd {
	return func() tea.Msg { return mutationDoneMsg{err: ctrl.Toggle(context.Background(), id)} }
}

func confirmDelete(ctrl *todo.Controller, id string) tea.Cmd {
	return func() tea.Msg { return mutationDoneMsg{err: ctrl.ConfirmDelete(context.Background(), id)} }
}

func create(ctrl *todo.Controller, title, photoPath string) tea.Cmd {
	return func() tea.Msg {
		t, err := ctrl.Create(context.Background(), title, photoPath)
		return createdMsg{created: t, err: err}
	}
}

// ------- update -------

func (m todosModel) Update(msg tea.Msg) (todosModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.saving {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case listLoadedMsg:
		m.loading = false
		m.refresh()
		if msg.err != nil {
			m.banner = errorStyle.Render(userText(msg.err))
		}
		return m, nil

	case mutationDoneMsg:
		m.saving = false
		m.refresh()
		if msg.err != nil {
			m.banner = errorStyle.Render(userText(msg.err))
		}
		return m, nil

	case createdMsg:
		m.saving = false
		var vErr *todo.ValidationError
		if msg.err != nil && errors.As(msg.err, &vErr) {
			// Validation failures keep the form open, message inline.
			m.addErr = vErr.Message
			m.mode = modeAddTitle
			m.ti.SetValue(m.pendingTitle)
			m.ti.Placeholder = "New task title..."
			return m, m.ti.Focus()
		}
		m.refresh()
		m.pendingTitle = ""
		if msg.err != nil {
			m.banner = errorStyle.Render(userText(msg.err))
			return m, nil
		}
		if msg.created.Latitude != nil && msg.created.Longitude != nil {
			m.banner = successStyle.Render("added") + mutedStyle.Render(
				fmt.Sprintf("  Lat: %.5f, Lon: %.5f", *msg.created.Latitude, *msg.created.Longitude))
		} else {
			m.banner = successStyle.Render("added") + mutedStyle.Render("  no location (denied or unavailable)")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m todosModel) handleKey(msg tea.KeyMsg) (todosModel, tea.Cmd) {
	switch m.mode {
	case modeAddTitle:
		switch msg.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			if title == "" {
				m.addErr = "title is required"
				return m, nil
			}
			if m.requirePhoto {
				m.pendingTitle = title
				m.mode = modeAddPhoto
				m.addErr = ""
				m.ti.SetValue("")
				m.ti.Placeholder = "Path to a photo..."
				return m, nil
			}
			m.mode = modeList
			m.addErr = ""
			m.saving = true
			m.pendingTitle = title
			m.ti.SetValue("")
			m.ti.Blur()
			return m, tea.Batch(m.spin.Tick, create(m.ctrl, title, ""))
		case "esc":
			m.mode = modeList
			m.addErr = ""
			m.ti.SetValue("")
			m.ti.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd

	case modeAddPhoto:
		switch msg.String() {
		case "enter":
			path := strings.TrimSpace(m.ti.Value())
			if path == "" {
				m.addErr = "photo is required"
				return m, nil
			}
			m.mode = modeList
			m.addErr = ""
			m.saving = true
			m.ti.SetValue("")
			m.ti.Blur()
			// pendingTitle stays set until the create succeeds so a
			// validation failure can reopen the form with it.
			return m, tea.Batch(m.spin.Tick, create(m.ctrl, m.pendingTitle, path))
		case "esc":
			m.mode = modeAddTitle
			m.ti.SetValue(m.pendingTitle)
			m.ti.Placeholder = "New task title..."
			return m, nil
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd

	case modeConfirm:
		switch msg.String() {
		case "y", "Y":
			id := m.confirmID
			m.mode = modeList
			m.confirmID, m.confirmTitle = "", ""
			m.saving = true
			return m, tea.Batch(m.spin.Tick, confirmDelete(m.ctrl, id))
		case "n", "N", "esc":
			m.ctrl.CancelDelete(m.confirmID)
			m.mode = modeList
			m.confirmID, m.confirmTitle = "", ""
			return m, nil
		}
		return m, nil
	}

	// modeList
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case " ":
		if it, ok := m.selected(); ok {
			m.banner = ""
			m.saving = true
			return m, tea.Batch(m.spin.Tick, toggle(m.ctrl, it.e.ID))
		}
		return m, nil
	case "d":
		if it, ok := m.selected(); ok {
			if err := m.ctrl.RequestDelete(it.e.ID); err == nil {
				m.mode = modeConfirm
				m.confirmID = it.e.ID
				m.confirmTitle = it.e.Title
			}
		}
		return m, nil
	case "a":
		m.mode = modeAddTitle
		m.banner = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New task title..."
		return m, m.ti.Focus()
	case "r":
		m.banner = ""
		return m, reload(m.ctrl)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m todosModel) selected() (todoItem, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it, ok
}

// refresh re-renders the list from the controller's entries.
func (m *todosModel) refresh() {
	entries := m.ctrl.Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, todoItem{e: e})
	}
	m.list.SetItems(items)
}

// ------- view -------

func (m todosModel) View() string {
	if m.loading {
		return panelStyle.Render(m.spin.View() + " loading tasks...")
	}

	done, pending := m.ctrl.Stats()
	header := fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("My tasks"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
	)

	var b strings.Builder
	b.WriteString(header + "\n\n")
	if len(m.ctrl.Entries()) == 0 {
		b.WriteString(mutedStyle.Render("No tasks yet. Press a to add one.") + "\n")
	} else {
		b.WriteString(m.list.View() + "\n")
	}

	switch m.mode {
	case modeAddTitle, modeAddPhoto:
		label := "New task"
		if m.mode == modeAddPhoto {
			label = "Attach a photo"
		}
		if m.addErr != "" {
			label += " — " + errorStyle.Render(m.addErr)
		}
		b.WriteString("\n" + panelStyle.Render(label+"\n"+m.ti.View()))
	case modeConfirm:
		q := fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", m.confirmTitle)
		b.WriteString("\n" + panelStyle.Render(errorStyle.Render(q)))
	}

	if m.saving {
		b.WriteString("\n" + m.spin.View() + mutedStyle.Render(" saving..."))
	}
	if m.banner != "" {
		b.WriteString("\n" + m.banner)
	}
	b.WriteString("\n" + helpStyle.Render("space toggle · a add · d delete · r refresh · / filter"))
	return b.String()
}

// userText converts domain errors to a short user-facing line.
func userText(err error) string {
	var vErr *todo.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return err.Error()
}
