// Package tui is the interactive list. It renders store snapshots and turns
// key presses into store operations; it holds no todo state of its own.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/ui"
)

const (
	emptyState    = "No TODO items yet. Create one to get started!"
	confirmDelete = "Are you sure you want to delete this TODO item?"
)

// stateMsg carries a store snapshot into the program.
type stateMsg store.State

// opDoneMsg reports the end of a store operation started from a key.
type opDoneMsg struct {
	op  string
	err error
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
)

type filterMode int

const (
	filterAll filterMode = iota
	filterPending
	filterCompleted
)

func (f filterMode) next() filterMode { return (f + 1) % 3 }

func (f filterMode) String() string {
	switch f {
	case filterPending:
		return "pending"
	case filterCompleted:
		return "completed"
	}
	return "all"
}

func (f filterMode) query() model.Filter {
	switch f {
	case filterPending:
		c := false
		return model.Filter{Completed: &c}
	case filterCompleted:
		c := true
		return model.Filter{Completed: &c}
	}
	return model.Filter{}
}

type keyMap struct {
	Add, Edit, Toggle, Delete, Priority, Filter, Refresh, Dismiss, Quit key.Binding
}

var keys = keyMap{
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Dismiss:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// mutating keys are ignored while an operation is in flight.
func (k keyMap) mutating() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Priority, k.Filter, k.Refresh}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Priority, k.Filter, k.Refresh, k.Dismiss}
}

// listItem adapts a TodoItem to bubbles/list.Item
type listItem struct {
	item    model.TodoItem
	pending bool
}

func (i listItem) Title() string       { return i.item.Description }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Description }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, ok := item.(listItem)
	if !ok {
		return
	}
	it := li.item

	box := mutedStyle.Render(boxUnchecked)
	text := ui.Truncate(it.Description, 80)
	if it.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	p := it.Priority.OrDefault()
	line := fmt.Sprintf("%s %s %s", box, priorityStyle(p).Render("["+string(p)+"]"), text)
	if c := it.CategoryOrEmpty(); c != "" {
		line += " " + accentStyle.Render("@"+c)
	}
	if it.DueDate != nil && !it.DueDate.IsZero() {
		line += " " + mutedStyle.Render("due "+it.DueDate.Format(model.DateLayout))
	}
	if li.pending {
		line += " " + syncingStyle.Render("syncing…")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

// Model is the Bubble Tea model for the interactive list.
type Model struct {
	ctx     context.Context
	st      *store.Store
	baseURL string

	list     list.Model
	ti       textinput.Model
	state    store.State
	banner   ui.Banner
	mode     mode
	inputErr string
	notice   string
	targetID int64
	filter   filterMode
	width    int
	height   int
}

// New builds the model over st. Nothing is fetched until Init runs.
func New(ctx context.Context, st *store.Store, baseURL string) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("item", "items")
	// f and d are ours; keep paging on arrows and pgup/pgdown.
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l/pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h/pgup", "prev page"))
	l.KeyMap.Quit.SetEnabled(false)
	l.AdditionalShortHelpKeys = keys.help
	l.AdditionalFullHelpKeys = keys.help

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = model.MaxDescriptionLen

	m := Model{
		ctx:     ctx,
		st:      st,
		baseURL: baseURL,
		list:    l,
		ti:      ti,
		width:   80,
		height:  24,
	}
	m.setState(st.Snapshot())
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.do("refresh", m.st.Refresh)
}

// do runs fn off the event loop and reports back with opDoneMsg.
func (m Model) do(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) setState(s store.State) {
	m.state = s
	m.banner.Observe(s.Err)

	pending := make(map[int64]bool, len(s.Pending))
	for _, id := range s.Pending {
		pending[id] = true
	}
	items := make([]list.Item, 0, len(s.Todos))
	for _, it := range s.Todos {
		items = append(items, listItem{item: it, pending: pending[it.ID]})
	}
	m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}

	done := 0
	for _, it := range s.Todos {
		if it.Completed {
			done++
		}
	}
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(s.Todos)-done,
		accentStyle.Render("Total"), len(s.Todos),
	)
}

func (m *Model) resize() {
	reserved := 6
	if m.mode != modeBrowse {
		reserved += 4
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.ti.Width = m.width - 12
}

func (m Model) selected() (model.TodoItem, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.TodoItem{}, false
	}
	return li.item, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case stateMsg:
		m.setState(store.State(msg))
		return m, nil

	case opDoneMsg:
		m.setState(m.st.Snapshot())
		var busy *model.BusyError
		if errors.As(msg.err, &busy) {
			m.notice = busy.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateInput(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Dismiss):
		m.banner.Dismiss()
		return m, nil
	}
	if m.state.Loading && key.Matches(msg, keys.mutating()...) {
		return m, nil
	}

	st := m.st
	switch {
	case key.Matches(msg, keys.Add):
		m.openInput(modeAdd, 0, "")
		return m, textinput.Blink

	case key.Matches(msg, keys.Edit):
		if it, ok := m.selected(); ok {
			m.openInput(modeEdit, it.ID, it.Description)
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, keys.Toggle):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.do("toggle", func(ctx context.Context) error {
				_, err := st.ToggleComplete(ctx, id)
				return err
			})
		}
		return m, nil

	case key.Matches(msg, keys.Delete):
		if it, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.targetID = it.ID
		}
		return m, nil

	case key.Matches(msg, keys.Priority):
		if it, ok := m.selected(); ok {
			id, next := it.ID, it.Priority.Next()
			return m, m.do("priority", func(ctx context.Context) error {
				_, err := st.Update(ctx, id, model.UpdateInput{Priority: &next})
				return err
			})
		}
		return m, nil

	case key.Matches(msg, keys.Filter):
		m.filter = m.filter.next()
		f := m.filter.query()
		return m, m.do("filter", func(ctx context.Context) error {
			return st.SetFilter(ctx, f)
		})

	case key.Matches(msg, keys.Refresh):
		return m, m.do("refresh", st.Refresh)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) openInput(md mode, id int64, value string) {
	m.mode = md
	m.targetID = id
	m.inputErr = ""
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	if md == modeAdd {
		m.ti.Placeholder = "What needs to be done?"
	} else {
		m.ti.Placeholder = "Edit item description..."
	}
	m.ti.Focus()
	m.resize()
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		desc, err := model.ValidateDescription(m.ti.Value())
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		md, id, st := m.mode, m.targetID, m.st
		m.closeInput()
		if md == modeAdd {
			return m, m.do("create", func(ctx context.Context) error {
				_, err := st.Create(ctx, model.CreateInput{Description: desc})
				return err
			})
		}
		return m, m.do("update", func(ctx context.Context) error {
			_, err := st.Update(ctx, id, model.UpdateInput{Description: &desc})
			return err
		})
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		if m.state.Loading {
			return m, nil
		}
		id, st := m.targetID, m.st
		m.mode = modeBrowse
		return m, m.do("delete", func(ctx context.Context) error {
			return st.Delete(ctx, id)
		})
	case "n", "esc":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	if text := m.banner.Text(); text != "" {
		b.WriteString(errorStyle.Render("✖ "+text) + " " + mutedStyle.Render("(x to dismiss)") + "\n")
		if ui.IsConnectionMessage(text) {
			for _, ln := range ui.ConnectionHint(m.baseURL) {
				b.WriteString(hintStyle.Render("  "+ln) + "\n")
			}
		}
	}
	if m.notice != "" {
		b.WriteString(pendingStyle.Render(m.notice) + "\n")
	}

	status := mutedStyle.Render("filter: " + m.filter.String())
	if m.state.Loading {
		status += "  " + syncingStyle.Render("syncing…")
	}
	b.WriteString(status + "\n")

	if len(m.state.Todos) == 0 && !m.state.Loading {
		b.WriteString(mutedStyle.Render(emptyState) + "\n")
	}
	b.WriteString(m.list.View())

	switch m.mode {
	case modeAdd, modeEdit:
		title := "Add new item"
		if m.mode == modeEdit {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += "  " + errorStyle.Render(m.inputErr)
		}
		counter := mutedStyle.Render(fmt.Sprintf("%d/%d characters",
			utf8.RuneCountInString(m.ti.Value()), model.MaxDescriptionLen))
		b.WriteString("\n" + frameStyle.Render(title+"\n"+m.ti.View()+"\n"+counter))
	case modeConfirmDelete:
		b.WriteString("\n" + frameStyle.Render(errorStyle.Render(confirmDelete)+" "+mutedStyle.Render("(y/n)")))
	}
	return frameStyle.Render(b.String())
}

// Options configure Run.
type Options struct {
	BaseURL   string
	AltScreen bool
	Input     io.Reader
	Output    io.Writer
}

// Run drives the program until the user quits. The store is closed on the
// way out so responses that arrive late are dropped.
func Run(ctx context.Context, st *store.Store, opts Options) error {
	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(New(ctx, st, opts.BaseURL), popts...)
	unsubscribe := st.Subscribe(func(s store.State) { p.Send(stateMsg(s)) })
	defer func() {
		unsubscribe()
		st.Close()
	}()

	_, err := p.Run()
	return err
}
