package tui

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todosync/internal/api"
	"github.com/idilsaglam/todosync/internal/apitest"
	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
)

func newModel(t *testing.T, baseURL string) Model {
	t.Helper()
	c := api.NewClient(api.Config{BaseURL: baseURL, Timeout: 2 * time.Second})
	st := store.New(c)
	t.Cleanup(st.Close)
	return New(context.Background(), st, baseURL)
}

func press(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// exec runs cmd to completion and feeds its message back into the model.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func seeded(t *testing.T, descriptions ...string) (*apitest.Server, Model) {
	t.Helper()
	srv := apitest.NewServer(apitest.Options{})
	t.Cleanup(srv.Close)
	srv.Seed(descriptions...)
	m := newModel(t, srv.APIURL())
	return srv, exec(t, m, m.Init())
}

func TestModel_InitLoadsList(t *testing.T) {
	_, m := seeded(t, "one", "two")
	assert.Len(t, m.list.Items(), 2)
	assert.False(t, m.state.Loading)
	assert.Contains(t, m.View(), "two")
}

func TestModel_EmptyState(t *testing.T) {
	_, m := seeded(t)
	assert.Contains(t, m.View(), emptyState)
}

func TestModel_AddRejectsBlankInput(t *testing.T) {
	srv, m := seeded(t)
	m, _ = send(m, press("a"))
	require.Equal(t, modeAdd, m.mode)

	m.ti.SetValue("   ")
	m, cmd := send(m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, model.MsgDescriptionEmpty, m.inputErr)
	assert.Equal(t, 0, srv.Calls(apitest.RouteCreate))
}

func TestModel_AddCreates(t *testing.T) {
	srv, m := seeded(t)
	m, _ = send(m, press("a"))
	m.ti.SetValue("Buy milk")
	assert.Contains(t, m.View(), "8/500 characters")

	m, cmd := send(m, enter)
	assert.Equal(t, modeBrowse, m.mode)
	m = exec(t, m, cmd)

	require.Len(t, srv.Items(), 1)
	assert.Equal(t, "Buy milk", srv.Items()[0].Description)
	assert.Len(t, m.list.Items(), 1)
}

func TestModel_EditUpdatesSelected(t *testing.T) {
	srv, m := seeded(t, "draft")
	m, _ = send(m, press("e"))
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "draft", m.ti.Value())

	m.ti.SetValue("final")
	m, cmd := send(m, enter)
	m = exec(t, m, cmd)
	assert.Equal(t, "final", srv.Items()[0].Description)
	assert.Equal(t, "final", m.state.Todos[0].Description)
}

func TestModel_EscapeCancelsInput(t *testing.T) {
	_, m := seeded(t)
	m, _ = send(m, press("a"))
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
}

func TestModel_ToggleWithSpace(t *testing.T) {
	srv, m := seeded(t, "walk")
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = exec(t, m, cmd)
	assert.True(t, srv.Items()[0].Completed)
	assert.True(t, m.state.Todos[0].Completed)
}

func TestModel_PriorityCycles(t *testing.T) {
	srv, m := seeded(t, "walk")
	before := m.state.Todos[0].Priority.OrDefault()
	m, cmd := send(m, press("p"))
	m = exec(t, m, cmd)
	assert.Equal(t, before.Next(), srv.Items()[0].Priority)
	assert.Equal(t, before.Next(), m.state.Todos[0].Priority)
}

func TestModel_DeleteAsksFirst(t *testing.T) {
	srv, m := seeded(t, "one")
	m, _ = send(m, press("d"))
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), confirmDelete)

	m, cmd := send(m, press("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, srv.Items(), 1)

	m, _ = send(m, press("d"))
	m, cmd = send(m, press("y"))
	m = exec(t, m, cmd)
	assert.Empty(t, srv.Items())
	assert.Empty(t, m.list.Items())
}

func TestModel_FilterCycles(t *testing.T) {
	srv, m := seeded(t, "one")
	m, cmd := send(m, press("f"))
	m = exec(t, m, cmd)
	assert.Equal(t, filterPending, m.filter)
	assert.Equal(t, "completed=false", srv.LastQuery())

	m, cmd = send(m, press("f"))
	m = exec(t, m, cmd)
	assert.Equal(t, "completed=true", srv.LastQuery())
	assert.Contains(t, m.View(), "filter: completed")
}

func TestModel_LoadingIgnoresMutatingKeys(t *testing.T) {
	_, m := seeded(t, "one")
	m, _ = send(m, stateMsg(store.State{Todos: m.state.Todos, Loading: true}))
	assert.Contains(t, m.View(), "syncing…")

	for _, k := range []string{"a", "e", "d", "p", "f", "r"} {
		var cmd tea.Cmd
		m, cmd = send(m, press(k))
		assert.Nil(t, cmd, k)
		assert.Equal(t, modeBrowse, m.mode, k)
	}
}

func TestModel_StateMsgReplacesList(t *testing.T) {
	_, m := seeded(t)
	todos := []model.TodoItem{{ID: 7, Description: "pushed"}}
	m, _ = send(m, stateMsg(store.State{Todos: todos, Pending: []int64{7}}))
	require.Len(t, m.list.Items(), 1)
	assert.True(t, m.list.Items()[0].(listItem).pending)
	assert.Contains(t, m.View(), "pushed")
}

func TestModel_ConnectionBannerDismiss(t *testing.T) {
	dead := httptest.NewServer(nil)
	base := dead.URL + "/api"
	dead.Close()

	m := newModel(t, base)
	m = exec(t, m, m.Init())
	require.NotEmpty(t, m.state.Err)
	assert.Contains(t, m.View(), "Cannot connect to backend at "+base)
	assert.Contains(t, m.View(), "Backend Connection Issue")

	m, _ = send(m, press("x"))
	assert.NotContains(t, m.View(), "Cannot connect")
}

func TestModel_QuitKeys(t *testing.T) {
	_, m := seeded(t)
	_, cmd := send(m, press("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ConfirmDeleteWaitsForLoading(t *testing.T) {
	srv, m := seeded(t, "one")
	m, _ = send(m, press("d"))
	require.Equal(t, modeConfirmDelete, m.mode)

	m, _ = send(m, stateMsg(store.State{Todos: m.state.Todos, Loading: true}))
	m, cmd := send(m, press("y"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeConfirmDelete, m.mode)

	m, _ = send(m, stateMsg(store.State{Todos: m.state.Todos}))
	m, cmd = send(m, press("y"))
	m = exec(t, m, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, srv.Items())
}
