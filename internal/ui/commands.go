package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/menu"
)

// handleActionResultMsg settles a finished menu action. Database actions
// close their action menu; the browser itself keeps running.
func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(menu.ActionResult)
	if !ok {
		return nil
	}
	m.loading = false
	m.pendingID = ""
	m.pendingLabel = ""
	if result.Err != nil {
		m.errMsg = result.Err.Error()
		m.forceClearInfo()
		events.Action.Error(result.Err)
		return nil
	}
	if current := m.currentLevel(); current != nil && current.ID == "db" {
		m.popLevel()
	}
	if result.Info != "" {
		m.setInfo(result.Info)
	}
	events.Action.Success(result.Info)
	return m.ensurePreviewForCurrentLevel()
}

// loadMenuCmd runs loader off the UI loop. ctx is captured by the caller so
// the loader never reads model state concurrently.
func (m *Model) loadMenuCmd(id, title string, loader menu.Loader, ctx menu.Context) tea.Cmd {
	return func() tea.Msg {
		items, err := loader(ctx)
		if err != nil {
			logging.Error(err)
		}
		return categoryLoadedMsg{id: id, title: title, items: items, err: err, db: ctx.Database}
	}
}

// categoryLoadedMsg mirrors the async loader response.
type categoryLoadedMsg struct {
	id    string
	title string
	items []menu.Item
	err   error
	db    *keytree.DatabaseNode
}

func (m *Model) menuContext() menu.Context {
	return menu.Context{Database: m.focusDatabase()}
}
