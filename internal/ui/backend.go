package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/logging"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.backend != nil {
		waitCmd := waitForBackendEvent(m.backend)
		if cmd != nil {
			return tea.Batch(cmd, waitCmd)
		}
		return waitCmd
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(msg tea.Msg) tea.Cmd {
	m.backend = nil
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	if m.backendState == nil {
		m.backendState = make(map[backend.Kind]error)
	}
	m.backendState[evt.Kind] = evt.Err
	if evt.Err != nil {
		logging.Error(evt.Err)
		m.backendLastErr = evt.Err.Error()
		return nil
	}

	res := m.dispatcher.Handle(evt)
	for _, node := range res.Sync.Removed {
		if unsubscribe, ok := m.subscriptions[node.Index()]; ok {
			unsubscribe()
			delete(m.subscriptions, node.Index())
		}
		m.closeDatabaseLevels(node.Index())
		if m.pendingDB == node.Index() {
			m.cancelPendingDatabase()
		}
	}

	var cmd tea.Cmd
	if res.DatabasesUpdated || res.CountsUpdated {
		m.refreshRootItems()
		if current := m.currentLevel(); current != nil && current.ID == rootLevelID {
			cmd = m.refreshPreviewForLevel(current)
		}
	}

	if warn, _ := m.hasBackendIssue(); !warn {
		m.backendLastErr = ""
	}
	return cmd
}

func (m *Model) hasBackendIssue() (bool, string) {
	for _, err := range m.backendState {
		if err != nil {
			msg := m.backendLastErr
			if msg == "" {
				msg = err.Error()
			}
			return true, msg
		}
	}
	return false, ""
}
