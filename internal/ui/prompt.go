package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/menu"
)

type promptResult struct {
	Cmd  tea.Cmd
	Info string
	Err  error
}

// withPrompt centralises the common prompt flow: reset pending state and
// execute the provided action. The action can return a promptResult to
// control follow-up behaviour (command to run, informational message, or
// error).
func (m *Model) withPrompt(action func() promptResult) tea.Cmd {
	m.loading = false
	m.pendingID = ""
	m.pendingLabel = ""
	m.forceClearInfo()
	m.errMsg = ""
	if action == nil {
		return nil
	}
	result := action()
	if result.Err != nil {
		m.errMsg = result.Err.Error()
		return nil
	}
	if result.Info != "" {
		m.setInfo(result.Info)
	}
	return result.Cmd
}

// requestNewKey is installed as the backend's add-key hook. It runs inside
// Update, so it only queues the prompt.
func (m *Model) requestNewKey(db int) {
	prompt := menu.NewKeyPrompt{DB: db}
	m.deferred = append(m.deferred, func() tea.Msg { return prompt })
}

func (m *Model) handleNewKeyPromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.NewKeyPrompt)
	if !ok {
		return nil
	}
	return m.withPrompt(func() promptResult {
		if m.databases.Node(prompt.DB) == nil {
			return promptResult{Err: fmt.Errorf("database %d is gone", prompt.DB)}
		}
		m.startKeyForm(prompt)
		return promptResult{}
	})
}

// handleKeyAddedMsg reports a write and refreshes the database so the new
// key shows up. A database that was never opened stays unloaded.
func (m *Model) handleKeyAddedMsg(msg tea.Msg) tea.Cmd {
	added, ok := msg.(menu.KeyAddedMsg)
	if !ok {
		return nil
	}
	return m.withPrompt(func() promptResult {
		if added.Err != nil {
			events.Action.Error(added.Err)
			return promptResult{Err: added.Err}
		}
		node := m.databases.Node(added.DB)
		if node == nil {
			return promptResult{Info: fmt.Sprintf("Added %s", added.Key)}
		}
		if node.ChildCount() > 0 || node.State() == keytree.StateLoading {
			node.Reload()
		}
		info := fmt.Sprintf("Added %s to %s", added.Key, node.Name())
		events.Action.Success(info)
		return promptResult{Info: info}
	})
}
