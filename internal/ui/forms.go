package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/menu"
)

// handleKeyForm routes key presses to the add-key form. Other messages are
// shown to the form too, for cursor blinking, but stay unhandled so action
// results and backend updates keep flowing.
func (m *Model) handleKeyForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.keyForm == nil {
		return false, nil
	}
	_, isKey := msg.(tea.KeyMsg)
	cmd, done, cancel := m.keyForm.Update(msg)
	if !isKey {
		return false, cmd
	}
	if cancel {
		m.keyForm = nil
		m.mode = ModeMenu
		return true, cmd
	}
	if done {
		m.pendingID = keytree.ActionAddKey
		m.pendingLabel = m.keyForm.PendingLabel()
		m.loading = true
		m.keyForm = nil
		m.mode = ModeMenu
		return true, cmd
	}
	return true, cmd
}

func (m *Model) startKeyForm(prompt menu.NewKeyPrompt) {
	if prompt.Name == "" {
		if node := m.databases.Node(prompt.DB); node != nil {
			prompt.Name = node.Name()
		}
	}
	m.keyForm = menu.NewKeyForm(m.ctx, prompt, m.ops, m.namespacePrefix(prompt.DB))
	m.mode = ModeKeyForm
}

// namespacePrefix is the key prefix of the deepest namespace level open in
// database db, including a trailing separator.
func (m *Model) namespacePrefix(db int) string {
	if m.ops == nil {
		return ""
	}
	sep := m.ops.NamespaceSeparator()
	if sep == "" {
		return ""
	}
	for i := len(m.stack) - 1; i > 0; i-- {
		lvl := m.stack[i]
		if lvl.DB != db {
			continue
		}
		if ns, ok := lvl.Owner.(*keytree.NamespaceNode); ok {
			return strings.Join(keytree.Path(ns), sep) + sep
		}
	}
	return ""
}

func (m *Model) viewKeyFormWithHeader(header string) string {
	form := m.keyForm
	lines := []string{}
	if header != "" {
		lines = append(lines, header)
	}
	lines = append(lines, form.Title(), "", form.KeyView(), form.ValueView())
	if err := form.Error(); err != "" {
		lines = append(lines, "", styles.Error.Render(err))
	}
	lines = append(lines, "", form.Help())
	return strings.Join(lines, "\n")
}
