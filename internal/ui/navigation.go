package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/menu"
	"github.com/atomicstack/keyspace-browser/internal/ui/command"
	uistate "github.com/atomicstack/keyspace-browser/internal/ui/state"
)

func (m *Model) handleEscapeKey() tea.Cmd {
	current := m.currentLevel()
	if current == nil {
		return tea.Quit
	}
	if len(m.stack) <= 1 {
		if m.pendingDB != uistate.NoDatabase {
			m.cancelPendingDatabase()
			return nil
		}
		return tea.Quit
	}
	m.popLevel()
	m.errMsg = ""
	m.forceClearInfo()
	return m.ensurePreviewForCurrentLevel()
}

func (m *Model) popLevel() {
	if len(m.stack) <= 1 {
		return
	}
	current := m.currentLevel()
	parent := m.stack[len(m.stack)-2]
	m.stack = m.stack[:len(m.stack)-1]
	m.clearPreview(current.ID)
	if parent.LastCursor >= 0 && parent.LastCursor < len(parent.Items) {
		parent.Cursor = parent.LastCursor
	} else if idx := parent.IndexOf(current.ID); idx >= 0 {
		parent.Cursor = idx
	} else if len(parent.Items) > 0 {
		parent.Cursor = len(parent.Items) - 1
	}
	parent.LastCursor = -1
	m.syncViewport(parent)
}

// cancelPendingDatabase stops waiting for a database the user no longer
// wants to open. The load itself keeps running and fills the tree.
func (m *Model) cancelPendingDatabase() {
	m.pendingDB = uistate.NoDatabase
	m.loading = false
	m.pendingID = ""
	m.pendingLabel = ""
}

func (m *Model) handleEnterKey() tea.Cmd {
	current := m.currentLevel()
	if current == nil || len(current.Items) == 0 {
		return nil
	}
	if current.Cursor < 0 || current.Cursor >= len(current.Items) {
		return nil
	}
	item := current.Items[current.Cursor]
	events.UI.MenuEnter(current.ID, item.ID, item.Label, current.Filter)
	if item.Node != nil {
		return m.enterNode(current, item)
	}
	if m.loading {
		return nil
	}
	ctx := m.menuContext()
	beforeCursor := current.FilterCursorPos()
	current.SetFilter("", 0)
	m.noteFilterCursorChange(current, beforeCursor)
	node := current.Node
	if node == nil {
		node, _ = m.registry.Find(current.ID)
	}
	if node != nil {
		if child, ok := node.Children[item.ID]; ok {
			if child.Loader != nil {
				return m.openMenu(child, item.Label, ctx)
			}
			if child.Action != nil {
				return m.runAction(ctx, child.ID, item, child.Action)
			}
		}
		if node.Action != nil {
			return m.runAction(ctx, node.ID, item, node.Action)
		}
	}
	m.setInfo(fmt.Sprintf("Selected %s (no action defined yet)", item.Label))
	return nil
}

func (m *Model) enterNode(current *level, item menu.Item) tea.Cmd {
	switch node := item.Node.(type) {
	case *keytree.DatabaseNode:
		m.activateDatabase(node)
		return nil
	case *keytree.NamespaceNode:
		beforeCursor := current.FilterCursorPos()
		current.SetFilter("", 0)
		m.noteFilterCursorChange(current, beforeCursor)
		if idx := indexOfNode(current, node); idx >= 0 {
			current.Cursor = idx
		}
		return m.openNamespaceLevel(current, node)
	case *keytree.KeyNode:
		m.setInfo(node.FullKey())
		return m.ensurePreviewForLevel(current)
	}
	return nil
}

func indexOfNode(l *level, node keytree.Node) int {
	for i, item := range l.Items {
		if item.Node == node {
			return i
		}
	}
	return -1
}

func (m *Model) runAction(ctx menu.Context, id string, item menu.Item, action menu.Action) tea.Cmd {
	m.loading = true
	m.pendingID = id
	m.pendingLabel = item.Label
	m.errMsg = ""
	m.forceClearInfo()
	return m.bus.Execute(ctx, command.Request{ID: id, Label: item.Label, Handler: action, Item: item})
}

// openMenu loads a registry submenu such as the database actions or help.
func (m *Model) openMenu(node *menu.Node, title string, ctx menu.Context) tea.Cmd {
	if current := m.currentLevel(); current != nil {
		current.LastCursor = current.Cursor
	}
	m.loading = true
	m.pendingID = node.ID
	m.pendingLabel = title
	m.errMsg = ""
	m.forceClearInfo()
	return m.loadMenuCmd(node.ID, title, node.Loader, ctx)
}

func (m *Model) openDatabaseActions() tea.Cmd {
	db := m.focusDatabase()
	if db == nil {
		m.setInfo("No database selected.")
		return nil
	}
	node, ok := m.registry.Find("db")
	if !ok || m.loading {
		return nil
	}
	if current := m.currentLevel(); current != nil && current.ID == node.ID {
		return nil
	}
	return m.openMenu(node, fmt.Sprintf("%s actions", db.Name()), menu.Context{Database: db})
}

func (m *Model) openHelp() tea.Cmd {
	node, ok := m.registry.Find("help")
	if !ok || m.loading {
		return nil
	}
	if current := m.currentLevel(); current != nil && current.ID == node.ID {
		return nil
	}
	return m.openMenu(node, "help", menu.Context{})
}

func (m *Model) requestAddKey() tea.Cmd {
	db := m.focusDatabase()
	if db == nil {
		m.setInfo("No database selected.")
		return nil
	}
	for _, action := range db.SecondaryActions() {
		if action.ID == keytree.ActionAddKey {
			action.Run()
		}
	}
	return nil
}

func (m *Model) moveCursorUp() {
	if current := m.currentLevel(); current != nil {
		if n := len(current.Items); n > 0 {
			if current.Cursor > 0 {
				current.Cursor--
			} else {
				current.Cursor = n - 1
			}
			events.UI.MenuCursor(current.ID, current.Cursor)
			m.syncViewport(current)
		}
	}
}

func (m *Model) moveCursorDown() {
	if current := m.currentLevel(); current != nil {
		if n := len(current.Items); n > 0 {
			if current.Cursor < n-1 {
				current.Cursor++
			} else {
				current.Cursor = 0
			}
			events.UI.MenuCursor(current.ID, current.Cursor)
			m.syncViewport(current)
		}
	}
}

func (m *Model) moveCursorPageUp() {
	if current := m.currentLevel(); current != nil {
		if moved := current.MoveCursorPageUp(m.maxVisibleItems()); moved {
			events.UI.MenuCursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorPageDown() {
	if current := m.currentLevel(); current != nil {
		if moved := current.MoveCursorPageDown(m.maxVisibleItems()); moved {
			events.UI.MenuCursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorHome() {
	if current := m.currentLevel(); current != nil {
		if moved := current.MoveCursorHome(); moved {
			events.UI.MenuCursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorEnd() {
	if current := m.currentLevel(); current != nil {
		if moved := current.MoveCursorEnd(); moved {
			events.UI.MenuCursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleItems())
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if m.mode != ModeMenu {
		return nil
	}
	if keyMsg.Type == tea.KeyTab {
		if current := m.currentLevel(); current != nil && current.MultiSelect {
			current.ToggleCurrentSelection()
		}
		return nil
	}
	if keyMsg.String() == "?" && m.currentLevel().Filter == "" {
		return m.openHelp()
	}
	if handled, cmd := m.handleTextInput(keyMsg); handled {
		return cmd
	}
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		return m.handleEscapeKey()
	case "enter":
		return m.handleEnterKey()
	case "ctrl+o":
		return m.openDatabaseActions()
	case "ctrl+r":
		return m.reloadDatabases()
	case "ctrl+f":
		return m.applyKeyFilter()
	case "ctrl+n":
		return m.requestAddKey()
	case "up":
		m.moveCursorUp()
	case "down":
		m.moveCursorDown()
	case "pgup":
		m.moveCursorPageUp()
	case "pgdown":
		m.moveCursorPageDown()
	case "home":
		m.moveCursorHome()
	case "end":
		m.moveCursorEnd()
	default:
		return nil
	}
	return m.ensurePreviewForCurrentLevel()
}

func (m *Model) handleCategoryLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(categoryLoadedMsg)
	if !ok {
		return nil
	}
	if update.id != m.pendingID {
		return nil
	}
	m.loading = false
	m.pendingID = ""
	m.pendingLabel = ""
	if update.err != nil {
		m.errMsg = update.err.Error()
		return nil
	}
	m.errMsg = ""
	node, _ := m.registry.Find(update.id)
	lvl := newLevel(update.id, update.title, update.items, node)
	if len(lvl.Items) > 0 {
		lvl.Cursor = 0
	}
	if update.db != nil {
		lvl.DB = update.db.Index()
		lvl.Owner = update.db
	}
	m.syncViewport(lvl)
	m.stack = append(m.stack, lvl)
	if len(lvl.Items) == 0 {
		m.setInfo("No entries found.")
	} else if m.infoMsg != "" {
		m.clearInfo()
	}
	return nil
}

func (m *Model) findLevelByID(id string) *level {
	for _, lvl := range m.stack {
		if lvl.ID == id {
			return lvl
		}
	}
	return nil
}

func (m *Model) currentLevel() *level {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}
