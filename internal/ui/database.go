package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/menu"
	uistate "github.com/atomicstack/keyspace-browser/internal/ui/state"
)

func (m *Model) newDatabaseNode(db keystore.Database) *keytree.DatabaseNode {
	node := keytree.NewDatabaseNode(keytree.DatabaseConfig{
		Name:       db.String(),
		Index:      db.Index,
		Operations: m.operations(),
		Executor:   teaExecutor{m: m},
		Context:    m.ctx,
	})
	if m.keyFilter != nil {
		node.SetFilter(m.keyFilter)
	}
	if unsubscribe, ok := m.subscriptions[db.Index]; ok {
		unsubscribe()
	}
	m.subscriptions[db.Index] = node.Subscribe(m.queueNodeEvent)
	return node
}

func (m *Model) operations() keytree.Operations {
	if m.ops == nil {
		return nil
	}
	return m.ops
}

// queueNodeEvent defers handling to the end of the current Update step so a
// burst such as Reload's unload-then-load is judged on the final node state.
func (m *Model) queueNodeEvent(evt keytree.Event) {
	m.nodeEvents = append(m.nodeEvents, evt)
}

func (m *Model) drainNodeEvents() tea.Cmd {
	if len(m.nodeEvents) == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for len(m.nodeEvents) > 0 {
		batch := m.nodeEvents
		m.nodeEvents = nil
		for _, evt := range batch {
			if cmd := m.handleNodeEvent(evt); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	m.refreshRootItems()
	if current := m.currentLevel(); current != nil && current.ID == rootLevelID {
		cmds = append(cmds, m.refreshPreviewForLevel(current))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleNodeEvent(evt keytree.Event) tea.Cmd {
	node := m.databases.Node(evt.Index)
	switch evt.Kind {
	case keytree.EventUnloadStarted:
		// A reload tears the levels down; they come back once keys arrive.
		if m.closeDatabaseLevels(evt.Index) && node != nil && node.State() == keytree.StateLoading {
			m.pendingDB = evt.Index
		}
	case keytree.EventKeysLoaded:
		if node == nil || m.pendingDB != evt.Index {
			return nil
		}
		m.pendingDB = uistate.NoDatabase
		m.loading = false
		m.pendingID = ""
		m.pendingLabel = ""
		return m.openDatabaseLevel(node)
	case keytree.EventIconRefresh:
		if node == nil || m.pendingDB != evt.Index || node.State() != keytree.StateEmpty {
			return nil
		}
		m.pendingDB = uistate.NoDatabase
		m.loading = false
		m.pendingID = ""
		m.pendingLabel = ""
		if err := node.LastError(); err != nil {
			m.errMsg = fmt.Sprintf("Loading %s failed: %v", node.Name(), err)
			events.Action.Error(err)
			return nil
		}
		m.setInfo(fmt.Sprintf("No keys in %s", node.Name()))
	}
	return nil
}

// activateDatabase loads node and opens its top level once keys arrive.
func (m *Model) activateDatabase(node *keytree.DatabaseNode) {
	if node == nil {
		return
	}
	m.pendingDB = node.Index()
	m.pendingID = menu.DatabaseItemID(node.Index())
	m.pendingLabel = node.Name()
	m.loading = node.State() == keytree.StateLoading || node.ChildCount() == 0
	m.errMsg = ""
	m.forceClearInfo()
	node.Activate()
}

func (m *Model) openDatabaseLevel(node *keytree.DatabaseNode) tea.Cmd {
	current := m.currentLevel()
	if current == nil || current.ID != rootLevelID {
		m.setInfo(fmt.Sprintf("%s loaded", node.Name()))
		return nil
	}
	lvl := m.newTreeLevel(menu.DatabaseItemID(node.Index()), node.Name(), node, node.Children())
	lvl.DB = node.Index()
	return m.pushLevel(lvl)
}

func (m *Model) openNamespaceLevel(parent *level, ns *keytree.NamespaceNode) tea.Cmd {
	title := ns.DisplayName()
	if title == "" {
		title = `""`
	}
	id := fmt.Sprintf("%s/%d", parent.ID, parent.Cursor)
	lvl := m.newTreeLevel(id, title, ns, ns.Children())
	lvl.DB = parent.DB
	return m.pushLevel(lvl)
}

func (m *Model) newTreeLevel(id, title string, owner keytree.Node, children []keytree.Node) *level {
	lvl := newLevel(id, title, menu.NodeItems(children), nil)
	lvl.Owner = owner
	if len(lvl.Items) > 0 {
		lvl.Cursor = 0
	}
	return lvl
}

func (m *Model) pushLevel(lvl *level) tea.Cmd {
	if parent := m.currentLevel(); parent != nil {
		parent.LastCursor = parent.Cursor
	}
	m.stack = append(m.stack, lvl)
	m.syncViewport(lvl)
	if len(lvl.Items) == 0 {
		m.setInfo("No entries found.")
	}
	return m.ensurePreviewForLevel(lvl)
}

// closeDatabaseLevels pops every level opened from database index. Their
// items point into a tree that is being released. It reports whether any
// level was open.
func (m *Model) closeDatabaseLevels(index int) bool {
	cut := -1
	for i := 1; i < len(m.stack); i++ {
		if m.stack[i].DB == index {
			cut = i
			break
		}
	}
	if cut < 0 {
		return false
	}
	for _, lvl := range m.stack[cut:] {
		m.clearPreview(lvl.ID)
	}
	m.stack = m.stack[:cut]
	if parent := m.currentLevel(); parent != nil {
		if parent.LastCursor >= 0 && parent.LastCursor < len(parent.Items) {
			parent.Cursor = parent.LastCursor
		}
		parent.LastCursor = -1
		m.syncViewport(parent)
	}
	if m.mode == ModeKeyForm && m.keyForm != nil && m.keyForm.DB() == index {
		m.keyForm = nil
		m.mode = ModeMenu
	}
	return true
}

func (m *Model) refreshRootItems() {
	if len(m.stack) == 0 {
		return
	}
	root := m.stack[0]
	root.UpdateItems(menu.DatabaseItems(m.databases.Nodes()))
	m.syncViewport(root)
}

// focusDatabase is the database an action applies to: the one owning the
// current level, or the one under the cursor at the root.
func (m *Model) focusDatabase() *keytree.DatabaseNode {
	current := m.currentLevel()
	if current == nil {
		return nil
	}
	if current.DB != uistate.NoDatabase {
		return m.databases.Node(current.DB)
	}
	if current.ID != rootLevelID || current.Cursor < 0 || current.Cursor >= len(current.Items) {
		return nil
	}
	node, _ := current.Items[current.Cursor].Node.(*keytree.DatabaseNode)
	return node
}

// reloadDatabases reloads the marked databases, or the focused one when
// nothing is marked.
func (m *Model) reloadDatabases() tea.Cmd {
	var targets []*keytree.DatabaseNode
	if root := m.stack[0]; m.currentLevel() == root {
		for _, item := range root.SelectedItems() {
			if node, ok := item.Node.(*keytree.DatabaseNode); ok {
				targets = append(targets, node)
			}
		}
		root.ClearSelection()
	}
	if len(targets) == 0 {
		if node := m.focusDatabase(); node != nil {
			targets = append(targets, node)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	for _, node := range targets {
		node.Reload()
	}
	if len(targets) == 1 {
		m.setInfo(fmt.Sprintf("Reloading %s", targets[0].Name()))
	} else {
		m.setInfo(fmt.Sprintf("Reloading %d databases", len(targets)))
	}
	return nil
}

// applyKeyFilter installs the current level's filter text as the focused
// database's key filter. The database reloads if it had keys.
func (m *Model) applyKeyFilter() tea.Cmd {
	node := m.focusDatabase()
	current := m.currentLevel()
	if node == nil || current == nil {
		return nil
	}
	expr := current.Filter
	filter, err := keytree.ParseFilter(expr)
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	before := current.FilterCursorPos()
	current.SetFilter("", 0)
	m.noteFilterCursorChange(current, before)
	node.SetFilter(filter)
	events.Database.FilterChanged(node.Index(), expr)
	if filter == nil {
		m.setInfo(fmt.Sprintf("Cleared key filter on %s", node.Name()))
	} else {
		m.setInfo(fmt.Sprintf("Filtering %s by %s", node.Name(), filter.String()))
	}
	return nil
}
