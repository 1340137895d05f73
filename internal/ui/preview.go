package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
)

type previewKind int

const (
	previewKindNone previewKind = iota
	previewKindDatabase
	previewKindTree
)

type previewData struct {
	kind         previewKind
	target       string
	label        string
	lines        []string
	err          string
	loading      bool
	seq          int
	scrollOffset int // position within lines; clamped by renderPreviewPanel
}

type previewLoadedMsg struct {
	levelID string
	kind    previewKind
	target  string
	seq     int
	lines   []string
	err     error
}

func (m *Model) ensurePreviewForLevel(level *level) tea.Cmd {
	return m.previewForLevel(level, false)
}

func (m *Model) ensurePreviewForCurrentLevel() tea.Cmd {
	return m.ensurePreviewForLevel(m.currentLevel())
}

// refreshPreviewForLevel rebuilds the preview even when the cursor has not
// moved, e.g. after the node under it changed state.
func (m *Model) refreshPreviewForLevel(level *level) tea.Cmd {
	return m.previewForLevel(level, true)
}

// previewForLevel snapshots the node under the cursor on the UI loop and
// delivers the lines as a message, so rendering never reads a tree that a
// later update may have released.
func (m *Model) previewForLevel(level *level, force bool) tea.Cmd {
	if level == nil {
		return nil
	}
	kind := previewKindForLevel(level)
	if kind == previewKindNone || len(level.Items) == 0 {
		m.clearPreview(level.ID)
		return nil
	}
	if level.Cursor < 0 || level.Cursor >= len(level.Items) {
		level.Cursor = 0
	}
	item := level.Items[level.Cursor]
	if item.Node == nil {
		m.clearPreview(level.ID)
		return nil
	}
	if m.preview == nil {
		m.preview = make(map[string]*previewData)
	}
	if existing, ok := m.preview[level.ID]; ok && !force && existing.target == item.ID && !existing.loading {
		return nil
	}
	m.previewSeq++
	seq := m.previewSeq
	m.preview[level.ID] = &previewData{
		kind:    kind,
		target:  item.ID,
		label:   item.Label,
		loading: true,
		seq:     seq,
	}
	lines := m.previewLines(item.Node)
	levelID := level.ID
	target := item.ID
	return func() tea.Msg {
		return previewLoadedMsg{levelID: levelID, kind: kind, target: target, seq: seq, lines: lines}
	}
}

func (m *Model) previewLines(node keytree.Node) []string {
	switch n := node.(type) {
	case *keytree.DatabaseNode:
		return databasePreviewLines(n)
	case *keytree.NamespaceNode:
		return m.namespacePreviewLines(n)
	case *keytree.KeyNode:
		return m.keyPreviewLines(n)
	}
	return nil
}

func databasePreviewLines(db *keytree.DatabaseNode) []string {
	lines := []string{
		fmt.Sprintf("database: %s", db.Name()),
		fmt.Sprintf("index:    %d", db.Index()),
		fmt.Sprintf("state:    %s", db.State()),
		fmt.Sprintf("keys:     ~%s", humanize.Comma(int64(db.KeyCount()))),
	}
	if db.ChildCount() > 0 {
		lines = append(lines, fmt.Sprintf("loaded:   %s", humanize.Comma(int64(db.LoadedKeys()))))
	}
	if f := db.Filter(); f != nil {
		lines = append(lines, fmt.Sprintf("filter:   %s", f.String()))
	}
	if err := db.LastError(); err != nil {
		lines = append(lines, "", fmt.Sprintf("last load failed: %v", err))
	}
	return lines
}

func (m *Model) namespacePreviewLines(ns *keytree.NamespaceNode) []string {
	path := keytree.Path(ns)
	leaves := len(keytree.Leaves([]keytree.Node{ns}))
	lines := []string{
		fmt.Sprintf("namespace: %s", strings.Join(path, m.separator())),
		fmt.Sprintf("entries:   %s", humanize.Comma(int64(ns.ChildCount()))),
		fmt.Sprintf("keys:      %s", humanize.Comma(int64(leaves))),
		fmt.Sprintf("depth:     %d", len(path)),
	}
	if db := m.databaseOf(ns); db != nil {
		lines = append(lines, fmt.Sprintf("database:  %s", db.Name()))
	}
	return lines
}

func (m *Model) keyPreviewLines(leaf *keytree.KeyNode) []string {
	path := keytree.Path(leaf)
	db := fmt.Sprintf("db%d", leaf.DBIndex())
	if node := m.databases.Node(leaf.DBIndex()); node != nil {
		db = node.Name()
	}
	return []string{
		fmt.Sprintf("key:      %s", leaf.FullKey()),
		fmt.Sprintf("database: %s", db),
		fmt.Sprintf("depth:    %d", len(path)),
		fmt.Sprintf("path:     %s", strings.Join(path, " "+menuHeaderSeparator+" ")),
	}
}

func (m *Model) databaseOf(node keytree.Node) *keytree.DatabaseNode {
	for n := node; n != nil; n = n.Parent() {
		if db, ok := n.(*keytree.DatabaseNode); ok {
			return db
		}
	}
	return nil
}

func (m *Model) separator() string {
	if m.ops == nil {
		return ""
	}
	return m.ops.NamespaceSeparator()
}

func (m *Model) clearPreview(levelID string) {
	if levelID == "" || m.preview == nil {
		return
	}
	delete(m.preview, levelID)
}

func (m *Model) activePreview() *previewData {
	if len(m.stack) == 0 || m.preview == nil {
		return nil
	}
	current := m.currentLevel()
	if current == nil {
		return nil
	}
	return m.preview[current.ID]
}

func previewKindForLevel(l *level) previewKind {
	if l == nil {
		return previewKindNone
	}
	if l.ID == rootLevelID {
		return previewKindDatabase
	}
	switch l.Owner.(type) {
	case *keytree.DatabaseNode, *keytree.NamespaceNode:
		if l.Node == nil {
			return previewKindTree
		}
	}
	return previewKindNone
}

func (m *Model) handlePreviewLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(previewLoadedMsg)
	if !ok {
		return nil
	}
	if m.preview == nil {
		return nil
	}
	data, ok := m.preview[update.levelID]
	if !ok {
		return nil
	}
	if data.seq != update.seq || data.target != update.target {
		return nil
	}
	data.loading = false
	if update.err != nil {
		data.err = update.err.Error()
		data.lines = nil
	} else {
		data.err = ""
		data.lines = update.lines
	}
	data.scrollOffset = 0
	// Re-sync the viewport so the cursor stays visible with the updated item height budget.
	m.syncViewport(m.currentLevel())
	return nil
}
