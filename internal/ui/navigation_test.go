package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	uistate "github.com/atomicstack/keyspace-browser/internal/ui/state"
)

func TestEnterDatabaseOpensTopLevelOnceLoaded(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	m := h.Model()
	if len(m.stack) != 2 {
		t.Fatalf("expected database level, got %d levels", len(m.stack))
	}
	lvl := m.currentLevel()
	if lvl.DB != 0 || lvl.Title != "app" {
		t.Fatalf("unexpected level %+v", lvl)
	}
	if len(lvl.Items) != 2 || lvl.Items[0].Label != "config" || lvl.Items[1].Label != "user" {
		t.Fatalf("unexpected items %#v", lvl.Items)
	}
	if m.loading || m.pendingDB != uistate.NoDatabase {
		t.Fatalf("expected pending state cleared, loading=%v pending=%d", m.loading, m.pendingDB)
	}
	if !strings.HasPrefix(m.stack[0].Items[0].Label, "app (4/") {
		t.Fatalf("expected loaded count in root label, got %q", m.stack[0].Items[0].Label)
	}
}

func TestEnterKeyShowsFullKey(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	h.Send(key("enter"))
	m := h.Model()
	lvl := m.currentLevel()
	if lvl.Title != "1" {
		t.Fatalf("expected namespace 1, got %q", lvl.Title)
	}
	h.Send(key("enter"))
	if got := m.currentInfo(); got != "user:1:email" {
		t.Fatalf("expected full key info, got %q", got)
	}
	if len(m.stack) != 4 {
		t.Fatalf("entering a key should not push a level, got %d levels", len(m.stack))
	}
}

func TestEscapeRestoresParentCursor(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	m := h.Model()
	if len(m.stack) != 3 {
		t.Fatalf("expected namespace level, got %d levels", len(m.stack))
	}
	h.Send(key("esc"))
	if len(m.stack) != 2 {
		t.Fatalf("expected pop to database level, got %d levels", len(m.stack))
	}
	if got := m.currentLevel().Cursor; got != 1 {
		t.Fatalf("expected cursor restored to user namespace, got %d", got)
	}
	h.Send(key("esc"))
	if len(m.stack) != 1 {
		t.Fatalf("expected root, got %d levels", len(m.stack))
	}
}

func TestEscapeAtRootQuits(t *testing.T) {
	m := NewModel(Config{})
	_, cmd := m.Update(key("esc"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestEmptyDatabaseReportsInfo(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("down"))
	h.Send(key("enter"))
	m := h.Model()
	if len(m.stack) != 1 {
		t.Fatalf("empty database should not open a level, got %d levels", len(m.stack))
	}
	if got := m.currentInfo(); got != "No keys in empty" {
		t.Fatalf("unexpected info %q", got)
	}
	if m.loading || m.pendingDB != uistate.NoDatabase {
		t.Fatalf("expected pending state cleared")
	}
	if node := m.databases.Node(1); node.State() != keytree.StateEmpty {
		t.Fatalf("expected empty state, got %s", node.State())
	}
}

func TestReloadReopensDatabase(t *testing.T) {
	store := fixtureStore(t)
	h := newTestHarness(t, store)
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	if err := store.Put(context.Background(), 0, "audit", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	h.Send(key("ctrl+r"))
	m := h.Model()
	if len(m.stack) != 2 {
		t.Fatalf("expected reopened database level, got %d levels", len(m.stack))
	}
	lvl := m.currentLevel()
	if len(lvl.Items) != 3 || lvl.Items[0].Label != "audit" {
		t.Fatalf("expected reloaded tree, got %#v", lvl.Items)
	}
	if m.pendingDB != uistate.NoDatabase {
		t.Fatalf("expected pending database cleared")
	}
}

func TestReloadMarkedDatabases(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	m := h.Model()
	h.Send(key("tab"))
	h.Send(key("down"))
	h.Send(key("tab"))
	h.Send(key("ctrl+r"))
	if got := m.currentInfo(); got != "Reloading 2 databases" {
		t.Fatalf("unexpected info %q", got)
	}
	if len(m.stack[0].SelectedItems()) != 0 {
		t.Fatalf("expected selection cleared after reload")
	}
	if node := m.databases.Node(0); node.State() != keytree.StateLoaded {
		t.Fatalf("expected db0 loaded, got %s", node.State())
	}
	if len(m.stack) != 1 {
		t.Fatalf("reloading from the root should not open levels")
	}
}

func TestRemovedDatabaseClosesItsLevels(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	m := h.Model()
	h.processCmd(m.SyncDatabases(nil))
	if len(m.stack) != 1 {
		t.Fatalf("expected levels of removed database popped, got %d", len(m.stack))
	}
	if len(m.stack[0].Items) != 0 {
		t.Fatalf("expected empty root, got %d items", len(m.stack[0].Items))
	}
	if _, ok := m.subscriptions[0]; ok {
		t.Fatalf("expected subscription of removed database dropped")
	}
}

func TestEscapeCancelsPendingDatabase(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	m := h.Model()
	m.pendingDB = 0
	m.loading = true
	h.Send(key("esc"))
	if m.pendingDB != uistate.NoDatabase || m.loading {
		t.Fatalf("expected pending database cancelled")
	}
}

func TestHelpMenuListsBindings(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("?"))
	m := h.Model()
	lvl := m.currentLevel()
	if lvl.ID != "help" {
		t.Fatalf("expected help level, got %q", lvl.ID)
	}
	if len(lvl.Items) == 0 || !strings.Contains(lvl.Items[0].Label, "enter") {
		t.Fatalf("unexpected help items %#v", lvl.Items)
	}
	h.Send(key("esc"))
	if m.currentLevel().ID != rootLevelID {
		t.Fatalf("expected esc to close help")
	}
}

func TestDatabaseActionsReload(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	h.Send(key("ctrl+o"))
	m := h.Model()
	lvl := m.currentLevel()
	if lvl.ID != "db" || len(lvl.Items) != 2 {
		t.Fatalf("expected database actions, got %q with %d items", lvl.ID, len(lvl.Items))
	}
	h.Send(key("down"))
	h.Send(key("enter"))
	if len(m.stack) != 2 || m.currentLevel().DB != 0 {
		t.Fatalf("expected database level reopened after reload, got %d levels", len(m.stack))
	}
	if m.currentLevel().ID == "db" {
		t.Fatalf("expected action menu closed")
	}
}
