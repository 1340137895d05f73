package ui

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/menu"
)

func TestAddKeyFromNamespace(t *testing.T) {
	store := fixtureStore(t)
	h := newTestHarness(t, store)
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	h.Send(key("ctrl+n"))

	m := h.Model()
	if m.mode != ModeKeyForm || m.keyForm == nil {
		t.Fatalf("expected key form to open")
	}
	if got := m.keyForm.Key(); got != "user:" {
		t.Fatalf("expected namespace prefix, got %q", got)
	}
	if !strings.Contains(h.View(), "Add key to app") {
		t.Fatalf("expected form title in view:\n%s", h.View())
	}

	typeText(h, "3")
	h.Send(key("tab"))
	typeText(h, "zed")
	h.Send(key("enter"))

	if m.mode != ModeMenu || m.keyForm != nil {
		t.Fatalf("expected form closed after submit")
	}
	if got, ok := store.Get(0, "user:3"); !ok || got != "zed" {
		t.Fatalf("expected key stored, got %q (%v)", got, ok)
	}
	if got := m.currentInfo(); got != "Added user:3 to app" {
		t.Fatalf("unexpected info %q", got)
	}
	if len(m.stack) != 2 || m.currentLevel().DB != 0 {
		t.Fatalf("expected database reopened after reload, got %d levels", len(m.stack))
	}
	found := false
	for _, item := range m.currentLevel().Items {
		if item.Label == "user" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected user namespace after reload, got %#v", m.currentLevel().Items)
	}
}

func TestAddKeyRequiresNameAfterPrefix(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	h.Send(key("down"))
	h.Send(key("enter"))
	h.Send(key("ctrl+n"))
	h.Send(key("enter"))
	m := h.Model()
	if m.keyForm == nil {
		t.Fatalf("expected form to stay open")
	}
	if got := m.keyForm.Error(); got != "Key name required after namespace" {
		t.Fatalf("unexpected form error %q", got)
	}
	h.Send(key("esc"))
	if m.keyForm != nil || m.mode != ModeMenu {
		t.Fatalf("expected esc to cancel the form")
	}
	if len(m.stack) != 3 {
		t.Fatalf("cancelling should keep the namespace level, got %d levels", len(m.stack))
	}
}

func TestAddKeyFromActionMenu(t *testing.T) {
	store := fixtureStore(t)
	h := newTestHarness(t, store)
	h.Send(key("down"))
	h.Send(key("ctrl+o"))
	h.Send(key("enter"))
	m := h.Model()
	if m.keyForm == nil {
		t.Fatalf("expected key form from action menu")
	}
	if m.keyForm.DB() != 1 || m.keyForm.Key() != "" {
		t.Fatalf("unexpected form db=%d key=%q", m.keyForm.DB(), m.keyForm.Key())
	}
	if m.currentLevel().ID != rootLevelID {
		t.Fatalf("expected action menu closed, got %q", m.currentLevel().ID)
	}
	typeText(h, "fresh")
	h.Send(key("enter"))
	if _, ok := store.Get(1, "fresh"); !ok {
		t.Fatalf("expected key written to db1")
	}
	if node := m.databases.Node(1); node.ChildCount() != 0 {
		t.Fatalf("a database that was never opened should stay unloaded")
	}
}

func TestNewKeyPromptForMissingDatabase(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(menu.NewKeyPrompt{DB: 9})
	m := h.Model()
	if m.keyForm != nil {
		t.Fatalf("expected no form for unknown database")
	}
	if m.errMsg != "database 9 is gone" {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
}

func TestKeyAddedErrorIsReported(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(menu.KeyAddedMsg{DB: 0, Key: "x", Err: errors.New("read-only store")})
	if got := h.Model().errMsg; got != "read-only store" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestWithPromptResetsPendingState(t *testing.T) {
	m := NewModel(Config{})
	m.loading = true
	m.pendingID = "db:add-key"
	m.pendingLabel = "app"
	m.setInfo("old")
	m.withPrompt(func() promptResult { return promptResult{Info: "new"} })
	if m.loading || m.pendingID != "" || m.pendingLabel != "" {
		t.Fatalf("expected pending state reset")
	}
	if got := m.currentInfo(); got != "new" {
		t.Fatalf("expected info new, got %q", got)
	}
}
