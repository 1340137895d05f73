package ui

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/backend"
)

func TestHarnessBrowseAndFilterKeys(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	typeText(h, "name")

	m := h.Model()
	if got := len(m.currentLevel().Items); got != 0 {
		t.Fatalf("expected no visible matches for name, got %d", got)
	}
	if !strings.Contains(h.View(), `No matches for "name"`) {
		t.Fatalf("expected no-match notice in view:\n%s", h.View())
	}

	h.Send(key("ctrl+f"))
	if len(m.stack) != 2 {
		t.Fatalf("expected database reopened, got %d levels", len(m.stack))
	}
	lvl := m.currentLevel()
	if lvl.Filter != "" {
		t.Fatalf("expected level filter consumed, got %q", lvl.Filter)
	}
	if len(lvl.Items) != 1 || lvl.Items[0].Label != "user" {
		t.Fatalf("expected only the user namespace, got %#v", lvl.Items)
	}
	node := m.databases.Node(0)
	if node.Filter() == nil || node.Filter().String() != "name" {
		t.Fatalf("expected key filter name, got %v", node.Filter())
	}
	if got := m.currentInfo(); got != "Filtering app by name" {
		t.Fatalf("unexpected info %q", got)
	}

	h.Send(key("ctrl+f"))
	if node.Filter() != nil {
		t.Fatalf("expected key filter cleared")
	}
	if got := len(m.currentLevel().Items); got != 2 {
		t.Fatalf("expected full tree after clearing, got %d items", got)
	}
}

func TestHarnessInvalidKeyFilter(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(key("enter"))
	typeText(h, "re:(")
	h.Send(key("ctrl+f"))
	m := h.Model()
	if !strings.Contains(m.errMsg, "invalid key filter") {
		t.Fatalf("expected filter error, got %q", m.errMsg)
	}
	if m.databases.Node(0).Filter() != nil {
		t.Fatalf("invalid filter should not be installed")
	}
	if len(m.stack) != 2 {
		t.Fatalf("expected level kept, got %d levels", len(m.stack))
	}
}

func TestHarnessKeyCountsUpdateRoot(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindKeyCounts, Data: []backend.KeyCount{
		{Index: 0, Count: 4},
		{Index: 1, Count: 1200},
	}}})
	m := h.Model()
	if got := m.databases.Node(1).KeyCount(); got != 1200 {
		t.Fatalf("expected count 1200, got %d", got)
	}
	h.Send(key("enter"))
	if got := m.stack[0].Items[0].Label; got != "app (4/4)" {
		t.Fatalf("unexpected root label %q", got)
	}
}

func TestHarnessBackendErrorShowsStatus(t *testing.T) {
	h := newTestHarness(t, fixtureStore(t))
	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindDatabases, Err: errors.New("connection refused")}})
	if !strings.Contains(h.View(), "Backend: connection refused") {
		t.Fatalf("expected backend status in view:\n%s", h.View())
	}
	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindDatabases, Data: nil}})
	if warn, _ := h.Model().hasBackendIssue(); warn {
		t.Fatalf("expected backend issue cleared by a successful poll")
	}
}
