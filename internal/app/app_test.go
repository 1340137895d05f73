package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

func demoConfig() Config {
	return Config{Store: "memory://", Separator: ":", Workers: 2}
}

func TestRootTitle(t *testing.T) {
	cases := map[string]string{
		"memory://":             "memory",
		"ETCD://127.0.0.1:2379": "etcd",
		"sqlite://:memory:":     "sqlite",
		"not a url":             "",
	}
	for store, want := range cases {
		if got := rootTitle(store); got != want {
			t.Fatalf("rootTitle(%q) = %q, want %q", store, got, want)
		}
	}
}

func TestListDatabases(t *testing.T) {
	var out bytes.Buffer
	if err := ListDatabases(context.Background(), demoConfig(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 databases, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "INDEX") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], "sessions") || !strings.HasSuffix(lines[2], "3") {
		t.Fatalf("unexpected sessions row %q", lines[2])
	}
}

func TestPrintTree(t *testing.T) {
	var out bytes.Buffer
	if err := PrintTree(context.Background(), demoConfig(), 0, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	if !strings.HasPrefix(text, "db0 (12 keys)\n") {
		t.Fatalf("unexpected header:\n%s", text)
	}
	for _, want := range []string{"▸ cache\n", "  ▸ page\n", "    · /about\n", "· counter\n", "    · failed\n", "▸ user\n"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in tree:\n%s", want, text)
		}
	}
}

func TestPrintTreeWithFilter(t *testing.T) {
	cfg := demoConfig()
	cfg.Filter = "re:^user:2"
	var out bytes.Buffer
	if err := PrintTree(context.Background(), cfg, 0, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "db0 (2 keys)\n") || strings.Contains(out.String(), "cache") {
		t.Fatalf("unexpected filtered tree:\n%s", out.String())
	}
}

func TestPrintTreeUnknownDatabase(t *testing.T) {
	err := PrintTree(context.Background(), demoConfig(), 42, &bytes.Buffer{})
	if !errors.Is(err, keystore.ErrUnknownDatabase) {
		t.Fatalf("expected unknown database error, got %v", err)
	}
}

func TestOpenSessionRejectsBadFilter(t *testing.T) {
	cfg := demoConfig()
	cfg.Filter = "re:["
	if _, err := openSession(context.Background(), cfg); err == nil {
		t.Fatalf("expected filter error")
	}
}
