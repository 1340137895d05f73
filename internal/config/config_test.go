package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Store != "memory://" || cfg.App.Separator != ":" {
		t.Fatalf("unexpected defaults %+v", cfg.App)
	}
	if cfg.App.FetchTimeout != 30*time.Second || cfg.App.CountInterval != 5*time.Second {
		t.Fatalf("unexpected intervals %s/%s", cfg.App.FetchTimeout, cfg.App.CountInterval)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadArgsFlagsOverrideEnvironment(t *testing.T) {
	env := []string{
		"KEYSPACE_BROWSER_STORE=sqlite://keys.db",
		"KEYSPACE_BROWSER_SEPARATOR=/",
		"KEYSPACE_BROWSER_FETCH_TIMEOUT=2s",
		"KEYSPACE_BROWSER_WIDTH=100",
		"KEYSPACE_BROWSER_TRACE=true",
	}
	cfg, err := LoadArgs([]string{"--width", "80", "--filter", "re:^user", "--read-only"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Store != "sqlite://keys.db" || cfg.App.Separator != "/" {
		t.Fatalf("expected environment values, got %+v", cfg.App)
	}
	if cfg.App.FetchTimeout != 2*time.Second {
		t.Fatalf("expected fetch timeout from env, got %s", cfg.App.FetchTimeout)
	}
	if cfg.App.Width != 80 {
		t.Fatalf("expected flag to override env width, got %d", cfg.App.Width)
	}
	if !cfg.Logging.Trace || !cfg.App.ReadOnly {
		t.Fatalf("expected trace and read-only enabled")
	}
	if cfg.Flags["filter"] != "re:^user" || cfg.Flags["width"] != "80" {
		t.Fatalf("unexpected flag echo %v", cfg.Flags)
	}
}

func TestLoadArgsInvalidEnvFallsBack(t *testing.T) {
	cfg, err := LoadArgs(nil, []string{"KEYSPACE_BROWSER_WORKERS=lots", "KEYSPACE_BROWSER_COUNT_INTERVAL=soon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Workers != 0 || cfg.App.CountInterval != 5*time.Second {
		t.Fatalf("expected fallbacks, got workers=%d interval=%s", cfg.App.Workers, cfg.App.CountInterval)
	}
}

func TestLoadArgsRejectsNegativeSize(t *testing.T) {
	if _, err := LoadArgs([]string{"--height", "-1"}, nil); err == nil {
		t.Fatalf("expected error for negative height")
	}
	if _, err := LoadArgs([]string{"--no-such-flag"}, nil); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bare store", args: []string{"--store", "localhost"}, want: "must be a URL"},
		{name: "zero timeout", args: []string{"--fetch-timeout", "0s"}, want: "fetch-timeout"},
		{name: "negative workers", args: []string{"--workers", "-2"}, want: "workers"},
		{name: "bad regexp", args: []string{"--filter", "re:("}, want: "invalid key filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadArgs(tt.args, nil)
			if err != nil {
				t.Fatalf("unexpected load error: %v", err)
			}
			err = Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterOnSharedFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("root", pflag.ContinueOnError)
	flags := Register(fs, nil)
	if err := fs.Parse([]string{"--store", "etcd://127.0.0.1:2379"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := flags.Config(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Store != "etcd://127.0.0.1:2379" {
		t.Fatalf("unexpected store %q", cfg.App.Store)
	}
}
