package app

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging"
	"github.com/atomicstack/keyspace-browser/internal/metrics"
	"github.com/atomicstack/keyspace-browser/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	Store         string
	Seed          string
	ReadOnly      bool
	Separator     string
	Filter        string
	FetchTimeout  time.Duration
	CountInterval time.Duration
	Workers       int
	Width         int
	Height        int
	ShowFooter    bool
	Verbose       bool
	MetricsAddr   string
}

// session is an opened store plus the accessor database nodes load through.
type session struct {
	store    keystore.Store
	accessor *backend.Accessor
	filter   keytree.Filter
}

func openSession(ctx context.Context, cfg Config) (*session, error) {
	filter, err := keytree.ParseFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	store, err := backend.Open(ctx, cfg.Store, backend.OpenOptions{Seed: cfg.Seed, ReadOnly: cfg.ReadOnly})
	if err != nil {
		return nil, err
	}
	accessor := backend.NewAccessor(store, backend.AccessorConfig{
		Separator:    cfg.Separator,
		FetchTimeout: cfg.FetchTimeout,
	})
	return &session{store: store, accessor: accessor, filter: filter}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		logging.Error(err)
	}
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logging.Error(err)
			}
		}()
	}

	watcher := backend.NewWatcher(sess.store, cfg.CountInterval)
	defer watcher.Stop()
	model := ui.NewModel(ui.Config{
		Backend:    sess.accessor,
		Watcher:    watcher,
		Context:    ctx,
		KeyFilter:  sess.filter,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
		Verbose:    cfg.Verbose,
		RootTitle:  rootTitle(cfg.Store),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// rootTitle names the root level after the store scheme.
func rootTitle(store string) string {
	scheme, _, ok := strings.Cut(store, "://")
	if !ok || scheme == "" {
		return ""
	}
	return strings.ToLower(scheme)
}
