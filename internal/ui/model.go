package ui

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/data/dispatcher"
	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/menu"
	"github.com/atomicstack/keyspace-browser/internal/state"
	"github.com/atomicstack/keyspace-browser/internal/theme"
	"github.com/atomicstack/keyspace-browser/internal/ui/command"
	uistate "github.com/atomicstack/keyspace-browser/internal/ui/state"
)

type level = uistate.Level

type Mode int

const (
	ModeMenu Mode = iota
	ModeKeyForm
)

const (
	menuHeaderSeparator = "→"
	defaultRootTitle    = "keyspace"
	rootLevelID         = "root"
)

var styles = theme.Default()

var headerSegmentCleaner = strings.NewReplacer("_", " ", "-", " ")

type msgHandler func(tea.Msg) tea.Cmd

func newLevel(id, title string, items []menu.Item, node *menu.Node) *level {
	return uistate.NewLevel(id, title, items, node)
}

// Backend is the key store access the model needs: tree loading for the
// database nodes, the add-key hook and the write path behind the form.
type Backend interface {
	keytree.Operations
	menu.KeyAdder
	OnNewKey(func(db int))
}

// Config collects the model's construction parameters.
type Config struct {
	Backend    Backend
	Watcher    *backend.Watcher
	Context    context.Context
	KeyFilter  keytree.Filter
	Width      int
	Height     int
	ShowFooter bool
	Verbose    bool
	RootTitle  string
}

// Model implements the Bubble Tea model for the keyspace browser.
type Model struct {
	stack             []*level
	loading           bool
	pendingID         string
	pendingLabel      string
	errMsg            string
	infoMsg           string
	infoExpire        time.Time
	width             int
	height            int
	fixedWidth        bool
	fixedHeight       bool
	backend           *backend.Watcher
	backendState      map[backend.Kind]error
	backendLastErr    string
	showFooter        bool
	verbose           bool
	keyForm           *menu.KeyForm
	filterCursor      cursor.Model
	filterCursorDirty bool
	cursorFocused     bool
	preview           map[string]*previewData
	previewSeq        int

	handlers map[reflect.Type]msgHandler

	registry  *menu.Registry
	bus       *command.Bus
	mode      Mode
	rootTitle string

	ctx           context.Context
	ops           Backend
	keyFilter     keytree.Filter
	databases     state.DatabaseStore
	dispatcher    *dispatcher.Dispatcher
	subscriptions map[int]func()

	// pendingDB is the database whose top level opens once its keys load.
	pendingDB  int
	nodeEvents []keytree.Event
	deferred   []tea.Cmd
}

// NewModel initialises the UI with an empty database list; databases
// arrive through the watcher.
func NewModel(cfg Config) *Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	rootTitle := strings.TrimSpace(cfg.RootTitle)
	if rootTitle == "" {
		rootTitle = defaultRootTitle
	}
	registry := menu.BuildRegistry()
	root := newLevel(rootLevelID, rootTitle, nil, registry.Root())
	root.MultiSelect = true
	databases := state.NewDatabaseStore()
	m := &Model{
		stack:         []*level{root},
		registry:      registry,
		bus:           command.New(),
		backend:       cfg.Watcher,
		backendState:  map[backend.Kind]error{},
		showFooter:    cfg.ShowFooter,
		verbose:       cfg.Verbose,
		mode:          ModeMenu,
		rootTitle:     rootTitle,
		ctx:           ctx,
		ops:           cfg.Backend,
		keyFilter:     cfg.KeyFilter,
		databases:     databases,
		subscriptions: map[int]func(){},
		pendingDB:     uistate.NoDatabase,
	}
	m.dispatcher = dispatcher.New(databases, m.newDatabaseNode)
	if m.ops != nil {
		m.ops.OnNewKey(m.requestNewKey)
	}
	m.syncViewport(root)
	if cfg.Width > 0 {
		m.width = cfg.Width
		m.fixedWidth = true
	}
	if cfg.Height > 0 {
		m.height = cfg.Height
		m.fixedHeight = true
	}
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	m.filterCursor = c
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.backend != nil {
		cmds = append(cmds, waitForBackendEvent(m.backend))
	}
	m.cursorFocused = true
	if cmd := m.filterCursor.Focus(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	handled, cmd := m.handleActiveForm(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handled {
		return m, m.finishUpdate(cmds)
	}

	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	switch m.mode {
	case ModeKeyForm:
		return m.handleKeyForm(msg)
	default:
		return false, nil
	}
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(tea.MouseMsg{}):      m.handleMouseMsg,
		reflect.TypeOf(categoryLoadedMsg{}): m.handleCategoryLoadedMsg,
		reflect.TypeOf(previewLoadedMsg{}):  m.handlePreviewLoadedMsg,
		reflect.TypeOf(applyMsg{}):          m.handleApplyMsg,
		reflect.TypeOf(menu.ActionResult{}): m.handleActionResultMsg,
		reflect.TypeOf(menu.NewKeyPrompt{}): m.handleNewKeyPromptMsg,
		reflect.TypeOf(menu.KeyAddedMsg{}):  m.handleKeyAddedMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// finishUpdate settles node notifications raised during this step, then
// collects the work they dispatched.
func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if cmd := m.drainNodeEvents(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(m.deferred) > 0 {
		cmds = append(cmds, m.deferred...)
		m.deferred = nil
	}
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		if m.cursorFocused {
			m.filterCursor.Blink = false
			if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Databases returns the database nodes in index order.
func (m *Model) Databases() []*keytree.DatabaseNode {
	return m.databases.Nodes()
}

// SyncDatabases applies a database listing as if the watcher delivered it.
func (m *Model) SyncDatabases(dbs []keystore.Database) tea.Cmd {
	cmd := m.applyBackendEvent(backend.Event{Kind: backend.KindDatabases, Data: dbs})
	return m.finishUpdate([]tea.Cmd{cmd})
}
