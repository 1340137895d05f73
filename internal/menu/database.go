package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
)

// KeyAdder writes a single key into a database.
type KeyAdder interface {
	AddKey(ctx context.Context, db int, key, value string) error
}

func loadDatabaseMenu(ctx Context) ([]Item, error) {
	if ctx.Database == nil {
		return nil, errors.New("no database selected")
	}
	return ActionItems(ctx.Database.SecondaryActions()), nil
}

// DatabaseAction runs the selected secondary action of ctx.Database. The
// action runs immediately on the caller's goroutine, which must be the UI
// loop; only its result is reported through the returned command.
func DatabaseAction(ctx Context, item Item) tea.Cmd {
	db := ctx.Database
	if db == nil {
		return func() tea.Msg { return ActionResult{Err: errors.New("no database selected")} }
	}
	id := "db:" + strings.TrimSpace(item.ID)
	for _, action := range db.SecondaryActions() {
		if action.ID != id {
			continue
		}
		action.Run()
		info := ""
		if action.ID == keytree.ActionReload {
			info = fmt.Sprintf("Reloading %s", db.Name())
		}
		return func() tea.Msg { return ActionResult{Info: info} }
	}
	return func() tea.Msg {
		return ActionResult{Err: errors.Errorf("unknown action %q for %s", item.ID, db.Name())}
	}
}

// AddKeyCommand writes key into db off the UI loop.
func AddKeyCommand(ctx context.Context, adder KeyAdder, db int, key, value string) tea.Cmd {
	return func() tea.Msg {
		if adder == nil {
			return KeyAddedMsg{DB: db, Key: key, Err: errors.New("backend does not accept new keys")}
		}
		err := adder.AddKey(ctx, db, key, value)
		return KeyAddedMsg{DB: db, Key: key, Err: err}
	}
}

// KeyForm collects the name and value of a new key.
type KeyForm struct {
	key    textinput.Model
	value  textinput.Model
	focus  int
	db     int
	name   string
	ctx    context.Context
	adder  KeyAdder
	err    string
	title  string
	help   string
	prefix string
}

// NewKeyForm builds the add-key form for the prompted database. prefix
// seeds the key field, typically with the namespace being browsed.
func NewKeyForm(ctx context.Context, prompt NewKeyPrompt, adder KeyAdder, prefix string) *KeyForm {
	if ctx == nil {
		ctx = context.Background()
	}
	key := textinput.New()
	key.Placeholder = "key"
	key.CharLimit = 512
	key.Cursor.SetMode(cursor.CursorStatic)
	key.Focus()
	if prefix != "" {
		key.SetValue(prefix)
		key.CursorEnd()
	}

	value := textinput.New()
	value.Placeholder = "value"
	value.CharLimit = 4096
	value.Cursor.SetMode(cursor.CursorStatic)

	name := strings.TrimSpace(prompt.Name)
	if name == "" {
		name = fmt.Sprintf("db%d", prompt.DB)
	}
	return &KeyForm{
		key:    key,
		value:  value,
		db:     prompt.DB,
		name:   name,
		ctx:    ctx,
		adder:  adder,
		title:  fmt.Sprintf("Add key to %s", name),
		help:   "Tab switches fields. Enter to add. Esc to cancel.",
		prefix: prefix,
	}
}

func (f *KeyForm) DB() int           { return f.db }
func (f *KeyForm) Key() string       { return strings.TrimSpace(f.key.Value()) }
func (f *KeyForm) Value() string     { return f.value.Value() }
func (f *KeyForm) KeyView() string   { return f.key.View() }
func (f *KeyForm) ValueView() string { return f.value.View() }
func (f *KeyForm) Error() string     { return f.err }
func (f *KeyForm) Title() string     { return f.title }
func (f *KeyForm) Help() string      { return f.help }

// FocusedValue reports whether the value field has focus.
func (f *KeyForm) FocusedValue() bool { return f.focus == 1 }

func (f *KeyForm) PendingLabel() string {
	if key := f.Key(); key != "" {
		return fmt.Sprintf("%s → %s", f.name, key)
	}
	return f.name
}

// Update returns the command to run, whether the form was submitted and
// whether it was cancelled.
func (f *KeyForm) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if m, ok := msg.(tea.KeyMsg); ok {
		switch m.String() {
		case "ctrl+u":
			f.focused().SetValue("")
			f.focused().CursorStart()
			return nil, false, false
		case "tab", "shift+tab", "down", "up":
			f.toggleFocus()
			return nil, false, false
		}
		switch m.Type {
		case tea.KeyEsc:
			events.Database.AddKeyCancelled(f.db)
			return nil, false, true
		case tea.KeyEnter:
			key := f.Key()
			if err := f.validateKey(key); err != "" {
				f.err = err
				return nil, false, false
			}
			f.err = ""
			return AddKeyCommand(f.ctx, f.adder, f.db, key, f.Value()), true, false
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.key, cmd = f.key.Update(msg)
		if f.err != "" {
			f.err = f.validateKey(f.Key())
		}
	} else {
		f.value, cmd = f.value.Update(msg)
	}
	return cmd, false, false
}

func (f *KeyForm) focused() *textinput.Model {
	if f.focus == 0 {
		return &f.key
	}
	return &f.value
}

func (f *KeyForm) toggleFocus() {
	if f.focus == 0 {
		f.focus = 1
		f.key.Blur()
		f.value.Focus()
		return
	}
	f.focus = 0
	f.value.Blur()
	f.key.Focus()
}

func (f *KeyForm) validateKey(key string) string {
	if key == "" {
		return "Key name required"
	}
	if f.prefix != "" && key == f.prefix {
		return "Key name required after namespace"
	}
	return ""
}
