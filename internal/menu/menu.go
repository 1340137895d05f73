package menu

import (
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/keytree"
)

// Item represents a selectable menu entry. Node is set when the entry
// stands for a key tree node.
type Item struct {
	ID    string
	Label string
	Node  keytree.Node
}

// Context carries runtime data needed by loader and action functions.
type Context struct {
	Database *keytree.DatabaseNode
}

// Loader populates submenu entries on demand.
type Loader func(Context) ([]Item, error)

type Action func(Context, Item) tea.Cmd

// ActionResult communicates the outcome of executing a menu action.
type ActionResult struct {
	Info string
	Err  error
}

// NewKeyPrompt requests the add-key form for a database.
type NewKeyPrompt struct {
	DB   int
	Name string
}

// KeyAddedMsg reports the outcome of writing a key from the add-key form.
type KeyAddedMsg struct {
	DB  int
	Key string
	Err error
}

const emptyLabel = `""`

// DatabaseItemID is the item identifier used for database index.
func DatabaseItemID(index int) string {
	return fmt.Sprintf("db:%d", index)
}

// DatabaseItems renders database nodes as root entries.
func DatabaseItems(nodes []*keytree.DatabaseNode) []Item {
	items := make([]Item, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, Item{ID: DatabaseItemID(node.Index()), Label: node.DisplayName(), Node: node})
	}
	return items
}

// NodeItems renders tree nodes as entries. Identifiers carry the node kind
// so a namespace and a key sharing a name stay distinct, and repeated
// entries get a "#n" suffix.
func NodeItems(nodes []keytree.Node) []Item {
	items := make([]Item, 0, len(nodes))
	seen := make(map[string]int, len(nodes))
	for _, node := range nodes {
		id := node.Kind().String() + ":" + node.DisplayName()
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s#%d", id, n+1)
		} else {
			seen[id] = 1
		}
		label := node.DisplayName()
		if label == "" {
			label = emptyLabel
		}
		items = append(items, Item{ID: id, Label: label, Node: node})
	}
	return items
}

// ActionItems renders secondary actions as entries keyed by their registry
// child name.
func ActionItems(actions []keytree.Action) []Item {
	items := make([]Item, 0, len(actions))
	for _, action := range actions {
		_, key := parentKey(action.ID)
		label := action.Label
		if label == "" {
			label = prettyLabel(key)
		}
		items = append(items, Item{ID: key, Label: label})
	}
	return items
}

// CategoryLoaders lists submenu loaders keyed by registry ID.
func CategoryLoaders() map[string]Loader {
	return map[string]Loader{
		"db":   loadDatabaseMenu,
		"help": loadHelpMenu,
	}
}

// ActionHandlers maps submenu identifiers to their execution logic.
func ActionHandlers() map[string]Action {
	return map[string]Action{
		keytree.ActionAddKey: DatabaseAction,
		keytree.ActionReload: DatabaseAction,
		"help":               HelpAction,
	}
}

func prettyLabel(id string) string {
	if id == "" {
		return id
	}
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
