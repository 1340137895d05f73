package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/keyspace-browser/internal/format/table"
)

// Binding documents one key binding of the browser.
type Binding struct {
	Keys        string
	Description string
}

// Bindings lists the browser's key bindings in display order.
func Bindings() []Binding {
	return []Binding{
		{Keys: "enter", Description: "open database or namespace"},
		{Keys: "esc", Description: "go back, quit at the top level"},
		{Keys: "up/down", Description: "move cursor"},
		{Keys: "pgup/pgdown", Description: "move cursor by a page"},
		{Keys: "home/end", Description: "jump to first or last entry"},
		{Keys: "tab", Description: "mark database"},
		{Keys: "ctrl+o", Description: "database actions"},
		{Keys: "ctrl+r", Description: "reload marked or current database"},
		{Keys: "ctrl+f", Description: "use typed text as the database key filter"},
		{Keys: "ctrl+n", Description: "add a key to the current database"},
		{Keys: "?", Description: "show this help"},
		{Keys: "ctrl+c", Description: "quit"},
	}
}

func loadHelpMenu(Context) ([]Item, error) {
	bindings := Bindings()
	rows := make([][]string, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, []string{b.Keys, b.Description})
	}
	lines := table.Format(rows, []table.Alignment{table.AlignLeft, table.AlignLeft})
	items := make([]Item, 0, len(lines))
	for i, line := range lines {
		items = append(items, Item{ID: bindings[i].Keys, Label: strings.TrimRight(line, " ")})
	}
	return items, nil
}

// HelpAction echoes the selected binding.
func HelpAction(_ Context, item Item) tea.Cmd {
	keys := strings.TrimSpace(item.ID)
	for _, b := range Bindings() {
		if b.Keys == keys {
			return func() tea.Msg { return ActionResult{Info: b.Keys + ": " + b.Description} }
		}
	}
	return func() tea.Msg { return ActionResult{Info: keys} }
}
