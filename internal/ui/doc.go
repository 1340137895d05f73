// Package ui contains the Bubble Tea program that browses a keyspace.
// The Model type focuses on message orchestration, while dedicated helpers
// own navigation, input, rendering, and state updates.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages.
//   - Update forwards messages to the add-key form while it is open. Other
//     messages are routed through a typed handler registry so each tea.Msg is
//     handled by a focused function (navigation for key presses, backend
//     updates, action results).
//   - Navigation helpers (internal/ui/navigation.go) manage the stack of
//     levels: the database list at the root, then one level per opened
//     database or namespace. Filter/input helpers (internal/ui/input.go) keep
//     text entry isolated from the event loop.
//
// State ownership:
//   - Level state lives in internal/ui/state.Level, which tracks items,
//     filtering, selection, and viewport calculations.
//   - Database nodes are owned by internal/state.DatabaseStore and kept in
//     sync by the dispatcher as the backend watcher reports databases and key
//     counts.
//   - Key trees are mutated only inside Update. Database nodes hand blocking
//     fetches to a teaExecutor, whose commands return applyMsg values that
//     finish the load back on the Update goroutine. Node notifications are
//     queued and settled once per Update step.
//
// Backend interactions:
//   - A backend.Watcher streams database and key count events; Update waits
//     for those events and hands them to applyBackendEvent.
//   - Registry submenus (database actions, help) load via loadMenuCmd. When a
//     loader completes, the handler for categoryLoadedMsg pushes the level.
package ui
