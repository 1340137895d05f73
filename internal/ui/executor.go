package ui

import tea "github.com/charmbracelet/bubbletea"

// applyMsg carries a continuation produced off the UI loop back into Update.
type applyMsg struct {
	next func()
}

// teaExecutor implements keytree.Executor on top of the Bubble Tea runtime:
// work runs inside a tea.Cmd and its continuation is delivered as an
// applyMsg, so node state is only ever touched from Update.
type teaExecutor struct {
	m *Model
}

func (e teaExecutor) Go(work func() func()) {
	if work == nil {
		return
	}
	e.m.deferred = append(e.m.deferred, func() tea.Msg {
		return applyMsg{next: work()}
	})
}

func (m *Model) handleApplyMsg(msg tea.Msg) tea.Cmd {
	apply, ok := msg.(applyMsg)
	if !ok || apply.next == nil {
		return nil
	}
	apply.next()
	return nil
}
