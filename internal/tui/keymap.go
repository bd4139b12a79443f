package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	toggleComplete key.Binding
	filterAll      key.Binding
	filterActive   key.Binding
	filterDone     key.Binding
	cycleFilter    key.Binding
	addTask        key.Binding
	taskInfo       key.Binding
	clearCompleted key.Binding
	copyID         key.Binding
	editTask       key.Binding
	deleteTask     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		toggleComplete: key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "toggle complete")),
		filterAll:      key.NewBinding(key.WithKeys("a", "1"), key.WithHelp("a/1", "all tasks")),
		filterActive:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active tasks")),
		filterDone:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed tasks")),
		cycleFilter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter")),
		addTask:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:       key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "task info")),
		clearCompleted: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear completed")),
		copyID:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		editTask:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		deleteTask:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete (task info)")),
	}
}

// setAddEnabled toggles the add binding; disabled bindings drop out of help.
func (k *keyMap) setAddEnabled(enabled bool) {
	k.addTask.SetEnabled(enabled)
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.toggleComplete, k.cycleFilter, k.taskInfo, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.toggleComplete, k.taskInfo, k.editTask, k.deleteTask, k.copyID},
		{k.filterAll, k.filterActive, k.filterDone, k.cycleFilter},
		{k.addTask, k.clearCompleted, k.reload, k.toggleHelp, k.quit},
	}
}
