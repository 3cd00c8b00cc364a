package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	laneLeft    key.Binding
	laneRight   key.Binding
	taskUp      key.Binding
	taskDown    key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	reorderUp   key.Binding
	reorderDown key.Binding
	addTask     key.Binding
	taskInfo    key.Binding
	yankID      key.Binding
	deleteTask  key.Binding
	prevProject key.Binding
	nextProject key.Binding
	reset       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		laneLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "lane left")),
		laneRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "lane right")),
		taskUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		taskDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		moveLeft:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "move task left")),
		moveRight:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "move task right")),
		reorderUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "reorder up")),
		reorderDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "reorder down")),
		addTask:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		taskInfo:    key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		yankID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank task id")),
		deleteTask:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		prevProject: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev project")),
		nextProject: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next project")),
		reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset demo data")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.taskInfo, k.yankID, k.prevProject, k.nextProject, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.taskInfo, k.yankID, k.deleteTask, k.reset, k.toggleHelp, k.quit},
		{k.laneLeft, k.laneRight, k.taskUp, k.taskDown},
		{k.moveLeft, k.moveRight, k.reorderUp, k.reorderDown, k.prevProject, k.nextProject},
	}
}
