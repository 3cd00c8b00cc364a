// Package tui renders the board over the application engine. Every gesture
// resolves to exactly one engine command; the model never edits task fields
// or the lane order directly.
package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"taskflow/internal/app"
	"taskflow/internal/domain"
)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddTask
	modeTaskInfo
	modeConfirmReset
)

// projectSwitchedMsg reports an asynchronous project switch.
type projectSwitchedMsg struct {
	err error
}

// taskCreatedMsg reports an asynchronous task creation.
type taskCreatedMsg struct {
	err error
}

// Model represents model data used by this package.
type Model struct {
	store   *app.Store
	session *app.Session

	ready  bool
	width  int
	height int

	status string

	help help.Model
	keys keyMap

	taskFields     TaskFieldConfig
	writeClipboard func(string) error

	lanes        []Lane
	selectedLane int
	selectedTask int

	mode       inputMode
	titleInput textinput.Model
	infoTaskID string

	md descriptionRenderer
}

// NewModel constructs model.
func NewModel(store *app.Store, session *app.Session, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	titleInput := textinput.New()
	titleInput.Prompt = "> "
	titleInput.Placeholder = "task title"
	titleInput.CharLimit = 120
	m := Model{
		store:          store,
		session:        session,
		status:         "ready",
		help:           h,
		keys:           newKeyMap(),
		taskFields:     DefaultTaskFieldConfig(),
		writeClipboard: clipboard.WriteAll,
		lanes:          defaultLanes(),
		titleInput:     titleInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init initializes the requested operation.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectSwitchedMsg:
		if msg.err != nil {
			m.status = "switch failed: " + msg.err.Error()
			return m, nil
		}
		m.selectedLane = 0
		m.selectedTask = 0
		m.status = "ready"
		return m, nil

	case taskCreatedMsg:
		if msg.err != nil {
			m.status = "create failed: " + msg.err.Error()
			return m, nil
		}
		m.selectedLane = 0
		m.selectedTask = 0
		m.status = "task created"
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.laneLeft):
		m.selectedLane = clamp(m.selectedLane-1, 0, len(m.lanes)-1)
		m.selectedTask = 0
		return m, nil

	case key.Matches(msg, m.keys.laneRight):
		m.selectedLane = clamp(m.selectedLane+1, 0, len(m.lanes)-1)
		m.selectedTask = 0
		return m, nil

	case key.Matches(msg, m.keys.taskUp):
		m.selectedTask = clamp(m.selectedTask-1, 0, max(0, len(m.laneTasks(m.selectedLane))-1))
		return m, nil

	case key.Matches(msg, m.keys.taskDown):
		m.selectedTask = clamp(m.selectedTask+1, 0, max(0, len(m.laneTasks(m.selectedLane))-1))
		return m, nil

	case key.Matches(msg, m.keys.moveLeft):
		return m.moveSelectedTask(-1)

	case key.Matches(msg, m.keys.moveRight):
		return m.moveSelectedTask(1)

	case key.Matches(msg, m.keys.reorderUp):
		return m.reorderSelectedTask(-1)

	case key.Matches(msg, m.keys.reorderDown):
		return m.reorderSelectedTask(1)

	case key.Matches(msg, m.keys.addTask):
		m.mode = modeAddTask
		m.titleInput.SetValue("")
		m.titleInput.Focus()
		m.status = "new task"
		return m, textinput.Blink

	case key.Matches(msg, m.keys.taskInfo):
		task := m.selectedTaskRef()
		if task == nil {
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		m.store.OpenTask(task.ID)
		return m, nil

	case key.Matches(msg, m.keys.yankID):
		task := m.selectedTaskRef()
		if task == nil {
			return m, nil
		}
		if err := m.writeClipboard(task.ID); err != nil {
			m.status = "clipboard unavailable"
			return m, nil
		}
		m.status = "copied " + task.ID
		return m, nil

	case key.Matches(msg, m.keys.deleteTask):
		task := m.selectedTaskRef()
		if task == nil {
			return m, nil
		}
		if err := m.store.DeleteTask(task.ID); err != nil {
			m.status = "delete failed: " + err.Error()
			return m, nil
		}
		m.selectedTask = clamp(m.selectedTask, 0, max(0, len(m.laneTasks(m.selectedLane))-1))
		m.status = "task deleted"
		return m, nil

	case key.Matches(msg, m.keys.prevProject):
		return m.switchProject(-1)

	case key.Matches(msg, m.keys.nextProject):
		return m.switchProject(1)

	case key.Matches(msg, m.keys.reset):
		m.mode = modeConfirmReset
		m.status = "confirm reset"
		return m, nil

	default:
		return m, nil
	}
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddTask:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.titleInput.Blur()
			m.status = "ready"
			return m, nil
		case "enter":
			title := strings.TrimSpace(m.titleInput.Value())
			if title == "" {
				m.status = "title is required"
				return m, nil
			}
			project := m.store.CurrentProject()
			if project == nil {
				m.mode = modeNone
				m.status = "no project selected"
				return m, nil
			}
			m.mode = modeNone
			m.titleInput.Blur()
			session := m.session
			projectID := project.ID
			return m, func() tea.Msg {
				err := session.CreateTask(context.Background(), domain.TaskInput{
					Title:     title,
					ProjectID: projectID,
				})
				return taskCreatedMsg{err: err}
			}
		default:
			var cmd tea.Cmd
			m.titleInput, cmd = m.titleInput.Update(msg)
			return m, cmd
		}

	case modeTaskInfo:
		switch msg.String() {
		case "esc", "enter", "i", "q":
			m.mode = modeNone
			m.infoTaskID = ""
			m.store.CloseTask()
			m.status = "ready"
		}
		return m, nil

	case modeConfirmReset:
		switch msg.String() {
		case "y", "enter":
			m.mode = modeNone
			if err := m.store.Reset(); err != nil {
				m.status = "reset failed: " + err.Error()
				return m, nil
			}
			m.selectedLane = 0
			m.selectedTask = 0
			m.status = "demo data restored"
		case "esc", "n", "q":
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil

	default:
		m.mode = modeNone
		return m, nil
	}
}

// moveSelectedTask moves the selected task into the adjacent lane, appended
// at the end of that lane's order.
func (m Model) moveSelectedTask(direction int) (tea.Model, tea.Cmd) {
	task := m.selectedTaskRef()
	if task == nil {
		return m, nil
	}
	targetLane := m.selectedLane + direction
	if targetLane < 0 || targetLane >= len(m.lanes) {
		return m, nil
	}
	target := m.lanes[targetLane]
	destIDs := taskIDs(m.laneTasks(targetLane))
	if err := m.store.MoveTask(task.ID, target.Status, destIDs, len(destIDs)); err != nil {
		m.status = "move failed: " + err.Error()
		return m, nil
	}
	m.selectedLane = targetLane
	m.selectedTask = max(0, len(m.laneTasks(targetLane))-1)
	m.status = "moved to " + target.Title
	return m, nil
}

// reorderSelectedTask shifts the selected task one slot within its lane.
func (m Model) reorderSelectedTask(direction int) (tea.Model, tea.Cmd) {
	tasks := m.laneTasks(m.selectedLane)
	if len(tasks) == 0 {
		return m, nil
	}
	idx := clamp(m.selectedTask, 0, len(tasks)-1)
	targetIdx := idx + direction
	if targetIdx < 0 || targetIdx >= len(tasks) {
		return m, nil
	}
	task := tasks[idx]
	if err := m.store.MoveTask(task.ID, m.lanes[m.selectedLane].Status, taskIDs(tasks), targetIdx); err != nil {
		m.status = "reorder failed: " + err.Error()
		return m, nil
	}
	m.selectedTask = targetIdx
	return m, nil
}

// switchProject selects the neighbouring project and lets the session decide
// whether tasks need a refetch.
func (m Model) switchProject(direction int) (tea.Model, tea.Cmd) {
	env := m.store.Envelope()
	if len(env.Projects) == 0 {
		return m, nil
	}
	current := 0
	for idx, p := range env.Projects {
		if p.ID == env.CurrentProjectID {
			current = idx
			break
		}
	}
	next := (current + direction + len(env.Projects)) % len(env.Projects)
	projectID := env.Projects[next].ID
	if projectID == env.CurrentProjectID {
		return m, nil
	}
	m.status = "switching project..."
	session := m.session
	return m, func() tea.Msg {
		return projectSwitchedMsg{err: session.SwitchProject(context.Background(), projectID)}
	}
}

// laneTasks reads one lane of the current project in display order.
func (m Model) laneTasks(laneIdx int) []domain.Task {
	project := m.store.CurrentProject()
	if project == nil || laneIdx < 0 || laneIdx >= len(m.lanes) {
		return nil
	}
	return m.store.LaneTasks(project.ID, m.lanes[laneIdx].Status, app.TaskFilter{})
}

// selectedTaskRef resolves the highlighted task, nil for an empty lane.
func (m Model) selectedTaskRef() *domain.Task {
	tasks := m.laneTasks(m.selectedLane)
	if len(tasks) == 0 {
		return nil
	}
	idx := clamp(m.selectedTask, 0, len(tasks)-1)
	return &tasks[idx]
}

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	project := m.store.CurrentProject()
	env := m.store.Envelope()

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("taskflow")
	if project != nil {
		header += "  " + project.Name
	}
	if m.session.Authenticated() {
		header += statusStyle.Render("  [" + env.Identity.Name + "]")
	} else {
		header += statusStyle.Render("  [local]")
	}

	tabs := m.renderProjectTabs(accent, dim)
	board := m.renderBoard(accent, muted, dim)

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	statusLine := statusStyle.Render(m.status)

	content := strings.Join([]string{header, tabs, board, statusLine}, "\n")
	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}
	full := content + "\n" + helpLine

	if overlay := m.renderModeOverlay(accent, muted, dim); overlay != "" {
		overlayHeight := lipgloss.Height(full)
		if m.height > 0 {
			overlayHeight = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(full)
	v.AltScreen = true
	return v
}

// renderProjectTabs renders output for the current model state.
func (m Model) renderProjectTabs(accent, dim color.Color) string {
	env := m.store.Envelope()
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	idleStyle := lipgloss.NewStyle().Foreground(dim)
	parts := make([]string, 0, len(env.Projects))
	for _, p := range env.Projects {
		label := truncate(p.Name, 24)
		if p.ID == env.CurrentProjectID {
			parts = append(parts, activeStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, idleStyle.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

// renderBoard renders output for the current model state.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	colWidth := m.columnWidth()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)

	columns := make([]string, 0, len(m.lanes))
	for laneIdx, lane := range m.lanes {
		tasks := m.laneTasks(laneIdx)
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", lane.Title, len(tasks)))}
		if len(tasks) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for taskIdx, task := range tasks {
			selected := laneIdx == m.selectedLane && taskIdx == clamp(m.selectedTask, 0, len(tasks)-1)
			prefix := "  "
			if selected {
				prefix = "│ "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-6))
			if selected {
				title = selectedTaskStyle.Render(title)
			}
			lines = append(lines, title)
			if sub := m.taskSecondary(task); sub != "" {
				lines = append(lines, subStyle.Render(prefix+truncate(sub, max(1, colWidth-6))))
			}
		}
		style := baseColStyle
		if laneIdx == m.selectedLane {
			style = selColStyle
		}
		columns = append(columns, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// taskSecondary builds the configured secondary line under a task title.
func (m Model) taskSecondary(task domain.Task) string {
	env := m.store.Envelope()
	parts := make([]string, 0, 4)
	if m.taskFields.ShowPriority {
		parts = append(parts, string(task.Priority))
	}
	if m.taskFields.ShowDueDate && task.DueDate != "" {
		parts = append(parts, "due "+task.DueDate)
	}
	if m.taskFields.ShowTags && len(task.Tags) > 0 {
		parts = append(parts, strings.Join(task.Tags, ","))
	}
	if m.taskFields.ShowAssignees {
		names := env.AssigneeNames(task.AssigneeIDs)
		initials := make([]string, 0, len(names))
		for _, name := range names {
			initials = append(initials, domain.Initials(name))
		}
		if len(initials) > 0 {
			parts = append(parts, strings.Join(initials, " "))
		}
	}
	return strings.Join(parts, " · ")
}

// renderModeOverlay renders output for the current model state.
func (m Model) renderModeOverlay(accent, muted, dim color.Color) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeAddTask:
		body := strings.Join([]string{
			titleStyle.Render("New Task"),
			"",
			m.titleInput.View(),
			"",
			hintStyle.Render("enter save • esc cancel"),
		}, "\n")
		return boxStyle.Render(body)

	case modeTaskInfo:
		task := m.store.Envelope().Task(m.infoTaskID)
		if task == nil {
			return ""
		}
		return boxStyle.Render(m.renderTaskInfo(task, titleStyle, hintStyle))

	case modeConfirmReset:
		body := strings.Join([]string{
			titleStyle.Render("Reset demo data?"),
			"",
			"All local tasks and projects revert to the seeded dataset.",
			"",
			hintStyle.Render("y confirm • esc cancel"),
		}, "\n")
		return boxStyle.Render(body)
	}
	return ""
}

// renderTaskInfo renders the detail modal for one task.
func (m Model) renderTaskInfo(task *domain.Task, titleStyle, hintStyle lipgloss.Style) string {
	env := m.store.Envelope()
	width := clamp(m.width-12, 24, 90)

	sections := []string{
		titleStyle.Render(task.Title),
		hintStyle.Render(fmt.Sprintf("%s · %s · %s", task.Status.Label(), task.Priority, task.ID)),
	}
	if task.DueDate != "" {
		sections = append(sections, hintStyle.Render("due "+task.DueDate))
	}
	if names := env.AssigneeNames(task.AssigneeIDs); len(names) > 0 {
		sections = append(sections, "assignees: "+strings.Join(names, ", "))
	}
	if len(task.Tags) > 0 {
		sections = append(sections, "tags: "+strings.Join(task.Tags, ", "))
	}
	if desc := m.md.render(task.Description, width); desc != "" {
		sections = append(sections, "", desc)
	}
	if len(task.Subtasks) > 0 {
		lines := make([]string, 0, len(task.Subtasks)+1)
		lines = append(lines, "subtasks:")
		for _, sub := range task.Subtasks {
			mark := "[ ]"
			if sub.Completed {
				mark = "[x]"
			}
			lines = append(lines, "  "+mark+" "+sub.Title)
		}
		sections = append(sections, "", strings.Join(lines, "\n"))
	}
	if len(task.Comments) > 0 {
		lines := make([]string, 0, len(task.Comments)+1)
		lines = append(lines, "comments:")
		for _, c := range task.Comments {
			lines = append(lines, "  "+c.Author+": "+truncate(c.Text, width-6))
		}
		sections = append(sections, "", strings.Join(lines, "\n"))
	}
	if len(task.Activity) > 0 {
		start := max(0, len(task.Activity)-5)
		lines := make([]string, 0, 6)
		lines = append(lines, "activity:")
		for i := len(task.Activity) - 1; i >= start; i-- {
			lines = append(lines, "  "+task.Activity[i])
		}
		sections = append(sections, "", hintStyle.Render(strings.Join(lines, "\n")))
	}
	sections = append(sections, "", hintStyle.Render("esc close"))
	return strings.Join(sections, "\n")
}

// columnWidth splits the terminal width across lanes.
func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 32
	}
	per := (m.width - 2*len(m.lanes)) / max(1, len(m.lanes))
	return clamp(per, 20, 60)
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// clamp pins v into [minV, maxV]; a degenerate range collapses to minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	return max(minV, min(v, maxV))
}

// fitLines pads or truncates content to exactly maxLines lines so the frame
// height stays stable regardless of board content.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		if maxLines == 1 {
			return "…"
		}
		lines = append(lines[:maxLines-1], "…")
	}
	for len(lines) < maxLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent composites a centered overlay above the board frame.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(fitLines(base, height)).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate caps s at limit runes, spending the last rune on an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(rs[:limit-1]) + "…"
}
