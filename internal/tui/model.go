// Package tui renders the task list view-model as a bubbletea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/executor"
	"github.com/hylla/tasklist/internal/tasks"
)

// inputMode describes input mode values.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeTaskInfo
	modeConfirmClear
)

// Model represents the list screen.
type Model struct {
	ctx    context.Context
	vm     *tasks.ViewModel
	svc    *app.Service
	loop   *executor.Loop
	logger *log.Logger
	screen *screenState

	keys keyMap
	help help.Model
	md   *markdownRenderer

	ready    bool
	width    int
	height   int
	selected int
	mode     inputMode

	titleInput textinput.Model
	descInput  textinput.Model
	formFocus  int
	editTaskID string
	infoTaskID string

	// editDescription is the stored description of the task being edited and
	// descPrefill what the single-line input made of it.
	editDescription string
	descPrefill     string

	showDescription bool
	confirmClear    bool
	copyText        ClipboardWriter
}

// mainTaskMsg carries one view-model continuation queued on the loop.
type mainTaskMsg struct {
	run func()
}

// taskCreatedMsg carries the add-form result.
type taskCreatedMsg struct {
	task domain.Task
	err  error
}

// taskUpdatedMsg carries the edit-form result.
type taskUpdatedMsg struct {
	task domain.Task
	err  error
}

// taskDeletedMsg carries the delete result.
type taskDeletedMsg struct {
	id  string
	err error
}

// copiedMsg carries the clipboard result.
type copiedMsg struct {
	id  string
	err error
}

// NewModel constructs a new value for this package.
func NewModel(vm *tasks.ViewModel, svc *app.Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		ctx:             context.Background(),
		vm:              vm,
		svc:             svc,
		logger:          log.New(io.Discard),
		screen:          &screenState{},
		keys:            newKeyMap(),
		help:            h,
		md:              &markdownRenderer{},
		titleInput:      newModalInput("title: ", "what needs doing", "", 120),
		descInput:       newModalInput("description: ", "markdown, optional", "", 500),
		showDescription: true,
		copyText:        clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init attaches the view-model observers, which starts the first load.
func (m Model) Init() tea.Cmd {
	m.screen.attach(m.vm)
	return m.waitForMain()
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	pending := next.consumeScreen()
	if pending == nil {
		return next, cmd
	}
	return next, tea.Batch(cmd, pending)
}

func (m *Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return *m, nil

	case mainTaskMsg:
		if msg.run != nil {
			msg.run()
		}
		return *m, m.waitForMain()

	case taskCreatedMsg:
		if msg.err != nil {
			m.logger.Warn("create task failed", "err", msg.err)
			m.screen.snackbar = "Could not add task: " + msg.err.Error()
			return *m, nil
		}
		m.logger.Info("task created", "task_id", msg.task.ID)
		m.closeForm()
		m.vm.ShowEditResultMessage(tasks.AddEditResultOK)
		m.vm.Refresh()
		return *m, nil

	case taskUpdatedMsg:
		if msg.err != nil {
			m.logger.Warn("update task failed", "task_id", m.editTaskID, "err", msg.err)
			m.screen.snackbar = "Could not save task: " + msg.err.Error()
			return *m, nil
		}
		m.logger.Info("task updated", "task_id", msg.task.ID)
		m.closeForm()
		m.vm.ShowEditResultMessage(tasks.EditResultOK)
		m.vm.Refresh()
		return *m, nil

	case taskDeletedMsg:
		if msg.err != nil {
			m.logger.Warn("delete task failed", "task_id", msg.id, "err", msg.err)
			m.screen.snackbar = "Could not delete task: " + msg.err.Error()
			return *m, nil
		}
		m.logger.Info("task deleted", "task_id", msg.id)
		if m.infoTaskID == msg.id {
			m.mode = modeNone
			m.infoTaskID = ""
		}
		m.vm.ShowEditResultMessage(tasks.DeleteResultOK)
		m.vm.Refresh()
		return *m, nil

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("copy task id failed", "task_id", msg.id, "err", msg.err)
			m.screen.snackbar = "Could not copy task id"
			return *m, nil
		}
		m.screen.snackbar = "Copied " + msg.id
		return *m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeAddTask:
			return m.handleFormKey(msg)
		case modeTaskInfo:
			return m.handleInfoKey(msg)
		case modeConfirmClear:
			return m.handleConfirmKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	default:
		if m.mode == modeAddTask {
			return m.forwardToInput(msg)
		}
		return *m, nil
	}
}

// handleNormalModeKey handles list navigation and actions.
func (m *Model) handleNormalModeKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.screen.release()
		return *m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.moveUp):
		m.selected = clamp(m.selected-1, 0, len(m.screen.items)-1)
	case key.Matches(msg, m.keys.moveDown):
		m.selected = clamp(m.selected+1, 0, len(m.screen.items)-1)
	case key.Matches(msg, m.keys.toggleComplete):
		if task, ok := m.selectedTask(); ok {
			m.vm.CompleteTask(task, !task.Completed)
		}
	case key.Matches(msg, m.keys.filterAll):
		m.vm.SetFiltering(domain.FilterAll)
	case key.Matches(msg, m.keys.filterActive):
		m.vm.SetFiltering(domain.FilterActive)
	case key.Matches(msg, m.keys.filterDone):
		m.vm.SetFiltering(domain.FilterCompleted)
	case key.Matches(msg, m.keys.cycleFilter):
		m.vm.SetFiltering(m.vm.Filter().Next())
	case key.Matches(msg, m.keys.addTask):
		m.vm.AddNewTask()
	case key.Matches(msg, m.keys.taskInfo):
		if task, ok := m.selectedTask(); ok {
			m.vm.OpenTask(task.ID)
		}
	case key.Matches(msg, m.keys.editTask):
		if task, ok := m.selectedTask(); ok {
			return *m, m.openForm(task)
		}
	case key.Matches(msg, m.keys.clearCompleted):
		if m.confirmClear {
			m.mode = modeConfirmClear
			return *m, nil
		}
		m.vm.ClearCompletedTasks()
	case key.Matches(msg, m.keys.reload):
		m.vm.Refresh()
	case key.Matches(msg, m.keys.copyID):
		if task, ok := m.selectedTask(); ok {
			return *m, m.copyTaskID(task.ID)
		}
	}
	return *m, nil
}

// handleFormKey handles the add-task form.
func (m *Model) handleFormKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return *m, nil
	case "tab", "shift+tab":
		return *m, m.focusField(1 - m.formFocus)
	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		description := strings.TrimSpace(m.descInput.Value())
		if m.editTaskID != "" && m.descInput.Value() == m.descPrefill {
			description = m.editDescription
		}
		if title == "" && description == "" {
			m.screen.snackbar = "A task needs a title or a description"
			return *m, nil
		}
		if m.editTaskID != "" {
			return *m, m.updateTask(m.editTaskID, title, description)
		}
		return *m, m.createTask(title, description)
	}
	return m.forwardToInput(msg)
}

// handleInfoKey handles the task info overlay.
func (m *Model) handleInfoKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "esc", key.Matches(msg, m.keys.taskInfo), key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		m.infoTaskID = ""
	case key.Matches(msg, m.keys.copyID):
		return *m, m.copyTaskID(m.infoTaskID)
	case key.Matches(msg, m.keys.editTask):
		if task, ok := m.taskByID(m.infoTaskID); ok {
			m.infoTaskID = ""
			m.mode = modeNone
			return *m, m.openForm(task)
		}
	case key.Matches(msg, m.keys.deleteTask):
		return *m, m.deleteTask(m.infoTaskID)
	}
	return *m, nil
}

// handleConfirmKey handles the clear-completed confirmation.
func (m *Model) handleConfirmKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeNone
		m.vm.ClearCompletedTasks()
	case "n", "N", "esc", "q":
		m.mode = modeNone
	}
	return *m, nil
}

func (m *Model) forwardToInput(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
	}
	return *m, cmd
}

// consumeScreen applies pending view-model events and keeps the selection in range.
func (m *Model) consumeScreen() tea.Cmd {
	s := m.screen
	m.keys.setAddEnabled(s.addVisible)
	m.selected = clamp(m.selected, 0, len(s.items)-1)

	var cmd tea.Cmd
	if s.pendingNewTask {
		s.pendingNewTask = false
		if m.mode == modeNone {
			cmd = m.openForm(domain.Task{})
		}
	}
	if s.pendingOpen != "" {
		id := s.pendingOpen
		s.pendingOpen = ""
		if _, ok := m.taskByID(id); ok && m.mode == modeNone {
			m.mode = modeTaskInfo
			m.infoTaskID = id
		}
	}
	if m.mode == modeTaskInfo {
		if _, ok := m.taskByID(m.infoTaskID); !ok {
			m.mode = modeNone
			m.infoTaskID = ""
		}
	}
	return cmd
}

// openForm opens the task form, prefilled from task when it has an id.
func (m *Model) openForm(task domain.Task) tea.Cmd {
	m.mode = modeAddTask
	m.editTaskID = task.ID
	m.titleInput.SetValue(task.Title)
	m.descInput.SetValue(task.Description)
	m.editDescription = task.Description
	m.descPrefill = m.descInput.Value()
	return m.focusField(0)
}

func (m *Model) closeForm() {
	m.mode = modeNone
	m.editTaskID = ""
	m.titleInput.Blur()
	m.descInput.Blur()
}

func (m *Model) focusField(idx int) tea.Cmd {
	m.formFocus = idx
	if idx == 0 {
		m.descInput.Blur()
		return m.titleInput.Focus()
	}
	m.titleInput.Blur()
	return m.descInput.Focus()
}

// waitForMain blocks for the next queued view-model continuation.
func (m Model) waitForMain() tea.Cmd {
	if m.loop == nil {
		return nil
	}
	loop := m.loop
	return func() tea.Msg {
		select {
		case fn := <-loop.Main():
			return mainTaskMsg{run: fn}
		case <-loop.Done():
			return nil
		}
	}
}

// errNoService is reported when the model was built without a task service.
var errNoService = errors.New("task service is not configured")

func (m Model) createTask(title, description string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if svc == nil {
			return taskCreatedMsg{err: errNoService}
		}
		task, err := svc.CreateTask(ctx, app.CreateTaskInput{
			Title:       title,
			Description: description,
		})
		return taskCreatedMsg{task: task, err: err}
	}
}

func (m Model) updateTask(id, title, description string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if svc == nil {
			return taskUpdatedMsg{err: errNoService}
		}
		task, err := svc.UpdateTask(ctx, app.UpdateTaskInput{
			TaskID:      id,
			Title:       title,
			Description: description,
		})
		return taskUpdatedMsg{task: task, err: err}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if svc == nil {
			return taskDeletedMsg{id: id, err: errNoService}
		}
		return taskDeletedMsg{id: id, err: svc.DeleteTask(ctx, id)}
	}
}

func (m Model) copyTaskID(id string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return copiedMsg{id: id, err: write(id)}
	}
}

func (m Model) selectedTask() (domain.Task, bool) {
	items := m.screen.items
	if m.selected < 0 || m.selected >= len(items) {
		return domain.Task{}, false
	}
	return items[m.selected], true
}

func (m Model) taskByID(id string) (domain.Task, bool) {
	for _, task := range m.screen.items {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render builds the full screen text.
func (m Model) render() string {
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	var body string
	switch m.mode {
	case modeAddTask:
		body = m.renderForm(accent, muted)
	case modeTaskInfo:
		body = m.renderInfo(accent, muted)
	default:
		body = m.renderList(accent, muted)
	}
	if m.mode == modeConfirmClear {
		body += "\n\n" + lipgloss.NewStyle().Foreground(accent).Render("Clear all completed tasks? (y/n)")
	}

	content := m.renderHeader(accent, muted) + "\n\n" + body
	footer := m.renderFooter(muted, dim)
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(footer)))
	}
	return content + "\n" + footer
}

func (m Model) renderHeader(accent, muted color.Color) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("tasklist")
	label := lipgloss.NewStyle().Foreground(accent).Render(m.screen.label.String())
	header := title + "  " + label
	if m.screen.loading {
		header += "  " + lipgloss.NewStyle().Foreground(muted).Render("loading...")
	}
	return header
}

func (m Model) renderList(accent, muted color.Color) string {
	s := m.screen
	if s.loadError {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("Tasks could not be loaded. Press r to retry.")
	}
	if len(s.items) == 0 {
		if s.loading {
			return ""
		}
		return lipgloss.NewStyle().Foreground(muted).Render(s.noTasks)
	}

	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	doneStyle := lipgloss.NewStyle().Foreground(muted).Strikethrough(true)
	descStyle := lipgloss.NewStyle().Foreground(muted)
	lines := make([]string, 0, len(s.items)*2)
	for idx, task := range s.items {
		cursor := "  "
		if idx == m.selected {
			cursor = "› "
		}
		box := "[ ]"
		title := task.TitleForList()
		if task.Completed {
			box = "[x]"
			title = doneStyle.Render(title)
		}
		line := cursor + box + " " + title
		if idx == m.selected {
			line = selectedStyle.Render(cursor+box) + " " + title
		}
		lines = append(lines, line)
		if m.showDescription && strings.TrimSpace(task.Title) != "" && task.Description != "" {
			first, _, _ := strings.Cut(task.Description, "\n")
			lines = append(lines, "      "+descStyle.Render(truncate(first, max(8, m.width-8))))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderForm(accent, muted color.Color) string {
	headingText := "New task"
	if m.editTaskID != "" {
		headingText = "Edit task"
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(headingText)
	hint := lipgloss.NewStyle().Foreground(muted).Render("tab switch field • enter save • esc cancel")
	return strings.Join([]string{heading, "", m.titleInput.View(), m.descInput.View(), "", hint}, "\n")
}

func (m Model) renderInfo(accent, muted color.Color) string {
	task, ok := m.taskByID(m.infoTaskID)
	if !ok {
		return ""
	}
	state := "active"
	if task.Completed {
		state = "completed"
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(task.TitleForList()),
		lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("%s • created %s • id %s", state, task.CreatedAt.Local().Format("2006-01-02 15:04"), task.ID)),
		"",
	}
	if rendered := m.md.render(task.Description, max(0, m.width-4)); rendered != "" {
		lines = append(lines, rendered)
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("(no description)"))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(muted).Render("esc back • e edit • d delete • y copy id"))
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter(muted, dim color.Color) string {
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	parts := make([]string, 0, 2)
	if text := strings.TrimSpace(m.screen.snackbar); text != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(text))
	}
	parts = append(parts, helpBubble.View(m.keys))
	return lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(strings.Join(parts, "\n"))
}

// newModalInput constructs one text input with shared modal defaults.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// fitLines trims content to at most height lines.
func fitLines(content string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= height {
		return content
	}
	return strings.Join(lines[:height], "\n")
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
