// Package taskstest drives the task-list ViewModel from tests: a fixed
// vocabulary of user actions and a harness that records every state channel.
package taskstest

import (
	"fmt"

	"github.com/hylla/tasklist/internal/app/apptest"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/tasks"
)

// Context is what an Action operates on.
type Context struct {
	ViewModel *tasks.ViewModel
	Repo      *apptest.FakeRepository
}

// Action is one self-contained user interaction. Each action sets up whatever
// it needs, so any action can run against a freshly seeded Context.
type Action struct {
	Name  string
	Apply func(*Context)
}

func (a Action) String() string {
	return fmt.Sprintf("Action(%s)", a.Name)
}

// openTaskID is the id opened by ClickOnOpenTask; no seeded task uses it.
const openTaskID = "42"

var (
	LoadAll = Action{Name: "Load", Apply: func(c *Context) {
		c.ViewModel.SetFiltering(domain.FilterAll)
		c.ViewModel.LoadTasks(true)
	}}

	LoadCompleted = Action{Name: "LoadCompleted", Apply: func(c *Context) {
		c.ViewModel.SetFiltering(domain.FilterCompleted)
		c.ViewModel.LoadTasks(true)
	}}

	LoadError = Action{Name: "LoadError", Apply: func(c *Context) {
		c.Repo.SetReturnError(true)
		c.ViewModel.LoadTasks(true)
		c.Repo.SetReturnError(false)
	}}

	ClickOnFab = Action{Name: "ClickOnFab", Apply: func(c *Context) {
		c.ViewModel.AddNewTask()
	}}

	ClickOnOpenTask = Action{Name: "ClickOnOpenTask", Apply: func(c *Context) {
		c.ViewModel.OpenTask(openTaskID)
	}}

	ClearCompletedTasks = Action{Name: "ClearCompletedTasks", Apply: func(c *Context) {
		c.ViewModel.ClearCompletedTasks()
		c.ViewModel.LoadTasks(true)
	}}

	ShowEditResultOK = Action{Name: "ShowEditResultOk", Apply: func(c *Context) {
		c.ViewModel.ShowEditResultMessage(tasks.EditResultOK)
	}}

	ShowEditResultMessages = Action{Name: "ShowDeleteResultOk", Apply: func(c *Context) {
		c.ViewModel.ShowEditResultMessage(tasks.DeleteResultOK)
	}}

	CompleteTask = Action{Name: "CompleteTask", Apply: func(c *Context) {
		task := apptest.NewTask("Title", "Description", false)
		c.Repo.AddTasks(task)
		c.ViewModel.CompleteTask(task, true)
	}}

	ActivateTask = Action{Name: "ActivateTask", Apply: func(c *Context) {
		task := apptest.NewTask("Title", "Description", true)
		c.Repo.AddTasks(task)
		c.ViewModel.CompleteTask(task, false)
	}}
)

// Actions returns the full vocabulary in a stable order.
func Actions() []Action {
	return []Action{
		LoadAll,
		LoadCompleted,
		LoadError,
		ClickOnFab,
		ClickOnOpenTask,
		ClearCompletedTasks,
		ShowEditResultOK,
		ShowEditResultMessages,
		CompleteTask,
		ActivateTask,
	}
}

// ByName looks an action up by its Name.
func ByName(name string) (Action, bool) {
	for _, a := range Actions() {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}
