package tasks

// EditResult is the outcome reported by the add/edit screen when it closes.
type EditResult int

const (
	EditResultOK EditResult = iota + 1
	DeleteResultOK
	AddEditResultOK
)

// Snackbar texts shown by the list screen.
const (
	msgTaskSaved         = "Task saved"
	msgTaskAdded         = "Task added"
	msgTaskDeleted       = "Task was deleted"
	msgTaskCompleted     = "Task marked complete"
	msgTaskActivated     = "Task marked active"
	msgCompletedCleared  = "Completed tasks cleared"
	msgLoadingTasksError = "Error while loading tasks"
	msgTaskUpdateFailed  = "Could not update task"
	msgClearFailed       = "Could not clear completed tasks"
)

func (r EditResult) message() (string, bool) {
	switch r {
	case EditResultOK:
		return msgTaskSaved, true
	case AddEditResultOK:
		return msgTaskAdded, true
	case DeleteResultOK:
		return msgTaskDeleted, true
	default:
		return "", false
	}
}
