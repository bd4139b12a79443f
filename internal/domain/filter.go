package domain

import "strings"

// Filter selects which tasks are visible in the list.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

var filterNames = map[Filter]string{
	FilterAll:       "all",
	FilterActive:    "active",
	FilterCompleted: "completed",
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return "unknown"
}

func (f Filter) Valid() bool {
	_, ok := filterNames[f]
	return ok
}

// ParseFilter accepts the filter names and the empty string, which means all.
func ParseFilter(raw string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return FilterAll, ErrInvalidFilter
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) Label() Label {
	switch f {
	case FilterActive:
		return LabelActive
	case FilterCompleted:
		return LabelCompleted
	default:
		return LabelAll
	}
}

// Match reports whether the task is visible under the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterActive:
		return t.IsActive()
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply keeps the input order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Label is the display label mirroring the current filter.
type Label int

const (
	LabelAll Label = iota
	LabelActive
	LabelCompleted
)

func (l Label) String() string {
	switch l {
	case LabelActive:
		return "Active Tasks"
	case LabelCompleted:
		return "Completed Tasks"
	default:
		return "All Tasks"
	}
}

// NoTasksText is shown in place of an empty list.
func (f Filter) NoTasksText() string {
	switch f {
	case FilterActive:
		return "You have no active tasks!"
	case FilterCompleted:
		return "You have no completed tasks!"
	default:
		return "You have no tasks!"
	}
}
