package app

import (
	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
)

// Phase is where the application is in its load lifecycle
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseFailed
	PhaseReady
)

// Tab is a top-level section of the application
type Tab int

const (
	TabInbox Tab = iota
	TabTasks
	TabGoals
)

// Tabs lists the sections in display order
var Tabs = []Tab{TabInbox, TabTasks, TabGoals}

func (t Tab) String() string {
	switch t {
	case TabInbox:
		return "收集箱"
	case TabTasks:
		return "任务"
	case TabGoals:
		return "目标"
	}
	return ""
}

// State is the in-memory copy of the store plus the view selections.
//
// Collections change only through the methods below, which callers invoke
// after a store write has succeeded. A failed write leaves State as it was.
type State struct {
	Phase Phase
	Err   error // set in PhaseFailed

	Tasks []models.Task
	Inbox []models.Inspiration
	Goals []models.Goal

	Tab          Tab
	Today        string
	SelectedDate string
	Filter       derive.TaskFilter
	InboxSearch  string
}

// NewState returns a loading state with today selected
func NewState(today string) State {
	return State{
		Phase:        PhaseLoading,
		Tab:          TabTasks,
		Today:        today,
		SelectedDate: today,
	}
}

// StartLoad enters the loading phase, discarding any previous failure
func (s *State) StartLoad() {
	s.Phase = PhaseLoading
	s.Err = nil
}

// Loaded installs a snapshot and makes the application usable
func (s *State) Loaded(snap Snapshot) {
	s.Phase = PhaseReady
	s.Err = nil
	s.Tasks = orEmpty(snap.Tasks)
	s.Inbox = orEmpty(snap.Inbox)
	s.Goals = orEmpty(snap.Goals)
}

// LoadFailed enters the terminal failure phase. Only a retry leaves it.
func (s *State) LoadFailed(err error) {
	s.Phase = PhaseFailed
	s.Err = err
}

// Ready reports whether the data set is loaded
func (s *State) Ready() bool {
	return s.Phase == PhaseReady
}

// PutTask prepends a new task or replaces an existing one by id
func (s *State) PutTask(t models.Task) {
	s.Tasks = put(s.Tasks, t, func(t models.Task) string { return t.ID })
}

// RemoveTask drops a task by id
func (s *State) RemoveTask(id string) {
	s.Tasks = remove(s.Tasks, id, func(t models.Task) string { return t.ID })
}

// PutInspiration prepends a new inspiration or replaces an existing one by id
func (s *State) PutInspiration(it models.Inspiration) {
	s.Inbox = put(s.Inbox, it, func(it models.Inspiration) string { return it.ID })
}

// RemoveInspiration drops an inspiration by id
func (s *State) RemoveInspiration(id string) {
	s.Inbox = remove(s.Inbox, id, func(it models.Inspiration) string { return it.ID })
}

// PutGoal prepends a new goal or replaces an existing one by id
func (s *State) PutGoal(g models.Goal) {
	s.Goals = put(s.Goals, g, func(g models.Goal) string { return g.ID })
}

// RemoveGoal drops a goal by id
func (s *State) RemoveGoal(id string) {
	s.Goals = remove(s.Goals, id, func(g models.Goal) string { return g.ID })
}

// SetTab switches sections. Leaving the task list drops its named filter.
func (s *State) SetTab(t Tab) {
	if s.Tab == TabTasks && t != TabTasks {
		s.Filter = derive.FilterNone
	}
	s.Tab = t
}

// SelectDate picks the date the task list shows. Date selection and named
// filters are exclusive, so the filter is dropped.
func (s *State) SelectDate(date string) {
	s.SelectedDate = date
	s.Filter = derive.FilterNone
}

// ShiftDate moves the selected date by days
func (s *State) ShiftDate(days int) {
	s.SelectDate(derive.ShiftDate(s.SelectedDate, days))
}

// SetFilter activates a named filter
func (s *State) SetFilter(f derive.TaskFilter) {
	s.Filter = f
}

// ClearFilter returns the task list to today with no named filter
func (s *State) ClearFilter() {
	s.SelectedDate = s.Today
	s.Filter = derive.FilterNone
}

// SetToday moves the calendar day. A selection that sat on the old day
// follows it.
func (s *State) SetToday(today string) {
	if s.SelectedDate == s.Today {
		s.SelectedDate = today
	}
	s.Today = today
}

// VisibleTasks is the task list as currently filtered
func (s *State) VisibleTasks() []models.Task {
	return derive.FilterTasks(s.Tasks, s.Filter, s.SelectedDate, s.Today)
}

// TaskProgress is the completion percentage of the visible tasks
func (s *State) TaskProgress() int {
	return derive.Progress(s.VisibleTasks())
}

// TaskCounts counts tasks per named filter
func (s *State) TaskCounts() derive.TaskCounts {
	return derive.Count(s.Tasks, s.Today)
}

// FilterLabel names the current task list view
func (s *State) FilterLabel() string {
	return derive.FilterLabel(s.Filter, s.SelectedDate, s.Today)
}

// VisibleInbox is the inbox narrowed by the search query
func (s *State) VisibleInbox() []models.Inspiration {
	return derive.SearchInspirations(s.Inbox, s.InboxSearch)
}

func put[T any](items []T, item T, id func(T) string) []T {
	key := id(item)
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, it := range items {
		if id(it) == key {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = append([]T{item}, out...)
	}
	return out
}

func remove[T any](items []T, key string, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) != key {
			out = append(out, it)
		}
	}
	return out
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
