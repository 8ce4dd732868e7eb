package derive

import (
	"strings"

	"github.com/tgienger/stride/internal/models"
)

// TaskFilter is a named task filter. The zero value means "by date".
type TaskFilter string

const (
	FilterNone    TaskFilter = ""
	FilterAll     TaskFilter = "all"
	FilterDaily   TaskFilter = "daily"
	FilterOverdue TaskFilter = "overdue"
)

// ParseTaskFilter accepts the filter names used on the command line
func ParseTaskFilter(s string) (TaskFilter, bool) {
	switch f := TaskFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterNone, FilterAll, FilterDaily, FilterOverdue:
		return f, true
	}
	return FilterNone, false
}

// IsOverdue reports whether an incomplete, non-daily task is dated before today
func IsOverdue(t models.Task, today string) bool {
	return !t.Completed && !t.IsDaily && t.Date < today
}

// VisibleOn reports whether t shows up when selectedDate is picked.
// Daily tasks show every day, completed tasks only on their own date and
// incomplete tasks carry forward from their date onward.
func VisibleOn(t models.Task, selectedDate string) bool {
	if t.IsDaily {
		return true
	}
	if t.Completed {
		return t.Date == selectedDate
	}
	return t.Date <= selectedDate
}

// Matches applies filter to a single task. A named filter overrides the
// date rule entirely.
func Matches(t models.Task, filter TaskFilter, selectedDate, today string) bool {
	switch filter {
	case FilterAll:
		return true
	case FilterDaily:
		return t.IsDaily
	case FilterOverdue:
		return IsOverdue(t, today)
	}
	return VisibleOn(t, selectedDate)
}

// FilterTasks returns the tasks matching filter, keeping their order
func FilterTasks(tasks []models.Task, filter TaskFilter, selectedDate, today string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, filter, selectedDate, today) {
			out = append(out, t)
		}
	}
	return out
}

// Progress is the completion percentage of a task set, 0 when empty
func Progress(tasks []models.Task) int {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return models.Percent(done, len(tasks))
}

// TaskCounts backs the filter menu badges
type TaskCounts struct {
	All     int
	Daily   int
	Overdue int
}

// Count tallies tasks per named filter
func Count(tasks []models.Task, today string) TaskCounts {
	c := TaskCounts{All: len(tasks)}
	for _, t := range tasks {
		if t.IsDaily {
			c.Daily++
		}
		if IsOverdue(t, today) {
			c.Overdue++
		}
	}
	return c
}

// FilterLabel is the heading shown above the task list
func FilterLabel(filter TaskFilter, selectedDate, today string) string {
	switch filter {
	case FilterAll:
		return "全部任务"
	case FilterDaily:
		return "日常循环"
	case FilterOverdue:
		return "已过期任务"
	}
	if selectedDate == today {
		return "今天"
	}
	return selectedDate
}

// SearchInspirations keeps items whose title, content or any tag contains
// query, case-insensitively. An empty query keeps everything.
func SearchInspirations(items []models.Inspiration, query string) []models.Inspiration {
	q := strings.ToLower(query)
	out := make([]models.Inspiration, 0, len(items))
	for _, it := range items {
		if inspirationMatches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func inspirationMatches(it models.Inspiration, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// AddTag appends raw to tags as a "#"-prefixed tag. Blank input and tags
// already present leave tags unchanged.
func AddTag(tags []string, raw string) []string {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return tags
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	return append(append(make([]string, 0, len(tags)+1), tags...), tag)
}

// RemoveTag drops tag from tags
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
