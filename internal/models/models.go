package models

import (
	"math"
	"time"
)

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the task priorities in ascending order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// InspirationType is the kind of content an inspiration holds
type InspirationType string

const (
	InspirationText  InspirationType = "text"
	InspirationImage InspirationType = "image"
	InspirationVoice InspirationType = "voice"
)

// Task represents a single to-do item
type Task struct {
	ID        string
	Title     string
	Category  string
	Priority  Priority
	Completed bool
	IsDaily   bool
	Date      string // YYYY-MM-DD
}

// Inspiration represents a free-form note in the inbox
type Inspiration struct {
	ID        string
	Type      InspirationType
	Title     string
	Content   string
	Tags      []string
	Timestamp string // relative to the moment the record was read, never stored
	ImageSrc  string // empty when absent
	Duration  string // empty when absent
	CreatedAt time.Time
}

// Milestone is a step of a goal. It has no identity outside its goal.
type Milestone struct {
	ID        string
	Title     string
	Completed bool
}

// Goal represents a long-term goal with milestones
type Goal struct {
	ID         string
	Category   string
	Title      string
	BgImage    string
	Progress   int // 0-100, derived from Milestones
	Milestones []Milestone
	Deadline   string // empty when absent
	Revision   int
}

// TaskPatch is a partial Task. Nil fields are left untouched.
type TaskPatch struct {
	Title     *string
	Category  *string
	Priority  *Priority
	Completed *bool
	IsDaily   *bool
	Date      *string
}

// InspirationPatch is a partial Inspiration. Nil fields are left untouched.
type InspirationPatch struct {
	Type     *InspirationType
	Title    *string
	Content  *string
	Tags     *[]string
	ImageSrc *string
	Duration *string
}

// GoalPatch is a partial Goal. Nil fields are left untouched.
//
// A non-nil Milestones replaces the whole milestone set, an empty slice
// included. ExpectedRevision, when set, makes the update fail with a
// conflict if the stored revision differs. Progress is ignored by the
// goals service, which recomputes it from the milestone set on every write.
type GoalPatch struct {
	Category         *string
	Title            *string
	BgImage          *string
	Progress         *int
	Deadline         *string
	Milestones       *[]Milestone
	ExpectedRevision *int
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Percent returns round(100*part/total), or 0 when total is 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// MilestoneProgress returns the completion percentage of a milestone set
func MilestoneProgress(milestones []Milestone) int {
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return Percent(done, len(milestones))
}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Valid reports whether t is a known inspiration type
func (t InspirationType) Valid() bool {
	switch t {
	case InspirationText, InspirationImage, InspirationVoice:
		return true
	}
	return false
}
