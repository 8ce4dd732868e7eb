package mapping

import (
	"time"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// GoalRecord is a row of the goals table
type GoalRecord struct {
	ID        string    `mapstructure:"id"`
	Category  string    `mapstructure:"category"`
	Title     string    `mapstructure:"title"`
	BgImage   string    `mapstructure:"bg_image"`
	Progress  int       `mapstructure:"progress"`
	Deadline  *string   `mapstructure:"deadline"`
	Revision  int       `mapstructure:"revision"`
	CreatedAt time.Time `mapstructure:"created_at"`
	UpdatedAt time.Time `mapstructure:"updated_at"`
}

// MilestoneRecord is a row of the milestones table
type MilestoneRecord struct {
	ID        string    `mapstructure:"id"`
	GoalID    string    `mapstructure:"goal_id"`
	Title     string    `mapstructure:"title"`
	Completed bool      `mapstructure:"completed"`
	SortOrder int       `mapstructure:"sort_order"`
	CreatedAt time.Time `mapstructure:"created_at"`
}

// DecodeGoal reads a goals row
func DecodeGoal(row store.Row) (GoalRecord, error) {
	var rec GoalRecord
	err := decode(row, &rec)
	return rec, err
}

// DecodeMilestone reads a milestones row
func DecodeMilestone(row store.Row) (MilestoneRecord, error) {
	var rec MilestoneRecord
	err := decode(row, &rec)
	return rec, err
}

// GoalToDomain converts a stored goal row. Milestones are left empty for
// the caller to attach.
func GoalToDomain(rec GoalRecord) models.Goal {
	return models.Goal{
		ID:         rec.ID,
		Category:   rec.Category,
		Title:      rec.Title,
		BgImage:    rec.BgImage,
		Progress:   rec.Progress,
		Milestones: []models.Milestone{},
		Deadline:   deref(rec.Deadline),
		Revision:   rec.Revision,
	}
}

// MilestoneToDomain converts a stored milestone
func MilestoneToDomain(rec MilestoneRecord) models.Milestone {
	return models.Milestone{
		ID:        rec.ID,
		Title:     rec.Title,
		Completed: rec.Completed,
	}
}

// GoalToRemote converts the scalar fields of a goal patch to a sparse row.
// Milestones and the expected revision are not columns of the goal row.
func GoalToRemote(p models.GoalPatch) store.Row {
	row := store.Row{}
	if p.Category != nil {
		row["category"] = *p.Category
	}
	if p.Title != nil {
		row["title"] = *p.Title
	}
	if p.BgImage != nil {
		row["bg_image"] = *p.BgImage
	}
	if p.Progress != nil {
		row["progress"] = *p.Progress
	}
	if p.Deadline != nil {
		row["deadline"] = nullable(*p.Deadline)
	}
	return row
}

// MilestonesToRemote builds the milestone rows for goalID. sort_order is
// the position in milestones; incoming ids are not kept.
func MilestonesToRemote(goalID string, milestones []models.Milestone) []store.Row {
	rows := make([]store.Row, len(milestones))
	for i, m := range milestones {
		rows[i] = store.Row{
			"goal_id":    goalID,
			"title":      m.Title,
			"completed":  m.Completed,
			"sort_order": i,
		}
	}
	return rows
}

// MilestoneRecordsFromRows decodes a selection of milestones rows
func MilestoneRecordsFromRows(rows []store.Row) ([]MilestoneRecord, error) {
	recs := make([]MilestoneRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := DecodeMilestone(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// MilestonesFromRows decodes and converts milestones rows, keeping their order
func MilestonesFromRows(rows []store.Row) ([]models.Milestone, error) {
	recs, err := MilestoneRecordsFromRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]models.Milestone, len(recs))
	for i, rec := range recs {
		out[i] = MilestoneToDomain(rec)
	}
	return out, nil
}
