package mapping

import (
	"time"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// TaskRecord is a row of the tasks table
type TaskRecord struct {
	ID        string    `mapstructure:"id"`
	Title     string    `mapstructure:"title"`
	Category  string    `mapstructure:"category"`
	Priority  string    `mapstructure:"priority"`
	Completed bool      `mapstructure:"completed"`
	IsDaily   bool      `mapstructure:"is_daily"`
	Date      string    `mapstructure:"date"`
	CreatedAt time.Time `mapstructure:"created_at"`
	UpdatedAt time.Time `mapstructure:"updated_at"`
}

// DecodeTask reads a tasks row
func DecodeTask(row store.Row) (TaskRecord, error) {
	var rec TaskRecord
	err := decode(row, &rec)
	return rec, err
}

// TaskToDomain converts a stored task to its domain shape
func TaskToDomain(rec TaskRecord) models.Task {
	return models.Task{
		ID:        rec.ID,
		Title:     rec.Title,
		Category:  rec.Category,
		Priority:  models.Priority(rec.Priority),
		Completed: rec.Completed,
		IsDaily:   rec.IsDaily,
		Date:      rec.Date,
	}
}

// TaskToRemote converts a task patch to a sparse row
func TaskToRemote(p models.TaskPatch) store.Row {
	row := store.Row{}
	if p.Title != nil {
		row["title"] = *p.Title
	}
	if p.Category != nil {
		row["category"] = *p.Category
	}
	if p.Priority != nil {
		row["priority"] = string(*p.Priority)
	}
	if p.Completed != nil {
		row["completed"] = *p.Completed
	}
	if p.IsDaily != nil {
		row["is_daily"] = *p.IsDaily
	}
	if p.Date != nil {
		row["date"] = *p.Date
	}
	return row
}

// TasksFromRows decodes and converts a selection of tasks rows
func TasksFromRows(rows []store.Row) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		rec, err := DecodeTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, TaskToDomain(rec))
	}
	return tasks, nil
}
