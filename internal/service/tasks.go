package service

import (
	"context"

	"github.com/tgienger/stride/internal/mapping"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// Tasks manages task records
type Tasks struct {
	store store.Store
	opts  options
}

// NewTasks returns a task service backed by s
func NewTasks(s store.Store, opts ...Option) *Tasks {
	return &Tasks{store: s, opts: newOptions(opts)}
}

// GetAll returns every task, newest first
func (t *Tasks) GetAll(ctx context.Context) ([]models.Task, error) {
	const op = "tasks.getAll"

	rows, err := t.store.Select(ctx, store.TableTasks, store.Query{
		Order: []store.Order{store.Desc("created_at")},
	})
	if err != nil {
		return nil, t.opts.fail(ctx, op, store.TableTasks, "", err)
	}
	tasks, err := mapping.TasksFromRows(rows)
	if err != nil {
		return nil, t.opts.fail(ctx, op, store.TableTasks, "", err)
	}
	return tasks, nil
}

// Create inserts a task and returns it as stored
func (t *Tasks) Create(ctx context.Context, p models.TaskPatch) (models.Task, error) {
	const op = "tasks.create"

	rows, err := t.store.Insert(ctx, store.TableTasks, mapping.TaskToRemote(p))
	if err != nil {
		return models.Task{}, t.opts.fail(ctx, op, store.TableTasks, "", err)
	}
	return t.single(ctx, op, "", rows)
}

// Update writes the fields set in p and returns the task as stored
func (t *Tasks) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	const op = "tasks.update"

	rows, err := t.store.Update(ctx, store.TableTasks, mapping.TaskToRemote(p), store.Eq("id", id))
	if err != nil {
		return models.Task{}, t.opts.fail(ctx, op, store.TableTasks, id, err)
	}
	return t.single(ctx, op, id, rows)
}

// ToggleComplete sets the completed flag of a task
func (t *Tasks) ToggleComplete(ctx context.Context, id string, completed bool) (models.Task, error) {
	return t.Update(ctx, id, models.TaskPatch{Completed: &completed})
}

// Delete removes a task
func (t *Tasks) Delete(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, store.TableTasks, store.Eq("id", id)); err != nil {
		return t.opts.fail(ctx, "tasks.delete", store.TableTasks, id, err)
	}
	return nil
}

func (t *Tasks) single(ctx context.Context, op, id string, rows []store.Row) (models.Task, error) {
	if len(rows) == 0 {
		return models.Task{}, t.opts.fail(ctx, op, store.TableTasks, id, ErrNotFound)
	}
	rec, err := mapping.DecodeTask(rows[0])
	if err != nil {
		return models.Task{}, t.opts.fail(ctx, op, store.TableTasks, id, err)
	}
	return mapping.TaskToDomain(rec), nil
}
