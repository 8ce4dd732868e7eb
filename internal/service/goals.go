package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tgienger/stride/internal/mapping"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// Goals manages goals and the milestones they own.
//
// A goal is two kinds of row: the goal itself and its milestones. Writes
// touch the goal row first and the milestones second. If the second step
// fails the goal row stays as written and the error is a
// *PartialWriteError. Progress is always derived from the milestone set
// and any Progress in a patch is ignored.
type Goals struct {
	store store.Store
	opts  options
}

// NewGoals returns a goal service backed by s
func NewGoals(s store.Store, opts ...Option) *Goals {
	return &Goals{store: s, opts: newOptions(opts)}
}

// GetAll returns every goal, newest first, each with its milestones in
// order
func (g *Goals) GetAll(ctx context.Context) ([]models.Goal, error) {
	const op = "goals.getAll"

	var goalRows, milestoneRows []store.Row
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		goalRows, err = g.store.Select(egCtx, store.TableGoals, store.Query{
			Order: []store.Order{store.Desc("created_at")},
		})
		return err
	})
	eg.Go(func() error {
		var err error
		milestoneRows, err = g.store.Select(egCtx, store.TableMilestones, store.Query{
			Order: []store.Order{store.Asc("sort_order")},
		})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, g.opts.fail(ctx, op, store.TableGoals, "", err)
	}

	recs, err := mapping.MilestoneRecordsFromRows(milestoneRows)
	if err != nil {
		return nil, g.opts.fail(ctx, op, store.TableMilestones, "", err)
	}
	byGoal := make(map[string][]models.Milestone)
	for _, rec := range recs {
		byGoal[rec.GoalID] = append(byGoal[rec.GoalID], mapping.MilestoneToDomain(rec))
	}

	goals := make([]models.Goal, 0, len(goalRows))
	for _, row := range goalRows {
		rec, err := mapping.DecodeGoal(row)
		if err != nil {
			return nil, g.opts.fail(ctx, op, store.TableGoals, "", err)
		}
		goal := mapping.GoalToDomain(rec)
		if ms, ok := byGoal[goal.ID]; ok {
			goal.Milestones = ms
		}
		goal.Progress = models.MilestoneProgress(goal.Milestones)
		goals = append(goals, goal)
	}
	return goals, nil
}

// Create inserts a goal and then its milestones
func (g *Goals) Create(ctx context.Context, p models.GoalPatch) (models.Goal, error) {
	const op = "goals.create"

	var milestones []models.Milestone
	if p.Milestones != nil {
		milestones = *p.Milestones
	}

	row := mapping.GoalToRemote(p)
	row["progress"] = models.MilestoneProgress(milestones)

	rows, err := g.store.Insert(ctx, store.TableGoals, row)
	if err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableGoals, "", err)
	}
	goal, err := g.decodeGoal(ctx, op, "", rows)
	if err != nil {
		return models.Goal{}, err
	}

	goal.Milestones, err = g.insertMilestones(ctx, goal.ID, milestones)
	if err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableMilestones, goal.ID,
			&PartialWriteError{GoalID: goal.ID, Step: "milestones.insert", Err: err})
	}
	goal.Progress = models.MilestoneProgress(goal.Milestones)
	return goal, nil
}

// Update writes the scalar fields set in p. A non-nil p.Milestones replaces
// the goal's milestones entirely; a nil one leaves them as they are.
func (g *Goals) Update(ctx context.Context, id string, p models.GoalPatch) (models.Goal, error) {
	const op = "goals.update"

	row := mapping.GoalToRemote(p)
	filters := []store.Filter{store.Eq("id", id)}
	if p.ExpectedRevision != nil {
		filters = append(filters, store.Eq("revision", *p.ExpectedRevision))
		row["revision"] = *p.ExpectedRevision + 1
	}

	var milestones []models.Milestone
	if p.Milestones != nil {
		milestones = *p.Milestones
	} else {
		existing, err := g.milestonesOf(ctx, id)
		if err != nil {
			return models.Goal{}, g.opts.fail(ctx, op, store.TableMilestones, id, err)
		}
		milestones = existing
	}
	row["progress"] = models.MilestoneProgress(milestones)

	rows, err := g.store.Update(ctx, store.TableGoals, row, filters...)
	if err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableGoals, id, err)
	}
	if len(rows) == 0 {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableGoals, id, g.missReason(ctx, id, p.ExpectedRevision != nil))
	}
	goal, err := g.decodeGoal(ctx, op, id, rows)
	if err != nil {
		return models.Goal{}, err
	}

	if p.Milestones == nil {
		goal.Milestones = milestones
		goal.Progress = models.MilestoneProgress(milestones)
		return goal, nil
	}

	if err := g.store.Delete(ctx, store.TableMilestones, store.Eq("goal_id", id)); err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableMilestones, id,
			&PartialWriteError{GoalID: id, Step: "milestones.delete", Err: err})
	}
	goal.Milestones, err = g.insertMilestones(ctx, id, milestones)
	if err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableMilestones, id,
			&PartialWriteError{GoalID: id, Step: "milestones.insert", Err: err})
	}
	goal.Progress = models.MilestoneProgress(goal.Milestones)
	return goal, nil
}

// Delete removes a goal's milestones and then the goal
func (g *Goals) Delete(ctx context.Context, id string) error {
	const op = "goals.delete"

	if err := g.store.Delete(ctx, store.TableMilestones, store.Eq("goal_id", id)); err != nil {
		return g.opts.fail(ctx, op, store.TableMilestones, id, err)
	}
	if err := g.store.Delete(ctx, store.TableGoals, store.Eq("id", id)); err != nil {
		return g.opts.fail(ctx, op, store.TableGoals, id, err)
	}
	return nil
}

func (g *Goals) milestonesOf(ctx context.Context, goalID string) ([]models.Milestone, error) {
	rows, err := g.store.Select(ctx, store.TableMilestones, store.Query{
		Filters: []store.Filter{store.Eq("goal_id", goalID)},
		Order:   []store.Order{store.Asc("sort_order")},
	})
	if err != nil {
		return nil, err
	}
	return mapping.MilestonesFromRows(rows)
}

func (g *Goals) insertMilestones(ctx context.Context, goalID string, milestones []models.Milestone) ([]models.Milestone, error) {
	if len(milestones) == 0 {
		return []models.Milestone{}, nil
	}
	rows, err := g.store.Insert(ctx, store.TableMilestones, mapping.MilestonesToRemote(goalID, milestones)...)
	if err != nil {
		return nil, err
	}
	return mapping.MilestonesFromRows(rows)
}

// missReason explains an update that matched no row
func (g *Goals) missReason(ctx context.Context, id string, guarded bool) error {
	if !guarded {
		return ErrNotFound
	}
	rows, err := g.store.Select(ctx, store.TableGoals, store.Query{
		Filters: []store.Filter{store.Eq("id", id)},
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (g *Goals) decodeGoal(ctx context.Context, op, id string, rows []store.Row) (models.Goal, error) {
	if len(rows) == 0 {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableGoals, id, ErrNotFound)
	}
	rec, err := mapping.DecodeGoal(rows[0])
	if err != nil {
		return models.Goal{}, g.opts.fail(ctx, op, store.TableGoals, id, err)
	}
	return mapping.GoalToDomain(rec), nil
}
