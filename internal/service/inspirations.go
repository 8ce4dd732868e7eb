package service

import (
	"context"

	"github.com/tgienger/stride/internal/mapping"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// Inspirations manages inbox notes
type Inspirations struct {
	store store.Store
	opts  options
}

// NewInspirations returns an inspiration service backed by s
func NewInspirations(s store.Store, opts ...Option) *Inspirations {
	return &Inspirations{store: s, opts: newOptions(opts)}
}

// GetAll returns every inspiration, newest first. Timestamps are relative
// to the moment of the call.
func (i *Inspirations) GetAll(ctx context.Context) ([]models.Inspiration, error) {
	const op = "inspirations.getAll"

	rows, err := i.store.Select(ctx, store.TableInspirations, store.Query{
		Order: []store.Order{store.Desc("created_at")},
	})
	if err != nil {
		return nil, i.opts.fail(ctx, op, store.TableInspirations, "", err)
	}
	items, err := mapping.InspirationsFromRows(rows, i.opts.now())
	if err != nil {
		return nil, i.opts.fail(ctx, op, store.TableInspirations, "", err)
	}
	return items, nil
}

// Get returns a single inspiration
func (i *Inspirations) Get(ctx context.Context, id string) (models.Inspiration, error) {
	const op = "inspirations.get"

	rows, err := i.store.Select(ctx, store.TableInspirations, store.Query{
		Filters: []store.Filter{store.Eq("id", id)},
	})
	if err != nil {
		return models.Inspiration{}, i.opts.fail(ctx, op, store.TableInspirations, id, err)
	}
	return i.single(ctx, op, id, rows)
}

// Create inserts an inspiration and returns it as stored
func (i *Inspirations) Create(ctx context.Context, p models.InspirationPatch) (models.Inspiration, error) {
	const op = "inspirations.create"

	rows, err := i.store.Insert(ctx, store.TableInspirations, mapping.InspirationToRemote(p))
	if err != nil {
		return models.Inspiration{}, i.opts.fail(ctx, op, store.TableInspirations, "", err)
	}
	return i.single(ctx, op, "", rows)
}

// Update writes the fields set in p and returns the inspiration as stored
func (i *Inspirations) Update(ctx context.Context, id string, p models.InspirationPatch) (models.Inspiration, error) {
	const op = "inspirations.update"

	rows, err := i.store.Update(ctx, store.TableInspirations, mapping.InspirationToRemote(p), store.Eq("id", id))
	if err != nil {
		return models.Inspiration{}, i.opts.fail(ctx, op, store.TableInspirations, id, err)
	}
	return i.single(ctx, op, id, rows)
}

// Delete removes an inspiration
func (i *Inspirations) Delete(ctx context.Context, id string) error {
	if err := i.store.Delete(ctx, store.TableInspirations, store.Eq("id", id)); err != nil {
		return i.opts.fail(ctx, "inspirations.delete", store.TableInspirations, id, err)
	}
	return nil
}

func (i *Inspirations) single(ctx context.Context, op, id string, rows []store.Row) (models.Inspiration, error) {
	if len(rows) == 0 {
		return models.Inspiration{}, i.opts.fail(ctx, op, store.TableInspirations, id, ErrNotFound)
	}
	rec, err := mapping.DecodeInspiration(rows[0])
	if err != nil {
		return models.Inspiration{}, i.opts.fail(ctx, op, store.TableInspirations, id, err)
	}
	return mapping.InspirationToDomain(rec, i.opts.now()), nil
}
