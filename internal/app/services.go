// Package app holds the application state shared by the presentation
// layers and the initial load that fills it.
package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/service"
	"github.com/tgienger/stride/internal/store"
)

// Services bundles the per-entity services over one store
type Services struct {
	Tasks        *service.Tasks
	Inspirations *service.Inspirations
	Goals        *service.Goals
}

// NewServices builds every service over s with the same options
func NewServices(s store.Store, opts ...service.Option) *Services {
	return &Services{
		Tasks:        service.NewTasks(s, opts...),
		Inspirations: service.NewInspirations(s, opts...),
		Goals:        service.NewGoals(s, opts...),
	}
}

// Snapshot is the full data set read at load time
type Snapshot struct {
	Tasks []models.Task
	Inbox []models.Inspiration
	Goals []models.Goal
}

// Load reads tasks, inspirations and goals concurrently. It succeeds only
// if all three reads do; on failure no partial snapshot is returned.
func (s *Services) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tasks, err := s.Tasks.GetAll(ctx)
		snap.Tasks = tasks
		return err
	})
	g.Go(func() error {
		inbox, err := s.Inspirations.GetAll(ctx)
		snap.Inbox = inbox
		return err
	})
	g.Go(func() error {
		goals, err := s.Goals.GetAll(ctx)
		snap.Goals = goals
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
