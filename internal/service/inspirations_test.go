package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

func TestInspirations_CreateReturnsStoredState(t *testing.T) {
	ctx := context.Background()
	svc := NewInspirations(newTestStore(t))

	created, err := svc.Create(ctx, models.InspirationPatch{
		Type:    models.Ptr(models.InspirationText),
		Title:   models.Ptr("idea"),
		Content: models.Ptr("a thought"),
		Tags:    models.Ptr([]string{"#go", "#tui"}),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"#go", "#tui"}, created.Tags)
	assert.Equal(t, "刚刚", created.Timestamp)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, created.ImageSrc)
}

func TestInspirations_TimestampFollowsClock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := NewInspirations(s).Create(ctx, models.InspirationPatch{Content: models.Ptr("x")})
	require.NoError(t, err)

	later := func() time.Time { return created.CreatedAt.Add(3 * time.Hour) }
	all, err := NewInspirations(s, WithClock(later)).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "3小时前", all[0].Timestamp)
}

func TestInspirations_NullTagsBecomeEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, store.TableInspirations, store.Row{"content": "no tags"})
	require.NoError(t, err)

	all, err := NewInspirations(s).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].Tags)
	assert.Empty(t, all[0].Tags)
}

func TestInspirations_UpdateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewInspirations(newTestStore(t))

	created, err := svc.Create(ctx, models.InspirationPatch{
		Type:     models.Ptr(models.InspirationImage),
		Content:  models.Ptr("photo"),
		ImageSrc: models.Ptr("https://example.com/p.jpg"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, models.InspirationPatch{Tags: models.Ptr([]string{"#trip"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"#trip"}, updated.Tags)
	assert.Equal(t, "https://example.com/p.jpg", updated.ImageSrc)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Tags, got.Tags)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestInspirations_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewInspirations(newTestStore(t))

	a, err := svc.Create(ctx, models.InspirationPatch{Content: models.Ptr("a")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, models.InspirationPatch{Content: models.Ptr("b")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func TestInspirations_GetAllFailure(t *testing.T) {
	svc := NewInspirations(&failingStore{Store: newTestStore(t), method: "select", table: store.TableInspirations})

	items, err := svc.GetAll(context.Background())
	assert.Nil(t, items)
	assert.ErrorIs(t, err, errBoom)
}
