package mapping

import (
	"time"

	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

// InspirationRecord is a row of the inspirations table
type InspirationRecord struct {
	ID        string    `mapstructure:"id"`
	Type      string    `mapstructure:"type"`
	Title     string    `mapstructure:"title"`
	Content   string    `mapstructure:"content"`
	Tags      []string  `mapstructure:"tags"`
	ImageSrc  *string   `mapstructure:"image_src"`
	Duration  *string   `mapstructure:"duration"`
	CreatedAt time.Time `mapstructure:"created_at"`
	UpdatedAt time.Time `mapstructure:"updated_at"`
}

// DecodeInspiration reads an inspirations row
func DecodeInspiration(row store.Row) (InspirationRecord, error) {
	var rec InspirationRecord
	err := decode(row, &rec)
	return rec, err
}

// InspirationToDomain converts a stored inspiration to its domain shape.
// Timestamp is computed against now on every call.
func InspirationToDomain(rec InspirationRecord, now time.Time) models.Inspiration {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Inspiration{
		ID:        rec.ID,
		Type:      models.InspirationType(rec.Type),
		Title:     rec.Title,
		Content:   rec.Content,
		Tags:      tags,
		Timestamp: derive.RelativeTime(rec.CreatedAt, now),
		ImageSrc:  deref(rec.ImageSrc),
		Duration:  deref(rec.Duration),
		CreatedAt: rec.CreatedAt,
	}
}

// InspirationToRemote converts an inspiration patch to a sparse row
func InspirationToRemote(p models.InspirationPatch) store.Row {
	row := store.Row{}
	if p.Type != nil {
		row["type"] = string(*p.Type)
	}
	if p.Title != nil {
		row["title"] = *p.Title
	}
	if p.Content != nil {
		row["content"] = *p.Content
	}
	if p.Tags != nil {
		tags := *p.Tags
		if tags == nil {
			tags = []string{}
		}
		row["tags"] = tags
	}
	if p.ImageSrc != nil {
		row["image_src"] = nullable(*p.ImageSrc)
	}
	if p.Duration != nil {
		row["duration"] = nullable(*p.Duration)
	}
	return row
}

// InspirationsFromRows decodes and converts a selection of inspirations rows
func InspirationsFromRows(rows []store.Row, now time.Time) ([]models.Inspiration, error) {
	items := make([]models.Inspiration, 0, len(rows))
	for _, row := range rows {
		rec, err := DecodeInspiration(row)
		if err != nil {
			return nil, err
		}
		items = append(items, InspirationToDomain(rec, now))
	}
	return items, nil
}
