// Package projection pairs a stored entity with the timestamps its store keeps.
package projection

import "time"

// Metadata records when an entity was first stored and last replaced.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection is an entity as a store returns it.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New stamps a first write of entity at now.
func New[T any](entity T, now time.Time) Projection[T] {
	return Projection[T]{Entity: entity, Metadata: Metadata{CreatedAt: now, UpdatedAt: now}}
}

// Revise replaces the entity and bumps UpdatedAt, keeping the original CreatedAt.
func (p Projection[T]) Revise(entity T, now time.Time) Projection[T] {
	p.Entity = entity
	p.Metadata.UpdatedAt = now
	return p
}

// StoredBefore orders projections oldest first; tieBreak decides equal creation times.
func StoredBefore[T any](a, b Projection[T], tieBreak func(a, b T) bool) bool {
	if a.Metadata.CreatedAt.Equal(b.Metadata.CreatedAt) {
		return tieBreak(a.Entity, b.Entity)
	}
	return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
}
