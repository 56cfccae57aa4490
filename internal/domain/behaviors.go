package domain

import "time"

// EntityIdentity gives an entity its ID.
type EntityIdentity struct {
	id ID
}

func newIdentity() EntityIdentity {
	return EntityIdentity{id: NewID()}
}

func (e *EntityIdentity) ID() ID {
	return e.id
}

// SetID replaces the ID of an entity that has not been persisted yet.
func (e *EntityIdentity) SetID(id ID) {
	e.id = id
}

// RegenerateID replaces the ID after a primary key collision.
func (e *EntityIdentity) RegenerateID() {
	e.SetID(NewID())
}

// EntityTimestamps tracks creation and last modification.
// createdAt is fixed; updatedAt never moves backwards.
type EntityTimestamps struct {
	createdAt Timestamp
	updatedAt Timestamp
}

func newTimestamps() EntityTimestamps {
	now := Now()
	return EntityTimestamps{createdAt: now, updatedAt: now}
}

func restoreTimestamps(createdAt, updatedAt time.Time) EntityTimestamps {
	return EntityTimestamps{createdAt: NewTimestamp(createdAt), updatedAt: NewTimestamp(updatedAt)}
}

func (e *EntityTimestamps) CreatedAt() Timestamp {
	return e.createdAt
}

func (e *EntityTimestamps) UpdatedAt() Timestamp {
	return e.updatedAt
}

// Touch marks the entity as modified now.
func (e *EntityTimestamps) Touch() {
	e.TouchAt(time.Now())
}

// TouchAt sets updatedAt to t unless that would move it backwards.
func (e *EntityTimestamps) TouchAt(t time.Time) {
	ts := NewTimestamp(t)
	if ts.Before(e.updatedAt) {
		return
	}
	e.updatedAt = ts
}

// LifecycleState is the soft-delete state of an entity.
type LifecycleState uint8

const (
	StateActive LifecycleState = iota
	StateTombstoned
)

func (s LifecycleState) String() string {
	if s == StateTombstoned {
		return "tombstoned"
	}
	return "active"
}

// SoftDelete implements one-way tombstoning.
type SoftDelete struct {
	state  LifecycleState
	entity string
}

func newSoftDelete(entity string, tombstoned bool) SoftDelete {
	sd := SoftDelete{entity: entity}
	if tombstoned {
		sd.state = StateTombstoned
	}
	return sd
}

func (s *SoftDelete) MarkAsDeleted() {
	s.state = StateTombstoned
}

func (s *SoftDelete) IsDeleted() bool {
	return s.state == StateTombstoned
}

func (s *SoftDelete) State() LifecycleState {
	return s.state
}

// ValidateUpdateIsAllowed fails with ErrDeletedEntity once tombstoned.
func (s *SoftDelete) ValidateUpdateIsAllowed() error {
	if s.IsDeleted() {
		return newDomainError(ErrDeletedEntity, s.entity, "cannot modify a deleted %s", s.entity)
	}
	return nil
}

// ParentChildRelation links a child entity to its parent aggregate.
type ParentChildRelation struct {
	parentID ID
}

func (p *ParentChildRelation) ParentID() ID {
	return p.parentID
}

func (p *ParentChildRelation) BelongsToParent(id ID) bool {
	return p.parentID.Equals(id)
}

// UserOwnership records the owning user.
type UserOwnership struct {
	userID ID
}

func (u *UserOwnership) UserID() ID {
	return u.userID
}

func (u *UserOwnership) BelongsToUser(id ID) bool {
	return u.userID.Equals(id)
}
