// Package memory provides an in-process implementation of storage.Store.
// Data lives only as long as the process; it backs tests and demo mode.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps documents in maps guarded by a single RWMutex.
// Insertion order is remembered so listings are stable.
type Store struct {
	mu sync.RWMutex

	persons     map[string]*models.Person
	personOrder []string

	groups     map[string]*models.Group
	groupOrder []string

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		persons: make(map[string]*models.Person),
		groups:  make(map[string]*models.Group),
		now:     time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// ListPersons returns copies of the owner's people in creation order.
func (s *Store) ListPersons(ctx context.Context, ownerID string) ([]*models.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := []*models.Person{}
	for _, id := range s.personOrder {
		p, ok := s.persons[id]
		if ok && p.OwnerID == ownerID {
			persons = append(persons, p.Clone())
		}
	}
	return persons, nil
}

// GetPerson returns a copy of the person.
func (s *Store) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	return p.Clone(), nil
}

// CreatePerson stores a copy of person under a fresh UUID.
func (s *Store) CreatePerson(ctx context.Context, person *models.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	person.ID = uuid.New().String()
	person.CreatedAt = now
	person.UpdatedAt = now

	s.persons[person.ID] = person.Clone()
	s.personOrder = append(s.personOrder, person.ID)
	return nil
}

// UpdatePerson applies patch in place.
func (s *Store) UpdatePerson(ctx context.Context, id string, patch models.PersonPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok {
		return fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	p.Apply(patch)
	p.UpdatedAt = s.now().Unix()
	return nil
}

// DeletePerson removes the person if present.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return nil
	}
	delete(s.persons, id)
	s.personOrder = removeID(s.personOrder, id)
	return nil
}

// ListGroups returns copies of the owner's groups in creation order.
func (s *Store) ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := []*models.Group{}
	for _, id := range s.groupOrder {
		g, ok := s.groups[id]
		if ok && g.OwnerID == ownerID {
			groups = append(groups, g.Clone())
		}
	}
	return groups, nil
}

// GetGroup returns a copy of the group.
func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	return g.Clone(), nil
}

// CreateGroup stores a copy of group under a fresh UUID.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	group.ID = uuid.New().String()
	group.CreatedAt = now
	group.UpdatedAt = now
	if group.MemberIDs == nil {
		group.MemberIDs = []string{}
	}

	s.groups[group.ID] = group.Clone()
	s.groupOrder = append(s.groupOrder, group.ID)
	return nil
}

// UpdateGroup applies patch in place.
func (s *Store) UpdateGroup(ctx context.Context, id string, patch models.GroupPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	g.Apply(patch)
	g.UpdatedAt = s.now().Unix()
	return nil
}

// DeleteGroup removes the group if present.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return nil
	}
	delete(s.groups, id)
	s.groupOrder = removeID(s.groupOrder, id)
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
