package catalog

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/mypeeps/internal/models"
)

// Session holds the last known People and Groups of one owner.
//
// Mutations write through the Catalog and are applied to the snapshot only
// after the store accepted them. The snapshot is best effort: edits made by
// other sessions show up only after Refresh.
//
// A Session is safe for concurrent use but must not be shared between owners.
type Session struct {
	catalog *Catalog
	ownerID string

	mu      sync.RWMutex
	persons []*models.Person
	groups  []*models.Group
}

// NewSession returns an empty session for ownerID. Call Refresh to load it.
func (c *Catalog) NewSession(ownerID string) *Session {
	return &Session{
		catalog: c,
		ownerID: ownerID,
		persons: []*models.Person{},
		groups:  []*models.Group{},
	}
}

// OwnerID returns the owner the session is scoped to.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// Refresh reloads People and Groups from the store. On error the previous
// snapshot is kept.
func (s *Session) Refresh(ctx context.Context) error {
	var persons []*models.Person
	var groups []*models.Group

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persons, err = s.catalog.ListPersons(gctx, s.ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.catalog.ListGroups(gctx, s.ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.persons = persons
	s.groups = groups
	s.mu.Unlock()
	return nil
}

// Persons returns a copy of the snapshot's people.
func (s *Session) Persons() []*models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePersons(s.persons)
}

// Groups returns a copy of the snapshot's groups.
func (s *Session) Groups() []*models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

// Group returns a copy of a snapshot group.
func (s *Session) Group(id string) (*models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.groupIndex(id); i >= 0 {
		return s.groups[i].Clone(), true
	}
	return nil, false
}

// Person returns a copy of a snapshot person.
func (s *Session) Person(id string) (*models.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.personIndex(id); i >= 0 {
		return s.persons[i].Clone(), true
	}
	return nil, false
}

// AvailablePersons returns the snapshot people that are not members of the
// group, for picking a new member. Unknown groups yield every person.
func (s *Session) AvailablePersons(groupID string) []*models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var group *models.Group
	if i := s.groupIndex(groupID); i >= 0 {
		group = s.groups[i]
	}
	return clonePersons(AvailablePersons(s.persons, group))
}

// CreatePerson creates a person and adds it to the snapshot.
func (s *Session) CreatePerson(ctx context.Context, in PersonInput) (*models.Person, error) {
	p, err := s.catalog.CreatePerson(ctx, s.ownerID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.persons = append(s.persons, p.Clone())
	sortPersons(s.persons)
	s.mu.Unlock()
	return p, nil
}

// UpdatePerson updates a person and replaces it in the snapshot.
func (s *Session) UpdatePerson(ctx context.Context, id string, in PersonInput) (*models.Person, error) {
	p, err := s.catalog.UpdatePerson(ctx, s.ownerID, id, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.persons = upsert(s.persons, s.personIndex(id), p.Clone())
	sortPersons(s.persons)
	s.mu.Unlock()
	return p, nil
}

// DeletePerson deletes a person and drops it from the snapshot.
// Snapshot groups keep the ID, as the stored ones do.
func (s *Session) DeletePerson(ctx context.Context, id string) error {
	if err := s.catalog.DeletePerson(ctx, s.ownerID, id); err != nil {
		return err
	}
	s.mu.Lock()
	if i := s.personIndex(id); i >= 0 {
		s.persons = slices.Delete(s.persons, i, i+1)
	}
	s.mu.Unlock()
	return nil
}

// CreateGroup creates a group and adds it to the snapshot.
func (s *Session) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	g, err := s.catalog.CreateGroup(ctx, s.ownerID, name)
	if err != nil {
		return nil, err
	}
	s.putGroup(g)
	return g, nil
}

// UpdateGroup renames a group in the store and the snapshot.
func (s *Session) UpdateGroup(ctx context.Context, id, name string) (*models.Group, error) {
	g, err := s.catalog.UpdateGroup(ctx, s.ownerID, id, name)
	if err != nil {
		return nil, err
	}
	s.putGroup(g)
	return g, nil
}

// DeleteGroup deletes a group and drops it from the snapshot.
func (s *Session) DeleteGroup(ctx context.Context, id string) error {
	if err := s.catalog.DeleteGroup(ctx, s.ownerID, id); err != nil {
		return err
	}
	s.mu.Lock()
	if i := s.groupIndex(id); i >= 0 {
		s.groups = slices.Delete(s.groups, i, i+1)
	}
	s.mu.Unlock()
	return nil
}

// AddMember adds a person to a group and updates the snapshot group.
func (s *Session) AddMember(ctx context.Context, groupID, personID string) (*models.Group, error) {
	g, err := s.catalog.AddMember(ctx, s.ownerID, groupID, personID)
	if err != nil {
		return nil, err
	}
	s.putGroup(g)
	return g, nil
}

// RemoveMember removes a person from a group and updates the snapshot group.
func (s *Session) RemoveMember(ctx context.Context, groupID, personID string) (*models.Group, error) {
	g, err := s.catalog.RemoveMember(ctx, s.ownerID, groupID, personID)
	if err != nil {
		return nil, err
	}
	s.putGroup(g)
	return g, nil
}

// Members resolves a snapshot group's members against the store.
func (s *Session) Members(ctx context.Context, groupID string) ([]*models.Person, error) {
	g, ok := s.Group(groupID)
	if !ok {
		var err error
		if g, err = s.catalog.GetGroup(ctx, s.ownerID, groupID); err != nil {
			return nil, err
		}
	}
	return s.catalog.MaterializeMembers(ctx, s.ownerID, g)
}

func (s *Session) putGroup(g *models.Group) {
	s.mu.Lock()
	s.groups = upsert(s.groups, s.groupIndex(g.ID), g.Clone())
	sortGroups(s.groups)
	s.mu.Unlock()
}

// personIndex and groupIndex must be called with s.mu held.
func (s *Session) personIndex(id string) int {
	return slices.IndexFunc(s.persons, func(p *models.Person) bool { return p.ID == id })
}

func (s *Session) groupIndex(id string) int {
	return slices.IndexFunc(s.groups, func(g *models.Group) bool { return g.ID == id })
}

func upsert[T any](items []T, i int, v T) []T {
	if i < 0 {
		return append(items, v)
	}
	items[i] = v
	return items
}

func clonePersons(persons []*models.Person) []*models.Person {
	out := make([]*models.Person, len(persons))
	for i, p := range persons {
		out[i] = p.Clone()
	}
	return out
}
