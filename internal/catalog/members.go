package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

// AddMember appends personID to the group's members and returns the group.
// Adding a person that is already a member writes nothing.
//
// The person is not looked up: IDs that do not resolve to one of the owner's
// people are skipped by MaterializeMembers.
func (c *Catalog) AddMember(ctx context.Context, ownerID, groupID, personID string) (*models.Group, error) {
	if personID == "" {
		return nil, validation("person is required")
	}

	group, err := c.GetGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	if group.HasMember(personID) {
		return group, nil
	}

	return c.setMembers(ctx, group, group.WithMember(personID))
}

// RemoveMember drops personID from the group's members and returns the group.
// Removing a non-member writes nothing.
func (c *Catalog) RemoveMember(ctx context.Context, ownerID, groupID, personID string) (*models.Group, error) {
	if personID == "" {
		return nil, validation("person is required")
	}

	group, err := c.GetGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(personID) {
		return group, nil
	}

	return c.setMembers(ctx, group, group.WithoutMember(personID))
}

func (c *Catalog) setMembers(ctx context.Context, group *models.Group, ids []string) (*models.Group, error) {
	patch := models.SetMembers(ids)
	if err := c.store.UpdateGroup(ctx, group.ID, patch); err != nil {
		return nil, storeErr("update group members", err)
	}
	group.Apply(patch)
	group.UpdatedAt = c.now().Unix()
	return group, nil
}

// MaterializeMembers resolves the group's member IDs to people, in member
// order. IDs that no longer exist, or that belong to another owner, are
// skipped. Lookups run concurrently; any other store failure aborts the call.
func (c *Catalog) MaterializeMembers(ctx context.Context, ownerID string, group *models.Group) ([]*models.Person, error) {
	if group == nil {
		return nil, validation("group is required")
	}
	if group.OwnerID != ownerID {
		return nil, fmt.Errorf("materialize group %s: %w", group.ID, ErrNotFound)
	}

	ids := models.DedupeIDs(group.MemberIDs)
	resolved := make([]*models.Person, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, id := range ids {
		g.Go(func() error {
			p, err := c.store.GetPerson(gctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return storeErr("materialize members", err)
			}
			if p.OwnerID == ownerID {
				resolved[i] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	members := make([]*models.Person, 0, len(resolved))
	for _, p := range resolved {
		if p != nil {
			members = append(members, p)
		}
	}
	return members, nil
}

// AvailablePersons returns the persons that are not members of group,
// keeping the order of persons.
func AvailablePersons(persons []*models.Person, group *models.Group) []*models.Person {
	available := make([]*models.Person, 0, len(persons))
	for _, p := range persons {
		if group == nil || !group.HasMember(p.ID) {
			available = append(available, p)
		}
	}
	return available
}
