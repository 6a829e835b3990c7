package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

// ListGroups returns the owner's groups in natural name order.
func (c *Catalog) ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error) {
	groups, err := c.store.ListGroups(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	sortGroups(groups)
	return groups, nil
}

// GetGroup returns one of the owner's groups.
func (c *Catalog) GetGroup(ctx context.Context, ownerID, id string) (*models.Group, error) {
	g, err := c.store.GetGroup(ctx, id)
	if err != nil {
		return nil, storeErr("get group", err)
	}
	if g.OwnerID != ownerID {
		return nil, fmt.Errorf("get group %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// CreateGroup stores a new group with no members.
func (c *Catalog) CreateGroup(ctx context.Context, ownerID, name string) (*models.Group, error) {
	name, err := validateGroup(ownerID, name)
	if err != nil {
		return nil, err
	}

	group := models.NewGroup(ownerID, name)
	if err := c.store.CreateGroup(ctx, group); err != nil {
		return nil, storeErr("create group", err)
	}

	slog.Debug("Group created", "group_id", group.ID, "owner_id", ownerID)
	return group, nil
}

// UpdateGroup renames a group. Members are not touched.
func (c *Catalog) UpdateGroup(ctx context.Context, ownerID, id, name string) (*models.Group, error) {
	name, err := validateGroup(ownerID, name)
	if err != nil {
		return nil, err
	}

	group, err := c.GetGroup(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	patch := models.RenameGroup(name)
	if err := c.store.UpdateGroup(ctx, id, patch); err != nil {
		return nil, storeErr("update group", err)
	}

	group.Apply(patch)
	group.UpdatedAt = c.now().Unix()
	return group, nil
}

// DeleteGroup removes one of the owner's groups. Missing and foreign IDs are
// not an error.
func (c *Catalog) DeleteGroup(ctx context.Context, ownerID, id string) error {
	g, err := c.store.GetGroup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr("delete group", err)
	}
	if g.OwnerID != ownerID {
		slog.Warn("Ignoring delete of foreign group", "group_id", id, "owner_id", ownerID)
		return nil
	}

	if err := c.store.DeleteGroup(ctx, id); err != nil {
		return storeErr("delete group", err)
	}
	return nil
}

func validateGroup(ownerID, name string) (string, error) {
	if ownerID == "" {
		return "", validation("owner is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation("group name is required")
	}
	return name, nil
}
