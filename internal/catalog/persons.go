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

// ListPersons returns the owner's people in natural name order.
// An owner with no people gets an empty slice.
func (c *Catalog) ListPersons(ctx context.Context, ownerID string) ([]*models.Person, error) {
	persons, err := c.store.ListPersons(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list persons", err)
	}
	if persons == nil {
		persons = []*models.Person{}
	}
	sortPersons(persons)
	return persons, nil
}

// GetPerson returns one of the owner's people.
func (c *Catalog) GetPerson(ctx context.Context, ownerID, id string) (*models.Person, error) {
	p, err := c.store.GetPerson(ctx, id)
	if err != nil {
		return nil, storeErr("get person", err)
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("get person %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// CreatePerson validates in, uploads its photo if any and stores the person.
//
// The upload happens first. If it fails nothing is written. If the upload
// succeeds but the write fails, the uploaded photo is left on the media host.
func (c *Catalog) CreatePerson(ctx context.Context, ownerID string, in PersonInput) (*models.Person, error) {
	name, err := validatePerson(ownerID, in)
	if err != nil {
		return nil, err
	}

	imageURL, err := c.upload(ctx, in)
	if err != nil {
		return nil, err
	}

	person := models.NewPerson(ownerID, name, in.Notes, imageURL)
	if err := c.store.CreatePerson(ctx, person); err != nil {
		logOrphan(imageURL, err)
		return nil, storeErr("create person", err)
	}

	slog.Debug("Person created", "person_id", person.ID, "owner_id", ownerID, "has_image", person.HasImage())
	return person, nil
}

// UpdatePerson replaces name and notes. A new photo replaces the image URL;
// without one the current URL is kept.
func (c *Catalog) UpdatePerson(ctx context.Context, ownerID, id string, in PersonInput) (*models.Person, error) {
	name, err := validatePerson(ownerID, in)
	if err != nil {
		return nil, err
	}

	person, err := c.GetPerson(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	imageURL, err := c.upload(ctx, in)
	if err != nil {
		return nil, err
	}

	patch := models.NewPersonPatch(name, in.Notes, imageURL)
	if err := c.store.UpdatePerson(ctx, id, patch); err != nil {
		logOrphan(imageURL, err)
		return nil, storeErr("update person", err)
	}

	person.Apply(patch)
	person.UpdatedAt = c.now().Unix()
	return person, nil
}

// DeletePerson removes one of the owner's people. Missing and foreign IDs
// are not an error. Groups that list the person keep the ID.
func (c *Catalog) DeletePerson(ctx context.Context, ownerID, id string) error {
	p, err := c.store.GetPerson(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr("delete person", err)
	}
	if p.OwnerID != ownerID {
		slog.Warn("Ignoring delete of foreign person", "person_id", id, "owner_id", ownerID)
		return nil
	}

	if err := c.store.DeletePerson(ctx, id); err != nil {
		return storeErr("delete person", err)
	}
	return nil
}

func validatePerson(ownerID string, in PersonInput) (string, error) {
	if ownerID == "" {
		return "", validation("owner is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", validation("name is required")
	}
	return name, nil
}

// upload stores in.Image and returns its URL, or "" when there is no image.
func (c *Catalog) upload(ctx context.Context, in PersonInput) (string, error) {
	if in.Image == nil {
		return "", nil
	}
	if c.uploader == nil {
		return "", fmt.Errorf("%w: no media host configured", ErrUpload)
	}

	url, err := c.uploader.Upload(ctx, *in.Image)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return url, nil
}

func logOrphan(imageURL string, err error) {
	if imageURL == "" {
		return
	}
	slog.Warn("Uploaded photo is orphaned after failed write", "image_url", imageURL, "error", err)
}
