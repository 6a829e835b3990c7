// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/mypeeps/internal/models"
)

// Collection names shared by every backend. Each document carries an
// ownerId field used for scoping.
const (
	PersonsCollection = "persons"
	GroupsCollection  = "groups"
)

// ErrNotFound is returned when a document ID does not exist.
// Backends must return it (possibly wrapped) from Get* and Update*.
var ErrNotFound = errors.New("document not found")

// Store defines the document store operations used by the catalog.
// This abstraction allows swapping storage backends (SurrealDB, SQLite, memory)
// without changing the catalog.
//
// There is no compare-and-swap: concurrent writers to the same document
// simply overwrite each other.
type Store interface {
	// ListPersons returns every person whose owner is ownerID.
	// An owner with no people yields an empty slice, not an error.
	ListPersons(ctx context.Context, ownerID string) ([]*models.Person, error)

	// GetPerson retrieves a person by ID. Returns ErrNotFound if absent.
	GetPerson(ctx context.Context, id string) (*models.Person, error)

	// CreatePerson persists a new person.
	// The person.ID, CreatedAt and UpdatedAt fields are populated by the store.
	CreatePerson(ctx context.Context, person *models.Person) error

	// UpdatePerson applies patch to an existing person.
	// Returns ErrNotFound if the person does not exist.
	UpdatePerson(ctx context.Context, id string, patch models.PersonPatch) error

	// DeletePerson removes a person. Deleting a missing ID is not an error.
	DeletePerson(ctx context.Context, id string) error

	// ListGroups returns every group whose owner is ownerID.
	ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error)

	// GetGroup retrieves a group by ID. Returns ErrNotFound if absent.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// CreateGroup persists a new group and populates its ID and timestamps.
	CreateGroup(ctx context.Context, group *models.Group) error

	// UpdateGroup applies patch to an existing group.
	// Returns ErrNotFound if the group does not exist.
	UpdateGroup(ctx context.Context, id string, patch models.GroupPatch) error

	// DeleteGroup removes a group. Deleting a missing ID is not an error.
	DeleteGroup(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
