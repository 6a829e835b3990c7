// Package surreal implements storage.Store on a remote SurrealDB instance.
//
// Documents live in the "persons" and "groups" tables. Record IDs are
// generated client-side (UUIDs) so the assigned ID is known before the
// create call returns. Field names match the document layout used by the
// browser client: ownerId, name, notes, imageUrl, memberIds, createdAt.
//
// All queries are parameterised; record IDs and owner IDs are never
// interpolated into SurrealQL text.
package surreal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	surrealdb "github.com/surrealdb/surrealdb.go"
	sdb "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Config holds the connection settings for a SurrealDB endpoint.
type Config struct {
	// URL is the RPC endpoint, e.g. ws://localhost:8000 or https://host.
	URL       string
	Namespace string
	Database  string

	// Username and Password sign in as a root/namespace user when set.
	Username string
	Password string
}

// Store implements storage.Store against SurrealDB.
type Store struct {
	db  *surrealdb.DB
	now func() time.Time
}

// New connects, signs in when credentials are configured and selects the
// namespace and database.
func New(ctx context.Context, cfg Config) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		}); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

type personRecord struct {
	ID        *sdb.RecordID `json:"id,omitempty"`
	OwnerID   string        `json:"ownerId"`
	Name      string        `json:"name"`
	Notes     string        `json:"notes"`
	ImageURL  *string       `json:"imageUrl,omitempty"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

// personMerge is the MERGE payload for a partial person update.
type personMerge struct {
	Name      *string `json:"name,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	UpdatedAt int64   `json:"updatedAt"`
}

type groupRecord struct {
	ID        *sdb.RecordID `json:"id,omitempty"`
	OwnerID   string        `json:"ownerId"`
	Name      string        `json:"name"`
	MemberIDs []string      `json:"memberIds"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

type groupMerge struct {
	Name      *string   `json:"name,omitempty"`
	MemberIDs *[]string `json:"memberIds,omitempty"`
	UpdatedAt int64     `json:"updatedAt"`
}

func recordKey(id *sdb.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id.ID)
}

func (r *personRecord) toModel() *models.Person {
	p := &models.Person{
		ID:        recordKey(r.ID),
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.ImageURL != nil {
		url := *r.ImageURL
		p.ImageURL = &url
	}
	return p
}

func (r *groupRecord) toModel() *models.Group {
	g := &models.Group{
		ID:        recordKey(r.ID),
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		MemberIDs: r.MemberIDs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if g.MemberIDs == nil {
		g.MemberIDs = []string{}
	}
	return g
}

const listByOwner = "SELECT * FROM type::table($tb) WHERE ownerId = $owner ORDER BY createdAt"

// ListPersons runs an equality query on ownerId.
func (s *Store) ListPersons(ctx context.Context, ownerID string) ([]*models.Person, error) {
	res, err := surrealdb.Query[[]personRecord](ctx, s.db, listByOwner, map[string]any{
		"tb":    storage.PersonsCollection,
		"owner": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}

	persons := []*models.Person{}
	if res == nil || len(*res) == 0 {
		return persons, nil
	}
	for i := range (*res)[0].Result {
		persons = append(persons, (*res)[0].Result[i].toModel())
	}
	return persons, nil
}

// GetPerson selects a single record.
func (s *Store) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	rec, err := surrealdb.Select[personRecord](ctx, s.db, sdb.NewRecordID(storage.PersonsCollection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	// Depending on the CBOR codec a missing record comes back either as nil
	// or as a zero struct without an ID.
	if rec == nil || rec.ID == nil {
		return nil, fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	return rec.toModel(), nil
}

// CreatePerson creates a record under a fresh UUID key.
func (s *Store) CreatePerson(ctx context.Context, person *models.Person) error {
	now := s.now().Unix()
	id := uuid.New().String()

	rec := personRecord{
		OwnerID:   person.OwnerID,
		Name:      person.Name,
		Notes:     person.Notes,
		ImageURL:  person.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := surrealdb.Create[personRecord](ctx, s.db, sdb.NewRecordID(storage.PersonsCollection, id), rec); err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	person.ID = id
	person.CreatedAt = now
	person.UpdatedAt = now
	return nil
}

// UpdatePerson merges the set fields of patch. UPDATE on a missing record
// returns no rows, which is reported as ErrNotFound.
func (s *Store) UpdatePerson(ctx context.Context, id string, patch models.PersonPatch) error {
	merge := personMerge{
		Name:      patch.Name,
		Notes:     patch.Notes,
		ImageURL:  patch.ImageURL,
		UpdatedAt: s.now().Unix(),
	}
	n, err := s.merge(ctx, storage.PersonsCollection, id, merge)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeletePerson deletes the record; deleting a missing record is a no-op in SurrealDB.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	if _, err := surrealdb.Delete[personRecord](ctx, s.db, sdb.NewRecordID(storage.PersonsCollection, id)); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}

// ListGroups runs an equality query on ownerId.
func (s *Store) ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error) {
	res, err := surrealdb.Query[[]groupRecord](ctx, s.db, listByOwner, map[string]any{
		"tb":    storage.GroupsCollection,
		"owner": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := []*models.Group{}
	if res == nil || len(*res) == 0 {
		return groups, nil
	}
	for i := range (*res)[0].Result {
		groups = append(groups, (*res)[0].Result[i].toModel())
	}
	return groups, nil
}

// GetGroup selects a single record.
func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	rec, err := surrealdb.Select[groupRecord](ctx, s.db, sdb.NewRecordID(storage.GroupsCollection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if rec == nil || rec.ID == nil {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	return rec.toModel(), nil
}

// CreateGroup creates a record under a fresh UUID key.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	now := s.now().Unix()
	id := uuid.New().String()

	memberIDs := models.DedupeIDs(group.MemberIDs)
	rec := groupRecord{
		OwnerID:   group.OwnerID,
		Name:      group.Name,
		MemberIDs: memberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := surrealdb.Create[groupRecord](ctx, s.db, sdb.NewRecordID(storage.GroupsCollection, id), rec); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	group.ID = id
	group.MemberIDs = memberIDs
	group.CreatedAt = now
	group.UpdatedAt = now
	return nil
}

// UpdateGroup merges the set fields of patch.
func (s *Store) UpdateGroup(ctx context.Context, id string, patch models.GroupPatch) error {
	merge := groupMerge{
		Name:      patch.Name,
		UpdatedAt: s.now().Unix(),
	}
	if patch.MemberIDs != nil {
		ids := models.DedupeIDs(patch.MemberIDs)
		merge.MemberIDs = &ids
	}
	n, err := s.merge(ctx, storage.GroupsCollection, id, merge)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup deletes the record.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	if _, err := surrealdb.Delete[groupRecord](ctx, s.db, sdb.NewRecordID(storage.GroupsCollection, id)); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// merge runs UPDATE ... MERGE on one record and returns how many records changed.
func (s *Store) merge(ctx context.Context, table, id string, data any) (int, error) {
	res, err := surrealdb.Query[[]map[string]any](ctx, s.db, "UPDATE $rid MERGE $data RETURN AFTER", map[string]any{
		"rid":  sdb.NewRecordID(table, id),
		"data": data,
	})
	if err != nil {
		return 0, err
	}
	if res == nil || len(*res) == 0 {
		return 0, nil
	}
	return len((*res)[0].Result), nil
}
