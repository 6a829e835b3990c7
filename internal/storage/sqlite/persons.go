package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

var personColumns = []string{"id", "owner_id", "name", "notes", "image_url", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	var imageURL sql.NullString
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Notes, &imageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ImageURL = stringPtr(imageURL)
	return p, nil
}

// ListPersons retrieves every person belonging to ownerID, oldest first.
func (s *SQLiteStore) ListPersons(ctx context.Context, ownerID string) ([]*models.Person, error) {
	query, args, err := psql.Select(personColumns...).
		From(storage.PersonsCollection).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build person query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	persons := []*models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return persons, nil
}

// GetPerson retrieves a person by ID.
func (s *SQLiteStore) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	query, args, err := psql.Select(personColumns...).
		From(storage.PersonsCollection).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build person query: %w", err)
	}

	p, err := scanPerson(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// CreatePerson inserts a new person and fills in its ID and timestamps.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	now := s.now().Unix()
	id := uuid.New().String()

	query, args, err := psql.Insert(storage.PersonsCollection).
		Columns(personColumns...).
		Values(id, person.OwnerID, person.Name, person.Notes, nullString(person.ImageURL), now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build person insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}

	person.ID = id
	person.CreatedAt = now
	person.UpdatedAt = now
	return nil
}

// UpdatePerson writes the set fields of patch.
func (s *SQLiteStore) UpdatePerson(ctx context.Context, id string, patch models.PersonPatch) error {
	update := psql.Update(storage.PersonsCollection).
		Set("updated_at", s.now().Unix()).
		Where(sq.Eq{"id": id})
	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
	}
	if patch.Notes != nil {
		update = update.Set("notes", *patch.Notes)
	}
	if patch.ImageURL != nil {
		update = update.Set("image_url", *patch.ImageURL)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build person update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeletePerson removes a person. Group memberships are left untouched.
func (s *SQLiteStore) DeletePerson(ctx context.Context, id string) error {
	query, args, err := psql.Delete(storage.PersonsCollection).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build person delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}
