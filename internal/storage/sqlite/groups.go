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

const membersTable = "group_members"

var groupColumns = []string{"id", "owner_id", "name", "created_at", "updated_at"}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListGroups retrieves every group belonging to ownerID with its member IDs.
func (s *SQLiteStore) ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error) {
	query, args, err := psql.Select(groupColumns...).
		From(storage.GroupsCollection).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build group query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*models.Group{}
	byID := make(map[string]*models.Group)
	ids := []string{}
	for rows.Next() {
		g := &models.Group{MemberIDs: []string{}}
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	if len(ids) == 0 {
		return groups, nil
	}

	members, err := s.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for groupID, memberIDs := range members {
		if g, ok := byID[groupID]; ok {
			g.MemberIDs = memberIDs
		}
	}

	return groups, nil
}

// GetGroup retrieves a group by ID, including its member IDs in insertion order.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	query, args, err := psql.Select(groupColumns...).
		From(storage.GroupsCollection).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build group query: %w", err)
	}

	g := &models.Group{MemberIDs: []string{}}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.loadMembers(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if ids, ok := members[id]; ok {
		g.MemberIDs = ids
	}
	return g, nil
}

// loadMembers returns the member IDs of each requested group.
func (s *SQLiteStore) loadMembers(ctx context.Context, groupIDs []string) (map[string][]string, error) {
	query, args, err := psql.Select("group_id", "person_id").
		From(membersTable).
		Where(sq.Eq{"group_id": groupIDs}).
		OrderBy("group_id", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string, len(groupIDs))
	for rows.Next() {
		var groupID, personID string
		if err := rows.Scan(&groupID, &personID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members[groupID] = append(members[groupID], personID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// CreateGroup inserts a new group together with any initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	now := s.now().Unix()
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := psql.Insert(storage.GroupsCollection).
		Columns(groupColumns...).
		Values(id, group.OwnerID, group.Name, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build group insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	memberIDs := models.DedupeIDs(group.MemberIDs)
	if err := insertMembers(ctx, tx, id, memberIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.ID = id
	group.MemberIDs = memberIDs
	group.CreatedAt = now
	group.UpdatedAt = now
	return nil
}

// UpdateGroup writes the set fields of patch. A non-nil MemberIDs replaces
// the whole member list.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, id string, patch models.GroupPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := psql.Update(storage.GroupsCollection).
		Set("updated_at", s.now().Unix()).
		Where(sq.Eq{"id": id})
	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
	}
	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build group update: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}

	if patch.MemberIDs != nil {
		if err := deleteMembers(ctx, tx, id); err != nil {
			return err
		}
		if err := insertMembers(ctx, tx, id, models.DedupeIDs(patch.MemberIDs)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteGroup removes a group and its member rows.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteMembers(ctx, tx, id); err != nil {
		return err
	}

	query, args, err := psql.Delete(storage.GroupsCollection).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build group delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// memberInsertBatch keeps each member INSERT well under SQLite's
// bound-variable limit (3 variables per row).
const memberInsertBatch = 500

func insertMembers(ctx context.Context, q execer, groupID string, personIDs []string) error {
	for start := 0; start < len(personIDs); start += memberInsertBatch {
		end := min(start+memberInsertBatch, len(personIDs))

		insert := psql.Insert(membersTable).Columns("group_id", "person_id", "position")
		for i := start; i < end; i++ {
			insert = insert.Values(groupID, personIDs[i], i)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build member insert: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert group members: %w", err)
		}
	}
	return nil
}

func deleteMembers(ctx context.Context, q execer, groupID string) error {
	query, args, err := psql.Delete(membersTable).
		Where(sq.Eq{"group_id": groupID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build member delete: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete group members: %w", err)
	}
	return nil
}
