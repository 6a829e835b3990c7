package models

import "slices"

// Group is a named list of people owned by a single user.
type Group struct {
	// ID is the unique identifier for the group, assigned by the store.
	ID string

	// OwnerID is the user who created the group.
	OwnerID string

	// Name is the display name of the group (e.g., "Friends", "Work").
	Name string

	// MemberIDs lists the IDs of the people in the group, without duplicates.
	// Insertion order is kept for display only.
	// IDs may dangle if the person was deleted after being added.
	MemberIDs []string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewGroup builds an unsaved group with no members.
func NewGroup(ownerID, name string) *Group {
	return &Group{
		OwnerID:   ownerID,
		Name:      name,
		MemberIDs: []string{},
	}
}

// HasMember reports whether personID is listed in the group.
func (g *Group) HasMember(personID string) bool {
	return slices.Contains(g.MemberIDs, personID)
}

// WithMember returns the member list with personID appended.
// The receiver is not modified; if the ID is already present the list is
// returned unchanged (copied).
func (g *Group) WithMember(personID string) []string {
	ids := slices.Clone(g.MemberIDs)
	if ids == nil {
		ids = []string{}
	}
	if slices.Contains(ids, personID) {
		return ids
	}
	return append(ids, personID)
}

// WithoutMember returns the member list with every occurrence of personID removed.
func (g *Group) WithoutMember(personID string) []string {
	ids := make([]string, 0, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if id != personID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.MemberIDs = slices.Clone(g.MemberIDs)
	if c.MemberIDs == nil {
		c.MemberIDs = []string{}
	}
	return &c
}

// Apply copies the set fields of patch onto the group.
func (g *Group) Apply(patch GroupPatch) {
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.MemberIDs != nil {
		g.MemberIDs = slices.Clone(patch.MemberIDs)
	}
}

// GroupPatch is a partial update of a group document.
// A nil Name or MemberIDs leaves that field untouched.
type GroupPatch struct {
	Name      *string
	MemberIDs []string
}

// RenameGroup builds a patch that only changes the name.
func RenameGroup(name string) GroupPatch {
	return GroupPatch{Name: &name}
}

// SetMembers builds a patch that replaces the member list.
func SetMembers(ids []string) GroupPatch {
	if ids == nil {
		ids = []string{}
	}
	return GroupPatch{MemberIDs: ids}
}

// DedupeIDs removes repeated IDs, keeping the first occurrence.
func DedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
