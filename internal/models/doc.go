// Package models defines the core domain models for mypeeps.
//
// # Models
//
//   - Person: someone the owner keeps track of (name, notes, optional photo)
//   - Group: a named list of Person IDs belonging to the same owner
//
// Every record carries the OwnerID of the user that created it. Owners come
// from the external identity provider; there is no local user table.
//
// # Design Principles
//
//  1. **IDs, not pointers**: Group.MemberIDs references people by ID so that a
//     deleted person simply leaves a dangling ID behind
//  2. **Typed writes**: updates are expressed as PersonPatch / GroupPatch values
//     whose optional fields are explicit pointers, never as loose field maps
//  3. **Store-assigned identity**: ID and CreatedAt are filled in by the store
package models
