package models

import "strings"

// Person is a contact owned by a single user.
type Person struct {
	// ID is assigned by the store on creation and never changes.
	ID string

	// OwnerID is the user who created the person.
	OwnerID string

	// Name is the display name. Never empty after trimming.
	Name string

	// Notes is free text and may be empty.
	Notes string

	// ImageURL is the public URL of the uploaded photo.
	// Nil until an upload succeeded and was attached.
	ImageURL *string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// HasImage reports whether a photo is attached.
func (p *Person) HasImage() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() *Person {
	c := *p
	if p.ImageURL != nil {
		url := *p.ImageURL
		c.ImageURL = &url
	}
	return &c
}

// Apply copies the set fields of patch onto the person.
func (p *Person) Apply(patch PersonPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.ImageURL != nil {
		url := *patch.ImageURL
		p.ImageURL = &url
	}
}

// PersonPatch is a partial update of a person document.
// Nil fields are left untouched by the store.
type PersonPatch struct {
	Name     *string
	Notes    *string
	ImageURL *string
}

// NewPersonPatch builds the patch for an owner edit: name and notes are always
// written, the image URL only when a new photo was uploaded.
func NewPersonPatch(name, notes, imageURL string) PersonPatch {
	patch := PersonPatch{
		Name:  &name,
		Notes: &notes,
	}
	if imageURL != "" {
		patch.ImageURL = &imageURL
	}
	return patch
}

// NewPerson builds an unsaved person. imageURL may be empty.
func NewPerson(ownerID, name, notes, imageURL string) *Person {
	p := &Person{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(name),
		Notes:   notes,
	}
	if imageURL != "" {
		p.ImageURL = &imageURL
	}
	return p
}
