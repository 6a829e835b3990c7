// Package catalog keeps a user's People and Groups consistent.
//
// Every operation is scoped to an owner. Documents belonging to someone else
// are indistinguishable from missing ones: reads report ErrNotFound and
// deletes succeed without touching them. Writes go straight to the
// storage.Store; the catalog holds no state of its own beyond what a Session
// snapshots.
//
// There is no optimistic concurrency control. Two writers racing on the same
// document both succeed and the last one to reach the store wins, which
// includes AddMember's read-modify-write of a group's member list.
package catalog

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/facette/natsort"

	"github.com/mmynk/mypeeps/internal/media"
	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/internal/storage"
)

// DefaultMaterializeConcurrency bounds parallel person lookups in MaterializeMembers.
const DefaultMaterializeConcurrency = 8

// Catalog mediates all reads and writes of People and Groups.
type Catalog struct {
	store    storage.Store
	uploader media.Uploader
	limit    int
	now      func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithMaterializeConcurrency sets how many person lookups MaterializeMembers
// runs at once. Values below 1 are ignored.
func WithMaterializeConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a catalog on top of store. uploader may be nil, in which case
// any operation carrying a photo fails with ErrUpload.
func New(store storage.Store, uploader media.Uploader, opts ...Option) *Catalog {
	c := &Catalog{
		store:    store,
		uploader: uploader,
		limit:    DefaultMaterializeConcurrency,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Catalog initialized", "materialize_concurrency", c.limit, "uploads", uploader != nil)
	return c
}

// PersonInput carries the fields an owner edits on a person.
// A nil Image means no new photo: create stores none, update keeps the current one.
type PersonInput struct {
	Name  string
	Notes string
	Image *media.Blob
}

func sortPersons(persons []*models.Person) {
	sortByName(persons, func(p *models.Person) string { return p.Name })
}

func sortGroups(groups []*models.Group) {
	sortByName(groups, func(g *models.Group) string { return g.Name })
}

// sortByName orders items in natural name order ("Item 2" before "Item 10").
// Equal names keep store order.
func sortByName[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		na, nb := name(a), name(b)
		less, greater := natsort.Compare(na, nb), natsort.Compare(nb, na)
		switch {
		case less == greater:
			// natsort.Compare reports "a01" and "a1" as ordered both ways
			return strings.Compare(na, nb)
		case less:
			return -1
		default:
			return 1
		}
	})
}
