package domain

import "github.com/samber/lo"

// Entry represents a bookmarked catalog item. Only these three fields are
// persisted.
type Entry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Collection is the ordered favorites list; ids are unique and insertion
// order is preserved.
type Collection []Entry

// LoadResult is a decoded collection plus the number of persisted elements
// rejected while decoding it.
type LoadResult struct {
	Entries Collection `json:"favorites"`
	Dropped int        `json:"dropped"`
}

func (c Collection) Contains(id int64) bool {
	return lo.ContainsBy(c, func(e Entry) bool {
		return e.ID == id
	})
}

// Find returns the entry with id, if present
func (c Collection) Find(id int64) (Entry, bool) {
	return lo.Find(c, func(e Entry) bool {
		return e.ID == id
	})
}

// Without returns a copy of c minus the entry with id
func (c Collection) Without(id int64) Collection {
	return lo.Reject(c, func(e Entry, _ int) bool {
		return e.ID == id
	})
}

// With returns a copy of c with e appended, unless its id is already present
func (c Collection) With(e Entry) Collection {
	next := make(Collection, 0, len(c)+1)
	next = append(next, c...)
	if c.Contains(e.ID) {
		return next
	}
	return append(next, e)
}

// IDs lists the ids in collection order
func (c Collection) IDs() []int64 {
	return lo.Map(c, func(e Entry, _ int) int64 {
		return e.ID
	})
}
