// Package user holds wearer identity and the per-user cache of
// materialized recordings. Loading a user's sample window and assembling
// the frame is the expensive step of every analysis run, so the cache keeps
// the latest materialization per user as long as the query that produced it
// still matches.
package user

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/timeline"
)

// User identifies one wearer.
type User struct {
	ID   uuid.UUID
	Name string
}

// Query names the parameters a materialized frame was built from. Two
// cached results are interchangeable exactly when their queries compare
// equal; any difference invalidates the entry.
type Query struct {
	From    timeline.Timestamp
	To      timeline.Timestamp
	MaxGap  time.Duration
	MinRows int
}

// Cache memoizes at most one materialized frame per user, tagged with the
// query that produced it. Entries never expire on their own; they are
// replaced on a query mismatch or dropped by Invalidate.
type Cache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	mu    sync.Mutex
	query Query
	src   frame.Source
	valid bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uuid.UUID]*entry)}
}

// Materialize returns the cached frame for userID when its query matches q.
// On a miss or mismatch it runs build under the user's guard and publishes
// the result before releasing, so concurrent callers for one user either
// block briefly or see the fresh value, never a half-written one. Distinct
// users do not contend. A failed build returns the error and leaves any
// previous entry in place.
func (c *Cache) Materialize(userID uuid.UUID, q Query, build func() (frame.Source, error)) (frame.Source, error) {
	e := c.entry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && e.query == q {
		return e.src, nil
	}

	src, err := build()
	if err != nil {
		return nil, err
	}
	e.src = src
	e.query = q
	e.valid = true
	return src, nil
}

// Invalidate drops the cached frame for one user. The next Materialize
// rebuilds regardless of its query.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	e, ok := c.entries[userID]
	c.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.valid = false
	e.src = nil
	e.mu.Unlock()
}

// Len reports how many users currently hold a live cached frame.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		e.mu.Lock()
		if e.valid {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// entry returns the per-user guard, creating it on first use.
func (c *Cache) entry(userID uuid.UUID) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		e = &entry{}
		c.entries[userID] = e
	}
	return e
}
