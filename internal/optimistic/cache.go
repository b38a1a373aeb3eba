// Package optimistic keeps a client's view of toggle state: whether the
// signed-in user has an edge to each target, and each target's count.
// Toggles are applied locally before the server answers and reconciled
// when it does.
package optimistic

import (
	"sync"

	"zoskagram/internal/model"
)

// State is what the client shows for one target.
type State struct {
	Active bool
	Count  int
}

// Pending is an optimistic toggle waiting for the server.
type Pending struct {
	ID       string
	Token    uint64
	Previous State
	Applied  State
}

type entry struct {
	state State
	token uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	next    uint64
}

func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Load replaces the state of every id in counts with the server's answer.
// Ids in active but missing from counts are marked active with count 0.
func (c *Cache) Load(active model.IDSet, counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, n := range counts {
		c.entry(id).state = State{Active: active.Has(id), Count: n}
	}
	for id := range active {
		if _, ok := counts[id]; !ok {
			e := c.entry(id)
			e.state.Active = true
		}
	}
}

// Begin flips the target right away and returns the toggle to resolve
// once the server answers. Every call gets a new token; only the latest
// token for an id is ever applied.
func (c *Cache) Begin(id string) Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(id)
	c.next++
	e.token = c.next

	prev := e.state
	e.state.Active = !prev.Active
	if e.state.Active {
		e.state.Count++
	} else if e.state.Count > 0 {
		e.state.Count--
	}

	return Pending{ID: id, Token: e.token, Previous: prev, Applied: e.state}
}

// Resolve reconciles a toggle with the server. Responses for a superseded
// token are dropped and Resolve returns false. On error the state before
// Begin comes back; when the server disagrees with the optimistic value
// the old count comes back and the server's state wins.
func (c *Cache) Resolve(p Pending, serverState bool, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[p.ID]
	if !ok || e.token != p.Token {
		return false
	}

	switch {
	case err != nil:
		e.state = p.Previous
	case serverState != p.Applied.Active:
		e.state = p.Previous
		e.state.Active = serverState
	}
	return true
}

// State returns the current view of id.
func (c *Cache) State(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Active lists the ids currently shown as active.
func (c *Cache) Active() model.IDSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(model.IDSet)
	for id, e := range c.entries {
		if e.state.Active {
			out[id] = struct{}{}
		}
	}
	return out
}

// entry must be called with mu held.
func (c *Cache) entry(id string) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	return e
}
