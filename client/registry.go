package client

import (
	"context"
	"sync"
	"time"
)

// Request is the last relevant request of a client
type Request struct {
	Client   string    `json:"client"`
	ObjectID string    `json:"objectId"`
	Accessed time.Time `json:"accessed"`
}

// Registry remembers the last object each client requested, so repeated
// lookups (page refreshes) are only counted once. The map is maintained by a
// ticker goroutine, access is mediated by the mutex.
type Registry struct {
	mu       sync.RWMutex
	requests map[string]Request // key is IP or domain-action

	window   time.Duration
	maxItems int
	now      func() time.Time
}

// defaults
const (
	DefaultWindow   = 15 * time.Minute
	DefaultMaxItems = 5000
)

// NewRegistry creates an empty registry; entries older than window are flushed
// once the registry holds more than maxItems clients
func NewRegistry(window time.Duration, maxItems int) *Registry {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxItems < 0 {
		maxItems = DefaultMaxItems
	}
	return &Registry{
		requests: make(map[string]Request),
		window:   window,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Continue records the request and reports whether it should be counted
// (false when the client asked for the same object within the window)
func (r *Registry) Continue(client string, objectID string) bool {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	last, found := r.requests[client]
	repeat := found && last.ObjectID == objectID && now.Sub(last.Accessed) <= r.window

	r.requests[client] = Request{Client: client, ObjectID: objectID, Accessed: now}

	return !repeat
}

// Flush removes expired requests; it returns the number of removed entries
func (r *Registry) Flush() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.requests) <= r.maxItems {
		return 0
	}

	removed := 0
	// deleting while ranging is safe in go
	for key, value := range r.requests {
		if now.Sub(value.Accessed) > r.window {
			delete(r.requests, key)
			removed++
		}
	}
	return removed
}

// Run flushes the registry every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Flush()
		}
	}
}

// Count returns how many different clients are currently known
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.requests)
}

// Dump returns at most max entries
func (r *Registry) Dump(max int) []Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]Request, 0, len(r.requests))
	for _, v := range r.requests {
		if len(res) >= max {
			break
		}
		res = append(res, v)
	}
	return res
}
