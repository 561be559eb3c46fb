// Package databasetest provides an in-memory database.Source for unit tests
package databasetest

import (
	"context"
	"reflect"
	"sync"

	"choice-app/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemStore keeps documents per target. It understands the filters the
// resolver builds: field equality and a top-level $or of equalities.
type MemStore struct {
	mu    sync.Mutex
	docs  map[string][]bson.M
	fails map[string]error

	Finds   []string // targets queried, in order
	Updates int
}

// New returns an empty store
func New() *MemStore {
	return &MemStore{
		docs:  make(map[string][]bson.M),
		fails: make(map[string]error),
	}
}

// Insert adds a document to a target
func (s *MemStore) Insert(t database.Target, doc bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[t.String()] = append(s.docs[t.String()], doc)
}

// Fail makes every call against the target return err
func (s *MemStore) Fail(t database.Target, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[t.String()] = err
}

// Get returns the first document of the target with the given _id
func (s *MemStore) Get(t database.Target, id interface{}) bson.M {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs[t.String()] {
		if equal(doc["_id"], id) {
			return doc
		}
	}
	return nil
}

// FindOne implements database.Source
func (s *MemStore) FindOne(ctx context.Context, t database.Target, filter bson.D) (bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Finds = append(s.Finds, t.String())
	if err := s.fails[t.String()]; err != nil {
		return nil, err
	}

	for _, doc := range s.docs[t.String()] {
		if matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

// UpdateByID implements database.Source
func (s *MemStore) UpdateByID(ctx context.Context, t database.Target, id interface{}, set bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fails[t.String()]; err != nil {
		return err
	}

	for _, doc := range s.docs[t.String()] {
		if equal(doc["_id"], id) {
			for k, v := range set {
				doc[k] = v
			}
			s.Updates++
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func matches(doc bson.M, filter bson.D) bool {
	for _, e := range filter {
		if e.Key == "$or" {
			alternatives, _ := e.Value.(bson.A)
			hit := false
			for _, alt := range alternatives {
				if d, ok := alt.(bson.D); ok && matches(doc, d) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}

		v, ok := doc[e.Key]
		if !ok || !equal(v, e.Value) {
			return false
		}
	}
	return true
}

func equal(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
