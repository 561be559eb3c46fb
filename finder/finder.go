// Package finder locates a document across the storage locations of one or more
// entity kinds. The storage has been renamed several times; the catalog keeps the
// ordered list of locations and this package walks it.
package finder

import (
	"context"
	"strings"
	"time"

	"choice-app/apperror"
	"choice-app/database"
	"choice-app/helpers"
	"choice-app/lookups"
	"choice-app/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Match is the first document found and where it was found
type Match struct {
	Kind     lookups.Kind
	Target   database.Target
	Document bson.M
}

// Resolver is read-only and safe for concurrent use
type Resolver struct {
	source  database.Source
	catalog database.Catalog
	timeout time.Duration
	log     *zap.Logger
}

// unhinted lookups try events first; callers rely on events winning over producers
var defaultOrder = []lookups.Kind{lookups.KindEvent, lookups.KindProducer}

// New creates a resolver. timeout bounds every single lookup attempt.
func New(source database.Source, catalog database.Catalog, timeout time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{
		source:  source,
		catalog: catalog,
		timeout: timeout,
		log:     log,
	}
}

// Resolve finds id as an event, then as a producer. A hint restricts the search
// to that kind. It returns nil, nil when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, id string, hint lookups.Kind) (*Match, error) {
	kinds := defaultOrder
	if hint != "" {
		kinds = []lookups.Kind{hint}
	}

	for _, kind := range kinds {
		m, err := r.Locate(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}

	metrics.ResolverMisses.Inc()
	return nil, nil
}

// Locate runs the cascade of a single kind
func (r *Resolver) Locate(ctx context.Context, kind lookups.Kind, id string) (*Match, error) {
	targets, ok := r.catalog[kind]
	if !ok {
		return nil, apperror.ErrInvalidHint
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	for _, target := range targets {
		for _, filter := range filters(id, target) {
			// only the caller giving up ends the cascade early
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			doc, err := r.attempt(ctx, target, filter)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.log.Debug("lookup attempt failed",
					zap.String("kind", string(kind)),
					zap.Stringer("target", target),
					zap.Error(err))
				continue
			}

			if doc != nil {
				metrics.RecordResolverHit(string(kind), target.Collection)
				return &Match{Kind: kind, Target: target, Document: doc}, nil
			}
		}
	}

	return nil, nil
}

func (r *Resolver) attempt(ctx context.Context, target database.Target, filter bson.D) (bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.source.FindOne(ctx, target, filter)
}

// filters lists the lookups of one target in order: _id as ObjectID (when the id
// is well-formed), _id as a plain string, then any of the alternate id fields
func filters(id string, target database.Target) []bson.D {
	var out []bson.D

	if helpers.IsObjectID(id) {
		out = append(out, bson.D{{Key: "_id", Value: helpers.ObjectID(id)}})
	}
	out = append(out, bson.D{{Key: "_id", Value: id}})

	if len(target.IDFields) > 0 {
		or := make(bson.A, 0, len(target.IDFields))
		for _, f := range target.IDFields {
			or = append(or, bson.D{{Key: f, Value: id}})
		}
		out = append(out, bson.D{{Key: "$or", Value: or}})
	}

	return out
}
