package ratings

import (
	"context"
	"time"

	"choice-app/database"
	"choice-app/finder"
	"choice-app/helpers"
	"choice-app/lookups"
	"choice-app/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Locator finds the document of a producer within one kind
type Locator interface {
	Locate(ctx context.Context, kind lookups.Kind, id string) (*finder.Match, error)
}

// Result describes what Apply did
type Result struct {
	Outcome string // one of the metrics.Outcome* values
	Applied int
	Count   int64 // ratingsCount after the update
	Target  database.Target
}

// Aggregator updates producer ratings. Concurrent updates of the same producer
// are last-write-wins; no compare-and-swap is done.
type Aggregator struct {
	locator      Locator
	source       database.Source
	weight       float64
	touchOnEmpty bool
	log          *zap.Logger
	now          func() time.Time
}

// order in which producers of an unknown location type are searched
var unknownOrder = []lookups.Kind{lookups.KindRestaurant, lookups.KindProducer, lookups.KindWellness}

// NewAggregator creates an aggregator. With touchOnEmpty a choice without any
// valid aspect still increments ratingsCount.
func NewAggregator(locator Locator, source database.Source, weight float64, touchOnEmpty bool, log *zap.Logger) *Aggregator {
	if weight <= 0 || weight > 1 {
		weight = DefaultWeight
	}
	return &Aggregator{
		locator:      locator,
		source:       source,
		weight:       weight,
		touchOnEmpty: touchOnEmpty,
		log:          log,
		now:          time.Now,
	}
}

// Apply folds submitted into the producer's ratings with a single $set.
// An invalid id or a missing producer is logged and ignored.
func (a *Aggregator) Apply(ctx context.Context, lt lookups.LocationType, producerID string, submitted map[string]interface{}) (*Result, error) {
	log := a.log.With(zap.String("producerId", producerID), zap.String("locationType", string(lt)))

	if !helpers.IsObjectID(producerID) {
		log.Warn("rating update skipped, invalid producer id")
		metrics.RecordRatingUpdate(metrics.OutcomeInvalid)
		return &Result{Outcome: metrics.OutcomeInvalid}, nil
	}

	m, err := a.locate(ctx, lt, producerID)
	if err != nil {
		metrics.RecordRatingUpdate(metrics.OutcomeError)
		return nil, err
	}
	if m == nil {
		log.Warn("rating update skipped, producer not found")
		metrics.RecordRatingUpdate(metrics.OutcomeNotFound)
		return &Result{Outcome: metrics.OutcomeNotFound}, nil
	}

	updated, applied := Blend(asMap(m.Document["ratings"]), submitted, a.weight)
	count := asCount(m.Document["ratingsCount"])

	if applied == 0 && !a.touchOnEmpty {
		log.Info("rating update skipped, no valid aspect", zap.Int("submitted", len(submitted)))
		metrics.RecordRatingUpdate(metrics.OutcomeSkipped)
		return &Result{Outcome: metrics.OutcomeSkipped, Count: count, Target: m.Target}, nil
	}

	set := bson.M{
		"ratings":          updated,
		"ratingsCount":     count + 1,
		"ratingsUpdatedAt": a.now(),
	}
	if err := a.source.UpdateByID(ctx, m.Target, m.Document["_id"], set); err != nil {
		metrics.RecordRatingUpdate(metrics.OutcomeError)
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	log.Debug("ratings updated",
		zap.Stringer("target", m.Target),
		zap.Int("applied", applied),
		zap.Int64("ratingsCount", count+1))
	metrics.RecordRatingUpdate(metrics.OutcomeUpdated)

	return &Result{Outcome: metrics.OutcomeUpdated, Applied: applied, Count: count + 1, Target: m.Target}, nil
}

func (a *Aggregator) locate(ctx context.Context, lt lookups.LocationType, id string) (*finder.Match, error) {
	if kind, ok := lt.Kind(); ok {
		return a.locator.Locate(ctx, kind, id)
	}

	for _, kind := range unknownOrder {
		m, err := a.locator.Locate(ctx, kind, id)
		if err != nil || m != nil {
			return m, err
		}
	}
	return nil, nil
}
