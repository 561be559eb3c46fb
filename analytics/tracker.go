package analytics

import (
	"context"
	"time"

	"choice-app/client"
	"choice-app/lookups"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api/write"
	"go.uber.org/zap"
)

// PointWriter is satisfied by the blocking write API of the influx client
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Tracker writes usage events to the analytics store. A tracker without a
// writer (analytics disabled) drops every event.
type Tracker struct {
	writer   PointWriter
	requests *client.Registry
	log      *zap.Logger
	now      func() time.Time
}

// ChoiceEvent is the analytics view of a stored choice
type ChoiceEvent struct {
	ChoiceID     string
	UserID       string
	LocationID   string
	LocationType lookups.LocationType
	Aspects      int // aspects submitted
	Applied      int // aspects folded into the producer's ratings
	HasComment   bool
}

// NewTracker creates a tracker; writer may be nil
func NewTracker(writer PointWriter, requests *client.Registry, log *zap.Logger) *Tracker {
	return &Tracker{
		writer:   writer,
		requests: requests,
		log:      log,
		now:      time.Now,
	}
}

// NewInfluxTracker uses the blocking write API of the given org and bucket
func NewInfluxTracker(c influxdb2.Client, org string, bucket string, requests *client.Registry, log *zap.Logger) *Tracker {
	return NewTracker(c.WriteAPIBlocking(org, bucket), requests, log)
}

// Enabled reports whether events are written
func (t *Tracker) Enabled() bool {
	return t != nil && t.writer != nil
}

// SaveChoice stores one "choice" point per created choice
func (t *Tracker) SaveChoice(ctx context.Context, e ChoiceEvent) error {
	if !t.Enabled() {
		return nil
	}

	// the location is a tag so visits per location can be aggregated;
	// the cardinality of locations is accepted
	p := influxdb2.NewPoint(
		"choice",
		map[string]string{
			"locationId":   e.LocationID,
			"locationType": string(e.LocationType),
		},
		map[string]interface{}{
			"choiceId": e.ChoiceID,
			"userId":   e.UserID,
			"aspects":  e.Aspects,
			"applied":  e.Applied,
			"comment":  e.HasComment,
		},
		t.now())

	return t.writer.WritePoint(ctx, p)
}

// SaveLookup stores a finder lookup. Repeated lookups of the same id by the
// same client within the registry window are not stored.
func (t *Tracker) SaveLookup(ctx context.Context, clientIP string, id string, kind lookups.Kind, found bool) error {
	if !t.Enabled() {
		return nil
	}

	if t.requests != nil && !t.requests.Continue(clientIP, id) {
		return nil
	}

	k := string(kind)
	if k == "" {
		k = "none"
	}

	p := influxdb2.NewPoint(
		"lookup",
		map[string]string{"kind": k},
		map[string]interface{}{
			"id":    id,
			"found": found,
		},
		t.now())

	if err := t.writer.WritePoint(ctx, p); err != nil {
		t.log.Warn("could not store lookup", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
