package database

import (
	"choice-app/config"
	"choice-app/lookups"
)

// Target is one storage location of a logical entity kind. IDFields are the
// alternate identifier fields tried after _id.
type Target struct {
	Database   string
	Collection string
	IDFields   []string
}

// String is used in logs and metric labels
func (t Target) String() string {
	return t.Database + "/" + t.Collection
}

// Catalog lists the storage locations of each kind in lookup order. Legacy
// collection names stay in here as long as documents may live in them.
type Catalog map[lookups.Kind][]Target

// NewCatalog builds the catalog for the configured database names
func NewCatalog(cfg *config.Config) Catalog {
	producerFields := []string{"id", "producerId", "producer_id"}

	return Catalog{
		lookups.KindEvent: {
			{cfg.DBLeisure, "Loisir_Paris_Evenements", []string{"id", "eventId"}},
			{cfg.DBLeisure, "Evenements_loisirs", []string{"id", "eventId"}},
		},
		lookups.KindProducer: {
			{cfg.DBLeisure, "Loisir_Paris_Producers", producerFields},
			{cfg.DBLeisure, "producers", producerFields},
			{cfg.DBLeisure, "Paris_Loisirs", producerFields},
		},
		lookups.KindRestaurant: {
			{cfg.DBRestaurants, "producers", producerFields},
		},
		lookups.KindWellness: {
			{cfg.DBWellness, "BeautyPlaces", []string{"id", "producerId", "place_id"}},
			{cfg.DBWellness, "WellnessPlaces", []string{"id", "producerId", "place_id"}},
		},
	}
}
