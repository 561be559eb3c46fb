package lookups

import (
	"strings"

	"choice-app/apperror"
)

// Kind is a logical entity kind; each kind owns an ordered list of storage locations
type Kind string

// Symbols of legal values
const (
	KindEvent      Kind = "event"
	KindProducer   Kind = "producer" // leisure producers
	KindRestaurant Kind = "restaurant"
	KindWellness   Kind = "wellness"
)

// Kinds lists every kind in resolution order
var Kinds = []Kind{KindEvent, KindProducer, KindRestaurant, KindWellness}

// ParseHint reads the finder's ?type= parameter. An empty hint returns "" and no error.
func ParseHint(hint string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "":
		return "", nil
	case "event", "evenement":
		return KindEvent, nil
	case "producer", "producteur", "leisureproducer":
		return KindProducer, nil
	}
	return "", apperror.ErrInvalidHint
}
