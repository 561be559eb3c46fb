package lookups

import "choice-app/apperror"

// LocationType is the kind of place a Choice refers to
type LocationType string

// Symbols of legal values
const (
	LTrestaurant LocationType = "restaurant"
	LTevent      LocationType = "event"
	LTwellness   LocationType = "wellness"
	LTleisure    LocationType = "leisure"
	LTproducer   LocationType = "producer"
	LTunknown    LocationType = "unknown"
)

// ParseLocationType validates a client supplied value
func ParseLocationType(value string) (LocationType, error) {
	switch lt := LocationType(value); lt {
	case LTrestaurant, LTevent, LTwellness, LTleisure, LTproducer, LTunknown:
		return lt, nil
	}
	return "", apperror.ErrUnknownLocationType
}

// Kind maps the location type to the catalog kind holding its documents
// (false for unknown)
func (lt LocationType) Kind() (Kind, bool) {
	switch lt {
	case LTrestaurant:
		return KindRestaurant, true
	case LTevent:
		return KindEvent, true
	case LTwellness:
		return KindWellness, true
	case LTleisure, LTproducer:
		return KindProducer, true
	}
	return "", false
}
