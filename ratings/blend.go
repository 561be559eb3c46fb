// Package ratings folds submitted aspect ratings into a producer's running
// aggregate with a fixed-weight exponential moving average.
package ratings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// scale
const (
	DefaultWeight = 0.1
	Seed          = 5.0 // neutral value of an aspect without history
	MinRating     = 1.0
	MaxRating     = 10.0
)

// Blend applies every valid submitted aspect to current and returns the new
// mapping together with the number of aspects applied. Aspects that were not
// submitted keep their stored value; current is not modified.
func Blend(current map[string]interface{}, submitted map[string]interface{}, weight float64) (map[string]interface{}, int) {
	updated := make(map[string]interface{}, len(current)+len(submitted))
	for k, v := range current {
		updated[k] = v
	}

	applied := 0
	for aspect, raw := range submitted {
		v, ok := ParseRating(raw)
		if !ok || v < MinRating || v > MaxRating {
			continue
		}

		prev, ok := ParseRating(current[aspect])
		if !ok {
			prev = Seed
		}

		updated[aspect] = Round1(prev*(1-weight) + v*weight)
		applied++
	}

	return updated, applied
}

// ParseRating accepts numbers and numeric strings; NaN and infinities are rejected
func ParseRating(raw interface{}) (float64, bool) {
	var v float64

	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Round1 rounds half away from zero to one decimal
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// asMap reads the stored ratings sub-document whatever shape the driver decoded it into
func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case bson.M:
		return m
	case map[string]interface{}:
		return m
	case bson.D:
		out := make(map[string]interface{}, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out
	}
	return map[string]interface{}{}
}

// asCount reads ratingsCount; missing or malformed counts start at zero
func asCount(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		if n > 0 {
			return int64(n)
		}
	}
	return 0
}
