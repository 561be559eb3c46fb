package ratings

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_FirstRatingSeedsWithNeutral(t *testing.T) {
	updated, applied := Blend(nil, map[string]interface{}{"service": 8.0}, DefaultWeight)

	assert.Equal(t, 1, applied)
	// 5.0*0.9 + 8*0.1
	assert.Equal(t, 5.3, updated["service"])
}

func TestBlend_ExistingAggregate(t *testing.T) {
	current := map[string]interface{}{"service": 5.9, "ambiance": 7.0}
	updated, applied := Blend(current, map[string]interface{}{"service": 8}, DefaultWeight)

	assert.Equal(t, 1, applied)
	assert.Equal(t, 6.1, updated["service"])
	assert.Equal(t, 7.0, updated["ambiance"], "aspects not submitted are untouched")
	assert.Equal(t, 5.9, current["service"], "input is not modified")
}

func TestBlend_InvalidAspectsAreSkipped(t *testing.T) {
	current := map[string]interface{}{"price": 6.0}
	submitted := map[string]interface{}{
		"price":   15,
		"service": "9",
		"food":    "n/a",
		"zero":    0,
		"nan":     math.NaN(),
		"nil":     nil,
	}

	updated, applied := Blend(current, submitted, DefaultWeight)

	assert.Equal(t, 1, applied)
	assert.Equal(t, 6.0, updated["price"])
	assert.Equal(t, 5.4, updated["service"])
	assert.NotContains(t, updated, "food")
	assert.NotContains(t, updated, "zero")
}

func TestBlend_NonNumericCurrentIsReseeded(t *testing.T) {
	updated, applied := Blend(map[string]interface{}{"service": "bad"}, map[string]interface{}{"service": 10}, DefaultWeight)

	assert.Equal(t, 1, applied)
	assert.Equal(t, 5.5, updated["service"])
}

func TestBlend_ConvergesWithoutOvershoot(t *testing.T) {
	current := map[string]interface{}{}
	prev := Seed

	for i := 0; i < 100; i++ {
		current, _ = Blend(current, map[string]interface{}{"service": 8}, DefaultWeight)
		v := current["service"].(float64)

		assert.GreaterOrEqual(t, v, prev, "step %d", i)
		assert.LessOrEqual(t, v, 8.0, "step %d", i)
		prev = v
	}
	assert.Greater(t, prev, 7.0)

	// and from above
	current = map[string]interface{}{"service": 9.8}
	prev = 9.8
	for i := 0; i < 100; i++ {
		current, _ = Blend(current, map[string]interface{}{"service": 2}, DefaultWeight)
		v := current["service"].(float64)

		assert.LessOrEqual(t, v, prev, "step %d", i)
		assert.GreaterOrEqual(t, v, 2.0, "step %d", i)
		prev = v
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{8.5, 8.5, true},
		{int32(7), 7, true},
		{int64(3), 3, true},
		{" 4.5 ", 4.5, true},
		{json.Number("6"), 6, true},
		{"abc", 0, false},
		{math.Inf(1), 0, false},
		{true, 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRating(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 6.1, Round1(6.11))
	assert.Equal(t, 6.2, Round1(6.15000001))
	assert.Equal(t, 0.3, Round1(0.25))
	assert.Equal(t, -0.3, Round1(-0.25))
}
