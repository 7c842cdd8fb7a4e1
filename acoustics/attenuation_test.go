package acoustics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceGain(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"at floor distance", 0.5, 4.0},
		{"below floor clamps", 0.1, 4.0},
		{"zero distance clamps", 0, 4.0},
		{"one meter", 1, 1.0},
		{"three meters", 3, 1.0 / 9.0},
		{"ten meters", 10, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceGain(tt.distance), 1e-12)
		})
	}
}

// TestDistanceGainMonotonic verifies the gain never increases with distance
// beyond the clamp floor.
func TestDistanceGainMonotonic(t *testing.T) {
	prev := DistanceGain(MinAttenuationDistance)
	for d := MinAttenuationDistance; d < 25; d += 0.25 {
		g := DistanceGain(d)
		assert.LessOrEqual(t, g, prev, "gain increased at distance %v", d)
		prev = g
	}
}
