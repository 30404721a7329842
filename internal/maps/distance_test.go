package maps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	// Lagos Island to Victoria Island, roughly 11-12 km
	km, minutes, err := HaversineDistance(context.Background(), 6.5244, 3.3792, 6.4281, 3.4219)
	require.NoError(t, err)
	assert.InDelta(t, 11.7, km, 1.0)
	assert.Greater(t, minutes, 0.0)

	// Duration follows the fixed-speed model
	assert.InDelta(t, km/30.0*60, minutes, 0.001)
}

func TestHaversineDistance_SamePoint(t *testing.T) {
	km, minutes, err := HaversineDistance(context.Background(), 6.5244, 3.3792, 6.5244, 3.3792)
	require.NoError(t, err)
	assert.Zero(t, km)
	assert.Zero(t, minutes)
}
