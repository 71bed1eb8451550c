package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredBehavesAsDenied(t *testing.T) {
	_, err := FixedLocator{}.Current(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = FixedLocator{Lat: "-33.4489"}.Current(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFixedPosition(t *testing.T) {
	pos, err := FixedLocator{Lat: "-33.4489", Lon: "-70.6693"}.Current(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -33.4489, pos.Latitude, 1e-9)
	assert.InDelta(t, -70.6693, pos.Longitude, 1e-9)
}

func TestGarbageCoordinatesFail(t *testing.T) {
	_, err := FixedLocator{Lat: "north", Lon: "-70.6693"}.Current(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}
