package geo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrPermissionDenied is the denied-permission analog of a mobile
// location prompt: the position is simply unavailable. Callers treat it
// as best-effort and create without coordinates.
var ErrPermissionDenied = errors.New("location permission denied")

type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator reads the current position once. Implementations are expected
// to be slow (a real device fix) so they take a context.
type Locator interface {
	Current(ctx context.Context) (Position, error)
}

// FixedLocator serves a position configured up front (TAREAS_LAT /
// TAREAS_LON). Unset values behave as a denied permission.
type FixedLocator struct {
	Lat, Lon string
}

func (l FixedLocator) Current(_ context.Context) (Position, error) {
	if l.Lat == "" || l.Lon == "" {
		return Position{}, ErrPermissionDenied
	}
	lat, err := strconv.ParseFloat(l.Lat, 64)
	if err != nil {
		return Position{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(l.Lon, 64)
	if err != nil {
		return Position{}, fmt.Errorf("parse longitude: %w", err)
	}
	return Position{Latitude: lat, Longitude: lon}, nil
}
