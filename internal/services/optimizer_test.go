package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
)

func TestOptimizeRouteEmpty(t *testing.T) {
	got := OptimizeRoute(domain.Coordinates{Lat: 30.5, Lon: -97.5}, nil, true)

	assert.Equal(t, MethodNone, got.Method)
	assert.Empty(t, got.Order)
	assert.Zero(t, got.TotalKm)
	assert.Zero(t, got.SavingsKm)
}

func TestOptimizeRouteSingleStop(t *testing.T) {
	start := domain.Coordinates{Lat: 30.5, Lon: -97.5}
	stop := domain.Coordinates{Lat: 30.6, Lon: -97.5}

	got := OptimizeRoute(start, []domain.Coordinates{stop}, true)

	assert.Equal(t, MethodSingleStop, got.Method)
	assert.Equal(t, []int{0}, got.Order)
	assert.InDelta(t, 2*geo.HaversineKm(start, stop), got.TotalKm, 1e-9)
}

func TestOptimizeRouteBruteForceBeatsNaive(t *testing.T) {
	start := domain.Coordinates{Lat: 30.5, Lon: -97.5}
	stops := []domain.Coordinates{
		{Lat: 30.8, Lon: -97.5},
		{Lat: 30.55, Lon: -97.5},
		{Lat: 30.7, Lon: -97.5},
	}

	got := OptimizeRoute(start, stops, true)

	require.Equal(t, MethodBruteForce, got.Method)
	assert.Less(t, got.TotalKm, got.NaiveKm)
	assert.InDelta(t, got.NaiveKm-got.TotalKm, got.SavingsKm, 1e-9)
	assert.Positive(t, got.SavingsKm)

	// Stops sit on one meridian; an optimal tour starts at the nearest one.
	assert.Equal(t, 1, got.Order[0])
}

func TestOptimizeRouteOptimalityWitness(t *testing.T) {
	start := domain.Coordinates{Lat: 30.5, Lon: -97.5}
	stops := []domain.Coordinates{
		{Lat: 30.62, Lon: -97.41},
		{Lat: 30.48, Lon: -97.62},
		{Lat: 30.71, Lon: -97.55},
		{Lat: 30.55, Lon: -97.48},
		{Lat: 30.44, Lon: -97.51},
	}

	got := OptimizeRoute(start, stops, true)
	require.Equal(t, MethodBruteForce, got.Method)

	// Every permutation must be at least as long as the winner.
	var check func(perm []int, rest []int)
	check = func(perm, rest []int) {
		if len(rest) == 0 {
			assert.LessOrEqual(t, got.TotalKm, tourKm(start, stops, perm, true)+1e-9)
			return
		}
		for i := range rest {
			next := make([]int, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			check(append(perm, rest[i]), next)
		}
	}
	check(nil, []int{0, 1, 2, 3, 4})
}

func TestOptimizeRoutePermutationInvariant(t *testing.T) {
	start := domain.Coordinates{Lat: 30.5, Lon: -97.5}
	stops := []domain.Coordinates{
		{Lat: 30.62, Lon: -97.41}, {Lat: 30.48, Lon: -97.62},
		{Lat: 30.71, Lon: -97.55}, {Lat: 30.55, Lon: -97.48},
		{Lat: 30.44, Lon: -97.51}, {Lat: 30.66, Lon: -97.60},
		{Lat: 30.52, Lon: -97.70}, {Lat: 30.58, Lon: -97.44},
	}

	got := OptimizeRoute(start, stops, true)

	require.Equal(t, MethodNN2Opt, got.Method)
	require.Len(t, got.Order, len(stops))

	seen := make(map[int]bool, len(stops))
	for _, idx := range got.Order {
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(stops))
		require.False(t, seen[idx], "index %d repeated", idx)
		seen[idx] = true
	}

	assert.LessOrEqual(t, got.TotalKm, got.NaiveKm+1e-9)
	assert.GreaterOrEqual(t, got.SavingsKm, 0.0)
}

func TestOptimizeRouteDeterministic(t *testing.T) {
	start := domain.Coordinates{Lat: 30.5, Lon: -97.5}
	stops := []domain.Coordinates{
		{Lat: 30.62, Lon: -97.41}, {Lat: 30.48, Lon: -97.62},
		{Lat: 30.71, Lon: -97.55}, {Lat: 30.55, Lon: -97.48},
		{Lat: 30.44, Lon: -97.51}, {Lat: 30.66, Lon: -97.60},
		{Lat: 30.52, Lon: -97.70},
	}

	first := OptimizeRoute(start, stops, false)
	second := OptimizeRoute(start, stops, false)

	assert.Equal(t, first.Order, second.Order)
	assert.Equal(t, first.TotalKm, second.TotalKm)
}
