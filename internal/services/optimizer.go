package services

import (
	"math"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
)

// How the stop order was produced.
const (
	MethodNone       = "none"
	MethodSingleStop = "single_stop"
	MethodBruteForce = "brute_force"
	MethodNN2Opt     = "nn_2opt"
)

const (
	// Improvements smaller than this are noise, not progress.
	twoOptEpsilonKm = 1e-3
	twoOptMaxIters  = 1000
)

// RouteOrder is the optimizer's verdict: a permutation of the input stops
// and the distance bookkeeping that justifies it.
type RouteOrder struct {
	Order     []int
	TotalKm   float64
	NaiveKm   float64
	SavingsKm float64
	Method    string
}

// OptimizeRoute orders stops to minimize total driving distance from start
// (and back, when returnToStart is set). Distances are haversine only: the
// optimizer stays pure, deterministic and independent of a running network.
// Exhaustive search up to 6 stops, nearest-neighbor plus 2-opt above.
func OptimizeRoute(start domain.Coordinates, stops []domain.Coordinates, returnToStart bool) RouteOrder {
	n := len(stops)

	switch n {
	case 0:
		return RouteOrder{Order: []int{}, Method: MethodNone}
	case 1:
		d := tourKm(start, stops, []int{0}, returnToStart)
		return RouteOrder{Order: []int{0}, TotalKm: d, NaiveKm: d, Method: MethodSingleStop}
	}

	naiveOrder := make([]int, n)
	for i := range naiveOrder {
		naiveOrder[i] = i
	}
	naive := tourKm(start, stops, naiveOrder, returnToStart)

	var best []int
	var bestKm float64
	method := MethodBruteForce

	if n <= 6 {
		best, bestKm = bruteForce(start, stops, returnToStart)
	} else {
		best = nearestNeighborOrder(start, stops)
		best, bestKm = twoOpt(start, stops, best, returnToStart)
		method = MethodNN2Opt
	}

	return RouteOrder{
		Order:     best,
		TotalKm:   bestKm,
		NaiveKm:   naive,
		SavingsKm: math.Max(0, naive-bestKm),
		Method:    method,
	}
}

// tourKm is the total distance of visiting stops in the given order.
func tourKm(start domain.Coordinates, stops []domain.Coordinates, order []int, returnToStart bool) float64 {
	if len(order) == 0 {
		return 0
	}

	total := 0.0
	pos := start
	for _, idx := range order {
		total += geo.HaversineKm(pos, stops[idx])
		pos = stops[idx]
	}
	if returnToStart {
		total += geo.HaversineKm(pos, start)
	}

	return total
}

// bruteForce enumerates every permutation, keeping the first-seen minimum.
func bruteForce(start domain.Coordinates, stops []domain.Coordinates, returnToStart bool) ([]int, float64) {
	n := len(stops)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	best := make([]int, n)
	copy(best, perm)
	bestKm := tourKm(start, stops, perm, returnToStart)

	// Heap's algorithm generates each remaining permutation by one swap.
	c := make([]int, n)
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[c[i]], perm[i] = perm[i], perm[c[i]]
			}

			if d := tourKm(start, stops, perm, returnToStart); d < bestKm {
				bestKm = d
				copy(best, perm)
			}

			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}

	return best, bestKm
}

// nearestNeighborOrder builds an initial tour by always driving to the
// closest unvisited stop. Equal distances keep the lower index, so the
// result is deterministic.
func nearestNeighborOrder(start domain.Coordinates, stops []domain.Coordinates) []int {
	n := len(stops)
	visited := make([]bool, n)
	order := make([]int, 0, n)
	pos := start

	for len(order) < n {
		next := -1
		minKm := math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if d := geo.HaversineKm(pos, stops[i]); d < minKm {
				minKm = d
				next = i
			}
		}

		visited[next] = true
		order = append(order, next)
		pos = stops[next]
	}

	return order
}

// twoOpt improves a tour by reversing segments. First improvement restarts
// the scan; the loop stops at a local optimum or the iteration cap.
func twoOpt(start domain.Coordinates, stops []domain.Coordinates, order []int, returnToStart bool) ([]int, float64) {
	n := len(order)
	cur := make([]int, n)
	copy(cur, order)
	curKm := tourKm(start, stops, cur, returnToStart)

	for iter := 0; iter < twoOptMaxIters; iter++ {
		improved := false

		for i := 0; i < n-2 && !improved; i++ {
			for j := i + 2; j < n; j++ {
				cand := make([]int, n)
				copy(cand, cur)
				reverse(cand[i+1 : j+1])

				if d := tourKm(start, stops, cand, returnToStart); curKm-d > twoOptEpsilonKm {
					cur = cand
					curKm = d
					improved = true
					break
				}
			}
		}

		if !improved {
			break
		}
	}

	return cur, curKm
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
