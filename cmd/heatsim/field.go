package main

import (
	"math"
	"math/rand/v2"
)

// Seed returns an N×N field with a Gaussian bump off the grid centre and
// a little deterministic noise. The same seed always gives the same field.
func Seed(n int, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	cx, cy := 0.4*float64(n), 0.55*float64(n)
	sigma := float64(n) / 10
	field := make([]float32, n*n)
	for y := range n {
		for x := range n {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			v += 0.05 * rng.Float64()
			field[y*n+x] = float32(v)
		}
	}
	return field
}

// Total sums the field.
func Total(field []float32) float64 {
	var s float64
	for _, v := range field {
		s += float64(v)
	}
	return s
}
