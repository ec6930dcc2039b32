// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import "sort"

// FisherGreater returns the p-value of a one-sided Fisher's exact test
// of the 2×2 contingency table
//
//  a  b
//  c  d
//
// against the alternative that the odds ratio is greater than one. All
// cells must be non-negative.
//
// The hypergeometric tail is summed as ratios of successive table
// probabilities, normalised over the support of the table's margins.
func FisherGreater(a, b, c, d int) float64 {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		panic("goenrich: negative count in contingency table")
	}
	n := a + b + c + d
	row := a + b
	col := a + c
	lo := col - (n - row)
	if lo < 0 {
		lo = 0
	}
	if a <= lo {
		return 1
	}
	hi := row
	if col < hi {
		hi = col
	}
	rest := n - row - col

	// tail holds P(X >= a) and body holds P(X < a), both scaled by
	// the same unknown factor. Initially the unit is P(X = a).
	tail := 1.0
	unit := 1.0
	t := 1.0
	for x := a; x < hi; x++ {
		t *= float64((row-x)*(col-x)) / float64((x+1)*(rest+x+1))
		if t == 0 {
			break
		}
		tail += t
		if t > rescale {
			t /= rescale
			tail /= rescale
			unit /= rescale
		}
	}
	var body float64
	t = unit
	for x := a; x > lo; x-- {
		t *= float64(x*(rest+x)) / float64((row-x+1)*(col-x+1))
		body += t
		if t > rescale {
			t /= rescale
			body /= rescale
			tail /= rescale
		}
	}
	return tail / (tail + body)
}

const rescale = 0x1p500

// BenjaminiHochberg returns the Benjamini-Hochberg adjusted values of
// the p-values in p. The order of p is preserved.
func BenjaminiHochberg(p []float64) []float64 {
	m := len(p)
	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return p[idx[i]] < p[idx[j]] })

	adj := make([]float64, m)
	running := 1.0
	for r := m - 1; r >= 0; r-- {
		i := idx[r]
		v := p[i] * float64(m) / float64(r+1)
		if v < running {
			running = v
		}
		adj[i] = running
	}
	return adj
}
