// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"fmt"
	"sort"
	"sync"
)

// Enricher holds the parameters for GO term enrichment testing.
type Enricher struct {
	// MinSupport is the minimum number of proteins in a cluster that
	// must carry a term for the pair to be tested.
	MinSupport int
	// Adjust is the multiple-testing correction applied to the
	// results, AdjustNone or AdjustBH. The empty string is AdjustNone.
	Adjust string
}

// Contingency is a 2×2 contingency table for a cluster and term.
//
//              in cluster  not in cluster
//  term            A             C
//  not term        B             D
type Contingency struct {
	A, B, C, D int
}

// Total returns the sum of the cells of the table.
func (t Contingency) Total() int { return t.A + t.B + t.C + t.D }

// Result is the enrichment test result for a cluster and term.
type Result struct {
	Cluster int
	GOID    string
	GOName  string

	// ClusterSize is the number of proteins assigned to the cluster.
	ClusterSize int
	// Count is the number of proteins in the cluster carrying the term.
	Count int

	Table Contingency

	// P is the raw one-sided Fisher's exact test p-value.
	P float64
	// PAdjusted is the multiple-testing adjusted p-value. It is
	// equal to P when no adjustment is requested.
	PAdjusted float64
}

// Enrich tests every cluster and term pair in j that has at least
// e.MinSupport supporting proteins for over-representation of the term
// in the cluster relative to the annotated background.
//
// Results are grouped by ascending cluster ordinal and ordered by
// ascending raw p-value within each cluster, with ties broken by GO
// identifier and then name. No pair failing the support threshold is
// tested or returned. An empty result is not an error.
func (e Enricher) Enrich(j Joined) ([]Result, error) {
	if e.MinSupport <= 0 {
		return nil, &ConfigError{Field: "min_support", Reason: "must be positive"}
	}
	switch e.Adjust {
	case "", AdjustNone, AdjustBH:
	default:
		return nil, &ConfigError{Field: "adjust", Reason: "must be " + AdjustNone + " or " + AdjustBH}
	}
	if len(j.Background) == 0 {
		return nil, &ConsistencyError{Reason: "empty background protein set"}
	}

	termProteins := make(map[Term]int)
	counts := make([]map[Term]int, len(j.ClusterSizes))
	for _, r := range j.Records {
		if r.Cluster < 0 || r.Cluster >= len(counts) {
			return nil, &ConsistencyError{Cluster: ClusterLabel(r.Cluster), Reason: "cluster absent from assignments"}
		}
		termProteins[r.Term]++
		if counts[r.Cluster] == nil {
			counts[r.Cluster] = make(map[Term]int)
		}
		counts[r.Cluster][r.Term]++
	}
	terms := make([]Term, 0, len(termProteins))
	for t := range termProteins {
		terms = append(terms, t)
	}
	sort.Sort(byTerm(terms))

	// Each cluster writes only to its own results and errs elements
	// so no locking is needed.
	background := len(j.Background)
	results := make([][]Result, len(counts))
	errs := make([]error, len(counts))
	var wg sync.WaitGroup
	for c := range counts {
		if counts[c] == nil {
			continue
		}
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[c], errs[c] = e.enrichCluster(c, j.ClusterSizes[c], counts[c], terms, termProteins, background)
		}()
	}
	wg.Wait()

	var all []Result
	for c, err := range errs {
		if err != nil {
			return nil, err
		}
		all = append(all, results[c]...)
	}

	if e.Adjust == AdjustBH {
		p := make([]float64, len(all))
		for i, r := range all {
			p[i] = r.P
		}
		for i, q := range BenjaminiHochberg(p) {
			all[i].PAdjusted = q
		}
	}
	return all, nil
}

func (e Enricher) enrichCluster(c, size int, counts map[Term]int, terms []Term, termProteins map[Term]int, background int) ([]Result, error) {
	var results []Result
	for _, t := range terms {
		a := counts[t]
		if a < e.MinSupport {
			continue
		}
		tab := Contingency{
			A: a,
			B: size - a,
			C: termProteins[t] - a,
		}
		tab.D = background - (tab.A + tab.B + tab.C)
		if tab.B < 0 || tab.D < 0 {
			return nil, &ConsistencyError{
				Cluster: ClusterLabel(c),
				Term:    t.ID,
				Reason: fmt.Sprintf("contingency table %d %d %d %d does not fit background of %d proteins",
					tab.A, tab.B, tab.C, tab.D, background),
			}
		}
		p := FisherGreater(tab.A, tab.B, tab.C, tab.D)
		results = append(results, Result{
			Cluster:     c,
			GOID:        t.ID,
			GOName:      t.Name,
			ClusterSize: size,
			Count:       a,
			Table:       tab,
			P:           p,
			PAdjusted:   p,
		})
	}
	sort.Sort(byP(results))
	return results, nil
}

type byTerm []Term

func (t byTerm) Len() int { return len(t) }
func (t byTerm) Less(i, j int) bool {
	if t[i].ID != t[j].ID {
		return t[i].ID < t[j].ID
	}
	return t[i].Name < t[j].Name
}
func (t byTerm) Swap(i, j int) { t[i], t[j] = t[j], t[i] }

// byP sorts results within a cluster by p-value. Results with equal
// p-values are ordered by term.
type byP []Result

func (r byP) Len() int { return len(r) }
func (r byP) Less(i, j int) bool {
	if r[i].P != r[j].P {
		return r[i].P < r[j].P
	}
	return byTerm{{r[i].GOID, r[i].GOName}, {r[j].GOID, r[j].GOName}}.Less(0, 1)
}
func (r byP) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
