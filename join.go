// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

// Term is a GO term identifier and its name.
type Term struct {
	ID   string
	Name string
}

// Merged is an annotation of a clustered protein.
type Merged struct {
	ProteinID string
	Cluster   int
	Term      Term
}

// Joined is the result of joining cluster assignments to annotations.
type Joined struct {
	// Records holds one record per distinct (protein, term) pair
	// for proteins that are both clustered and annotated, in
	// annotation table order.
	Records []Merged

	// ClusterSizes holds the number of proteins assigned to each
	// cluster ordinal, counted from the assignments, including
	// proteins with no annotation.
	ClusterSizes []int

	// Background is the set of all annotated proteins, whether
	// or not they were clustered.
	Background map[string]bool
}

// Join performs an inner join of assignments and annotations on protein
// identifier. Cluster ordinals in assignments must be non-negative.
func Join(assignments []Assignment, annotations []Annotation) Joined {
	cluster := make(map[string]int, len(assignments))
	var sizes []int
	for _, a := range assignments {
		cluster[a.ProteinID] = a.Cluster
		for len(sizes) <= a.Cluster {
			sizes = append(sizes, 0)
		}
		sizes[a.Cluster]++
	}

	type pair struct {
		protein string
		term    Term
	}
	seen := make(map[pair]bool)
	j := Joined{
		ClusterSizes: sizes,
		Background:   make(map[string]bool),
	}
	for _, a := range annotations {
		j.Background[a.ProteinID] = true
		c, ok := cluster[a.ProteinID]
		if !ok {
			continue
		}
		t := Term{ID: a.GOID, Name: a.GOName}
		k := pair{protein: a.ProteinID, term: t}
		if seen[k] {
			continue
		}
		seen[k] = true
		j.Records = append(j.Records, Merged{ProteinID: a.ProteinID, Cluster: c, Term: t})
	}
	return j
}
