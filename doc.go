// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goenrich clusters protein language model embeddings and tests
// each cluster for over-representation of Gene Ontology terms.
//
// The pipeline is strictly linear: embeddings are loaded from an npz
// archive, partitioned with k-means, joined to a protein to GO term
// annotation table and tested per cluster and term with a one-sided
// Fisher's exact test. Annotations may optionally be propagated up the
// GO subclass hierarchy held in an Ontology before testing.
//
// Raw p-values are reported without multiple-testing correction unless
// a correction is explicitly requested.
package goenrich
