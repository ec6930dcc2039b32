// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// Embeddings is a set of protein embedding vectors. Row i of Vectors is
// the embedding of the protein IDs[i].
type Embeddings struct {
	IDs     []string
	Vectors *mat.Dense
}

// NewEmbeddings returns an Embeddings holding copies of the given vectors.
// All vectors must have the same non-zero length and ids must be distinct.
func NewEmbeddings(ids []string, vecs [][]float64) (*Embeddings, error) {
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("goenrich: mismatched id and vector counts: %d != %d", len(ids), len(vecs))
	}
	if len(ids) == 0 {
		return &Embeddings{}, nil
	}
	dim := len(vecs[0])
	if dim == 0 {
		return nil, &ConsistencyError{Reason: fmt.Sprintf("zero-length embedding for %s", ids[0])}
	}
	seen := make(map[string]bool, len(ids))
	data := make([]float64, 0, len(ids)*dim)
	for i, v := range vecs {
		if seen[ids[i]] {
			return nil, &ConsistencyError{Reason: fmt.Sprintf("duplicate embedding for %s", ids[i])}
		}
		seen[ids[i]] = true
		if len(v) != dim {
			return nil, &ConsistencyError{Reason: fmt.Sprintf("embedding for %s has dimension %d, want %d", ids[i], len(v), dim)}
		}
		data = append(data, v...)
	}
	return &Embeddings{
		IDs:     append([]string(nil), ids...),
		Vectors: mat.NewDense(len(ids), dim, data),
	}, nil
}

// Len returns the number of proteins in the set.
func (e *Embeddings) Len() int { return len(e.IDs) }

// Dim returns the dimension of the embedding vectors.
func (e *Embeddings) Dim() int {
	if e.Vectors == nil {
		return 0
	}
	_, c := e.Vectors.Dims()
	return c
}

// LoadEmbeddings reads the npz archive at path. Each array in the archive
// is a one-dimensional float32 or float64 vector named by its protein
// identifier. Proteins are held in archive order.
func LoadEmbeddings(path string) (*Embeddings, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	defer r.Close()

	keys := r.Keys()
	ids := make([]string, 0, len(keys))
	vecs := make([][]float64, 0, len(keys))
	for _, k := range keys {
		v, err := readVector(r, k)
		if err != nil {
			return nil, fmt.Errorf("goenrich: reading %s from %s: %w", k, path, err)
		}
		ids = append(ids, strings.TrimSuffix(k, ".npy"))
		vecs = append(vecs, v)
	}
	return NewEmbeddings(ids, vecs)
}

// readVector reads the named array, accepting either float precision.
func readVector(r *npz.Reader, name string) ([]float64, error) {
	var f64 []float64
	err64 := r.Read(name, &f64)
	if err64 == nil {
		return f64, nil
	}
	var f32 []float32
	err := r.Read(name, &f32)
	if err != nil {
		return nil, fmt.Errorf("not a float vector: %v", err64)
	}
	v := make([]float64, len(f32))
	for i, x := range f32 {
		v[i] = float64(x)
	}
	return v, nil
}
