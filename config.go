// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Adjustment methods for multiple-testing correction.
const (
	AdjustNone = "none"
	AdjustBH   = "bh" // Benjamini-Hochberg
)

// Config holds the parameters of a pipeline run.
type Config struct {
	// Embeddings is the path to the npz archive of protein embeddings.
	Embeddings string `yaml:"embeddings"`
	// Annotations is the path to the protein to GO term table.
	Annotations string `yaml:"annotations"`
	// Ontology is an optional path to a GO N-Triples file. When set,
	// annotations are propagated to all subclass ancestors.
	Ontology string `yaml:"ontology"`

	// Clusters and Enrichment are the output table paths.
	Clusters   string `yaml:"clusters"`
	Enrichment string `yaml:"enrichment"`
	// Database is an optional SQLite export path.
	Database string `yaml:"database"`

	K        int     `yaml:"k"`
	Seed     uint64  `yaml:"seed"`
	Restarts int     `yaml:"restarts"`
	MaxIter  int     `yaml:"max_iter"`
	Tol      float64 `yaml:"tol"`

	// MinSupport is the minimum number of cluster proteins carrying
	// a term for the pair to be tested.
	MinSupport int `yaml:"min_support"`
	// Adjust is the multiple-testing correction, AdjustNone or AdjustBH.
	Adjust string `yaml:"adjust"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Embeddings:  "embeddings/yeast_secreted_esm2.npz",
		Annotations: "data/processed/yeast_protein_go_secretome.tsv",
		Clusters:    "data/processed/yeast_protein_clusters.tsv",
		Enrichment:  "data/processed/yeast_cluster_go_enrichment.tsv",

		K:        5,
		Seed:     42,
		Restarts: 10,
		MaxIter:  300,
		Tol:      1e-4,

		MinSupport: 2,
		Adjust:     AdjustNone,
	}
}

// LoadConfig returns the default configuration overlaid with the YAML
// document at path. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, &InputNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, &ConfigError{Field: "file " + path, Reason: err.Error()}
	}
	return cfg, nil
}

// Validate checks the parameters that can be checked without the input
// data. The K ≤ N constraint is checked by the clustering step.
func (c Config) Validate() error {
	switch {
	case c.K <= 0:
		return &ConfigError{Field: "k", Reason: "must be positive"}
	case c.MinSupport <= 0:
		return &ConfigError{Field: "min_support", Reason: "must be positive"}
	case c.Restarts <= 0:
		return &ConfigError{Field: "restarts", Reason: "must be positive"}
	case c.MaxIter <= 0:
		return &ConfigError{Field: "max_iter", Reason: "must be positive"}
	case c.Tol < 0:
		return &ConfigError{Field: "tol", Reason: "must not be negative"}
	}
	switch c.Adjust {
	case AdjustNone, AdjustBH:
	default:
		return &ConfigError{Field: "adjust", Reason: "must be " + AdjustNone + " or " + AdjustBH}
	}
	return nil
}

// requirePaths checks that the named path fields are set.
func requirePaths(paths ...[2]string) error {
	for _, p := range paths {
		if p[1] == "" {
			return &ConfigError{Field: p[0], Reason: "path must be set"}
		}
	}
	return nil
}

// KMeans returns the clustering parameters held by c.
func (c Config) KMeans() KMeans {
	return KMeans{K: c.K, Seed: c.Seed, Restarts: c.Restarts, MaxIter: c.MaxIter, Tol: c.Tol}
}

// Enricher returns the enrichment parameters held by c.
func (c Config) Enricher() Enricher {
	return Enricher{MinSupport: c.MinSupport, Adjust: c.Adjust}
}
