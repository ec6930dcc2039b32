// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/kortschak/goenrich"
)

// options holds flag values. Flags that are not explicitly set do not
// override the configuration file.
type options struct {
	config string
	flags  goenrich.Config
}

// flag names
const (
	flagEmbeddings  = "embeddings"
	flagAnnotations = "annotations"
	flagOntology    = "ontology"
	flagClusters    = "clusters"
	flagEnrichment  = "enrichment"
	flagDatabase    = "db"
	flagK           = "k"
	flagSeed        = "seed"
	flagRestarts    = "restarts"
	flagMaxIter     = "max-iter"
	flagTol         = "tol"
	flagMinSupport  = "min-support"
	flagAdjust      = "adjust"
)

// register adds the named flags to cmd.
func (o *options) register(cmd *cobra.Command, names ...string) {
	def := goenrich.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&o.config, "config", "", "YAML configuration file; explicitly set flags take precedence")
	for _, n := range names {
		switch n {
		case flagEmbeddings:
			f.StringVar(&o.flags.Embeddings, n, def.Embeddings, "npz archive of protein embeddings")
		case flagAnnotations:
			f.StringVar(&o.flags.Annotations, n, def.Annotations, "protein GO annotation table (TSV)")
		case flagOntology:
			f.StringVar(&o.flags.Ontology, n, "", "GO ontology N-Triples (.nt or .nt.gz) for annotation propagation")
		case flagClusters:
			f.StringVar(&o.flags.Clusters, n, def.Clusters, "cluster assignment table (TSV)")
		case flagEnrichment:
			f.StringVar(&o.flags.Enrichment, n, def.Enrichment, "enrichment result table (TSV)")
		case flagDatabase:
			f.StringVar(&o.flags.Database, n, "", "optional SQLite database to export results to")
		case flagK:
			f.IntVarP(&o.flags.K, n, "k", def.K, "number of clusters")
		case flagSeed:
			f.Uint64Var(&o.flags.Seed, n, def.Seed, "random seed for clustering")
		case flagRestarts:
			f.IntVar(&o.flags.Restarts, n, def.Restarts, "number of k-means initialisations")
		case flagMaxIter:
			f.IntVar(&o.flags.MaxIter, n, def.MaxIter, "maximum k-means iterations per initialisation")
		case flagTol:
			f.Float64Var(&o.flags.Tol, n, def.Tol, "k-means convergence tolerance relative to data variance")
		case flagMinSupport:
			f.IntVar(&o.flags.MinSupport, n, def.MinSupport, "minimum cluster proteins carrying a term for it to be tested")
		case flagAdjust:
			f.StringVar(&o.flags.Adjust, n, def.Adjust, "multiple-testing correction: none or bh")
		default:
			panic("goenrich: unknown flag: " + n)
		}
	}
}

// resolve returns the configuration built from defaults, the optional
// configuration file and explicitly set flags, in increasing precedence.
func (o *options) resolve(cmd *cobra.Command) (goenrich.Config, error) {
	cfg := goenrich.DefaultConfig()
	if o.config != "" {
		var err error
		cfg, err = goenrich.LoadConfig(o.config)
		if err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	for name, apply := range map[string]func(){
		flagEmbeddings:  func() { cfg.Embeddings = o.flags.Embeddings },
		flagAnnotations: func() { cfg.Annotations = o.flags.Annotations },
		flagOntology:    func() { cfg.Ontology = o.flags.Ontology },
		flagClusters:    func() { cfg.Clusters = o.flags.Clusters },
		flagEnrichment:  func() { cfg.Enrichment = o.flags.Enrichment },
		flagDatabase:    func() { cfg.Database = o.flags.Database },
		flagK:           func() { cfg.K = o.flags.K },
		flagSeed:        func() { cfg.Seed = o.flags.Seed },
		flagRestarts:    func() { cfg.Restarts = o.flags.Restarts },
		flagMaxIter:     func() { cfg.MaxIter = o.flags.MaxIter },
		flagTol:         func() { cfg.Tol = o.flags.Tol },
		flagMinSupport:  func() { cfg.MinSupport = o.flags.MinSupport },
		flagAdjust:      func() { cfg.Adjust = o.flags.Adjust },
	} {
		if f.Lookup(name) != nil && f.Changed(name) {
			apply()
		}
	}
	return cfg, nil
}
