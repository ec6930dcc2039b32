// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/kortschak/goenrich"
	"github.com/kortschak/goenrich/internal/kgstore"
)

func runCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cluster embeddings and compute per-cluster GO enrichment",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			p := goenrich.Pipeline{
				Config: cfg,
				Log:    log.Default(),
				Stage:  database(cmd.Context(), cfg.Database),
			}
			out, err := p.Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d proteins in %d clusters, %d enrichment rows\n",
				out.Proteins, out.Clusters, len(out.Results))
			return nil
		},
	}
	o.register(cmd,
		flagEmbeddings, flagAnnotations, flagOntology, flagClusters, flagEnrichment, flagDatabase,
		flagK, flagSeed, flagRestarts, flagMaxIter, flagTol,
		flagMinSupport, flagAdjust,
	)
	return cmd
}

func clusterCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster embeddings and write the cluster assignment table",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			p := goenrich.Pipeline{Config: cfg, Log: log.Default()}
			out, err := p.RunCluster()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d proteins in %d clusters\n", out.Proteins, out.Clusters)
			return nil
		},
	}
	o.register(cmd,
		flagEmbeddings, flagClusters,
		flagK, flagSeed, flagRestarts, flagMaxIter, flagTol,
	)
	return cmd
}

func enrichCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Compute per-cluster GO enrichment from an existing cluster assignment table",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			p := goenrich.Pipeline{
				Config: cfg,
				Log:    log.Default(),
				Stage:  database(cmd.Context(), cfg.Database),
			}
			out, err := p.RunEnrich()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d proteins in %d clusters, %d enrichment rows\n",
				out.Proteins, out.Clusters, len(out.Results))
			return nil
		},
	}
	o.register(cmd,
		flagAnnotations, flagOntology, flagClusters, flagEnrichment, flagDatabase,
		flagMinSupport, flagAdjust,
	)
	return cmd
}

// database returns a function that stages the outcome of a run as a
// SQLite database at path, or nil if path is empty.
func database(ctx context.Context, path string) func(*goenrich.Outcome) ([]*goenrich.PendingFile, error) {
	if path == "" {
		return nil
	}
	return func(out *goenrich.Outcome) ([]*goenrich.PendingFile, error) {
		log.Printf("exporting results to %s", path)
		f, err := kgstore.Stage(ctx, path, out.Assignments, out.Results)
		if err != nil {
			return nil, &goenrich.StageError{Stage: "export database", Err: err}
		}
		return []*goenrich.PendingFile{f}, nil
	}
}
