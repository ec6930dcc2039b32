// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// goenrich clusters secreted protein embeddings with k-means and tests
// each cluster for over-representation of GO terms with a one-sided
// Fisher's exact test.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// usageError marks command line errors.
type usageError struct{ error }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the goenrich command line in args, writing results to
// stdout and logging to stderr, and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetFlags(0)
	log.SetPrefix("goenrich: ")

	root := newRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		log.Print(err)
		var uerr usageError
		if errors.As(err, &uerr) {
			return 2
		}
		return 1
	}
	return 0
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "goenrich",
		Short: "Cluster protein embeddings and test clusters for GO term enrichment",
		Long: `goenrich partitions protein language model embeddings into k clusters
and, for every cluster and GO term carried by at least min-support of the
cluster's proteins, computes a one-sided Fisher's exact test p-value for
over-representation of the term against all annotated proteins.

Embeddings are read from an npz archive of named vectors. Annotations are
read from a tab-separated table with protein_id, go_id and go_name columns.
Outputs are tab-separated tables written atomically.

Raw p-values are reported; no multiple-testing correction is applied
unless --adjust=bh is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.AddCommand(
		runCommand(),
		clusterCommand(),
		enrichCommand(),
	)
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return usageError{fmt.Errorf("%s takes no arguments, got %q", cmd.CommandPath(), args)}
	}
	return nil
}
