// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kgstore exports cluster assignments and GO enrichment results
// to a SQLite database for loading into a knowledge graph.
package kgstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kortschak/goenrich"
)

const schema = `
CREATE TABLE protein_cluster (
	protein_id TEXT PRIMARY KEY,
	cluster_id TEXT NOT NULL
);
CREATE TABLE cluster_go_enrichment (
	cluster_id          TEXT    NOT NULL,
	go_id               TEXT    NOT NULL,
	go_name             TEXT    NOT NULL,
	cluster_size        INTEGER NOT NULL,
	go_count_in_cluster INTEGER NOT NULL,
	p_value             REAL    NOT NULL,
	p_adjusted          REAL    NOT NULL,
	rank                INTEGER NOT NULL,
	PRIMARY KEY (cluster_id, go_id, go_name)
);
CREATE INDEX cluster_go_enrichment_go_id ON cluster_go_enrichment (go_id);
`

// ClusterRow is a row of the protein_cluster table.
type ClusterRow struct {
	ProteinID string `db:"protein_id"`
	ClusterID string `db:"cluster_id"`
}

// EnrichmentRow is a row of the cluster_go_enrichment table. Rank is the
// position of the row in the ordered enrichment result, starting at 0.
type EnrichmentRow struct {
	ClusterID   string  `db:"cluster_id"`
	GOID        string  `db:"go_id"`
	GOName      string  `db:"go_name"`
	ClusterSize int     `db:"cluster_size"`
	Count       int     `db:"go_count_in_cluster"`
	P           float64 `db:"p_value"`
	PAdjusted   float64 `db:"p_adjusted"`
	Rank        int     `db:"rank"`
}

// Stage writes assignments and results to a new SQLite database held
// as a pending output for path. Committing the returned file replaces
// any existing database at path.
func Stage(ctx context.Context, path string, assignments []goenrich.Assignment, results []goenrich.Result) (*goenrich.PendingFile, error) {
	return goenrich.StagePath(path, func(tmp string) error {
		db, err := sqlx.Open("sqlite", tmp)
		if err != nil {
			return fmt.Errorf("kgstore: open %s: %w", tmp, err)
		}
		err = write(ctx, db, assignments, results)
		cerr := db.Close()
		if err != nil {
			return err
		}
		if cerr != nil {
			return fmt.Errorf("kgstore: close: %w", cerr)
		}
		return nil
	})
}

func write(ctx context.Context, db *sqlx.DB, assignments []goenrich.Assignment, results []goenrich.Result) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("kgstore: create schema: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kgstore: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO protein_cluster (protein_id, cluster_id) VALUES (:protein_id, :cluster_id)`)
	if err != nil {
		return fmt.Errorf("kgstore: prepare: %w", err)
	}
	for _, a := range assignments {
		_, err = stmt.ExecContext(ctx, ClusterRow{ProteinID: a.ProteinID, ClusterID: a.Label()})
		if err != nil {
			return fmt.Errorf("kgstore: insert cluster assignment for %s: %w", a.ProteinID, err)
		}
	}
	stmt.Close()

	stmt, err = tx.PrepareNamedContext(ctx, `INSERT INTO cluster_go_enrichment
	(cluster_id, go_id, go_name, cluster_size, go_count_in_cluster, p_value, p_adjusted, rank)
	VALUES (:cluster_id, :go_id, :go_name, :cluster_size, :go_count_in_cluster, :p_value, :p_adjusted, :rank)`)
	if err != nil {
		return fmt.Errorf("kgstore: prepare: %w", err)
	}
	for i, r := range results {
		_, err = stmt.ExecContext(ctx, EnrichmentRow{
			ClusterID:   goenrich.ClusterLabel(r.Cluster),
			GOID:        r.GOID,
			GOName:      r.GOName,
			ClusterSize: r.ClusterSize,
			Count:       r.Count,
			P:           r.P,
			PAdjusted:   r.PAdjusted,
			Rank:        i,
		})
		if err != nil {
			return fmt.Errorf("kgstore: insert enrichment for %s %s: %w", goenrich.ClusterLabel(r.Cluster), r.GOID, err)
		}
	}
	stmt.Close()

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("kgstore: commit: %w", err)
	}
	return nil
}
