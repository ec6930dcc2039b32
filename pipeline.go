// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"io"
	"log"
)

// Pipeline runs the clustering and enrichment stages described by its
// Config. All inputs are read before any output is written, and no
// output replaces its destination until every output has been staged.
type Pipeline struct {
	Config Config

	// Log receives progress and warning messages. If nil,
	// log.Default() is used.
	Log *log.Logger

	// Stage, if not nil, is called with the outcome of a run after
	// the pipeline's own tables are staged. The files it returns are
	// committed with those tables.
	Stage func(*Outcome) ([]*PendingFile, error)
}

// Outcome is the result of a pipeline run.
type Outcome struct {
	Assignments []Assignment
	Results     []Result

	// Proteins is the number of clustered proteins and Clusters is
	// the number of clusters they are partitioned into.
	Proteins int
	Clusters int
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	l := p.Log
	if l == nil {
		l = log.Default()
	}
	l.Printf(format, args...)
}

// Run clusters the embeddings, tests the clusters for GO term
// enrichment and writes the cluster assignment and enrichment tables.
func (p *Pipeline) Run() (*Outcome, error) {
	err := p.Config.Validate()
	if err == nil {
		err = requirePaths(
			[2]string{"embeddings", p.Config.Embeddings},
			[2]string{"annotations", p.Config.Annotations},
			[2]string{"clusters", p.Config.Clusters},
			[2]string{"enrichment", p.Config.Enrichment},
		)
	}
	if err != nil {
		return nil, &StageError{Stage: "configuration", Err: err}
	}

	assignments, err := p.cluster()
	if err != nil {
		return nil, err
	}
	results, err := p.enrich(assignments)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Assignments: assignments,
		Results:     results,
		Proteins:    len(assignments),
		Clusters:    p.Config.K,
	}
	err = p.commit(out, p.stageAssignments, p.stageResults)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunCluster clusters the embeddings and writes the cluster assignment
// table only.
func (p *Pipeline) RunCluster() (*Outcome, error) {
	err := p.Config.Validate()
	if err == nil {
		err = requirePaths(
			[2]string{"embeddings", p.Config.Embeddings},
			[2]string{"clusters", p.Config.Clusters},
		)
	}
	if err != nil {
		return nil, &StageError{Stage: "configuration", Err: err}
	}

	assignments, err := p.cluster()
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Assignments: assignments,
		Proteins:    len(assignments),
		Clusters:    p.Config.K,
	}
	err = p.commit(out, p.stageAssignments)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunEnrich reads an existing cluster assignment table, tests the
// clusters for GO term enrichment and writes the enrichment table.
func (p *Pipeline) RunEnrich() (*Outcome, error) {
	err := p.Config.Validate()
	if err == nil {
		err = requirePaths(
			[2]string{"clusters", p.Config.Clusters},
			[2]string{"annotations", p.Config.Annotations},
			[2]string{"enrichment", p.Config.Enrichment},
		)
	}
	if err != nil {
		return nil, &StageError{Stage: "configuration", Err: err}
	}

	p.logf("loading cluster assignments from %s", p.Config.Clusters)
	assignments, err := ReadAssignments(p.Config.Clusters)
	if err != nil {
		return nil, &StageError{Stage: "load clusters", Err: err}
	}
	results, err := p.enrich(assignments)
	if err != nil {
		return nil, err
	}
	clusters := make(map[int]bool)
	for _, a := range assignments {
		clusters[a.Cluster] = true
	}
	out := &Outcome{
		Assignments: assignments,
		Results:     results,
		Proteins:    len(assignments),
		Clusters:    len(clusters),
	}
	err = p.commit(out, p.stageResults)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) cluster() ([]Assignment, error) {
	p.logf("loading embeddings from %s", p.Config.Embeddings)
	emb, err := LoadEmbeddings(p.Config.Embeddings)
	if err != nil {
		return nil, &StageError{Stage: "load embeddings", Err: err}
	}

	p.logf("clustering %d proteins into %d clusters", emb.Len(), p.Config.K)
	assignments, err := p.Config.KMeans().Cluster(emb)
	if err != nil {
		return nil, &StageError{Stage: "cluster", Err: err}
	}
	return assignments, nil
}

func (p *Pipeline) enrich(assignments []Assignment) ([]Result, error) {
	p.logf("loading GO annotations from %s", p.Config.Annotations)
	annots, err := ReadAnnotations(p.Config.Annotations)
	if err != nil {
		return nil, &StageError{Stage: "load annotations", Err: err}
	}

	if p.Config.Ontology != "" {
		p.logf("loading GO ontology from %s", p.Config.Ontology)
		o, err := LoadOntology(p.Config.Ontology)
		if err != nil {
			return nil, &StageError{Stage: "load ontology", Err: err}
		}
		n := len(annots)
		annots = Propagate(annots, o)
		p.logf("propagated %d annotations to %d", n, len(annots))
	}

	j := Join(assignments, annots)
	annotated := make(map[string]bool)
	for _, r := range j.Records {
		annotated[r.ProteinID] = true
	}
	if missing := len(assignments) - len(annotated); missing != 0 {
		p.logf("%d of %d clustered proteins have no GO annotation", missing, len(assignments))
	}

	p.logf("computing GO enrichment over %d background proteins", len(j.Background))
	results, err := p.Config.Enricher().Enrich(j)
	if err != nil {
		return nil, &StageError{Stage: "enrich", Err: err}
	}
	if len(results) == 0 {
		p.logf("warning: no cluster and GO term pair has at least %d supporting proteins", p.Config.MinSupport)
	}
	return results, nil
}

// commit stages every output of out and then renames them all into
// place. If any output fails to stage, none is committed.
func (p *Pipeline) commit(out *Outcome, stages ...func(*Outcome) (*PendingFile, error)) error {
	var pending []*PendingFile
	for _, stage := range stages {
		f, err := stage(out)
		if err != nil {
			DiscardAll(pending...)
			return err
		}
		pending = append(pending, f)
	}
	if p.Stage != nil {
		extra, err := p.Stage(out)
		if err != nil {
			DiscardAll(pending...)
			return err
		}
		pending = append(pending, extra...)
	}
	err := CommitAll(pending...)
	if err != nil {
		return &StageError{Stage: "commit outputs", Err: err}
	}
	return nil
}

func (p *Pipeline) stageAssignments(out *Outcome) (*PendingFile, error) {
	f, err := StageFile(p.Config.Clusters, func(w io.Writer) error {
		return EncodeAssignments(w, out.Assignments)
	})
	if err != nil {
		return nil, &StageError{Stage: "write clusters", Err: err}
	}
	return f, nil
}

func (p *Pipeline) stageResults(out *Outcome) (*PendingFile, error) {
	f, err := StageFile(p.Config.Enrichment, func(w io.Writer) error {
		return EncodeResults(w, out.Results, p.Config.Adjust == AdjustBH)
	})
	if err != nil {
		return nil, &StageError{Stage: "write enrichment", Err: err}
	}
	return f, nil
}
