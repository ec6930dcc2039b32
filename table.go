// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Annotation is a protein to GO term annotation.
type Annotation struct {
	ProteinID string
	DomainID  string
	GOID      string
	GOName    string
}

// tableReader reads a tab-separated table with a header row, giving
// access to fields by column name.
type tableReader struct {
	r    *csv.Reader
	cols map[string]int
	rec  []string
	line int
}

func newTableReader(r io.Reader, required ...string) (*tableReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &ConsistencyError{Reason: "empty table: missing header"}
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, &ConsistencyError{Reason: fmt.Sprintf("missing column %q", c)}
		}
	}
	return &tableReader{r: cr, cols: cols, line: 1}, nil
}

// next advances to the next record, returning io.EOF at the end of the
// table. Blank lines are skipped by the csv reader.
func (t *tableReader) next() error {
	rec, err := t.r.Read()
	if err != nil {
		return err
	}
	t.rec = rec
	t.line, _ = t.r.FieldPos(0)
	return nil
}

// field returns the value of the named column in the current record.
// Optional columns absent from the header are returned empty.
func (t *tableReader) field(name string) (string, error) {
	i, ok := t.cols[name]
	if !ok {
		return "", nil
	}
	if i >= len(t.rec) {
		return "", &ConsistencyError{Reason: fmt.Sprintf("line %d: missing %s field", t.line, name)}
	}
	return t.rec[i], nil
}

// ReadAnnotations reads a GO annotation table from the file at path.
func ReadAnnotations(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	defer f.Close()
	a, err := DecodeAnnotations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// DecodeAnnotations reads a tab-separated GO annotation table with the
// columns protein_id, go_id and go_name. A domain_id column is read if
// present and other columns are ignored.
func DecodeAnnotations(r io.Reader) ([]Annotation, error) {
	t, err := newTableReader(r, "protein_id", "go_id", "go_name")
	if err != nil {
		return nil, err
	}
	var annots []Annotation
	for {
		err := t.next()
		if err != nil {
			if err == io.EOF {
				return annots, nil
			}
			return nil, err
		}
		var a Annotation
		for _, f := range []struct {
			name string
			dst  *string
		}{
			{"protein_id", &a.ProteinID},
			{"domain_id", &a.DomainID},
			{"go_id", &a.GOID},
			{"go_name", &a.GOName},
		} {
			*f.dst, err = t.field(f.name)
			if err != nil {
				return nil, err
			}
		}
		if a.ProteinID == "" || a.GOID == "" {
			return nil, &ConsistencyError{Reason: fmt.Sprintf("line %d: empty protein_id or go_id", t.line)}
		}
		annots = append(annots, a)
	}
}

// ReadAssignments reads a cluster assignment table from the file at path.
func ReadAssignments(path string) ([]Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	defer f.Close()
	a, err := DecodeAssignments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// DecodeAssignments reads a tab-separated cluster assignment table with
// the columns protein_id and cluster_id. Each protein must appear once.
func DecodeAssignments(r io.Reader) ([]Assignment, error) {
	t, err := newTableReader(r, "protein_id", "cluster_id")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var assignments []Assignment
	for {
		err := t.next()
		if err != nil {
			if err == io.EOF {
				return assignments, nil
			}
			return nil, err
		}
		id, err := t.field("protein_id")
		if err != nil {
			return nil, err
		}
		label, err := t.field("cluster_id")
		if err != nil {
			return nil, err
		}
		c, err := ParseClusterLabel(label)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line, err)
		}
		if seen[id] {
			return nil, &ConsistencyError{Cluster: label, Reason: fmt.Sprintf("line %d: protein %s assigned more than once", t.line, id)}
		}
		seen[id] = true
		assignments = append(assignments, Assignment{ProteinID: id, Cluster: c})
	}
}

// EncodeAssignments writes the cluster assignment table to w.
func EncodeAssignments(w io.Writer, assignments []Assignment) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.Write([]string{"protein_id", "cluster_id"})
	for _, a := range assignments {
		cw.Write([]string{a.ProteinID, a.Label()})
	}
	cw.Flush()
	return cw.Error()
}

// EncodeResults writes the enrichment table to w. The p_adjusted column
// is written only when adjusted is true.
func EncodeResults(w io.Writer, results []Result, adjusted bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	header := []string{"cluster_id", "go_id", "go_name", "cluster_size", "go_count_in_cluster", "p_value"}
	if adjusted {
		header = append(header, "p_adjusted")
	}
	cw.Write(header)
	rec := make([]string, len(header))
	for _, r := range results {
		rec[0] = ClusterLabel(r.Cluster)
		rec[1] = r.GOID
		rec[2] = r.GOName
		rec[3] = strconv.Itoa(r.ClusterSize)
		rec[4] = strconv.Itoa(r.Count)
		rec[5] = formatFloat(r.P)
		if adjusted {
			rec[6] = formatFloat(r.PAdjusted)
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// PendingFile is an output held under a temporary name in the
// directory of its destination until it is committed.
type PendingFile struct {
	path string
	tmp  string
}

// StagePath calls fn with a new temporary path in the directory of path
// and returns the pending output fn leaves there. If fn fails, anything
// it wrote is removed.
func StagePath(path string, fn func(tmp string) error) (*PendingFile, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f := &PendingFile{
		path: path,
		tmp:  filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp"),
	}
	err := fn(f.tmp)
	if err != nil {
		f.Discard()
		return nil, err
	}
	return f, nil
}

// StageFile writes the output of fn to a temporary file next to path
// and returns it as a pending output.
func StageFile(path string, fn func(io.Writer) error) (*PendingFile, error) {
	return StagePath(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		err = fn(f)
		if err == nil {
			err = f.Sync()
		}
		cerr := f.Close()
		if err != nil {
			return err
		}
		return cerr
	})
}

// Path returns the destination of the pending output.
func (f *PendingFile) Path() string { return f.path }

// Commit renames the pending output over its destination.
func (f *PendingFile) Commit() error {
	return os.Rename(f.tmp, f.path)
}

// Discard removes the pending output.
func (f *PendingFile) Discard() {
	os.Remove(f.tmp)
}

// CommitAll commits files in order. If a commit fails, the remaining
// files are discarded and the error is returned.
func CommitAll(files ...*PendingFile) error {
	for i, f := range files {
		err := f.Commit()
		if err != nil {
			DiscardAll(files[i:]...)
			return fmt.Errorf("goenrich: commit %s: %w", f.path, err)
		}
	}
	return nil
}

// DiscardAll discards all files.
func DiscardAll(files ...*PendingFile) {
	for _, f := range files {
		f.Discard()
	}
}
