// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeAnnotations(t *testing.T) {
	const table = "protein_id\tdomain_id\tgo_id\tgo_name\textra\n" +
		"sp|P32486|KRE6_YEAST\tPF03935.17\tGO:0006078\t(1->6)-beta-D-glucan biosynthetic process\tx\n" +
		"sp|P23776|EXG1_YEAST\tPF00150.21\tGO:0004553\thydrolase activity, hydrolyzing O-glycosyl compounds\ty\n"
	got, err := DecodeAnnotations(strings.NewReader(table))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Annotation{
		{ProteinID: "sp|P32486|KRE6_YEAST", DomainID: "PF03935.17", GOID: "GO:0006078", GOName: "(1->6)-beta-D-glucan biosynthetic process"},
		{ProteinID: "sp|P23776|EXG1_YEAST", DomainID: "PF00150.21", GOID: "GO:0004553", GOName: "hydrolase activity, hydrolyzing O-glycosyl compounds"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected annotations:\ngot: %v\nwant:%v", got, want)
	}
}

func TestDecodeAnnotationsOptionalDomain(t *testing.T) {
	got, err := DecodeAnnotations(strings.NewReader("go_name\tgo_id\tprotein_id\ncell wall\tGO:0005618\tP1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Annotation{{ProteinID: "P1", GOID: "GO:0005618", GOName: "cell wall"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected annotations: got:%v want:%v", got, want)
	}
}

func TestDecodeAnnotationsErrors(t *testing.T) {
	for _, table := range []string{
		"",
		"protein_id\tgo_id\n",
		"protein_id\tgo_id\tgo_name\nP1\tGO:0005618\n",
		"protein_id\tgo_id\tgo_name\n\tGO:0005618\tcell wall\n",
	} {
		_, err := DecodeAnnotations(strings.NewReader(table))
		var cerr *ConsistencyError
		if !errors.As(err, &cerr) {
			t.Errorf("expected ConsistencyError for %q, got:%v", table, err)
		}
	}
}

func TestReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.tsv")
	var ierr *InputNotFoundError
	_, err := ReadAnnotations(path)
	if !errors.As(err, &ierr) || ierr.Path != path {
		t.Errorf("expected InputNotFoundError for annotations, got:%v", err)
	}
	_, err = ReadAssignments(path)
	if !errors.As(err, &ierr) {
		t.Errorf("expected InputNotFoundError for assignments, got:%v", err)
	}
}

func TestAssignmentsRoundTrip(t *testing.T) {
	want := []Assignment{{"P1", 0}, {"P2", 1}, {"P3", 10}, {"P4", 1}}
	var buf bytes.Buffer
	err := EncodeAssignments(&buf, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const wantText = "protein_id\tcluster_id\nP1\tC0\nP2\tC1\nP3\tC10\nP4\tC1\n"
	if buf.String() != wantText {
		t.Errorf("unexpected encoding:\ngot: %q\nwant:%q", buf.String(), wantText)
	}
	got, err := DecodeAssignments(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected assignments: got:%v want:%v", got, want)
	}
}

func TestDecodeAssignmentsErrors(t *testing.T) {
	_, err := DecodeAssignments(strings.NewReader("protein_id\tcluster_id\nP1\tC0\nP1\tC1\n"))
	var cerr *ConsistencyError
	if !errors.As(err, &cerr) {
		t.Errorf("expected ConsistencyError for duplicate protein, got:%v", err)
	}
	_, err = DecodeAssignments(strings.NewReader("protein_id\tcluster_id\nP1\tcluster0\n"))
	if err == nil {
		t.Error("expected error for invalid label")
	}
}

func TestEncodeResults(t *testing.T) {
	results := []Result{
		{Cluster: 0, GOID: "GO:0004553", GOName: "hydrolase activity", ClusterSize: 3, Count: 2, P: 0.2, PAdjusted: 0.4},
		{Cluster: 2, GOID: "GO:0005576", GOName: "extracellular region", ClusterSize: 40, Count: 12, P: 1.5e-07, PAdjusted: 6e-07},
	}
	for _, test := range []struct {
		adjusted bool
		want     string
	}{
		{
			adjusted: false,
			want: "cluster_id\tgo_id\tgo_name\tcluster_size\tgo_count_in_cluster\tp_value\n" +
				"C0\tGO:0004553\thydrolase activity\t3\t2\t0.2\n" +
				"C2\tGO:0005576\textracellular region\t40\t12\t1.5e-07\n",
		},
		{
			adjusted: true,
			want: "cluster_id\tgo_id\tgo_name\tcluster_size\tgo_count_in_cluster\tp_value\tp_adjusted\n" +
				"C0\tGO:0004553\thydrolase activity\t3\t2\t0.2\t0.4\n" +
				"C2\tGO:0005576\textracellular region\t40\t12\t1.5e-07\t6e-07\n",
		},
	} {
		var buf bytes.Buffer
		err := EncodeResults(&buf, results, test.adjusted)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != test.want {
			t.Errorf("unexpected encoding with adjusted=%t:\ngot: %q\nwant:%q", test.adjusted, buf.String(), test.want)
		}
	}
}

// writeString returns a function that writes text to its writer.
func writeString(text string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}
}

// dirNames returns the names of the entries in dir.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")

	f, err := StageFile(path, writeString("complete\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Path() != path {
		t.Errorf("unexpected destination: got:%q want:%q", f.Path(), path)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output visible before commit: %v", err)
	}
	err = f.Commit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errFailed := errors.New("failed")
	_, err = StageFile(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errFailed
	})
	if !errors.Is(err, errFailed) {
		t.Errorf("unexpected error: got:%v want:%v", err, errFailed)
	}

	f, err = StageFile(path, writeString("discarded\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.Discard()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "complete\n" {
		t.Errorf("failed write altered output: %q", got)
	}
	if names := dirNames(t, dir); len(names) != 1 {
		t.Errorf("temporary files left behind: %v", names)
	}
}

func TestCommitAll(t *testing.T) {
	dir := t.TempDir()
	first, err := StageFile(filepath.Join(dir, "first.tsv"), writeString("first\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := StageFile(filepath.Join(dir, "second.tsv"), writeString("second\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = CommitAll(first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := dirNames(t, dir), []string{"first.tsv", "second.tsv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected files: got:%v want:%v", got, want)
	}

	// A file whose destination directory has gone cannot be
	// committed, and the files after it are discarded.
	sub := filepath.Join(dir, "sub")
	err = os.Mkdir(sub, 0o755)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lost, err := StageFile(filepath.Join(sub, "lost.tsv"), writeString("lost\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third, err := StageFile(filepath.Join(dir, "third.tsv"), writeString("third\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = os.RemoveAll(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = CommitAll(lost, third)
	if err == nil {
		t.Error("expected error committing to removed directory")
	}
	if got, want := dirNames(t, dir), []string{"first.tsv", "second.tsv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected files after failed commit: got:%v want:%v", got, want)
	}
}
