// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const globalFragment = `<http://purl.obolibrary.org/obo/GO_0005618> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://purl.obolibrary.org/obo/GO_0030312> .
<http://purl.obolibrary.org/obo/GO_0030312> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://purl.obolibrary.org/obo/GO_0071944> .
<http://purl.obolibrary.org/obo/GO_0005618> <http://www.w3.org/2000/01/rdf-schema#subClassOf> _:b0 .
<http://purl.obolibrary.org/obo/GO_0005618> <http://www.w3.org/2000/01/rdf-schema#label> "cell wall"^^<http://www.w3.org/2001/XMLSchema#string> .
<http://purl.obolibrary.org/obo/GO_0030312> <http://www.w3.org/2000/01/rdf-schema#label> "external encapsulating structure"^^<http://www.w3.org/2001/XMLSchema#string> .
<http://purl.obolibrary.org/obo/GO_0005618> <http://www.geneontology.org/formats/oboInOwl#hasOBONamespace> "cellular_component" .
`

func TestLoadOntologyGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.nt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(globalFragment))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Close()
	f.Close()

	o, err := LoadOntology(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := o.TermForID("GO:0005618")
	if !ok {
		t.Fatal("no term for GO:0005618")
	}
	if got := o.NameOf(term); got != "cell wall" {
		t.Errorf("unexpected name: got:%q want:%q", got, "cell wall")
	}
	var got []string
	for _, a := range o.AncestorsOf(term) {
		id, ok := o.IDOf(a)
		if !ok {
			t.Errorf("non-GO ancestor: %s", a.Value)
		}
		got = append(got, id)
	}
	want := []string{"GO:0030312", "GO:0071944"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected ancestors: got:%v want:%v", got, want)
	}

	// The namespace predicate is not retained.
	if _, ok := o.TermFor("<http://www.geneontology.org/formats/oboInOwl#hasOBONamespace>"); ok {
		t.Error("unexpected namespace predicate in ontology")
	}
}

func TestOntologyMixedNamespace(t *testing.T) {
	_, err := DecodeOntology(strings.NewReader(`<obo:GO_0005618> <rdfs:subClassOf> <obo:GO_0030312> .
<http://purl.obolibrary.org/obo/GO_0030312> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://purl.obolibrary.org/obo/GO_0071944> .
`))
	if err == nil {
		t.Error("expected error for mixed namespaces")
	}
}

func TestLoadOntologyMissing(t *testing.T) {
	_, err := LoadOntology(filepath.Join(t.TempDir(), "go.nt"))
	var ierr *InputNotFoundError
	if !errors.As(err, &ierr) {
		t.Errorf("expected InputNotFoundError, got:%v", err)
	}
}

func TestPropagateUnknownTerm(t *testing.T) {
	o := NewOntology()
	in := []Annotation{
		{ProteinID: "P1", GOID: "GO:9999999", GOName: "unknown"},
		{ProteinID: "P1", DomainID: "PF1", GOID: "GO:9999999", GOName: "unknown"},
	}
	got := Propagate(in, o)
	want := in[:1]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected propagation: got:%v want:%v", got, want)
	}
}

func TestPropagateLocal(t *testing.T) {
	o, err := DecodeOntology(strings.NewReader(`<obo:GO_0004553> <rdfs:subClassOf> <obo:GO_0016798> .
<obo:GO_0004553> <rdfs:subClassOf> <obo:GO_0003824> .
<obo:GO_0016798> <rdfs:subClassOf> <obo:GO_0003824> .
<obo:GO_0016798> <rdfs:label> "hydrolase activity, acting on glycosyl bonds" .
<obo:GO_0003824> <rdfs:label> "catalytic activity" .
<obo:GO_0003824> <rdfs:label> "alternative label" .
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	term, ok := o.TermForID("GO:0004553")
	if !ok {
		t.Fatal("no term for GO:0004553")
	}
	var from []int64
	it := o.From(term.ID())
	for it.Next() {
		from = append(from, it.Node().ID())
	}
	if len(from) != 2 || from[0] >= from[1] {
		t.Errorf("unexpected successors: got:%v want two in ascending ID order", from)
	}
	if it := o.From(-1); it.Len() != 0 {
		t.Errorf("unexpected successors of missing node: %d", it.Len())
	}

	got := Propagate([]Annotation{{ProteinID: "P1", DomainID: "PF1", GOID: "GO:0004553", GOName: "hydrolase activity, hydrolyzing O-glycosyl compounds"}}, o)
	want := []Annotation{
		{ProteinID: "P1", DomainID: "PF1", GOID: "GO:0004553", GOName: "hydrolase activity, hydrolyzing O-glycosyl compounds"},
		{ProteinID: "P1", DomainID: "PF1", GOID: "GO:0003824", GOName: "alternative label"},
		{ProteinID: "P1", DomainID: "PF1", GOID: "GO:0016798", GOName: "hydrolase activity, acting on glycosyl bonds"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected propagation:\ngot: %v\nwant:%v", got, want)
	}
}
