// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/formats/rdf"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/set/uid"
	"gonum.org/v1/gonum/graph/traverse"
)

// Ontology is a Gene Ontology graph built from RDF statements. Only the
// subclass hierarchy and term labels are used.
type Ontology struct {
	nodes map[int64]graph.Node
	from  map[int64]map[int64]map[int64]graph.Line

	termIDs map[string]int64
	ids     *uid.Set

	namespace int
}

const (
	local   = iota - 1
	unknown //nolint:deadcode,unused,varcheck
	global
)

// vocabulary holds the IRIs used to navigate the ontology in one of the
// two namespacing conventions.
type vocabulary struct {
	goTerm     string
	subClassOf string
	label      string
}

var vocabularies = map[int]vocabulary{
	local: {
		goTerm:     "<obo:GO_",
		subClassOf: "<rdfs:subClassOf>",
		label:      "<rdfs:label>",
	},
	global: {
		goTerm:     "<http://purl.obolibrary.org/obo/GO_",
		subClassOf: "<http://www.w3.org/2000/01/rdf-schema#subClassOf>",
		label:      "<http://www.w3.org/2000/01/rdf-schema#label>",
	},
}

// NewOntology returns a new empty Ontology.
func NewOntology() *Ontology {
	return &Ontology{
		nodes: make(map[int64]graph.Node),
		from:  make(map[int64]map[int64]map[int64]graph.Line),

		termIDs: make(map[string]int64),
		ids:     uid.NewSet(),
	}
}

// LoadOntology reads the GO N-Triples file at path, which may be gzip
// compressed if its name ends in ".gz". Only subclass and label
// statements are retained.
func LoadOntology(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		r, err = gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("goenrich: %s: %w", path, err)
		}
	}
	o, err := DecodeOntology(r)
	if err != nil {
		return nil, fmt.Errorf("goenrich: %s: %w", path, err)
	}
	return o, nil
}

// DecodeOntology reads N-Triples from r into a new Ontology, retaining
// only subclass and label statements.
func DecodeOntology(r io.Reader) (*Ontology, error) {
	o := NewOntology()
	dec := rdf.NewDecoder(r)
	for {
		s, err := dec.Unmarshal()
		if err != nil {
			if err == io.EOF {
				return o, nil
			}
			return nil, err
		}

		switch s.Predicate.Value {
		case vocabularies[local].subClassOf, vocabularies[local].label,
			vocabularies[global].subClassOf, vocabularies[global].label:
		default:
			continue
		}

		s.Subject.UID = 0
		s.Predicate.UID = 0
		s.Object.UID = 0
		err = o.addStatement(s)
		if err != nil {
			return nil, err
		}
	}
}

// addNode adds n to the graph. It panics if the added node ID matches an
// existing node ID.
func (o *Ontology) addNode(n graph.Node) {
	if _, exists := o.nodes[n.ID()]; exists {
		panic(fmt.Sprintf("goenrich: node ID collision: %d", n.ID()))
	}
	o.nodes[n.ID()] = n
	o.ids.Use(n.ID())
}

// AddStatement adds s to the ontology. It panics if s is not a valid
// RDF statement or if its predicate namespace does not match statements
// already held. If the UID fields of the terms in s are zero, they are
// set to values consistent with the rest of the graph on return. The
// statement must not be altered while being held by the ontology.
func (o *Ontology) AddStatement(s *rdf.Statement) {
	err := o.addStatement(s)
	if err != nil {
		panic(err)
	}
}

func (o *Ontology) addStatement(s *rdf.Statement) error {
	text, _, kind, err := s.Predicate.Parts()
	if err != nil {
		return fmt.Errorf("goenrich: error extracting predicate: %w", err)
	}
	if kind != rdf.IRI {
		return fmt.Errorf("goenrich: predicate is not an IRI: %s", s.Predicate.Value)
	}
	if strings.HasPrefix(text, "http:") {
		if o.namespace == local {
			return fmt.Errorf("goenrich: adding predicate with global IRI to locally namespaced ontology: %s", s.Predicate.Value)
		}
		o.namespace = global
	} else {
		if o.namespace == global {
			return fmt.Errorf("goenrich: adding predicate with local IRI to globally namespaced ontology: %s", s.Predicate.Value)
		}
		o.namespace = local
	}

	_, _, kind, err = s.Subject.Parts()
	if err != nil {
		return fmt.Errorf("goenrich: error extracting subject: %w", err)
	}
	switch kind {
	case rdf.IRI, rdf.Blank:
	default:
		return fmt.Errorf("goenrich: subject is not an IRI or blank node: %s", s.Subject.Value)
	}

	_, _, kind, err = s.Object.Parts()
	if err != nil {
		return fmt.Errorf("goenrich: error extracting object: %w", err)
	}
	if kind == rdf.Invalid {
		return fmt.Errorf("goenrich: object is not a valid term: %s", s.Object.Value)
	}

	o.addTerm(&s.Subject)
	o.addTerm(&s.Predicate)
	o.addTerm(&s.Object)
	o.setLine(s)
	return nil
}

// addTerm gives t a UID consistent with the ontology. It panics if t
// already has a UID that conflicts with a held term of the same value.
func (o *Ontology) addTerm(t *rdf.Term) {
	if t.UID == 0 {
		id, ok := o.termIDs[t.Value]
		if ok {
			t.UID = id
			return
		}
		id = o.ids.NewID()
		o.ids.Use(id)
		t.UID = id
		o.termIDs[t.Value] = id
		return
	}

	id, ok := o.termIDs[t.Value]
	if !ok {
		o.termIDs[t.Value] = t.UID
	} else if id != t.UID {
		panic(fmt.Sprintf("goenrich: term ID collision: term:%s new ID:%d old ID:%d", t.Value, t.UID, id))
	}
}

// setLine adds l, a line from one node to another. If the nodes do not exist,
// they are added, and are set to the nodes of the line otherwise.
func (o *Ontology) setLine(l graph.Line) {
	var (
		from = l.From()
		fid  = from.ID()
		to   = l.To()
		tid  = to.ID()
		lid  = l.ID()
	)

	if _, ok := o.nodes[fid]; !ok {
		o.addNode(from)
	} else {
		o.nodes[fid] = from
	}
	if _, ok := o.nodes[tid]; !ok {
		o.addNode(to)
	} else {
		o.nodes[tid] = to
	}

	switch {
	case o.from[fid] == nil:
		o.from[fid] = map[int64]map[int64]graph.Line{tid: {lid: l}}
	case o.from[fid][tid] == nil:
		o.from[fid][tid] = map[int64]graph.Line{lid: l}
	default:
		o.from[fid][tid][lid] = l
	}

	o.ids.Use(lid)
}

// Node returns the node with the given ID if it exists in the graph,
// and nil otherwise.
func (o *Ontology) Node(id int64) graph.Node {
	return o.nodes[id]
}

// From returns all nodes that can be reached directly from the node
// with the given ID, ordered by node ID.
func (o *Ontology) From(id int64) graph.Nodes {
	lines := o.from[id]
	if len(lines) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, 0, len(lines))
	for vid := range lines {
		nodes = append(nodes, o.nodes[vid])
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return iterator.NewOrderedNodes(nodes)
}

// Edge returns the edge from u to v if such an edge exists and nil otherwise.
// The returned graph.Edge is a multi.Edge if an edge exists.
func (o *Ontology) Edge(uid, vid int64) graph.Edge {
	edge := o.from[uid][vid]
	if len(edge) == 0 {
		return nil
	}
	lines := make([]graph.Line, 0, len(edge))
	for _, l := range edge {
		lines = append(lines, l)
	}
	return multi.Edge{F: o.Node(uid), T: o.Node(vid), Lines: iterator.NewOrderedLines(lines)}
}

// TermFor returns the rdf.Term for the given text. The text must be
// an exact match for the rdf.Term's Value field.
func (o *Ontology) TermFor(text string) (term rdf.Term, ok bool) {
	id, ok := o.termIDs[text]
	if !ok {
		return
	}
	n, ok := o.nodes[id]
	if !ok {
		return
	}
	return n.(rdf.Term), true
}

// TermForID returns the rdf.Term for a GO identifier such as GO:0004553.
func (o *Ontology) TermForID(goID string) (term rdf.Term, ok bool) {
	v, ok := vocabularies[o.namespace]
	if !ok || !strings.HasPrefix(goID, "GO:") {
		return
	}
	return o.TermFor(v.goTerm + strings.TrimPrefix(goID, "GO:") + ">")
}

// IDOf returns the GO identifier of t in the form GO:0004553, and false
// if t is not a GO term.
func (o *Ontology) IDOf(t rdf.Term) (goID string, ok bool) {
	v, ok := vocabularies[o.namespace]
	if !ok || !strings.HasPrefix(t.Value, v.goTerm) {
		return "", false
	}
	return "GO:" + strings.TrimSuffix(strings.TrimPrefix(t.Value, v.goTerm), ">"), true
}

// NameOf returns the label of t, and the empty string if it has none.
// If t has more than one label the lexically first is returned.
func (o *Ontology) NameOf(t rdf.Term) string {
	v, ok := vocabularies[o.namespace]
	if !ok {
		return ""
	}
	var names []string
	for _, lines := range o.from[t.ID()] {
		for _, l := range lines {
			s, ok := l.(*rdf.Statement)
			if !ok || s.Predicate.Value != v.label {
				continue
			}
			text, _, kind, err := s.Object.Parts()
			if err == nil && kind == rdf.Literal {
				names = append(names, text)
			}
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// AncestorsOf returns all GO terms that t is transitively a subclass of,
// ordered by value. The returned slice does not include t.
func (o *Ontology) AncestorsOf(t rdf.Term) []rdf.Term {
	v, ok := vocabularies[o.namespace]
	if !ok || !strings.HasPrefix(t.Value, v.goTerm) {
		return nil
	}
	var anc []rdf.Term
	bf := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			return ConnectedByAny(e, func(s *rdf.Statement) bool {
				return strings.HasPrefix(s.Object.Value, v.goTerm) && s.Predicate.Value == v.subClassOf
			})
		},
	}
	bf.Walk(o, t, func(n graph.Node, _ int) bool {
		if n.ID() != t.ID() {
			anc = append(anc, n.(rdf.Term))
		}
		return false
	})
	sort.Slice(anc, func(i, j int) bool { return anc[i].Value < anc[j].Value })
	return anc
}

// Propagate returns annotations extended by the true-path rule: a
// protein annotated with a term is also annotated with every subclass
// ancestor of that term, named by its ontology label. The result holds
// one annotation per protein and GO identifier. Terms not held by o are
// passed through unchanged.
func Propagate(annotations []Annotation, o *Ontology) []Annotation {
	type key struct{ protein, goID string }
	seen := make(map[key]bool)
	ancestors := make(map[string][]Annotation)

	var out []Annotation
	emit := func(a Annotation) {
		k := key{a.ProteinID, a.GOID}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, a)
	}
	for _, a := range annotations {
		emit(a)
		anc, ok := ancestors[a.GOID]
		if !ok {
			if t, ok := o.TermForID(a.GOID); ok {
				for _, p := range o.AncestorsOf(t) {
					id, _ := o.IDOf(p)
					anc = append(anc, Annotation{GOID: id, GOName: o.NameOf(p)})
				}
			}
			ancestors[a.GOID] = anc
		}
		for _, p := range anc {
			p.ProteinID = a.ProteinID
			p.DomainID = a.DomainID
			emit(p)
		}
	}
	return out
}

// ConnectedByAny is a helper function for simplifying graph traversal
// conditions.
func ConnectedByAny(e graph.Edge, with func(*rdf.Statement) bool) bool {
	it, ok := e.(multi.Edge)
	if !ok {
		return false
	}
	for it.Next() {
		s, ok := it.Line().(*rdf.Statement)
		if !ok {
			continue
		}
		if with(s) {
			return true
		}
	}
	return false
}
