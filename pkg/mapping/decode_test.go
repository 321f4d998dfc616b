package mapping

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

func anchoredFragment(ns string, extra map[string]any) map[string]any {
	m := map[string]any{
		"comments": []any{
			map[string]any{"name": isa.NamespaceComment, "value": ns},
		},
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestDecodeFlattensScalars(t *testing.T) {
	dec, err := Decode(anchoredFragment("ISA:STUDY:STUDY", map[string]any{
		"title":      "My Study",
		"replicates": json.Number("3"),
		"blinded":    true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Namespace != "ISA:STUDY:STUDY" {
		t.Errorf("namespace = %q", dec.Namespace)
	}

	got := dec.Annotation().AsMap()
	want := map[string]string{"title": "My Study", "replicates": "3", "blinded": "true"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("pair %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestDecodeKeysSorted(t *testing.T) {
	dec, err := Decode(anchoredFragment("ns", map[string]any{
		"zebra": "z",
		"alpha": "a",
		"mid":   "m",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range dec.Pairs {
		names = append(names, p.Name)
	}
	want := []string{"alpha", "mid", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("pairs = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("pairs = %v, want sorted %v", names, want)
		}
	}
}

func TestDecodeExpandsOntologyObject(t *testing.T) {
	dec, err := Decode(anchoredFragment("ns", map[string]any{
		"status": map[string]any{
			"annotationValue": "published",
			"termAccession":   "http://purl.org/spar/pso/published",
			"termSource":      "PSO",
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := []omero.NamedValue{
		{Name: "status_term", Value: "published"},
		{Name: "status_term_accession", Value: "http://purl.org/spar/pso/published"},
		{Name: "status_term_source", Value: "PSO"},
	}
	if len(dec.Pairs) != len(want) {
		t.Fatalf("pairs = %v, want %v", dec.Pairs, want)
	}
	for i := range want {
		if dec.Pairs[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, dec.Pairs[i], want[i])
		}
	}
}

func TestDecodeSkipsMalformedSubObject(t *testing.T) {
	// Missing termSource: not an ontology annotation, silently dropped.
	dec, err := Decode(anchoredFragment("ns", map[string]any{
		"status": map[string]any{"annotationValue": "published", "termAccession": "acc"},
		"title":  "kept",
	}))
	if err != nil {
		t.Fatal(err)
	}
	m := dec.Annotation().AsMap()
	if _, ok := m["status_term"]; ok {
		t.Error("malformed sub-object expanded anyway")
	}
	if m["title"] != "kept" {
		t.Error("scalar sibling lost")
	}
}

func TestDecodeSkipsListsAndNulls(t *testing.T) {
	dec, err := Decode(anchoredFragment("ns", map[string]any{
		"assays": []any{map[string]any{"filename": "a.txt"}},
		"empty":  nil,
		"title":  "kept",
	}))
	if err != nil {
		t.Fatal(err)
	}
	m := dec.Annotation().AsMap()
	if len(m) != 1 || m["title"] != "kept" {
		t.Errorf("pairs = %v, want only the scalar", m)
	}
}

func TestDecodeNullOntologyMembers(t *testing.T) {
	dec, err := Decode(anchoredFragment("ns", map[string]any{
		"status": map[string]any{
			"annotationValue": "published",
			"termAccession":   nil,
			"termSource":      nil,
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	m := dec.Annotation().AsMap()
	if m["status_term"] != "published" || m["status_term_accession"] != "" || m["status_term_source"] != "" {
		t.Errorf("pairs = %v, null members must stringify empty", m)
	}
}

func TestDecodeNotAnnotatable(t *testing.T) {
	cases := []struct {
		name     string
		fragment any
	}{
		{"not a mapping", "just a string"},
		{"nil fragment", nil},
		{"no comments", map[string]any{"title": "x"}},
		{"empty comments", map[string]any{"comments": []any{}}},
		{"wrong first comment", map[string]any{
			"comments": []any{map[string]any{"name": "identifier", "value": "x"}},
		}},
		{"anchor without value", map[string]any{
			"comments": []any{map[string]any{"name": isa.NamespaceComment, "value": ""}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.fragment); !errors.Is(err, ErrNotAnnotatable) {
				t.Errorf("Decode() err = %v, want ErrNotAnnotatable", err)
			}
		})
	}
}

// Decoding an exported fragment and re-encoding its pairs must rebuild
// the same ontology annotation.
func TestDecodeEncodeRoundTrip(t *testing.T) {
	role := publicationsRole()
	fragment := anchoredFragment(role.Namespace, map[string]any{
		"doi":   "10.1000/182",
		"title": "A study",
		"status": map[string]any{
			"annotationValue": "published",
			"termAccession":   "acc",
			"termSource":      "PSO",
		},
	})

	dec, err := Decode(fragment)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := Encode([]map[string]string{dec.Annotation().AsMap()}, role, nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := enc.Values[0].Fields["doi"]; got != "10.1000/182" {
		t.Errorf("doi = %q after round trip", got)
	}
	status := enc.Ontology[0]["status"]
	want := isa.OntologyAnnotation{Term: "published", TermAccession: "acc", TermSource: "PSO"}
	if status != want {
		t.Errorf("status = %+v after round trip, want %+v", status, want)
	}
}
