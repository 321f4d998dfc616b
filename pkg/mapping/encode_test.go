package mapping

import (
	"testing"

	"github.com/cmohl2013/omero-isa/pkg/isa"
)

func publicationsRole() Role {
	return Role{
		Name:      "study_publications",
		Namespace: "ISA:STUDY:STUDY PUBLICATIONS",
		Fields:    []string{"doi", "pubmed_id", "author_list", "title"},
		Ontology:  []string{"status"},
	}
}

func TestEncodeSplitsOntologyKeys(t *testing.T) {
	annotations := []map[string]string{{
		"doi":                   "10.1000/182",
		"title":                 "A study",
		"status_term":           "published",
		"status_term_accession": "http://purl.org/spar/pso/published",
		"status_term_source":    "PSO",
	}}

	enc, err := Encode(annotations, publicationsRole(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc.Values) != 1 || len(enc.Ontology) != 1 {
		t.Fatalf("got %d value sets and %d ontology sets, want 1 and 1", len(enc.Values), len(enc.Ontology))
	}

	p := enc.Values[0]
	if p.Fields["doi"] != "10.1000/182" || p.Fields["title"] != "A study" {
		t.Errorf("plain fields = %v", p.Fields)
	}
	if _, ok := p.Fields["status_term"]; ok {
		t.Error("ontology-suffixed key leaked into plain fields")
	}

	status, ok := enc.Ontology[0]["status"]
	if !ok {
		t.Fatal("status ontology annotation missing")
	}
	want := isa.OntologyAnnotation{
		Term:          "published",
		TermAccession: "http://purl.org/spar/pso/published",
		TermSource:    "PSO",
	}
	if status != want {
		t.Errorf("status = %+v, want %+v", status, want)
	}

	if len(enc.Sources) != 1 || enc.Sources[0].Name != "PSO" {
		t.Errorf("sources = %v, want one PSO entry", enc.Sources)
	}
}

func TestEncodePrependsNamespaceComment(t *testing.T) {
	role := publicationsRole()
	enc, err := Encode([]map[string]string{{"doi": "10.1/x"}}, role, nil)
	if err != nil {
		t.Fatal(err)
	}
	comments := enc.Values[0].Comments
	if len(comments) == 0 {
		t.Fatal("no comments on encoded entity")
	}
	if comments[0].Name != isa.NamespaceComment || comments[0].Value != role.Namespace {
		t.Errorf("first comment = %+v, want namespace anchor for %s", comments[0], role.Namespace)
	}
}

func TestEncodeDefaultsFallback(t *testing.T) {
	role := Role{
		Name:      "investigation",
		Namespace: "ISA:INVESTIGATION:INVESTIGATION",
		Fields:    []string{"filename", "identifier", "title"},
		Defaults:  map[string]string{"filename": "i_investigation.txt"},
	}

	enc, err := Encode(nil, role, map[string]string{"identifier": "my-id"})
	if err != nil {
		t.Fatal(err)
	}
	if len(enc.Values) != 1 {
		t.Fatalf("got %d value sets, want defaults-derived 1", len(enc.Values))
	}
	fields := enc.Values[0].Fields
	if fields["filename"] != "i_investigation.txt" {
		t.Errorf("filename = %q, want static default", fields["filename"])
	}
	if fields["identifier"] != "my-id" {
		t.Errorf("identifier = %q, want dynamic default", fields["identifier"])
	}
	if _, ok := fields["title"]; ok {
		t.Error("title has no default and must be omitted, not set empty")
	}
}

func TestEncodeNoAnnotationsNoDefaults(t *testing.T) {
	role := Role{Name: "contacts", Namespace: "ns", Fields: []string{"last_name"}}
	enc, err := Encode(nil, role, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc.Values) != 0 {
		t.Errorf("got %d value sets, want none without annotations or defaults", len(enc.Values))
	}
}

func TestEncodeAnnotationValueBeatsDefault(t *testing.T) {
	role := Role{
		Name:      "investigation",
		Namespace: "ns",
		Fields:    []string{"identifier"},
		Defaults:  map[string]string{"identifier": "default-id"},
	}
	enc, err := Encode([]map[string]string{{"identifier": "stored-id"}}, role, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := enc.Values[0].Fields["identifier"]; got != "stored-id" {
		t.Errorf("identifier = %q, stored value must win over default", got)
	}
}

func TestEncodeMultipleAnnotations(t *testing.T) {
	annotations := []map[string]string{
		{"doi": "10.1/a", "status_term": "published", "status_term_accession": "acc", "status_term_source": "PSO"},
		{"doi": "10.1/b", "status_term": "draft", "status_term_accession": "acc2", "status_term_source": "PSO"},
	}
	enc, err := Encode(annotations, publicationsRole(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc.Values) != 2 {
		t.Fatalf("got %d value sets, want one per annotation", len(enc.Values))
	}
	if enc.Values[0].Fields["doi"] != "10.1/a" || enc.Values[1].Fields["doi"] != "10.1/b" {
		t.Error("annotation order not preserved")
	}
	if len(enc.Sources) != 1 {
		t.Errorf("sources = %v, duplicate term sources must collapse", enc.Sources)
	}
}

func TestEncodeUnregisteredKeysIgnored(t *testing.T) {
	enc, err := Encode([]map[string]string{{"doi": "10.1/x", "stray": "value"}}, publicationsRole(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := enc.Values[0].Fields["stray"]; ok {
		t.Error("unregistered key copied into fields")
	}
}
