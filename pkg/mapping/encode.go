package mapping

import (
	"fmt"
	"strings"

	"github.com/cmohl2013/omero-isa/pkg/isa"
)

// Ontology key suffixes. <field>_term carries the term value,
// <field>_term_accession its accession id, <field>_term_source the name
// of the source registry.
const (
	suffixTerm          = "term"
	suffixTermAccession = "term_accession"
	suffixTermSource    = "term_source"
)

// Params is one ISA parameter set produced by Encode. Comments starts
// with the namespace-preserving comment so the exported entity can be
// re-imported against the same namespace.
type Params struct {
	Fields   map[string]string
	Comments []isa.Comment
}

// Encoded is the result of encoding all annotations of one namespace.
// Values and Ontology correspond positionally: Values[i] carries the
// plain fields of the i-th annotation object, Ontology[i] its ontology
// annotations (possibly empty). Sources collects the ontology source
// registries referenced by term_source keys.
type Encoded struct {
	Values   []Params
	Ontology []map[string]isa.OntologyAnnotation
	Sources  []isa.OntologySource
}

// Encode turns the raw annotation maps stored under role's namespace into
// ISA parameter sets. Each annotation object yields one entry, so
// repeatable entities (publications, contacts) survive with their
// multiplicity. With zero annotation objects the role's defaults (merged
// with dynamic) are used instead; keys without a default are omitted, not
// set empty.
func Encode(annotations []map[string]string, role Role, dynamic map[string]string) (*Encoded, error) {
	defaults := mergeDefaults(role.Defaults, dynamic)
	enc := &Encoded{}

	if len(annotations) == 0 {
		fields := map[string]string{}
		for _, key := range role.Fields {
			if v, ok := defaults[key]; ok {
				fields[key] = v
			}
		}
		if len(fields) > 0 {
			enc.Values = append(enc.Values, Params{Fields: fields})
			enc.Ontology = append(enc.Ontology, map[string]isa.OntologyAnnotation{})
		}
	}

	for _, data := range annotations {
		remaining, ontology := splitOntology(data, role.Ontology, enc)

		fields := map[string]string{}
		for _, key := range role.Fields {
			if v, ok := remaining[key]; ok {
				fields[key] = v
			} else if v, ok := defaults[key]; ok {
				fields[key] = v
			}
		}
		if len(fields) == 0 {
			continue
		}
		enc.Values = append(enc.Values, Params{Fields: fields})
		enc.Ontology = append(enc.Ontology, ontology)
	}

	// Every plain-value entry pairs with exactly one ontology entry.
	if len(enc.Values) != len(enc.Ontology) {
		return nil, fmt.Errorf("namespace %s: %d value sets but %d ontology sets", role.Namespace, len(enc.Values), len(enc.Ontology))
	}

	for i := range enc.Values {
		enc.Values[i].Comments = append(
			[]isa.Comment{{Name: isa.NamespaceComment, Value: role.Namespace}},
			enc.Values[i].Comments...,
		)
	}
	return enc, nil
}

// splitOntology separates the ontology-suffixed keys of one annotation
// from its plain keys. Recognized term sources are registered on enc.
func splitOntology(data map[string]string, ontologyFields []string, enc *Encoded) (map[string]string, map[string]isa.OntologyAnnotation) {
	remaining := make(map[string]string, len(data))
	for k, v := range data {
		remaining[k] = v
	}

	ontology := map[string]isa.OntologyAnnotation{}
	for _, field := range ontologyFields {
		prefix := field + "_"
		sub := map[string]string{}
		for k, v := range remaining {
			if strings.HasPrefix(k, prefix) {
				sub[strings.TrimPrefix(k, prefix)] = v
				delete(remaining, k)
			}
		}
		if len(sub) == 0 {
			continue
		}
		oa := isa.OntologyAnnotation{
			Term:          sub[suffixTerm],
			TermAccession: sub[suffixTermAccession],
			TermSource:    sub[suffixTermSource],
		}
		if oa.TermSource != "" {
			enc.Sources = appendSource(enc.Sources, isa.OntologySource{Name: oa.TermSource})
		}
		ontology[field] = oa
	}
	return remaining, ontology
}

func appendSource(sources []isa.OntologySource, s isa.OntologySource) []isa.OntologySource {
	for _, existing := range sources {
		if existing.Name == s.Name {
			return sources
		}
	}
	return append(sources, s)
}

func mergeDefaults(static, dynamic map[string]string) map[string]string {
	merged := make(map[string]string, len(static)+len(dynamic))
	for k, v := range static {
		merged[k] = v
	}
	for k, v := range dynamic {
		merged[k] = v
	}
	return merged
}
