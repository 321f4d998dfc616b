package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// ErrNotAnnotatable marks a document fragment that is not an annotation
// source: not a mapping, or its first comment is not the namespace
// anchor. Callers walking a document tree check for it with errors.Is
// and skip the fragment; every other failure is a defect.
var ErrNotAnnotatable = errors.New("not an annotation source")

// ontologyMembers are the members an ISA JSON sub-object must all carry
// to be unpacked as an ontology annotation.
var ontologyMembers = []string{"annotationValue", "termAccession", "termSource"}

// Decoded is the flat key-value form of one annotatable fragment.
type Decoded struct {
	Namespace string
	Pairs     []omero.NamedValue
}

// Annotation builds the persistable map annotation.
func (d *Decoded) Annotation() *omero.MapAnnotation {
	return &omero.MapAnnotation{Namespace: d.Namespace, Pairs: d.Pairs}
}

// Decode flattens a dict-shaped fragment of an ISA JSON tree into the
// key-value pairs of one map annotation.
//
// The fragment must be a mapping whose first comment is the namespace
// anchor; anything else fails with [ErrNotAnnotatable]. Scalar fields are
// copied stringified. A sub-object carrying all three ontology members
// expands into <key>_term, <key>_term_accession and <key>_term_source,
// prefixed with its parent key. Lists and malformed sub-objects are
// skipped like any other non-scalar. Keys are emitted in sorted order so
// the produced annotation is deterministic.
func Decode(fragment any) (*Decoded, error) {
	m, ok := fragment.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: fragment is not a mapping", ErrNotAnnotatable)
	}
	ns, err := namespaceAnchor(m)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dec := &Decoded{Namespace: ns}
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			if sub, ok := ontologyValues(v); ok {
				dec.Pairs = append(dec.Pairs,
					omero.NamedValue{Name: k + "_" + suffixTerm, Value: sub["annotationValue"]},
					omero.NamedValue{Name: k + "_" + suffixTermAccession, Value: sub["termAccession"]},
					omero.NamedValue{Name: k + "_" + suffixTermSource, Value: sub["termSource"]},
				)
			}
		case []any:
			// collections never flatten into an annotation
		case nil:
			// explicit nulls are dropped, not stringified
		default:
			dec.Pairs = append(dec.Pairs, omero.NamedValue{Name: k, Value: stringify(v)})
		}
	}
	return dec, nil
}

// namespaceAnchor validates the round-trip convention: the first comment
// of an annotatable fragment names the annotation namespace.
func namespaceAnchor(m map[string]any) (string, error) {
	comments, ok := m["comments"].([]any)
	if !ok || len(comments) == 0 {
		return "", fmt.Errorf("%w: no comments", ErrNotAnnotatable)
	}
	first, ok := comments[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: malformed first comment", ErrNotAnnotatable)
	}
	name, _ := first["name"].(string)
	value, _ := first["value"].(string)
	if name != isa.NamespaceComment || value == "" {
		return "", fmt.Errorf("%w: first comment is not the namespace anchor", ErrNotAnnotatable)
	}
	return value, nil
}

// ontologyValues reports whether the sub-object carries all ontology
// members, returning their stringified values. Extra members are allowed
// and ignored.
func ontologyValues(v map[string]any) (map[string]string, bool) {
	sub := make(map[string]string, len(ontologyMembers))
	for _, member := range ontologyMembers {
		raw, ok := v[member]
		if !ok {
			return nil, false
		}
		if raw == nil {
			sub[member] = ""
			continue
		}
		sub[member] = stringify(raw)
	}
	return sub, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
