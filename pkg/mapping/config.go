// Package mapping is the bidirectional codec between database map
// annotations and ISA entity parameters.
//
// The encode direction turns the annotations stored under one namespace
// into parameter sets for an ISA entity, unpacking ontology-suffixed keys
// (<field>_term, <field>_term_accession, <field>_term_source) into
// ontology annotation structures. The decode direction flattens an ISA
// JSON fragment back into the key-value pairs of one annotation.
//
// The namespace strings, registered field lists, static defaults and
// ontology field names are configuration data, loaded from an embedded
// TOML vocabulary that can be overridden per run.
package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed vocabulary.toml
var defaultVocabulary []byte

// Role configures how one annotation namespace maps onto one ISA entity
// role (e.g. study, study_publications).
type Role struct {
	// Name identifies the role inside its entity kind.
	Name string `toml:"name"`
	// Namespace selects the annotations feeding this role.
	Namespace string `toml:"namespace"`
	// Fields lists the registered keys, in output order.
	Fields []string `toml:"fields"`
	// Defaults holds static fallback values for registered keys.
	// Keys listed in Fields but absent here have no default.
	Defaults map[string]string `toml:"defaults"`
	// Ontology names the fields carrying ontology-suffixed key groups.
	Ontology []string `toml:"ontology"`
}

// Vocabulary is the full mapping table, grouped by source entity kind.
type Vocabulary struct {
	Project []Role `toml:"project"`
	Dataset []Role `toml:"dataset"`
}

// DefaultVocabulary parses the embedded vocabulary table.
func DefaultVocabulary() (*Vocabulary, error) {
	return parseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a vocabulary override from a TOML file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	v, err := parseVocabulary(raw)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func parseVocabulary(raw []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := toml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	for _, roles := range [][]Role{v.Project, v.Dataset} {
		for _, r := range roles {
			if r.Name == "" || r.Namespace == "" {
				return nil, fmt.Errorf("parse vocabulary: role %q missing name or namespace", r.Name)
			}
		}
	}
	return &v, nil
}

// ProjectRole looks up a project-side role by name.
func (v *Vocabulary) ProjectRole(name string) (Role, bool) {
	return findRole(v.Project, name)
}

// DatasetRole looks up a dataset-side role by name.
func (v *Vocabulary) DatasetRole(name string) (Role, bool) {
	return findRole(v.Dataset, name)
}

func findRole(roles []Role, name string) (Role, bool) {
	for _, r := range roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}
