package packer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/mapping"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// ProjectMapper turns one project into an ISA investigation holding a
// single study. Annotations are read once into a cache at construction.
type ProjectMapper struct {
	project *omero.Project
	vocab   *mapping.Vocabulary
	cache   *annotationCache
}

// NewProjectMapper builds the mapper and its annotation cache.
func NewProjectMapper(ctx context.Context, gw omero.Gateway, project *omero.Project, vocab *mapping.Vocabulary) (*ProjectMapper, error) {
	cache, err := newAnnotationCache(ctx, gw, project)
	if err != nil {
		return nil, err
	}
	return &ProjectMapper{project: project, vocab: vocab, cache: cache}, nil
}

// Investigation assembles the investigation record: attributes from the
// investigation namespace (or defaults), contacts with their role terms,
// publications at investigation and study level, one ontology source
// reference record plus every source referenced by an ontology term, and
// the single nested study.
func (m *ProjectMapper) Investigation(ctx context.Context) (*isa.Investigation, error) {
	var sources []isa.OntologySource

	invEnc, err := m.encodeRole("investigation", nil)
	if err != nil {
		return nil, err
	}
	inv := &isa.Investigation{}
	if len(invEnc.Values) > 0 {
		p := invEnc.Values[0]
		inv.Filename = p.Fields["filename"]
		inv.Identifier = p.Fields["identifier"]
		inv.Title = p.Fields["title"]
		inv.Description = p.Fields["description"]
		inv.SubmissionDate = p.Fields["submission_date"]
		inv.PublicReleaseDate = p.Fields["public_release_date"]
		inv.Comments = p.Comments
	}
	sources = mergeSources(sources, invEnc.Sources)

	contacts, contactSources, err := m.contacts()
	if err != nil {
		return nil, err
	}
	inv.Contacts = contacts
	sources = mergeSources(sources, contactSources)

	srcEnc, err := m.encodeRole("investigation_ontology_source_reference", nil)
	if err != nil {
		return nil, err
	}
	for _, p := range srcEnc.Values {
		inv.OntologySourceReferences = append(inv.OntologySourceReferences, isa.OntologySource{
			Name:        p.Fields["name"],
			File:        p.Fields["file"],
			Description: p.Fields["description"],
		})
	}

	pubs, pubSources, err := m.publications("investigation_publications")
	if err != nil {
		return nil, err
	}
	inv.Publications = pubs
	sources = mergeSources(sources, pubSources)

	study, studySources, err := m.study()
	if err != nil {
		return nil, err
	}
	inv.Studies = append(inv.Studies, *study)
	sources = mergeSources(sources, studySources)

	// Term sources referenced anywhere become source reference records,
	// deduplicated against the explicit ones.
	for _, s := range sources {
		inv.OntologySourceReferences = appendSourceUnique(inv.OntologySourceReferences, s)
	}
	return inv, nil
}

func (m *ProjectMapper) study() (*isa.Study, []isa.OntologySource, error) {
	enc, err := m.encodeRole("study", map[string]string{
		"identifier":  DeriveIdentifier(m.project.Name),
		"title":       m.project.Name,
		"description": m.project.Description,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(enc.Values) == 0 {
		return nil, nil, fmt.Errorf("project %d produced no study attributes", m.project.ID)
	}

	p := enc.Values[0]
	study := &isa.Study{
		Filename:          p.Fields["filename"],
		Identifier:        p.Fields["identifier"],
		Title:             p.Fields["title"],
		Description:       p.Fields["description"],
		SubmissionDate:    p.Fields["submission_date"],
		PublicReleaseDate: p.Fields["public_release_date"],
		Comments:          p.Comments,
		Assays:            []isa.Assay{},
	}
	if dd, ok := enc.Ontology[0]["design_descriptors"]; ok {
		study.DesignDescriptors = []isa.OntologyAnnotation{dd}
	}

	pubs, pubSources, err := m.publications("study_publications")
	if err != nil {
		return nil, nil, err
	}
	study.Publications = pubs
	return study, mergeSources(enc.Sources, pubSources), nil
}

func (m *ProjectMapper) contacts() ([]isa.Person, []isa.OntologySource, error) {
	owner := m.project.Owner
	enc, err := m.encodeRole("investigation_contacts", map[string]string{
		"last_name":  owner.LastName,
		"first_name": owner.FirstName,
		"email":      owner.Email,
	})
	if err != nil {
		return nil, nil, err
	}

	var contacts []isa.Person
	for i, p := range enc.Values {
		person := isa.Person{
			LastName:    p.Fields["last_name"],
			FirstName:   p.Fields["first_name"],
			Email:       p.Fields["email"],
			Phone:       p.Fields["phone"],
			Fax:         p.Fields["fax"],
			Address:     p.Fields["address"],
			Affiliation: p.Fields["affiliation"],
			Comments:    p.Comments,
		}
		if role, ok := enc.Ontology[i]["roles"]; ok {
			person.Roles = []isa.OntologyAnnotation{role}
		}
		contacts = append(contacts, person)
	}
	return contacts, enc.Sources, nil
}

func (m *ProjectMapper) publications(role string) ([]isa.Publication, []isa.OntologySource, error) {
	enc, err := m.encodeRole(role, nil)
	if err != nil {
		return nil, nil, err
	}
	var pubs []isa.Publication
	for i, p := range enc.Values {
		pub := isa.Publication{
			DOI:        p.Fields["doi"],
			PubMedID:   p.Fields["pubmed_id"],
			AuthorList: p.Fields["author_list"],
			Title:      p.Fields["title"],
			Comments:   p.Comments,
		}
		if status, ok := enc.Ontology[i]["status"]; ok {
			s := status
			pub.Status = &s
		}
		pubs = append(pubs, pub)
	}
	return pubs, enc.Sources, nil
}

func (m *ProjectMapper) encodeRole(name string, dynamic map[string]string) (*mapping.Encoded, error) {
	role, ok := m.vocab.ProjectRole(name)
	if !ok {
		return nil, fmt.Errorf("vocabulary has no project role %q", name)
	}
	enc, err := mapping.Encode(m.cache.get(role.Namespace), role, dynamic)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return enc, nil
}

// DeriveIdentifier derives a file-system safe identifier from a display
// name: lowercase, spaces become hyphens. Applying it to an already
// derived identifier is a no-op, which keeps exported paths stable over
// repeated round trips.
func DeriveIdentifier(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func mergeSources(dst, src []isa.OntologySource) []isa.OntologySource {
	for _, s := range src {
		dst = appendSourceUnique(dst, s)
	}
	return dst
}

func appendSourceUnique(dst []isa.OntologySource, s isa.OntologySource) []isa.OntologySource {
	if s.Name == "" {
		return dst
	}
	for _, existing := range dst {
		if existing.Name == s.Name {
			return dst
		}
	}
	return append(dst, s)
}
