// Package isa holds the in-memory ISA (Investigation/Study/Assay) object
// model and its serializers.
//
// JSON field names follow the snake_case vocabulary the annotation codec
// uses, so an exported document re-imports with the same annotation keys.
// The only fixed camelCase names are the three members of an ontology
// annotation (annotationValue/termAccession/termSource) and the dataFiles
// collection, which the import side reads by those exact names.
package isa

// Comment is a generic name/value pair attached to an ISA entity. By
// convention the first comment of every annotatable entity carries the
// database annotation namespace the entity derives from.
type Comment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NamespaceComment is the comment name anchoring an entity to a database
// annotation namespace.
const NamespaceComment = "omero_annotation_namespace"

// FindComment returns the value of the named comment. The last match wins
// so duplicated names resolve deterministically.
func FindComment(comments []Comment, name string) (string, bool) {
	value, found := "", false
	for _, c := range comments {
		if c.Name == name {
			value, found = c.Value, true
		}
	}
	return value, found
}

// OntologySource references a controlled-vocabulary registry.
type OntologySource struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Description string `json:"description"`
}

// OntologyAnnotation augments a field value with a term from a controlled
// vocabulary. TermSource names an entry of the investigation's ontology
// source references.
type OntologyAnnotation struct {
	Term          string `json:"annotationValue"`
	TermAccession string `json:"termAccession"`
	TermSource    string `json:"termSource"`
}

// Publication is a literature reference at investigation or study level.
type Publication struct {
	Comments   []Comment           `json:"comments,omitempty"`
	DOI        string              `json:"doi,omitempty"`
	PubMedID   string              `json:"pubmed_id,omitempty"`
	AuthorList string              `json:"author_list,omitempty"`
	Title      string              `json:"title,omitempty"`
	Status     *OntologyAnnotation `json:"status,omitempty"`
}

// Person is a contact record.
type Person struct {
	Comments    []Comment            `json:"comments,omitempty"`
	LastName    string               `json:"last_name,omitempty"`
	FirstName   string               `json:"first_name,omitempty"`
	Email       string               `json:"email,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Fax         string               `json:"fax,omitempty"`
	Address     string               `json:"address,omitempty"`
	Affiliation string               `json:"affiliation,omitempty"`
	Roles       []OntologyAnnotation `json:"roles,omitempty"`
}

// DataFile is one file referenced by an assay. Name is the path relative
// to the ARC root; only the "Raw Image Data File" type is imported.
type DataFile struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Comments []Comment `json:"comments,omitempty"`
}

// RawImageDataFile is the only DataFile type the importer forwards to the
// image builder.
const RawImageDataFile = "Raw Image Data File"

// Assay groups the data files of one dataset.
type Assay struct {
	Comments        []Comment           `json:"comments,omitempty"`
	Filename        string              `json:"filename"`
	MeasurementType *OntologyAnnotation `json:"measurement_type,omitempty"`
	TechnologyType  *OntologyAnnotation `json:"technology_type,omitempty"`
	DataFiles       []DataFile          `json:"dataFiles,omitempty"`
}

// Factor is an experimental factor declared on a study.
type Factor struct {
	Name string              `json:"name"`
	Type *OntologyAnnotation `json:"type,omitempty"`
}

// Protocol is an experimental protocol declared on a study.
type Protocol struct {
	Name string              `json:"name"`
	Type *OntologyAnnotation `json:"type,omitempty"`
}

// Study is the single study of an investigation.
type Study struct {
	Comments          []Comment            `json:"comments,omitempty"`
	Filename          string               `json:"filename"`
	Identifier        string               `json:"identifier"`
	Title             string               `json:"title,omitempty"`
	Description       string               `json:"description,omitempty"`
	SubmissionDate    string               `json:"submission_date,omitempty"`
	PublicReleaseDate string               `json:"public_release_date,omitempty"`
	DesignDescriptors []OntologyAnnotation `json:"design_descriptors,omitempty"`
	Publications      []Publication        `json:"publications,omitempty"`
	Factors           []Factor             `json:"factors,omitempty"`
	Protocols         []Protocol           `json:"protocols,omitempty"`
	Contacts          []Person             `json:"contacts,omitempty"`
	Assays            []Assay              `json:"assays"`
}

// Investigation is the root document. A valid investigation holds exactly
// one study; the import side rejects anything else.
type Investigation struct {
	Comments                 []Comment        `json:"comments,omitempty"`
	Filename                 string           `json:"filename"`
	Identifier               string           `json:"identifier"`
	Title                    string           `json:"title,omitempty"`
	Description              string           `json:"description,omitempty"`
	SubmissionDate           string           `json:"submission_date,omitempty"`
	PublicReleaseDate        string           `json:"public_release_date,omitempty"`
	OntologySourceReferences []OntologySource `json:"ontology_source_references,omitempty"`
	Publications             []Publication    `json:"publications,omitempty"`
	Contacts                 []Person         `json:"contacts,omitempty"`
	Studies                  []Study          `json:"studies"`
}
