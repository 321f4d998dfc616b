package isa

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InvestigationFileTab is the file name of the ISA-Tab investigation file
// inside an ARC directory.
const InvestigationFileTab = "i_investigation.txt"

// DumpTab writes the ISA-Tab file set into dir: i_investigation.txt plus
// one s_*.txt per study and one a_*.txt per assay. Values are emitted
// tab-separated; fields are not quoted because the vocabulary contains no
// tabs.
func DumpTab(inv *Investigation, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := writeInvestigationTab(inv, filepath.Join(dir, InvestigationFileTab)); err != nil {
		return err
	}
	for i := range inv.Studies {
		st := &inv.Studies[i]
		if err := writeStudyTab(st, filepath.Join(dir, studyFileName(st))); err != nil {
			return err
		}
		for j := range st.Assays {
			as := &st.Assays[j]
			if err := writeAssayTab(as, filepath.Join(dir, assayFileName(as, j))); err != nil {
				return err
			}
		}
	}
	return nil
}

// studyFileName returns the study table file name, deriving one from the
// identifier when the study carries no explicit filename.
func studyFileName(st *Study) string {
	if st.Filename != "" {
		return st.Filename
	}
	id := st.Identifier
	if id == "" {
		id = "study"
	}
	return "s_" + id + ".txt"
}

// assayFileName mirrors studyFileName for assay tables. The identifier
// comment doubles as the file stem.
func assayFileName(as *Assay, index int) string {
	if as.Filename != "" {
		return as.Filename
	}
	if id, ok := FindComment(as.Comments, "identifier"); ok && id != "" {
		return "a_" + id + ".txt"
	}
	return fmt.Sprintf("a_assay-%d.txt", index)
}

type tabWriter struct {
	b strings.Builder
}

func (w *tabWriter) row(cells ...string) {
	w.b.WriteString(strings.Join(cells, "\t"))
	w.b.WriteByte('\n')
}

func (w *tabWriter) flush(path string) error {
	if err := os.WriteFile(path, []byte(w.b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeInvestigationTab(inv *Investigation, path string) error {
	w := &tabWriter{}

	w.row("ONTOLOGY SOURCE REFERENCE")
	w.row(column("Term Source Name", len(inv.OntologySourceReferences), func(i int) string { return inv.OntologySourceReferences[i].Name })...)
	w.row(column("Term Source File", len(inv.OntologySourceReferences), func(i int) string { return inv.OntologySourceReferences[i].File })...)
	w.row(column("Term Source Description", len(inv.OntologySourceReferences), func(i int) string { return inv.OntologySourceReferences[i].Description })...)

	w.row("INVESTIGATION")
	w.row("Investigation Identifier", inv.Identifier)
	w.row("Investigation Title", inv.Title)
	w.row("Investigation Description", inv.Description)
	w.row("Investigation Submission Date", inv.SubmissionDate)
	w.row("Investigation Public Release Date", inv.PublicReleaseDate)

	writePublications(w, "INVESTIGATION PUBLICATIONS", "Investigation", inv.Publications)
	writeContacts(w, "INVESTIGATION CONTACTS", "Investigation Person", inv.Contacts)

	for i := range inv.Studies {
		st := &inv.Studies[i]
		w.row("STUDY")
		w.row("Study Identifier", st.Identifier)
		w.row("Study Title", st.Title)
		w.row("Study Description", st.Description)
		w.row("Study Submission Date", st.SubmissionDate)
		w.row("Study Public Release Date", st.PublicReleaseDate)
		w.row("Study File Name", studyFileName(st))

		w.row("STUDY DESIGN DESCRIPTORS")
		w.row(column("Study Design Type", len(st.DesignDescriptors), func(i int) string { return st.DesignDescriptors[i].Term })...)
		w.row(column("Study Design Type Term Accession Number", len(st.DesignDescriptors), func(i int) string { return st.DesignDescriptors[i].TermAccession })...)
		w.row(column("Study Design Type Term Source REF", len(st.DesignDescriptors), func(i int) string { return st.DesignDescriptors[i].TermSource })...)

		writePublications(w, "STUDY PUBLICATIONS", "Study", st.Publications)

		w.row("STUDY FACTORS")
		w.row(column("Study Factor Name", len(st.Factors), func(i int) string { return st.Factors[i].Name })...)

		w.row("STUDY ASSAYS")
		w.row(column("Study Assay File Name", len(st.Assays), func(i int) string { return assayFileName(&st.Assays[i], i) })...)
		w.row(column("Study Assay Measurement Type", len(st.Assays), func(i int) string { return ontologyTerm(st.Assays[i].MeasurementType) })...)
		w.row(column("Study Assay Technology Type", len(st.Assays), func(i int) string { return ontologyTerm(st.Assays[i].TechnologyType) })...)

		w.row("STUDY PROTOCOLS")
		w.row(column("Study Protocol Name", len(st.Protocols), func(i int) string { return st.Protocols[i].Name })...)

		writeContacts(w, "STUDY CONTACTS", "Study Person", st.Contacts)
	}

	return w.flush(path)
}

func writePublications(w *tabWriter, section, prefix string, pubs []Publication) {
	w.row(section)
	w.row(column(prefix+" PubMed ID", len(pubs), func(i int) string { return pubs[i].PubMedID })...)
	w.row(column(prefix+" Publication DOI", len(pubs), func(i int) string { return pubs[i].DOI })...)
	w.row(column(prefix+" Publication Author List", len(pubs), func(i int) string { return pubs[i].AuthorList })...)
	w.row(column(prefix+" Publication Title", len(pubs), func(i int) string { return pubs[i].Title })...)
	w.row(column(prefix+" Publication Status", len(pubs), func(i int) string { return ontologyTerm(pubs[i].Status) })...)
}

func writeContacts(w *tabWriter, section, prefix string, people []Person) {
	w.row(section)
	w.row(column(prefix+" Last Name", len(people), func(i int) string { return people[i].LastName })...)
	w.row(column(prefix+" First Name", len(people), func(i int) string { return people[i].FirstName })...)
	w.row(column(prefix+" Email", len(people), func(i int) string { return people[i].Email })...)
	w.row(column(prefix+" Phone", len(people), func(i int) string { return people[i].Phone })...)
	w.row(column(prefix+" Fax", len(people), func(i int) string { return people[i].Fax })...)
	w.row(column(prefix+" Address", len(people), func(i int) string { return people[i].Address })...)
	w.row(column(prefix+" Affiliation", len(people), func(i int) string { return people[i].Affiliation })...)
	w.row(column(prefix+" Roles", len(people), func(i int) string { return rolesTerm(people[i].Roles) })...)
}

// column builds a label row with one cell per record.
func column(label string, n int, cell func(int) string) []string {
	cells := make([]string, n+1)
	cells[0] = label
	for i := 0; i < n; i++ {
		cells[i+1] = cell(i)
	}
	return cells
}

func ontologyTerm(oa *OntologyAnnotation) string {
	if oa == nil {
		return ""
	}
	return oa.Term
}

func rolesTerm(roles []OntologyAnnotation) string {
	terms := make([]string, len(roles))
	for i, r := range roles {
		terms[i] = r.Term
	}
	return strings.Join(terms, ";")
}

func writeStudyTab(st *Study, path string) error {
	w := &tabWriter{}
	w.row("Source Name", "Sample Name")
	for i := range st.Assays {
		for _, df := range st.Assays[i].DataFiles {
			name, _ := FindComment(df.Comments, "name")
			w.row(st.Identifier, name)
		}
	}
	return w.flush(path)
}

func writeAssayTab(as *Assay, path string) error {
	w := &tabWriter{}
	w.row("Sample Name", "Raw Image Data File")
	for _, df := range as.DataFiles {
		name, _ := FindComment(df.Comments, "name")
		w.row(name, df.Name)
	}
	return w.flush(path)
}
