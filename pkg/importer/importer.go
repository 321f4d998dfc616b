// Package importer writes an ISA investigation document into the
// database: the study becomes a project, each assay a dataset, each raw
// image data file an uploaded image. Namespace-anchored fragments of the
// document become map annotations on the created containers.
//
// Persist calls are serial and not transactional: a failure partway
// through leaves the entities created so far in the database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cmohl2013/omero-isa/pkg/mapping"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// fallbackProjectName is used when neither an override nor a study title
// is available.
const fallbackProjectName = "no_study_title"

// Options configures an import run.
type Options struct {
	// ProjectName overrides the study title as the project display name.
	ProjectName string
	// Logger receives per-stage progress. Defaults to log.Default().
	Logger *log.Logger
}

// InvestigationImporter imports one parsed i_investigation.json document.
type InvestigationImporter struct {
	data     map[string]any
	study    map[string]any
	assays   []any
	arcRoot  string
	gateway  omero.Gateway
	uploader Uploader
	opts     Options
}

// New validates the document structure and prepares an importer.
// investigationPath is the path of the i_investigation.json file; image
// paths inside the document resolve relative to its parent directory
// (the ARC root). A document without exactly one study is rejected.
func New(data map[string]any, arcRoot string, gw omero.Gateway, up Uploader, opts Options) (*InvestigationImporter, error) {
	studies, ok := data["studies"].([]any)
	if !ok {
		return nil, errors.New("investigation has no studies array")
	}
	if len(studies) != 1 {
		return nil, fmt.Errorf("investigation must contain exactly one study, found %d", len(studies))
	}
	study, ok := studies[0].(map[string]any)
	if !ok {
		return nil, errors.New("study is not a mapping")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	imp := &InvestigationImporter{
		data:     data,
		study:    study,
		arcRoot:  arcRoot,
		gateway:  gw,
		uploader: up,
		opts:     opts,
	}
	if assays, ok := study["assays"].([]any); ok {
		imp.assays = assays
	}
	return imp, nil
}

// Save creates and persists the project, attaches all annotations found
// in the document, then imports the assays as datasets. Annotations are
// written before any dataset so children always link to a persisted
// project.
func (imp *InvestigationImporter) Save(ctx context.Context) (*omero.Project, error) {
	name := imp.opts.ProjectName
	if name == "" {
		name, _ = stringField(imp.study, "title")
	}
	if name == "" {
		name = fallbackProjectName
	}
	description, _ := stringField(imp.study, "description")

	project := &omero.Project{Name: name, Description: description}
	if err := imp.gateway.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}
	imp.opts.Logger.Info("created project", "id", project.ID, "name", project.Name)

	if err := annotateFromDocument(ctx, imp.gateway, project, imp.data, map[string]bool{"studies": true}); err != nil {
		return nil, err
	}
	if err := annotateFromDocument(ctx, imp.gateway, project, imp.study, map[string]bool{"assays": true}); err != nil {
		return nil, err
	}

	for i, item := range imp.assays {
		assay, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("assay %d is not a mapping", i)
		}
		builder := &DatasetBuilder{
			Data:     assay,
			ARCRoot:  imp.arcRoot,
			Gateway:  imp.gateway,
			Uploader: imp.uploader,
			Logger:   imp.opts.Logger,
		}
		if _, err := builder.Save(ctx, project); err != nil {
			return nil, fmt.Errorf("assay %d: %w", i, err)
		}
	}
	return project, nil
}

// annotateFromDocument runs the recoverable annotation pass over doc: the
// document itself, then every top-level value (each element for lists).
// Fragments without the namespace anchor are skipped; everything that
// decodes is persisted and linked to target.
func annotateFromDocument(ctx context.Context, gw omero.Gateway, target omero.Object, doc map[string]any, skip map[string]bool) error {
	if err := tryAnnotate(ctx, gw, target, doc); err != nil {
		return err
	}
	for _, k := range sortedKeys(doc) {
		if skip[k] {
			continue
		}
		switch v := doc[k].(type) {
		case []any:
			for _, item := range v {
				if err := tryAnnotate(ctx, gw, target, item); err != nil {
					return err
				}
			}
		default:
			if err := tryAnnotate(ctx, gw, target, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// tryAnnotate decodes one fragment and persists the result. A fragment
// that is not an annotation source is skipped, not an error.
func tryAnnotate(ctx context.Context, gw omero.Gateway, target omero.Object, fragment any) error {
	dec, err := mapping.Decode(fragment)
	if err != nil {
		if errors.Is(err, mapping.ErrNotAnnotatable) {
			return nil
		}
		return err
	}
	ann := dec.Annotation()
	if err := gw.CreateAnnotation(ctx, ann); err != nil {
		return fmt.Errorf("persist annotation %s: %w", dec.Namespace, err)
	}
	if err := gw.Link(ctx, target, ann); err != nil {
		return fmt.Errorf("link annotation %s: %w", dec.Namespace, err)
	}
	return nil
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
