package packer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/mapping"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// Packer exports one project into an ARC directory.
type Packer struct {
	Gateway omero.Gateway
	Vocab   *mapping.Vocabulary
	// DestDir is the ARC root the export is written into.
	DestDir string
	// Logger receives per-stage progress. Defaults to log.Default().
	Logger *log.Logger
}

// Pack builds the investigation from obj, maps every dataset to an assay
// of the single study, and writes the ISA-JSON document and the ISA-Tab
// file set into DestDir. Only projects can be packed.
func (p *Packer) Pack(ctx context.Context, obj omero.Object) error {
	project, ok := obj.(*omero.Project)
	if !ok {
		return fmt.Errorf("pack requires a project, got %s", obj.ObjectKind())
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	projectMapper, err := NewProjectMapper(ctx, p.Gateway, project, p.Vocab)
	if err != nil {
		return err
	}
	inv, err := projectMapper.Investigation(ctx)
	if err != nil {
		return err
	}
	if len(inv.Studies) != 1 {
		return fmt.Errorf("investigation must contain exactly one study, built %d", len(inv.Studies))
	}
	study := &inv.Studies[0]

	datasets, err := p.Gateway.ListDatasets(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("list datasets of project %d: %w", project.ID, err)
	}
	for _, dataset := range datasets {
		mapper, err := NewDatasetMapper(ctx, p.Gateway, dataset, p.Vocab, p.DestDir)
		if err != nil {
			return err
		}
		assay, err := mapper.Assay(ctx)
		if err != nil {
			return fmt.Errorf("dataset %s: %w", dataset.Name, err)
		}
		study.Assays = append(study.Assays, *assay)
		logger.Info("mapped dataset", "name", dataset.Name, "assay", mapper.Identifier(), "files", len(assay.DataFiles))
	}

	if err := isa.DumpJSON(inv, p.DestDir); err != nil {
		return err
	}
	if err := isa.DumpTab(inv, p.DestDir); err != nil {
		return err
	}
	logger.Info("packed project", "id", project.ID, "assays", len(study.Assays), "dest", p.DestDir)
	return nil
}
