package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// DatasetBuilder imports one assay fragment as a dataset.
type DatasetBuilder struct {
	Data     map[string]any
	ARCRoot  string
	Gateway  omero.Gateway
	Uploader Uploader
	Logger   *log.Logger
}

// Save creates the dataset, attaches the assay's annotations, imports
// its raw image data files and links the dataset below parent. The assay
// must carry an "identifier" comment; it becomes the dataset name.
func (b *DatasetBuilder) Save(ctx context.Context, parent *omero.Project) (*omero.Dataset, error) {
	name, err := identifierComment(b.Data)
	if err != nil {
		return nil, err
	}

	dataset := &omero.Dataset{Name: name}
	if err := b.Gateway.CreateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("persist dataset %s: %w", name, err)
	}
	b.Logger.Info("created dataset", "id", dataset.ID, "name", dataset.Name)

	if err := annotateFromDocument(ctx, b.Gateway, dataset, b.Data, nil); err != nil {
		return nil, err
	}
	if err := b.addImages(ctx, dataset); err != nil {
		return nil, err
	}

	if parent != nil {
		if err := b.Gateway.Link(ctx, parent, dataset); err != nil {
			return nil, fmt.Errorf("link dataset %s: %w", name, err)
		}
	}
	return dataset, nil
}

// addImages walks the assay's dataFiles and forwards only raw image data
// files to the image builder. Other file types are skipped.
func (b *DatasetBuilder) addImages(ctx context.Context, dataset *omero.Dataset) error {
	files, ok := b.Data["dataFiles"].([]any)
	if !ok {
		return nil
	}
	for i, item := range files {
		file, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := stringField(file, "type"); t != isa.RawImageDataFile {
			continue
		}
		builder := &ImageBuilder{
			Data:     file,
			ARCRoot:  b.ARCRoot,
			Gateway:  b.Gateway,
			Uploader: b.Uploader,
			Logger:   b.Logger,
		}
		if _, err := builder.Save(ctx, dataset); err != nil {
			return fmt.Errorf("data file %d: %w", i, err)
		}
	}
	return nil
}

// identifierComment resolves the dataset name from the assay's comments.
// A missing comments list or identifier entry is a structural violation.
func identifierComment(data map[string]any) (string, error) {
	comments, ok := data["comments"].([]any)
	if !ok {
		return "", errors.New("assay has no comments, cannot derive a dataset name")
	}
	for _, item := range comments {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := stringField(c, "name"); name == "identifier" {
			value, _ := stringField(c, "value")
			return value, nil
		}
	}
	return "", errors.New("assay comments carry no identifier entry")
}
