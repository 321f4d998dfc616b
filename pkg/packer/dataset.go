package packer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/mapping"
	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/roi"
)

// DatasetMapper turns one dataset into an ISA assay, copying image files
// into the ARC layout and exporting ROI sidecars on the way.
type DatasetMapper struct {
	dataset    *omero.Dataset
	gateway    omero.Gateway
	vocab      *mapping.Vocabulary
	cache      *annotationCache
	destDir    string
	identifier string
}

// NewDatasetMapper builds the mapper and its annotation cache. destDir is
// the ARC root the assay folder is created under.
func NewDatasetMapper(ctx context.Context, gw omero.Gateway, dataset *omero.Dataset, vocab *mapping.Vocabulary, destDir string) (*DatasetMapper, error) {
	cache, err := newAnnotationCache(ctx, gw, dataset)
	if err != nil {
		return nil, err
	}
	return &DatasetMapper{
		dataset:    dataset,
		gateway:    gw,
		vocab:      vocab,
		cache:      cache,
		destDir:    destDir,
		identifier: DeriveIdentifier(dataset.Name),
	}, nil
}

// Identifier is the derived assay identifier, used for the assay folder
// and the identifier comment.
func (m *DatasetMapper) Identifier() string { return m.identifier }

// Assay assembles the assay record and materializes its files: every
// image of the dataset is copied to assays/<id>/dataset/ and referenced
// by a DataFile carrying the derived image metadata comments.
func (m *DatasetMapper) Assay(ctx context.Context) (*isa.Assay, error) {
	role, ok := m.vocab.DatasetRole("assay")
	if !ok {
		return nil, fmt.Errorf("vocabulary has no dataset role %q", "assay")
	}
	enc, err := mapping.Encode(m.cache.get(role.Namespace), role, nil)
	if err != nil {
		return nil, fmt.Errorf("encode assay: %w", err)
	}
	if len(enc.Values) == 0 {
		return nil, fmt.Errorf("dataset %d produced no assay attributes", m.dataset.ID)
	}

	p := enc.Values[0]
	assay := &isa.Assay{
		Filename: p.Fields["filename"],
		Comments: append(p.Comments, isa.Comment{Name: "identifier", Value: m.identifier}),
	}
	for _, ontology := range enc.Ontology {
		if mt, ok := ontology["measurement_type"]; ok {
			v := mt
			assay.MeasurementType = &v
		}
		if tt, ok := ontology["technology_type"]; ok {
			v := tt
			assay.TechnologyType = &v
		}
	}

	relFolder := path.Join("assays", m.identifier, "dataset")
	absFolder := filepath.Join(m.destDir, filepath.FromSlash(relFolder))
	if err := os.MkdirAll(absFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", absFolder, err)
	}

	images, err := m.gateway.ListImages(ctx, m.dataset.ID)
	if err != nil {
		return nil, fmt.Errorf("list images of dataset %d: %w", m.dataset.ID, err)
	}
	for _, img := range images {
		df, err := m.dataFile(ctx, img, relFolder, absFolder)
		if err != nil {
			return nil, err
		}
		assay.DataFiles = append(assay.DataFiles, *df)
	}
	return assay, nil
}

// dataFile copies one image into the assay folder, exports its ROI
// sidecar if it has ROIs, and builds the DataFile record.
func (m *DatasetMapper) dataFile(ctx context.Context, img *omero.Image, relFolder, absFolder string) (*isa.DataFile, error) {
	if img.Path == "" {
		return nil, fmt.Errorf("image %d has no backing file", img.ID)
	}
	base := filepath.Base(img.Path)
	target := filepath.Join(absFolder, base)
	if err := copyFile(img.Path, target); err != nil {
		return nil, fmt.Errorf("copy image %d: %w", img.ID, err)
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	roiPath := filepath.Join(absFolder, stem+roi.FileSuffix)
	written, err := roi.ExportFile(ctx, m.gateway, img, roiPath)
	if err != nil {
		return nil, err
	}

	comments := imageMetadata(img)
	if written != "" {
		comments = append(comments, isa.Comment{Name: "roidata_filename", Value: filepath.Base(written)})
	}

	return &isa.DataFile{
		Name:     path.Join(relFolder, base),
		Type:     isa.RawImageDataFile,
		Comments: comments,
	}, nil
}

// imageMetadata builds the derived-metadata comment set of one image.
// The pixel size unit comment is absent when the image carries no
// calibration.
func imageMetadata(img *omero.Image) []isa.Comment {
	comments := []isa.Comment{
		{Name: "omero_image_id", Value: strconv.FormatInt(img.ID, 10)},
		{Name: "name", Value: img.Name},
		{Name: "description", Value: img.Description},
		{Name: "acquisition_time", Value: img.AcquisitionTime.Format(time.RFC3339)},
		{Name: "omero_image_owner", Value: img.Owner},
		{Name: "image_size_x", Value: strconv.Itoa(img.SizeX)},
		{Name: "image_size_y", Value: strconv.Itoa(img.SizeY)},
		{Name: "image_size_z", Value: strconv.Itoa(img.SizeZ)},
		{Name: "pixel_size_x", Value: formatFloat(img.PixelSizeX)},
		{Name: "pixel_size_y", Value: formatFloat(img.PixelSizeY)},
		{Name: "pixel_size_z", Value: formatFloat(img.PixelSizeZ)},
	}
	if img.PixelSizeUnit != "" {
		comments = append(comments, isa.Comment{Name: "pixel_size_unit", Value: img.PixelSizeUnit})
	}
	return comments
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
