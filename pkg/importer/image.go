package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/roi"
)

// ImageBuilder imports one raw image data file fragment.
type ImageBuilder struct {
	Data     map[string]any
	ARCRoot  string
	Gateway  omero.Gateway
	Uploader Uploader
	Logger   *log.Logger
}

// Save resolves the image file below the ARC root, delegates the binary
// upload, and imports the ROI sidecar when the data file references one.
// A failed upload is logged and returns (nil, nil): the enclosing import
// continues, ROI import is skipped. A missing image or ROI file is fatal
// for this entity.
func (b *ImageBuilder) Save(ctx context.Context, parent *omero.Dataset) (*omero.Image, error) {
	name, description, roidataName := b.commentFields()

	relPath, _ := stringField(b.Data, "name")
	if relPath == "" {
		return nil, fmt.Errorf("data file has no path in its name field")
	}
	absPath := filepath.Join(b.ARCRoot, filepath.FromSlash(relPath))
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("image file not found: %s", absPath)
	}

	b.Logger.Info("importing image", "file", relPath, "name", name)
	img, err := b.Uploader.Upload(ctx, UploadRequest{
		FilePath:    absPath,
		DatasetID:   parent.ID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		b.Logger.Error("image upload failed", "file", relPath, "err", err)
		return nil, nil
	}

	if roidataName != "" {
		roiPath := filepath.Join(filepath.Dir(absPath), roidataName)
		if _, err := os.Stat(roiPath); err != nil {
			return nil, fmt.Errorf("roi file not found: %s", roiPath)
		}
		if err := roi.Import(ctx, b.Gateway, roiPath, img); err != nil {
			return nil, err
		}
		b.Logger.Info("imported rois", "file", roidataName, "image", img.ID)
	}
	return img, nil
}

// commentFields scans the data file comments for the display name,
// description and optional ROI sidecar name. The last match per key wins.
func (b *ImageBuilder) commentFields() (name, description, roidataName string) {
	comments, ok := b.Data["comments"].([]any)
	if !ok {
		return "", "", ""
	}
	for _, item := range comments {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := stringField(c, "name")
		value, _ := stringField(c, "value")
		switch key {
		case "name":
			name = value
		case "description":
			description = value
		case "roidata_filename":
			roidataName = value
		}
	}
	return name, description, roidataName
}
