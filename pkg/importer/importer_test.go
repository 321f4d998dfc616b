package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmohl2013/omero-isa/pkg/isa"
	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/omero/omerotest"
)

// failingUploader rejects every upload.
type failingUploader struct{}

func (failingUploader) Upload(context.Context, UploadRequest) (*omero.Image, error) {
	return nil, errors.New("server unreachable")
}

func anchor(ns string) map[string]any {
	return map[string]any{"name": isa.NamespaceComment, "value": ns}
}

// sampleDocument builds the parsed form of a minimal investigation with
// one study, one assay and two data files (one raw, one derived).
func sampleDocument() map[string]any {
	rawFile := map[string]any{
		"name": "assays/plate-1/dataset/img.tif",
		"type": isa.RawImageDataFile,
		"comments": []any{
			map[string]any{"name": "name", "value": "img"},
			map[string]any{"name": "description", "value": "a cell"},
			map[string]any{"name": "roidata_filename", "value": "img_roidata.json"},
		},
	}
	derivedFile := map[string]any{
		"name": "assays/plate-1/dataset/counts.csv",
		"type": "Derived Data File",
	}
	assay := map[string]any{
		"comments": []any{
			anchor("ISA:ASSAY:ASSAY"),
			map[string]any{"name": "identifier", "value": "plate-1"},
		},
		"filename":  "a_plate-1.txt",
		"dataFiles": []any{rawFile, derivedFile},
	}
	study := map[string]any{
		"comments":    []any{anchor("ISA:STUDY:STUDY")},
		"title":       "Imaging Screen",
		"description": "A screen",
		"publications": []any{
			map[string]any{
				"comments": []any{anchor("ISA:STUDY:STUDY PUBLICATIONS")},
				"doi":      "10.1000/182",
			},
		},
		"assays": []any{assay},
	}
	return map[string]any{
		"comments": []any{anchor("ISA:INVESTIGATION:INVESTIGATION")},
		"title":    "Inv Title",
		"publications": []any{
			map[string]any{
				"comments": []any{anchor("ISA:INVESTIGATION:INVESTIGATION PUBLICATIONS")},
				"doi":      "10.1000/200",
			},
		},
		"studies": []any{study},
	}
}

// sampleARC materializes the files sampleDocument references.
func sampleARC(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "assays", "plate-1", "dataset")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "img.tif"), []byte("pixels"), 0o644); err != nil {
		t.Fatal(err)
	}
	rois := `[{"roi_id": 1, "shapes": [{"type": "PointI", "z": 0, "t": 0, "c": 0, "x": 1, "y": 2}]}]`
	if err := os.WriteFile(filepath.Join(dir, "img_roidata.json"), []byte(rois), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "counts.csv"), []byte("n\n3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestImportEndToEnd(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()
	arc := sampleARC(t)

	imp, err := New(sampleDocument(), arc, gw, &GatewayUploader{Gateway: gw}, Options{ProjectName: "My Project"})
	if err != nil {
		t.Fatal(err)
	}
	project, err := imp.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if project.Name != "My Project" {
		t.Errorf("project name = %q, override must win", project.Name)
	}
	if project.Description != "A screen" {
		t.Errorf("project description = %q", project.Description)
	}

	// Investigation, investigation publication and study fragments all
	// land on the project.
	anns, err := gw.ListAnnotations(ctx, project)
	if err != nil {
		t.Fatal(err)
	}
	namespaces := map[string]int{}
	for _, a := range anns {
		namespaces[a.Namespace]++
	}
	for _, ns := range []string{
		"ISA:INVESTIGATION:INVESTIGATION",
		"ISA:INVESTIGATION:INVESTIGATION PUBLICATIONS",
		"ISA:STUDY:STUDY",
		"ISA:STUDY:STUDY PUBLICATIONS",
	} {
		if namespaces[ns] != 1 {
			t.Errorf("project has %d annotations for %s, want 1", namespaces[ns], ns)
		}
	}

	datasets, err := gw.ListDatasets(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(datasets) != 1 {
		t.Fatalf("datasets = %+v", datasets)
	}
	dataset := datasets[0]
	if dataset.Name != "plate-1" {
		t.Errorf("dataset name = %q, want the identifier comment", dataset.Name)
	}

	dsAnns, err := gw.ListAnnotations(ctx, dataset)
	if err != nil {
		t.Fatal(err)
	}
	if len(dsAnns) != 1 || dsAnns[0].Namespace != "ISA:ASSAY:ASSAY" {
		t.Errorf("dataset annotations = %+v", dsAnns)
	}

	// Only the raw image data file becomes an image.
	images, err := gw.ListImages(ctx, dataset.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 {
		t.Fatalf("images = %+v", images)
	}
	img := images[0]
	if img.Name != "img" || img.Description != "a cell" {
		t.Errorf("image = %+v", img)
	}
	if img.Path != filepath.Join(arc, "assays", "plate-1", "dataset", "img.tif") {
		t.Errorf("image path = %q", img.Path)
	}

	rois, err := gw.ListROIs(ctx, img.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rois) != 1 || len(rois[0].Shapes) != 1 {
		t.Fatalf("rois = %+v", rois)
	}
}

func TestImportProjectNameFallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("study title", func(t *testing.T) {
		gw := omerotest.New()
		imp, err := New(sampleDocument(), sampleARC(t), gw, &GatewayUploader{Gateway: gw}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		project, err := imp.Save(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if project.Name != "Imaging Screen" {
			t.Errorf("project name = %q, want the study title", project.Name)
		}
	})

	t.Run("no title", func(t *testing.T) {
		gw := omerotest.New()
		doc := sampleDocument()
		study := doc["studies"].([]any)[0].(map[string]any)
		delete(study, "title")
		imp, err := New(doc, sampleARC(t), gw, &GatewayUploader{Gateway: gw}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		project, err := imp.Save(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if project.Name != "no_study_title" {
			t.Errorf("project name = %q", project.Name)
		}
	})
}

func TestImportRejectsStudyCount(t *testing.T) {
	gw := omerotest.New()

	doc := sampleDocument()
	doc["studies"] = []any{}
	if _, err := New(doc, t.TempDir(), gw, &GatewayUploader{Gateway: gw}, Options{}); err == nil {
		t.Error("expected error for zero studies")
	}

	doc = sampleDocument()
	studies := doc["studies"].([]any)
	doc["studies"] = append(studies, studies[0])
	if _, err := New(doc, t.TempDir(), gw, &GatewayUploader{Gateway: gw}, Options{}); err == nil {
		t.Error("expected error for two studies")
	}

	delete(doc, "studies")
	if _, err := New(doc, t.TempDir(), gw, &GatewayUploader{Gateway: gw}, Options{}); err == nil {
		t.Error("expected error for missing studies array")
	}
}

func TestImportRequiresAssayIdentifier(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()

	doc := sampleDocument()
	study := doc["studies"].([]any)[0].(map[string]any)
	assay := study["assays"].([]any)[0].(map[string]any)
	assay["comments"] = []any{anchor("ISA:ASSAY:ASSAY")}

	imp, err := New(doc, sampleARC(t), gw, &GatewayUploader{Gateway: gw}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := imp.Save(ctx); err == nil {
		t.Error("expected error for assay without identifier comment")
	}
}

func TestImportMissingImageFileIsFatal(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()

	// ARC without the image file.
	imp, err := New(sampleDocument(), t.TempDir(), gw, &GatewayUploader{Gateway: gw}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := imp.Save(ctx); err == nil {
		t.Error("expected error for missing image file")
	}
}

func TestImportContinuesAfterUploadFailure(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()

	imp, err := New(sampleDocument(), sampleARC(t), gw, failingUploader{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	project, err := imp.Save(ctx)
	if err != nil {
		t.Fatalf("upload failure must not abort the import: %v", err)
	}

	// The dataset exists; no image was persisted and no ROIs imported.
	datasets, err := gw.ListDatasets(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(datasets) != 1 {
		t.Fatalf("datasets = %+v", datasets)
	}
	images, err := gw.ListImages(ctx, datasets[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 0 {
		t.Errorf("images = %+v, want none", images)
	}
	if len(gw.ROIs) != 0 {
		t.Errorf("rois = %+v, want none", gw.ROIs)
	}
}

func TestImportPartialStatePersists(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()

	doc := sampleDocument()
	study := doc["studies"].([]any)[0].(map[string]any)
	brokenAssay := map[string]any{
		"comments": []any{anchor("ISA:ASSAY:ASSAY")}, // no identifier
	}
	study["assays"] = append(study["assays"].([]any), brokenAssay)

	imp, err := New(doc, sampleARC(t), gw, &GatewayUploader{Gateway: gw}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := imp.Save(ctx); err == nil {
		t.Fatal("expected error from the broken assay")
	}

	// The project and the first dataset were created before the failure
	// and stay in the store.
	if len(gw.Projects) != 1 {
		t.Errorf("projects = %d, want the partial import kept", len(gw.Projects))
	}
	if len(gw.Datasets) != 1 {
		t.Errorf("datasets = %d, want the first assay kept", len(gw.Datasets))
	}
}
