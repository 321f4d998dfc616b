package importer

import (
	"context"
	"testing"

	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/omero/omerotest"
)

func TestParseImageID(t *testing.T) {
	cases := []struct {
		name string
		out  string
		id   int64
		ok   bool
	}{
		{"single id", "Image:42\n", 42, true},
		{"multi image format", "Image:42,43,44\n", 42, true},
		{"id after noise", "Using session abc\nImage:7\nDone\n", 7, true},
		{"first line wins", "Image:1\nImage:2\n", 1, true},
		{"whitespace", "Image: 9 \n", 9, true},
		{"no id", "upload complete\n", 0, false},
		{"empty output", "", 0, false},
		{"malformed id", "Image:abc\n", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := parseImageID(tc.out)
			if id != tc.id || ok != tc.ok {
				t.Errorf("parseImageID(%q) = %d, %v, want %d, %v", tc.out, id, ok, tc.id, tc.ok)
			}
		})
	}
}

func TestGatewayUploader(t *testing.T) {
	ctx := context.Background()
	gw := omerotest.New()

	dataset := &omero.Dataset{Name: "d"}
	if err := gw.CreateDataset(ctx, dataset); err != nil {
		t.Fatal(err)
	}

	up := &GatewayUploader{Gateway: gw}
	img, err := up.Upload(ctx, UploadRequest{
		FilePath:    "/data/img.tif",
		DatasetID:   dataset.ID,
		Name:        "img",
		Description: "a cell",
	})
	if err != nil {
		t.Fatal(err)
	}
	if img.ID == 0 {
		t.Fatal("upload did not assign an id")
	}
	if img.Path != "/data/img.tif" || img.Name != "img" {
		t.Errorf("image = %+v", img)
	}

	images, err := gw.ListImages(ctx, dataset.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0].ID != img.ID {
		t.Errorf("dataset images = %+v", images)
	}
}
