// Package roi serializes regions of interest between the database model
// and the sidecar JSON files exported next to each image.
//
// The wire format is an array of {roi_id, shapes} records. Every shape
// carries its type tag, optional z/t/c plane coordinates and the
// type-specific geometry fields. Unknown type tags are skipped on import
// so files written by newer tools still load.
package roi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// FileSuffix is appended to an image file stem to name its ROI sidecar.
const FileSuffix = "_roidata.json"

type roiJSON struct {
	ID     int64       `json:"roi_id"`
	Shapes []shapeJSON `json:"shapes"`
}

type shapeJSON struct {
	Type string `json:"type"`
	Z    *int   `json:"z"`
	T    *int   `json:"t"`
	C    *int   `json:"c"`

	Points  string   `json:"points,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	RadiusX *float64 `json:"radiusX,omitempty"`
	RadiusY *float64 `json:"radiusY,omitempty"`
	X1      *float64 `json:"x1,omitempty"`
	Y1      *float64 `json:"y1,omitempty"`
	X2      *float64 `json:"x2,omitempty"`
	Y2      *float64 `json:"y2,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Export serializes all ROIs of image. It returns (nil, nil) when the
// image has no ROIs; that is a normal outcome, not a failure.
func Export(ctx context.Context, gw omero.Gateway, image *omero.Image) ([]byte, error) {
	rois, err := gw.ListROIs(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("list rois of image %d: %w", image.ID, err)
	}
	if len(rois) == 0 {
		return nil, nil
	}

	out := make([]roiJSON, len(rois))
	for i, r := range rois {
		out[i] = roiJSON{ID: r.ID, Shapes: marshalShapes(r.Shapes)}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rois: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportFile writes the ROI sidecar for image at path. It returns the
// empty string when the image has no ROIs and no file was produced.
func ExportFile(ctx context.Context, gw omero.Gateway, image *omero.Image, path string) (string, error) {
	data, err := Export(ctx, gw, image)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Import reads a ROI sidecar file and persists one ROI per record, each
// scoped to image. Missing z/t/c coordinates default to 0; unrecognized
// shape types are skipped.
func Import(ctx context.Context, gw omero.Gateway, path string, image *omero.Image) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var records []roiJSON
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, rec := range records {
		r := &omero.ROI{ImageID: image.ID, Shapes: unmarshalShapes(rec.Shapes)}
		if err := gw.CreateROI(ctx, r); err != nil {
			return fmt.Errorf("persist roi for image %d: %w", image.ID, err)
		}
	}
	return nil
}

// MarshalShapes encodes a shape list without the surrounding ROI record.
// The gateway storage backend reuses this for its shape column.
func MarshalShapes(shapes []omero.Shape) ([]byte, error) {
	return json.Marshal(marshalShapes(shapes))
}

// UnmarshalShapes is the inverse of MarshalShapes.
func UnmarshalShapes(raw []byte) ([]omero.Shape, error) {
	var out []shapeJSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return unmarshalShapes(out), nil
}

func marshalShapes(shapes []omero.Shape) []shapeJSON {
	out := make([]shapeJSON, 0, len(shapes))
	for _, s := range shapes {
		plane := s.ShapePlane()
		sj := shapeJSON{Type: s.TypeTag(), Z: plane.Z, T: plane.T, C: plane.C}
		switch t := s.(type) {
		case omero.Polygon:
			sj.Points = t.Points
		case omero.Rectangle:
			sj.X, sj.Y = f(t.X), f(t.Y)
			sj.Width, sj.Height = f(t.Width), f(t.Height)
		case omero.Ellipse:
			sj.X, sj.Y = f(t.X), f(t.Y)
			sj.RadiusX, sj.RadiusY = f(t.RadiusX), f(t.RadiusY)
		case omero.Line:
			sj.X1, sj.Y1 = f(t.X1), f(t.Y1)
			sj.X2, sj.Y2 = f(t.X2), f(t.Y2)
		case omero.Point:
			sj.X, sj.Y = f(t.X), f(t.Y)
		case omero.Label:
			sj.X, sj.Y = f(t.X), f(t.Y)
			sj.Text = t.Text
		}
		out = append(out, sj)
	}
	return out
}

func unmarshalShapes(in []shapeJSON) []omero.Shape {
	shapes := make([]omero.Shape, 0, len(in))
	for _, sj := range in {
		plane := omero.Plane{Z: orZero(sj.Z), T: orZero(sj.T), C: orZero(sj.C)}
		switch sj.Type {
		case "PolygonI":
			shapes = append(shapes, omero.Polygon{Plane: plane, Points: sj.Points})
		case "RectangleI":
			shapes = append(shapes, omero.Rectangle{Plane: plane, X: v(sj.X), Y: v(sj.Y), Width: v(sj.Width), Height: v(sj.Height)})
		case "EllipseI":
			shapes = append(shapes, omero.Ellipse{Plane: plane, X: v(sj.X), Y: v(sj.Y), RadiusX: v(sj.RadiusX), RadiusY: v(sj.RadiusY)})
		case "LineI":
			shapes = append(shapes, omero.Line{Plane: plane, X1: v(sj.X1), Y1: v(sj.Y1), X2: v(sj.X2), Y2: v(sj.Y2)})
		case "PointI":
			shapes = append(shapes, omero.Point{Plane: plane, X: v(sj.X), Y: v(sj.Y)})
		case "LabelI":
			shapes = append(shapes, omero.Label{Plane: plane, X: v(sj.X), Y: v(sj.Y), Text: sj.Text})
		default:
			// forward compatibility: newer shape types are dropped
		}
	}
	return shapes
}

func f(x float64) *float64 { return &x }

func v(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func orZero(p *int) *int {
	if p == nil {
		zero := 0
		return &zero
	}
	return p
}
