// Package omerotest provides an in-memory Gateway for tests.
package omerotest

import (
	"context"
	"fmt"

	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// LinkRecord captures one Link call.
type LinkRecord struct {
	Kind       string
	ParentKind omero.Kind
	ParentID   int64
	ChildKind  omero.Kind
	ChildID    int64
}

// Gateway is an in-memory omero.Gateway. The zero value is not usable;
// create instances with New. It is not safe for concurrent use, matching
// the serial call pattern of the tool.
type Gateway struct {
	nextID      int64
	Projects    map[int64]*omero.Project
	Datasets    map[int64]*omero.Dataset
	Images      map[int64]*omero.Image
	Annotations map[int64]*omero.MapAnnotation
	ROIs        []*omero.ROI
	Links       []LinkRecord
}

// New returns an empty in-memory gateway.
func New() *Gateway {
	return &Gateway{
		Projects:    map[int64]*omero.Project{},
		Datasets:    map[int64]*omero.Dataset{},
		Images:      map[int64]*omero.Image{},
		Annotations: map[int64]*omero.MapAnnotation{},
	}
}

func (g *Gateway) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *Gateway) SessionKey() string { return "test-session" }
func (g *Gateway) Close() error       { return nil }

func (g *Gateway) CreateProject(_ context.Context, p *omero.Project) error {
	p.ID = g.id()
	g.Projects[p.ID] = p
	return nil
}

func (g *Gateway) CreateDataset(_ context.Context, d *omero.Dataset) error {
	d.ID = g.id()
	g.Datasets[d.ID] = d
	return nil
}

func (g *Gateway) CreateImage(_ context.Context, img *omero.Image) error {
	img.ID = g.id()
	g.Images[img.ID] = img
	return nil
}

func (g *Gateway) CreateAnnotation(_ context.Context, a *omero.MapAnnotation) error {
	a.ID = g.id()
	g.Annotations[a.ID] = a
	return nil
}

func (g *Gateway) CreateROI(_ context.Context, r *omero.ROI) error {
	r.ID = g.id()
	g.ROIs = append(g.ROIs, r)
	return nil
}

func (g *Gateway) Link(_ context.Context, parent, child omero.Object) error {
	kind, err := omero.LinkType(parent.ObjectKind(), child.ObjectKind())
	if err != nil {
		return err
	}
	g.Links = append(g.Links, LinkRecord{
		Kind:       kind,
		ParentKind: parent.ObjectKind(),
		ParentID:   parent.ObjectID(),
		ChildKind:  child.ObjectKind(),
		ChildID:    child.ObjectID(),
	})
	return nil
}

func (g *Gateway) GetProject(_ context.Context, id int64) (*omero.Project, error) {
	p, ok := g.Projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, omero.ErrNotFound)
	}
	return p, nil
}

func (g *Gateway) GetImage(_ context.Context, id int64) (*omero.Image, error) {
	img, ok := g.Images[id]
	if !ok {
		return nil, fmt.Errorf("image %d: %w", id, omero.ErrNotFound)
	}
	return img, nil
}

func (g *Gateway) ListAnnotations(_ context.Context, obj omero.Object) ([]*omero.MapAnnotation, error) {
	var out []*omero.MapAnnotation
	for _, l := range g.Links {
		if l.ParentKind == obj.ObjectKind() && l.ParentID == obj.ObjectID() && l.ChildKind == omero.KindAnnotation {
			if a, ok := g.Annotations[l.ChildID]; ok {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (g *Gateway) ListDatasets(_ context.Context, projectID int64) ([]*omero.Dataset, error) {
	var out []*omero.Dataset
	for _, l := range g.Links {
		if l.ParentKind == omero.KindProject && l.ParentID == projectID && l.ChildKind == omero.KindDataset {
			if d, ok := g.Datasets[l.ChildID]; ok {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (g *Gateway) ListImages(_ context.Context, datasetID int64) ([]*omero.Image, error) {
	var out []*omero.Image
	for _, l := range g.Links {
		if l.ParentKind == omero.KindDataset && l.ParentID == datasetID && l.ChildKind == omero.KindImage {
			if img, ok := g.Images[l.ChildID]; ok {
				out = append(out, img)
			}
		}
	}
	return out, nil
}

func (g *Gateway) ListROIs(_ context.Context, imageID int64) ([]*omero.ROI, error) {
	var out []*omero.ROI
	for _, r := range g.ROIs {
		if r.ImageID == imageID {
			out = append(out, r)
		}
	}
	return out, nil
}
