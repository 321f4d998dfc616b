package omero

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("not found")

// Gateway is the connection to the backing bio-image database. Create
// calls persist the entity and fill in its ID. Link persists a typed
// parent/child relation and fails with [ErrUnsupportedLink] for kind
// pairs missing from the link table.
type Gateway interface {
	// SessionKey identifies the authenticated session. It is handed to
	// the external image-upload process so it can reuse the session
	// instead of re-authenticating.
	SessionKey() string

	CreateProject(ctx context.Context, p *Project) error
	CreateDataset(ctx context.Context, d *Dataset) error
	CreateImage(ctx context.Context, img *Image) error
	CreateAnnotation(ctx context.Context, a *MapAnnotation) error
	CreateROI(ctx context.Context, r *ROI) error

	Link(ctx context.Context, parent, child Object) error

	GetProject(ctx context.Context, id int64) (*Project, error)
	GetImage(ctx context.Context, id int64) (*Image, error)

	// ListAnnotations returns all map annotations attached to obj.
	ListAnnotations(ctx context.Context, obj Object) ([]*MapAnnotation, error)
	// ListDatasets returns the datasets linked below a project.
	ListDatasets(ctx context.Context, projectID int64) ([]*Dataset, error)
	// ListImages returns the images linked below a dataset.
	ListImages(ctx context.Context, datasetID int64) ([]*Image, error)
	// ListROIs returns the ROIs of an image, shapes in declared order.
	ListROIs(ctx context.Context, imageID int64) ([]*ROI, error)

	Close() error
}
