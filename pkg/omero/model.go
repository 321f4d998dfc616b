package omero

import "time"

// Kind identifies the server-side type of a model object.
type Kind string

// Object kinds known to the link table.
const (
	KindProject    Kind = "Project"
	KindDataset    Kind = "Dataset"
	KindImage      Kind = "Image"
	KindAnnotation Kind = "Annotation"
	KindROI        Kind = "Roi"
)

// Object is implemented by every persistable model entity.
type Object interface {
	ObjectKind() Kind
	ObjectID() int64
}

// Owner identifies the user owning a container.
type Owner struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
}

// Project is the top-level container. It maps to an ISA investigation with
// a single study on export.
type Project struct {
	ID          int64
	Name        string
	Description string
	Owner       Owner
}

func (p *Project) ObjectKind() Kind { return KindProject }
func (p *Project) ObjectID() int64  { return p.ID }

// Dataset groups images below a project. It maps to an ISA assay.
type Dataset struct {
	ID          int64
	Name        string
	Description string
	Owner       Owner
}

func (d *Dataset) ObjectKind() Kind { return KindDataset }
func (d *Dataset) ObjectID() int64  { return d.ID }

// Image is one imported image. Path points at the backing file on disk;
// PixelSizeUnit is empty when the image carries no pixel-size calibration.
type Image struct {
	ID              int64
	Name            string
	Description     string
	Path            string
	Owner           string
	AcquisitionTime time.Time
	SizeX           int
	SizeY           int
	SizeZ           int
	PixelSizeX      float64
	PixelSizeY      float64
	PixelSizeZ      float64
	PixelSizeUnit   string
}

func (i *Image) ObjectKind() Kind { return KindImage }
func (i *Image) ObjectID() int64  { return i.ID }

// NamedValue is one key-value pair of a map annotation. Values are always
// strings on the wire.
type NamedValue struct {
	Name  string
	Value string
}

// MapAnnotation is a namespaced key-value set attached to a container.
// The namespace groups annotations by the ISA entity type and role they
// derive from (e.g. "ISA:STUDY:STUDY PUBLICATIONS").
type MapAnnotation struct {
	ID        int64
	Namespace string
	Pairs     []NamedValue
}

func (a *MapAnnotation) ObjectKind() Kind { return KindAnnotation }
func (a *MapAnnotation) ObjectID() int64  { return a.ID }

// Get returns the value for name and whether it was present. The last
// matching pair wins.
func (a *MapAnnotation) Get(name string) (string, bool) {
	value, found := "", false
	for _, p := range a.Pairs {
		if p.Name == name {
			value, found = p.Value, true
		}
	}
	return value, found
}

// AsMap flattens the pairs into a map. Later duplicates win.
func (a *MapAnnotation) AsMap() map[string]string {
	m := make(map[string]string, len(a.Pairs))
	for _, p := range a.Pairs {
		m[p.Name] = p.Value
	}
	return m
}
