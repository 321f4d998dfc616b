package omero

// ROI is a region of interest scoped to one image. Shapes keep their
// declared order.
type ROI struct {
	ID      int64
	ImageID int64
	Shapes  []Shape
}

func (r *ROI) ObjectKind() Kind { return KindROI }
func (r *ROI) ObjectID() int64  { return r.ID }

// Plane holds the optional z/t/c coordinates of a shape. A nil coordinate
// means the shape is not bound to that dimension.
type Plane struct {
	Z *int
	T *int
	C *int
}

// Shape is one geometric element of an ROI. The type tag is the wire name
// used by the ROI JSON codec and matches the server-side class names.
type Shape interface {
	TypeTag() string
	ShapePlane() Plane
}

// Polygon is a closed multi-point shape. Points uses the "x,y x,y ..."
// string encoding of the server model.
type Polygon struct {
	Plane
	Points string
}

// Rectangle is an axis-aligned box.
type Rectangle struct {
	Plane
	X, Y          float64
	Width, Height float64
}

// Ellipse is centered on (X, Y) with the given radii.
type Ellipse struct {
	Plane
	X, Y             float64
	RadiusX, RadiusY float64
}

// Line is a segment from (X1, Y1) to (X2, Y2).
type Line struct {
	Plane
	X1, Y1 float64
	X2, Y2 float64
}

// Point is a single coordinate.
type Point struct {
	Plane
	X, Y float64
}

// Label is a text annotation anchored at (X, Y).
type Label struct {
	Plane
	X, Y float64
	Text string
}

func (s Polygon) TypeTag() string   { return "PolygonI" }
func (s Rectangle) TypeTag() string { return "RectangleI" }
func (s Ellipse) TypeTag() string   { return "EllipseI" }
func (s Line) TypeTag() string      { return "LineI" }
func (s Point) TypeTag() string     { return "PointI" }
func (s Label) TypeTag() string     { return "LabelI" }

func (p Plane) ShapePlane() Plane { return p }
