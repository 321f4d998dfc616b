package omero

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLink is returned when no link type exists for a
// parent/child kind pair. This signals a model gap and is never
// silently dropped.
var ErrUnsupportedLink = errors.New("link type not supported")

type linkKey struct {
	Parent Kind
	Child  Kind
}

// linkTable enumerates the container relationships the server model
// supports. Extending the model means adding a row here.
var linkTable = map[linkKey]string{
	{KindProject, KindDataset}:    "ProjectDatasetLink",
	{KindDataset, KindImage}:      "DatasetImageLink",
	{KindProject, KindAnnotation}: "ProjectAnnotationLink",
	{KindDataset, KindAnnotation}: "DatasetAnnotationLink",
	{KindImage, KindAnnotation}:   "ImageAnnotationLink",
}

// LinkType resolves the link type name for a parent/child kind pair.
func LinkType(parent, child Kind) (string, error) {
	lt, ok := linkTable[linkKey{parent, child}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnsupportedLink, parent, child)
	}
	return lt, nil
}
