// Package packer exports a project into an ARC directory: the project
// becomes an ISA investigation with one study, each dataset an assay,
// each image a copied data file with a derived-metadata comment set and
// an optional ROI sidecar.
package packer

import (
	"context"
	"fmt"

	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// annotationCache holds the annotations of one source object, grouped by
// namespace. It is built once per mapper and passed down; nothing
// re-fetches during a mapping run.
type annotationCache struct {
	byNamespace map[string][]map[string]string
}

func newAnnotationCache(ctx context.Context, gw omero.Gateway, obj omero.Object) (*annotationCache, error) {
	annotations, err := gw.ListAnnotations(ctx, obj)
	if err != nil {
		return nil, fmt.Errorf("list annotations of %s %d: %w", obj.ObjectKind(), obj.ObjectID(), err)
	}
	c := &annotationCache{byNamespace: map[string][]map[string]string{}}
	for _, a := range annotations {
		c.byNamespace[a.Namespace] = append(c.byNamespace[a.Namespace], a.AsMap())
	}
	return c, nil
}

// get returns the raw annotation maps stored under ns, in persisted order.
func (c *annotationCache) get(ns string) []map[string]string {
	return c.byNamespace[ns]
}
