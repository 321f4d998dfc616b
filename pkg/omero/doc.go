// Package omero defines the object model of the backing bio-image database
// and the Gateway interface used to talk to it.
//
// The model mirrors the server-side containers: a Project holds Datasets,
// a Dataset holds Images, and any container can carry map annotations
// (namespaced key-value sets). Regions of interest (ROIs) belong to an
// Image and hold an ordered list of geometric shapes.
//
// All persistence goes through [Gateway]. Each call is one blocking round
// trip; the tool issues them serially and never batches. There is no
// transaction scope, so a failure partway through an import leaves the
// entities created so far in place.
package omero
