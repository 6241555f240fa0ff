// Package selection provides compressed sets of point indexes used by
// filters to pick the points they keep.
package selection
