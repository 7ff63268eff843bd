// Package descriptor builds 128-dimensional gradient histogram descriptors
// for oriented keypoints and converts them to a compact 8-bit form.
package descriptor
