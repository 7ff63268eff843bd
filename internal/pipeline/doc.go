// Package pipeline runs the full feature extraction chain: scale space,
// keypoint detection, orientation assignment and description.
//
// Work is spread over a bounded errgroup. Each task writes only its own
// result slot, and results are concatenated in a fixed order, so the
// output depends only on the input image and configuration, never on the
// number of workers or scheduling.
package pipeline
