// Package detection finds scale-space keypoints in a DoG pyramid and
// assigns them dominant orientations.
//
// Detection runs in four steps per interior DoG layer:
//
//  1. Candidates: samples whose magnitude passes a pre-threshold and that
//     are strictly greater or strictly smaller than all 26 neighbours in
//     the 3x3x3 cube around them.
//  2. Localization: a bounded Newton refinement fits a quadratic to the
//     DoG and moves the candidate to its sub-pixel, sub-layer extremum.
//     Candidates that drift out of range, hit a singular Hessian or fail
//     to converge are dropped.
//  3. Rejection: low-contrast extrema and edge-like extrema (large ratio
//     of principal curvatures) are dropped.
//  4. Orientation: a 36-bin gradient orientation histogram around the
//     keypoint yields one keypoint per dominant direction.
//
// # Coordinate System
//
// Keypoint X, Y and Sigma are expressed in the frame of the image the
// pyramid was built from: origin at the top-left, X rightward, Y downward.
// Orientation is in degrees in [0, 360), measured from the +X axis towards
// +Y, so 90 points down the image.
//
// Dropped candidates are never errors; an image without structure simply
// yields no keypoints.
package detection
