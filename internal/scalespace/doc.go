// Package scalespace builds the Gaussian scale-space pyramid and its
// difference-of-Gaussians layers.
//
// A pyramid is a list of octaves. Each octave holds levels+3 progressively
// blurred copies of one image size; the next octave starts from the copy
// whose blur is exactly twice the base sigma, decimated by two. Adjacent
// Gaussians are subtracted to give levels+2 DoG layers, of which the
// interior levels are scanned for extrema by the detection package.
//
// # Coordinates
//
// Every octave records Scale, the factor that maps its sample coordinates
// and sigmas back to the frame of the image passed to Build. Scale is 2^o,
// halved when the base was upsampled.
package scalespace
