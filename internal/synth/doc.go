// Package synth renders synthetic test scenes and applies known geometric
// transforms to them, so detector behaviour can be checked against ground
// truth.
package synth
