// Package matching pairs descriptors between two images.
//
// The Matcher supports exhaustive nearest-neighbour search with optional
// mutual (cross-check) filtering, Lowe's ratio test, a distance cutoff and
// top-N truncation. An approximate variant backed by an HNSW graph trades
// exactness for speed on large descriptor sets.
//
// All distances are Euclidean. Results are sorted by ascending distance;
// equal distances keep ascending IndexA order.
package matching
