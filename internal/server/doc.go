// Package server implements the MCP (Model Context Protocol) server for
// keypoint detection and matching.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Features:
//   - features_detect: Detect keypoints and descriptors, store them as a feature set
//   - features_get: Page through keypoints, optionally with 8-bit descriptors
//   - features_match: Match two feature sets (brute force or HNSW, cross-check, ratio test)
//   - features_stats: Keypoint and descriptor statistics
//   - features_forget: Release a feature set
//
// # State
//
// Decoded images are cached by path for the lifetime of the process. Feature
// sets are addressed by UUID and expire after Options.FeatureTTL without use.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv, err := server.New(server.Options{Config: config.Default()})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
