package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/descriptor"
	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/matching"
	"github.com/ironsheep/siftkit/internal/pipeline"
)

const (
	defaultGetLimit  = 100
	defaultTopN      = 50
	detectPreviewMax = 10
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "features_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordToolCall(params.Name, "error", elapsed.Seconds())
		s.logger.Warn("tool failed", "tool", params.Name, "error", err, "duration", elapsed)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.metrics.RecordToolCall(params.Name, "success", elapsed.Seconds())
	s.logger.Debug("tool finished", "tool", params.Name, "duration", elapsed)

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Features
	case "features_detect":
		return s.handleFeaturesDetect(ctx, args)
	case "features_get":
		return s.handleFeaturesGet(args)
	case "features_match":
		return s.handleFeaturesMatch(ctx, args)
	case "features_stats":
		return s.handleFeaturesStats(args)
	case "features_forget":
		return s.handleFeaturesForget(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; a missing arguments object is
// treated as empty.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Open(a.Path)
	if err != nil {
		return nil, err
	}
	return src.Info(), nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Open(a.Path)
	if err != nil {
		return nil, err
	}
	return src.Dimensions(), nil
}

// === Detection ===

// detectorOverrides holds optional per-call detector settings. nil fields
// keep the server default.
type detectorOverrides struct {
	Octaves           *int     `json:"octaves"`
	LevelsPerOctave   *int     `json:"levels_per_octave"`
	BaseSigma         *float64 `json:"base_sigma"`
	ContrastThreshold *float64 `json:"contrast_threshold"`
	EdgeThreshold     *float64 `json:"edge_threshold"`
	UpsampleBase      *bool    `json:"upsample_base"`
	MaxFeatures       *int     `json:"max_features"`
	GrayModel         *string  `json:"gray_model"`
	MaxDimension      *int     `json:"max_dimension"`
}

func (o detectorOverrides) apply(d config.Detector) config.Detector {
	if o.Octaves != nil {
		d.Octaves = *o.Octaves
	}
	if o.LevelsPerOctave != nil {
		d.LevelsPerOctave = *o.LevelsPerOctave
	}
	if o.BaseSigma != nil {
		d.BaseSigma = *o.BaseSigma
	}
	if o.ContrastThreshold != nil {
		d.ContrastThreshold = *o.ContrastThreshold
	}
	if o.EdgeThreshold != nil {
		d.EdgeThreshold = *o.EdgeThreshold
	}
	if o.UpsampleBase != nil {
		d.UpsampleBase = *o.UpsampleBase
	}
	if o.MaxFeatures != nil {
		d.MaxFeatures = *o.MaxFeatures
	}
	if o.GrayModel != nil {
		d.GrayModel = *o.GrayModel
	}
	if o.MaxDimension != nil {
		d.MaxDimension = *o.MaxDimension
	}
	return d
}

type featuresDetectArgs struct {
	Path string `json:"path"`

	// Region restricts detection to a rectangle; NamedRegion to a named
	// part of the image (top-left, center, ...). Region wins if both are set.
	Region      *imaging.Region `json:"region"`
	NamedRegion string          `json:"named_region"`

	detectorOverrides
}

// detectResult summarizes a stored feature set.
type detectResult struct {
	ID        string               `json:"feature_set_id"`
	Path      string               `json:"path"`
	Region    *imaging.Region      `json:"region,omitempty"`
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	Count     int                  `json:"keypoint_count"`
	PerOctave []int                `json:"per_octave"`
	Strongest []detection.Keypoint `json:"strongest"`
	ElapsedMS int64                `json:"elapsed_ms"`
}

func (s *Server) handleFeaturesDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a featuresDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	cfg := s.cfg
	cfg.Detector = a.apply(cfg.Detector)
	extractor, err := pipeline.NewExtractor(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	src, err := s.cache.Open(a.Path)
	if err != nil {
		return nil, err
	}
	region, err := imaging.ResolveRegion(src.Bounds(), a.Region, a.NamedRegion)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	features, err := extractor.ExtractSource(ctx, src, region)
	if err != nil {
		return nil, fmt.Errorf("failed to extract features from %s: %w", a.Path, err)
	}
	elapsed := time.Since(start)

	set := newFeatureSet(a.Path, region, cfg.Detector, features)
	id := s.store.put(set)
	s.metrics.RecordKeypoints(features.Len())
	s.metrics.SetFeatureSets(s.store.count())

	return &detectResult{
		ID:        id,
		Path:      a.Path,
		Region:    region,
		Width:     features.Width,
		Height:    features.Height,
		Count:     features.Len(),
		PerOctave: set.Stats.PerOctave,
		Strongest: strongestPreview(features.Keypoints, detectPreviewMax),
		ElapsedMS: elapsed.Milliseconds(),
	}, nil
}

// strongestPreview returns up to n keypoints with the highest response,
// strongest first. The input is not modified.
func strongestPreview(kps []detection.Keypoint, n int) []detection.Keypoint {
	out := make([]detection.Keypoint, len(kps))
	copy(out, kps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Response > out[j].Response
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// === Feature set access ===

type featuresGetArgs struct {
	ID     string `json:"feature_set_id"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`

	// IncludeDescriptors adds the 8-bit descriptor of every returned keypoint.
	// DescriptorComponents truncates each to its first N values (0 = all).
	IncludeDescriptors   bool `json:"include_descriptors"`
	DescriptorComponents int  `json:"descriptor_components"`
}

type featureEntry struct {
	Index      int                `json:"index"`
	Keypoint   detection.Keypoint `json:"keypoint"`
	Descriptor []int              `json:"descriptor,omitempty"`
}

type featuresGetResult struct {
	ID       string         `json:"feature_set_id"`
	Total    int            `json:"total"`
	Offset   int            `json:"offset"`
	Features []featureEntry `json:"features"`
}

func (s *Server) handleFeaturesGet(args json.RawMessage) (interface{}, error) {
	var a featuresGetArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Offset < 0 || a.Limit < 0 || a.DescriptorComponents < 0 {
		return nil, fmt.Errorf("offset, limit and descriptor_components must be non-negative")
	}
	if a.Limit == 0 {
		a.Limit = defaultGetLimit
	}
	if a.DescriptorComponents == 0 || a.DescriptorComponents > descriptor.Length {
		a.DescriptorComponents = descriptor.Length
	}

	set, err := s.store.get(a.ID)
	if err != nil {
		return nil, err
	}

	result := &featuresGetResult{
		ID:       set.ID,
		Total:    set.len(),
		Offset:   a.Offset,
		Features: []featureEntry{},
	}
	end := min(a.Offset+a.Limit, set.len())
	for i := a.Offset; i < end; i++ {
		entry := featureEntry{Index: i, Keypoint: set.Keypoints[i]}
		if a.IncludeDescriptors {
			q := set.Descriptors[i]
			entry.Descriptor = make([]int, a.DescriptorComponents)
			for j := range entry.Descriptor {
				entry.Descriptor[j] = int(q[j])
			}
		}
		result.Features = append(result.Features, entry)
	}
	return result, nil
}

type featuresIDArgs struct {
	ID string `json:"feature_set_id"`
}

func (s *Server) handleFeaturesStats(args json.RawMessage) (interface{}, error) {
	var a featuresIDArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	set, err := s.store.get(a.ID)
	if err != nil {
		return nil, err
	}
	return set.Stats, nil
}

func (s *Server) handleFeaturesForget(args json.RawMessage) (interface{}, error) {
	var a featuresIDArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.store.remove(a.ID); err != nil {
		return nil, err
	}
	s.metrics.SetFeatureSets(s.store.count())
	return map[string]interface{}{
		"feature_set_id": a.ID,
		"removed":        true,
	}, nil
}

// === Matching ===

type featuresMatchArgs struct {
	A string `json:"feature_set_a"`
	B string `json:"feature_set_b"`

	CrossCheck     *bool    `json:"cross_check"`
	RatioThreshold *float64 `json:"ratio_threshold"`
	MaxDistance    *float64 `json:"max_distance"`
	TopN           *int     `json:"top_n"`
	Kind           *string  `json:"kind"`
}

func (a featuresMatchArgs) apply(m config.Matcher) config.Matcher {
	if a.CrossCheck != nil {
		m.CrossCheck = *a.CrossCheck
	}
	if a.RatioThreshold != nil {
		m.RatioThreshold = *a.RatioThreshold
	}
	if a.MaxDistance != nil {
		m.MaxDistance = *a.MaxDistance
	}
	if a.TopN != nil {
		m.TopN = *a.TopN
	}
	if a.Kind != nil {
		m.Kind = *a.Kind
	}
	return m
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type matchEntry struct {
	matching.Match
	PointA point `json:"point_a"`
	PointB point `json:"point_b"`
}

type featuresMatchResult struct {
	A       string       `json:"feature_set_a"`
	B       string       `json:"feature_set_b"`
	Count   int          `json:"count"`
	Matches []matchEntry `json:"matches"`
}

func (s *Server) handleFeaturesMatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a featuresMatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	mcfg := s.cfg.Matcher
	if mcfg.TopN == 0 {
		mcfg.TopN = defaultTopN
	}
	mcfg = a.apply(mcfg)
	matcher, err := matching.NewMatcher(mcfg, s.cfg.WorkerCount())
	if err != nil {
		return nil, err
	}

	setA, err := s.store.get(a.A)
	if err != nil {
		return nil, err
	}
	setB, err := s.store.get(a.B)
	if err != nil {
		return nil, err
	}

	matches, err := matcher.Match(ctx, setA.descriptors(), setB.descriptors())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordMatches(len(matches))

	result := &featuresMatchResult{
		A:       setA.ID,
		B:       setB.ID,
		Count:   len(matches),
		Matches: make([]matchEntry, len(matches)),
	}
	for i, m := range matches {
		ka := setA.Keypoints[m.IndexA]
		kb := setB.Keypoints[m.IndexB]
		result.Matches[i] = matchEntry{
			Match:  m,
			PointA: point{X: ka.X, Y: ka.Y},
			PointB: point{X: kb.X, Y: kb.Y},
		}
	}
	return result, nil
}
