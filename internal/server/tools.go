package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func featureSetProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later detection calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Features
		{
			Name: "features_detect",
			Description: "Detect scale-invariant keypoints and compute their 128-dimensional descriptors. " +
				"The result is stored under a feature_set_id for features_get, features_match and features_stats. " +
				"Returns the keypoint count per octave and the strongest keypoints.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional rectangle to detect on; x2/y2 exclusive. Keypoints are reported in full-image coordinates.",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"named_region": map[string]interface{}{
						"type":        "string",
						"description": "Optional named region, ignored when region is set",
						"enum": []string{
							"top-left", "top-right", "bottom-left", "bottom-right",
							"top-half", "bottom-half", "left-half", "right-half", "center",
						},
					},
					"octaves": map[string]interface{}{
						"type":        "integer",
						"description": "Number of octaves. 0 derives it from the image size",
						"minimum":     0,
					},
					"levels_per_octave": map[string]interface{}{
						"type":        "integer",
						"description": "Scale levels per octave. Default 3",
						"minimum":     1,
					},
					"base_sigma": map[string]interface{}{
						"type":        "number",
						"description": "Blur of the first level of each octave. Default 1.6",
					},
					"contrast_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Rejects low-contrast extrema; divided by levels_per_octave. Default 0.04",
					},
					"edge_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Maximum principal curvature ratio. Default 10",
					},
					"upsample_base": map[string]interface{}{
						"type":        "boolean",
						"description": "Double the image before detection to find smaller features. Default true",
					},
					"max_features": map[string]interface{}{
						"type":        "integer",
						"description": "Keep only the N strongest keypoints. 0 keeps all",
						"minimum":     0,
					},
					"gray_model": map[string]interface{}{
						"type":        "string",
						"description": "Intensity conversion. Default luma",
						"enum":        []string{"luma", "lightness"},
					},
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale images whose longer side exceeds this before detection. 0 disables",
						"minimum":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "features_get",
			Description: "Return keypoints of a stored feature set, optionally with their 8-bit descriptors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"feature_set_id": featureSetProperty("ID returned by features_detect"),
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the first keypoint to return. Default 0",
						"default":     0,
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of keypoints to return. Default 100",
						"default":     defaultGetLimit,
					},
					"include_descriptors": map[string]interface{}{
						"type":        "boolean",
						"description": "Include quantized descriptors (0-255). Default false",
						"default":     false,
					},
					"descriptor_components": map[string]interface{}{
						"type":        "integer",
						"description": "Return only the first N descriptor components. 0 returns all 128",
						"default":     0,
					},
				},
				"required": []string{"feature_set_id"},
			},
		},
		{
			Name: "features_match",
			Description: "Match two stored feature sets by nearest-neighbour descriptor distance. " +
				"Returns index pairs with their keypoint positions, closest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"feature_set_a": featureSetProperty("Query feature set ID"),
					"feature_set_b": featureSetProperty("Train feature set ID"),
					"cross_check": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only mutual nearest neighbours",
					},
					"ratio_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Ratio test threshold in (0,1), e.g. 0.75. 0 disables",
					},
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Drop matches farther than this. 0 disables",
					},
					"top_n": map[string]interface{}{
						"type":        "integer",
						"description": "Return at most N matches. Default 50",
						"default":     defaultTopN,
					},
					"kind": map[string]interface{}{
						"type":        "string",
						"description": "Exhaustive or approximate search",
						"enum":        []string{"brute", "hnsw"},
					},
				},
				"required": []string{"feature_set_a", "feature_set_b"},
			},
		},
		{
			Name:        "features_stats",
			Description: "Summarize a stored feature set: keypoints per octave and sigma, response and descriptor statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"feature_set_id": featureSetProperty("ID returned by features_detect"),
				},
				"required": []string{"feature_set_id"},
			},
		},
		{
			Name:        "features_forget",
			Description: "Release a stored feature set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"feature_set_id": featureSetProperty("ID returned by features_detect"),
				},
				"required": []string{"feature_set_id"},
			},
		},
	}
}
