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
		"description": "Absolute path to the image file (PNG, JPEG, GIF, TIFF or BMP)",
	}
}

func coordinateProperties() map[string]interface{} {
	return map[string]interface{}{
		"x1": map[string]interface{}{
			"type":        "integer",
			"description": "Left edge X coordinate (0-based)",
		},
		"y1": map[string]interface{}{
			"type":        "integer",
			"description": "Top edge Y coordinate (0-based)",
		},
		"x2": map[string]interface{}{
			"type":        "integer",
			"description": "Right edge X coordinate (exclusive)",
		},
		"y2": map[string]interface{}{
			"type":        "integer",
			"description": "Bottom edge Y coordinate (exclusive)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	regionProps := coordinateProperties()
	regionProps["path"] = pathProperty()

	return []Tool{
		// Text Extraction
		{
			Name:        "text_extract",
			Description: "Extract every word in an image with its pixel bounding box. Fragments are returned in the engine's reading order; words are never filtered by confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "text_extract_region",
			Description: "Extract words from a rectangular region only. Returned boxes are in full-image coordinates. Use image_grid_overlay to find the coordinates.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": regionProps,
				"required":   []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "text_annotate",
			Description: "Extract words and draw each bounding box and its text on a copy of the image. Writes a PNG to output_path, or returns it base64-encoded when output_path is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the annotated PNG",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Box colour in hex (e.g., '#FF0000'). Default red",
						"default":     "#ff0000",
					},
				},
				"required": []string{"path"},
			},
		},

		// Helpers
		{
			Name:        "image_grid_overlay",
			Description: "Overlay a labelled coordinate grid on the image to help choose a region for text_extract_region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines (minimum 10). Default 50",
						"default":     50,
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each intersection with its coordinates. Default true",
						"default":     true,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour in hex. Default '#00a0ff'",
						"default":     "#00a0ff",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "engine_info",
			Description: "Report which recognition engine is configured, whether it can run, and its version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
