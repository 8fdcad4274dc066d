package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// brandColorsSchema describes the colors array of the profile tools.
func brandColorsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Brand colors. profile_update replaces the whole list.",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Color name, e.g. \"Primary Red\"",
				},
				"hex": map[string]interface{}{
					"type":        "string",
					"description": "Hex value, #RGB or #RRGGBB",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional usage notes",
				},
			},
			"required": []string{"name", "hex"},
		},
	}
}

// regionSchema describes an optional sub-rectangle of an image.
func regionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional region to sample; x2 and y2 are exclusive",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Color Science
		{
			Name:        "color_to_lab",
			Description: "Convert a hex color to sRGB, CIE XYZ and CIELAB (D65 white point).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hex": map[string]interface{}{
						"type":        "string",
						"description": "Hex color, e.g. #FF6600",
					},
				},
				"required": []string{"hex"},
			},
		},
		{
			Name:        "color_delta_e",
			Description: "Compute the CIEDE2000 color difference between two hex colors. Values below about 1 are imperceptible.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hex1": map[string]interface{}{
						"type":        "string",
						"description": "First hex color",
					},
					"hex2": map[string]interface{}{
						"type":        "string",
						"description": "Second hex color",
					},
				},
				"required": []string{"hex1", "hex2"},
			},
		},
		{
			Name:        "color_match",
			Description: "Find the closest reference color to a sample and check it against the area-weighted tolerance. Samples covering 30% of the image or more get a stricter tolerance (x0.9), smaller ones a more lenient one (x1.1).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sample": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"hex": map[string]interface{}{
								"type":        "string",
								"description": "Sample hex color",
							},
							"percentage": map[string]interface{}{
								"type":        "number",
								"description": "Share of the image covered by the sample, 0-100",
							},
						},
						"required": []string{"hex", "percentage"},
					},
					"references": map[string]interface{}{
						"type":        "array",
						"description": "Reference colors; the first one wins ties",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"hex":  map[string]interface{}{"type": "string"},
							},
							"required": []string{"name", "hex"},
						},
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Base Delta E tolerance, 0 or more. Defaults to the configured default tolerance (3.0)",
						"default":     3.0,
					},
				},
				"required": []string{"sample", "references"},
			},
		},

		// Image Operations
		{
			Name:        "image_extract_colors",
			Description: "Extract the dominant colors of an image with the share of the image each one covers. Transparent pixels are ignored.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64 image data (or data: URL), used when path is not given",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of colors. Default 5",
						"default":     5,
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"group", "kmeans", "quantize"},
						"description": "Extraction algorithm. Default group",
						"default":     "group",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "RGB distance below which pixels share a group (group method). Default 25",
						"default":     25,
					},
					"region": regionSchema(),
				},
			},
		},
		{
			Name:        "image_analyze",
			Description: "Check an image against a brand profile: extract its dominant colors, match each against the profile colors and report overall compliance. The outcome is added to the analysis history.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64 image data (or data: URL), used when path is not given",
					},
					"file_name": map[string]interface{}{
						"type":        "string",
						"description": "Name recorded in the history. Defaults to the file name of path",
					},
					"profile_id": map[string]interface{}{
						"type":        "string",
						"description": "Brand profile to check against",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of colors. Default 5",
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"group", "kmeans", "quantize"},
						"description": "Extraction algorithm. Default group",
					},
					"region": regionSchema(),
				},
				"required": []string{"profile_id"},
			},
		},

		// Brand Profiles
		{
			Name:        "profile_create",
			Description: "Create a brand profile with a name, a base Delta E tolerance and its brand colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Profile name",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Base Delta E tolerance. Default 3.0",
						"default":     3.0,
					},
					"colors": brandColorsSchema(),
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "profile_get",
			Description: "Get a brand profile by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Profile ID",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "profile_list",
			Description: "List all brand profiles sorted by name.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "profile_update",
			Description: "Replace the name, tolerance and colors of a brand profile.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Profile ID",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Profile name",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Base Delta E tolerance. Default 3.0",
					},
					"colors": brandColorsSchema(),
				},
				"required": []string{"id", "name"},
			},
		},
		{
			Name:        "profile_delete",
			Description: "Delete a brand profile. Its history entries are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Profile ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// History
		{
			Name:        "history_list",
			Description: "List past analyses, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of entries. Default 20, 0 for all",
						"default":     20,
					},
				},
			},
		},
		{
			Name:        "history_get",
			Description: "Get a past analysis by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "History entry ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// Reports
		{
			Name:        "report_render",
			Description: "Render the result of image_analyze as an HTML or Markdown report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"analysis": map[string]interface{}{
						"type":        "object",
						"description": "The JSON object returned by image_analyze",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"html", "markdown"},
						"description": "Report format. Default html",
						"default":     "html",
					},
				},
				"required": []string{"analysis"},
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
