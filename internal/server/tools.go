package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageRefSchema describes one entry of an "images" array.
var imageRefSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"url": map[string]interface{}{
			"type":        "string",
			"description": "http(s) URL of the image",
		},
		"data": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image bytes",
		},
		"name": map[string]interface{}{
			"type":        "string",
			"description": "Optional label used in error messages",
		},
	},
}

// settingsProperties returns the layout settings shared by the compose tools.
func settingsProperties() map[string]interface{} {
	return map[string]interface{}{
		"layout": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"horizontal", "vertical", "grid"},
			"description": "Arrangement: side by side, stacked, or a grid. Default horizontal",
			"default":     "horizontal",
		},
		"gap": map[string]interface{}{
			"type":        "number",
			"description": "Spacing in pixels between adjacent images. Default 0",
			"default":     0,
		},
		"background_color": map[string]interface{}{
			"type":        "string",
			"description": "Canvas fill: #rgb, #rrggbb, #rrggbbaa, a CSS color name, or 'transparent'. Default white",
			"default":     "#ffffff",
		},
		"columns": map[string]interface{}{
			"type":        "integer",
			"description": "Grid columns. Default 2",
			"default":     2,
		},
		"size_mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"default", "minimum"},
			"description": "Horizontal/vertical only: scale every image to the largest (default) or smallest (minimum) shared dimension",
			"default":     "default",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	compose := settingsProperties()
	compose["images"] = map[string]interface{}{
		"type":        "array",
		"items":       imageRefSchema,
		"description": "Images in drawing order. Each entry sets one of path, url or data",
		"minItems":    1,
	}
	compose["output_dir"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional directory to save the result as composed-image-<millis>.png. Without it the PNG is returned as base64",
	}

	preview := settingsProperties()
	preview["images"] = map[string]interface{}{
		"type":        "array",
		"items":       imageRefSchema,
		"description": "Images to measure. Use either images or dimensions",
	}
	preview["dimensions"] = map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"width":  map[string]interface{}{"type": "integer"},
				"height": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"width", "height"},
		},
		"description": "Natural image sizes, when the images themselves are not at hand",
	}

	return []Tool{
		{
			Name:        "image_compose",
			Description: "Combine several images into one PNG, side by side, stacked, or in a grid, with optional spacing and background color. Images keep their aspect ratio.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": compose,
				"required":   []string{"images"},
			},
		},
		{
			Name:        "image_compose_layout",
			Description: "Compute the canvas size and per-image placement of a composition without rendering it.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": preview,
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image, after EXIF orientation is applied.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageRefSchema["properties"],
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
