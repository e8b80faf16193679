package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_compose").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imageContent is implemented by results that carry an image the client can
// display directly.
type imageContent interface {
	image() (data, mimeType string, ok bool)
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Results that carry an image add a second {"type": "image"} entry.
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(context.Background(), params.Name, params.Arguments)
	if err != nil {
		log.Printf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if ic, ok := result.(imageContent); ok {
		if data, mimeType, ok := ic.image(); ok {
			content = append(content, map[string]interface{}{
				"type":     "image",
				"data":     data,
				"mimeType": mimeType,
			})
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_compose":
		return s.handleImageCompose(ctx, args)
	case "image_compose_layout":
		return s.handleImageComposeLayout(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(ctx, args)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Sources ===

// imageRef names one input image. Exactly one of Path, URL or Data is set.
type imageRef struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"` // base64
	Name string `json:"name,omitempty"`
}

// load reads the referenced image into a Source.
func (s *Server) load(ctx context.Context, ref imageRef) (imaging.Source, error) {
	var (
		src imaging.Source
		err error
	)

	switch {
	case ref.Path != "" && ref.URL == "" && ref.Data == "":
		src, err = imaging.LoadFile(ref.Path)
	case ref.URL != "" && ref.Path == "" && ref.Data == "":
		if !strings.HasPrefix(ref.URL, "http://") && !strings.HasPrefix(ref.URL, "https://") {
			return imaging.Source{}, fmt.Errorf("unsupported image URL %q: only http and https are allowed", ref.URL)
		}
		src, err = imaging.Fetch(ctx, s.client, ref.URL)
	case ref.Data != "" && ref.Path == "" && ref.URL == "":
		var data []byte
		data, err = base64.StdEncoding.DecodeString(ref.Data)
		if err != nil {
			err = fmt.Errorf("invalid base64 image data: %w", err)
		}
		src = imaging.Source{Name: "inline", Data: data}
	default:
		return imaging.Source{}, errors.New("each image needs exactly one of path, url or data")
	}
	if err != nil {
		return imaging.Source{}, err
	}

	if ref.Name != "" {
		src.Name = ref.Name
	}
	return src, nil
}

func (s *Server) loadAll(ctx context.Context, refs []imageRef) ([]imaging.Source, error) {
	sources := make([]imaging.Source, len(refs))
	for i, ref := range refs {
		src, err := s.load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		sources[i] = src
	}
	return sources, nil
}

// settingsArgs are the layout settings shared by the compose tools.
type settingsArgs struct {
	Layout          string  `json:"layout"`
	Gap             float64 `json:"gap"`
	BackgroundColor string  `json:"background_color"`
	Columns         int     `json:"columns"`
	SizeMode        string  `json:"size_mode"`
}

func (a settingsArgs) settings() layout.Settings {
	l := a.Layout
	if l == "" {
		l = string(layout.LayoutHorizontal)
	}
	return layout.Settings{
		Layout:          layout.Layout(l),
		Gap:             a.Gap,
		BackgroundColor: a.BackgroundColor,
		Columns:         a.Columns,
		SizeMode:        layout.SizeMode(a.SizeMode),
	}
}

// === Composition Handlers ===

type imageComposeArgs struct {
	Images []imageRef `json:"images"`
	settingsArgs
	OutputDir string `json:"output_dir"`
}

// ComposeResult describes a composed image.
type ComposeResult struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MimeType  string `json:"mime_type"`
	Execution string `json:"execution"`

	// File is set when the image was saved to output_dir.
	File string `json:"file,omitempty"`

	// ImageBase64 is set when no output_dir was given.
	ImageBase64 string `json:"image_base64,omitempty"`
}

func (r *ComposeResult) image() (string, string, bool) {
	return r.ImageBase64, r.MimeType, r.ImageBase64 != ""
}

func (s *Server) handleImageCompose(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageComposeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Images) == 0 {
		return nil, layout.ErrEmptyInput
	}

	sources, err := s.loadAll(ctx, a.Images)
	if err != nil {
		return nil, err
	}

	res, err := s.dispatcher.Compose(ctx, sources, a.settings())
	if err != nil {
		return nil, fmt.Errorf("failed to compose images: %w", err)
	}

	result := &ComposeResult{
		Width:     res.Output.Width,
		Height:    res.Output.Height,
		MimeType:  res.Output.MimeType,
		Execution: string(res.Path),
	}
	if a.OutputDir != "" {
		file, err := res.Output.Save(a.OutputDir, s.now())
		if err != nil {
			return nil, err
		}
		result.File = file
	} else {
		result.ImageBase64 = base64.StdEncoding.EncodeToString(res.Output.Data)
	}
	return result, nil
}

type imageComposeLayoutArgs struct {
	Images     []imageRef          `json:"images"`
	Dimensions []layout.Dimensions `json:"dimensions"`
	settingsArgs
}

func (s *Server) handleImageComposeLayout(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageComposeLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	switch {
	case len(a.Dimensions) > 0 && len(a.Images) > 0:
		return nil, errors.New("give either images or dimensions, not both")
	case len(a.Dimensions) > 0:
		return layout.Resolve(a.Dimensions, a.settings())
	case len(a.Images) > 0:
		sources, err := s.loadAll(ctx, a.Images)
		if err != nil {
			return nil, err
		}
		return imaging.Plan(ctx, sources, a.settings())
	default:
		return nil, layout.ErrEmptyInput
	}
}

// DimensionsResult is the natural size of one image.
type DimensionsResult struct {
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleImageDimensions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageRef
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	src, err := s.load(ctx, a)
	if err != nil {
		return nil, err
	}
	img, err := imaging.DecodeLimited(src, 0, s.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	defer img.Release()

	return &DimensionsResult{Name: src.Name, Width: img.Width, Height: img.Height}, nil
}
