package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/ironsheep/ocr-textboxes/internal/ocr"
	"github.com/sirupsen/logrus"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "text_extract").
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
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data carries the error code and the request ID.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	requestID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"tool":       params.Name,
	})

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.WithFields(errorFields(err)).Warn("tool call failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", toolErrorData(err, requestID))
	}
	log.WithField("duration", time.Since(start)).Info("tool call completed")

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
	// Text Extraction
	case "text_extract":
		return s.handleTextExtract(ctx, args)
	case "text_extract_region":
		return s.handleTextExtractRegion(ctx, args)
	case "text_annotate":
		return s.handleTextAnnotate(ctx, args)

	// Helpers
	case "image_grid_overlay":
		return s.handleImageGridOverlay(args)
	case "engine_info":
		return ocr.DescribeEngine(ctx, s.extractor.Engine()), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

func toolErrorData(err error, requestID string) map[string]interface{} {
	data := map[string]interface{}{
		"error":      err.Error(),
		"request_id": requestID,
	}
	if code := ocr.CodeOf(err); code != "" {
		data["error_code"] = string(code)
	}
	return data
}

func errorFields(err error) logrus.Fields {
	var e *ocr.Error
	if errors.As(err, &e) {
		return logrus.Fields(e.Fields())
	}
	return logrus.Fields{"error": err.Error()}
}

// === Text Extraction Handlers ===

type textExtractArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleTextExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return extractImage(ctx, s.extractor, img, a.Path, nil)
}

type textExtractRegionArgs struct {
	Path string `json:"path"`
	Region
}

func (s *Server) handleTextExtractRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textExtractRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return extractImage(ctx, s.extractor, img, a.Path, &a.Region)
}

type textAnnotateArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Color      string `json:"color"`
}

// AnnotateResult describes an annotated image.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Count       int    `json:"count"`
	OutputPath  string `json:"output_path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

func (s *Server) handleTextAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	annotated, err := imaging.Annotate(img, LabelsFrom(result), a.Color)
	if err != nil {
		return nil, err
	}

	out := &AnnotateResult{
		Width:  annotated.Bounds().Dx(),
		Height: annotated.Bounds().Dy(),
		Count:  len(result),
	}

	if a.OutputPath != "" {
		if err := imaging.SavePNG(a.OutputPath, annotated); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
		return out, nil
	}

	data, err := imaging.EncodePNG(annotated)
	if err != nil {
		return nil, err
	}
	out.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	out.MimeType = "image/png"
	return out, nil
}

// === Helper Handlers ===

type imageGridOverlayArgs struct {
	Path            string `json:"path"`
	GridSpacing     int    `json:"grid_spacing"`
	ShowCoordinates *bool  `json:"show_coordinates"`
	GridColor       string `json:"grid_color"`
}

// GridOverlayResult contains the image with grid overlay
type GridOverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	GridSpacing int    `json:"grid_spacing"`
}

func (s *Server) handleImageGridOverlay(args json.RawMessage) (interface{}, error) {
	var a imageGridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.GridSpacing == 0 {
		a.GridSpacing = 50
	}
	showCoordinates := true
	if a.ShowCoordinates != nil {
		showCoordinates = *a.ShowCoordinates
	}

	img, err := loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	gridded, err := imaging.GridOverlay(img, a.GridSpacing, showCoordinates, a.GridColor)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(gridded)
	if err != nil {
		return nil, err
	}

	return &GridOverlayResult{
		Width:       gridded.Bounds().Dx(),
		Height:      gridded.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		GridSpacing: a.GridSpacing,
	}, nil
}

// === Shared by the MCP and HTTP transports ===

// Region is a rectangle given by its corners; x2 and y2 are exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts r to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// ExtractResponse is the result of one extraction.
type ExtractResponse struct {
	Path      string               `json:"path,omitempty"`
	Image     *imaging.ImageInfo   `json:"image"`
	Region    *Region              `json:"region,omitempty"`
	Count     int                  `json:"count"`
	Text      string               `json:"text"`
	Fragments ocr.ExtractionResult `json:"fragments"`
}

// loadImage reads path, classifying failures as image load errors.
func loadImage(path string) (image.Image, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, ocr.NewImageLoadError(path, err)
	}
	return img, nil
}

// extractImage runs extractor over img, or over region of it when region is
// not nil. path is only used for reporting.
func extractImage(ctx context.Context, extractor *ocr.TextExtractor, img image.Image, path string, region *Region) (*ExtractResponse, error) {
	info, err := imaging.Describe(img, path)
	if err != nil {
		return nil, ocr.NewImageLoadError(path, err)
	}

	var result ocr.ExtractionResult
	if region != nil {
		result, err = extractor.ExtractRegion(ctx, img, region.Rect())
	} else {
		result, err = extractor.Extract(ctx, img)
	}
	if err != nil {
		return nil, err
	}

	return &ExtractResponse{
		Path:      path,
		Image:     info,
		Region:    region,
		Count:     len(result),
		Text:      result.Text(),
		Fragments: result,
	}, nil
}

// LabelsFrom turns fragments into annotation labels.
func LabelsFrom(result ocr.ExtractionResult) []imaging.Label {
	labels := make([]imaging.Label, 0, len(result))
	for _, f := range result {
		labels = append(labels, imaging.Label{Box: f.Box.Rect(), Text: f.Text})
	}
	return labels
}
