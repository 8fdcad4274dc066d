package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/color-validator-mcp/internal/analysis"
	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/deltae"
	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/report"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// DefaultHistoryLimit is the history_list limit when none is given.
const DefaultHistoryLimit = 20

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "color_match", "image_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks a tool error caused by the caller's arguments. It is
// reported with code -32602 instead of -32000.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return code -32602, other tool errors -32000. The Go error
// text is carried in the error's data field.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.failures.Inc()

		var pe *paramsError
		if errors.As(err, &pe) {
			log.Debug().Str("tool", params.Name).Err(err).Msg("invalid tool arguments")
			return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
		}

		log.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, CodeToolFailure, "Tool execution failed", err.Error())
	}

	log.Debug().Str("tool", params.Name).Dur("took", time.Since(start)).Msg("tool done")

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
	// Color Science
	case "color_to_lab":
		return s.handleColorToLab(args)
	case "color_delta_e":
		return s.handleColorDeltaE(args)
	case "color_match":
		return s.handleColorMatch(args)

	// Image Operations
	case "image_extract_colors":
		return s.handleImageExtractColors(args)
	case "image_analyze":
		return s.handleImageAnalyze(ctx, args)

	// Brand Profiles
	case "profile_create":
		return s.handleProfileCreate(args)
	case "profile_get":
		return s.handleProfileGet(args)
	case "profile_list":
		return s.handleProfileList(args)
	case "profile_update":
		return s.handleProfileUpdate(args)
	case "profile_delete":
		return s.handleProfileDelete(args)

	// History
	case "history_list":
		return s.handleHistoryList(args)
	case "history_get":
		return s.handleHistoryGet(args)

	// Reports
	case "report_render":
		return s.handleReportRender(args)

	default:
		return nil, invalidParams("unknown tool: %s", name)
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

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := strings.TrimSpace(string(args))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramsError{err: err}
	}
	return nil
}

func parseHexArg(field, value string) (colorspace.RGBColor, error) {
	if value == "" {
		return colorspace.RGBColor{}, invalidParams("%s is required", field)
	}
	rgb, err := colorspace.ParseHex(value)
	if err != nil {
		return colorspace.RGBColor{}, invalidParams("%s: %v", field, err)
	}
	return rgb, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidParams("id is required")
	}
	return nil
}

// === Color Science Handlers ===

type colorToLabArgs struct {
	Hex string `json:"hex"`
}

type colorInfo struct {
	Hex          string              `json:"hex"`
	RGB          colorspace.RGBColor `json:"rgb"`
	XYZ          colorspace.XYZColor `json:"xyz"`
	Lab          colorspace.LabColor `json:"lab"`
	ContrastText string              `json:"contrast_text"`
}

func (s *Server) handleColorToLab(args json.RawMessage) (interface{}, error) {
	var a colorToLabArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	rgb, err := parseHexArg("hex", a.Hex)
	if err != nil {
		return nil, err
	}
	return colorInfo{
		Hex:          rgb.Hex(),
		RGB:          rgb,
		XYZ:          colorspace.ToXYZ(rgb),
		Lab:          colorspace.ToLab(rgb),
		ContrastText: rgb.ContrastText(),
	}, nil
}

type colorDeltaEArgs struct {
	Hex1 string `json:"hex1"`
	Hex2 string `json:"hex2"`
}

type deltaEResult struct {
	Hex1   string  `json:"hex1"`
	Hex2   string  `json:"hex2"`
	DeltaE float64 `json:"delta_e"`
}

func (s *Server) handleColorDeltaE(args json.RawMessage) (interface{}, error) {
	var a colorDeltaEArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	c1, err := parseHexArg("hex1", a.Hex1)
	if err != nil {
		return nil, err
	}
	c2, err := parseHexArg("hex2", a.Hex2)
	if err != nil {
		return nil, err
	}
	return deltaEResult{
		Hex1:   c1.Hex(),
		Hex2:   c2.Hex(),
		DeltaE: deltae.BetweenRGB(c1, c2),
	}, nil
}

type colorMatchArgs struct {
	Sample struct {
		Hex        string  `json:"hex"`
		Percentage float64 `json:"percentage"`
	} `json:"sample"`
	References []struct {
		Name        string `json:"name"`
		Hex         string `json:"hex"`
		Description string `json:"description"`
	} `json:"references"`
	Tolerance *float64 `json:"tolerance"`
}

func (s *Server) handleColorMatch(args json.RawMessage) (interface{}, error) {
	var a colorMatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	rgb, err := parseHexArg("sample.hex", a.Sample.Hex)
	if err != nil {
		return nil, err
	}
	if a.Sample.Percentage < 0 || a.Sample.Percentage > 100 {
		return nil, invalidParams("sample.percentage must be within 0-100, got %g", a.Sample.Percentage)
	}
	tolerance := s.defaultTolerance
	if a.Tolerance != nil {
		if *a.Tolerance < 0 {
			return nil, invalidParams("tolerance must not be negative, got %g", *a.Tolerance)
		}
		tolerance = *a.Tolerance
	}

	refs := make([]matcher.ReferenceColor, 0, len(a.References))
	for i, r := range a.References {
		refRGB, err := parseHexArg(fmt.Sprintf("references[%d].hex", i), r.Hex)
		if err != nil {
			return nil, err
		}
		ref := matcher.NewReferenceColor(r.Name, refRGB)
		ref.Description = r.Description
		refs = append(refs, ref)
	}

	return s.policy.Match(matcher.NewSampleColor(rgb, a.Sample.Percentage), refs, tolerance)
}

// === Image Handlers ===

type imageSourceArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load returns the image named by path, or the decoded upload.
func (s *Server) load(src imageSourceArgs) (image.Image, error) {
	switch {
	case src.Path != "":
		return s.cache.Load(src.Path)
	case src.ImageBase64 != "":
		img, _, err := imaging.DecodeBase64(src.ImageBase64)
		return img, err
	}
	return nil, invalidParams("path or image_base64 is required")
}

type extractArgs struct {
	Count     int             `json:"count"`
	Method    string          `json:"method"`
	Threshold int             `json:"threshold"`
	MaxSize   int             `json:"max_size"`
	Region    *imaging.Region `json:"region"`
}

// options converts the arguments to extraction overrides. Zero values leave
// the configured defaults in place.
func (a extractArgs) options() (imaging.ExtractOptions, error) {
	var opts imaging.ExtractOptions
	if a.Method != "" {
		method, err := imaging.ParseMethod(a.Method)
		if err != nil {
			return opts, invalidParams("%v", err)
		}
		opts.Method = method
	}
	if a.Count < 0 || a.Threshold < 0 || a.MaxSize < 0 {
		return opts, invalidParams("count, threshold and max_size must not be negative")
	}
	opts.Count = a.Count
	opts.Threshold = a.Threshold
	opts.MaxSize = a.MaxSize
	opts.Region = a.Region
	return opts, nil
}

type imageExtractColorsArgs struct {
	imageSourceArgs
	extractArgs
}

func (s *Server) handleImageExtractColors(args json.RawMessage) (interface{}, error) {
	var a imageExtractColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	img, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, err
	}
	return imaging.ExtractColors(img, s.extract.Merge(opts))
}

type imageAnalyzeArgs struct {
	imageSourceArgs
	extractArgs
	FileName  string `json:"file_name"`
	ProfileID string `json:"profile_id"`
}

func (s *Server) handleImageAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.analyzer == nil {
		return nil, errors.New("analysis is not available")
	}

	var a imageAnalyzeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ProfileID == "" {
		return nil, invalidParams("profile_id is required")
	}
	if a.Path == "" && a.ImageBase64 == "" {
		return nil, invalidParams("path or image_base64 is required")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}

	return s.analyzer.Analyze(ctx, analysis.Request{
		Path:        a.Path,
		ImageBase64: a.ImageBase64,
		FileName:    a.FileName,
		ProfileID:   a.ProfileID,
		Extract:     opts,
	})
}

// === Brand Profile Handlers ===

type profileArgs struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Tolerance float64            `json:"tolerance"`
	Colors    []store.BrandColor `json:"colors"`
}

func (a profileArgs) input() store.ProfileInput {
	return store.ProfileInput{Name: a.Name, Tolerance: a.Tolerance, Colors: a.Colors}
}

// profileError reports validation failures as invalid params.
func profileError(err error) error {
	if errors.Is(err, store.ErrInvalidProfile) {
		return &paramsError{err: err}
	}
	return err
}

func (s *Server) handleProfileCreate(args json.RawMessage) (interface{}, error) {
	var a profileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProfile(a.input())
	if err != nil {
		return nil, profileError(err)
	}
	log.Info().Str("id", p.ID).Str("name", p.Name).Int("colors", len(p.Colors)).Msg("profile created")
	return p, nil
}

func (s *Server) handleProfileGet(args json.RawMessage) (interface{}, error) {
	var a profileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireID(a.ID); err != nil {
		return nil, err
	}
	return s.store.GetProfile(a.ID)
}

type profileListResult struct {
	Profiles []store.BrandProfile `json:"profiles"`
	Count    int                  `json:"count"`
}

func (s *Server) handleProfileList(args json.RawMessage) (interface{}, error) {
	profiles := s.store.ListProfiles()
	if profiles == nil {
		profiles = []store.BrandProfile{}
	}
	return profileListResult{Profiles: profiles, Count: len(profiles)}, nil
}

func (s *Server) handleProfileUpdate(args json.RawMessage) (interface{}, error) {
	var a profileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireID(a.ID); err != nil {
		return nil, err
	}
	p, err := s.store.UpdateProfile(a.ID, a.input())
	if err != nil {
		return nil, profileError(err)
	}
	log.Info().Str("id", p.ID).Str("name", p.Name).Msg("profile updated")
	return p, nil
}

type deleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) handleProfileDelete(args json.RawMessage) (interface{}, error) {
	var a profileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireID(a.ID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteProfile(a.ID); err != nil {
		return nil, err
	}
	log.Info().Str("id", a.ID).Msg("profile deleted")
	return deleteResult{ID: a.ID, Deleted: true}, nil
}

// === History Handlers ===

type historyListArgs struct {
	Limit *int `json:"limit"`
}

type historyListResult struct {
	Records []store.AnalysisRecord `json:"records"`
	Count   int                    `json:"count"`
}

func (s *Server) handleHistoryList(args json.RawMessage) (interface{}, error) {
	var a historyListArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit := DefaultHistoryLimit
	if a.Limit != nil {
		if *a.Limit < 0 {
			return nil, invalidParams("limit must not be negative, got %d", *a.Limit)
		}
		limit = *a.Limit
	}

	records := s.store.ListHistory(limit)
	if records == nil {
		records = []store.AnalysisRecord{}
	}
	return historyListResult{Records: records, Count: len(records)}, nil
}

type historyGetArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleHistoryGet(args json.RawMessage) (interface{}, error) {
	var a historyGetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireID(a.ID); err != nil {
		return nil, err
	}
	return s.store.GetRecord(a.ID)
}

// === Report Handlers ===

type reportRenderArgs struct {
	Analysis *analysis.Result `json:"analysis"`
	Format   string           `json:"format"`
}

type reportResult struct {
	Format  report.Format `json:"format"`
	Content string        `json:"content"`
}

func (s *Server) handleReportRender(args json.RawMessage) (interface{}, error) {
	var a reportRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Analysis == nil {
		return nil, invalidParams("analysis is required")
	}
	format, err := report.ParseFormat(a.Format)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	content, err := report.Render(a.Analysis, format)
	if err != nil {
		return nil, err
	}
	return reportResult{Format: format, Content: content}, nil
}
