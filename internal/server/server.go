package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/ironsheep/color-validator-mcp/internal/analysis"
	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// ProtocolVersion is the MCP revision announced by initialize.
const ProtocolVersion = "2024-11-05"

// maxRequestSize bounds a single request line. Uploaded images travel inline
// as base64, so the limit is generous.
const maxRequestSize = 32 * 1024 * 1024

// Config holds the collaborators of a Server.
type Config struct {
	Analyzer *analysis.Analyzer
	Store    *store.Store

	// Cache is shared with the analyzer so extraction and analysis of the
	// same path decode the file once. A new cache is used when nil.
	Cache *imaging.ImageCache

	// Extract holds the default settings of image_extract_colors.
	Extract imaging.ExtractOptions

	// DefaultTolerance is the color_match tolerance when none is given.
	// Falls back to the store's default, then store.DefaultTolerance.
	DefaultTolerance float64

	// Version is reported in serverInfo.
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	analyzer *analysis.Analyzer
	store    *store.Store
	cache    *imaging.ImageCache
	policy   matcher.Policy
	extract  imaging.ExtractOptions
	version  string

	defaultTolerance float64

	requests atomic.Int64
	failures atomic.Int64
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeToolFailure    = -32000
)

// New creates a new MCP server instance
func New(cfg Config) *Server {
	cache := cfg.Cache
	if cache == nil {
		cache = imaging.NewImageCache()
	}

	policy := matcher.DefaultPolicy
	if cfg.Analyzer != nil {
		policy = cfg.Analyzer.Policy()
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	tolerance := cfg.DefaultTolerance
	if tolerance <= 0 {
		tolerance = store.DefaultTolerance
		if cfg.Store != nil {
			tolerance = cfg.Store.DefaultTolerance()
		}
	}

	return &Server{
		analyzer: cfg.Analyzer,
		store:    cfg.Store,
		cache:    cache,
		policy:   policy,
		extract:  cfg.Extract,
		version:  version,

		defaultTolerance: tolerance,
	}
}

// Requests returns the number of requests handled so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Failures returns the number of tool calls that returned an error.
func (s *Server) Failures() int64 {
	return s.failures.Load()
}

// Run reads one JSON-RPC request per line from r and writes the responses to
// w until r is exhausted or ctx is done. Lines that are not valid JSON are
// logged and skipped.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestSize)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn().Err(err).Int("code", CodeParseError).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Error().Err(err).Str("method", req.Method).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	log.Info().Int64("requests", s.Requests()).Int64("failures", s.Failures()).Msg("input closed")
	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.requests.Inc()
	log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    CodeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "color-validator-mcp",
				"version": s.version,
			},
		},
	}
}
