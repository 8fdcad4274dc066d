// Package server implements the MCP (Model Context Protocol) server for brand
// color validation.
//
// The server speaks JSON-RPC 2.0 over stdio:
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
// Color Science:
//   - color_to_lab: Convert a hex color to RGB, XYZ and Lab
//   - color_delta_e: CIEDE2000 distance between two colors
//   - color_match: Closest reference color under the area-weighted tolerance
//
// Image Operations:
//   - image_extract_colors: Dominant colors and their area share
//   - image_analyze: Full compliance check against a brand profile
//
// Brand Profiles:
//   - profile_create, profile_get, profile_list, profile_update, profile_delete
//
// History:
//   - history_list: Past analyses, newest first
//   - history_get: One past analysis
//
// Reports:
//   - report_render: HTML or Markdown report of an image_analyze result
//
// # Error Handling
//
// Lines that are not valid JSON are logged and skipped. Errors are returned as
// JSON-RPC error responses:
//   - -32601: unknown method
//   - -32602: malformed or missing tool arguments, invalid profiles
//   - -32000: tool execution failure (missing file, unknown profile, empty
//     reference list)
//
// The data field carries the Go error string.
//
// # Usage
//
//	srv := server.New(server.Config{Analyzer: a, Store: st, Cache: cache})
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal().Err(err).Msg("server failed")
//	}
package server
