// Package server implements the MCP (Model Context Protocol) server for the
// pixel cleanup tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
// Image information:
//   - image_load: Dimensions, format and pixel statistics
//   - pixel_unique_colors: Colour histogram
//   - pixel_find_components: Connected regions
//   - pixel_find_contours: Shape boundaries
//   - pixel_compare: Difference between two images
//
// Cleanup operations:
//   - pixel_remove_strays
//   - pixel_reduce_colors
//   - pixel_crispen_edges
//   - pixel_smooth_edges
//   - pixel_normalize_lines
//   - pixel_perfect_outline
//   - pixel_morphology
//
// Pipeline:
//   - pixel_clean_logo: Preset-driven multi-stage cleanup
//   - pixel_list_presets
//
// Every cleanup tool returns a base64 PNG preview of the result together
// with a change summary, and writes the result to output_path when given.
// Source images are never modified in place.
//
// # Execution
//
// Cleanup operations run through a worker.Fallback: images of at least
// Config.OffloadPixels pixels go to a goroutine pool, smaller ones and any
// pool failure run in the request goroutine.
//
// # Configuration
//
// ConfigFromEnv reads:
//   - PIXEL_CLEANUP_LOG_LEVEL: "debug" logs requests and pipeline progress
//   - PIXEL_CLEANUP_WORKERS: pool size; 0 for GOMAXPROCS, negative to disable
//   - PIXEL_CLEANUP_OFFLOAD_PIXELS: smallest image sent to the pool
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
