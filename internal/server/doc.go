// Package server implements the MCP (Model Context Protocol) server for image composition.
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
//   - image_compose: Combine images horizontally, vertically or in a grid
//   - image_compose_layout: Canvas size and placements without rendering
//   - image_dimensions: Width and height of one image
//
// Images are referenced by file path, http(s) URL, or inline base64 data.
// Compositions go through a dispatch.Dispatcher, so large jobs run on a
// worker when one is configured; the "execution" field of the result
// reports which path produced the image.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	d := dispatch.New(dispatch.Options{})
//	srv := server.New(d, cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
