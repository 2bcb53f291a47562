// Package server exposes text extraction over MCP (stdio) and HTTP.
//
// # MCP
//
// The MCP server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Tools:
//   - text_extract: words and bounding boxes for a whole image
//   - text_extract_region: the same, limited to a rectangle
//   - text_annotate: draw the extracted boxes onto a copy of the image
//   - image_grid_overlay: coordinate grid for choosing a region
//   - engine_info: engine name, availability and version
//
// Tool failures are JSON-RPC errors with code -32000. Their data holds the
// error message, the request ID and, for extraction failures, the
// error_code (IMAGE_LOAD_ERROR, ENGINE_UNAVAILABLE or ENGINE_FAILURE).
//
// # HTTP
//
// HTTPHandler serves the same extraction through gin:
//
//	GET  /health
//	GET  /v1/engine
//	POST /v1/extract   multipart "image" upload, or JSON {"path": "...", "region": {...}}
//
// Error codes map to 422 (image load), 503 (engine unavailable) and 502
// (engine failure). Every response carries an X-Request-ID header.
//
// Images are read from disk on every call; nothing is cached.
package server
