// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-kb. It lets AI assistants ingest documents and ask questions
// about them.
package mcp

import "errors"

// ErrMissingPipelines is returned when no pipeline opener is provided.
var ErrMissingPipelines = errors.New("mcp: pipeline opener is required")
