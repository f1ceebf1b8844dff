// Package mcp implements the Model Context Protocol (MCP) server for patrology.
package mcp

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
)

// Custom MCP error codes for patrology.
const (
	// ErrCodeNotFound indicates the requested author or chapter does not exist.
	ErrCodeNotFound = -32001

	// ErrCodeStoreUnavailable indicates the corpus store could not be read.
	ErrCodeStoreUnavailable = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrMetricsUnavailable indicates telemetry is disabled for this server.
	ErrMetricsUnavailable = errors.New("query metrics not available")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors. Query errors become
// invalid-params errors carrying the query message; everything else is
// reported as an internal or store failure without its cause chain.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrMetricsUnavailable):
		return &MCPError{Code: ErrCodeInvalidRequest, Message: "Query metrics are not enabled."}
	}

	if pe, ok := perrors.As(err); ok {
		return mapPatrologyError(pe)
	}
	return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapPatrologyError(pe *perrors.PatrologyError) *MCPError {
	message := pe.Message
	if pe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", pe.Message, pe.Suggestion)
	}

	switch pe.Category {
	case perrors.CategoryQuery:
		if pe.Code == perrors.ErrCodeNotFound {
			return &MCPError{Code: ErrCodeNotFound, Message: message}
		}
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case perrors.CategoryStore:
		return &MCPError{Code: ErrCodeStoreUnavailable, Message: "Corpus store unavailable."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}
