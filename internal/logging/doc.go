// Package logging provides file-based structured logging with rotation.
// Logs are JSON lines written to ~/.patrology/logs/patrology.log; with --debug
// they are mirrored to stderr as well. The `serve` command never writes logs to
// stderr or stdout because stdout carries the MCP protocol stream.
package logging
