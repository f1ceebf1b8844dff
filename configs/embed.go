// Package configs embeds the configuration templates written by
// `patrology config init`.
//
// Configuration precedence (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/patrology/config.yaml)
//  3. Project config (.patrology.yaml)
//  4. Environment variables (PATROLOGY_*)
package configs

import _ "embed"

// UserConfigTemplate is written to the user config path by `config init`.
// It holds machine-wide settings: data directory, workers, telemetry, server.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to .patrology.yaml by
// `config init --project`. It holds per-corpus search tuning.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
