// Package configs embeds the configuration templates written by
// `scout config init --example`.
package configs

import _ "embed"

// ProjectConfigTemplate is a commented .scout.yaml with a sample mapping.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
