// Package schema provides embedded JSON schemas for the downstream
// configuration and package index documents.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
