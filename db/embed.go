// Package db provides the embedded seed catalog.
package db

import _ "embed"

// Products is the default catalog loaded by seed-db, as YAML.
//
//go:embed seed/products.yaml
var Products []byte
