// Package middleware wraps a RunStore with cross-cutting persistence
// behavior: encryption at rest and PII masking of collected answers.
package middleware

import "github.com/mehdry/flowline/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore
