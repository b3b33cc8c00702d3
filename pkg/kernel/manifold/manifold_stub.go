//go:build !manifold

// Package manifold binds the Manifold C library as a Boolean backend.
// When the "manifold" build tag is not set, this stub is compiled instead
// and New() reports the backend as unavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/dentin/pkg/kernel"
)

// New returns an error indicating Manifold is not available.
// Build with -tags=manifold to enable.
func New() (kernel.Kernel, error) {
	return nil, errors.New("manifold kernel not available: build with -tags=manifold")
}
