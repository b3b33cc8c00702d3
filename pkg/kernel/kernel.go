// Package kernel defines the abstract Boolean engine interface.
// Implementations (bsp, resample, manifold) provide mesh Boolean operations
// behind this interface. The kernel abstraction allows swapping backends
// without changing the rest of the system.
package kernel

import "github.com/chazu/dentin/pkg/geom"

// Kernel is the Boolean engine capability interface. Operands are handed
// over to the call: a backend may consume or reuse the input meshes, so a
// caller that needs an operand afterwards passes a clone.
type Kernel interface {
	// Difference returns the solid a minus b.
	Difference(a, b *geom.TriMesh) (*geom.TriMesh, error)

	// Union returns the solid a joined with b.
	Union(a, b *geom.TriMesh) (*geom.TriMesh, error)

	// IsValidVolume reports whether m bounds a solid the engine can keep
	// operating on: watertight, consistently oriented, positive volume.
	IsValidVolume(m *geom.TriMesh) bool
}
