//go:build manifold

// Package manifold binds the Manifold C library
// (https://github.com/elalish/manifold) as a Boolean backend. Manifold
// guarantees manifold output topology, making it the preferred backend
// when the native library is installed.
//
// This package requires the manifoldc shared library. Build with:
// go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// Kernel is the Manifold-backed Boolean backend.
type Kernel struct{}

// New returns a Manifold kernel.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

// Difference returns the solid a minus b.
func (k *Kernel) Difference(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	sa, err := toSolid(a)
	if err != nil {
		return nil, errors.Wrap(err, "difference operand a")
	}
	sb, err := toSolid(b)
	if err != nil {
		return nil, errors.Wrap(err, "difference operand b")
	}
	alloc := C.manifold_alloc_manifold()
	out := newSolid(C.manifold_difference(alloc, sa.ptr, sb.ptr))
	runtime.KeepAlive(sa)
	runtime.KeepAlive(sb)
	return fromSolid(out), nil
}

// Union returns the solid a joined with b.
func (k *Kernel) Union(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	sa, err := toSolid(a)
	if err != nil {
		return nil, errors.Wrap(err, "union operand a")
	}
	sb, err := toSolid(b)
	if err != nil {
		return nil, errors.Wrap(err, "union operand b")
	}
	alloc := C.manifold_alloc_manifold()
	out := newSolid(C.manifold_union(alloc, sa.ptr, sb.ptr))
	runtime.KeepAlive(sa)
	runtime.KeepAlive(sb)
	return fromSolid(out), nil
}

// IsValidVolume reports whether m is watertight, consistently wound, and
// encloses positive volume.
func (k *Kernel) IsValidVolume(m *geom.TriMesh) bool {
	return m != nil && geom.IsVolume(m)
}

// solid wraps a C ManifoldManifold pointer; the finalizer releases the C
// allocation when the Go wrapper is collected.
type solid struct {
	ptr *C.ManifoldManifold
}

func newSolid(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// toSolid uploads a triangle mesh as a MeshGL and constructs a Manifold
// from it. Manifold rejects meshes that are not already closed and
// consistently oriented; that rejection surfaces here as an error.
func toSolid(m *geom.TriMesh) (*solid, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("empty mesh")
	}
	props := make([]float32, 3*len(m.Vertices))
	for i, v := range m.Vertices {
		props[3*i+0] = float32(v.X)
		props[3*i+1] = float32(v.Y)
		props[3*i+2] = float32(v.Z)
	}
	tris := make([]uint32, 3*len(m.Faces))
	for i, f := range m.Faces {
		tris[3*i+0] = uint32(f[0])
		tris[3*i+1] = uint32(f[1])
		tris[3*i+2] = uint32(f[2])
	}

	meshAlloc := C.manifold_alloc_meshgl()
	mgl := C.manifold_meshgl(meshAlloc,
		(*C.float)(unsafe.Pointer(&props[0])),
		C.size_t(len(m.Vertices)),
		C.size_t(3),
		(*C.uint32_t)(unsafe.Pointer(&tris[0])),
		C.size_t(len(m.Faces)),
	)
	defer C.manifold_delete_meshgl(mgl)

	alloc := C.manifold_alloc_manifold()
	s := newSolid(C.manifold_of_meshgl(alloc, mgl))
	if status := C.manifold_status(s.ptr); status != C.MANIFOLD_NO_ERROR {
		return nil, errors.Errorf("mesh rejected by manifold: status %d", int(status))
	}
	if C.manifold_is_empty(s.ptr) != 0 {
		return nil, errors.New("mesh encloses no volume")
	}
	return s, nil
}

// fromSolid extracts the MeshGL of s. MeshGL interleaves numProp float
// properties per vertex with position always in the first three slots.
func fromSolid(s *solid) *geom.TriMesh {
	meshAlloc := C.manifold_alloc_meshgl()
	mgl := C.manifold_get_meshgl(meshAlloc, s.ptr)
	defer C.manifold_delete_meshgl(mgl)
	runtime.KeepAlive(s)

	numVert := int(C.manifold_meshgl_num_vert(mgl))
	numTri := int(C.manifold_meshgl_num_tri(mgl))
	if numVert == 0 || numTri == 0 {
		return &geom.TriMesh{}
	}
	numProp := int(C.manifold_meshgl_num_prop(mgl))

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), mgl)
	idx := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&idx[0])), mgl)

	verts := make([]geom.Vec3, numVert)
	for i := 0; i < numVert; i++ {
		base := i * numProp
		verts[i] = geom.Vec3{
			X: float64(props[base+0]),
			Y: float64(props[base+1]),
			Z: float64(props[base+2]),
		}
	}
	faces := make([][3]int, numTri)
	for i := 0; i < numTri; i++ {
		faces[i] = [3]int{int(idx[3*i]), int(idx[3*i+1]), int(idx[3*i+2])}
	}
	return geom.NewTriMesh(verts, faces)
}
