// Package field builds signed-distance grids from scanned arch surfaces and
// extracts offset shells from them. A guide body is the set of points whose
// distance to the scan lies between the tissue gap and the tissue gap plus
// the shell thickness; the grid samples that distance once and the shell is
// pulled out of it as an isosurface.
package field

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/dentin/pkg/geom"
)

// GeometryError reports a failed shell extraction along with the offset
// levels and bounds that were attempted, so the caller can retry with a
// finer voxel size or a thicker shell.
type GeometryError struct {
	Inner     float64 // tissue-facing offset level, mm
	Outer     float64 // outward offset level, mm
	BoundsMin geom.Vec3
	BoundsMax geom.Vec3
	Message   string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("shell extraction: %s (levels %g..%g mm, bounds %s..%s)",
		e.Message, e.Inner, e.Outer, e.BoundsMin, e.BoundsMax)
}

// Field is a regular grid of signed distances to a reference surface,
// negative inside it. Node (i, j, k) sits at Origin + VoxelSize*(i, j, k);
// values are stored x-fastest.
type Field struct {
	Origin    geom.Vec3
	VoxelSize float64
	Nx        int
	Ny        int
	Nz        int
	Values    []float64
}

var _ sdf.SDF3 = (*Field)(nil)

func (f *Field) index(i, j, k int) int {
	return (k*f.Ny+j)*f.Nx + i
}

// At returns the stored distance at node (i, j, k).
func (f *Field) At(i, j, k int) float64 {
	return f.Values[f.index(i, j, k)]
}

// Interp returns the trilinearly interpolated distance at p. Coordinates
// outside the grid clamp to the boundary, so far-away queries return the
// positive edge distance instead of extrapolating.
func (f *Field) Interp(p geom.Vec3) float64 {
	gx := clamp((p.X-f.Origin.X)/f.VoxelSize, 0, float64(f.Nx-1))
	gy := clamp((p.Y-f.Origin.Y)/f.VoxelSize, 0, float64(f.Ny-1))
	gz := clamp((p.Z-f.Origin.Z)/f.VoxelSize, 0, float64(f.Nz-1))

	i0, j0, k0 := int(gx), int(gy), int(gz)
	i1, j1, k1 := i0+1, j0+1, k0+1
	if i1 > f.Nx-1 {
		i1 = f.Nx - 1
	}
	if j1 > f.Ny-1 {
		j1 = f.Ny - 1
	}
	if k1 > f.Nz-1 {
		k1 = f.Nz - 1
	}
	tx := gx - float64(i0)
	ty := gy - float64(j0)
	tz := gz - float64(k0)

	c00 := lerp(f.At(i0, j0, k0), f.At(i1, j0, k0), tx)
	c10 := lerp(f.At(i0, j1, k0), f.At(i1, j1, k0), tx)
	c01 := lerp(f.At(i0, j0, k1), f.At(i1, j0, k1), tx)
	c11 := lerp(f.At(i0, j1, k1), f.At(i1, j1, k1), tx)
	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

// Evaluate implements sdf.SDF3.
func (f *Field) Evaluate(p v3.Vec) float64 {
	return f.Interp(geom.Vec3{X: p.X, Y: p.Y, Z: p.Z})
}

// BoundingBox implements sdf.SDF3.
func (f *Field) BoundingBox() sdf.Box3 {
	max := geom.Vec3{
		X: f.Origin.X + f.VoxelSize*float64(f.Nx-1),
		Y: f.Origin.Y + f.VoxelSize*float64(f.Ny-1),
		Z: f.Origin.Z + f.VoxelSize*float64(f.Nz-1),
	}
	return sdf.Box3{
		Min: v3.Vec{X: f.Origin.X, Y: f.Origin.Y, Z: f.Origin.Z},
		Max: v3.Vec{X: max.X, Y: max.Y, Z: max.Z},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
