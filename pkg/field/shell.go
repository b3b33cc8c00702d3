package field

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
	"github.com/chazu/dentin/pkg/validate"
)

const (
	// boundsMargin extends the sampled bounds past the outer offset level
	// so the shell isosurface never touches the grid boundary.
	boundsMargin = 2.0

	// weldSpacing pairs up marching-cubes vertices shared between cells.
	weldSpacing = 1e-6

	// pinholeEdges bounds the hole size closed after extraction; larger
	// holes indicate a real resolution problem, not a seam artifact.
	pinholeEdges = 8
)

// Build samples a signed-distance grid for the surface over its bounds
// expanded by thickness + tissue gap + a fixed margin. Grid slabs are
// sampled in parallel; cancellation is honored between slabs.
func Build(ctx context.Context, m *geom.TriMesh, cfg plan.GuideConfig) (*Field, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("empty surface mesh")
	}
	smp, err := newSampler(m)
	if err != nil {
		return nil, errors.Wrap(err, "index surface")
	}

	lo, hi := m.BoundingBox()
	pad := cfg.Thickness + cfg.TissueGap + boundsMargin
	ext := hi.Sub(lo)
	f := &Field{
		Origin:    lo.Sub(geom.Vec3{X: pad, Y: pad, Z: pad}),
		VoxelSize: cfg.VoxelSize,
		Nx:        gridNodes(ext.X+2*pad, cfg.VoxelSize),
		Ny:        gridNodes(ext.Y+2*pad, cfg.VoxelSize),
		Nz:        gridNodes(ext.Z+2*pad, cfg.VoxelSize),
	}
	f.Values = make([]float64, f.Nx*f.Ny*f.Nz)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k := 0; k < f.Nz; k++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			return f.fillSlab(gctx, smp, k)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The launch loop stops early on cancellation without any slab having
	// reported it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Field) fillSlab(ctx context.Context, smp *sampler, k int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	z := f.Origin.Z + float64(k)*f.VoxelSize
	for j := 0; j < f.Ny; j++ {
		y := f.Origin.Y + float64(j)*f.VoxelSize
		for i := 0; i < f.Nx; i++ {
			p := geom.Vec3{X: f.Origin.X + float64(i)*f.VoxelSize, Y: y, Z: z}
			d := smp.distance(p)
			if smp.inside(p) {
				d = -d
			}
			f.Values[f.index(i, j, k)] = d
		}
	}
	return nil
}

// shellSolid is the implicit guide body: points whose distance to the
// reference surface lies between the two offset levels.
type shellSolid struct {
	field *Field
	inner float64
	outer float64
}

var _ sdf.SDF3 = (*shellSolid)(nil)

func (s *shellSolid) Evaluate(p v3.Vec) float64 {
	d := s.field.Evaluate(p)
	return math.Max(d-s.outer, s.inner-d)
}

func (s *shellSolid) BoundingBox() sdf.Box3 {
	return s.field.BoundingBox()
}

// ExtractShell meshes the offset band [tissue gap, tissue gap + thickness]
// of the field. A closed reference surface yields a hollow solid whose two
// nested walls are both closed; the result is rejected unless it is a
// watertight, positive-volume mesh covering a single connected region of
// the grid.
func ExtractShell(f *Field, cfg plan.GuideConfig) (*geom.TriMesh, error) {
	inner := cfg.TissueGap
	outer := cfg.TissueGap + cfg.Thickness
	bb := f.BoundingBox()
	fail := func(msg string) *GeometryError {
		return &GeometryError{
			Inner:     inner,
			Outer:     outer,
			BoundsMin: geom.Vec3{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
			BoundsMax: geom.Vec3{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
			Message:   msg,
		}
	}

	switch regions := f.bandRegions(inner, outer); {
	case regions == 0:
		return nil, fail("offset level set is empty")
	case regions > 1:
		return nil, fail(fmt.Sprintf("offset shell splits into %d disconnected fragments", regions))
	}

	solid := &shellSolid{field: f, inner: inner, outer: outer}
	tris := render.ToTriangles(solid, render.NewMarchingCubesUniform(mcCells(f)))
	if len(tris) == 0 {
		return nil, fail("marching cubes produced no surface")
	}

	mesh := meshFromTriangles(tris)
	if !geom.IsWatertight(mesh) {
		mesh, _ = geom.CloseHoles(mesh, pinholeEdges)
	}
	mesh, _ = geom.Reorient(mesh)
	if mesh.IsEmpty() || !geom.IsWatertight(mesh) {
		return nil, fail("extracted shell is not watertight")
	}
	if geom.SignedVolume(mesh) <= 0 {
		return nil, fail("extracted shell encloses no volume")
	}
	return mesh, nil
}

// OffsetShellFromSurface builds the distance field for a scan surface and
// extracts its offset shell in one call. A surface that does not already
// enclose a volume is repaired first; if repair cannot close it the build
// is rejected rather than producing a shell with an undefined inside.
func OffsetShellFromSurface(ctx context.Context, m *geom.TriMesh, cfg plan.GuideConfig) (*geom.TriMesh, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("empty surface mesh")
	}
	surface := m
	if !geom.IsVolume(surface) {
		surface = validate.Repair(surface, plan.DefaultValidationConfig()).Mesh
		if !geom.IsVolume(surface) {
			lo, hi := m.BoundingBox()
			return nil, &GeometryError{
				Inner:     cfg.TissueGap,
				Outer:     cfg.TissueGap + cfg.Thickness,
				BoundsMin: lo,
				BoundsMax: hi,
				Message:   "surface is not a closed volume after repair",
			}
		}
	}
	f, err := Build(ctx, surface, cfg)
	if err != nil {
		return nil, err
	}
	return ExtractShell(f, cfg)
}

// bandRegions counts 6-connected components of grid nodes whose value lies
// in [inner, outer].
func (f *Field) bandRegions(inner, outer float64) int {
	inBand := func(v float64) bool { return v >= inner && v <= outer }
	seen := make([]bool, len(f.Values))
	var stack []int
	regions := 0
	for start, v := range f.Values {
		if seen[start] || !inBand(v) {
			continue
		}
		regions++
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i := idx % f.Nx
			j := (idx / f.Nx) % f.Ny
			k := idx / (f.Nx * f.Ny)
			for _, n := range [6][3]int{
				{i - 1, j, k}, {i + 1, j, k},
				{i, j - 1, k}, {i, j + 1, k},
				{i, j, k - 1}, {i, j, k + 1},
			} {
				if n[0] < 0 || n[0] >= f.Nx || n[1] < 0 || n[1] >= f.Ny || n[2] < 0 || n[2] >= f.Nz {
					continue
				}
				ni := f.index(n[0], n[1], n[2])
				if seen[ni] || !inBand(f.Values[ni]) {
					continue
				}
				seen[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return regions
}

func gridNodes(extent, voxel float64) int {
	n := int(math.Ceil(extent/voxel)) + 1
	if n < 2 {
		n = 2
	}
	return n
}

// mcCells matches the marching-cubes cell size to the sampling pitch.
func mcCells(f *Field) int {
	bb := f.BoundingBox()
	ext := math.Max(bb.Max.X-bb.Min.X, math.Max(bb.Max.Y-bb.Min.Y, bb.Max.Z-bb.Min.Z))
	return int(math.Ceil(ext / f.VoxelSize))
}

func meshFromTriangles(tris []render.Triangle3) *geom.TriMesh {
	verts := make([]geom.Vec3, 0, len(tris)*3)
	faces := make([][3]int, 0, len(tris))
	for _, t := range tris {
		n := len(verts)
		verts = append(verts,
			geom.Vec3{X: t[0].X, Y: t[0].Y, Z: t[0].Z},
			geom.Vec3{X: t[1].X, Y: t[1].Y, Z: t[1].Z},
			geom.Vec3{X: t[2].X, Y: t[2].Y, Z: t[2].Z},
		)
		faces = append(faces, [3]int{n, n + 1, n + 2})
	}
	m := geom.MergeVertices(geom.NewTriMesh(verts, faces), weldSpacing)
	m = geom.RemoveDegenerateFaces(m, minFaceArea)
	return geom.RemoveUnreferencedVertices(m)
}
