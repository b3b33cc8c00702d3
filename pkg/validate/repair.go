package validate

import (
	"fmt"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

// RepairOutcome is the product of one repair pass: the patched mesh and an
// ordered record of what was done to it.
type RepairOutcome struct {
	Mesh    *geom.TriMesh
	Actions []string
}

// Repair applies the bounded repair sequence to a copy of m: coincident
// vertices are merged, unreferenced and non-finite vertices dropped,
// degenerate faces removed, boundary holes up to cfg.MaxHoleSize closed,
// faces on over-shared edges removed, smaller disconnected components
// discarded, and windings re-oriented outward. The input mesh is never
// mutated. Repair is heuristic: callers re-validate the result instead of
// trusting it.
func Repair(m *geom.TriMesh, cfg plan.ValidationConfig) RepairOutcome {
	if m == nil {
		return RepairOutcome{Mesh: &geom.TriMesh{}}
	}
	out := RepairOutcome{Mesh: m.Clone()}
	if out.Mesh.IsEmpty() {
		return out
	}

	before := out.Mesh.VertexCount()
	out.Mesh = geom.MergeVertices(out.Mesh, mergeSpacing)
	if n := before - out.Mesh.VertexCount(); n > 0 {
		out.record("merged %d coincident vertices", n)
	}

	before = out.Mesh.VertexCount()
	out.Mesh = geom.RemoveUnreferencedVertices(out.Mesh)
	if n := before - out.Mesh.VertexCount(); n > 0 {
		out.record("dropped %d unreferenced vertices", n)
	}

	beforeFaces := out.Mesh.FaceCount()
	out.Mesh = geom.RemoveNonFiniteVertices(out.Mesh)
	if n := beforeFaces - out.Mesh.FaceCount(); n > 0 {
		out.record("dropped %d faces with non-finite vertices", n)
	}

	beforeFaces = out.Mesh.FaceCount()
	out.Mesh = geom.RemoveDegenerateFaces(out.Mesh, minFaceArea)
	if n := beforeFaces - out.Mesh.FaceCount(); n > 0 {
		out.record("removed %d degenerate faces", n)
	}

	var closed int
	out.Mesh, closed = geom.CloseHoles(out.Mesh, cfg.MaxHoleSize)
	if closed > 0 {
		out.record("closed %d boundary holes", closed)
	}

	beforeFaces = out.Mesh.FaceCount()
	out.Mesh = dropOverSharedEdgeFaces(out.Mesh)
	if n := beforeFaces - out.Mesh.FaceCount(); n > 0 {
		out.record("removed %d faces on non-manifold edges", n)
	}

	if comps := geom.FaceComponents(out.Mesh); len(comps) > 1 {
		largest := 0
		for i, c := range comps {
			if len(c) > len(comps[largest]) {
				largest = i
			}
		}
		out.Mesh = geom.SubmeshFromFaces(out.Mesh, comps[largest])
		out.record("kept largest of %d components", len(comps))
	}

	var changed bool
	out.Mesh, changed = geom.Reorient(out.Mesh)
	if changed {
		out.record("re-oriented faces outward")
	}
	return out
}

func (o *RepairOutcome) record(format string, args ...interface{}) {
	o.Actions = append(o.Actions, fmt.Sprintf(format, args...))
}

// dropOverSharedEdgeFaces removes every face incident to an edge shared by
// more than two faces. Hole closing can then re-cover the gap on the next
// pipeline run if one remains.
func dropOverSharedEdgeFaces(m *geom.TriMesh) *geom.TriMesh {
	type edge [2]int
	mk := func(a, b int) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}
	counts := make(map[edge]int, 3*len(m.Faces)/2)
	for _, f := range m.Faces {
		counts[mk(f[0], f[1])]++
		counts[mk(f[1], f[2])]++
		counts[mk(f[2], f[0])]++
	}
	kept := make([]int, 0, len(m.Faces))
	for i, f := range m.Faces {
		if counts[mk(f[0], f[1])] > 2 || counts[mk(f[1], f[2])] > 2 || counts[mk(f[2], f[0])] > 2 {
			continue
		}
		kept = append(kept, i)
	}
	if len(kept) == len(m.Faces) {
		return m
	}
	return geom.SubmeshFromFaces(m, kept)
}
