// Package validate checks mesh health for printability and applies bounded
// repair when checks fail. Checks are independent: every failure and
// warning is reported in one pass rather than stopping at the first, so a
// single report names everything wrong with a mesh.
package validate

import (
	"fmt"

	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

const (
	// minFaceArea is the degenerate-face threshold.
	minFaceArea = 1e-10

	// mergeSpacing is the coincident-vertex snap distance used by repair.
	mergeSpacing = 1e-8
)

// Issue is one validation finding.
type Issue struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Metrics captures the measurements taken during validation.
type Metrics struct {
	VertexCount         int        `json:"vertex_count"`
	FaceCount           int        `json:"face_count"`
	VolumeMM3           float64    `json:"volume_mm3"`
	SurfaceAreaMM2      float64    `json:"surface_area_mm2"`
	IsWatertight        bool       `json:"is_watertight"`
	IsVolume            bool       `json:"is_volume"`
	EulerCharacteristic int        `json:"euler_characteristic"`
	BBoxMin             [3]float64 `json:"bounding_box_min"`
	BBoxMax             [3]float64 `json:"bounding_box_max"`
}

// Result reports every check outcome. Errors block; warnings do not.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Metrics  Metrics `json:"metrics"`
}

// OK reports whether the mesh passed all blocking checks.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Check runs every enabled check against m and reports all findings.
func Check(m *geom.TriMesh, cfg plan.ValidationConfig) Result {
	var res Result
	if m == nil || m.VertexCount() == 0 {
		res.Errors = append(res.Errors, Issue{Check: "empty", Message: "mesh has no vertices"})
		return res
	}
	if m.FaceCount() == 0 {
		res.Errors = append(res.Errors, Issue{Check: "empty", Message: "mesh has no faces"})
		return res
	}
	res.Metrics.VertexCount = m.VertexCount()
	res.Metrics.FaceCount = m.FaceCount()

	// Out-of-range indices make every later check unsafe.
	if err := m.Validate(); err != nil {
		res.Errors = append(res.Errors, Issue{Check: "indices", Message: err.Error()})
		return res
	}

	if n := geom.DegenerateFaceCount(m, minFaceArea); n > 0 {
		res.Warnings = append(res.Warnings, Issue{
			Check:   "degenerate",
			Message: fmt.Sprintf("found %d degenerate faces (area < %g)", n, minFaceArea),
		})
	}

	watertight := geom.IsWatertight(m)
	res.Metrics.IsWatertight = watertight
	if cfg.CheckWatertight && !watertight {
		res.Errors = append(res.Errors, Issue{
			Check:   "watertight",
			Message: "mesh is not watertight (has holes or non-manifold edges)",
		})
	}

	isVolume := geom.IsVolume(m)
	res.Metrics.IsVolume = isVolume
	if isVolume {
		res.Metrics.VolumeMM3 = geom.SignedVolume(m)
	}
	res.Metrics.SurfaceAreaMM2 = geom.SurfaceArea(m)
	if !isVolume {
		res.Errors = append(res.Errors, Issue{
			Check:   "volume",
			Message: "mesh does not enclose a valid volume",
		})
	}

	euler := geom.EulerCharacteristic(m)
	res.Metrics.EulerCharacteristic = euler
	if euler != 2 {
		res.Warnings = append(res.Warnings, Issue{
			Check:   "euler",
			Message: fmt.Sprintf("Euler characteristic is %d, expected 2 for a closed surface", euler),
		})
	}

	if cfg.CheckSelfIntersection {
		if n := selfIntersections(m); n > 0 {
			res.Warnings = append(res.Warnings, Issue{
				Check:   "self_intersection",
				Message: fmt.Sprintf("found %d self-intersecting triangle pairs", n),
			})
		}
	}

	lo, hi := m.BoundingBox()
	res.Metrics.BBoxMin = [3]float64{lo.X, lo.Y, lo.Z}
	res.Metrics.BBoxMax = [3]float64{hi.X, hi.Y, hi.Z}
	return res
}

func selfIntersections(m *geom.TriMesh) int {
	tris := make([]*model3d.Triangle, 0, len(m.Faces))
	for i := range m.Faces {
		if m.FaceArea(i) < minFaceArea {
			continue
		}
		a, b, c := m.FaceVertices(i)
		tris = append(tris, &model3d.Triangle{
			{X: a.X, Y: a.Y, Z: a.Z},
			{X: b.X, Y: b.Y, Z: b.Z},
			{X: c.X, Y: c.Y, Z: c.Z},
		})
	}
	if len(tris) == 0 {
		return 0
	}
	return model3d.NewMeshTriangles(tris).SelfIntersections()
}
