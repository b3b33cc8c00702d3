// Package window places inspection openings next to each implant site so a
// clinician can visually confirm the guide is fully seated before drilling.
// Windows only make sense with multiple reference points; single-implant
// guides skip them by default.
package window

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/dentin/pkg/csg"
	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

// axialDot is the |direction . up| threshold above which the up reference
// is too parallel to the implant axis to cross against.
const axialDot = 0.9

// Side selects which side of the arch the windows open toward.
type Side int

const (
	Buccal  Side = iota // cheek-facing
	Lingual             // tongue-facing
)

func (s Side) String() string {
	switch s {
	case Buccal:
		return "buccal"
	case Lingual:
		return "lingual"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Enabled reports whether inspection windows apply to this configuration.
func Enabled(cfg plan.GuideConfig, siteCount int) bool {
	return cfg.AddInspectionWindows && siteCount > 1
}

// Perpendicular returns a unit vector perpendicular to the implant axis on
// the requested side. The axis is crossed with vertical; near-axial
// directions fall back to the x axis so the cross product stays
// well-conditioned.
func Perpendicular(direction geom.Vec3, side Side) geom.Vec3 {
	ref := geom.Vec3{Z: 1}
	if math.Abs(direction.Dot(ref)) > axialDot {
		ref = geom.Vec3{X: 1}
	}
	p, err := direction.Cross(ref).Normalized()
	if err != nil {
		// Unreachable for a unit direction, but keep a sane vector.
		p = geom.Vec3{Y: 1}
	}
	if side == Lingual {
		p = p.Scale(-1)
	}
	return p
}

// Solid builds the window box for one site: width x width in the face
// plane, depth along the perpendicular, offset clear of the sleeve.
func Solid(site plan.ImplantSite, cfg plan.GuideConfig, side Side) *geom.TriMesh {
	perp := Perpendicular(site.Direction, side)
	offset := site.Sleeve.OuterDiameter/2 + cfg.MarginFromSleeve + cfg.WindowWidth/2

	box := geom.NewBox(geom.Vec3{}, geom.Vec3{
		X: cfg.WindowDepth,
		Y: cfg.WindowWidth,
		Z: cfg.WindowWidth,
	})
	rot := geom.RotationBetween(geom.Vec3{X: 1}, perp)
	return box.Rotate(rot).Translate(site.Position.Add(perp.Scale(offset)))
}

// Subtract cuts one window per site out of body through the orchestrator.
// Boxes that miss the body are skipped with a warning, and any failed
// subtraction aborts with the originating site id, matching channel
// subtraction semantics.
func Subtract(ctx context.Context, o *csg.Orchestrator, body *geom.TriMesh, sites []plan.ImplantSite, cfg plan.GuideConfig, side Side) (*csg.Result, error) {
	tools := make([]csg.Tool, 0, len(sites))
	for _, site := range sites {
		tools = append(tools, csg.Tool{
			SiteID: site.SiteID,
			Mesh:   Solid(site, cfg, side),
		})
	}
	return o.SubtractTools(ctx, body, tools)
}
