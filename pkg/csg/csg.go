// Package csg applies Boolean operations to a single working solid through
// a swappable kernel backend. Every operation is bracketed by pre- and
// post-checks so a corrupted mesh is reported at the operation that
// produced it instead of propagating silently into later stages.
package csg

import (
	"context"
	"fmt"
	"strings"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
)

// overlapTol lets exactly-touching channels through the pre-check.
const overlapTol = 1e-9

// FailureReason classifies why a Boolean operation was rejected.
type FailureReason int

const (
	EmptyResult       FailureReason = iota // subtraction removed the entire solid
	NonManifoldResult                      // backend produced inconsistent topology
	DegenerateInput                        // an operand is not a valid volume
	OverlappingSites                       // two channels intersect each other
)

func (r FailureReason) String() string {
	switch r {
	case EmptyResult:
		return "empty result"
	case NonManifoldResult:
		return "non-manifold result"
	case DegenerateInput:
		return "degenerate input"
	case OverlappingSites:
		return "overlapping sites"
	default:
		return fmt.Sprintf("FailureReason(%d)", int(r))
	}
}

// BooleanError describes a failed or rejected Boolean operation.
type BooleanError struct {
	Reason  FailureReason
	OpIndex int      // position in the orchestrator's operation sequence
	SiteIDs []string // implicated implant sites, when known
	Message string
}

func (e *BooleanError) Error() string {
	if len(e.SiteIDs) > 0 {
		return fmt.Sprintf("boolean op %d (%s) site %s: %s",
			e.OpIndex, e.Reason, strings.Join(e.SiteIDs, ", "), e.Message)
	}
	return fmt.Sprintf("boolean op %d (%s): %s", e.OpIndex, e.Reason, e.Message)
}

// Tool is one subtraction operand tagged with the site it serves.
type Tool struct {
	SiteID string
	Mesh   *geom.TriMesh
}

// Channel is a drill-channel tool plus the data the overlap pre-check
// needs.
type Channel struct {
	SiteID   string
	Position geom.Vec3 // site position
	Radius   float64   // channel radius including clearance
	Mesh     *geom.TriMesh
}

// Metrics summarizes the volume change across an operation sequence.
type Metrics struct {
	OriginalVolume float64 `json:"original_volume_mm3"`
	ResultVolume   float64 `json:"result_volume_mm3"`
	VolumeRemoved  float64 `json:"volume_removed_mm3"`
	IsWatertight   bool    `json:"is_watertight"`
	FaceCount      int     `json:"face_count"`
	VertexCount    int     `json:"vertex_count"`
}

// Result carries the updated solid plus metrics and non-fatal warnings.
type Result struct {
	Mesh     *geom.TriMesh
	Metrics  Metrics
	Warnings []string
}

// Orchestrator applies Boolean operations strictly sequentially: each
// subtraction depends on the mesh state left by the previous one, so there
// is no safe parallelism here even though tool construction is parallel.
// Inputs are consumed; callers must not reuse a mesh after passing it in.
// Not safe for concurrent use.
type Orchestrator struct {
	kernel kernel.Kernel
	ops    int
}

// NewOrchestrator returns an orchestrator over the given backend.
func NewOrchestrator(k kernel.Kernel) *Orchestrator {
	return &Orchestrator{kernel: k}
}

// SubtractChannels removes each channel from body in order. Before any
// Boolean runs, every channel pair is checked for overlap; two channels
// whose centers sit closer than the sum of their radii would produce a
// doomed, expensive Boolean and are rejected up front with both site ids.
// Cancellation is honored between operations, never mid-Boolean.
func (o *Orchestrator) SubtractChannels(ctx context.Context, body *geom.TriMesh, channels []Channel) (*Result, error) {
	for i := range channels {
		for j := i + 1; j < len(channels); j++ {
			d := channels[i].Position.Dist(channels[j].Position)
			need := channels[i].Radius + channels[j].Radius
			if d < need-overlapTol {
				return nil, &BooleanError{
					Reason:  OverlappingSites,
					OpIndex: o.ops + i,
					SiteIDs: []string{channels[i].SiteID, channels[j].SiteID},
					Message: fmt.Sprintf("centers %.3f mm apart, channels need %.3f mm", d, need),
				}
			}
		}
	}

	res := &Result{Mesh: body}
	res.Metrics.OriginalVolume = geom.SignedVolume(body)
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := o.subtract(res.Mesh, ch.SiteID, ch.Mesh, &res.Warnings)
		if err != nil {
			return nil, err
		}
		res.Mesh = out
	}
	o.finish(res)
	return res, nil
}

// SubtractTools removes each tool from body in order with the same
// per-operation checks as SubtractChannels, but no overlap pre-check.
func (o *Orchestrator) SubtractTools(ctx context.Context, body *geom.TriMesh, tools []Tool) (*Result, error) {
	res := &Result{Mesh: body}
	res.Metrics.OriginalVolume = geom.SignedVolume(body)
	for _, tl := range tools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := o.subtract(res.Mesh, tl.SiteID, tl.Mesh, &res.Warnings)
		if err != nil {
			return nil, err
		}
		res.Mesh = out
	}
	o.finish(res)
	return res, nil
}

// Union joins part onto body with the same validity checks as subtraction.
func (o *Orchestrator) Union(body, part *geom.TriMesh) (*geom.TriMesh, error) {
	op := o.ops
	o.ops++
	if !o.kernel.IsValidVolume(body) {
		return nil, &BooleanError{Reason: DegenerateInput, OpIndex: op,
			Message: "working solid is not a valid volume"}
	}
	if !o.kernel.IsValidVolume(part) {
		return nil, &BooleanError{Reason: DegenerateInput, OpIndex: op,
			Message: "union operand is not a valid volume"}
	}
	out, err := o.kernel.Union(body, part)
	if err != nil {
		return nil, &BooleanError{Reason: NonManifoldResult, OpIndex: op,
			Message: err.Error()}
	}
	if out.IsEmpty() {
		return nil, &BooleanError{Reason: EmptyResult, OpIndex: op,
			Message: "union produced an empty mesh"}
	}
	if !o.kernel.IsValidVolume(out) {
		return nil, &BooleanError{Reason: NonManifoldResult, OpIndex: op,
			Message: "union result is not a consistent volume"}
	}
	return out, nil
}

// subtract applies one difference. A tool whose bounding box misses the
// working solid entirely is skipped with a warning rather than an error;
// the solid passes through unchanged.
func (o *Orchestrator) subtract(cur *geom.TriMesh, siteID string, tool *geom.TriMesh, warnings *[]string) (*geom.TriMesh, error) {
	op := o.ops
	o.ops++
	var ids []string
	if siteID != "" {
		ids = append(ids, siteID)
	}
	if !o.kernel.IsValidVolume(cur) {
		return nil, &BooleanError{Reason: DegenerateInput, OpIndex: op, SiteIDs: ids,
			Message: "working solid is not a valid volume"}
	}
	if !o.kernel.IsValidVolume(tool) {
		return nil, &BooleanError{Reason: DegenerateInput, OpIndex: op, SiteIDs: ids,
			Message: "subtraction tool is not a valid volume"}
	}
	if disjoint(cur, tool) {
		*warnings = append(*warnings,
			fmt.Sprintf("op %d: tool for site %s lies outside the solid, skipped", op, siteID))
		return cur, nil
	}

	out, err := o.kernel.Difference(cur, tool)
	if err != nil {
		return nil, &BooleanError{Reason: NonManifoldResult, OpIndex: op, SiteIDs: ids,
			Message: err.Error()}
	}
	if out.IsEmpty() {
		return nil, &BooleanError{Reason: EmptyResult, OpIndex: op, SiteIDs: ids,
			Message: "subtraction removed the entire solid"}
	}
	if !o.kernel.IsValidVolume(out) {
		return nil, &BooleanError{Reason: NonManifoldResult, OpIndex: op, SiteIDs: ids,
			Message: "result is not a consistent volume"}
	}
	return out, nil
}

func (o *Orchestrator) finish(res *Result) {
	res.Metrics.ResultVolume = geom.SignedVolume(res.Mesh)
	res.Metrics.VolumeRemoved = res.Metrics.OriginalVolume - res.Metrics.ResultVolume
	res.Metrics.IsWatertight = geom.IsWatertight(res.Mesh)
	res.Metrics.FaceCount = res.Mesh.FaceCount()
	res.Metrics.VertexCount = res.Mesh.VertexCount()
}

func disjoint(a, b *geom.TriMesh) bool {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	return amax.X < bmin.X || bmax.X < amin.X ||
		amax.Y < bmin.Y || bmax.Y < amin.Y ||
		amax.Z < bmin.Z || bmax.Z < amin.Z
}
