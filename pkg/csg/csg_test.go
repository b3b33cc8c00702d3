package csg

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/dentin/pkg/channel"
	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
	"github.com/chazu/dentin/pkg/kernel/bsp"
	"github.com/chazu/dentin/pkg/plan"
)

const tol = 1e-6

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// countingKernel records how many Boolean calls reach the backend.
type countingKernel struct {
	inner kernel.Kernel
	calls int
}

func (c *countingKernel) Difference(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	c.calls++
	return c.inner.Difference(a, b)
}

func (c *countingKernel) Union(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	c.calls++
	return c.inner.Union(a, b)
}

func (c *countingKernel) IsValidVolume(m *geom.TriMesh) bool {
	return c.inner.IsValidVolume(m)
}

func testChannel(t *testing.T, id string, pos geom.Vec3) Channel {
	t.Helper()
	sleeve, err := plan.NewSleeveSpec(5.0, 4.0, 5.0, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	site, err := plan.NewImplantSite(id, pos, geom.Vec3{Z: -1}, sleeve)
	if err != nil {
		t.Fatal(err)
	}
	return Channel{
		SiteID:   site.SiteID,
		Position: site.Position,
		Radius:   site.Sleeve.ChannelRadius(),
		Mesh:     channel.Build(site, 2.0),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSubtractChannels_RemovesChannelVolume(t *testing.T) {
	o := NewOrchestrator(bsp.New())
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{50, 30, 10})

	res, err := o.SubtractChannels(context.Background(), body, []Channel{
		testChannel(t, "36", geom.Vec3{Z: 8}),
	})
	if err != nil {
		t.Fatalf("SubtractChannels() error = %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if !res.Metrics.IsWatertight {
		t.Error("result should be watertight")
	}

	// Channel spans z in [2, 9]; 3 mm lies inside the body.
	radius := 5.0/2 + 0.05
	crossSection := 0.5 * 64 * math.Sin(2*math.Pi/64) * radius * radius
	if want := crossSection * 3; math.Abs(res.Metrics.VolumeRemoved-want) > tol {
		t.Errorf("volume removed = %g, want %g", res.Metrics.VolumeRemoved, want)
	}
	if want := 50 * 30 * 10.0; math.Abs(res.Metrics.OriginalVolume-want) > tol {
		t.Errorf("original volume = %g, want %g", res.Metrics.OriginalVolume, want)
	}
}

func TestSubtractChannels_OverlapRejectedBeforeBoolean(t *testing.T) {
	ck := &countingKernel{inner: bsp.New()}
	o := NewOrchestrator(ck)
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{50, 30, 10})

	_, err := o.SubtractChannels(context.Background(), body, []Channel{
		testChannel(t, "36", geom.Vec3{Z: 8}),
		testChannel(t, "37", geom.Vec3{X: 1, Z: 8}),
	})
	var be *BooleanError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BooleanError", err)
	}
	if be.Reason != OverlappingSites {
		t.Errorf("reason = %v, want %v", be.Reason, OverlappingSites)
	}
	if len(be.SiteIDs) != 2 || be.SiteIDs[0] != "36" || be.SiteIDs[1] != "37" {
		t.Errorf("site ids = %v, want both conflicting sites", be.SiteIDs)
	}
	if ck.calls != 0 {
		t.Errorf("backend calls = %d, want 0 before the pre-check passes", ck.calls)
	}
}

func TestSubtractChannels_DisjointToolSkipped(t *testing.T) {
	o := NewOrchestrator(bsp.New())
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})

	res, err := o.SubtractChannels(context.Background(), body, []Channel{
		testChannel(t, "44", geom.Vec3{X: 100, Z: 8}),
	})
	if err != nil {
		t.Fatalf("SubtractChannels() error = %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one skip notice", res.Warnings)
	}
	if math.Abs(res.Metrics.ResultVolume-64) > tol {
		t.Errorf("volume = %g, want 64 unchanged", res.Metrics.ResultVolume)
	}
	if math.Abs(res.Metrics.VolumeRemoved) > tol {
		t.Errorf("volume removed = %g, want 0", res.Metrics.VolumeRemoved)
	}
}

func TestSubtractTools_EmptyResult(t *testing.T) {
	o := NewOrchestrator(bsp.New())
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{2, 2, 2})

	_, err := o.SubtractTools(context.Background(), body, []Tool{
		{SiteID: "11", Mesh: geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})},
	})
	var be *BooleanError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BooleanError", err)
	}
	if be.Reason != EmptyResult {
		t.Errorf("reason = %v, want %v", be.Reason, EmptyResult)
	}
	if len(be.SiteIDs) != 1 || be.SiteIDs[0] != "11" {
		t.Errorf("site ids = %v, want [11]", be.SiteIDs)
	}
}

func TestSubtractTools_DegenerateInputRejected(t *testing.T) {
	ck := &countingKernel{inner: bsp.New()}
	o := NewOrchestrator(ck)
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})
	open := &geom.TriMesh{Vertices: box.Vertices, Faces: box.Faces[:11]}

	_, err := o.SubtractTools(context.Background(), open, []Tool{
		{Mesh: geom.NewBox(geom.Vec3{}, geom.Vec3{2, 2, 2})},
	})
	var be *BooleanError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BooleanError", err)
	}
	if be.Reason != DegenerateInput {
		t.Errorf("reason = %v, want %v", be.Reason, DegenerateInput)
	}
	if ck.calls != 0 {
		t.Errorf("backend calls = %d, want 0 for degenerate input", ck.calls)
	}
}

func TestSubtractTools_AbortCarriesOpIndex(t *testing.T) {
	o := NewOrchestrator(bsp.New())
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})

	_, err := o.SubtractTools(context.Background(), body, []Tool{
		{SiteID: "21", Mesh: geom.NewBox(geom.Vec3{}, geom.Vec3{1, 1, 1})},
		{SiteID: "22", Mesh: geom.NewBox(geom.Vec3{}, geom.Vec3{10, 10, 10})},
	})
	var be *BooleanError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BooleanError", err)
	}
	if be.OpIndex != 1 {
		t.Errorf("op index = %d, want 1", be.OpIndex)
	}
	if len(be.SiteIDs) != 1 || be.SiteIDs[0] != "22" {
		t.Errorf("site ids = %v, want [22]", be.SiteIDs)
	}
}

func TestSubtractTools_CanceledContext(t *testing.T) {
	ck := &countingKernel{inner: bsp.New()}
	o := NewOrchestrator(ck)
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.SubtractTools(ctx, body, []Tool{
		{SiteID: "21", Mesh: geom.NewBox(geom.Vec3{}, geom.Vec3{1, 1, 1})},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if ck.calls != 0 {
		t.Errorf("backend calls = %d, want 0 after cancellation", ck.calls)
	}
}

func TestUnion_JoinsSolids(t *testing.T) {
	o := NewOrchestrator(bsp.New())
	a := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})
	b := geom.NewBox(geom.Vec3{X: 2}, geom.Vec3{4, 4, 4})

	got, err := o.Union(a, b)
	if err != nil {
		t.Fatalf("Union() error = %v", err)
	}
	if v := geom.SignedVolume(got); math.Abs(v-96) > tol {
		t.Errorf("volume = %g, want 96", v)
	}
}

func TestFailureReason_String(t *testing.T) {
	cases := []struct {
		reason FailureReason
		want   string
	}{
		{EmptyResult, "empty result"},
		{NonManifoldResult, "non-manifold result"},
		{DegenerateInput, "degenerate input"},
		{OverlappingSites, "overlapping sites"},
		{FailureReason(99), "FailureReason(99)"},
	}
	for _, tc := range cases {
		if got := tc.reason.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", int(tc.reason), got, tc.want)
		}
	}
}
