// Package guide runs the full generation pipeline: body creation, channel
// subtraction, inspection windows, validation and export. Each stage is
// timed and logged; the first failing stage aborts the run with its error
// preserved verbatim.
package guide

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/dentin/pkg/channel"
	"github.com/chazu/dentin/pkg/csg"
	"github.com/chazu/dentin/pkg/field"
	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
	"github.com/chazu/dentin/pkg/kernel/bsp"
	"github.com/chazu/dentin/pkg/kernel/manifold"
	"github.com/chazu/dentin/pkg/kernel/resample"
	"github.com/chazu/dentin/pkg/meshio"
	"github.com/chazu/dentin/pkg/plan"
	"github.com/chazu/dentin/pkg/validate"
	"github.com/chazu/dentin/pkg/window"
)

// Request describes one guide to generate. Surface selects the offset-shell
// body when present; otherwise the body is a prism of BodyExtents centered
// at the origin. OutputPath is optional; an empty path skips export.
type Request struct {
	Surface     *geom.TriMesh
	BodyExtents [3]float64
	Sites       []plan.ImplantSite
	Config      plan.GuideConfig
	Validation  plan.ValidationConfig
	OutputPath  string
	Engine      string // "bsp" (default), "resample" or "manifold"
}

// Metrics accumulates as stages complete; fields for stages that never ran
// stay at their zero values.
type Metrics struct {
	InitialVolumeMM3       float64            `json:"initial_volume_mm3"`
	NumImplantSites        int                `json:"num_implant_sites"`
	VolumeAfterChannelsMM3 float64            `json:"volume_after_channels_mm3"`
	VolumeAfterWindowsMM3  float64            `json:"volume_after_windows_mm3,omitempty"`
	FinalVolumeMM3         float64            `json:"final_volume_mm3"`
	FinalFaceCount         int                `json:"final_face_count"`
	FinalVertexCount       int                `json:"final_vertex_count"`
	IsWatertight           bool               `json:"is_watertight"`
	StageMillis            map[string]float64 `json:"stage_millis"`
	Validation             *validate.Report   `json:"validation,omitempty"`
}

// PipelineResult is the full record of one run, success or not.
type PipelineResult struct {
	Success             bool          `json:"success"`
	RunID               string        `json:"run_id"`
	GuideMesh           *geom.TriMesh `json:"-"`
	OperationsPerformed []string      `json:"operations_performed"`
	Metrics             Metrics       `json:"metrics"`
	Warnings            []string      `json:"warnings,omitempty"`
	ErrorMessage        string        `json:"error,omitempty"`

	// Err is the originating stage error, unwrapped for errors.As checks
	// against csg.BooleanError, validate.Error and friends.
	Err error `json:"-"`
}

func (r *PipelineResult) fail(log *zap.Logger, err error) *PipelineResult {
	r.Err = err
	r.ErrorMessage = err.Error()
	log.Error("pipeline failed", zap.Error(err))
	return r
}

func (r *PipelineResult) warn(log *zap.Logger, msg string) {
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// Generator runs guide pipelines. The zero value logs nowhere; use
// NewGenerator to attach a logger.
type Generator struct {
	log *zap.Logger
}

// NewGenerator returns a Generator logging to log. A nil log disables
// logging.
func NewGenerator(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

// Generate runs the pipeline for req. It always returns a non-nil result;
// inspect Success, ErrorMessage and Err for the outcome. Cancellation is
// honored between stages and inside the long-running ones.
func (g *Generator) Generate(ctx context.Context, req Request) *PipelineResult {
	res := &PipelineResult{
		RunID: uuid.NewString(),
		Metrics: Metrics{
			NumImplantSites: len(req.Sites),
			StageMillis:     make(map[string]float64),
		},
	}
	base := g.log
	if base == nil {
		base = zap.NewNop()
	}
	log := base.With(zap.String("run_id", res.RunID))

	if len(req.Sites) == 0 {
		return res.fail(log, errors.New("no implant sites provided, at least one implant required"))
	}
	if err := req.Config.Validate(); err != nil {
		return res.fail(log, err)
	}
	eng, err := engineFor(req.Engine)
	if err != nil {
		return res.fail(log, err)
	}
	log.Info("pipeline started",
		zap.Int("sites", len(req.Sites)),
		zap.Bool("from_surface", req.Surface != nil && !req.Surface.IsEmpty()))

	stage := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := fn()
		ms := time.Since(start).Seconds() * 1000
		res.Metrics.StageMillis[name] = ms
		if err != nil {
			log.Error("stage failed", zap.String("stage", name), zap.Float64("ms", ms), zap.Error(err))
			return err
		}
		res.OperationsPerformed = append(res.OperationsPerformed, name)
		log.Info("stage finished", zap.String("stage", name), zap.Float64("ms", ms))
		return nil
	}

	var body *geom.TriMesh
	if err := stage("create_body", func() error {
		var err error
		body, err = createBody(ctx, req)
		if err != nil {
			return err
		}
		res.Metrics.InitialVolumeMM3 = geom.SignedVolume(body)
		return nil
	}); err != nil {
		return res.fail(log, err)
	}
	if req.Validation.MinWallThickness > 0 && req.Config.Thickness < req.Validation.MinWallThickness {
		res.warn(log, fmt.Sprintf("configured thickness %.2f mm is below the advisory minimum wall thickness %.2f mm",
			req.Config.Thickness, req.Validation.MinWallThickness))
	}

	orch := csg.NewOrchestrator(eng)

	if err := stage("subtract_channels", func() error {
		channels, err := buildChannels(ctx, req.Sites, req.Config)
		if err != nil {
			return err
		}
		out, err := orch.SubtractChannels(ctx, body, channels)
		if err != nil {
			return err
		}
		body = out.Mesh
		res.Warnings = append(res.Warnings, out.Warnings...)
		res.Metrics.VolumeAfterChannelsMM3 = out.Metrics.ResultVolume
		return nil
	}); err != nil {
		return res.fail(log, err)
	}

	if window.Enabled(req.Config, len(req.Sites)) {
		if err := stage("add_windows", func() error {
			out, err := window.Subtract(ctx, orch, body, req.Sites, req.Config, window.Buccal)
			if err != nil {
				return err
			}
			body = out.Mesh
			res.Warnings = append(res.Warnings, out.Warnings...)
			res.Metrics.VolumeAfterWindowsMM3 = out.Metrics.ResultVolume
			return nil
		}); err != nil {
			return res.fail(log, err)
		}
	}

	if err := stage("validate", func() error {
		fixed, rep := validate.Run(body, req.Validation)
		res.Metrics.Validation = &rep
		if !rep.State.Passed() {
			return &validate.Error{State: rep.State, Issues: rep.Final.Errors}
		}
		body = fixed
		if rep.Repaired {
			res.warn(log, "guide mesh repaired after validation failure: "+strings.Join(rep.Actions, "; "))
		}
		return nil
	}); err != nil {
		return res.fail(log, err)
	}

	res.Metrics.FinalVolumeMM3 = geom.SignedVolume(body)
	res.Metrics.FinalFaceCount = body.FaceCount()
	res.Metrics.FinalVertexCount = body.VertexCount()
	res.Metrics.IsWatertight = geom.IsWatertight(body)

	if req.OutputPath != "" {
		if err := stage("export", func() error {
			return meshio.Export(body, req.OutputPath)
		}); err != nil {
			return res.fail(log, err)
		}
		log.Info("guide exported", zap.String("path", req.OutputPath))
	}

	res.Success = true
	res.GuideMesh = body
	log.Info("pipeline finished",
		zap.Float64("final_volume_mm3", res.Metrics.FinalVolumeMM3),
		zap.Int("faces", res.Metrics.FinalFaceCount),
		zap.Bool("watertight", res.Metrics.IsWatertight))
	return res
}

// createBody produces the uncut guide solid: an offset shell around the
// scanned surface when one is supplied, otherwise a simple prism.
func createBody(ctx context.Context, req Request) (*geom.TriMesh, error) {
	if req.Surface != nil && !req.Surface.IsEmpty() {
		return field.OffsetShellFromSurface(ctx, req.Surface, req.Config)
	}
	ext := geom.Vec3{X: req.BodyExtents[0], Y: req.BodyExtents[1], Z: req.BodyExtents[2]}
	if ext.X <= 0 || ext.Y <= 0 || ext.Z <= 0 {
		return nil, errors.Errorf("body extents must all be positive, got %v", ext)
	}
	return geom.NewBox(geom.Vec3{}, ext), nil
}

// buildChannels constructs the channel solids in parallel. The Boolean
// application that follows is strictly sequential; only the meshing here
// fans out.
func buildChannels(ctx context.Context, sites []plan.ImplantSite, cfg plan.GuideConfig) ([]csg.Channel, error) {
	channels := make([]csg.Channel, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range sites {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			site := sites[i]
			channels[i] = csg.Channel{
				SiteID:   site.SiteID,
				Position: site.Position,
				Radius:   site.Sleeve.ChannelRadius(),
				Mesh:     channel.Build(site, cfg.ChannelExtension),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The launch loop stops early on cancellation without any channel
	// goroutine having reported it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

func engineFor(name string) (kernel.Kernel, error) {
	switch name {
	case "", "bsp":
		return bsp.New(), nil
	case "resample":
		return resample.New(), nil
	case "manifold":
		return manifold.New()
	default:
		return nil, errors.Errorf("unknown engine %q (available: bsp, resample, manifold)", name)
	}
}
