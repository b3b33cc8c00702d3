// Command dentin generates 3D-printable dental implant surgical guides
// from planned implant positions, optionally fitted to a scanned arch
// surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/dentin/pkg/guide"
	"github.com/chazu/dentin/pkg/meshio"
	"github.com/chazu/dentin/pkg/plan"
)

var (
	implantsPath  string
	outputPath    string
	surfacePath   string
	extents       []float64
	thickness     float64
	tissueGap     float64
	voxelSize     float64
	noWindows     bool
	windowWidth   float64
	engine        string
	createExample string
	verbose       bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dentin",
	Short: "Generate 3D-printable dental implant surgical guides",
	Long: `dentin builds a watertight surgical guide from an implant plan: a shell
body (prism or offset of a scanned arch), one drill-sleeve channel per
implant site, and optional inspection windows, validated and repaired
before export.

Examples:
  # Generate a guide from an implant plan
  dentin --implants sites.json --output guide.stl

  # Fit the guide to a scanned arch surface
  dentin --implants sites.json --surface arch.stl --output guide.3mf

  # Custom shell parameters, no windows
  dentin --implants sites.json --thickness 3.0 --tissue-gap 0.2 --no-windows

  # Write a starter plan to edit
  dentin --create-example sites.json`,
	Version:      "0.1.0",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		return err
	},
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&implantsPath, "implants", "", "path to the implant plan JSON file")
	f.StringVarP(&outputPath, "output", "o", "guide.stl", "output mesh path (.stl, .ply or .3mf)")
	f.StringVar(&surfacePath, "surface", "", "scanned arch surface (.stl, .obj or .off); omit for a prism body")
	f.Float64SliceVar(&extents, "extents", []float64{50, 30, 10}, "prism body extents L,W,H in mm")
	f.Float64Var(&thickness, "thickness", 2.5, "guide shell thickness in mm")
	f.Float64Var(&tissueGap, "tissue-gap", 0.15, "gap from the tissue surface in mm")
	f.Float64Var(&voxelSize, "voxel-size", 0.15, "distance-field sampling pitch in mm")
	f.BoolVar(&noWindows, "no-windows", false, "disable inspection windows")
	f.Float64Var(&windowWidth, "window-width", 10.0, "inspection window width in mm")
	f.StringVar(&engine, "engine", "bsp", "Boolean engine: bsp, resample or manifold")
	f.StringVar(&createExample, "create-example", "", "write an example plan to FILE and exit")
	f.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func run(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()

	if createExample != "" {
		if err := plan.WriteExamplePlan(createExample); err != nil {
			return err
		}
		fmt.Printf("Example plan written to: %s\n", createExample)
		return nil
	}
	if implantsPath == "" {
		return errors.New("--implants is required (use --create-example to write a starter plan)")
	}
	if len(extents) != 3 {
		return errors.Errorf("--extents needs exactly three values, got %d", len(extents))
	}

	sites, err := plan.LoadSites(implantsPath)
	if err != nil {
		return err
	}
	logger.Info("plan loaded", zap.String("path", implantsPath), zap.Int("sites", len(sites)))

	cfg := plan.DefaultGuideConfig()
	cfg.Thickness = thickness
	cfg.TissueGap = tissueGap
	cfg.VoxelSize = voxelSize
	cfg.AddInspectionWindows = !noWindows
	cfg.WindowWidth = windowWidth

	req := guide.Request{
		BodyExtents: [3]float64{extents[0], extents[1], extents[2]},
		Sites:       sites,
		Config:      cfg,
		Validation:  plan.DefaultValidationConfig(),
		OutputPath:  outputPath,
		Engine:      engine,
	}
	if surfacePath != "" {
		surface, err := meshio.Load(surfacePath)
		if err != nil {
			return err
		}
		req.Surface = surface
		logger.Info("surface loaded",
			zap.String("path", surfacePath),
			zap.Int("faces", surface.FaceCount()))
	}

	res := guide.NewGenerator(logger).Generate(cmd.Context(), req)
	if !res.Success {
		return errors.Errorf("guide generation failed: %s", res.ErrorMessage)
	}

	m := res.Metrics
	fmt.Println("Guide generated successfully")
	fmt.Printf("  Output:     %s\n", outputPath)
	fmt.Printf("  Volume:     %.1f mm^3\n", m.FinalVolumeMM3)
	fmt.Printf("  Faces:      %d\n", m.FinalFaceCount)
	fmt.Printf("  Watertight: %t\n", m.IsWatertight)
	if len(res.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range res.Warnings {
			fmt.Printf("  ! %s\n", w)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
