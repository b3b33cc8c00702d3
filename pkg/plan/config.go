package plan

import "fmt"

// Validity ranges for GuideConfig. Values outside these ranges are clinical
// or manufacturing mistakes, so construction fails instead of clamping.
const (
	minThickness = 2.0
	maxThickness = 5.0
	minVoxelSize = 0.1
	maxVoxelSize = 0.5
)

// GuideConfig holds the geometric parameters of a guide build. It carries
// every tunable explicitly so pipelines stay side-effect-free and can run
// with arbitrary configurations in parallel.
type GuideConfig struct {
	Thickness float64 // shell thickness, mm
	TissueGap float64 // standoff between tissue and shell interior, mm
	VoxelSize float64 // distance-field sampling pitch, mm

	AddInspectionWindows bool
	WindowWidth          float64 // mm
	WindowDepth          float64 // mm
	MarginFromSleeve     float64 // window keep-out around each sleeve, mm

	ChannelExtension float64 // extra channel length beyond the sleeve, mm
}

// DefaultGuideConfig returns the standard build parameters.
func DefaultGuideConfig() GuideConfig {
	return GuideConfig{
		Thickness:            2.5,
		TissueGap:            0.15,
		VoxelSize:            0.15,
		AddInspectionWindows: true,
		WindowWidth:          10.0,
		WindowDepth:          5.0,
		MarginFromSleeve:     3.0,
		ChannelExtension:     2.0,
	}
}

// NewGuideConfig builds a config from the commonly varied parameters, with
// window geometry at defaults, and validates it.
func NewGuideConfig(thickness, tissueGap, voxelSize float64, windows bool) (GuideConfig, error) {
	cfg := DefaultGuideConfig()
	cfg.Thickness = thickness
	cfg.TissueGap = tissueGap
	cfg.VoxelSize = voxelSize
	cfg.AddInspectionWindows = windows
	if err := cfg.Validate(); err != nil {
		return GuideConfig{}, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed range.
func (c GuideConfig) Validate() error {
	if c.Thickness < minThickness || c.Thickness > maxThickness {
		return &ConstructionError{"GuideConfig", "Thickness",
			fmt.Sprintf("must be in [%g, %g] mm, got %g", minThickness, maxThickness, c.Thickness)}
	}
	if c.TissueGap < 0 {
		return &ConstructionError{"GuideConfig", "TissueGap",
			fmt.Sprintf("must be non-negative, got %g", c.TissueGap)}
	}
	if c.TissueGap >= c.Thickness {
		return &ConstructionError{"GuideConfig", "TissueGap",
			fmt.Sprintf("must be less than thickness %g, got %g", c.Thickness, c.TissueGap)}
	}
	if c.VoxelSize < minVoxelSize || c.VoxelSize > maxVoxelSize {
		return &ConstructionError{"GuideConfig", "VoxelSize",
			fmt.Sprintf("must be in [%g, %g] mm, got %g", minVoxelSize, maxVoxelSize, c.VoxelSize)}
	}
	if c.WindowWidth <= 0 {
		return &ConstructionError{"GuideConfig", "WindowWidth",
			fmt.Sprintf("must be positive, got %g", c.WindowWidth)}
	}
	if c.WindowDepth <= 0 {
		return &ConstructionError{"GuideConfig", "WindowDepth",
			fmt.Sprintf("must be positive, got %g", c.WindowDepth)}
	}
	if c.MarginFromSleeve < 0 {
		return &ConstructionError{"GuideConfig", "MarginFromSleeve",
			fmt.Sprintf("must be non-negative, got %g", c.MarginFromSleeve)}
	}
	if c.ChannelExtension < 0 {
		return &ConstructionError{"GuideConfig", "ChannelExtension",
			fmt.Sprintf("must be non-negative, got %g", c.ChannelExtension)}
	}
	return nil
}

// ValidationConfig controls mesh validation and repair after the Boolean
// stages.
type ValidationConfig struct {
	CheckWatertight       bool
	CheckSelfIntersection bool    // expensive; off by default
	MinWallThickness      float64 // mm, advisory minimum for printability
	RepairIfNeeded        bool
	MaxHoleSize           int // largest boundary loop repair may fill, in edges
}

// DefaultValidationConfig returns the standard validation policy.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CheckWatertight:       true,
		CheckSelfIntersection: false,
		MinWallThickness:      2.0,
		RepairIfNeeded:        true,
		MaxHoleSize:           50,
	}
}
