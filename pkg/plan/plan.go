// Package plan defines the implant plan and configuration types consumed by
// the guide pipeline. All types validate at construction and reject
// out-of-range values instead of clamping them.
package plan

import (
	"fmt"

	"github.com/chazu/dentin/pkg/geom"
)

// ConstructionError reports an invalid value passed to a plan constructor.
type ConstructionError struct {
	Type    string // which plan type rejected the value
	Field   string
	Message string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Type, e.Field, e.Message)
}

// SleeveSpec describes a drill sleeve: the metal or polymer insert seated in
// a guide channel. The sleeve itself is not modeled beyond its dimensions;
// the channel bored for it is the outer radius plus the fit clearance.
type SleeveSpec struct {
	OuterDiameter float64 `json:"outer_diameter"` // mm
	InnerDiameter float64 `json:"inner_diameter"` // mm, drill bore
	Height        float64 `json:"height"`         // mm
	Clearance     float64 `json:"clearance"`      // mm, gap between sleeve and channel wall
}

// NewSleeveSpec validates a sleeve specification. Outer diameter must exceed
// the inner diameter, both must be positive, and clearance cannot be
// negative.
func NewSleeveSpec(outer, inner, height, clearance float64) (SleeveSpec, error) {
	s := SleeveSpec{
		OuterDiameter: outer,
		InnerDiameter: inner,
		Height:        height,
		Clearance:     clearance,
	}
	if inner <= 0 {
		return SleeveSpec{}, &ConstructionError{"SleeveSpec", "InnerDiameter",
			fmt.Sprintf("must be positive, got %g", inner)}
	}
	if outer <= inner {
		return SleeveSpec{}, &ConstructionError{"SleeveSpec", "OuterDiameter",
			fmt.Sprintf("must exceed inner diameter %g, got %g", inner, outer)}
	}
	if height <= 0 {
		return SleeveSpec{}, &ConstructionError{"SleeveSpec", "Height",
			fmt.Sprintf("must be positive, got %g", height)}
	}
	if clearance < 0 {
		return SleeveSpec{}, &ConstructionError{"SleeveSpec", "Clearance",
			fmt.Sprintf("must be non-negative, got %g", clearance)}
	}
	return s, nil
}

// DefaultSleeveSpec returns a common 5.0/4.0 mm sleeve with the standard
// 0.05 mm fit clearance.
func DefaultSleeveSpec() SleeveSpec {
	return SleeveSpec{OuterDiameter: 5.0, InnerDiameter: 4.0, Height: 5.0, Clearance: 0.05}
}

// ChannelRadius returns the radius of the channel bored for this sleeve:
// outer radius plus clearance.
func (s SleeveSpec) ChannelRadius() float64 {
	return s.OuterDiameter/2 + s.Clearance
}

// ImplantSite is one planned implant placement. Position is the platform
// entry coordinate; Direction points apically (into the bone) and is unit
// length after construction.
type ImplantSite struct {
	SiteID    string
	Position  geom.Vec3
	Direction geom.Vec3
	Sleeve    SleeveSpec

	// Implant dimensions are carried as planning metadata and do not affect
	// guide geometry.
	ImplantDiameter float64
	ImplantLength   float64
}

// NewImplantSite validates and normalizes a site. The direction is
// re-normalized; a zero-length direction or empty site id is rejected.
func NewImplantSite(id string, position, direction geom.Vec3, sleeve SleeveSpec) (ImplantSite, error) {
	if id == "" {
		return ImplantSite{}, &ConstructionError{"ImplantSite", "SiteID", "must not be empty"}
	}
	if !position.IsFinite() {
		return ImplantSite{}, &ConstructionError{"ImplantSite", "Position",
			fmt.Sprintf("must be finite, got %s", position)}
	}
	dir, err := direction.Normalized()
	if err != nil {
		return ImplantSite{}, &ConstructionError{"ImplantSite", "Direction",
			fmt.Sprintf("site %s: %v", id, err)}
	}
	return ImplantSite{
		SiteID:    id,
		Position:  position,
		Direction: dir,
		Sleeve:    sleeve,
	}, nil
}
