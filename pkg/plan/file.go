package plan

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
)

// siteRecord is the JSON shape of one implant site. Sleeve fields are
// pointers so absent values can fall back to the default sleeve.
type siteRecord struct {
	SiteID              string     `json:"site_id"`
	Position            [3]float64 `json:"position"`
	Direction           [3]float64 `json:"direction"`
	SleeveOuterDiameter *float64   `json:"sleeve_outer_diameter,omitempty"`
	SleeveInnerDiameter *float64   `json:"sleeve_inner_diameter,omitempty"`
	SleeveHeight        *float64   `json:"sleeve_height,omitempty"`
	Clearance           *float64   `json:"clearance,omitempty"`
	ImplantDiameter     float64    `json:"implant_diameter,omitempty"`
	ImplantLength       float64    `json:"implant_length,omitempty"`
}

type planFile struct {
	ImplantSites *[]siteRecord `json:"implant_sites"`
}

func orDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// LoadSites reads an implant plan from a JSON file. The file must contain an
// "implant_sites" key; an empty site list is allowed and loads as an empty
// slice. Each site is run through the fail-fast constructors, so a plan with
// invalid values is rejected as a whole.
func LoadSites(path string) ([]ImplantSite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading plan %s", path)
	}

	var pf planFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrapf(err, "parsing plan %s", path)
	}
	if pf.ImplantSites == nil {
		return nil, errors.Errorf("plan %s must contain 'implant_sites'", path)
	}

	def := DefaultSleeveSpec()
	sites := make([]ImplantSite, 0, len(*pf.ImplantSites))
	for i, rec := range *pf.ImplantSites {
		sleeve, err := NewSleeveSpec(
			orDefault(rec.SleeveOuterDiameter, def.OuterDiameter),
			orDefault(rec.SleeveInnerDiameter, def.InnerDiameter),
			orDefault(rec.SleeveHeight, def.Height),
			orDefault(rec.Clearance, def.Clearance),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "plan %s site %d (%q)", path, i, rec.SiteID)
		}
		site, err := NewImplantSite(
			rec.SiteID,
			geom.Vec3{X: rec.Position[0], Y: rec.Position[1], Z: rec.Position[2]},
			geom.Vec3{X: rec.Direction[0], Y: rec.Direction[1], Z: rec.Direction[2]},
			sleeve,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "plan %s site %d", path, i)
		}
		site.ImplantDiameter = rec.ImplantDiameter
		site.ImplantLength = rec.ImplantLength
		sites = append(sites, site)
	}
	return sites, nil
}

// WriteExamplePlan writes a two-site example plan (lower first molars) that
// loads cleanly with LoadSites.
func WriteExamplePlan(path string) error {
	f := func(v float64) *float64 { return &v }
	example := planFile{
		ImplantSites: &[]siteRecord{
			{
				SiteID:              "36",
				Position:            [3]float64{25.5, -12.3, 8.7},
				Direction:           [3]float64{0.0, 0.1, -0.995},
				SleeveOuterDiameter: f(5.0),
				SleeveInnerDiameter: f(4.0),
				SleeveHeight:        f(5.0),
				Clearance:           f(0.05),
				ImplantDiameter:     4.1,
				ImplantLength:       10.0,
			},
			{
				SiteID:              "46",
				Position:            [3]float64{-24.8, -11.9, 9.1},
				Direction:           [3]float64{0.0, 0.08, -0.997},
				SleeveOuterDiameter: f(5.0),
				SleeveInnerDiameter: f(4.0),
				SleeveHeight:        f(5.0),
				Clearance:           f(0.05),
				ImplantDiameter:     4.8,
				ImplantLength:       10.0,
			},
		},
	}

	data, err := json.MarshalIndent(&example, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding example plan")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing example plan %s", path)
	}
	return nil
}
