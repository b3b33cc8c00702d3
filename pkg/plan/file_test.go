package plan

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing plan fixture: %v", err)
	}
	return path
}

func TestLoadSites_ExampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.json")
	if err := WriteExamplePlan(path); err != nil {
		t.Fatalf("writing example plan: %v", err)
	}

	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("loading example plan: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("loaded %d sites, want 2", len(sites))
	}
	if sites[0].SiteID != "36" || sites[1].SiteID != "46" {
		t.Errorf("site ids = %q, %q, want 36, 46", sites[0].SiteID, sites[1].SiteID)
	}
	if got := sites[0].Direction.Norm(); math.Abs(got-1) > 1e-12 {
		t.Errorf("loaded direction not unit: norm = %g", got)
	}
	if got, want := sites[0].Sleeve.ChannelRadius(), 2.55; math.Abs(got-want) > 1e-12 {
		t.Errorf("channel radius = %g, want %g", got, want)
	}
}

func TestLoadSites_MissingKey(t *testing.T) {
	path := writePlan(t, `{"sites": []}`)
	_, err := LoadSites(path)
	if err == nil {
		t.Fatal("expected error for plan without implant_sites")
	}
}

func TestLoadSites_EmptyList(t *testing.T) {
	path := writePlan(t, `{"implant_sites": []}`)
	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("empty site list should load: %v", err)
	}
	if len(sites) != 0 {
		t.Errorf("loaded %d sites, want 0", len(sites))
	}
}

func TestLoadSites_SleeveDefaults(t *testing.T) {
	path := writePlan(t, `{
  "implant_sites": [
    {"site_id": "11", "position": [0, 0, 8], "direction": [0, 0, -1]}
  ]
}`)
	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("loading minimal site: %v", err)
	}
	want := DefaultSleeveSpec()
	if sites[0].Sleeve != want {
		t.Errorf("sleeve = %+v, want defaults %+v", sites[0].Sleeve, want)
	}
}

func TestLoadSites_InvalidSleeveRejected(t *testing.T) {
	path := writePlan(t, `{
  "implant_sites": [
    {"site_id": "11", "position": [0, 0, 8], "direction": [0, 0, -1],
     "sleeve_outer_diameter": 3.0, "sleeve_inner_diameter": 4.0}
  ]
}`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected error for sleeve with outer <= inner")
	}
}

func TestLoadSites_ZeroDirectionRejected(t *testing.T) {
	path := writePlan(t, `{
  "implant_sites": [
    {"site_id": "11", "position": [0, 0, 8], "direction": [0, 0, 0]}
  ]
}`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected error for zero direction")
	}
}

func TestLoadSites_MissingFile(t *testing.T) {
	if _, err := LoadSites(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSites_MalformedJSON(t *testing.T) {
	path := writePlan(t, `{"implant_sites": [`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
