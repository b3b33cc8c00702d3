package validate

import (
	"fmt"
	"strings"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

// State tracks a mesh through the validate/repair/revalidate sequence.
// ValidatedPass and RevalidatedPass are the success terminals;
// ValidatedFail (repair disabled) and RevalidatedFail are the failure
// terminals. Repair runs at most once per mesh: a second failure is
// surfaced, not retried, so a structural input problem cannot hide behind
// repeated heuristic patching.
type State int

const (
	Built           State = iota // initial state, nothing checked yet
	ValidatedPass                // first validation passed
	ValidatedFail                // first validation failed, repair disabled
	Repairing                    // repair in progress
	RevalidatedPass              // validation passed after repair
	RevalidatedFail              // validation failed even after repair
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case ValidatedPass:
		return "validated_pass"
	case ValidatedFail:
		return "validated_fail"
	case Repairing:
		return "repairing"
	case RevalidatedPass:
		return "revalidated_pass"
	case RevalidatedFail:
		return "revalidated_fail"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Passed reports whether s is a success terminal.
func (s State) Passed() bool {
	return s == ValidatedPass || s == RevalidatedPass
}

// MarshalText renders the state by name so JSON reports stay readable.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Error is returned by callers that treat a failure terminal as fatal.
type Error struct {
	State  State
	Issues []Issue
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Message)
	}
	if len(msgs) == 0 {
		return fmt.Sprintf("mesh validation failed (%s)", e.State)
	}
	return fmt.Sprintf("mesh validation failed (%s): %s", e.State, strings.Join(msgs, "; "))
}

// Report is the full record of one validation run.
type Report struct {
	State    State    `json:"state"`
	First    Result   `json:"first"` // validation before any repair
	Final    Result   `json:"final"` // most recent validation
	Repaired bool     `json:"repaired"`
	Actions  []string `json:"repair_actions,omitempty"`
}

// Run validates m and, when validation fails and cfg allows it, repairs
// once and revalidates. The returned mesh is the repaired copy when repair
// ran, otherwise m itself; the input is never mutated either way.
func Run(m *geom.TriMesh, cfg plan.ValidationConfig) (*geom.TriMesh, Report) {
	first := Check(m, cfg)
	if first.OK() {
		return m, Report{State: ValidatedPass, First: first, Final: first}
	}
	if !cfg.RepairIfNeeded {
		return m, Report{State: ValidatedFail, First: first, Final: first}
	}

	outcome := Repair(m, cfg)
	second := Check(outcome.Mesh, cfg)
	state := RevalidatedPass
	if !second.OK() {
		state = RevalidatedFail
	}
	return outcome.Mesh, Report{
		State:    state,
		First:    first,
		Final:    second,
		Repaired: true,
		Actions:  outcome.Actions,
	}
}
