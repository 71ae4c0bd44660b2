package model

import (
	"gridwalk/internal/grid"
	"gridwalk/internal/walker"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is one persisted explore/exploit cycle.
type RunRecord struct {
	VersionedRecord
	ID              string        `json:"id"`
	CreatedAtUTC    string        `json:"created_at_utc"`
	Shape           grid.Shape    `json:"shape"`
	Start           grid.Position `json:"start"`
	Target          grid.Position `json:"target"`
	Field           string        `json:"field"`
	Seed            int64         `json:"seed"`
	Explorations    int           `json:"explorations"`
	ExplorationsRun int           `json:"explorations_run"`
	ExploreSteps    int           `json:"explore_steps"`
	Manhattan       int           `json:"manhattan"`
	Outcome         string        `json:"outcome"`
	WalkSteps       int           `json:"walk_steps"`
	FieldMap        [][]float64   `json:"field_map,omitempty"`
	ExploitMap      [][]float64   `json:"exploit_map"`
	MemoryMap       [][]float64   `json:"memory_map,omitempty"`
	WalkMap         [][]float64   `json:"walk_map"`
}

// Reached reports whether the exploitation walk arrived at the target.
func (r RunRecord) Reached() bool {
	return r.Outcome == string(walker.OutcomeReached)
}
