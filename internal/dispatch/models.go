// Package dispatch selects an auditor for a scheduled farm inspection.
// Selection prefers auditors covering the farm's province and breaks ties by
// current workload, so assignments stay roughly balanced without a scheduler
// having to think about it.
package dispatch

import (
	"time"

	id "certflow/pkg/domain"
)

// Auditor is a field inspector registered with the certification body.
type Auditor struct {
	ID        id.AuditorID
	Name      string
	Provinces []string
	Active    bool
}

// Assignment links an auditor to one application's inspection. Active
// assignments count toward the auditor's workload; completed inspections
// deactivate the row.
type Assignment struct {
	ApplicationID id.ApplicationID
	AuditorID     id.AuditorID
	Province      string
	Active        bool
	AssignedAt    time.Time
}

// Covers reports whether the auditor serves the given province.
func (a Auditor) Covers(province string) bool {
	for _, p := range a.Provinces {
		if p == province {
			return true
		}
	}
	return false
}
