package dispatch

import (
	"context"
	"errors"
	"sort"

	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Store persists auditors and their assignments.
type Store interface {
	ListActiveAuditors(ctx context.Context) ([]Auditor, error)
	ActiveAssignmentCounts(ctx context.Context) (map[id.AuditorID]int, error)
	InsertAssignment(ctx context.Context, assignment Assignment) error
	CompleteAssignment(ctx context.Context, appID id.ApplicationID) error
}

// Dispatcher picks the auditor for an inspection.
type Dispatcher struct {
	store Store
}

func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Assign selects an auditor for the application's farm province and records
// the assignment. Auditors covering the province are preferred; if none
// cover it, the least-loaded active auditor is used instead. With no active
// auditors at all the call fails and the caller must retry later.
func (d *Dispatcher) Assign(ctx context.Context, appID id.ApplicationID, province string) (*Assignment, error) {
	auditors, err := d.store.ListActiveAuditors(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list auditors")
	}
	if len(auditors) == 0 {
		return nil, dErrors.New(dErrors.CodeNoAuditorAvailable, "no active auditors registered")
	}

	counts, err := d.store.ActiveAssignmentCounts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auditor workloads")
	}

	candidates := make([]Auditor, 0, len(auditors))
	for _, a := range auditors {
		if a.Covers(province) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		candidates = auditors
	}

	// Fewest active assignments wins; name breaks the tie so the choice is
	// deterministic across replicas.
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := counts[candidates[i].ID], counts[candidates[j].ID]
		if ci != cj {
			return ci < cj
		}
		return candidates[i].Name < candidates[j].Name
	})

	assignment := Assignment{
		ApplicationID: appID,
		AuditorID:     candidates[0].ID,
		Province:      province,
		Active:        true,
		AssignedAt:    requestcontext.Now(ctx),
	}
	if err := d.store.InsertAssignment(ctx, assignment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record assignment")
	}
	return &assignment, nil
}

// Complete deactivates the application's assignment after the audit result is
// in, releasing the auditor's capacity.
func (d *Dispatcher) Complete(ctx context.Context, appID id.ApplicationID) error {
	if err := d.store.CompleteAssignment(ctx, appID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no active assignment for application")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete assignment")
	}
	return nil
}
