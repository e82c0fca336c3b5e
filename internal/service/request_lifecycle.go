package service

import (
	"fmt"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

// RequestListState is the slice of list state a request transition touches.
type RequestListState struct {
	Results        []models.SubsidyRequest
	OverviewCounts []models.OverviewCount
}

// RequestTransition is the closed set of local status transitions. Only the types in this file implement it.
type RequestTransition interface {
	RequestID() string
	edge() (from, to models.SubsidyRequestStatus)
}

// ApproveTransition marks a request approved.
type ApproveTransition struct{ ID string }

// DeclineTransition marks a request declined.
type DeclineTransition struct{ ID string }

// SubmitApprovalTransition marks a request pending while the approval is processed server-side.
type SubmitApprovalTransition struct{ ID string }

func (t ApproveTransition) RequestID() string        { return t.ID }
func (t DeclineTransition) RequestID() string        { return t.ID }
func (t SubmitApprovalTransition) RequestID() string { return t.ID }

func (ApproveTransition) edge() (models.SubsidyRequestStatus, models.SubsidyRequestStatus) {
	return models.SubsidyRequestStatusRequested, models.SubsidyRequestStatusApproved
}

func (DeclineTransition) edge() (models.SubsidyRequestStatus, models.SubsidyRequestStatus) {
	return models.SubsidyRequestStatusRequested, models.SubsidyRequestStatusDeclined
}

func (SubmitApprovalTransition) edge() (models.SubsidyRequestStatus, models.SubsidyRequestStatus) {
	return models.SubsidyRequestStatusRequested, models.SubsidyRequestStatusPending
}

// TransitionRequests applies a transition and returns a new state; the input is never modified.
//
// The record is updated only when it is on the current page, and only from the edge's source
// status; any other current status is rejected and the state is returned unchanged. The
// overview counts are adjusted for off-page records too because they describe the whole
// collection. Counts are not clamped.
func TransitionRequests(state RequestListState, action RequestTransition) (RequestListState, error) {
	var from, to models.SubsidyRequestStatus
	switch a := action.(type) {
	case ApproveTransition:
		from, to = a.edge()
	case DeclineTransition:
		from, to = a.edge()
	case SubmitApprovalTransition:
		from, to = a.edge()
	default:
		return state, appErrors.Clone(appErrors.ErrUnknownTransition, fmt.Sprintf("unrecognized request transition %T", action))
	}

	for _, row := range state.Results {
		if row.ID == action.RequestID() && row.Status != from {
			return state, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("request %s is %s and cannot become %s", row.ID, row.Status, to))
		}
	}

	next := RequestListState{
		Results:        make([]models.SubsidyRequest, len(state.Results)),
		OverviewCounts: make([]models.OverviewCount, len(state.OverviewCounts)),
	}
	copy(next.Results, state.Results)
	copy(next.OverviewCounts, state.OverviewCounts)

	for i := range next.Results {
		if next.Results[i].ID == action.RequestID() {
			next.Results[i].Status = to
			break
		}
	}

	next.OverviewCounts = adjustOverview(next.OverviewCounts, from, -1)
	next.OverviewCounts = adjustOverview(next.OverviewCounts, to, 1)
	return next, nil
}

// adjustOverview shifts one bucket by delta, adding the bucket when the server omitted it.
func adjustOverview(counts []models.OverviewCount, status models.SubsidyRequestStatus, delta int) []models.OverviewCount {
	for i := range counts {
		if counts[i].Status == status {
			counts[i].Count += delta
			return counts
		}
	}
	return append(counts, models.OverviewCount{Status: status, Label: status.Label(), Count: delta})
}
