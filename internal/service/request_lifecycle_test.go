package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

type bogusTransition struct{}

func (bogusTransition) RequestID() string { return "r1" }

func (bogusTransition) edge() (models.SubsidyRequestStatus, models.SubsidyRequestStatus) {
	return models.SubsidyRequestStatusRequested, models.SubsidyRequestStatusErrored
}

func listState() RequestListState {
	return RequestListState{
		Results: []models.SubsidyRequest{
			{ID: "r1", SubjectEmail: "ada@example.com", Status: models.SubsidyRequestStatusRequested},
			{ID: "r2", SubjectEmail: "alan@example.com", Status: models.SubsidyRequestStatusRequested},
		},
		OverviewCounts: []models.OverviewCount{
			{Status: models.SubsidyRequestStatusRequested, Label: "Requested", Count: 5},
			{Status: models.SubsidyRequestStatusApproved, Label: "Approved", Count: 0},
			{Status: models.SubsidyRequestStatusDeclined, Label: "Declined", Count: 2},
		},
	}
}

func countFor(counts []models.OverviewCount, status models.SubsidyRequestStatus) int {
	for _, c := range counts {
		if c.Status == status {
			return c.Count
		}
	}
	return -1
}

func TestTransitionRequestsApprove(t *testing.T) {
	before := listState()
	after, err := TransitionRequests(before, ApproveTransition{ID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, models.SubsidyRequestStatusApproved, after.Results[0].Status)
	assert.Equal(t, models.SubsidyRequestStatusRequested, after.Results[1].Status)
	assert.Equal(t, 4, countFor(after.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 1, countFor(after.OverviewCounts, models.SubsidyRequestStatusApproved))
	assert.Equal(t, models.SumOverviewCounts(before.OverviewCounts), models.SumOverviewCounts(after.OverviewCounts))
}

func TestTransitionRequestsDoesNotMutateInput(t *testing.T) {
	before := listState()
	_, err := TransitionRequests(before, DeclineTransition{ID: "r2"})
	require.NoError(t, err)

	assert.Equal(t, models.SubsidyRequestStatusRequested, before.Results[1].Status)
	assert.Equal(t, 5, countFor(before.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 2, countFor(before.OverviewCounts, models.SubsidyRequestStatusDeclined))
}

func TestTransitionRequestsDeclineAndSubmit(t *testing.T) {
	state := listState()
	state, err := TransitionRequests(state, DeclineTransition{ID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, models.SubsidyRequestStatusDeclined, state.Results[1].Status)
	assert.Equal(t, 3, countFor(state.OverviewCounts, models.SubsidyRequestStatusDeclined))

	state, err = TransitionRequests(state, SubmitApprovalTransition{ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, models.SubsidyRequestStatusPending, state.Results[0].Status)
	assert.Equal(t, 1, countFor(state.OverviewCounts, models.SubsidyRequestStatusPending), "missing bucket is added")
	assert.Equal(t, 3, countFor(state.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 7, models.SumOverviewCounts(state.OverviewCounts))
}

func TestTransitionRequestsRecordOffPageStillAdjustsCounts(t *testing.T) {
	after, err := TransitionRequests(listState(), ApproveTransition{ID: "not-on-page"})
	require.NoError(t, err)

	for _, r := range after.Results {
		assert.Equal(t, models.SubsidyRequestStatusRequested, r.Status)
	}
	assert.Equal(t, 4, countFor(after.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 1, countFor(after.OverviewCounts, models.SubsidyRequestStatusApproved))
}

func TestTransitionRequestsDoesNotClamp(t *testing.T) {
	state := RequestListState{OverviewCounts: []models.OverviewCount{
		{Status: models.SubsidyRequestStatusRequested, Count: 0},
	}}
	after, err := TransitionRequests(state, DeclineTransition{ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, -1, countFor(after.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 1, countFor(after.OverviewCounts, models.SubsidyRequestStatusDeclined))
}

func TestTransitionRequestsRejectsUnknownTransition(t *testing.T) {
	before := listState()

	after, err := TransitionRequests(before, bogusTransition{})
	assert.ErrorIs(t, err, appErrors.ErrUnknownTransition)
	assert.Equal(t, before, after)

	_, err = TransitionRequests(before, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnknownTransition)
}

func TestTransitionRequestsRejectsRowsNotRequested(t *testing.T) {
	before := listState()
	before.Results[0].Status = models.SubsidyRequestStatusDeclined

	after, err := TransitionRequests(before, ApproveTransition{ID: "r1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, before, after)
	assert.Equal(t, 5, countFor(after.OverviewCounts, models.SubsidyRequestStatusRequested))

	approved, err := TransitionRequests(listState(), ApproveTransition{ID: "r2"})
	require.NoError(t, err)
	again, err := TransitionRequests(approved, ApproveTransition{ID: "r2"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, 4, countFor(again.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 1, countFor(again.OverviewCounts, models.SubsidyRequestStatusApproved))

	_, err = TransitionRequests(approved, SubmitApprovalTransition{ID: "r2"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}
