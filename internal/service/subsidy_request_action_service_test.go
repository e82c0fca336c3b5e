package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

func mountedSession(t *testing.T, api *fakeEnterpriseAPI, channel models.SubsidyChannel) (*ConsoleSessionService, *ConsoleSession) {
	t.Helper()
	svc, _ := newSessionService(api, config.SubsidyRequestsConfig{Enabled: true})
	session, err := svc.Mount(context.Background(), adminClaims, "tok", nil)
	require.NoError(t, err)

	view, ok := session.RequestView(channel)
	require.True(t, ok)
	view.Configure(models.FetchArgs{})
	require.NoError(t, view.LoadOverview(context.Background(), models.FetchArgs{}))
	require.Eventually(t, func() bool { return len(view.Snapshot().Page.Results) == 2 }, time.Second, 5*time.Millisecond)
	return svc, session
}

func TestApproveLicenseRequest(t *testing.T) {
	api := seededRequestAPI()
	svc, session := mountedSession(t, api, models.SubsidyChannelLicense)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)

	snapshot, err := actions.Approve(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.ApproveRequest{
		SendNotification:     true,
		SubscriptionPlanUUID: "6f1c1c52-8f7e-4c1e-9b1a-2f7d3c9e0a11",
	})
	require.NoError(t, err)

	require.Len(t, api.approvals, 1)
	assert.Equal(t, []string{"r1"}, api.approvals[0].SubsidyRequestUUIDs)
	assert.Equal(t, "ent-1", api.approvals[0].EnterpriseCustomerUUID)
	assert.True(t, api.approvals[0].SendNotification)

	assert.Equal(t, models.SubsidyRequestStatusApproved, snapshot.Page.Results[0].Status)
	assert.Equal(t, 4, countFor(snapshot.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 1, countFor(snapshot.OverviewCounts, models.SubsidyRequestStatusApproved))
	assert.Equal(t, 4, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelLicense])
}

func TestApproveCouponRequestMovesToPending(t *testing.T) {
	api := seededRequestAPI()
	api.pages[models.SubsidyChannelCoupon] = api.pages[models.SubsidyChannelLicense]
	api.overviews[models.SubsidyChannelCoupon] = api.overviews[models.SubsidyChannelLicense]
	svc, session := mountedSession(t, api, models.SubsidyChannelCoupon)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)

	snapshot, err := actions.Approve(context.Background(), session, models.SubsidyChannelCoupon, "r2", dto.ApproveRequest{CouponID: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, api.approvals[0].CouponID)
	assert.Equal(t, models.SubsidyRequestStatusPending, snapshot.Page.Results[1].Status)
	assert.Equal(t, 1, countFor(snapshot.OverviewCounts, models.SubsidyRequestStatusPending))
	assert.Equal(t, 4, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelCoupon])
	assert.Equal(t, 5, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelLicense])
}

func TestDeclineRequestOffPageStillDecrementsOnce(t *testing.T) {
	api := seededRequestAPI()
	svc, session := mountedSession(t, api, models.SubsidyChannelLicense)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)

	snapshot, err := actions.Decline(context.Background(), session, models.SubsidyChannelLicense, "elsewhere", dto.DeclineRequest{UnlinkUsersFromEnterprise: true})
	require.NoError(t, err)
	require.Len(t, api.declines, 1)
	assert.True(t, api.declines[0].UnlinkUsersFromEnterprise)

	for _, r := range snapshot.Page.Results {
		assert.Equal(t, models.SubsidyRequestStatusRequested, r.Status)
	}
	assert.Equal(t, 1, countFor(snapshot.OverviewCounts, models.SubsidyRequestStatusDeclined))
	assert.Equal(t, 4, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelLicense])
}

func TestActionsRejectRequestsAlreadyDecided(t *testing.T) {
	api := seededRequestAPI()
	svc, session := mountedSession(t, api, models.SubsidyChannelLicense)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)

	_, err := actions.Decline(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.DeclineRequest{})
	require.NoError(t, err)

	_, err = actions.Approve(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.ApproveRequest{
		SubscriptionPlanUUID: "6f1c1c52-8f7e-4c1e-9b1a-2f7d3c9e0a11",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = actions.Decline(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.DeclineRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	assert.Equal(t, 0, api.approvalCount())
	api.mu.Lock()
	assert.Len(t, api.declines, 1)
	api.mu.Unlock()

	view, _ := session.RequestView(models.SubsidyChannelLicense)
	snapshot := view.Snapshot()
	assert.Equal(t, models.SubsidyRequestStatusDeclined, snapshot.Page.Results[0].Status)
	assert.Equal(t, 4, countFor(snapshot.OverviewCounts, models.SubsidyRequestStatusRequested))
	assert.Equal(t, 4, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelLicense])
}

func TestActionFailureLeavesLocalStateUntouched(t *testing.T) {
	api := seededRequestAPI()
	svc, session := mountedSession(t, api, models.SubsidyChannelLicense)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)
	api.declineErr = appErrors.ErrUpstream

	_, err := actions.Decline(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.DeclineRequest{})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)

	view, _ := session.RequestView(models.SubsidyChannelLicense)
	assert.Equal(t, models.SubsidyRequestStatusRequested, view.Snapshot().Page.Results[0].Status)
	assert.Equal(t, 5, session.Provider.Snapshot().RequestsOverview[models.SubsidyChannelLicense])
}

func TestApproveValidatesChannelPayload(t *testing.T) {
	api := seededRequestAPI()
	svc, session := mountedSession(t, api, models.SubsidyChannelLicense)
	defer svc.Close()
	actions := NewSubsidyRequestActionService(nil, nil)

	_, err := actions.Approve(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.ApproveRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = actions.Approve(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.ApproveRequest{SubscriptionPlanUUID: "not-a-uuid"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = actions.Approve(context.Background(), session, models.SubsidyChannelCoupon, "r1", dto.ApproveRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 0, api.approvalCount())
}

func TestActionsRejectDisabledSessions(t *testing.T) {
	svc, _ := newSessionService(seededRequestAPI(), config.SubsidyRequestsConfig{Enabled: false})
	defer svc.Close()
	session, err := svc.Mount(context.Background(), adminClaims, "tok", nil)
	require.NoError(t, err)
	actions := NewSubsidyRequestActionService(nil, nil)

	_, err = actions.Decline(context.Background(), session, models.SubsidyChannelLicense, "r1", dto.DeclineRequest{})
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
}
