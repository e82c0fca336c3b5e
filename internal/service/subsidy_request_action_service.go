package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

// SubsidyRequestActionService performs admin actions on a single request and keeps
// the session's list view and badge counts in step with the server.
type SubsidyRequestActionService struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubsidyRequestActionService constructs the service.
func NewSubsidyRequestActionService(validate *validator.Validate, logger *zap.Logger) *SubsidyRequestActionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubsidyRequestActionService{validator: validate, logger: logger}
}

// Approve approves one request. Licenses are granted immediately; coupon codes are
// assigned asynchronously so the row moves to pending.
func (s *SubsidyRequestActionService) Approve(ctx context.Context, session *ConsoleSession, channel models.SubsidyChannel, requestID string, req dto.ApproveRequest) (*dto.RequestListSnapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	view, err := s.view(session, channel, requestID)
	if err != nil {
		return nil, err
	}

	payload := dto.ApproveSubsidyRequestsPayload{
		SubsidyRequestUUIDs:    []string{requestID},
		EnterpriseCustomerUUID: session.Info.EnterpriseID,
		SendNotification:       req.SendNotification,
	}
	var transition RequestTransition
	switch channel {
	case models.SubsidyChannelLicense:
		if req.SubscriptionPlanUUID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subscription_plan_uuid is required to approve a license request")
		}
		payload.SubscriptionPlanUUID = req.SubscriptionPlanUUID
		transition = ApproveTransition{ID: requestID}
	case models.SubsidyChannelCoupon:
		if req.CouponID == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "coupon_id is required to approve a coupon code request")
		}
		payload.CouponID = req.CouponID
		transition = SubmitApprovalTransition{ID: requestID}
	}
	if err := view.CheckTransition(transition); err != nil {
		return nil, err
	}

	if err := session.api.Requests.Approve(ctx, channel, payload); err != nil {
		s.logger.Error("failed to approve subsidy request",
			zap.String("session_id", session.Info.ID),
			zap.String("channel", string(channel)),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return s.complete(session, view, channel, transition)
}

// Decline declines one request.
func (s *SubsidyRequestActionService) Decline(ctx context.Context, session *ConsoleSession, channel models.SubsidyChannel, requestID string, req dto.DeclineRequest) (*dto.RequestListSnapshot, error) {
	view, err := s.view(session, channel, requestID)
	if err != nil {
		return nil, err
	}

	payload := dto.DeclineSubsidyRequestsPayload{
		SubsidyRequestUUIDs:       []string{requestID},
		EnterpriseCustomerUUID:    session.Info.EnterpriseID,
		SendNotification:          req.SendNotification,
		UnlinkUsersFromEnterprise: req.UnlinkUsersFromEnterprise,
	}
	transition := DeclineTransition{ID: requestID}
	if err := view.CheckTransition(transition); err != nil {
		return nil, err
	}
	if err := session.api.Requests.Decline(ctx, channel, payload); err != nil {
		s.logger.Error("failed to decline subsidy request",
			zap.String("session_id", session.Info.ID),
			zap.String("channel", string(channel)),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return s.complete(session, view, channel, transition)
}

func (s *SubsidyRequestActionService) view(session *ConsoleSession, channel models.SubsidyChannel, requestID string) (*RequestListView, error) {
	if session == nil {
		return nil, appErrors.ErrSessionNotFound
	}
	if requestID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request id is required")
	}
	if !session.SubsidyRequestsEnabled() {
		return nil, appErrors.ErrFeatureDisabled
	}
	view, ok := session.RequestView(channel)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown subsidy channel")
	}
	return view, nil
}

// complete reflects a server-confirmed action locally. The badge is decremented
// exactly once even if the row is not on the visible page.
func (s *SubsidyRequestActionService) complete(session *ConsoleSession, view *RequestListView, channel models.SubsidyChannel, transition RequestTransition) (*dto.RequestListSnapshot, error) {
	session.Touch()
	if err := view.Dispatch(transition); err != nil {
		return nil, err
	}
	session.Provider.DecrementOverview(channel)
	snapshot := view.Snapshot()
	return &snapshot, nil
}
