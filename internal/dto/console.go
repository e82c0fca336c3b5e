package dto

import (
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// MountSessionRequest mounts a console session for the caller's enterprise.
type MountSessionRequest struct {
	EligibleChannels []string `json:"eligible_channels" validate:"omitempty,dive,oneof=license coupon"`
}

// ConfigureListRequest reconfigures a list view's table state.
type ConfigureListRequest struct {
	models.FetchArgs
}

// ApproveRequest approves a single subsidy request.
type ApproveRequest struct {
	SendNotification     bool   `json:"send_notification"`
	SubscriptionPlanUUID string `json:"subscription_plan_uuid" validate:"omitempty,uuid"`
	CouponID             int    `json:"coupon_id" validate:"omitempty,gt=0"`
}

// DeclineRequest declines a single subsidy request.
type DeclineRequest struct {
	SendNotification          bool `json:"send_notification"`
	UnlinkUsersFromEnterprise bool `json:"unlink_users_from_enterprise"`
}

// UpdateConfigurationRequest updates the enterprise's subsidy request configuration.
type UpdateConfigurationRequest struct {
	RequestsEnabled  *bool   `json:"requests_enabled"`
	SubsidyType      *string `json:"subsidy_type" validate:"omitempty,oneof=license coupon"`
	ClearSubsidyType bool    `json:"clear_subsidy_type"`
}

// MountSessionResponse is returned when a session is mounted.
type MountSessionResponse struct {
	Session  models.ConsoleSessionInfo `json:"session"`
	Snapshot SubsidyRequestsSnapshot   `json:"snapshot"`
}

// SubsidyRequestsSnapshot is the shared state every view of a session observes.
type SubsidyRequestsSnapshot struct {
	RequestsEnabled    bool                                `json:"requests_enabled"`
	ConfigurationState models.ConfigurationState           `json:"configuration_state"`
	Configuration      *models.SubsidyRequestConfiguration `json:"configuration,omitempty"`
	IsLoadingOverview  bool                                `json:"is_loading_overview"`
	RequestsOverview   map[models.SubsidyChannel]int       `json:"requests_overview"`
	Version            uint64                              `json:"version"`
}

// RequestListSnapshot is the state of a single channel's request table.
type RequestListSnapshot struct {
	Channel        models.SubsidyChannel              `json:"channel"`
	Page           models.Page[models.SubsidyRequest] `json:"page"`
	OverviewCounts []models.OverviewCount             `json:"overview_counts"`
}

// SessionStateResponse is the full state of a mounted session.
type SessionStateResponse struct {
	Session  models.ConsoleSessionInfo             `json:"session"`
	Snapshot SubsidyRequestsSnapshot               `json:"snapshot"`
	Requests []RequestListSnapshot                 `json:"requests,omitempty"`
	Licenses models.Page[models.LicenseAssignment] `json:"licenses"`
}

// Stream message types pushed over the session websocket.
const (
	StreamSubsidyRequests = "subsidy_requests"
	StreamRequestList     = "request_list"
	StreamLicenses        = "licenses"
)

// StreamMessage wraps a snapshot pushed to a websocket client.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
