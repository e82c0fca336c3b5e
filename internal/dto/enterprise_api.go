package dto

import "time"

// PageEnvelope is the paginated collection envelope returned by the enterprise API.
type PageEnvelope[T any] struct {
	Count    int    `json:"count"`
	NumPages int    `json:"num_pages"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// SubsidyRequestPayload is a request row as serialised by the enterprise API.
type SubsidyRequestPayload struct {
	UUID        string    `json:"uuid"`
	Email       string    `json:"email"`
	CourseID    string    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	CoursePrice *float64  `json:"course_price,omitempty"`
	Created     time.Time `json:"created"`
	State       string    `json:"state"`
}

// OverviewCountPayload is one entry of the per-state overview endpoint.
type OverviewCountPayload struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// SubsidyConfigurationPayload mirrors the per-enterprise configuration resource.
type SubsidyConfigurationPayload struct {
	EnterpriseCustomerUUID string  `json:"enterprise_customer_uuid"`
	SubsidyRequestsEnabled bool    `json:"subsidy_requests_enabled"`
	SubsidyType            *string `json:"subsidy_type"`
}

// SubsidyConfigurationPatchPayload is the PATCH body. SubsidyType is always sent when ClearSubsidyType is set.
type SubsidyConfigurationPatchPayload map[string]interface{}

// ApproveSubsidyRequestsPayload approves one or more requests.
type ApproveSubsidyRequestsPayload struct {
	SubsidyRequestUUIDs    []string `json:"subsidy_request_uuids"`
	EnterpriseCustomerUUID string   `json:"enterprise_customer_uuid"`
	SendNotification       bool     `json:"send_notification"`
	SubscriptionPlanUUID   string   `json:"subscription_plan_uuid,omitempty"`
	CouponID               int      `json:"coupon_id,omitempty"`
}

// DeclineSubsidyRequestsPayload declines one or more requests.
type DeclineSubsidyRequestsPayload struct {
	SubsidyRequestUUIDs       []string `json:"subsidy_request_uuids"`
	EnterpriseCustomerUUID    string   `json:"enterprise_customer_uuid"`
	SendNotification          bool     `json:"send_notification"`
	UnlinkUsersFromEnterprise bool     `json:"unlink_users_from_enterprise,omitempty"`
}

// CouponPayload is a coupon batch from the ecommerce inventory lookup.
type CouponPayload struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	NumUnassigned     int    `json:"num_unassigned"`
	EndDate           string `json:"end_date,omitempty"`
	AvailableToAssign bool   `json:"available,omitempty"`
}

// LicenseSubscriptionPayload is a subscription plan from the license manager lookup.
type LicenseSubscriptionPayload struct {
	UUID       string `json:"uuid"`
	Title      string `json:"title"`
	IsActive   bool   `json:"is_active"`
	Expiration string `json:"expiration_date,omitempty"`
}

// LicenseAssignmentPayload is a learner license row from the license manager.
type LicenseAssignmentPayload struct {
	UUID           string     `json:"uuid"`
	UserEmail      string     `json:"user_email"`
	Status         string     `json:"status"`
	ActivationDate *time.Time `json:"activation_date"`
	LastRemindDate *time.Time `json:"last_remind_date"`
}

// APIErrorPayload captures the error body the enterprise API returns on failure.
type APIErrorPayload struct {
	Detail string `json:"detail"`
}
