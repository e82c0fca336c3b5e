package models

import "time"

// SubsidyRequestStatus enumerates lifecycle states for a learner subsidy request.
type SubsidyRequestStatus string

const (
	SubsidyRequestStatusRequested SubsidyRequestStatus = "requested"
	SubsidyRequestStatusPending   SubsidyRequestStatus = "pending"
	SubsidyRequestStatusApproved  SubsidyRequestStatus = "approved"
	SubsidyRequestStatusDeclined  SubsidyRequestStatus = "declined"
	SubsidyRequestStatusErrored   SubsidyRequestStatus = "errored"
)

// SubsidyRequestStatuses lists every status bucket in display order.
var SubsidyRequestStatuses = []SubsidyRequestStatus{
	SubsidyRequestStatusRequested,
	SubsidyRequestStatusPending,
	SubsidyRequestStatusApproved,
	SubsidyRequestStatusDeclined,
	SubsidyRequestStatusErrored,
}

// Valid reports whether the status is one of the known buckets.
func (s SubsidyRequestStatus) Valid() bool {
	for _, known := range SubsidyRequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human readable chip label for the status.
func (s SubsidyRequestStatus) Label() string {
	switch s {
	case SubsidyRequestStatusRequested:
		return "Requested"
	case SubsidyRequestStatusPending:
		return "Pending"
	case SubsidyRequestStatusApproved:
		return "Approved"
	case SubsidyRequestStatusDeclined:
		return "Declined"
	case SubsidyRequestStatusErrored:
		return "Error"
	default:
		return string(s)
	}
}

// SubsidyChannel identifies the funding mechanism a request targets.
type SubsidyChannel string

const (
	SubsidyChannelLicense SubsidyChannel = "license"
	SubsidyChannelCoupon  SubsidyChannel = "coupon"
)

// SubsidyChannels lists the supported channels.
var SubsidyChannels = []SubsidyChannel{SubsidyChannelLicense, SubsidyChannelCoupon}

// ParseSubsidyChannel validates a raw channel identifier.
func ParseSubsidyChannel(raw string) (SubsidyChannel, bool) {
	switch SubsidyChannel(raw) {
	case SubsidyChannelLicense:
		return SubsidyChannelLicense, true
	case SubsidyChannelCoupon:
		return SubsidyChannelCoupon, true
	default:
		return "", false
	}
}

// SubsidyRequest is a display-ready request row.
type SubsidyRequest struct {
	ID           string               `json:"id"`
	SubjectEmail string               `json:"subject_email"`
	CourseID     string               `json:"course_id"`
	CourseTitle  string               `json:"course_title"`
	Amount       *float64             `json:"amount,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	Status       SubsidyRequestStatus `json:"status"`
}

// OverviewCount is one status bucket of the aggregate request tally.
type OverviewCount struct {
	Status SubsidyRequestStatus `json:"status"`
	Label  string               `json:"label"`
	Count  int                  `json:"count"`
}

// SumOverviewCounts totals all buckets.
func SumOverviewCounts(counts []OverviewCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}
