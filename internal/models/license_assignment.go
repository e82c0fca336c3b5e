package models

import "time"

// LicenseAssignment is a learner license row shown on the license management view.
type LicenseAssignment struct {
	ID             string     `json:"id"`
	UserEmail      string     `json:"user_email"`
	Status         string     `json:"status"`
	ActivationDate *time.Time `json:"activation_date,omitempty"`
	LastRemindDate *time.Time `json:"last_remind_date,omitempty"`
}
