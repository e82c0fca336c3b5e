package models

import "time"

// ConsoleSessionInfo summarises a mounted console session.
type ConsoleSessionInfo struct {
	ID           string    `json:"id"`
	EnterpriseID string    `json:"enterprise_id"`
	UserID       string    `json:"user_id"`
	MountedAt    time.Time `json:"mounted_at"`
}
