package domain

import "time"

// ManagementNote is a periodic summary written by an intake office. It has no lifecycle.
type ManagementNote struct {
	ID          string
	OfficeLabel string
	Content     string
	CreatedAt   time.Time
}
