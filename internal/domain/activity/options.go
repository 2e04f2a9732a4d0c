package activity

import "time"

// ListActivityOptions filters the audit trail. Zero values do not filter.
type ListActivityOptions struct {
	ResultID     *string
	ActivityType *ActivityType
	UserID       string
	Since        *time.Time
	Limit        int
	Offset       int
}
