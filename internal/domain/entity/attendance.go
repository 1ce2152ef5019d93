package entity

import (
	"fmt"
	"time"
)

// WorkingHours selects the shift an attendance query covers
type WorkingHours int

const (
	WorkingHoursMorning WorkingHours = 1
	WorkingHoursEvening WorkingHours = 2
	WorkingHoursAll     WorkingHours = 3
)

// IsValid reports whether the value is one of the three shifts
func (w WorkingHours) IsValid() bool {
	return w >= WorkingHoursMorning && w <= WorkingHoursAll
}

// UnavailableRequest is the body of POST /api/Attendance/statistics/unavailable
type UnavailableRequest struct {
	Date          string       `json:"date"`
	WorkingHours  WorkingHours `json:"workingHours"`
	GovernorateID *int64       `json:"governorateId"`
}

// NewUnavailableRequest pins the date to midnight UTC the way the API expects
func NewUnavailableRequest(day time.Time, hours WorkingHours, governorateID *int64) UnavailableRequest {
	return UnavailableRequest{
		Date:          fmt.Sprintf("%sT00:00:00Z", day.Format(DateLayout)),
		WorkingHours:  hours,
		GovernorateID: governorateID,
	}
}
