package model

import "time"

// Frequency is the unit a recurrence repeats in.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Recurrence describes a repeating task or event. Build it with recurrence.New
// so that interval and weekday constraints are checked. DaysOfWeek holds weekday
// indices (Sunday = 0) and only applies to weekly rules. EndDate is inclusive.
//
// Start anchors a task series. It is fixed when the rule is attached; rollover
// moves the task's due date but never Start, so the pattern stays put.
type Recurrence struct {
	Frequency  Frequency  `json:"frequency"`
	Interval   int        `json:"interval"`
	DaysOfWeek []int      `json:"days_of_week,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
}
