package models

import "time"

// Interval is one span of time attributed to a single activity.
// EndTime nil means the interval is still open; at most one open
// interval exists at any time and the daemon is its only writer.
type Interval struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;index" json:"name"`
	StartTime int64  `gorm:"not null;index" json:"start_time"` // Unix seconds
	EndTime   *int64 `gorm:"index" json:"end_time"`            // Unix seconds, nil while open
}

// Open reports whether the interval has not been closed yet.
func (i *Interval) Open() bool {
	return i.EndTime == nil
}

// Duration returns the span covered by the interval, using now as the
// end for an open interval.
func (i *Interval) Duration(now time.Time) time.Duration {
	end := now.Unix()
	if i.EndTime != nil {
		end = *i.EndTime
	}
	if end < i.StartTime {
		return 0
	}
	return time.Duration(end-i.StartTime) * time.Second
}

// ActivityInfo is human-readable metadata for an activity identifier,
// resolved on demand from the directory service. Empty fields mean the
// directory does not know the identifier; callers fall back to the raw
// identifier. Never persisted.
type ActivityInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SummaryEntry is one row of a summary report.
type SummaryEntry struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}
