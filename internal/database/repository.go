package database

import (
	"time"

	"plasmatrack/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for activity intervals.
// Mutating methods take the clock as an argument so callers (and
// tests) control time; the daemon passes time.Now().
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// EndCurrentActivity closes the open interval at now. Calling it with
// no open interval is a no-op, not an error.
func (r *Repository) EndCurrentActivity(now time.Time) error {
	result := r.db.Model(&models.Interval{}).
		Where("end_time IS NULL").
		Update("end_time", now.Unix())
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to end current activity")
	}
	return nil
}

// SwitchActivity closes the open interval (if any) and opens a new one
// for name starting at now. This is the single state-transition
// primitive; every tracking change funnels through it or through
// EndCurrentActivity alone.
func (r *Repository) SwitchActivity(name string, now time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Interval{}).
			Where("end_time IS NULL").
			Update("end_time", now.Unix())
		if result.Error != nil {
			return result.Error
		}

		interval := models.Interval{Name: name, StartTime: now.Unix()}
		return tx.Create(&interval).Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to switch activity")
	}
	return nil
}

// OpenInterval returns the open interval, or nil if none exists.
func (r *Repository) OpenInterval() (*models.Interval, error) {
	var interval models.Interval
	result := r.db.Where("end_time IS NULL").Order("start_time DESC").First(&interval)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get open interval")
	}
	return &interval, nil
}

// CurrentActivity returns the name of the open interval, or "" if no
// interval is open.
func (r *Repository) CurrentActivity() (string, error) {
	interval, err := r.OpenInterval()
	if err != nil {
		return "", err
	}
	if interval == nil {
		return "", nil
	}
	return interval.Name, nil
}

// CurrentElapsed returns how long the open interval has been running
// at now. The second return is false when no interval is open.
func (r *Repository) CurrentElapsed(now time.Time) (time.Duration, bool, error) {
	interval, err := r.OpenInterval()
	if err != nil {
		return 0, false, err
	}
	if interval == nil {
		return 0, false, nil
	}
	return interval.Duration(now), true, nil
}

// Summary returns the total duration attributed to each activity
// within [start, end). Intervals overlapping the window are clipped at
// its boundaries, not excluded; an open interval is treated as ending
// at now. Activities whose clipped contribution is zero or negative
// are omitted.
func (r *Repository) Summary(start, end, now time.Time) (map[string]time.Duration, error) {
	var intervals []models.Interval
	result := r.db.
		Where("start_time < ? AND (end_time IS NULL OR end_time > ?)", end.Unix(), start.Unix()).
		Order("start_time ASC").
		Find(&intervals)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query intervals")
	}

	totals := make(map[string]time.Duration)
	for _, interval := range intervals {
		intervalEnd := now.Unix()
		if interval.EndTime != nil {
			intervalEnd = *interval.EndTime
		}

		from := max64(interval.StartTime, start.Unix())
		to := min64(intervalEnd, end.Unix())
		if to <= from {
			continue
		}
		totals[interval.Name] += time.Duration(to-from) * time.Second
	}

	return totals, nil
}

// IntervalsSince returns all intervals starting at or after since,
// oldest first.
func (r *Repository) IntervalsSince(since time.Time) ([]*models.Interval, error) {
	var intervals []*models.Interval
	result := r.db.Where("start_time >= ?", since.Unix()).Order("start_time ASC").Find(&intervals)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query intervals")
	}
	return intervals, nil
}

// DeleteClosedBefore deletes closed intervals that ended before the
// cutoff. The open interval is never deleted.
func (r *Repository) DeleteClosedBefore(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("end_time IS NOT NULL AND end_time < ?", cutoff.Unix()).
		Delete(&models.Interval{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old intervals")
	}
	return result.RowsAffected, nil
}

// RecentErrors returns the newest persisted errors, most recent first.
func (r *Repository) RecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// DeleteErrorLogsBefore deletes error logs recorded before the cutoff.
func (r *Repository) DeleteErrorLogsBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", cutoff).Delete(&models.ErrorLog{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old error logs")
	}
	return result.RowsAffected, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
