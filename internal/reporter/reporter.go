package reporter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"plasmatrack/internal/models"
	"plasmatrack/pkg/utils"
)

// Store is the slice of the repository the reporter reads from.
type Store interface {
	Summary(start, end, now time.Time) (map[string]time.Duration, error)
	OpenInterval() (*models.Interval, error)
}

// Directory resolves activity ids to display metadata.
type Directory interface {
	Info(ctx context.Context, id string) models.ActivityInfo
}

// Reporter renders query responses from the timeline and the activity
// directory.
type Reporter struct {
	store     Store
	directory Directory
}

// New creates a new reporter
func New(store Store, directory Directory) *Reporter {
	return &Reporter{
		store:     store,
		directory: directory,
	}
}

// Summary renders the per-activity totals within [start, end) as a
// two-column table sized to its content.
func (r *Reporter) Summary(ctx context.Context, start, end, now time.Time) (string, error) {
	totals, err := r.store.Summary(start, end, now)
	if err != nil {
		return "", fmt.Errorf("failed to summarize activity: %w", err)
	}

	// Stored names are directory ids; two ids can resolve to the same
	// display name, so totals are merged again after resolution.
	merged := make(map[string]time.Duration, len(totals))
	for id, d := range totals {
		merged[r.directory.Info(ctx, id).Name] += d
	}

	if len(merged) == 0 {
		return "No activity recorded for this period.\n", nil
	}

	entries := make([]models.SummaryEntry, 0, len(merged))
	for name, d := range merged {
		entries = append(entries, models.SummaryEntry{Name: name, Duration: d})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Duration != entries[j].Duration {
			return entries[i].Duration > entries[j].Duration
		}
		return entries[i].Name < entries[j].Name
	})

	return renderTable(entries), nil
}

// Current renders the open interval, or the no-activity placeholder
// when nothing is being tracked.
func (r *Reporter) Current(ctx context.Context, now time.Time) (string, error) {
	interval, err := r.store.OpenInterval()
	if err != nil {
		return "", fmt.Errorf("failed to read current activity: %w", err)
	}

	if interval == nil {
		return "Current Activity: No current activity\nDescription: N/A\nElapsed Time: N/A\n", nil
	}

	info := r.directory.Info(ctx, interval.Name)
	description := info.Description
	if description == "" {
		description = "N/A"
	}

	output := fmt.Sprintf("Current Activity: %s\n", info.Name)
	output += fmt.Sprintf("Description: %s\n", description)
	output += fmt.Sprintf("Elapsed Time: %s\n", utils.FormatDuration(interval.Duration(now)))
	return output, nil
}

func renderTable(entries []models.SummaryEntry) string {
	nameWidth := len("Activity")
	durationWidth := len("Duration")

	durations := make([]string, len(entries))
	for i, e := range entries {
		durations[i] = utils.FormatDuration(e.Duration)
		if len(e.Name) > nameWidth {
			nameWidth = len(e.Name)
		}
		if len(durations[i]) > durationWidth {
			durationWidth = len(durations[i])
		}
	}

	output := fmt.Sprintf("%-*s  %s\n", nameWidth, "Activity", "Duration")
	output += fmt.Sprintf("%s  %s\n", strings.Repeat("-", nameWidth), strings.Repeat("-", durationWidth))
	for i, e := range entries {
		output += fmt.Sprintf("%-*s  %s\n", nameWidth, e.Name, durations[i])
	}
	return output
}
