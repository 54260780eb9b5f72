package query

import (
	"encoding/json"
	"fmt"
	"time"
)

// SummaryArgs is the reporting window of a summary request. Both
// bounds are optional date strings; parsing happens server-side so
// every client sees identical date handling.
type SummaryArgs struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// Request is one decoded query. Exactly one of the fields is set.
type Request struct {
	Current bool
	Summary *SummaryArgs
}

// DecodeRequest parses the externally tagged wire form: the string
// "Current", or an object {"Summary": {...}}.
func DecodeRequest(data []byte) (Request, error) {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		if kind == "Current" {
			return Request{Current: true}, nil
		}
		return Request{}, fmt.Errorf("unknown request %q", kind)
	}

	var tagged struct {
		Summary *SummaryArgs `json:"Summary"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return Request{}, fmt.Errorf("malformed request: %w", err)
	}
	if tagged.Summary == nil {
		return Request{}, fmt.Errorf("unknown request")
	}
	return Request{Summary: tagged.Summary}, nil
}

// EncodeCurrent renders a current-activity request.
func EncodeCurrent() ([]byte, error) {
	return json.Marshal("Current")
}

// EncodeSummary renders a summary request.
func EncodeSummary(args SummaryArgs) ([]byte, error) {
	return json.Marshal(map[string]SummaryArgs{"Summary": args})
}

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate reads a window bound in the local timezone.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD HH:MM:SS, YYYY-MM-DD or DD/MM/YYYY)", s)
}

// Window resolves the request bounds. A missing start means the
// beginning of time, a missing end means now.
func (a SummaryArgs) Window(now time.Time) (start, end time.Time, err error) {
	start = time.Unix(0, 0)
	end = now

	if a.StartTime != nil {
		start, err = ParseDate(*a.StartTime)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_time: %w", err)
		}
	}
	if a.EndTime != nil {
		end, err = ParseDate(*a.EndTime)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_time: %w", err)
		}
	}
	return start, end, nil
}
