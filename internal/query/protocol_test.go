package query

import (
	"strings"
	"testing"
	"time"
)

func TestDecodeRequestCurrent(t *testing.T) {
	req, err := DecodeRequest([]byte(`"Current"`))
	if err != nil {
		t.Fatalf("DecodeRequest() error: %v", err)
	}
	if !req.Current || req.Summary != nil {
		t.Errorf("DecodeRequest() = %+v, want Current", req)
	}
}

func TestDecodeRequestSummary(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"Summary":{"start_time":"2024-01-15","end_time":null}}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error: %v", err)
	}
	if req.Current || req.Summary == nil {
		t.Fatalf("DecodeRequest() = %+v, want Summary", req)
	}
	if req.Summary.StartTime == nil || *req.Summary.StartTime != "2024-01-15" {
		t.Errorf("StartTime = %v, want 2024-01-15", req.Summary.StartTime)
	}
	if req.Summary.EndTime != nil {
		t.Errorf("EndTime = %v, want nil", *req.Summary.EndTime)
	}
}

func TestDecodeRequestSummaryNoBounds(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"Summary":{}}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error: %v", err)
	}
	if req.Summary == nil || req.Summary.StartTime != nil || req.Summary.EndTime != nil {
		t.Errorf("DecodeRequest() = %+v, want empty Summary", req)
	}
}

func TestDecodeRequestRejectsJunk(t *testing.T) {
	for _, raw := range []string{
		`"Bogus"`,
		`{"Bogus":{}}`,
		`{"Summary":null}`,
		`not json at all`,
		`42`,
		``,
	} {
		if _, err := DecodeRequest([]byte(raw)); err == nil {
			t.Errorf("DecodeRequest(%q) accepted junk", raw)
		}
	}
}

func TestEncodeDecodeAgree(t *testing.T) {
	payload, err := EncodeCurrent()
	if err != nil {
		t.Fatal(err)
	}
	req, err := DecodeRequest(payload)
	if err != nil || !req.Current {
		t.Errorf("current round trip = (%+v, %v)", req, err)
	}

	start := "15/01/2024"
	payload, err = EncodeSummary(SummaryArgs{StartTime: &start})
	if err != nil {
		t.Fatal(err)
	}
	req, err = DecodeRequest(payload)
	if err != nil || req.Summary == nil || req.Summary.StartTime == nil || *req.Summary.StartTime != start {
		t.Errorf("summary round trip = (%+v, %v)", req, err)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15 10:30:05", time.Date(2024, 1, 15, 10, 30, 5, 0, time.Local)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)},
		{"15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)},
		// Day-first, not month-first.
		{"02/03/2024", time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"not-a-date", "2024-13-45", "yesterday", "15-01-2024", ""} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) accepted garbage", in)
		}
	}
}

func TestWindowDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	start, end, err := SummaryArgs{}.Window(now)
	if err != nil {
		t.Fatalf("Window() error: %v", err)
	}
	if !start.Equal(time.Unix(0, 0)) {
		t.Errorf("default start = %v, want epoch", start)
	}
	if !end.Equal(now) {
		t.Errorf("default end = %v, want now", end)
	}

	from := "2024-05-01"
	start, end, err = SummaryArgs{StartTime: &from}.Window(now)
	if err != nil {
		t.Fatalf("Window() error: %v", err)
	}
	if !start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("start = %v, want 2024-05-01", start)
	}
	if !end.Equal(now) {
		t.Errorf("end = %v, want now", end)
	}
}

func TestWindowRejectsMalformedBounds(t *testing.T) {
	now := time.Now()
	bad := "not-a-date"

	_, _, err := SummaryArgs{StartTime: &bad}.Window(now)
	if err == nil || !strings.Contains(err.Error(), "start_time") {
		t.Errorf("Window() with bad start = %v, want start_time error", err)
	}

	_, _, err = SummaryArgs{EndTime: &bad}.Window(now)
	if err == nil || !strings.Contains(err.Error(), "end_time") {
		t.Errorf("Window() with bad end = %v, want end_time error", err)
	}
}
