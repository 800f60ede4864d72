package adherence

import (
	"testing"
	"time"

	"studypace/internal/schedule"
)

func ts(year int, month time.Month, day, hour int) *time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestClassify(t *testing.T) {
	// Event fired March 1; windows are positioned relative to it.
	event := ts(2026, time.March, 1, 9)

	meta := schedule.SessionMetadata{
		SessionInstanceGuid: "instance-1",
		SessionGuid:         "session-1",
		TimeWindowGuid:      "window-1",
		StartEventID:        "enrollment",
		StartDayOffset:      3, // March 4
		EndDayOffset:        5, // March 6
		StartTime:           "08:00",
		SessionName:         "Survey",
	}
	openEnded := meta
	openEnded.OpenEnded = true

	tests := []struct {
		name     string
		meta     schedule.SessionMetadata
		eventTS  *time.Time
		now      time.Time
		record   *schedule.CompletionRecord
		expected SessionCompletionState
	}{
		{
			name:     "NoEventTimestamp",
			meta:     meta,
			eventTS:  nil,
			now:      time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
			expected: NotApplicable,
		},
		{
			name:     "BeforeWindowOpens",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 4, 7, 0, 0, 0, time.UTC),
			expected: NotYetAvailable,
		},
		{
			name:     "InWindowNoRecord",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC),
			expected: Unstarted,
		},
		{
			name:     "PastWindowNoRecord",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC),
			expected: Expired,
		},
		{
			name:     "DeclinedOverridesCompletion",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10), FinishedOn: ts(2026, time.March, 4, 11), Declined: true},
			expected: Declined,
		},
		{
			name:     "CompletedInWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10), FinishedOn: ts(2026, time.March, 4, 11)},
			expected: Completed,
		},
		{
			name:     "CompletedStaysCompletedAfterWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10), FinishedOn: ts(2026, time.March, 4, 11)},
			expected: Completed,
		},
		{
			name:     "StartedInWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10)},
			expected: Started,
		},
		{
			name:     "StartedNeverFinishedPastWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10)},
			expected: Abandoned,
		},
		{
			name:     "TouchedNotStartedInWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1"},
			expected: Unstarted,
		},
		{
			name:     "TouchedNotStartedPastWindow",
			meta:     meta,
			eventTS:  event,
			now:      time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1"},
			expected: Expired,
		},
		{
			name:     "OpenEndedNeverExpires",
			meta:     openEnded,
			eventTS:  event,
			now:      time.Date(2027, time.March, 7, 12, 0, 0, 0, time.UTC),
			expected: Unstarted,
		},
		{
			name:     "OpenEndedStartedNeverAbandoned",
			meta:     openEnded,
			eventTS:  event,
			now:      time.Date(2027, time.March, 7, 12, 0, 0, 0, time.UTC),
			record:   &schedule.CompletionRecord{InstanceGuid: "instance-1", StartedOn: ts(2026, time.March, 4, 10)},
			expected: Started,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := Classify(tt.meta, tt.eventTS, tt.now, time.UTC, tt.record)
			if win.State != tt.expected {
				t.Errorf("Classify() state = %s, want %s", win.State, tt.expected)
			}
		})
	}
}

func TestClassifyResolvesWindowDates(t *testing.T) {
	event := ts(2026, time.March, 1, 9)
	meta := schedule.SessionMetadata{
		SessionInstanceGuid: "instance-1",
		StartDayOffset:      3,
		EndDayOffset:        5,
	}

	win := Classify(meta, event, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), time.UTC, nil)
	if win.StartDate == nil || *win.StartDate != (Date{2026, time.March, 4}) {
		t.Errorf("StartDate = %v, want 2026-03-04", win.StartDate)
	}
	if win.EndDate == nil || *win.EndDate != (Date{2026, time.March, 6}) {
		t.Errorf("EndDate = %v, want 2026-03-06", win.EndDate)
	}

	// No event timestamp leaves the dates unresolved.
	win = Classify(meta, nil, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), time.UTC, nil)
	if win.StartDate != nil || win.EndDate != nil {
		t.Errorf("expected nil dates for unset event, got %v / %v", win.StartDate, win.EndDate)
	}
}

func TestClassifyRespectsClientZoneDayBoundary(t *testing.T) {
	// 05:00 UTC on March 2 is 23:00 March 1 in Chicago; the event's
	// local date anchors the window.
	loc := time.FixedZone("CST", -6*3600)
	event := ts(2026, time.March, 2, 5)
	meta := schedule.SessionMetadata{
		SessionInstanceGuid: "instance-1",
		StartDayOffset:      1,
		EndDayOffset:        1,
	}

	win := Classify(meta, event, time.Date(2026, time.March, 2, 12, 0, 0, 0, loc), loc, nil)
	if win.StartDate == nil || *win.StartDate != (Date{2026, time.March, 2}) {
		t.Errorf("StartDate = %v, want 2026-03-02 (event is March 1 local)", win.StartDate)
	}
}
