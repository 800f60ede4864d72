package adherence

import (
	"testing"
	"time"

	"studypace/internal/schedule"
)

func dailyMeta(guid, eventID string, startDay, endDay int) schedule.SessionMetadata {
	return schedule.SessionMetadata{
		SessionInstanceGuid: guid,
		SessionGuid:         "session-" + guid,
		TimeWindowGuid:      "window-" + guid,
		StartEventID:        eventID,
		StartDayOffset:      startDay,
		EndDayOffset:        endDay,
		SessionName:         "Session " + guid,
	}
}

func TestStateMemoizesStreams(t *testing.T) {
	state := NewState(Params{
		Metadata: []schedule.SessionMetadata{
			dailyMeta("a", "enrollment", 0, 1),
			dailyMeta("b", "enrollment", 2, 3),
		},
		Events: []schedule.TriggerEvent{
			{EventID: "enrollment", Timestamp: ts(2026, time.March, 1, 9)},
		},
		Now:               time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})

	first := state.EventStreamFor("enrollment")
	second := state.EventStreamFor("enrollment")
	if first != second {
		t.Error("EventStreamFor() returned different instances for the same event id")
	}

	meta := dailyMeta("a", "enrollment", 0, 1)
	d1 := state.EventStreamDay(meta)
	d2 := state.EventStreamDay(meta)
	if d1 != d2 {
		t.Error("EventStreamDay() returned different instances for the same key")
	}

	// Building the stream must not duplicate windows in the shared day.
	if got := len(d1.TimeWindows); got != 1 {
		t.Errorf("day has %d windows, want 1", got)
	}
}

func TestStateExcludesPersistentWindows(t *testing.T) {
	persistent := dailyMeta("p", "enrollment", 0, 0)
	persistent.Persistent = true

	state := NewState(Params{
		Metadata: []schedule.SessionMetadata{
			persistent,
			dailyMeta("a", "enrollment", 0, 1),
		},
		Events: []schedule.TriggerEvent{
			{EventID: "enrollment", Timestamp: ts(2026, time.March, 1, 9)},
		},
		Now:               time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})

	stream := state.EventStreamFor("enrollment")
	for _, win := range stream.Windows() {
		if win.SessionInstanceGuid == "p" {
			t.Error("persistent window leaked into the event stream")
		}
	}
	if got := len(stream.Windows()); got != 1 {
		t.Errorf("stream has %d windows, want 1", got)
	}
}

func TestStateNoOpAdherenceIsFullyCompliant(t *testing.T) {
	state := NewState(Params{
		Now:               time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})
	if got := state.AdherencePercent(); got != 100 {
		t.Errorf("AdherencePercent() = %d, want 100 for empty schedule", got)
	}
}

func TestStateDaysSinceEvent(t *testing.T) {
	state := NewState(Params{
		Events: []schedule.TriggerEvent{
			{EventID: "enrollment", Timestamp: ts(2026, time.March, 1, 9)},
			{EventID: "unset"},
		},
		Now:               time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})

	if got := state.DaysSinceEvent("enrollment"); got == nil || *got != 14 {
		t.Errorf("DaysSinceEvent(enrollment) = %v, want 14", got)
	}
	if got := state.DaysSinceEvent("unset"); got != nil {
		t.Errorf("DaysSinceEvent(unset) = %v, want nil", got)
	}
	if got := state.DaysSinceEvent("missing"); got != nil {
		t.Errorf("DaysSinceEvent(missing) = %v, want nil", got)
	}
}

func TestStateZoneResolution(t *testing.T) {
	// Explicit client zone wins.
	state := NewState(Params{
		Now:            time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		ClientTimeZone: "America/Chicago",
	})
	if state.Location().String() != "America/Chicago" {
		t.Errorf("Location() = %s, want America/Chicago", state.Location())
	}

	// Without one, the offset embedded in "now" decides the day boundary.
	offset := time.FixedZone("+05:30", 5*3600+1800)
	state = NewState(Params{
		Now: time.Date(2026, time.March, 2, 1, 0, 0, 0, offset), // 2026-03-01T19:30Z
	})
	if got := state.Today(); got != (Date{2026, time.March, 2}) {
		t.Errorf("Today() = %v, want 2026-03-02 in the embedded offset", got)
	}

	// An unknown zone id falls back to the embedded offset rather than erroring.
	state = NewState(Params{
		Now:            time.Date(2026, time.March, 2, 1, 0, 0, 0, offset),
		ClientTimeZone: "Not/AZone",
	})
	if got := state.Today(); got != (Date{2026, time.March, 2}) {
		t.Errorf("Today() = %v, want fallback to embedded offset", got)
	}
}

func TestStateDuplicateRecordsAcrossRetriggers(t *testing.T) {
	// Two records share an instance guid; only the one matching the
	// event's current timestamp is authoritative.
	currentTS := ts(2026, time.March, 10, 9)
	staleTS := ts(2026, time.January, 1, 9)

	meta := dailyMeta("a", "enrollment", 0, 1)
	state := NewState(Params{
		Metadata: []schedule.SessionMetadata{meta},
		Events: []schedule.TriggerEvent{
			{EventID: "enrollment", Timestamp: currentTS},
		},
		Records: []schedule.CompletionRecord{
			{InstanceGuid: "a", EventTimestamp: staleTS, StartedOn: staleTS, FinishedOn: staleTS},
			{InstanceGuid: "a", EventTimestamp: currentTS, StartedOn: currentTS},
		},
		Now:               time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})

	rec := state.Record(meta)
	if rec == nil {
		t.Fatal("Record() = nil, want the record matching the current event timestamp")
	}
	if rec.FinishedOn != nil {
		t.Error("Record() returned the stale record")
	}

	// The stale record keeps the window from being conflated: the
	// current triggering is started, not completed.
	stream := state.EventStreamFor("enrollment")
	wins := stream.Windows()
	if len(wins) != 1 {
		t.Fatalf("stream has %d windows, want 1", len(wins))
	}
	if wins[0].State != Started {
		t.Errorf("window state = %s, want %s", wins[0].State, Started)
	}
}

func TestStateRecordForInstance(t *testing.T) {
	eventTS := ts(2026, time.March, 1, 9)
	meta := dailyMeta("a", "enrollment", 0, 1)

	state := NewState(Params{
		Metadata: []schedule.SessionMetadata{meta},
		Events:   []schedule.TriggerEvent{{EventID: "enrollment", Timestamp: eventTS}},
		Records: []schedule.CompletionRecord{
			{InstanceGuid: "a", EventTimestamp: eventTS, Declined: true},
		},
		Now:               time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		StudyStartEventID: "enrollment",
	})

	if rec := state.RecordForInstance("a"); rec == nil || !rec.Declined {
		t.Errorf("RecordForInstance(a) = %v, want declined record", rec)
	}
	if rec := state.RecordForInstance("unknown"); rec != nil {
		t.Errorf("RecordForInstance(unknown) = %v, want nil", rec)
	}
}
