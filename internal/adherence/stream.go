package adherence

import (
	"sort"
	"time"
)

// EventStreamWindow is one scheduled time window projected onto the
// calendar with its computed completion state. Dates are nil when the
// triggering event has no timestamp for this participant.
type EventStreamWindow struct {
	SessionInstanceGuid string                 `json:"sessionInstanceGuid"`
	TimeWindowGuid      string                 `json:"timeWindowGuid,omitempty"`
	StartDate           *Date                  `json:"startDate,omitempty"`
	EndDate             *Date                  `json:"endDate,omitempty"`
	StartTime           string                 `json:"startTime,omitempty"`
	EndTime             string                 `json:"endTime,omitempty"`
	State               SessionCompletionState `json:"state"`
}

// EventStreamDay is one calendar day within one event's stream, holding
// every window of one session instance that starts on that day.
//
// StartDay, WeekInStudy and the study-burst fields are working values
// for report assembly; the study-wide generator zeroes them before the
// report is returned.
type EventStreamDay struct {
	SessionGuid   string               `json:"sessionGuid"`
	SessionName   string               `json:"sessionName"`
	SessionSymbol string               `json:"sessionSymbol,omitempty"`
	StartEventID  string               `json:"startEventId,omitempty"`
	WeekInStudy   int                  `json:"week,omitempty"`
	StartDay      *int                 `json:"startDay,omitempty"`
	StartDate     *Date                `json:"startDate,omitempty"`
	StudyBurstID  string               `json:"studyBurstId,omitempty"`
	StudyBurstNum int                  `json:"studyBurstNum,omitempty"`
	Today         bool                 `json:"today"`
	TimeWindows   []*EventStreamWindow `json:"timeWindows"`
}

// EventStream is the calendar-projected schedule anchored to one trigger
// event: day offsets (relative to the event, not to a week) mapped to
// the session days that start on that offset.
type EventStream struct {
	StartEventID   string                    `json:"startEventId"`
	EventTimestamp *time.Time                `json:"eventTimestamp,omitempty"`
	DaysSinceEvent *int                      `json:"daysSinceEvent,omitempty"`
	StudyBurstID   string                    `json:"studyBurstId,omitempty"`
	StudyBurstNum  int                       `json:"studyBurstNum,omitempty"`
	ByDayEntries   map[int][]*EventStreamDay `json:"byDayEntries"`
}

// Days returns the stream's day entries flattened, ordered by day offset.
func (s *EventStream) Days() []*EventStreamDay {
	if s == nil {
		return nil
	}
	offsets := make([]int, 0, len(s.ByDayEntries))
	for off := range s.ByDayEntries {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	var days []*EventStreamDay
	for _, off := range offsets {
		days = append(days, s.ByDayEntries[off]...)
	}
	return days
}

// Windows returns every window across every day of the stream.
func (s *EventStream) Windows() []*EventStreamWindow {
	var wins []*EventStreamWindow
	for _, day := range s.Days() {
		wins = append(wins, day.TimeWindows...)
	}
	return wins
}

// copyDay makes an independent copy of a day and its windows so report
// normalization cannot reach back into the state's memoized streams.
func copyDay(day *EventStreamDay) *EventStreamDay {
	dup := *day
	dup.TimeWindows = make([]*EventStreamWindow, len(day.TimeWindows))
	for i, w := range day.TimeWindows {
		win := *w
		dup.TimeWindows[i] = &win
	}
	if day.StartDay != nil {
		sd := *day.StartDay
		dup.StartDay = &sd
	}
	if day.StartDate != nil {
		d := *day.StartDate
		dup.StartDate = &d
	}
	return &dup
}
