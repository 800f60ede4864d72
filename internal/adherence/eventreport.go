package adherence

import (
	"time"
)

// DayRange spans the lowest and highest day offsets across a report's
// streams.
type DayRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DateRange spans the earliest and latest resolved calendar dates.
type DateRange struct {
	Start *Date `json:"startDate,omitempty"`
	End   *Date `json:"endDate,omitempty"`
}

// EventStreamAdherenceReport is the per-event-stream view: every stream
// in the schedule with its windows classified, plus the fold-downs.
type EventStreamAdherenceReport struct {
	Timestamp             time.Time         `json:"timestamp"`
	ClientTimeZone        string            `json:"clientTimeZone,omitempty"`
	AdherencePercent      *int              `json:"adherencePercent,omitempty"`
	Progression           ProgressionStatus `json:"progression"`
	Streams               []*EventStream    `json:"streams"`
	DayRangeOfAllStreams  *DayRange         `json:"dayRangeOfAllStreams,omitempty"`
	DateRangeOfAllStreams *DateRange        `json:"dateRangeOfAllStreams,omitempty"`
	EarliestEventID       string            `json:"earliestEventId,omitempty"`
}

// BuildEventReport assembles the per-event adherence report from one
// participant state. Absent events and empty schedules degrade to
// not-applicable streams and an unstarted report; nothing here errors.
func BuildEventReport(s *State) *EventStreamAdherenceReport {
	streams := s.EventStreams()

	report := &EventStreamAdherenceReport{
		Timestamp:      s.Now(),
		ClientTimeZone: s.Location().String(),
		Progression:    Progression(s, streams),
		Streams:        streams,
	}

	if report.Progression != ProgressionUnstarted {
		pct := Percentage(streams)
		report.AdherencePercent = &pct
	}

	var dayRange *DayRange
	var dateRange *DateRange
	var earliestEventTS *time.Time

	for _, stream := range streams {
		for offset := range stream.ByDayEntries {
			if dayRange == nil {
				dayRange = &DayRange{Min: offset, Max: offset}
			} else {
				if offset < dayRange.Min {
					dayRange.Min = offset
				}
				if offset > dayRange.Max {
					dayRange.Max = offset
				}
			}
		}
		for _, win := range stream.Windows() {
			if win.StartDate == nil {
				continue
			}
			if dateRange == nil {
				dateRange = &DateRange{}
			}
			start := minDate(deref(dateRange.Start), *win.StartDate)
			dateRange.Start = &start
			end := deref(dateRange.End)
			if win.EndDate != nil {
				end = maxDate(end, *win.EndDate)
			} else {
				end = maxDate(end, *win.StartDate)
			}
			dateRange.End = &end
		}
		if ts := stream.EventTimestamp; ts != nil {
			if earliestEventTS == nil || ts.Before(*earliestEventTS) {
				earliestEventTS = ts
				report.EarliestEventID = stream.StartEventID
			}
		}
	}

	report.DayRangeOfAllStreams = dayRange
	report.DateRangeOfAllStreams = dateRange
	return report
}

func deref(d *Date) Date {
	if d == nil {
		return Date{}
	}
	return *d
}
