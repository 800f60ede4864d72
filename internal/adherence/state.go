package adherence

import (
	"fmt"
	"time"

	"studypace/internal/schedule"
)

// Params fully specifies one adherence computation. A fresh State is
// built from Params per report request; nothing is shared across
// requests.
type Params struct {
	Metadata          []schedule.SessionMetadata
	Events            []schedule.TriggerEvent
	Records           []schedule.CompletionRecord
	Now               time.Time
	ClientTimeZone    string // IANA id; empty falls back to Now's offset
	StudyStartEventID string
}

// dayKey identifies one memoized stream day. The start event id is part
// of the key so re-triggered instances sharing a guid under different
// events stay distinct.
type dayKey struct {
	instanceGuid string
	startEventID string
	startDay     int
}

// State indexes the schedule, the participant's trigger events and
// adherence records for one evaluation instant, and memoizes the event
// streams built from them. Construction resolves the participant time
// zone once; all date arithmetic happens in that zone.
//
// The memoization caches are read-through: rebuilding from the same
// inputs always yields identical output, so a State is immutable for
// observation purposes. A State must not be shared across concurrent
// requests.
type State struct {
	metadata          []schedule.SessionMetadata
	events            map[string]schedule.TriggerEvent
	records           map[string]schedule.CompletionRecord
	now               time.Time
	loc               *time.Location
	today             Date
	studyStartEventID string

	streams map[string]*EventStream
	days    map[dayKey]*EventStreamDay
}

// NewState builds a State from fully-specified params.
func NewState(p Params) *State {
	loc := resolveZone(p.ClientTimeZone, p.Now)
	now := p.Now.In(loc)

	events := make(map[string]schedule.TriggerEvent, len(p.Events))
	for _, e := range p.Events {
		events[e.EventID] = e
	}

	// Records are keyed by (guid, eventTimestamp): duplicate guids with
	// differing event timestamps come from re-triggered streams and must
	// coexist without colliding.
	records := make(map[string]schedule.CompletionRecord, len(p.Records))
	for _, r := range p.Records {
		records[recordKey(r.InstanceGuid, r.EventTimestamp)] = r
	}

	return &State{
		metadata:          p.Metadata,
		events:            events,
		records:           records,
		now:               now,
		loc:               loc,
		today:             DateOf(now),
		studyStartEventID: p.StudyStartEventID,
		streams:           make(map[string]*EventStream),
		days:              make(map[dayKey]*EventStreamDay),
	}
}

// resolveZone prefers the explicit client zone and falls back to the
// fixed offset embedded in the evaluation instant, so a participant's
// midnight boundary is honored regardless of server zone.
func resolveZone(clientZone string, now time.Time) *time.Location {
	if clientZone != "" {
		if loc, err := time.LoadLocation(clientZone); err == nil {
			return loc
		}
	}
	name, offset := now.Zone()
	if name == "" {
		name = fmt.Sprintf("UTC%+03d:%02d", offset/3600, abs(offset%3600)/60)
	}
	return time.FixedZone(name, offset)
}

func recordKey(guid string, eventTS *time.Time) string {
	if eventTS == nil {
		return guid + "|"
	}
	return guid + "|" + eventTS.UTC().Format(time.RFC3339)
}

// Now returns the evaluation instant localized to the resolved zone.
func (s *State) Now() time.Time { return s.now }

// Location returns the resolved participant time zone.
func (s *State) Location() *time.Location { return s.loc }

// Today returns the evaluation instant's calendar day.
func (s *State) Today() Date { return s.today }

// StudyStartEventID returns the designated study-start event id.
func (s *State) StudyStartEventID() string { return s.studyStartEventID }

// Metadata returns the full schedule metadata backing this state.
func (s *State) Metadata() []schedule.SessionMetadata { return s.metadata }

// EventTimestamp returns the trigger event's timestamp localized to the
// resolved zone, or nil if the event is absent or unset.
func (s *State) EventTimestamp(eventID string) *time.Time {
	e, ok := s.events[eventID]
	if !ok || e.Timestamp == nil {
		return nil
	}
	ts := e.Timestamp.In(s.loc)
	return &ts
}

// DaysSinceEvent returns the whole calendar days elapsed since the
// trigger event, or nil if the event has no timestamp.
func (s *State) DaysSinceEvent(eventID string) *int {
	ts := s.EventTimestamp(eventID)
	if ts == nil {
		return nil
	}
	days := DateOf(*ts).DaysUntil(s.today)
	return &days
}

// Record returns the authoritative completion record for an instance
// guid: the one whose event timestamp matches the current timestamp of
// the event that starts the instance. Stale duplicates from earlier
// triggerings are ignored.
func (s *State) Record(meta schedule.SessionMetadata) *schedule.CompletionRecord {
	eventTS := s.EventTimestamp(meta.StartEventID)
	if r, ok := s.records[recordKey(meta.SessionInstanceGuid, eventTS)]; ok {
		return &r
	}
	// Records created before event timestamps were tracked carry none.
	if eventTS != nil {
		if r, ok := s.records[recordKey(meta.SessionInstanceGuid, nil)]; ok {
			return &r
		}
	}
	return nil
}

// RecordForInstance resolves the authoritative record by instance guid
// alone, using the first schedule entry carrying the guid to locate its
// trigger event. Returns nil for guids the schedule does not know.
func (s *State) RecordForInstance(instanceGuid string) *schedule.CompletionRecord {
	for _, m := range s.metadata {
		if m.SessionInstanceGuid == instanceGuid {
			return s.Record(m)
		}
	}
	return nil
}

// EventIDs returns every distinct start event id referenced by the
// schedule, in first-appearance order.
func (s *State) EventIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range s.metadata {
		if m.Persistent || seen[m.StartEventID] {
			continue
		}
		seen[m.StartEventID] = true
		ids = append(ids, m.StartEventID)
	}
	return ids
}

// EventStreamDay returns the memoized day entry for one session
// instance and start offset, creating it on first access. Repeat calls
// for the same metadata return the same instance.
func (s *State) EventStreamDay(meta schedule.SessionMetadata) *EventStreamDay {
	key := dayKey{
		instanceGuid: meta.SessionInstanceGuid,
		startEventID: meta.StartEventID,
		startDay:     meta.StartDayOffset,
	}
	if day, ok := s.days[key]; ok {
		return day
	}

	startDay := meta.StartDayOffset
	day := &EventStreamDay{
		SessionGuid:   meta.SessionGuid,
		SessionName:   meta.SessionName,
		SessionSymbol: meta.SessionSymbol,
		StartEventID:  meta.StartEventID,
		StartDay:      &startDay,
		StudyBurstID:  meta.StudyBurstID,
		StudyBurstNum: meta.StudyBurstNum,
	}
	if ts := s.EventTimestamp(meta.StartEventID); ts != nil {
		d := DateOf(*ts).AddDays(meta.StartDayOffset)
		day.StartDate = &d
	}
	s.days[key] = day
	return day
}

// EventStreamFor returns the memoized calendar projection for one
// trigger event, building it on first access. Repeat calls return the
// same instance.
func (s *State) EventStreamFor(eventID string) *EventStream {
	if stream, ok := s.streams[eventID]; ok {
		return stream
	}

	stream := &EventStream{
		StartEventID: eventID,
		ByDayEntries: make(map[int][]*EventStreamDay),
	}
	stream.EventTimestamp = s.EventTimestamp(eventID)
	stream.DaysSinceEvent = s.DaysSinceEvent(eventID)

	var eventTS *time.Time
	if e, ok := s.events[eventID]; ok {
		eventTS = e.Timestamp
	}

	for _, meta := range s.metadata {
		if meta.StartEventID != eventID || meta.Persistent {
			continue
		}
		if meta.StudyBurstID != "" {
			stream.StudyBurstID = meta.StudyBurstID
			stream.StudyBurstNum = meta.StudyBurstNum
		}

		day := s.EventStreamDay(meta)
		win := Classify(meta, eventTS, s.now, s.loc, s.Record(meta))
		day.TimeWindows = append(day.TimeWindows, win)

		if !containsDay(stream.ByDayEntries[meta.StartDayOffset], day) {
			stream.ByDayEntries[meta.StartDayOffset] = append(stream.ByDayEntries[meta.StartDayOffset], day)
		}
	}

	s.streams[eventID] = stream
	return stream
}

// EventStreams builds (or fetches) the stream for every event id in the
// schedule, in schedule order.
func (s *State) EventStreams() []*EventStream {
	ids := s.EventIDs()
	streams := make([]*EventStream, 0, len(ids))
	for _, id := range ids {
		streams = append(streams, s.EventStreamFor(id))
	}
	return streams
}

// AdherencePercent folds every stream in the schedule into one 0-100
// score.
func (s *State) AdherencePercent() int {
	return Percentage(s.EventStreams())
}

func containsDay(days []*EventStreamDay, day *EventStreamDay) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
