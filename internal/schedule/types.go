package schedule

import (
	"time"
)

// SessionMetadata describes one scheduled window occurrence of a session,
// positioned in days relative to the trigger event that starts it. The
// schedule is static per study; participant-specific dates are resolved
// later against that participant's trigger events.
type SessionMetadata struct {
	SessionInstanceGuid string `json:"sessionInstanceGuid"`
	SessionGuid         string `json:"sessionGuid"`
	TimeWindowGuid      string `json:"timeWindowGuid"`
	StartEventID        string `json:"startEventId"`
	StartDayOffset      int    `json:"startDay"`
	EndDayOffset        int    `json:"endDay"`
	StartTime           string `json:"startTime,omitempty"` // wall clock "15:04", defaults to midnight
	EndTime             string `json:"endTime,omitempty"`   // wall clock "15:04", defaults to end of day
	SessionName         string `json:"sessionName"`
	SessionSymbol       string `json:"sessionSymbol,omitempty"`
	StudyBurstID        string `json:"studyBurstId,omitempty"`
	StudyBurstNum       int    `json:"studyBurstNum,omitempty"`

	// Persistent windows stay open for the life of the study and are
	// excluded from adherence streams entirely.
	Persistent bool `json:"persistent,omitempty"`

	// OpenEnded windows have a start but no expiration. They never
	// classify as expired or abandoned.
	OpenEnded bool `json:"openEnded,omitempty"`
}

// TriggerEvent is one timestamped participant milestone (enrollment, a
// custom event, a burst occurrence). A nil Timestamp means the event has
// not happened for this participant and everything scheduled off it is
// not applicable.
type TriggerEvent struct {
	EventID     string     `json:"eventId"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	RecordCount int        `json:"recordCount,omitempty"`
}

// CompletionRecord is the participant's recorded interaction with one
// scheduled window instance. EventTimestamp pins the record to the event
// timestamp that was in effect when it was created, so records from a
// re-triggered stream do not collide with current ones.
type CompletionRecord struct {
	InstanceGuid   string     `json:"instanceGuid"`
	EventTimestamp *time.Time `json:"eventTimestamp,omitempty"`
	StartedOn      *time.Time `json:"startedOn,omitempty"`
	FinishedOn     *time.Time `json:"finishedOn,omitempty"`
	Declined       bool       `json:"declined,omitempty"`
}

// Schedule is the static study definition shared by all participants.
type Schedule struct {
	StudyStartEventID string            `json:"studyStartEventId"`
	Sessions          []SessionMetadata `json:"sessions"`
}

// Participant bundles everything participant-specific that the adherence
// engine consumes for one report.
type Participant struct {
	ParticipantID  string             `json:"participantId"`
	ClientTimeZone string             `json:"clientTimeZone,omitempty"` // IANA id
	Events         []TriggerEvent     `json:"events"`
	Records        []CompletionRecord `json:"adherenceRecords"`
}
