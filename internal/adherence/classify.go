package adherence

import (
	"time"

	"studypace/internal/schedule"
)

// SessionCompletionState classifies one scheduled window against the
// participant's clock and adherence records. It is recomputed from
// current data on every evaluation; there is no transition graph.
type SessionCompletionState string

const (
	NotApplicable   SessionCompletionState = "not_applicable"
	NotYetAvailable SessionCompletionState = "not_yet_available"
	Unstarted       SessionCompletionState = "unstarted"
	Started         SessionCompletionState = "started"
	Completed       SessionCompletionState = "completed"
	Abandoned       SessionCompletionState = "abandoned"
	Expired         SessionCompletionState = "expired"
	Declined        SessionCompletionState = "declined"
)

// TerminalStates are the states that no further participant action can
// change. Used by the progression calculator.
var TerminalStates = map[SessionCompletionState]bool{
	Completed: true,
	Declined:  true,
	Abandoned: true,
	Expired:   true,
}

// CarryOverStates are the states still awaiting participant action.
// Windows in these states from prior weeks are re-surfaced in the
// current-week detail. Abandoned and expired windows are resolved-past
// and deliberately excluded.
var CarryOverStates = map[SessionCompletionState]bool{
	NotYetAvailable: true,
	Unstarted:       true,
	Started:         true,
}

// Classify resolves one window's calendar dates against its trigger
// event and assigns its completion state. Pure; safe to call for any
// number of windows.
//
// eventTS is the trigger event's timestamp (nil when the event has not
// happened for this participant), now is the evaluation instant already
// localized into loc, and rec is the authoritative completion record for
// the window's instance guid, or nil.
func Classify(meta schedule.SessionMetadata, eventTS *time.Time, now time.Time, loc *time.Location, rec *schedule.CompletionRecord) *EventStreamWindow {
	win := &EventStreamWindow{
		SessionInstanceGuid: meta.SessionInstanceGuid,
		TimeWindowGuid:      meta.TimeWindowGuid,
		StartTime:           meta.StartTime,
		EndTime:             meta.EndTime,
	}

	if eventTS == nil {
		win.State = NotApplicable
		return win
	}

	eventDate := DateOf(eventTS.In(loc))
	startDate := eventDate.AddDays(meta.StartDayOffset)
	endDate := eventDate.AddDays(meta.EndDayOffset)
	win.StartDate = &startDate
	win.EndDate = &endDate

	startInstant := startDate.At(meta.StartTime, loc)
	endInstant := endDate.EndOfDay(loc)
	if meta.EndTime != "" {
		endInstant = endDate.At(meta.EndTime, loc)
	}
	past := !meta.OpenEnded && now.After(endInstant)

	if now.Before(startInstant) {
		win.State = NotYetAvailable
		return win
	}

	switch {
	case rec == nil:
		if past {
			win.State = Expired
		} else {
			win.State = Unstarted
		}
	case rec.Declined:
		win.State = Declined
	case rec.StartedOn != nil && rec.FinishedOn != nil:
		win.State = Completed
	case rec.StartedOn != nil:
		if past {
			win.State = Abandoned
		} else {
			win.State = Started
		}
	default:
		// Record exists but carries no timestamps: touched, never started.
		if past {
			win.State = Expired
		} else {
			win.State = Unstarted
		}
	}
	return win
}
