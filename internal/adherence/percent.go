package adherence

import "math"

// ProgressionStatus is the tri-state study progress classification.
type ProgressionStatus string

const (
	ProgressionUnstarted  ProgressionStatus = "unstarted"
	ProgressionInProgress ProgressionStatus = "in_progress"
	ProgressionDone       ProgressionStatus = "done"
)

// Percentage folds every window across the supplied streams into a
// 0-100 adherence score: completed windows over countable (non
// not-applicable) windows. An empty or fully not-applicable schedule
// requires nothing and scores 100.
func Percentage(streams []*EventStream) int {
	countable, completed := 0, 0
	for _, stream := range streams {
		for _, win := range stream.Windows() {
			if win.State == NotApplicable {
				continue
			}
			countable++
			if win.State == Completed {
				completed++
			}
		}
	}
	if countable == 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(countable)))
}

// Progression classifies how far through the schedule the participant
// is. A schedule with no countable windows is always unstarted, never
// done; done additionally requires the study-start event to have
// actually begun.
func Progression(s *State, streams []*EventStream) ProgressionStatus {
	countable := 0
	anyActivity := false
	allTerminal := true

	for _, stream := range streams {
		for _, win := range stream.Windows() {
			if win.State == NotApplicable {
				continue
			}
			countable++
			switch win.State {
			case Started, Completed, Declined, Abandoned, Expired:
				anyActivity = true
			}
			if !TerminalStates[win.State] {
				allTerminal = false
			}
		}
	}

	if countable == 0 || !anyActivity {
		return ProgressionUnstarted
	}

	if allTerminal && studyStarted(s) {
		return ProgressionDone
	}
	return ProgressionInProgress
}

func studyStarted(s *State) bool {
	ts := s.EventTimestamp(s.StudyStartEventID())
	return ts != nil && !ts.After(s.Now())
}
