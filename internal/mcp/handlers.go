package mcp

import (
	"fmt"
	"time"

	"studypace/internal/adherence"
)

func (s *Server) handleListParticipants() (interface{}, error) {
	ids, err := s.store.ListParticipants()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"participants": ids}, nil
}

func (s *Server) handleEventAdherence(participantID, asOf string) (interface{}, error) {
	state, err := s.buildState(participantID, asOf)
	if err != nil {
		return nil, err
	}
	return adherence.BuildEventReport(state), nil
}

func (s *Server) handleStudyAdherence(participantID, asOf string) (interface{}, error) {
	state, err := s.buildState(participantID, asOf)
	if err != nil {
		return nil, err
	}
	return adherence.BuildStudyReport(state), nil
}

// buildState assembles a fresh adherence state for one tool call. States
// are never reused across calls; their memoization caches are scoped to
// a single report.
func (s *Server) buildState(participantID, asOf string) (*adherence.State, error) {
	if s.sched == nil {
		return nil, fmt.Errorf("no study schedule loaded from %s", s.cfg.DataPath)
	}
	if participantID == "" {
		return nil, fmt.Errorf("participant_id is required")
	}

	participant, err := s.store.LoadParticipant(participantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if asOf != "" {
		parsed, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of timestamp %q: %w", asOf, err)
		}
		now = parsed
	}

	startEventID := s.sched.StudyStartEventID
	if startEventID == "" {
		startEventID = s.cfg.StudyStartEventID
	}

	return adherence.NewState(adherence.Params{
		Metadata:          s.sched.Sessions,
		Events:            participant.Events,
		Records:           participant.Records,
		Now:               now,
		ClientTimeZone:    participant.ClientTimeZone,
		StudyStartEventID: startEventID,
	}), nil
}
