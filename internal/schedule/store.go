package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Store loads study schedules and participant bundles from a data
// directory. Layout:
//
//	<dataDir>/schedule.json
//	<dataDir>/participants/<participantId>.json
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// LoadSchedule reads and parses the study schedule definition.
func (s *Store) LoadSchedule() (*Schedule, error) {
	path := filepath.Join(s.dataDir, "schedule.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule parses a schedule definition from raw JSON.
func ParseSchedule(data []byte) (*Schedule, error) {
	var sched Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	valid := sched.Sessions[:0]
	for _, m := range sched.Sessions {
		if m.SessionInstanceGuid == "" || m.StartEventID == "" {
			log.Warn().Str("sessionName", m.SessionName).Msg("Skipping schedule entry without instance guid or start event")
			continue
		}
		valid = append(valid, m)
	}
	sched.Sessions = valid
	return &sched, nil
}

// LoadParticipant reads and parses one participant bundle by id.
func (s *Store) LoadParticipant(participantID string) (*Participant, error) {
	path := filepath.Join(s.dataDir, "participants", participantID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read participant %s: %w", participantID, err)
	}
	p, err := ParseParticipant(data)
	if err != nil {
		return nil, fmt.Errorf("participant %s: %w", participantID, err)
	}
	if p.ParticipantID == "" {
		p.ParticipantID = participantID
	}
	return p, nil
}

// ParseParticipant parses a participant bundle from raw JSON. Individual
// malformed records are dropped with a warning rather than failing the
// bundle; the engine tolerates sparse data.
func ParseParticipant(data []byte) (*Participant, error) {
	var p Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse participant bundle: %w", err)
	}

	events := p.Events[:0]
	for _, e := range p.Events {
		if e.EventID == "" {
			log.Warn().Msg("Skipping trigger event without an event id")
			continue
		}
		events = append(events, e)
	}
	p.Events = events

	records := p.Records[:0]
	for _, r := range p.Records {
		if r.InstanceGuid == "" {
			log.Warn().Msg("Skipping adherence record without an instance guid")
			continue
		}
		records = append(records, r)
	}
	p.Records = records

	return &p, nil
}

// ListParticipants returns the ids of every participant bundle in the
// data directory, sorted for deterministic iteration.
func (s *Store) ListParticipants() ([]string, error) {
	dir := filepath.Join(s.dataDir, "participants")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveSchedule writes the schedule definition, creating the directory if
// needed. Used by the mock generator.
func (s *Store) SaveSchedule(sched *Schedule) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dataDir, "schedule.json"), data, 0644)
}

// SaveParticipant writes one participant bundle. Used by the mock generator.
func (s *Store) SaveParticipant(p *Participant) error {
	dir := filepath.Join(s.dataDir, "participants")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create participants directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, p.ParticipantID+".json"), data, 0644)
}
