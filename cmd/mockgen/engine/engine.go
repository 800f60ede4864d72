package engine

import (
	"fmt"
	"math/rand"
	"time"

	"studypace/internal/schedule"

	"github.com/google/uuid"
)

// GeneratorConfig controls the shape of the synthetic study.
type GeneratorConfig struct {
	Scenario     string // "steady", "lapsed", "unscheduled"
	Participants int
	Weeks        int
	Now          time.Time
}

const startEventID = "enrollment"
const burstEventID = "burst:main_sequence:01"

// Generate writes a synthetic schedule and participant bundles to
// outDir in the store's layout.
func Generate(cfg GeneratorConfig, outDir string) error {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = 4
	}

	sched := buildSchedule(cfg)
	store := schedule.NewStore(outDir)
	if err := store.SaveSchedule(sched); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	for i := 0; i < cfg.Participants; i++ {
		p := buildParticipant(cfg, sched, i)
		if err := store.SaveParticipant(p); err != nil {
			return fmt.Errorf("save participant %s: %w", p.ParticipantID, err)
		}
	}
	return nil
}

// buildSchedule lays out one daily check-in session (morning and evening
// windows) per scheduled day, plus a weekly survey riding a study burst.
func buildSchedule(cfg GeneratorConfig) *schedule.Schedule {
	checkInGuid := uuid.NewString()
	surveyGuid := uuid.NewString()
	morningWindow := uuid.NewString()
	eveningWindow := uuid.NewString()
	surveyWindow := uuid.NewString()

	var sessions []schedule.SessionMetadata
	for day := 0; day < cfg.Weeks*7; day++ {
		instanceGuid := uuid.NewString()
		sessions = append(sessions,
			schedule.SessionMetadata{
				SessionInstanceGuid: instanceGuid,
				SessionGuid:         checkInGuid,
				TimeWindowGuid:      morningWindow,
				StartEventID:        startEventID,
				StartDayOffset:      day,
				EndDayOffset:        day,
				StartTime:           "08:00",
				EndTime:             "12:00",
				SessionName:         "Daily Check-in",
				SessionSymbol:       "circle",
			},
			schedule.SessionMetadata{
				SessionInstanceGuid: instanceGuid,
				SessionGuid:         checkInGuid,
				TimeWindowGuid:      eveningWindow,
				StartEventID:        startEventID,
				StartDayOffset:      day,
				EndDayOffset:        day,
				StartTime:           "18:00",
				SessionName:         "Daily Check-in",
				SessionSymbol:       "circle",
			},
		)
	}
	for week := 0; week < cfg.Weeks; week++ {
		sessions = append(sessions, schedule.SessionMetadata{
			SessionInstanceGuid: uuid.NewString(),
			SessionGuid:         surveyGuid,
			TimeWindowGuid:      surveyWindow,
			StartEventID:        burstEventID,
			StartDayOffset:      week * 7,
			EndDayOffset:        week*7 + 2,
			SessionName:         "Weekly Survey",
			SessionSymbol:       "diamond",
			StudyBurstID:        "Main Sequence",
			StudyBurstNum:       1,
		})
	}

	return &schedule.Schedule{
		StudyStartEventID: startEventID,
		Sessions:          sessions,
	}
}

func buildParticipant(cfg GeneratorConfig, sched *schedule.Schedule, idx int) *schedule.Participant {
	// Enrollment falls 1-3 weeks before now so part of the timeline is
	// already assessable.
	enrolled := cfg.Now.AddDate(0, 0, -7*(1+rand.Intn(3))).Truncate(time.Hour)

	p := &schedule.Participant{
		ParticipantID:  fmt.Sprintf("participant-%03d", idx+1),
		ClientTimeZone: "America/Chicago",
		Events: []schedule.TriggerEvent{
			{EventID: startEventID, Timestamp: &enrolled, RecordCount: 1},
		},
	}

	// The unscheduled scenario leaves the burst event without a
	// timestamp: its sessions report as not applicable.
	if cfg.Scenario != "unscheduled" {
		burstTS := enrolled.AddDate(0, 0, 1)
		p.Events = append(p.Events, schedule.TriggerEvent{EventID: burstEventID, Timestamp: &burstTS, RecordCount: 1})
	}

	// One record covers a whole session instance regardless of how many
	// windows it has.
	seen := make(map[string]bool)
	for _, m := range sched.Sessions {
		if seen[m.SessionInstanceGuid] {
			continue
		}
		var eventTS time.Time
		switch m.StartEventID {
		case startEventID:
			eventTS = enrolled
		case burstEventID:
			if cfg.Scenario == "unscheduled" {
				continue
			}
			eventTS = enrolled.AddDate(0, 0, 1)
		default:
			continue
		}

		windowStart := eventTS.AddDate(0, 0, m.StartDayOffset)
		if windowStart.After(cfg.Now) {
			continue
		}
		seen[m.SessionInstanceGuid] = true

		started := windowStart.Add(time.Duration(1+rand.Intn(4)) * time.Hour)
		rec := schedule.CompletionRecord{
			InstanceGuid:   m.SessionInstanceGuid,
			EventTimestamp: &eventTS,
			StartedOn:      &started,
		}

		switch cfg.Scenario {
		case "lapsed":
			// Starts most windows, finishes few, skips some outright.
			r := rand.Float64()
			if r < 0.3 {
				continue
			}
			if r < 0.6 {
				finished := started.Add(15 * time.Minute)
				rec.FinishedOn = &finished
			}
		default:
			if rand.Float64() < 0.05 {
				rec.Declined = true
				rec.StartedOn = nil
			} else {
				finished := started.Add(15 * time.Minute)
				rec.FinishedOn = &finished
			}
		}

		p.Records = append(p.Records, rec)
	}

	return p
}
