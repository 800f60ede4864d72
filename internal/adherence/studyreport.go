package adherence

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// WeekRow is one distinct (session, trigger event, study burst)
// combination appearing in a week's grid.
type WeekRow struct {
	Label           string `json:"label"`
	SearchableLabel string `json:"searchableLabel"`
	SessionGuid     string `json:"sessionGuid"`
	StartEventID    string `json:"startEventId"`
	SessionName     string `json:"sessionName"`
	SessionSymbol   string `json:"sessionSymbol,omitempty"`
	StudyBurstID    string `json:"studyBurstId,omitempty"`
	StudyBurstNum   int    `json:"studyBurstNum,omitempty"`
	WeekInStudy     int    `json:"weekInStudy"`
}

// StudyReportWeek is a 7-day bucket of the merged whole-study timeline.
// After padding, ByDayEntries holds exactly the keys 0-6 and slot d
// lists one entry per row, in row order.
type StudyReportWeek struct {
	WeekInStudy      int                       `json:"weekInStudy"`
	StartDate        *Date                     `json:"startDate,omitempty"`
	AdherencePercent *int                      `json:"adherencePercent,omitempty"`
	Rows             []WeekRow                 `json:"rows"`
	ByDayEntries     map[int][]*EventStreamDay `json:"byDayEntries"`
}

// NextActivity is the single upcoming scheduled day surfaced when the
// participant's whole timeline is still in the future.
type NextActivity struct {
	SessionGuid   string `json:"sessionGuid"`
	SessionName   string `json:"sessionName"`
	SessionSymbol string `json:"sessionSymbol,omitempty"`
	WeekInStudy   int    `json:"weekInStudy"`
	StartDate     *Date  `json:"startDate,omitempty"`
	StudyBurstID  string `json:"studyBurstId,omitempty"`
	StudyBurstNum int    `json:"studyBurstNum,omitempty"`
}

// StudyAdherenceReport is the whole-study weekly view: every stream
// merged onto one calendar, bucketed by week, with the current-week
// detail and its carried-over prior activity.
type StudyAdherenceReport struct {
	Timestamp           time.Time             `json:"timestamp"`
	ClientTimeZone      string                `json:"clientTimeZone,omitempty"`
	AdherencePercent    *int                  `json:"adherencePercent,omitempty"`
	Progression         ProgressionStatus     `json:"progression"`
	DateRange           *DateRange            `json:"dateRange,omitempty"`
	Weeks               []*StudyReportWeek    `json:"weeks"`
	WeekReport          *StudyReportWeek      `json:"weekReport,omitempty"`
	NextActivity        *NextActivity         `json:"nextActivity,omitempty"`
	EventTimestamps     map[string]time.Time  `json:"eventTimestamps,omitempty"`
	UnsetEventIDs       []string              `json:"unsetEventIds,omitempty"`
	UnscheduledSessions []string              `json:"unscheduledSessions,omitempty"`
}

// BuildStudyReport merges every event stream in the state onto one
// calendar and assembles the weekly study report. Missing events, unset
// dates and empty schedules degrade to sparse output; the generator
// never errors on partial data.
func BuildStudyReport(s *State) *StudyAdherenceReport {
	streams := s.EventStreams()
	today := s.Today()

	report := &StudyAdherenceReport{
		Timestamp:       s.Now(),
		ClientTimeZone:  s.Location().String(),
		Progression:     Progression(s, streams),
		Weeks:           []*StudyReportWeek{},
		EventTimestamps: make(map[string]time.Time),
	}
	if report.Progression != ProgressionUnstarted {
		pct := Percentage(streams)
		report.AdherencePercent = &pct
	}

	// 1. Split streams into dated days (copied, so normalization cannot
	// touch the state's memoized entries) and unscheduled events.
	var datedDays []*EventStreamDay
	unscheduled := make(map[string]bool)
	for _, stream := range streams {
		if stream.EventTimestamp != nil {
			report.EventTimestamps[stream.StartEventID] = *stream.EventTimestamp
		}
		dated := false
		for _, day := range stream.Days() {
			if day.StartDate == nil {
				continue
			}
			dated = true
			datedDays = append(datedDays, copyDay(day))
		}
		if !dated {
			report.UnsetEventIDs = append(report.UnsetEventIDs, stream.StartEventID)
			for _, day := range stream.Days() {
				unscheduled[day.SessionName] = true
			}
		}
	}
	for name := range unscheduled {
		report.UnscheduledSessions = append(report.UnscheduledSessions, name)
	}
	sort.Strings(report.UnscheduledSessions)

	// 2. Day zero of the merged timeline is the earliest scheduled date;
	// the study-start event may precede or follow it.
	var earliest Date
	for _, day := range datedDays {
		earliest = minDate(earliest, *day.StartDate)
	}
	var studyStart Date
	if ts := s.EventTimestamp(s.StudyStartEventID()); ts != nil {
		studyStart = DateOf(*ts)
	}

	// Week "1" aligns with the study's intended start even when earlier
	// activity exists, which pushes pre-study weeks to zero or below.
	weekOffset := 0
	if !earliest.IsZero() && !studyStart.IsZero() && earliest.Before(studyStart) {
		weekOffset = earliest.DaysUntil(studyStart) / 7
	}

	// 3. Bucket the merged timeline into 7-day weeks.
	weeksByIdx := make(map[int]*StudyReportWeek)
	for _, day := range datedDays {
		daysSinceEarliest := earliest.DaysUntil(*day.StartDate)
		idx := daysSinceEarliest / 7
		dayOfWeek := daysSinceEarliest % 7

		week, ok := weeksByIdx[idx]
		if !ok {
			start := earliest.AddDays(idx * 7)
			week = &StudyReportWeek{
				WeekInStudy:  idx - weekOffset + 1,
				StartDate:    &start,
				ByDayEntries: make(map[int][]*EventStreamDay),
			}
			weeksByIdx[idx] = week
		}
		day.WeekInStudy = week.WeekInStudy
		week.ByDayEntries[dayOfWeek] = append(week.ByDayEntries[dayOfWeek], day)
	}

	indexes := make([]int, 0, len(weeksByIdx))
	for idx := range weeksByIdx {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var currentWeek *StudyReportWeek
	for _, idx := range indexes {
		week := weeksByIdx[idx]
		finalizeWeek(week)

		// Future weeks cannot be assessed yet.
		if !week.StartDate.After(today) {
			pct := weekPercentage(week)
			week.AdherencePercent = &pct
		}
		if !today.Before(*week.StartDate) && today.Before(week.StartDate.AddDays(7)) {
			currentWeek = week
		}
		report.Weeks = append(report.Weeks, week)
	}

	// 4. The current-week detail: a copy of the live week, or a
	// synthetic week anchored at the study start (or today) when no week
	// spans today.
	weekReport := copyWeek(currentWeek)
	if weekReport == nil {
		start := studyStart
		if start.IsZero() {
			start = today
		}
		weekReport = &StudyReportWeek{
			WeekInStudy:  1,
			StartDate:    &start,
			ByDayEntries: make(map[int][]*EventStreamDay),
		}
		if !earliest.IsZero() {
			weekReport.WeekInStudy = floorDiv(earliest.DaysUntil(start), 7) - weekOffset + 1
		}
	}

	// 5. Carry unresolved prior activity into the detail week's day zero
	// so outstanding work stays visible.
	for _, week := range report.Weeks {
		if !week.StartDate.Before(*weekReport.StartDate) {
			continue
		}
		for _, days := range week.ByDayEntries {
			for _, day := range days {
				var pending []*EventStreamWindow
				for _, win := range day.TimeWindows {
					if CarryOverStates[win.State] {
						dup := *win
						pending = append(pending, &dup)
					}
				}
				if len(pending) == 0 {
					continue
				}
				carried := copyDay(day)
				carried.TimeWindows = pending
				carried.WeekInStudy = weekReport.WeekInStudy
				weekReport.ByDayEntries[0] = append(weekReport.ByDayEntries[0], carried)
			}
		}
	}
	finalizeWeek(weekReport)
	if !weekReport.StartDate.After(today) {
		pct := weekPercentage(weekReport)
		weekReport.AdherencePercent = &pct
	}
	report.WeekReport = weekReport

	// 6. With no live week, point at whatever comes next.
	if currentWeek == nil {
		report.NextActivity = findNextActivity(report.Weeks, today)
	}

	// 7. Strip working fields and stamp today flags on every day entry.
	for _, week := range append(append([]*StudyReportWeek{}, report.Weeks...), weekReport) {
		normalizeWeek(week, today)
	}

	report.DateRange = studyDateRange(datedDays, report.Weeks)
	return report
}

// finalizeWeek computes the week's distinct sorted rows and pads every
// one of the 7 day slots so each row has an entry for each day.
func finalizeWeek(week *StudyReportWeek) {
	type rowKey struct {
		sessionGuid  string
		startEventID string
		burstID      string
		burstNum     int
	}

	keyOf := func(day *EventStreamDay) rowKey {
		return rowKey{day.SessionGuid, day.StartEventID, day.StudyBurstID, day.StudyBurstNum}
	}

	var keys []rowKey
	rowsByKey := make(map[rowKey]WeekRow)
	for d := 0; d < 7; d++ {
		for _, day := range week.ByDayEntries[d] {
			key := keyOf(day)
			if _, ok := rowsByKey[key]; ok {
				continue
			}
			label := fmt.Sprintf("%s / Week %d", day.SessionName, week.WeekInStudy)
			if day.StudyBurstID != "" {
				label = fmt.Sprintf("%s %d / %s / Week %d", day.StudyBurstID, day.StudyBurstNum, day.SessionName, week.WeekInStudy)
			}
			rowsByKey[key] = WeekRow{
				Label:           label,
				SearchableLabel: strings.ToLower(label),
				SessionGuid:     day.SessionGuid,
				StartEventID:    day.StartEventID,
				SessionName:     day.SessionName,
				SessionSymbol:   day.SessionSymbol,
				StudyBurstID:    day.StudyBurstID,
				StudyBurstNum:   day.StudyBurstNum,
				WeekInStudy:     week.WeekInStudy,
			}
			keys = append(keys, key)
		}
	}

	rows := make([]WeekRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, rowsByKey[key])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		bi := strings.ToLower(rows[i].StudyBurstID)
		bj := strings.ToLower(rows[j].StudyBurstID)
		if bi != bj {
			// Burst-less rows sort after bursts.
			if bi == "" {
				return false
			}
			if bj == "" {
				return true
			}
			return bi < bj
		}
		return strings.ToLower(rows[i].Label) < strings.ToLower(rows[j].Label)
	})
	week.Rows = rows

	// Pad: slot d gets exactly one entry per row, merging duplicate day
	// entries and fabricating empty placeholders where a row has no
	// scheduled activity that day.
	padded := make(map[int][]*EventStreamDay, 7)
	for d := 0; d < 7; d++ {
		existing := make(map[rowKey]*EventStreamDay)
		for _, day := range week.ByDayEntries[d] {
			key := keyOf(day)
			if prior, ok := existing[key]; ok {
				prior.TimeWindows = append(prior.TimeWindows, day.TimeWindows...)
				continue
			}
			existing[key] = day
		}

		slot := make([]*EventStreamDay, 0, len(rows))
		for _, row := range rows {
			key := rowKey{row.SessionGuid, row.StartEventID, row.StudyBurstID, row.StudyBurstNum}
			if day, ok := existing[key]; ok {
				slot = append(slot, day)
				continue
			}
			slot = append(slot, &EventStreamDay{
				SessionGuid:   row.SessionGuid,
				SessionName:   row.SessionName,
				SessionSymbol: row.SessionSymbol,
				StartEventID:  row.StartEventID,
				WeekInStudy:   week.WeekInStudy,
				StudyBurstID:  row.StudyBurstID,
				StudyBurstNum: row.StudyBurstNum,
				TimeWindows:   []*EventStreamWindow{},
			})
		}
		padded[d] = slot
	}
	week.ByDayEntries = padded
}

// weekPercentage folds only the windows scheduled within one week.
func weekPercentage(week *StudyReportWeek) int {
	countable, completed := 0, 0
	for _, days := range week.ByDayEntries {
		for _, day := range days {
			for _, win := range day.TimeWindows {
				if win.State == NotApplicable {
					continue
				}
				countable++
				if win.State == Completed {
					completed++
				}
			}
		}
	}
	if countable == 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(countable)))
}

func copyWeek(week *StudyReportWeek) *StudyReportWeek {
	if week == nil {
		return nil
	}
	dup := *week
	dup.Rows = append([]WeekRow{}, week.Rows...)
	dup.ByDayEntries = make(map[int][]*EventStreamDay, len(week.ByDayEntries))
	for d, days := range week.ByDayEntries {
		copied := make([]*EventStreamDay, len(days))
		for i, day := range days {
			copied[i] = copyDay(day)
		}
		dup.ByDayEntries[d] = copied
	}
	if week.AdherencePercent != nil {
		pct := *week.AdherencePercent
		dup.AdherencePercent = &pct
	}
	if week.StartDate != nil {
		start := *week.StartDate
		dup.StartDate = &start
	}
	return &dup
}

// findNextActivity scans weeks chronologically for the first future day
// with at least one scheduled window.
func findNextActivity(weeks []*StudyReportWeek, today Date) *NextActivity {
	for _, week := range weeks {
		for d := 0; d < 7; d++ {
			for _, day := range week.ByDayEntries[d] {
				if day.StartDate == nil || !day.StartDate.After(today) || len(day.TimeWindows) == 0 {
					continue
				}
				start := *day.StartDate
				return &NextActivity{
					SessionGuid:   day.SessionGuid,
					SessionName:   day.SessionName,
					SessionSymbol: day.SessionSymbol,
					WeekInStudy:   week.WeekInStudy,
					StartDate:     &start,
					StudyBurstID:  day.StudyBurstID,
					StudyBurstNum: day.StudyBurstNum,
				}
			}
		}
	}
	return nil
}

// normalizeWeek strips assembly-only fields from each day entry and
// stamps the today flag.
func normalizeWeek(week *StudyReportWeek, today Date) {
	if week == nil {
		return
	}
	for _, days := range week.ByDayEntries {
		for _, day := range days {
			day.Today = day.StartDate != nil && day.StartDate.Equal(today)
			day.WeekInStudy = 0
			day.StartDay = nil
			day.StudyBurstID = ""
			day.StudyBurstNum = 0
		}
	}
}

func studyDateRange(datedDays []*EventStreamDay, weeks []*StudyReportWeek) *DateRange {
	var start, end Date
	for _, day := range datedDays {
		start = minDate(start, *day.StartDate)
		end = maxDate(end, *day.StartDate)
		for _, win := range day.TimeWindows {
			if win.EndDate != nil {
				end = maxDate(end, *win.EndDate)
			}
		}
	}
	for _, week := range weeks {
		if week.StartDate != nil {
			end = maxDate(end, week.StartDate.AddDays(6))
		}
	}
	if start.IsZero() && end.IsZero() {
		return nil
	}
	return &DateRange{Start: &start, End: &end}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
