package adherence

import (
	"testing"
	"time"
)

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		days     int
		expected Date
	}{
		{"SameMonth", Date{2026, time.March, 10}, 5, Date{2026, time.March, 15}},
		{"MonthRollover", Date{2026, time.January, 30}, 3, Date{2026, time.February, 2}},
		{"YearRollover", Date{2025, time.December, 30}, 4, Date{2026, time.January, 3}},
		{"Negative", Date{2026, time.March, 3}, -5, Date{2026, time.February, 26}},
		{"LeapDay", Date{2024, time.February, 28}, 1, Date{2024, time.February, 29}},
		{"Zero", Date{2026, time.March, 10}, 0, Date{2026, time.March, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.date.AddDays(tt.days); got != tt.expected {
				t.Errorf("AddDays(%d) = %v, want %v", tt.days, got, tt.expected)
			}
		})
	}
}

func TestDateDaysUntil(t *testing.T) {
	tests := []struct {
		name     string
		from     Date
		to       Date
		expected int
	}{
		{"Forward", Date{2026, time.March, 1}, Date{2026, time.March, 11}, 10},
		{"Backward", Date{2026, time.March, 11}, Date{2026, time.March, 1}, -10},
		{"Same", Date{2026, time.March, 1}, Date{2026, time.March, 1}, 0},
		{"AcrossMonths", Date{2026, time.February, 27}, Date{2026, time.March, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.DaysUntil(tt.to); got != tt.expected {
				t.Errorf("DaysUntil() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDateAt(t *testing.T) {
	loc := time.FixedZone("TEST", -6*3600)
	d := Date{2026, time.March, 10}

	got := d.At("08:30", loc)
	want := time.Date(2026, time.March, 10, 8, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("At(08:30) = %v, want %v", got, want)
	}

	// Empty and malformed wall times default to midnight.
	for _, wallTime := range []string{"", "nonsense", "25:99"} {
		got := d.At(wallTime, loc)
		want := time.Date(2026, time.March, 10, 0, 0, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("At(%q) = %v, want midnight", wallTime, got)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := Date{2026, time.March, 5}
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(data) != `"2026-03-05"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	var parsed Date
	if err := parsed.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error: %v", err)
	}
	if parsed != d {
		t.Errorf("round trip = %v, want %v", parsed, d)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, expected int
	}{
		{10, 7, 1},
		{7, 7, 1},
		{6, 7, 0},
		{0, 7, 0},
		{-1, 7, -1},
		{-7, 7, -1},
		{-8, 7, -2},
	}

	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.expected {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}
