package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("STUDY_START_EVENT_ID", "activities_retrieved")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DataPath != dir {
		t.Errorf("DataPath = %q, want %q", cfg.DataPath, dir)
	}
	if cfg.StudyStartEventID != "activities_retrieved" {
		t.Errorf("StudyStartEventID = %q, want %q", cfg.StudyStartEventID, "activities_retrieved")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("STUDYPACE_TEST_KEY", "value")

	tests := []struct {
		name     string
		key      string
		fallback string
		expected string
	}{
		{"Set", "STUDYPACE_TEST_KEY", "fallback", "value"},
		{"Unset", "STUDYPACE_TEST_KEY_MISSING", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getEnv(tt.key, tt.fallback); got != tt.expected {
				t.Errorf("getEnv(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}
