package main

import "testing"

func TestParseSkillEntriesParsesNameAndLevel(t *testing.T) {
	entries, err := parseSkillEntries([]string{"Gunnery:4", "Spaceship Command:5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "Gunnery" || entries[0].ToLevel != 4 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "Spaceship Command" || entries[1].ToLevel != 5 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestParseSkillEntriesRejectsMissingColon(t *testing.T) {
	if _, err := parseSkillEntries([]string{"Gunnery"}); err == nil {
		t.Fatalf("expected an error for a malformed skill entry")
	}
}

func TestParseSkillEntriesRejectsNonIntegerLevel(t *testing.T) {
	if _, err := parseSkillEntries([]string{"Gunnery:five"}); err == nil {
		t.Fatalf("expected an error for a non-integer level")
	}
}
