package store

import (
	"context"
	"os"
	"testing"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}

func TestMemStorageCopiesValues(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()

	f := sampleFact("f1", "theo")
	s.UpsertFact(ctx, f)
	f.Tags[0].Value = "mutated"

	facts, _ := s.LoadFacts(ctx)
	if facts[0].Tags[0].Value == "mutated" {
		t.Error("stored fact shares its tag slice with the caller")
	}

	facts[0].Links[0].TargetID = "changed"
	again, _ := s.LoadFacts(ctx)
	if again[0].Links[0].TargetID == "changed" {
		t.Error("loaded fact shares its link slice with the store")
	}
}

func TestMemStorageSettingsRoundTripJSON(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()

	if err := s.SaveSetting(ctx, "k", dayState{DayIndex: 7}); err != nil {
		t.Fatalf("SaveSetting: %v", err)
	}
	var got map[string]any
	ok, err := s.LoadSetting(ctx, "k", &got)
	if err != nil || !ok {
		t.Fatalf("LoadSetting: ok=%v err=%v", ok, err)
	}
	if got["dayIndex"] != float64(7) {
		t.Errorf("got %v", got)
	}
}
