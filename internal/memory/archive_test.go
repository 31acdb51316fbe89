package memory

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestArchive(t *testing.T) *ArchiveStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := OpenArchive(path, testLogger())
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArchiveRoundTrip(t *testing.T) {
	s := openTestArchive(t)

	correct := true
	rec := InteractionRecord{
		UserInput:   "what is a dict?",
		AgentAnswer: "A dict maps keys to values.",
		Correctness: &correct,
		Reward:      1.6,
		Difficulty:  2,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.RecordInteraction("session-1", rec); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	got, err := s.RecentInteractions("session-1", 10)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].UserInput != rec.UserInput || got[0].AgentAnswer != rec.AgentAnswer {
		t.Errorf("text fields round-trip mismatch: %+v", got[0])
	}
	if got[0].Correctness == nil || !*got[0].Correctness {
		t.Errorf("correctness = %v, want true", got[0].Correctness)
	}
	if got[0].Reward != 1.6 || got[0].Difficulty != 2 {
		t.Errorf("reward/difficulty mismatch: %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt, rec.CreatedAt)
	}
}

func TestArchiveUnknownCorrectness(t *testing.T) {
	s := openTestArchive(t)

	if err := s.RecordInteraction("s", InteractionRecord{
		UserInput:   "q",
		AgentAnswer: "a",
		Difficulty:  1,
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	got, err := s.RecentInteractions("s", 1)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if got[0].Correctness != nil {
		t.Errorf("correctness should stay unknown, got %v", *got[0].Correctness)
	}
}

func TestArchiveOrderAndLimit(t *testing.T) {
	s := openTestArchive(t)

	inputs := []string{"one", "two", "three", "four"}
	for _, in := range inputs {
		if err := s.RecordInteraction("s", InteractionRecord{
			UserInput: in, AgentAnswer: "a", Difficulty: 1,
		}); err != nil {
			t.Fatalf("RecordInteraction(%q): %v", in, err)
		}
	}

	got, err := s.RecentInteractions("s", 2)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Most recent two, oldest first.
	if got[0].UserInput != "three" || got[1].UserInput != "four" {
		t.Errorf("order = [%s, %s], want [three, four]", got[0].UserInput, got[1].UserInput)
	}
}

func TestArchiveSessionIsolation(t *testing.T) {
	s := openTestArchive(t)

	s.RecordInteraction("a", InteractionRecord{UserInput: "qa", AgentAnswer: "x", Difficulty: 1})
	s.RecordInteraction("b", InteractionRecord{UserInput: "qb", AgentAnswer: "y", Difficulty: 1})

	got, err := s.RecentInteractions("a", 10)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if len(got) != 1 || got[0].UserInput != "qa" {
		t.Errorf("session a records = %+v, want single qa", got)
	}
}
