package memory

import (
	"fmt"
	"strings"
	"testing"
)

func TestBufferEviction(t *testing.T) {
	s := NewStore("Student", "python", 1, 10)

	for i := 1; i <= 12; i++ {
		s.AddMessage("user", fmt.Sprintf("message %d", i))
	}

	msgs := s.Messages()
	if len(msgs) != 10 {
		t.Fatalf("buffer length = %d, want 10", len(msgs))
	}
	if msgs[0].Content != "message 3" {
		t.Errorf("oldest surviving message = %q, want %q", msgs[0].Content, "message 3")
	}
	if msgs[9].Content != "message 12" {
		t.Errorf("newest message = %q, want %q", msgs[9].Content, "message 12")
	}
	// Order must be preserved.
	for i, m := range msgs {
		want := fmt.Sprintf("message %d", i+3)
		if m.Content != want {
			t.Errorf("msgs[%d] = %q, want %q", i, m.Content, want)
		}
	}
}

func TestBufferBoundAfterEveryMutation(t *testing.T) {
	s := NewStore("", "", 0, 3)
	for i := 0; i < 20; i++ {
		s.AddMessage("user", "x")
		if n := len(s.Messages()); n > 3 {
			t.Fatalf("buffer length %d exceeds max 3 after add %d", n, i)
		}
	}
}

func TestAdjustSkillClamps(t *testing.T) {
	s := NewStore("", "", 5, 0)
	if got := s.AdjustSkill(1); got != 5 {
		t.Errorf("AdjustSkill(+1) at 5 = %d, want 5", got)
	}

	s = NewStore("", "", 1, 0)
	if got := s.AdjustSkill(-1); got != 1 {
		t.Errorf("AdjustSkill(-1) at 1 = %d, want 1", got)
	}
	if got := s.AdjustSkill(1); got != 2 {
		t.Errorf("AdjustSkill(+1) at 1 = %d, want 2", got)
	}
}

func TestEstimateSkill(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }

	tests := []struct {
		name    string
		skill   int
		history []InteractionRecord
		want    float64
	}{
		{
			name:  "no history falls back to stored level",
			skill: 3,
			want:  3.0,
		},
		{
			name:  "no positive rewards falls back to stored level",
			skill: 2,
			history: []InteractionRecord{
				{Reward: -0.5, Difficulty: 4},
				{Reward: 0, Difficulty: 5},
			},
			want: 2.0,
		},
		{
			name:  "mean difficulty over positive subset",
			skill: 1,
			history: []InteractionRecord{
				{Reward: 1.0, Difficulty: 2, Correctness: boolPtr(true)},
				{Reward: 0.6, Difficulty: 4},
				{Reward: -1.1, Difficulty: 5, Correctness: boolPtr(false)},
			},
			want: 3.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore("", "", tc.skill, 0)
			for _, rec := range tc.history {
				s.AddInteraction(rec)
			}
			p := s.Profile()
			if got := p.EstimateSkill(); got != tc.want {
				t.Errorf("EstimateSkill() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := NewStore("Ada", "python", 2, 0)
	s.AddInteraction(InteractionRecord{Reward: 1.0, Difficulty: 4})

	summary := s.Summary()
	for _, want := range []string{
		"Learner name: Ada",
		"Approx skill level (1-5): 4.0",
		"Target domain: python",
		"Number of past interactions: 1",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}

func TestProfileSnapshotIsolation(t *testing.T) {
	s := NewStore("", "", 1, 0)
	s.AddInteraction(InteractionRecord{Reward: 1, Difficulty: 1})

	p := s.Profile()
	p.History[0].Difficulty = 5

	if got := s.Profile().History[0].Difficulty; got != 1 {
		t.Errorf("store history mutated through snapshot: difficulty = %d", got)
	}
}
