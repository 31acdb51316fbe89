package agent

import (
	"strings"
	"testing"

	"github.com/mentorlabs/mentor/internal/memory"
	"github.com/mentorlabs/mentor/internal/tools"
)

func TestDecodeDecisionStructured(t *testing.T) {
	raw := `{
		"thought": "needs a demo",
		"action": "run_python",
		"action_input": "_result = 1 + 1",
		"tutor_reply": "Let me show you.",
		"suggested_difficulty": 3
	}`

	d := decodeDecision(raw)
	if d.Source != DecisionStructured {
		t.Fatalf("Source = %v, want structured", d.Source)
	}
	if d.Action != "run_python" || d.ActionInput != "_result = 1 + 1" {
		t.Errorf("action fields = %q / %q", d.Action, d.ActionInput)
	}
	if d.TutorReply != "Let me show you." || d.Difficulty != 3 {
		t.Errorf("reply/difficulty = %q / %d", d.TutorReply, d.Difficulty)
	}
}

func TestDecodeDecisionFenced(t *testing.T) {
	raw := "```json\n{\"thought\": \"t\", \"action\": \"none\", \"action_input\": \"\", \"tutor_reply\": \"hi\", \"suggested_difficulty\": 2}\n```"

	d := decodeDecision(raw)
	if d.Source != DecisionStructured {
		t.Fatalf("fenced JSON should parse, got fallback with reply %q", d.TutorReply)
	}
	if d.TutorReply != "hi" || d.Difficulty != 2 {
		t.Errorf("reply/difficulty = %q / %d", d.TutorReply, d.Difficulty)
	}
}

func TestDecodeDecisionFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "plain prose", raw: "Lists are ordered collections."},
		{name: "truncated JSON", raw: `{"thought": "x", "action":`},
		{name: "wrong field type", raw: `{"tutor_reply": "ok", "suggested_difficulty": "three"}`},
		{name: "empty tutor_reply", raw: `{"thought": "x", "action": "none", "tutor_reply": ""}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := decodeDecision(tc.raw)
			if d.Source != DecisionFallback {
				t.Fatalf("Source = %v, want fallback", d.Source)
			}
			if d.TutorReply != tc.raw {
				t.Errorf("fallback should carry raw text, got %q", d.TutorReply)
			}
			if d.Action != ActionNone {
				t.Errorf("fallback action = %q, want none", d.Action)
			}
			if d.Difficulty != 1 {
				t.Errorf("fallback difficulty = %d, want 1", d.Difficulty)
			}
		})
	}
}

func TestDecodeDecisionDefaultsAndClamps(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantAction     string
		wantDifficulty int
	}{
		{
			name:           "missing action defaults to none",
			raw:            `{"tutor_reply": "ok", "suggested_difficulty": 2}`,
			wantAction:     ActionNone,
			wantDifficulty: 2,
		},
		{
			name:           "missing difficulty defaults to 1",
			raw:            `{"tutor_reply": "ok", "action": "none"}`,
			wantAction:     ActionNone,
			wantDifficulty: 1,
		},
		{
			name:           "difficulty above range clamps to 5",
			raw:            `{"tutor_reply": "ok", "action": "none", "suggested_difficulty": 9}`,
			wantAction:     ActionNone,
			wantDifficulty: 5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := decodeDecision(tc.raw)
			if d.Source != DecisionStructured {
				t.Fatalf("Source = %v, want structured", d.Source)
			}
			if d.Action != tc.wantAction || d.Difficulty != tc.wantDifficulty {
				t.Errorf("got action %q difficulty %d, want %q / %d",
					d.Action, d.Difficulty, tc.wantAction, tc.wantDifficulty)
			}
		})
	}
}

func TestBuildContextPrompt(t *testing.T) {
	catalog := tools.NewRegistry().List()
	convo := []memory.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}

	prompt := buildContextPrompt(catalog, "Learner name: Ada", convo, "what is a tuple?")

	for _, want := range []string{
		"run_python",
		"web_search",
		"Learner name: Ada",
		"user: earlier question",
		"assistant: earlier answer",
		"what is a tuple?",
		"STRICT JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildReflectionPrompt(t *testing.T) {
	prompt := buildReflectionPrompt("run_python", "_result = 2", "Tool output here")

	for _, want := range []string{`"run_python"`, "_result = 2", "Tool output here", "refine"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("reflection prompt missing %q", want)
		}
	}
}
