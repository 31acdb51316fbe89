package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mentorlabs/mentor/internal/memory"
	"github.com/mentorlabs/mentor/internal/tools"
)

// ActionNone is the action value meaning "answer directly, no tool".
const ActionNone = "none"

// DecisionSource tells whether the model's reply parsed as the
// structured schema or degraded to raw text.
type DecisionSource int

const (
	// DecisionStructured means the response matched the JSON schema.
	DecisionStructured DecisionSource = iota

	// DecisionFallback means the response was malformed and the raw
	// text was adopted as the tutor reply.
	DecisionFallback
)

// Decision is the controller's parsed view of one model response. All
// downstream logic operates on this, never on a loose map.
type Decision struct {
	Source      DecisionSource
	Thought     string
	Action      string
	ActionInput string
	TutorReply  string
	Difficulty  int // 1..5
}

// wireDecision is the JSON shape the model is instructed to emit.
type wireDecision struct {
	Thought             string `json:"thought"`
	Action              string `json:"action"`
	ActionInput         string `json:"action_input"`
	TutorReply          string `json:"tutor_reply"`
	SuggestedDifficulty int    `json:"suggested_difficulty"`
}

// decodeDecision parses a raw model response. Malformed output (bad
// JSON, wrong field types, or no usable reply) degrades to a fallback
// decision carrying the raw text; it never fails.
func decodeDecision(raw string) Decision {
	fallback := Decision{
		Source:     DecisionFallback,
		Thought:    "Failed to parse structured response; using raw model output.",
		Action:     ActionNone,
		TutorReply: raw,
		Difficulty: 1,
	}

	var w wireDecision
	if err := json.Unmarshal([]byte(stripFences(raw)), &w); err != nil {
		return fallback
	}
	if w.TutorReply == "" {
		return fallback
	}

	action := w.Action
	if action == "" {
		action = ActionNone
	}

	difficulty := w.SuggestedDifficulty
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}

	return Decision{
		Source:      DecisionStructured,
		Thought:     w.Thought,
		Action:      action,
		ActionInput: w.ActionInput,
		TutorReply:  w.TutorReply,
		Difficulty:  difficulty,
	}
}

// stripFences removes a surrounding markdown code fence. Models told to
// emit strict JSON still frequently wrap it in ```json blocks.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// systemInstructions is the fixed part of the decision prompt. The tool
// list is appended at prompt-build time from the registry.
const systemInstructions = `You are an Interactive Learning Companion that tutors students in Python.

You must:
- Adapt explanations to the learner's skill level.
- Decide whether to use one of the available tools listed below.
- Follow a ReAct-style pattern:
  1. Think about the question and context.
  2. Decide whether a tool is needed.
  3. Either call a tool or answer directly.

You ALWAYS respond in STRICT JSON with schema:

{
  "thought": "short natural language summary of your reasoning",
  "action": "<tool name>" | "none",
  "action_input": "string input for the tool, or empty string if none",
  "tutor_reply": "message to the learner BEFORE feedback/reward",
  "suggested_difficulty": 1-5
}

Constraints:
- If you are unsure, prefer using a tool.
- Keep tutor_reply clear, kind, and focused on Python.
- suggested_difficulty: 1 = very easy, 5 = very challenging.`

// buildContextPrompt assembles the DECIDING-stage prompt from the
// system instructions, the tool catalog, the learner summary, the
// conversation buffer, and the new question.
func buildContextPrompt(catalog []*tools.Tool, summary string, convo []memory.Message, input string) string {
	var b strings.Builder

	b.WriteString("SYSTEM INSTRUCTIONS:\n")
	b.WriteString(systemInstructions)

	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range catalog {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}

	b.WriteString("\nLearner context:\n")
	b.WriteString(summary)

	fmt.Fprintf(&b, "\n\nRecent conversation (last %d messages):\n", len(convo))
	for _, m := range convo {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	b.WriteString("\nNew question from learner:\n")
	b.WriteString(input)

	return b.String()
}

// buildReflectionPrompt assembles the REFLECTING-stage prompt from the
// original decision and the tool observation.
func buildReflectionPrompt(action, actionInput, observation string) string {
	var b strings.Builder

	b.WriteString("You are a Python tutor. Explain clearly and kindly.\n\n")
	fmt.Fprintf(&b, "Earlier you decided to use the tool %q with input:\n\n%s\n\n", action, actionInput)
	fmt.Fprintf(&b, "The tool returned:\n\n%s\n\n", observation)
	b.WriteString("Now, refine your explanation for the learner, making sure it is\n")
	b.WriteString("correct, concise, and appropriate for their skill level.")

	return b.String()
}
