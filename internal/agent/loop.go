// Package agent implements the core tutoring loop.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mentorlabs/mentor/internal/llm"
	"github.com/mentorlabs/mentor/internal/memory"
	"github.com/mentorlabs/mentor/internal/safety"
	"github.com/mentorlabs/mentor/internal/tools"
)

// turnState names the phases of one turn, for logging. A turn always
// runs to completion; there is no intermediate persistence.
type turnState int

const (
	stateFiltering turnState = iota
	stateDeciding
	stateToolExecuting
	stateReflecting
	stateScoring
	stateCommitting
)

func (s turnState) String() string {
	switch s {
	case stateFiltering:
		return "filtering"
	case stateDeciding:
		return "deciding"
	case stateToolExecuting:
		return "tool_executing"
	case stateReflecting:
		return "reflecting"
	case stateScoring:
		return "scoring"
	case stateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Feedback carries the caller-supplied signals for one turn.
// Correctness is tri-state (nil = unknown); Rating is 1..5 when set.
type Feedback struct {
	Correctness *bool
	Rating      *int
}

// Loop orchestrates one learner session: safety filtering, model
// decisions, tool dispatch, reflection, reward scoring, and memory
// commits. It holds the sole handle to its session's memory store.
type Loop struct {
	logger    *slog.Logger
	llm       llm.Client
	memory    *memory.Store
	tools     *tools.Registry
	safety    *safety.Classifier
	archive   *memory.ArchiveStore // optional, nil disables persistence
	sessionID string
}

// LoopConfig wires a Loop. Logger, Client, Memory, Tools, and Safety
// are required; Archive is optional and SessionID is generated when
// empty.
type LoopConfig struct {
	Logger    *slog.Logger
	Client    llm.Client
	Memory    *memory.Store
	Tools     *tools.Registry
	Safety    *safety.Classifier
	Archive   *memory.ArchiveStore
	SessionID string
}

// NewLoop creates the controller loop for one session.
func NewLoop(cfg LoopConfig) *Loop {
	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Loop{
		logger:    cfg.Logger,
		llm:       cfg.Client,
		memory:    cfg.Memory,
		tools:     cfg.Tools,
		safety:    cfg.Safety,
		archive:   cfg.Archive,
		sessionID: sessionID,
	}
}

// SessionID returns the identifier archive rows are recorded under.
func (l *Loop) SessionID() string {
	return l.sessionID
}

// HandleTurn processes a single learner query end to end and returns
// the final reply. Malformed model output, tool faults, and unknown
// tool names are all recovered internally; the only error returned is
// a transport-level failure of the deciding model call, which the
// caller owns.
func (l *Loop) HandleTurn(ctx context.Context, userInput string, fb Feedback) (string, error) {
	// FILTERING
	if verdict := l.safety.Classify(userInput); verdict != safety.Admissible {
		l.logger.Info("turn refused", "state", stateFiltering.String(), "verdict", verdict.String())
		refusal := safety.Refusal(verdict)
		l.memory.AddMessage("user", userInput)
		l.memory.AddMessage("assistant", refusal)
		return refusal, nil
	}

	// DECIDING
	prompt := buildContextPrompt(l.tools.List(), l.memory.Summary(), l.memory.Messages(), userInput)
	raw, err := l.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model backend: %w", err)
	}

	decision := decodeDecision(raw)
	if decision.Source == DecisionFallback {
		l.logger.Warn("malformed decision response, using raw text",
			"state", stateDeciding.String(), "bytes", len(raw))
	}
	l.logger.Debug("decision",
		"state", stateDeciding.String(),
		"action", decision.Action,
		"difficulty", decision.Difficulty,
		"thought", decision.Thought,
	)

	// TOOL_EXECUTING and REFLECTING, only when a tool was chosen.
	reply := decision.TutorReply
	if decision.Action != ActionNone {
		observation := l.observe(ctx, decision.Action, decision.ActionInput)

		refined, err := l.llm.Generate(ctx, buildReflectionPrompt(decision.Action, decision.ActionInput, observation))
		if err != nil {
			// Keep the deciding-stage draft rather than failing the turn.
			l.logger.Warn("reflection call failed, keeping draft reply",
				"state", stateReflecting.String(), "error", err)
		} else {
			reply = refined
		}
	}

	// SCORING
	reward := computeReward(fb)

	// COMMITTING
	rec := memory.InteractionRecord{
		UserInput:   userInput,
		AgentAnswer: reply,
		Correctness: fb.Correctness,
		Reward:      reward,
		Difficulty:  decision.Difficulty,
		CreatedAt:   time.Now().UTC(),
	}
	l.memory.AddInteraction(rec)
	l.updatePolicy(reward)

	if l.archive != nil {
		if err := l.archive.RecordInteraction(l.sessionID, rec); err != nil {
			l.logger.Warn("archive write failed", "state", stateCommitting.String(), "error", err)
		}
	}

	l.memory.AddMessage("user", userInput)
	l.memory.AddMessage("assistant", reply)

	l.logger.Info("turn completed",
		"session", l.sessionID,
		"action", decision.Action,
		"reward", reward,
		"skill_level", l.memory.SkillLevel(),
	)

	// Disclosure note when a tool contributed to the answer.
	if decision.Action != ActionNone {
		reply += fmt.Sprintf("\n\n_(I used the **%s** tool to help answer this.)_", decision.Action)
	}
	return reply, nil
}

// observe runs the chosen tool and renders its outcome as observation
// text. Unknown tools and declared failures both become observations;
// neither aborts the turn.
func (l *Loop) observe(ctx context.Context, action, input string) string {
	tool := l.tools.Get(action)
	if tool == nil {
		l.logger.Warn("unknown tool requested", "state", stateToolExecuting.String(), "tool", action)
		return fmt.Sprintf("Tool %q not found.", action)
	}

	out, err := tool.Run(ctx, input)
	if err != nil {
		l.logger.Info("tool failed", "state", stateToolExecuting.String(), "tool", action, "error", err)
		return fmt.Sprintf("Tool %q failed with error:\n%v", action, err)
	}

	l.logger.Debug("tool succeeded", "state", stateToolExecuting.String(), "tool", action, "bytes", len(out))
	return fmt.Sprintf("Tool %q output:\n%s", action, out)
}

// computeReward combines correctness and the subjective rating.
// The rating term is centered on 3 so that 3 contributes nothing,
// 5 adds 0.6, and 1 subtracts 0.6. The result is not clamped.
func computeReward(fb Feedback) float64 {
	reward := 0.0

	if fb.Correctness != nil {
		if *fb.Correctness {
			reward += 1.0
		} else {
			reward -= 0.5
		}
	}

	if fb.Rating != nil {
		reward += float64(*fb.Rating-3) * 0.3
	}

	return reward
}

// updatePolicy nudges the skill level by at most one step per turn.
// Strongly positive reward raises it (capped at 5), strongly negative
// lowers it (floored at 1).
func (l *Loop) updatePolicy(reward float64) {
	switch {
	case reward > 0.5:
		l.memory.AdjustSkill(1)
	case reward < -0.5:
		l.memory.AdjustSkill(-1)
	}
}
