// Package memory holds the learner profile and conversation memory.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// InteractionRecord is a single completed exchange between learner and
// agent. Records are immutable once created: the loop appends them to
// the profile history and never touches them again.
type InteractionRecord struct {
	UserInput   string    `json:"user_input"`
	AgentAnswer string    `json:"agent_answer"`
	Correctness *bool     `json:"correctness,omitempty"` // nil = unknown
	Reward      float64   `json:"reward"`
	Difficulty  int       `json:"difficulty"` // 1..5
	CreatedAt   time.Time `json:"created_at"`
}

// LearnerProfile is the long-term representation of the learner.
// SkillLevel stays within [1,5]; the agent loop is the only mutator.
type LearnerProfile struct {
	Name         string              `json:"name"`
	SkillLevel   int                 `json:"skill_level"` // 1 (beginner) .. 5 (advanced)
	TargetDomain string              `json:"target_domain"`
	History      []InteractionRecord `json:"history"`
}

// EstimateSkill estimates effective skill from past rewarded
// interactions: the mean difficulty over records with positive reward.
// With no history, or no positively rewarded records, it falls back to
// the stored skill level.
func (p *LearnerProfile) EstimateSkill() float64 {
	var sum, n int
	for _, h := range p.History {
		if h.Reward > 0 {
			sum += h.Difficulty
			n++
		}
	}
	if n == 0 {
		return float64(p.SkillLevel)
	}
	return float64(sum) / float64(n)
}

// Message is one entry in the short-term conversation buffer.
type Message struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// DefaultMaxBuffer is the short-term buffer bound when none is configured.
const DefaultMaxBuffer = 10

// Store combines the long-term learner profile with a bounded
// short-term conversation buffer. Each session owns exactly one Store;
// the mutex keeps a served session safe without promising anything
// about sharing a Store across sessions.
type Store struct {
	mu        sync.Mutex
	profile   LearnerProfile
	buffer    []Message
	maxBuffer int
}

// NewStore creates a memory store for one learner session.
func NewStore(name, targetDomain string, skillLevel, maxBuffer int) *Store {
	if name == "" {
		name = "Student"
	}
	if targetDomain == "" {
		targetDomain = "python"
	}
	if skillLevel < 1 || skillLevel > 5 {
		skillLevel = 1
	}
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	return &Store{
		profile: LearnerProfile{
			Name:         name,
			SkillLevel:   skillLevel,
			TargetDomain: targetDomain,
		},
		maxBuffer: maxBuffer,
	}
}

// AddMessage appends a message to the conversation buffer, evicting the
// oldest entry when the buffer is full.
func (s *Store) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, Message{Role: role, Content: content})
	if len(s.buffer) > s.maxBuffer {
		s.buffer = s.buffer[len(s.buffer)-s.maxBuffer:]
	}
}

// Messages returns a copy of the conversation buffer, oldest first.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.buffer))
	copy(out, s.buffer)
	return out
}

// AddInteraction appends a record to the learner's long-term history.
func (s *Store) AddInteraction(rec InteractionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.History = append(s.profile.History, rec)
}

// Profile returns a snapshot of the learner profile. History shares no
// backing array with the store.
func (s *Store) Profile() LearnerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profile
	p.History = make([]InteractionRecord, len(s.profile.History))
	copy(p.History, s.profile.History)
	return p
}

// SkillLevel returns the current skill level.
func (s *Store) SkillLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.SkillLevel
}

// AdjustSkill moves the skill level by delta, clamped to [1,5], and
// returns the resulting level.
func (s *Store) AdjustSkill(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile.SkillLevel += delta
	if s.profile.SkillLevel > 5 {
		s.profile.SkillLevel = 5
	}
	if s.profile.SkillLevel < 1 {
		s.profile.SkillLevel = 1
	}
	return s.profile.SkillLevel
}

// Summary returns a deterministic human-readable profile summary for
// inclusion in model prompts.
func (s *Store) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Learner name: %s\n", s.profile.Name)
	fmt.Fprintf(&b, "Approx skill level (1-5): %.1f\n", s.profile.EstimateSkill())
	fmt.Fprintf(&b, "Target domain: %s\n", s.profile.TargetDomain)
	fmt.Fprintf(&b, "Number of past interactions: %d", len(s.profile.History))
	return b.String()
}
