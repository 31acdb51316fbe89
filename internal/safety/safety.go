// Package safety classifies learner input before it reaches the model.
//
// The classifier is a deliberately crude substring heuristic: it is
// deterministic, cheap, and conservative. It prefers rejecting an
// on-topic question as out of scope over letting an unsafe one through.
package safety

import "strings"

// Verdict is the outcome of classifying one input.
type Verdict int

const (
	// Admissible input is safe and on topic.
	Admissible Verdict = iota

	// Blocked input matched the unsafe-topic denylist. Blocked takes
	// precedence over the scope check.
	Blocked

	// OutOfScope input is safe but matched no domain marker.
	OutOfScope
)

func (v Verdict) String() string {
	switch v {
	case Admissible:
		return "admissible"
	case Blocked:
		return "blocked"
	case OutOfScope:
		return "out_of_scope"
	default:
		return "unknown"
	}
}

// RefusalUnsafe is the fixed reply for Blocked input.
const RefusalUnsafe = "I'm sorry, but I can't help with harmful or unsafe topics. " +
	"If you're in distress, please reach out to a trusted person or a " +
	"professional support line."

// RefusalOffTopic is the fixed reply for OutOfScope input.
const RefusalOffTopic = "I'm designed to help with learning Python programming. " +
	"Could you rephrase your question so it is about Python code or concepts?"

// defaultDenylist markers indicate unsafe topics. Matching is
// case-insensitive substring presence, nothing smarter.
var defaultDenylist = []string{
	"suicide",
	"kill myself",
	"self-harm",
	"harm others",
	"bomb",
	"explosive",
	"weapon",
	"terrorist",
}

// defaultAllowlist markers strongly suggest a Python programming
// question. Trailing spaces and parens are intentional: "for " avoids
// matching "before", "print(" avoids matching prose about printing.
var defaultAllowlist = []string{
	"python",
	"variable",
	"function",
	"loop",
	"for ",
	"while ",
	"list",
	"tuple",
	"dictionary",
	"dict",
	"class",
	"object",
	"error",
	"traceback",
	"recursion",
	"def ",
	"print(",
	"append(",
	"extend(",
	"len(",
	"index(",
}

// Classifier applies the denylist and allowlist to input text.
// It holds no mutable state and is safe to share.
type Classifier struct {
	denylist  []string
	allowlist []string
}

// NewClassifier creates a classifier with the built-in marker lists
// plus any extra markers from configuration.
func NewClassifier(extraDeny, extraAllow []string) *Classifier {
	return &Classifier{
		denylist:  append(append([]string{}, defaultDenylist...), extraDeny...),
		allowlist: append(append([]string{}, defaultAllowlist...), extraAllow...),
	}
}

// Classify returns the verdict for one input. Pure function: no side
// effects, no logging. The caller emits the matching refusal text.
func (c *Classifier) Classify(input string) Verdict {
	text := strings.ToLower(input)

	for _, marker := range c.denylist {
		if strings.Contains(text, marker) {
			return Blocked
		}
	}

	for _, marker := range c.allowlist {
		if strings.Contains(text, marker) {
			return Admissible
		}
	}

	return OutOfScope
}

// Refusal returns the fixed user-facing reply for a non-admissible
// verdict, or "" for Admissible.
func Refusal(v Verdict) string {
	switch v {
	case Blocked:
		return RefusalUnsafe
	case OutOfScope:
		return RefusalOffTopic
	default:
		return ""
	}
}
