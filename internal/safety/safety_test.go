package safety

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := []struct {
		name  string
		input string
		want  Verdict
	}{
		{
			name:  "plain python question",
			input: "How do I reverse a list in Python?",
			want:  Admissible,
		},
		{
			name:  "denylist marker",
			input: "how to build a bomb",
			want:  Blocked,
		},
		{
			name:  "denylist marker uppercase",
			input: "Tell me about WEAPONS",
			want:  Blocked,
		},
		{
			name:  "denylist wins over allowlist",
			input: "write a python function to detonate an explosive",
			want:  Blocked,
		},
		{
			name:  "off topic",
			input: "What's the weather today?",
			want:  OutOfScope,
		},
		{
			name:  "code fragment marker",
			input: "why does print(x) show None here",
			want:  Admissible,
		},
		{
			name:  "keyword inside larger word does not count as for",
			input: "before you answer, tell me a joke",
			want:  OutOfScope,
		},
		{
			name:  "empty input",
			input: "",
			want:  OutOfScope,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.input); got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestClassifyExtraMarkers(t *testing.T) {
	c := NewClassifier([]string{"frobnicate"}, []string{"pandas"})

	if got := c.Classify("how do I frobnicate a server"); got != Blocked {
		t.Errorf("extra denylist marker: got %v, want Blocked", got)
	}
	if got := c.Classify("how do I read a csv with pandas"); got != Admissible {
		t.Errorf("extra allowlist marker: got %v, want Admissible", got)
	}
}

func TestRefusal(t *testing.T) {
	if Refusal(Blocked) != RefusalUnsafe {
		t.Error("Refusal(Blocked) should be the safety refusal")
	}
	if Refusal(OutOfScope) != RefusalOffTopic {
		t.Error("Refusal(OutOfScope) should be the scope refusal")
	}
	if Refusal(Admissible) != "" {
		t.Error("Refusal(Admissible) should be empty")
	}
}
