package tools

import (
	"context"
	"strings"
	"testing"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	names := r.Names()
	want := []string{"run_python", "web_search"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if r.Get("run_python") == nil {
		t.Error("run_python should be registered")
	}
	if r.Get("no_such_tool") != nil {
		t.Error("unknown tool lookup should return nil")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d tools", len(list))
	}
	for _, tool := range list {
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
		if tool.Run == nil {
			t.Errorf("tool %s has no handler", tool.Name)
		}
	}
}

func TestWebSearchStub(t *testing.T) {
	out, err := webSearch(context.Background(), "list comprehension")
	if err != nil {
		t.Fatalf("webSearch error: %v", err)
	}
	if !strings.Contains(out, "list comprehension") {
		t.Errorf("stub should echo the query: %q", out)
	}
	if !strings.Contains(out, "WEB_SEARCH_RESULT") {
		t.Errorf("stub should be clearly marked: %q", out)
	}
}
