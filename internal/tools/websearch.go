package tools

import (
	"context"
	"fmt"
)

// webSearch is a deterministic placeholder for a real search API call.
// It lets the decision and reflection pipeline be exercised end to end
// without external credentials.
func webSearch(_ context.Context, query string) (string, error) {
	return fmt.Sprintf(
		"WEB_SEARCH_RESULT (stub): in a full deployment the agent would call "+
			"a web search API with query: %q. Here we simply return this "+
			"placeholder string so the reasoning pipeline can be demonstrated.",
		query), nil
}
