package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

// GenerateMermaid produces a Mermaid stateDiagram-v2 string for a domain's
// transition table. Gated edges are labeled with the checklist they require,
// and domains that absorb self re-assertion get a note saying so.
func GenerateMermaid(d domain.Domain, g *guard.Guard) (string, error) {
	states := domain.States(d)
	if len(states) == 0 {
		return "", fmt.Errorf("unknown domain %q", d)
	}

	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	// Initial states have no inbound edges.
	inbound := make(map[string]bool)
	for _, from := range states {
		for _, to := range domain.NextStates(d, from) {
			inbound[to] = true
		}
	}
	for _, s := range states {
		if !inbound[s] {
			sb.WriteString(fmt.Sprintf("    [*] --> %s\n", s))
		}
	}

	for _, from := range states {
		next := domain.NextStates(d, from)
		sort.Strings(next)
		for _, to := range next {
			if g != nil {
				if kind, ok := g.Gate(d, to); ok {
					sb.WriteString(fmt.Sprintf("    %s --> %s: requires %s checklist\n", from, to, kind))
					continue
				}
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	// Terminal states have no outbound edges.
	for _, s := range states {
		if len(domain.NextStates(d, s)) == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> [*]\n", s))
		}
	}

	if domain.SelfNoOp(d) {
		sb.WriteString(fmt.Sprintf("    note right of %s: re-asserting the current state is a no-op\n", states[0]))
	}
	return sb.String(), nil
}

// GenerateMarkdown renders a domain's transition table as a Markdown table,
// one row per legal edge.
func GenerateMarkdown(d domain.Domain, g *guard.Guard) (string, error) {
	states := domain.States(d)
	if len(states) == 0 {
		return "", fmt.Errorf("unknown domain %q", d)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", d))
	if domain.SelfNoOp(d) {
		sb.WriteString("Re-asserting the current state is absorbed as a no-op.\n\n")
	}
	sb.WriteString("| From | To | Gate |\n|------|----|------|\n")
	for _, from := range states {
		next := domain.NextStates(d, from)
		sort.Strings(next)
		for _, to := range next {
			gate := ""
			if g != nil {
				if kind, ok := g.Gate(d, to); ok {
					gate = string(kind) + " checklist"
				}
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", from, to, gate))
		}
	}
	return sb.String(), nil
}
