package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/at3-stack/at3/internal/detect"
)

// promptDependencyCap bounds how many dependency names go into the
// prompt; huge projects would otherwise blow the context for no gain.
const promptDependencyCap = 40

func buildPrompt(info *detect.ProjectInfo, available []string) string {
	var b strings.Builder
	b.WriteString("You recommend integrations for a web project.\n")
	b.WriteString("Choose only from these feature ids: ")
	b.WriteString(strings.Join(available, ", "))
	b.WriteString(".\n\nProject fingerprint:\n")
	fmt.Fprintf(&b, "- type: %s\n", info.Type)
	fmt.Fprintf(&b, "- package manager: %s\n", info.PackageManager)
	fmt.Fprintf(&b, "- typescript: %t\n", info.TypeScript)
	fmt.Fprintf(&b, "- tailwind: %t\n", info.Tailwind)
	fmt.Fprintf(&b, "- app router: %t\n", info.AppRouter)
	fmt.Fprintf(&b, "- auth provider: %s\n", info.AuthProvider)
	fmt.Fprintf(&b, "- supabase: %t\n", info.Supabase)
	fmt.Fprintf(&b, "- drizzle: %t\n", info.Drizzle)
	fmt.Fprintf(&b, "- ai sdk: %t\n", info.AI)

	if len(info.Dependencies) > 0 {
		names := make([]string, 0, len(info.Dependencies))
		for _, dep := range info.Dependencies {
			names = append(names, dep.Name)
			if len(names) == promptDependencyCap {
				break
			}
		}
		fmt.Fprintf(&b, "- dependencies: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nReturn a JSON array of at most 3 objects " +
		`{"feature": "<id>", "reason": "<one short sentence>"}, ` +
		"ordered by usefulness. Suggest only what the project clearly lacks.")
	return b.String()
}

// parseSuggestions decodes the model's JSON and keeps only suggestions
// naming an available feature id, deduplicated in response order.
func parseSuggestions(data []byte, available []string) ([]Suggestion, error) {
	var raw []Suggestion
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some responses wrap the array in an object anyway.
		var wrapped struct {
			Suggestions []Suggestion `json:"suggestions"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil || wrapped.Suggestions == nil {
			return nil, fmt.Errorf("model returned invalid JSON: %w", err)
		}
		raw = wrapped.Suggestions
	}

	known := make(map[string]bool, len(available))
	for _, id := range available {
		known[id] = true
	}

	out := make([]Suggestion, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		id := strings.ToLower(strings.TrimSpace(s.Feature))
		if !known[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Suggestion{Feature: id, Reason: strings.TrimSpace(s.Reason)})
	}
	return out, nil
}
