package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Overlay highlights states on top of the exported diagram.
type Overlay struct {
	// Flagged states get the "flagged" class (e.g. states with warnings).
	Flagged []string
	// Current is drawn with the "current" class.
	Current string
}

const mermaidTerminalID = "__end"

// Mermaid renders the graph as a Mermaid flowchart.
// Shapes:
// - Initial state: ((Circle))
// - Terminal interaction: ([Stadium])
// - State with an interaction: [/Parallelogram/]
// - Default: [Rectangle]
// Answer group edges are solid, default outcomes dotted and fallbacks labelled.
func (g *Graph) Mermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	usesTerminal := false
	for _, name := range g.Names() {
		st := g.states[name]
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case name == g.initState:
			opener, closer = "((", "))"
		case g.isTerminal(st):
			opener, closer = "([", "])"
		case st.Interaction.ID != "":
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(name), closer))

		st.EachOutcome(func(ref domain.OutcomeRef, o *domain.Outcome) {
			to := sanitizeMermaidID(o.Dest)
			if o.IsTerminal() {
				to = mermaidTerminalID
				usesTerminal = true
			}

			var arrow string
			switch ref.Kind {
			case domain.OutcomeAnswerGroup:
				arrow = fmt.Sprintf("-- \"group %d\" -->", ref.Index+1)
			case domain.OutcomeFallback:
				arrow = fmt.Sprintf("-. \"fallback %d\" .->", ref.Index+1)
			default:
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, to))
		})
	}

	if usesTerminal {
		sb.WriteString(fmt.Sprintf("    %s(((\"%s\")))\n", mermaidTerminalID, domain.TerminalDest))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef flagged fill:#fff3e0,stroke:#e65100,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Flagged {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && g.Has(name) {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s flagged;\n", safeID))
			}
		}
		if overlay.Current != "" && g.Has(overlay.Current) {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func (g *Graph) isTerminal(st domain.State) bool {
	if st.Interaction.ID == "" {
		return false
	}
	spec, err := g.interactions.Lookup(st.Interaction.ID)
	return err == nil && spec.Terminal
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_")
	return r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
