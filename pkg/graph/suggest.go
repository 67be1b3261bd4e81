package graph

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/aretw0/lattice/pkg/domain"
)

func (g *Graph) unknownState(name string) error {
	if s := suggest(name, g.Names()); s != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", domain.ErrUnknownState, name, s)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownState, name)
}

// suggest returns the closest candidate within a third of the name's length,
// or "" if nothing is close enough. Candidates must be sorted; ties keep the first.
func suggest(name string, candidates []string) string {
	limit := len(name) / 3
	if limit < 1 {
		limit = 1
	}

	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
