package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// Versioning is off unless opts turn it back on.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles writes files (relative path to content) under dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// SampleDocument returns a small valid document: Start -> Middle -> END.
// Middle has a NumericInput whose second rule is redundant.
func SampleDocument() ports.GraphDocument {
	feedback := func(html string) map[string]any {
		return map[string]any{"html": html, "audio_translations": map[string]any{}}
	}
	outcome := func(dest, html string) map[string]any {
		return map[string]any{"dest": dest, "feedback": feedback(html), "param_changes": []any{}}
	}
	rule := func(ruleType string, x float64) map[string]any {
		return map[string]any{"rule_type": ruleType, "inputs": map[string]any{"x": x}}
	}
	state := func(html, interactionID string, def map[string]any, groups ...any) map[string]any {
		return map[string]any{
			"content": feedback(html),
			"interaction": map[string]any{
				"id":                 interactionID,
				"customization_args": map[string]any{},
				"answer_groups":      append([]any{}, groups...),
				"default_outcome":    def,
				"fallbacks":          []any{},
			},
			"param_changes":       []any{},
			"classifier_model_id": nil,
		}
	}

	return ports.GraphDocument{
		InitStateName: "Start",
		States: map[string]any{
			"Start": state("<p>Welcome</p>", "Continue", outcome("Middle", "")),
			"Middle": state("<p>Pick a number</p>", "NumericInput", outcome("Middle", "<p>Again</p>"),
				map[string]any{"rules": []any{rule("IsGreaterThan", 0)}, "outcome": outcome(domain.TerminalDest, "<p>Yes</p>"), "correct": true},
				map[string]any{"rules": []any{rule("Equals", 3)}, "outcome": outcome(domain.TerminalDest, "<p>Three</p>"), "correct": true},
			),
		},
	}
}
