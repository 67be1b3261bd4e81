package ports

import "context"

// GraphDocument is the serialized baseline of a document: the state dicts
// accepted by graph.FromDict plus the name of the entry state.
type GraphDocument struct {
	InitStateName string         `json:"init_state_name" yaml:"init_state_name"`
	States        map[string]any `json:"states" yaml:"states"`
}

// GraphSource loads document baselines.
type GraphSource interface {
	// Load returns the baseline of docID.
	// Returns domain.ErrDocumentNotFound if it does not exist.
	Load(ctx context.Context, docID string) (GraphDocument, error)

	// List returns the ids of all available documents, sorted.
	List(ctx context.Context) ([]string, error)
}
