package domain

// TerminalDest is the reserved destination meaning "the document ends here".
// It can never be used as a state name.
const TerminalDest = "END"

// Field constants for mapstructure and JSON standardization.
const (
	KeyContent           = "content"
	KeyInteraction       = "interaction"
	KeyParamChanges      = "param_changes"
	KeyClassifierModelID = "classifier_model_id"
	KeyRuleType          = "rule_type"

	// KeyLegacyRuleType is accepted on ingest and rewritten to KeyRuleType.
	KeyLegacyRuleType = "type"
)
