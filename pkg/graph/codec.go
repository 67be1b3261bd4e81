package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// FromDict builds a graph from its serialized form: a map of state name to
// state dict. Every state is decoded strictly and checked against the
// interaction registry; the result must satisfy graph integrity.
func FromDict(dict map[string]any, opts ...Option) (*Graph, error) {
	g := newGraph(opts...)

	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := validateName(name); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
		}
		st, err := decodeState(name, dict[name])
		if err != nil {
			return nil, fmt.Errorf("%w: state %q: %w", domain.ErrMalformedStateData, name, err)
		}
		g.states[name] = st
	}

	for _, name := range names {
		st := g.states[name]
		if err := g.checkRules(st); err != nil {
			return nil, fmt.Errorf("%w: state %q: %w", domain.ErrMalformedStateData, name, err)
		}
	}
	if err := CheckIntegrity(g.states); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
	}
	if g.initState != "" && !g.Has(g.initState) {
		return nil, fmt.Errorf("%w: initial state %q is not defined", domain.ErrMalformedStateData, g.initState)
	}
	return g, nil
}

// ToDict serializes every state. The output mirrors what FromDict accepts,
// so FromDict(g.ToDict()) reproduces g.
func (g *Graph) ToDict() map[string]any {
	out := make(map[string]any, len(g.states))
	for name, st := range g.states {
		out[name] = StateToDict(st)
	}
	return out
}

// DecodeState decodes a single state dict.
func DecodeState(name string, raw any) (domain.State, error) {
	return decodeState(name, raw)
}

func decodeState(name string, raw any) (domain.State, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.State{}, fmt.Errorf("expected a dict, got %T", raw)
	}
	for _, key := range []string{domain.KeyContent, domain.KeyInteraction} {
		if _, ok := m[key]; !ok {
			return domain.State{}, fmt.Errorf("missing %q", key)
		}
	}

	m = domain.Copy(m)
	renameLegacyRuleKeys(m)

	var st domain.State
	if err := decode(m, &st); err != nil {
		return domain.State{}, err
	}
	st.Name = name
	normalize(&st)
	return st, nil
}

// renameLegacyRuleKeys rewrites {"type": ...} rules to {"rule_type": ...} in place.
func renameLegacyRuleKeys(state map[string]any) {
	interaction, _ := state[domain.KeyInteraction].(map[string]any)
	groups, _ := interaction["answer_groups"].([]any)
	for _, g := range groups {
		group, _ := g.(map[string]any)
		rules, _ := group["rules"].([]any)
		for _, r := range rules {
			rule, ok := r.(map[string]any)
			if !ok {
				continue
			}
			if v, legacy := rule[domain.KeyLegacyRuleType]; legacy {
				if _, current := rule[domain.KeyRuleType]; !current {
					rule[domain.KeyRuleType] = v
					delete(rule, domain.KeyLegacyRuleType)
				}
			}
		}
	}
}

func decode(input, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      result,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// coerce converts a decoded parameter (typically JSON data) into V.
func coerce[V any](raw any) (V, error) {
	var v V
	if raw == nil {
		return v, nil
	}
	if typed, ok := raw.(V); ok {
		return domain.Copy(typed), nil
	}
	if err := decode(domain.Copy(raw), &v); err != nil {
		return v, fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
	}
	return v, nil
}

// StateToDict serializes one state.
func StateToDict(st domain.State) map[string]any {
	var classifier any
	if st.ClassifierModelID != nil {
		classifier = *st.ClassifierModelID
	}
	return map[string]any{
		domain.KeyContent:           contentToDict(st.Content),
		domain.KeyInteraction:       interactionToDict(st.Interaction),
		domain.KeyParamChanges:      paramChangesToDict(st.ParamChanges),
		domain.KeyClassifierModelID: classifier,
	}
}

func interactionToDict(in domain.Interaction) map[string]any {
	var id any
	if in.ID != "" {
		id = in.ID
	}

	groups := make([]any, 0, len(in.AnswerGroups))
	for _, g := range in.AnswerGroups {
		rules := make([]any, 0, len(g.Rules))
		for _, r := range g.Rules {
			rules = append(rules, map[string]any{
				domain.KeyRuleType: r.Type,
				"inputs":           domain.Copy(orEmpty(r.Inputs)),
			})
		}
		groups = append(groups, map[string]any{
			"rules":   rules,
			"outcome": outcomeToDict(g.Outcome),
			"correct": g.Correct,
		})
	}

	var def any
	if in.DefaultOutcome != nil {
		def = outcomeToDict(*in.DefaultOutcome)
	}

	fallbacks := make([]any, 0, len(in.Fallbacks))
	for _, f := range in.Fallbacks {
		fallbacks = append(fallbacks, map[string]any{
			"trigger": map[string]any{
				"trigger_type":       f.Trigger.Type,
				"customization_args": domain.Copy(orEmpty(f.Trigger.CustomizationArgs)),
			},
			"outcome": outcomeToDict(f.Outcome),
		})
	}

	return map[string]any{
		"id":                 id,
		"customization_args": domain.Copy(orEmpty(in.CustomizationArgs)),
		"answer_groups":      groups,
		"default_outcome":    def,
		"fallbacks":          fallbacks,
	}
}

func outcomeToDict(o domain.Outcome) map[string]any {
	return map[string]any{
		"dest":          o.Dest,
		"feedback":      contentToDict(o.Feedback),
		"param_changes": paramChangesToDict(o.ParamChanges),
	}
}

func contentToDict(c domain.Content) map[string]any {
	audio := make(map[string]any, len(c.AudioTranslations))
	for lang, a := range c.AudioTranslations {
		audio[lang] = map[string]any{
			"filename":        a.Filename,
			"file_size_bytes": a.FileSizeBytes,
			"needs_update":    a.NeedsUpdate,
		}
	}
	return map[string]any{
		"html":               c.HTML,
		"audio_translations": audio,
	}
}

func paramChangesToDict(changes []domain.ParamChange) []any {
	out := make([]any, 0, len(changes))
	for _, pc := range changes {
		out = append(out, map[string]any{
			"name":               pc.Name,
			"generator_id":       pc.GeneratorID,
			"customization_args": domain.Copy(orEmpty(pc.CustomizationArgs)),
		})
	}
	return out
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// normalize replaces nil collections with empty ones so that decoded, copied
// and freshly built states compare equal.
func normalize(st *domain.State) {
	normalizeContent(&st.Content)
	st.ParamChanges = normalizeParamChanges(st.ParamChanges)

	in := &st.Interaction
	if in.CustomizationArgs == nil {
		in.CustomizationArgs = map[string]any{}
	}
	if in.AnswerGroups == nil {
		in.AnswerGroups = []domain.AnswerGroup{}
	}
	if in.Fallbacks == nil {
		in.Fallbacks = []domain.Fallback{}
	}
	for i := range in.AnswerGroups {
		g := &in.AnswerGroups[i]
		if g.Rules == nil {
			g.Rules = []domain.Rule{}
		}
		for j := range g.Rules {
			if g.Rules[j].Inputs == nil {
				g.Rules[j].Inputs = map[string]any{}
			}
		}
	}
	for i := range in.Fallbacks {
		if in.Fallbacks[i].Trigger.CustomizationArgs == nil {
			in.Fallbacks[i].Trigger.CustomizationArgs = map[string]any{}
		}
	}
	in.EachOutcome(func(_ domain.OutcomeRef, o *domain.Outcome) {
		normalizeContent(&o.Feedback)
		o.ParamChanges = normalizeParamChanges(o.ParamChanges)
	})
}

func normalizeContent(c *domain.Content) {
	if c.AudioTranslations == nil {
		c.AudioTranslations = map[string]domain.AudioTranslation{}
	}
}

func normalizeParamChanges(changes []domain.ParamChange) []domain.ParamChange {
	if changes == nil {
		return []domain.ParamChange{}
	}
	for i := range changes {
		if changes[i].CustomizationArgs == nil {
			changes[i].CustomizationArgs = map[string]any{}
		}
	}
	return changes
}
