package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"x": Int(), "f": Fraction()}
type Schema map[string]Type

// Validate checks that every schema field is present in data and well typed.
// Fields not named by the schema are ignored. Errors are reported in field order.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []*FieldError
	for _, fieldName := range schema.Fields() {
		if err := validateField(schema[fieldName], fieldName, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &InputError{Fields: errs}
	}
	return nil
}

// ValidateExact is Validate plus a check that data carries no fields outside the schema.
func ValidateExact(schema Schema, data map[string]any) error {
	var errs []*FieldError
	if err := Validate(schema, data); err != nil {
		errs = append(errs, FieldErrors(err)...)
	}

	extra := make([]string, 0)
	for key := range data {
		if _, ok := schema[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs = append(errs, &FieldError{Field: key, Reason: "unexpected field", Value: data[key]})
	}

	if len(errs) > 0 {
		return &InputError{Fields: errs}
	}
	return nil
}

// Fields returns the schema's field names, sorted.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateField(fieldType Type, fieldName string, data map[string]any) *FieldError {
	value, exists := data[fieldName]
	if !exists {
		return &FieldError{Field: fieldName, Reason: "required"}
	}
	if err := fieldType.Validate(value); err != nil {
		return &FieldError{Field: fieldName, Reason: err.Error(), Value: value}
	}
	return nil
}
