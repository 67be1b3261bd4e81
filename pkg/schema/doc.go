// Package schema validates the typed inputs of interaction rules.
//
// A Schema maps input names to Types. Built-in types cover strings, integers,
// real numbers, booleans, slices and nested objects such as the fraction dict:
//
//	inputs := schema.Schema{"f": schema.Fraction()}
//	if err := schema.ValidateExact(inputs, rule.Inputs); err != nil {
//	    // inputs are missing, mistyped or carry unexpected keys
//	}
//
// Numeric validation accepts every numeric representation a decoder may
// produce (int kinds, float64, json.Number). Whether a number is semantically
// valid for a rule (an integral numerator, a positive denominator) is left to
// the analyzer, which reports it as a warning instead of rejecting the document.
//
// Schemas serialize to JSON as {field: typeName} and parse back with ParseTypeMap.
package schema
