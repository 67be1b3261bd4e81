/*
Package analyzer inspects the answer groups of one state and reports rules that
can never match: rules with invalid inputs, and rules whose matched set is
already covered by rules evaluated before them.

Analysis is pure and read-only. It never fails; anything it cannot classify
is passed through without a warning.
*/
package analyzer
