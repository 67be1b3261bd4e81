/*
Package domain contains the core data model of the Lattice state-graph editor.

It defines the entities a graph document is made of: named States, the Interaction
attached to each State, the ordered AnswerGroups and Rules that classify learner
input, and the Outcomes whose destinations form the edges of the graph. This package
is kept pure: no I/O, no persistence, no command history.

# Key Entities

  - State: a named node holding Content, an Interaction and parameter changes.
  - Interaction: the typed input mechanism (answer groups, default outcome, fallbacks).
  - Outcome: the destination (another State or TerminalDest) plus feedback.
  - Rule: a typed predicate with named inputs, owned by exactly one AnswerGroup.

Destinations are plain state names, never pointers. Referential integrity is
enforced procedurally by the graph package after every structural edit.
*/
package domain
