/*
Package graph implements the Graph Store: the mapping of state name to State,
with referential integrity of destinations.

Invariant: after every completed operation, every Outcome of every state
(answer groups, default outcome, fallbacks) points at domain.TerminalDest or at
a state that exists. Every operation checks everything it needs before it
mutates anything, so a failed operation leaves the graph untouched.

Reads (State, States) return deep copies. Structural edits are also available as
reversible commands (NewAddStateChange, NewRenameStateChange, ...) for use with
the history package, and ChangeFromDescriptor rebuilds those commands from a
stored change list.
*/
package graph
