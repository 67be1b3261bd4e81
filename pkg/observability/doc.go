/*
Package observability exports editor activity as Prometheus metrics.

Metrics plug into the command engine through history.Hooks, so every editor
created with those hooks reports applied, undone and redone commands. Commits
and analyzer warnings are recorded by the session layer.
*/
package observability
