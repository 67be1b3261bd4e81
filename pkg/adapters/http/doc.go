// Package http serves the editing API of a session manager over HTTP.
//
// Routes live under /docs/{id}: reading states, warnings and the Mermaid
// graph, posting change lists, undo and redo, and committing a version.
// GET /interactions lists the interaction catalog.
// Errors map to status codes by their domain sentinel.
package http
