// Package mcp exposes document editing as Model Context Protocol tools, so an
// agent can read states, apply change lists, undo, redo, inspect warnings and
// commit over stdio or SSE. The interaction catalog is served as a resource.
package mcp
